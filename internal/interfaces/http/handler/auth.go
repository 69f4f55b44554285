package handler

import (
	"time"

	"github.com/ftzops/backend/internal/infrastructure/auth"
	"github.com/ftzops/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthHandler exposes session revocation for operators: force-expiring
// a user's tokens before their natural expiry, e.g. when credentials
// leak or an account is disabled.
type AuthHandler struct {
	BaseHandler
	revocations auth.TokenRevocations
	tokenTTL    time.Duration
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. tokenTTL should match the
// access token lifetime so revocation entries outlive the tokens they
// invalidate.
func NewAuthHandler(revocations auth.TokenRevocations, tokenTTL time.Duration, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		revocations: revocations,
		tokenTTL:    tokenTTL,
		logger:      logger,
	}
}

// RevokeUserRequest identifies the user whose tokens to invalidate
type RevokeUserRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

// RevokeUser invalidates every token the user currently holds
func (h *AuthHandler) RevokeUser(c *gin.Context) {
	var req RevokeUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request: user_id is required")
		return
	}

	if err := h.revocations.RevokeUser(c.Request.Context(), req.UserID.String(), h.tokenTTL); err != nil {
		h.InternalError(c, "Failed to revoke user tokens")
		return
	}

	h.logger.Info("User tokens revoked",
		zap.String("user_id", req.UserID.String()),
		zap.String("revoked_by", middleware.GetJWTUserID(c)),
	)

	h.Success(c, gin.H{"user_id": req.UserID, "revoked": true})
}
