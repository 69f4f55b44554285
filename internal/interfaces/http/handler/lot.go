package handler

import (
	"strconv"
	"strings"

	lotapp "github.com/ftzops/backend/internal/application/lot"
	domain "github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LotHandler handles inventory lot API endpoints
type LotHandler struct {
	BaseHandler
	lotService *lotapp.Service
}

// NewLotHandler creates a new LotHandler
func NewLotHandler(lotService *lotapp.Service) *LotHandler {
	return &LotHandler{lotService: lotService}
}

// HoldRequest carries the reason for placing a lot on hold
type HoldRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// VoidRequest carries the reason for voiding a lot
type VoidRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// List returns a paginated lot listing. Customer principals only see
// their own lots; operators see everything and may filter by customer.
func (h *LotHandler) List(c *gin.Context) {
	filter := domain.LotFilter{Filter: bindListFilter(c)}

	if scopeID, scoped := middleware.CustomerScope(c); scoped {
		filter.CustomerID = &scopeID
	} else if raw := c.Query("customer_id"); raw != "" {
		customerID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid customer ID format")
			return
		}
		filter.CustomerID = &customerID
	}

	if raw := c.Query("part_id"); raw != "" {
		partID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid part ID format")
			return
		}
		filter.PartID = &partID
	}

	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := domain.LotStatus(strings.ToUpper(strings.TrimSpace(s)))
			if !status.IsValid() {
				h.BadRequest(c, "Invalid lot status: "+s)
				return
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	if raw := c.Query("voided"); raw != "" {
		voided, err := strconv.ParseBool(raw)
		if err != nil {
			h.BadRequest(c, "Invalid voided flag")
			return
		}
		filter.Voided = &voided
	}

	filter.Manifest = c.Query("manifest_number")

	result, err := h.lotService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// GetByID returns a single lot. Customer principals can only read lots
// they own.
func (h *LotHandler) GetByID(c *gin.Context) {
	lotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lot ID format")
		return
	}

	var lot *lotapp.LotResponse
	if scopeID, scoped := middleware.CustomerScope(c); scoped {
		lot, err = h.lotService.GetForCustomer(c.Request.Context(), scopeID, lotID)
	} else {
		lot, err = h.lotService.GetByID(c.Request.Context(), lotID)
	}
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lot)
}

// PlaceHold puts an in-stock lot on customs hold
func (h *LotHandler) PlaceHold(c *gin.Context) {
	lotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lot ID format")
		return
	}

	var req HoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	actor, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user identity")
		return
	}

	lot, err := h.lotService.PlaceHold(c.Request.Context(), lotID, req.Reason, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lot)
}

// ReleaseHold lifts a customs hold, returning the lot to its prior status
func (h *LotHandler) ReleaseHold(c *gin.Context) {
	lotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lot ID format")
		return
	}

	actor, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user identity")
		return
	}

	lot, err := h.lotService.ReleaseHold(c.Request.Context(), lotID, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lot)
}

// Void permanently voids a lot, recording a compensating removal for any
// remaining balance
func (h *LotHandler) Void(c *gin.Context) {
	lotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lot ID format")
		return
	}

	var req VoidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	actor, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user identity")
		return
	}

	lot, err := h.lotService.Void(c.Request.Context(), lotID, req.Reason, actor)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lot)
}

// Valuation returns the remaining declared value of a customer's inventory,
// grouped by part. Customer principals are locked to their own scope.
func (h *LotHandler) Valuation(c *gin.Context) {
	var customerID uuid.UUID
	if scopeID, scoped := middleware.CustomerScope(c); scoped {
		customerID = scopeID
	} else {
		raw := c.Query("customer_id")
		if raw == "" {
			h.BadRequest(c, "customer_id query parameter is required")
			return
		}
		parsed, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid customer ID format")
			return
		}
		customerID = parsed
	}

	valuation, err := h.lotService.Valuate(c.Request.Context(), customerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, valuation)
}

// LowStock lists lots whose balance fell at or below the low stock level
func (h *LotHandler) LowStock(c *gin.Context) {
	var customerID *uuid.UUID
	if scopeID, scoped := middleware.CustomerScope(c); scoped {
		customerID = &scopeID
	} else if raw := c.Query("customer_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid customer ID format")
			return
		}
		customerID = &parsed
	}

	lots, err := h.lotService.ListLowStock(c.Request.Context(), customerID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, lots)
}
