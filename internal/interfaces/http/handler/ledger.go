package handler

import (
	"strings"
	"time"

	ledgerapp "github.com/ftzops/backend/internal/application/ledger"
	lotapp "github.com/ftzops/backend/internal/application/lot"
	domain "github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LedgerHandler handles lot ledger API endpoints
type LedgerHandler struct {
	BaseHandler
	ledgerService *ledgerapp.LedgerService
	lotService    *lotapp.Service
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *ledgerapp.LedgerService, lotService *lotapp.Service) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		lotService:    lotService,
	}
}

// BalanceResponse carries a lot's ledger-derived balance
type BalanceResponse struct {
	LotID   uuid.UUID `json:"lot_id"`
	Balance int64     `json:"balance"`
}

// Append records one movement against a lot. Operator only.
func (h *LedgerHandler) Append(c *gin.Context) {
	var req ledgerapp.AppendTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if !req.Type.IsValid() {
		h.BadRequest(c, "Invalid transaction type")
		return
	}

	actor, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Invalid user identity")
		return
	}
	req.PerformedBy = actor

	tx, err := h.ledgerService.Append(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, tx)
}

// History returns every ledger entry of a lot in chronological order.
// Customer principals can only read the ledgers of lots they own.
func (h *LedgerHandler) History(c *gin.Context) {
	lotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lot ID format")
		return
	}

	if !h.authorizeLotAccess(c, lotID) {
		return
	}

	history, err := h.ledgerService.GetHistory(c.Request.Context(), lotID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, history)
}

// Balance recomputes a lot's balance from its ledger
func (h *LedgerHandler) Balance(c *gin.Context) {
	lotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lot ID format")
		return
	}

	if !h.authorizeLotAccess(c, lotID) {
		return
	}

	balance, err := h.ledgerService.ComputeBalance(c.Request.Context(), lotID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, BalanceResponse{LotID: lotID, Balance: balance})
}

// List returns a paginated ledger listing across lots. Operator only.
func (h *LedgerHandler) List(c *gin.Context) {
	filter := domain.TransactionFilter{Filter: bindListFilter(c)}

	if raw := c.Query("lot_id"); raw != "" {
		lotID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid lot ID format")
			return
		}
		filter.LotID = &lotID
	}

	if raw := c.Query("type"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			txType := domain.TransactionType(strings.ToUpper(strings.TrimSpace(s)))
			if !txType.IsValid() {
				h.BadRequest(c, "Invalid transaction type: "+s)
				return
			}
			filter.Types = append(filter.Types, txType)
		}
	}

	filter.ReferenceType = c.Query("reference_type")
	if raw := c.Query("reference_id"); raw != "" {
		refID, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid reference ID format")
			return
		}
		filter.ReferenceID = &refID
	}

	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.BadRequest(c, "Invalid from timestamp, expected RFC3339")
			return
		}
		filter.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.BadRequest(c, "Invalid to timestamp, expected RFC3339")
			return
		}
		filter.To = &to
	}

	result, err := h.ledgerService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// authorizeLotAccess verifies that a customer principal owns the lot.
// Operators pass unconditionally. Writes the error response on failure.
func (h *LedgerHandler) authorizeLotAccess(c *gin.Context, lotID uuid.UUID) bool {
	scopeID, scoped := middleware.CustomerScope(c)
	if !scoped {
		return true
	}
	if _, err := h.lotService.GetForCustomer(c.Request.Context(), scopeID, lotID); err != nil {
		h.HandleDomainError(c, err)
		return false
	}
	return true
}
