package handler

import (
	ledgerapp "github.com/ftzops/backend/internal/application/ledger"
	"github.com/ftzops/backend/internal/infrastructure/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReconciliationHandler handles ledger reconciliation API endpoints.
// All routes are operator-only.
type ReconciliationHandler struct {
	BaseHandler
	reconciliation *ledgerapp.ReconciliationService
	sweeper        *scheduler.ReconciliationScheduler
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(
	reconciliation *ledgerapp.ReconciliationService,
	sweeper *scheduler.ReconciliationScheduler,
) *ReconciliationHandler {
	return &ReconciliationHandler{
		reconciliation: reconciliation,
		sweeper:        sweeper,
	}
}

// VerifyLotResponse reports the integrity of a single lot
type VerifyLotResponse struct {
	LotID    uuid.UUID                    `json:"lot_id"`
	Clean    bool                         `json:"clean"`
	Mismatch *ledgerapp.IntegrityMismatch `json:"mismatch,omitempty"`
}

// TriggerRun starts a manual reconciliation sweep in the background
func (h *ReconciliationHandler) TriggerRun(c *gin.Context) {
	if err := h.sweeper.TriggerManualRun(c.Request.Context()); err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, gin.H{"triggered": true})
}

// Status returns the scheduler state and the summary of the last sweep
func (h *ReconciliationHandler) Status(c *gin.Context) {
	h.Success(c, h.sweeper.GetStatus())
}

// LastReport returns the full mismatch report of the most recent sweep
func (h *ReconciliationHandler) LastReport(c *gin.Context) {
	report := h.sweeper.GetLastReport()
	if report == nil {
		h.NotFound(c, "No reconciliation run has completed yet")
		return
	}

	h.Success(c, report)
}

// VerifyLot recomputes one lot's balance from its ledger and reports drift
func (h *ReconciliationHandler) VerifyLot(c *gin.Context) {
	lotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lot ID format")
		return
	}

	mismatch, err := h.reconciliation.VerifyLot(c.Request.Context(), lotID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, VerifyLotResponse{
		LotID:    lotID,
		Clean:    mismatch == nil,
		Mismatch: mismatch,
	})
}
