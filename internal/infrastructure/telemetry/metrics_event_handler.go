package telemetry

import (
	"context"

	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LedgerMetricsHandler feeds the ledger instruments from domain events.
// Recording failures are logged and swallowed so metric export can never
// fail a mutation.
type LedgerMetricsHandler struct {
	metrics *LedgerMetrics
	lots    lot.LotRepository
	logger  *zap.Logger
}

// NewLedgerMetricsHandler creates a new LedgerMetricsHandler
func NewLedgerMetricsHandler(metrics *LedgerMetrics, lots lot.LotRepository, logger *zap.Logger) *LedgerMetricsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerMetricsHandler{
		metrics: metrics,
		lots:    lots,
		logger:  logger,
	}
}

// EventTypes returns the event types this handler consumes
func (h *LedgerMetricsHandler) EventTypes() []string {
	return []string{
		lot.EventTypeLotCreated,
		lot.EventTypeLotQuantityChanged,
	}
}

// Handle records the instruments for one domain event
func (h *LedgerMetricsHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *lot.LotCreatedEvent:
		h.metrics.RecordLotAdmitted(ctx, e.CustomerID)
		h.recordAdmittedValue(ctx, e)
	case *lot.LotQuantityChangedEvent:
		direction := "inbound"
		if e.Delta < 0 {
			direction = "outbound"
		}
		h.metrics.RecordTransaction(ctx, direction)
	}
	return nil
}

// recordAdmittedValue loads the lot to pick up its declared customs value,
// which the creation event does not carry
func (h *LedgerMetricsHandler) recordAdmittedValue(ctx context.Context, e *lot.LotCreatedEvent) {
	l, err := h.lots.FindByID(ctx, e.AggregateID())
	if err != nil {
		h.logger.Warn("could not load lot for value metric",
			zap.String("lot_id", e.AggregateID().String()),
			zap.Error(err),
		)
		return
	}
	h.metrics.RecordLotValueAdmitted(ctx, l.CustomerID, l.TotalValue)
}

var _ shared.EventHandler = (*LedgerMetricsHandler)(nil)
