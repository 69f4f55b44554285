package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/ftzops/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

type staticLotRepo struct {
	lot *lot.InventoryLot
}

func (r *staticLotRepo) FindByID(ctx context.Context, id uuid.UUID) (*lot.InventoryLot, error) {
	if r.lot != nil && r.lot.ID == id {
		return r.lot, nil
	}
	return nil, shared.ErrNotFound
}

func (r *staticLotRepo) FindByManifest(ctx context.Context, customerID uuid.UUID, manifest string) ([]*lot.InventoryLot, error) {
	return nil, nil
}

func (r *staticLotRepo) List(ctx context.Context, filter lot.LotFilter) (*shared.Paginated[*lot.InventoryLot], error) {
	return nil, nil
}

func (r *staticLotRepo) Save(ctx context.Context, l *lot.InventoryLot) error         { return nil }
func (r *staticLotRepo) SaveWithLock(ctx context.Context, l *lot.InventoryLot) error { return nil }
func (r *staticLotRepo) Delete(ctx context.Context, id uuid.UUID) error              { return nil }

func newMetricsHandlerFixture(t *testing.T) (*telemetry.LedgerMetricsHandler, *lot.InventoryLot) {
	t.Helper()

	l, err := lot.NewInventoryLot(
		uuid.New(), uuid.New(), uuid.New(),
		100,
		time.Now(),
		"MAN-2026-0100",
		decimal.NewFromInt(2500),
		uuid.New(),
	)
	require.NoError(t, err)
	l.ClearDomainEvents()

	lm, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter:  noop.NewMeterProvider().Meter("test"),
		Logger: zap.NewNop(),
	})
	require.NoError(t, err)

	handler := telemetry.NewLedgerMetricsHandler(lm, &staticLotRepo{lot: l}, zap.NewNop())
	return handler, l
}

func TestLedgerMetricsHandler_EventTypes(t *testing.T) {
	handler, _ := newMetricsHandlerFixture(t)

	types := handler.EventTypes()
	assert.Contains(t, types, lot.EventTypeLotCreated)
	assert.Contains(t, types, lot.EventTypeLotQuantityChanged)
}

func TestLedgerMetricsHandler_Handle(t *testing.T) {
	handler, l := newMetricsHandlerFixture(t)
	ctx := context.Background()

	// Creation and movement events must both succeed without side errors
	require.NoError(t, handler.Handle(ctx, lot.NewLotCreatedEvent(l)))
	require.NoError(t, handler.Handle(ctx, lot.NewLotQuantityChangedEvent(l, 100, 60, -40)))
	require.NoError(t, handler.Handle(ctx, lot.NewLotQuantityChangedEvent(l, 60, 90, 30)))
}

func TestLedgerMetricsHandler_HandleUnknownLot(t *testing.T) {
	handler, _ := newMetricsHandlerFixture(t)

	other, err := lot.NewInventoryLot(
		uuid.New(), uuid.New(), uuid.New(),
		10,
		time.Now(),
		"MAN-2026-0101",
		decimal.NewFromInt(100),
		uuid.New(),
	)
	require.NoError(t, err)

	// Repository miss on the value lookup is swallowed
	assert.NoError(t, handler.Handle(context.Background(), lot.NewLotCreatedEvent(other)))
}
