package telemetry_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ftzops/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

func TestNewLedgerMetrics(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")

	lm, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter:  meter,
		Logger: zap.NewNop(),
	})

	require.NoError(t, err)
	require.NotNil(t, lm)
}

func TestNewLedgerMetrics_NilMeter(t *testing.T) {
	lm, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter:  nil,
		Logger: zap.NewNop(),
	})

	require.Error(t, err)
	assert.Nil(t, lm)
	assert.Equal(t, "NewLedgerMetrics: meter cannot be nil", err.Error())
}

func TestLedgerMetrics_RecordAdmission(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	lm, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()
	customerID := uuid.New()

	// Should not panic
	lm.RecordLotAdmitted(ctx, customerID)
	lm.RecordLotValueAdmitted(ctx, customerID, decimal.NewFromFloat(1250.50))
}

func TestLedgerMetrics_RecordTransaction(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	lm, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()

	// Should not panic
	lm.RecordTransaction(ctx, "ADMISSION")
	lm.RecordTransaction(ctx, "WITHDRAWAL")
	lm.RecordGuardTimeout(ctx)
}

func TestLedgerMetrics_RecordIntegrityMismatch(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	lm, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()

	lm.RecordIntegrityMismatch(ctx, 3)
	// Zero and negative counts are ignored
	lm.RecordIntegrityMismatch(ctx, 0)
	lm.RecordIntegrityMismatch(ctx, -1)
}

func TestLedgerMetrics_RecordGauges(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	lm, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	ctx := context.Background()

	lm.RecordLotCount(ctx, "IN_STOCK", 42)
	lm.RecordLotCount(ctx, "DEPLETED", 7)
	lm.RecordQuantityOnHand(ctx, uuid.New(), 1500)
}

type stubLotProvider struct {
	statusCalls   atomic.Int64
	locationCalls atomic.Int64
}

func (p *stubLotProvider) GetLotCountByStatus(_ context.Context) (map[string]int64, error) {
	p.statusCalls.Add(1)
	return map[string]int64{"IN_STOCK": 10, "ON_HOLD": 2}, nil
}

func (p *stubLotProvider) GetQuantityOnHandByLocation(_ context.Context) (map[uuid.UUID]int64, error) {
	p.locationCalls.Add(1)
	return map[uuid.UUID]int64{uuid.New(): 500}, nil
}

func TestLedgerMetrics_PeriodicCollection(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	provider := &stubLotProvider{}

	lm, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter:       meter,
		Logger:      zap.NewNop(),
		LotProvider: provider,
	})
	require.NoError(t, err)

	ctx := context.Background()
	lm.StartPeriodicCollection(ctx, time.Hour)
	defer lm.Stop()

	// The collector runs once immediately on start
	assert.Eventually(t, func() bool {
		return provider.statusCalls.Load() >= 1 && provider.locationCalls.Load() >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestLedgerMetrics_StopIsIdempotent(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	lm, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
		Meter: meter,
	})
	require.NoError(t, err)

	lm.Stop()
	lm.Stop()
}
