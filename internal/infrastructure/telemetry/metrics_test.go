package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/ftzops/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap/zaptest"
)

// noopMeter builds a disabled provider; instruments created from it record
// into the no-op meter without needing a collector.
func noopMeter(t *testing.T) (*telemetry.MeterProvider, metric.Meter) {
	t.Helper()

	cfg := telemetry.MetricsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "ftz-ledger",
	}

	mp, err := telemetry.NewMeterProvider(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	return mp, mp.Meter("ledger-test")
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	mp, _ := noopMeter(t)

	assert.False(t, mp.IsEnabled())
	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestNewMeterProvider_Enabled(t *testing.T) {
	// Needs a reachable OTLP collector; run locally with `make otel-up`.
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	cfg := telemetry.MetricsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		ExportInterval:    1 * time.Second,
		ServiceName:       "ftz-ledger",
		Insecure:          true,
	}

	mp, err := telemetry.NewMeterProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, mp)

	assert.True(t, mp.IsEnabled())
	require.NotNil(t, mp.Meter("ledger-test"))

	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestMeterProvider_ShutdownWithCancelledContext(t *testing.T) {
	mp, _ := noopMeter(t)

	cancelledCtx, cancel := context.WithCancel(context.Background())
	cancel()

	// A disabled provider has nothing to flush.
	assert.NoError(t, mp.Shutdown(cancelledCtx))
}

func TestCounter(t *testing.T) {
	ctx := context.Background()
	_, meter := noopMeter(t)

	counter, err := telemetry.NewCounter(meter, "lot_admissions_total", "Admitted lots", "{lot}")
	require.NoError(t, err)
	require.NotNil(t, counter)

	counter.Add(ctx, 5, telemetry.AttrCustomerID.String("cust-acme"))
	counter.Inc(ctx, telemetry.AttrLotStatus.String("IN_STOCK"))
	counter.Inc(ctx)
}

func TestHistogram_Record(t *testing.T) {
	ctx := context.Background()
	_, meter := noopMeter(t)

	histogram, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "http_request_duration_seconds",
		Description: "HTTP request duration",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	require.NoError(t, err)
	require.NotNil(t, histogram)

	histogram.Record(ctx, 0.005)
	histogram.Record(ctx, 0.1, telemetry.AttrHTTPRoute.String("/api/v1/lots"))
	histogram.Record(ctx, 2.5, telemetry.AttrHTTPRoute.String("/api/v1/shipments"))
}

func TestHistogram_RecordDuration(t *testing.T) {
	ctx := context.Background()
	_, meter := noopMeter(t)

	histogram, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query duration",
		Unit:        "s",
		Boundaries:  telemetry.DBDurationBuckets,
	})
	require.NoError(t, err)

	histogram.RecordDuration(ctx, 5*time.Millisecond)
	histogram.RecordDuration(ctx, 100*time.Millisecond, telemetry.AttrDBOperation.String("SELECT"))
	histogram.RecordDuration(ctx, 1*time.Second, telemetry.AttrDBOperation.String("INSERT"))
}

func TestHistogram_DefaultBoundaries(t *testing.T) {
	ctx := context.Background()
	_, meter := noopMeter(t)

	histogram, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "reconciliation_sweep_duration_seconds",
		Description: "Reconciliation sweep duration",
		Unit:        "s",
	})
	require.NoError(t, err)
	require.NotNil(t, histogram)

	histogram.Record(ctx, 1.5)
}

func TestGauge_Record(t *testing.T) {
	ctx := context.Background()
	_, meter := noopMeter(t)

	gauge, err := telemetry.NewGauge(meter, "lots_on_hold", "Lots currently on hold", "{lot}")
	require.NoError(t, err)
	require.NotNil(t, gauge)

	gauge.Record(ctx, 10)
	gauge.Record(ctx, 15, telemetry.AttrCustomerID.String("cust-acme"))
	gauge.Record(ctx, 5, telemetry.AttrCustomerID.String("cust-globex"))
}

func TestFloatGauge_Record(t *testing.T) {
	ctx := context.Background()
	_, meter := noopMeter(t)

	gauge, err := telemetry.NewFloatGauge(meter, "outbox_backlog_ratio", "Outbox backlog against capacity", "1")
	require.NoError(t, err)
	require.NotNil(t, gauge)

	gauge.Record(ctx, 0.45)
	gauge.Record(ctx, 0.78, attribute.String("status", "PENDING"))
}

func TestCommonAttributes(t *testing.T) {
	assert.Equal(t, "customer_id", string(telemetry.AttrCustomerID))
	assert.Equal(t, "user_id", string(telemetry.AttrUserID))
	assert.Equal(t, "http.method", string(telemetry.AttrHTTPMethod))
	assert.Equal(t, "http.status_code", string(telemetry.AttrHTTPStatusCode))
	assert.Equal(t, "http.route", string(telemetry.AttrHTTPRoute))
	assert.Equal(t, "db.operation", string(telemetry.AttrDBOperation))
	assert.Equal(t, "db.table", string(telemetry.AttrDBTable))
	assert.Equal(t, "db.pool.state", string(telemetry.AttrDBState))
	assert.Equal(t, "transaction_type", string(telemetry.AttrTransactionType))
	assert.Equal(t, "lot_status", string(telemetry.AttrLotStatus))
	assert.Equal(t, "reference_type", string(telemetry.AttrReferenceType))
	assert.Equal(t, "storage_location_id", string(telemetry.AttrLocationID))
	assert.Equal(t, "manifest_number", string(telemetry.AttrManifestNumber))
}

func TestDefaultBuckets(t *testing.T) {
	assert.Equal(t, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, telemetry.HTTPDurationBuckets)
	assert.Equal(t, []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}, telemetry.DBDurationBuckets)
	assert.Equal(t, []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1}, telemetry.SmallDurationBuckets)
}
