// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// LedgerMetrics provides business metrics for the lot ledger.
// It tracks admissions, withdrawals, guard contention, and reconciliation health.
type LedgerMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	lotAdmittedTotal       *Counter
	lotValueAdmittedTotal  *Counter
	transactionTotal       *Counter
	guardTimeoutTotal      *Counter
	integrityMismatchTotal *Counter

	// Gauge metrics (point-in-time values)
	lotCountByStatus *Gauge
	quantityOnHand   *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	lotProvider LotMetricsProvider
}

// LotMetricsProvider provides lot inventory data for periodic metrics collection.
// This interface allows the telemetry layer to query lot state without
// depending on the lot domain directly.
type LotMetricsProvider interface {
	// GetLotCountByStatus returns the number of lots per status.
	GetLotCountByStatus(ctx context.Context) (map[string]int64, error)

	// GetQuantityOnHandByLocation returns total current quantity per storage location.
	GetQuantityOnHandByLocation(ctx context.Context) (map[uuid.UUID]int64, error)
}

// LedgerMetricsConfig holds configuration for ledger metrics.
type LedgerMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	LotProvider     LotMetricsProvider
}

// NewLedgerMetrics creates a new LedgerMetrics instance.
func NewLedgerMetrics(cfg LedgerMetricsConfig) (*LedgerMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	lm := &LedgerMetrics{
		meter:       cfg.Meter,
		logger:      logger,
		stopChan:    make(chan struct{}),
		lotProvider: cfg.LotProvider,
	}

	var err error

	lm.lotAdmittedTotal, err = NewCounter(
		cfg.Meter,
		"ftz_lot_admitted_total",
		"Total number of lots admitted into the zone",
		"{lots}",
	)
	if err != nil {
		return nil, err
	}

	lm.lotValueAdmittedTotal, err = NewCounter(
		cfg.Meter,
		"ftz_lot_value_admitted_total",
		"Total declared value admitted, in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	lm.transactionTotal, err = NewCounter(
		cfg.Meter,
		"ftz_ledger_transaction_total",
		"Total number of ledger transactions recorded",
		"{transactions}",
	)
	if err != nil {
		return nil, err
	}

	lm.guardTimeoutTotal, err = NewCounter(
		cfg.Meter,
		"ftz_lot_guard_timeout_total",
		"Total number of lot guard acquisitions that timed out",
		"{timeouts}",
	)
	if err != nil {
		return nil, err
	}

	lm.integrityMismatchTotal, err = NewCounter(
		cfg.Meter,
		"ftz_integrity_mismatch_total",
		"Total number of integrity mismatches found by reconciliation",
		"{mismatches}",
	)
	if err != nil {
		return nil, err
	}

	lm.lotCountByStatus, err = NewGauge(
		cfg.Meter,
		"ftz_lot_count",
		"Current number of lots per status",
		"{lots}",
	)
	if err != nil {
		return nil, err
	}

	lm.quantityOnHand, err = NewGauge(
		cfg.Meter,
		"ftz_quantity_on_hand",
		"Current quantity on hand per storage location",
		"{units}",
	)
	if err != nil {
		return nil, err
	}

	return lm, nil
}

// =============================================================================
// Admission Metrics
// =============================================================================

// RecordLotAdmitted records a lot admission event.
// This should be called from the application layer when an admission completes.
func (lm *LedgerMetrics) RecordLotAdmitted(ctx context.Context, customerID uuid.UUID) {
	lm.lotAdmittedTotal.Inc(ctx,
		AttrCustomerID.String(customerID.String()),
	)
}

// RecordLotValueAdmitted records the declared value of an admitted lot.
// Value is recorded in the smallest currency unit (cents).
func (lm *LedgerMetrics) RecordLotValueAdmitted(ctx context.Context, customerID uuid.UUID, value decimal.Decimal) {
	cents := value.Mul(decimal.NewFromInt(100)).IntPart()
	lm.lotValueAdmittedTotal.Add(ctx, cents,
		AttrCustomerID.String(customerID.String()),
	)
}

// =============================================================================
// Ledger Metrics
// =============================================================================

// RecordTransaction records a ledger transaction by type.
func (lm *LedgerMetrics) RecordTransaction(ctx context.Context, transactionType string) {
	lm.transactionTotal.Inc(ctx,
		AttrTransactionType.String(transactionType),
	)
}

// RecordGuardTimeout records a lot guard acquisition that timed out.
func (lm *LedgerMetrics) RecordGuardTimeout(ctx context.Context) {
	lm.guardTimeoutTotal.Inc(ctx)
}

// RecordIntegrityMismatch records a balance mismatch found by a reconciliation sweep.
func (lm *LedgerMetrics) RecordIntegrityMismatch(ctx context.Context, count int64) {
	if count <= 0 {
		return
	}
	lm.integrityMismatchTotal.Add(ctx, count)
}

// =============================================================================
// Inventory Gauges
// =============================================================================

// RecordLotCount records the current number of lots in a given status.
// This is a gauge metric that should be updated periodically.
func (lm *LedgerMetrics) RecordLotCount(ctx context.Context, status string, count int64) {
	lm.lotCountByStatus.Record(ctx, count,
		AttrLotStatus.String(status),
	)
}

// RecordQuantityOnHand records the current quantity on hand for a storage location.
func (lm *LedgerMetrics) RecordQuantityOnHand(ctx context.Context, locationID uuid.UUID, quantity int64) {
	lm.quantityOnHand.Record(ctx, quantity,
		AttrLocationID.String(locationID.String()),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// It collects lot inventory metrics every interval (default: 5 minutes).
// This is non-blocking - use Stop() to stop collection.
func (lm *LedgerMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	lm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go lm.runPeriodicCollection(ctx, interval)
	})
}

func (lm *LedgerMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	lm.collectLotMetrics(ctx)

	for {
		select {
		case <-lm.stopChan:
			lm.logger.Info("Stopping periodic ledger metrics collection")
			return
		case <-ctx.Done():
			lm.logger.Info("Context cancelled, stopping periodic ledger metrics collection")
			return
		case <-ticker.C:
			lm.collectLotMetrics(ctx)
		}
	}
}

func (lm *LedgerMetrics) collectLotMetrics(ctx context.Context) {
	if lm.lotProvider == nil {
		lm.logger.Debug("No lot provider configured, skipping lot metrics collection")
		return
	}

	countByStatus, err := lm.lotProvider.GetLotCountByStatus(ctx)
	if err != nil {
		lm.logger.Warn("Failed to get lot counts for metrics collection", zap.Error(err))
	} else {
		for status, count := range countByStatus {
			lm.RecordLotCount(ctx, status, count)
		}
	}

	quantityByLocation, err := lm.lotProvider.GetQuantityOnHandByLocation(ctx)
	if err != nil {
		lm.logger.Warn("Failed to get quantity on hand for metrics collection", zap.Error(err))
	} else {
		for locationID, quantity := range quantityByLocation {
			lm.RecordQuantityOnHand(ctx, locationID, quantity)
		}
	}
}

// Stop stops the periodic collection.
func (lm *LedgerMetrics) Stop() {
	lm.stopOnce.Do(func() {
		close(lm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewLedgerMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
