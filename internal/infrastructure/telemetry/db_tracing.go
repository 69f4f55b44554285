// Package telemetry provides OpenTelemetry integration for distributed tracing.
package telemetry

import (
	"context"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for ledger query tracing.
type DBTracingConfig struct {
	Enabled          bool          // Enable database tracing
	LogFullSQL       bool          // Include full SQL statements in spans (dev only)
	SlowQueryThresh  time.Duration // Threshold for marking queries as slow
	DBSystem         string        // Database system name
	WithoutVariables bool          // Exclude bound values from recorded SQL
}

// DefaultDBTracingConfig returns the default query tracing configuration.
// Statements are recorded without bound values: lot quantities and customs
// values must not leak into spans.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		Enabled:          false,
		LogFullSQL:       false,
		SlowQueryThresh:  200 * time.Millisecond,
		DBSystem:         "postgresql",
		WithoutVariables: true,
	}
}

// DBTracingPlugin wraps otelgorm and layers slow-query detection on top.
// Every ledger read and write goes through GORM, so the plugin covers the
// whole persistence surface once registered.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a query tracing plugin with the given configuration.
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	return &DBTracingPlugin{
		config: cfg,
		logger: logger,
	}
}

type contextKey string

// queryStartTimeKey carries the statement start time from the before
// callback to the after callback.
const queryStartTimeKey contextKey = "otel_query_start_time"

// RegisterOtelGorm registers otelgorm plus the timing callbacks on the GORM
// connection. A no-op when tracing is disabled.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Query tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{
		otelgorm.WithDBName(p.config.DBSystem),
	}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}

	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if err := p.registerTimingCallbacks(db); err != nil {
		return err
	}

	p.logger.Info("Query tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
		zap.String("db_system", p.config.DBSystem),
	)

	return nil
}

// registerTimingCallbacks hooks every GORM operation kind with a before
// callback that stamps the start time and an after callback that enriches
// the otelgorm span. GORM's callback processors are distinct unexported
// types, so each kind is registered explicitly.
func (p *DBTracingPlugin) registerTimingCallbacks(db *gorm.DB) error {
	register := func(before, after func(string, func(*gorm.DB)) error, kind string) error {
		if err := before("otel_timing:before_"+kind, p.beforeCallback); err != nil {
			return err
		}
		return after("otel_slow_query:"+kind, p.afterCallback)
	}

	if err := register(db.Callback().Create().Before("gorm:create").Register,
		db.Callback().Create().After("gorm:create").Register, "create"); err != nil {
		return err
	}
	if err := register(db.Callback().Query().Before("gorm:query").Register,
		db.Callback().Query().After("gorm:query").Register, "query"); err != nil {
		return err
	}
	if err := register(db.Callback().Update().Before("gorm:update").Register,
		db.Callback().Update().After("gorm:update").Register, "update"); err != nil {
		return err
	}
	if err := register(db.Callback().Delete().Before("gorm:delete").Register,
		db.Callback().Delete().After("gorm:delete").Register, "delete"); err != nil {
		return err
	}
	if err := register(db.Callback().Row().Before("gorm:row").Register,
		db.Callback().Row().After("gorm:row").Register, "row"); err != nil {
		return err
	}
	return register(db.Callback().Raw().Before("gorm:raw").Register,
		db.Callback().Raw().After("gorm:raw").Register, "raw")
}

func (p *DBTracingPlugin) beforeCallback(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

// afterCallback annotates the active span with row counts and table names,
// marks failures, and flags statements that ran past the slow threshold.
// gorm.ErrRecordNotFound is an ordinary lookup miss, not a span error.
func (p *DBTracingPlugin) afterCallback(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}

	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}

	if db.Error != nil && db.Error != gorm.ErrRecordNotFound {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	if startTime, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
		elapsed := time.Since(startTime)
		if elapsed > p.config.SlowQueryThresh {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
			))
		}
	}
}
