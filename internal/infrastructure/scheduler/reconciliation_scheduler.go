package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ftzops/backend/internal/application/ledger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// cronTickerInterval is the interval at which the cron scheduler checks for execution
const cronTickerInterval = 1 * time.Minute

// ReconciliationSchedulerConfig holds configuration for the hourly reconciliation sweep
type ReconciliationSchedulerConfig struct {
	// Enabled indicates if the sweep scheduler is enabled
	Enabled bool
	// Minute is the minute (0-59) within each hour to run the sweep
	Minute int
	// CronSchedule is the cron expression (parsed to extract the minute)
	CronSchedule string
	// JobTimeout is the maximum time a single sweep can run
	JobTimeout time.Duration
}

// DefaultReconciliationSchedulerConfig returns default sweep configuration.
// Defaults to running at the top of every hour.
func DefaultReconciliationSchedulerConfig() ReconciliationSchedulerConfig {
	return ReconciliationSchedulerConfig{
		Enabled:      true,
		Minute:       0,
		CronSchedule: "0 * * * *",
		JobTimeout:   10 * time.Minute,
	}
}

// ParseHourlyCronSchedule parses a cron expression "minute * * * *" to extract
// the minute of the hour. Returns 0 if parsing fails or the expression is empty.
func ParseHourlyCronSchedule(cronExpr string) (minute int, err error) {
	minute = 0

	if cronExpr == "" {
		return minute, nil
	}

	parts := strings.Fields(cronExpr)
	if len(parts) < 1 {
		return minute, nil
	}

	if parts[0] != "*" {
		if val, parseErr := parseIntOrDefault(parts[0], 0); parseErr == nil {
			minute = val
		}
	}

	if minute < 0 || minute > 59 {
		return 0, fmt.Errorf("minute must be 0-59, got %d", minute)
	}

	return minute, nil
}

// parseIntOrDefault parses an int string or returns default
func parseIntOrDefault(s string, defaultVal int) (int, error) {
	if s == "" || s == "*" {
		return defaultVal, nil
	}
	var val int
	for _, c := range s {
		if c < '0' || c > '9' {
			return defaultVal, ErrInvalidConfig
		}
		val = val*10 + int(c-'0')
	}
	return val, nil
}

// SweepRunRecord represents a record of a reconciliation sweep execution
type SweepRunRecord struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Status        string     `gorm:"column:status;size:20"`
	Error         string     `gorm:"column:error;type:text"`
	LotsChecked   int        `gorm:"column:lots_checked"`
	LotsSkipped   int        `gorm:"column:lots_skipped"`
	MismatchCount int        `gorm:"column:mismatch_count"`
	StartedAt     *time.Time `gorm:"column:started_at"`
	CompletedAt   *time.Time `gorm:"column:completed_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

// TableName returns the table name for GORM
func (SweepRunRecord) TableName() string {
	return "reconciliation_runs"
}

// SweepRunRepository handles persistence of sweep run records
type SweepRunRepository struct {
	db *gorm.DB
}

// NewSweepRunRepository creates a new SweepRunRepository
func NewSweepRunRepository(db *gorm.DB) *SweepRunRepository {
	return &SweepRunRepository{db: db}
}

// RecordRunStart records the start of a sweep
func (r *SweepRunRepository) RecordRunStart(ctx context.Context) (uuid.UUID, error) {
	now := time.Now()
	record := &SweepRunRecord{
		ID:        uuid.New(),
		Status:    string(JobStatusRunning),
		StartedAt: &now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return uuid.Nil, err
	}
	return record.ID, nil
}

// RecordRunComplete records the outcome of a sweep
func (r *SweepRunRepository) RecordRunComplete(ctx context.Context, runID uuid.UUID, report *ledger.ReconciliationReport, runErr error) error {
	now := time.Now()
	updates := map[string]any{
		"completed_at": now,
		"updated_at":   now,
	}
	if runErr != nil {
		updates["status"] = string(JobStatusFailed)
		updates["error"] = runErr.Error()
	} else {
		updates["status"] = string(JobStatusSuccess)
		updates["lots_checked"] = report.LotsChecked
		updates["lots_skipped"] = report.LotsSkipped
		updates["mismatch_count"] = len(report.Mismatches)
	}
	return r.db.WithContext(ctx).
		Model(&SweepRunRecord{}).
		Where("id = ?", runID).
		Updates(updates).Error
}

// GetLastRun gets the most recent sweep run record
func (r *SweepRunRepository) GetLastRun(ctx context.Context) (*SweepRunRecord, error) {
	var record SweepRunRecord
	if err := r.db.WithContext(ctx).Order("started_at DESC").First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// ReconciliationScheduler runs the ledger reconciliation sweep on an hourly cron
type ReconciliationScheduler struct {
	config  ReconciliationSchedulerConfig
	service *ledger.ReconciliationService
	runRepo *SweepRunRepository
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastRunAt  *time.Time
	nextRunAt  *time.Time
	lastReport *ledger.ReconciliationReport
}

// NewReconciliationScheduler creates a new hourly reconciliation scheduler
func NewReconciliationScheduler(
	config ReconciliationSchedulerConfig,
	service *ledger.ReconciliationService,
	runRepo *SweepRunRepository,
	logger *zap.Logger,
) *ReconciliationScheduler {
	return &ReconciliationScheduler{
		config:  config,
		service: service,
		runRepo: runRepo,
		logger:  logger,
	}
}

// Start starts the cron scheduler
func (s *ReconciliationScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.calculateNextRunTime()

	s.wg.Add(1)
	go s.cronLoop(ctx)

	s.logger.Info("Reconciliation scheduler started",
		zap.Int("minute", s.config.Minute),
		zap.Timep("next_run_at", s.nextRunAt),
	)

	return nil
}

// Stop stops the cron scheduler
func (s *ReconciliationScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Reconciliation scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Reconciliation scheduler stop timed out")
		return ctx.Err()
	}
}

// cronLoop runs the main cron loop
func (s *ReconciliationScheduler) cronLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(cronTickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if s.shouldRun(now) {
				s.runSweep(ctx)
				s.calculateNextRunTime()
			}
		}
	}
}

// shouldRun checks if the sweep should run at the given time
func (s *ReconciliationScheduler) shouldRun(now time.Time) bool {
	return now.Minute() == s.config.Minute
}

// calculateNextRunTime calculates the next run time
func (s *ReconciliationScheduler) calculateNextRunTime() {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), s.config.Minute, 0, 0, now.Location())

	// If we've already passed this hour's run time, schedule for the next hour
	if now.After(next) {
		next = next.Add(time.Hour)
	}

	s.mu.Lock()
	s.nextRunAt = &next
	s.mu.Unlock()
}

// runSweep executes one reconciliation pass over the whole zone
func (s *ReconciliationScheduler) runSweep(ctx context.Context) {
	s.logger.Info("Starting reconciliation sweep")

	now := time.Now()
	s.mu.Lock()
	s.lastRunAt = &now
	s.mu.Unlock()

	var runID uuid.UUID
	if s.runRepo != nil {
		var recordErr error
		runID, recordErr = s.runRepo.RecordRunStart(ctx)
		if recordErr != nil {
			s.logger.Warn("Failed to record sweep start", zap.Error(recordErr))
		}
	}

	sweepCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	report, err := s.service.Run(sweepCtx)
	if err != nil {
		s.logger.Error("Reconciliation sweep failed", zap.Error(err))
	} else {
		s.mu.Lock()
		s.lastReport = report
		s.mu.Unlock()
	}

	if s.runRepo != nil && runID != uuid.Nil {
		if recordErr := s.runRepo.RecordRunComplete(ctx, runID, report, err); recordErr != nil {
			s.logger.Warn("Failed to record sweep completion", zap.Error(recordErr))
		}
	}
}

// TriggerManualRun triggers a manual sweep.
// Note: Uses background context to avoid premature cancellation when HTTP request completes
func (s *ReconciliationScheduler) TriggerManualRun(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	go s.runSweep(context.Background())
	return nil
}

// GetStatus returns the current status of the scheduler
func (s *ReconciliationScheduler) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]any{
		"enabled":     s.config.Enabled,
		"is_running":  s.isRunning,
		"minute":      s.config.Minute,
		"schedule":    "Hourly",
		"last_run_at": s.lastRunAt,
		"next_run_at": s.nextRunAt,
	}
	if s.lastReport != nil {
		status["last_lots_checked"] = s.lastReport.LotsChecked
		status["last_mismatch_count"] = len(s.lastReport.Mismatches)
		status["last_clean"] = s.lastReport.Clean()
	}
	return status
}

// GetLastReport returns the report from the most recent in-process sweep
func (s *ReconciliationScheduler) GetLastReport() *ledger.ReconciliationReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReport
}
