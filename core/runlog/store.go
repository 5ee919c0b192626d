package runlog

import (
	"context"
	"fmt"
	"time"

	"inventory-sync/core/reconcile"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store writes run records. A nil *gorm.DB turns every write into a logged no-op
// so the sync keeps working when the database is unavailable.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewStore creates a run-log store.
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger, now: time.Now}
}

// Enabled reports whether the store has a database.
func (s *Store) Enabled() bool {
	return s != nil && s.db != nil
}

// DB returns the underlying connection, which may be nil.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates the run-log table.
func (s *Store) Migrate(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	return s.db.WithContext(ctx).AutoMigrate(&CronJobLog{})
}

// Persist records a completed run. Failures are logged and returned but must
// not change the outcome of the run.
func (s *Store) Persist(ctx context.Context, store string, result *reconcile.RunResult) error {
	if result == nil {
		return fmt.Errorf("runlog: nil result")
	}

	details := result.ErrorDetails
	if len(details) > reconcile.MaxErrorDetails {
		details = details[:reconcile.MaxErrorDetails]
	}
	if len(details) == 0 {
		details = nil
	}

	return s.insert(ctx, &CronJobLog{
		JobID:          JobID(store),
		Business:       store,
		Status:         string(result.Status()),
		ItemsProcessed: result.Matched,
		ItemsUpdated:   result.Updated,
		ItemsSkipped:   result.Skipped,
		Errors:         result.ErrorCount,
		ErrorDetails:   details,
		DurationMs:     result.DurationMs,
		DryRun:         result.DryRun,
		CreatedAt:      s.now().UTC(),
	})
}

// PersistFailure records a run that ended before a result existed.
func (s *Store) PersistFailure(ctx context.Context, store string, runErr error, duration time.Duration, dryRun bool) error {
	msg := "unknown error"
	if runErr != nil {
		msg = runErr.Error()
	}

	return s.insert(ctx, &CronJobLog{
		JobID:        JobID(store),
		Business:     store,
		Status:       string(reconcile.StatusError),
		Errors:       1,
		ErrorDetails: []string{msg},
		DurationMs:   duration.Milliseconds(),
		DryRun:       dryRun,
		CreatedAt:    s.now().UTC(),
	})
}

// Recent returns the latest rows for a store, newest first.
func (s *Store) Recent(ctx context.Context, store string, limit int) ([]CronJobLog, error) {
	if !s.Enabled() {
		return []CronJobLog{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var rows []CronJobLog
	err := s.db.WithContext(ctx).
		Where("job_id = ?", JobID(store)).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("runlog: list recent runs: %w", err)
	}
	return rows, nil
}

func (s *Store) insert(ctx context.Context, row *CronJobLog) error {
	if !s.Enabled() {
		s.logger.Warn("Run log disabled, record dropped",
			zap.String("job_id", row.JobID),
			zap.String("status", row.Status))
		return nil
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		s.logger.Error("Failed to persist run log",
			zap.String("job_id", row.JobID),
			zap.String("status", row.Status),
			zap.Error(err))
		return fmt.Errorf("runlog: insert: %w", err)
	}
	return nil
}
