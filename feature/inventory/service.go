package inventory

import (
	"context"
	"errors"
	"time"

	"inventory-sync/core/lock"
	"inventory-sync/core/reconcile"
	"inventory-sync/core/runlog"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunnerSource resolves the runner of a store.
type RunnerSource interface {
	Runner(store string) (Runner, error)
}

// RunLog records runs.
type RunLog interface {
	Persist(ctx context.Context, store string, result *reconcile.RunResult) error
	PersistFailure(ctx context.Context, store string, runErr error, duration time.Duration, dryRun bool) error
	Recent(ctx context.Context, store string, limit int) ([]runlog.CronJobLog, error)
}

// Archiver stores a snapshot of a finished run.
type Archiver interface {
	Save(ctx context.Context, state *reconcile.RunState) (string, error)
}

// SyncRequest triggers one run.
type SyncRequest struct {
	Store  string `json:"store" validate:"omitempty,max=64,lowercase"`
	DryRun bool   `json:"dryRun"`
}

// Options configures a Service.
type Options struct {
	DefaultStore    string
	LockTTL         time.Duration
	MaxErrorDetails int
	RecentRunsLimit int
}

// Service runs syncs under the store lock and records their outcome.
type Service struct {
	runners RunnerSource
	runs    RunLog
	locker  lock.Locker
	archive Archiver
	opts    Options
	logger  *zap.Logger
}

// NewService creates a sync service. archive may be nil.
func NewService(runners RunnerSource, runs RunLog, locker lock.Locker, archive Archiver, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = lock.NewMemoryLocker()
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 15 * time.Minute
	}
	if opts.MaxErrorDetails <= 0 {
		opts.MaxErrorDetails = reconcile.MaxErrorDetails
	}
	if opts.RecentRunsLimit <= 0 {
		opts.RecentRunsLimit = 20
	}
	return &Service{
		runners: runners,
		runs:    runs,
		locker:  locker,
		archive: archive,
		opts:    opts,
		logger:  logger,
	}
}

// StoreName resolves an empty store to the default store.
func (s *Service) StoreName(store string) string {
	if store == "" {
		return s.opts.DefaultStore
	}
	return store
}

// Sync runs one reconciliation for req.Store.
//
// Configuration errors and ErrLocked are returned before any network call and
// are not recorded. A run that fails after starting is recorded with status
// error; its state is returned together with the error.
func (s *Service) Sync(ctx context.Context, req SyncRequest) (*reconcile.RunState, error) {
	store := s.StoreName(req.Store)
	l := s.logger.With(zap.String("store", store), zap.Bool("dry_run", req.DryRun))

	runner, err := s.runners.Runner(store)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	key := lock.Key(store)
	ok, err := s.locker.Acquire(ctx, key, runID, s.opts.LockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		l.Warn("Sync rejected, another run holds the lock")
		return nil, lock.ErrLocked
	}
	l = l.With(zap.String("run_id", runID))
	defer func() {
		// Release even if the caller has gone away.
		if err := s.locker.Release(context.WithoutCancel(ctx), key, runID); err != nil {
			l.Error("Failed to release sync lock", zap.Error(err))
		}
	}()

	stop := s.keepLock(ctx, l, key, runID)
	start := time.Now()
	state, runErr := runner.Run(ctx, reconcile.Options{
		RunID:           runID,
		Store:           store,
		DryRun:          req.DryRun,
		MaxErrorDetails: s.opts.MaxErrorDetails,
	})
	stop()

	s.record(ctx, l, store, req.DryRun, state, runErr, time.Since(start))
	s.archiveState(ctx, l, state)

	if runErr != nil {
		return state, runErr
	}
	return state, nil
}

// keepLock refreshes the lock every third of its TTL until the returned stop
// func is called, so a run longer than the TTL keeps its store exclusive.
func (s *Service) keepLock(ctx context.Context, l *zap.Logger, key, owner string) (stop func()) {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(max(s.opts.LockTTL/3, time.Millisecond))
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				ok, err := s.locker.Refresh(ctx, key, owner, s.opts.LockTTL)
				switch {
				case err != nil:
					if ctx.Err() == nil {
						l.Error("Failed to refresh sync lock", zap.Error(err))
					}
				case !ok:
					l.Error("Sync lock lost while the run is in progress")
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// Recent lists the latest runs of a store.
func (s *Service) Recent(ctx context.Context, store string, limit int) ([]runlog.CronJobLog, error) {
	if limit <= 0 {
		limit = s.opts.RecentRunsLimit
	}
	return s.runs.Recent(ctx, s.StoreName(store), limit)
}

// record writes the run log. Failures here never change the run's outcome.
func (s *Service) record(ctx context.Context, l *zap.Logger, store string, dryRun bool, state *reconcile.RunState, runErr error, elapsed time.Duration) {
	if s.runs == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	var err error
	switch {
	case runErr != nil:
		if state != nil && !state.FinishedAt.IsZero() {
			elapsed = state.FinishedAt.Sub(state.StartedAt)
		}
		err = s.runs.PersistFailure(ctx, store, runErr, elapsed, dryRun)
	case state != nil && state.Result != nil:
		err = s.runs.Persist(ctx, store, state.Result)
	default:
		err = s.runs.PersistFailure(ctx, store, errors.New("run finished without a result"), elapsed, dryRun)
	}
	if err != nil {
		l.Warn("Run log not written", zap.Error(err))
	}
}

func (s *Service) archiveState(ctx context.Context, l *zap.Logger, state *reconcile.RunState) {
	if s.archive == nil || state == nil {
		return
	}
	name, err := s.archive.Save(context.WithoutCancel(ctx), state)
	if err != nil {
		l.Warn("Snapshot not archived", zap.Error(err))
		return
	}
	l.Debug("Snapshot archived", zap.String("object", name))
}
