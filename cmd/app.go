package cmd

import (
	"context"
	"fmt"
	"time"

	"inventory-sync/core/config"
	"inventory-sync/core/database"
	"inventory-sync/core/lock"
	"inventory-sync/core/runlog"
	"inventory-sync/core/storage"
	"inventory-sync/feature/health"
	"inventory-sync/feature/inventory"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// app holds the components shared by serve, sync and health.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *gorm.DB
	archive  *storage.Archive
	registry *inventory.Registry
	sync     *inventory.Service
	health   *health.Service
}

// newApp wires every component from cfg. The database and the archive are
// optional: when they are unavailable runs are still executed, but not recorded.
func newApp(ctx context.Context, cfg *config.Config, logg *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logg}

	if conn, err := database.Connect(cfg.Database); err != nil {
		logg.Warn("Optional database connection failed, runs will not be recorded", zap.Error(err))
	} else {
		a.db = conn
		logg.Info("Connected to run log database", zap.String("driver", cfg.Database.Driver))
	}

	runs := runlog.NewStore(a.db, logg)
	if err := runs.Migrate(ctx); err != nil {
		logg.Warn("Run log migration failed", zap.Error(err))
	}

	locker, err := lock.New(ctx, cfg.Lock, a.db)
	if err != nil {
		return nil, fmt.Errorf("failed to create lock: %w", err)
	}

	var archive inventory.Archiver
	if cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		a.archive = storage.NewArchive(client, cfg.Storage.Bucket, cfg.Storage.Region)
		archive = a.archive
	}

	a.registry = inventory.NewRegistry(cfg, nil, logg)
	a.sync = inventory.NewService(a.registry, runs, locker, archive, inventory.Options{
		DefaultStore:    cfg.Sync.DefaultStore,
		LockTTL:         time.Duration(cfg.Lock.TTLSeconds) * time.Second,
		MaxErrorDetails: cfg.Sync.MaxErrorDetails,
		RecentRunsLimit: cfg.Sync.RecentRunsLimit,
	}, logg)

	var pinger health.Pinger
	if a.archive != nil {
		pinger = a.archive
	}
	a.health = health.NewService(healthTargets(a.registry), a.db, pinger, logg)

	return a, nil
}

func healthTargets(r *inventory.Registry) []health.Target {
	targets := make([]health.Target, 0, len(r.Stores()))
	for _, store := range r.Stores() {
		p, err := r.Pipeline(store)
		if err != nil {
			targets = append(targets, health.Target{Store: store, Err: err})
			continue
		}
		targets = append(targets, health.Target{Store: store, Connectors: p.Connectors()})
	}
	return targets
}
