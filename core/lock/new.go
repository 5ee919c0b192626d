package lock

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New builds the Locker selected by cfg.Driver. The database driver needs db;
// it falls back to an in-process locker when db is nil.
func New(ctx context.Context, cfg Config, db *gorm.DB) (Locker, error) {
	switch cfg.Driver {
	case "", "database":
		if db == nil {
			return NewMemoryLocker(), nil
		}
		l := NewDatabaseLocker(db)
		if err := l.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("lock: migrate: %w", err)
		}
		return l, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("lock: redis ping: %w", err)
		}
		return NewRedisLocker(client), nil

	case "none":
		return NewMemoryLocker(), nil

	default:
		return nil, errors.New("lock: unsupported driver " + cfg.Driver)
	}
}
