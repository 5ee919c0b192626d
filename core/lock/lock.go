package lock

import (
	"context"
	"errors"
	"time"
)

// ErrLocked is returned when another run holds the lock for a store.
var ErrLocked = errors.New("lock: a sync run is already in progress")

// Locker provides mutual exclusion between runs against the same store,
// across processes when backed by a shared store.
type Locker interface {
	// Acquire takes key for owner until ttl elapses. It reports false, without
	// error, when the key is held by someone else and has not expired.
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)

	// Refresh extends key to ttl from now if owner still holds it. It reports
	// false, without error, when the lock was lost.
	Refresh(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)

	// Release frees key if owner still holds it.
	Release(ctx context.Context, key, owner string) error
}

// Key returns the lock key of a store's sync job.
func Key(store string) string {
	return "inventory-sync:" + store
}
