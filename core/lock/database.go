package lock

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SyncLock is a row in the sync_locks table.
type SyncLock struct {
	LockKey   string    `gorm:"column:lock_key;primaryKey;size:191"`
	Owner     string    `gorm:"column:owner;size:64;not null"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
}

// TableName pins the table name.
func (SyncLock) TableName() string {
	return "sync_locks"
}

// DatabaseLocker keeps locks as rows with an expiry, so a lock survives
// process restarts and is shared by every instance using the same database.
type DatabaseLocker struct {
	db  *gorm.DB
	now func() time.Time
}

// NewDatabaseLocker creates a locker over db.
func NewDatabaseLocker(db *gorm.DB) *DatabaseLocker {
	return &DatabaseLocker{db: db, now: time.Now}
}

// Migrate creates the sync_locks table.
func (d *DatabaseLocker) Migrate(ctx context.Context) error {
	return d.db.WithContext(ctx).AutoMigrate(&SyncLock{})
}

// Acquire implements Locker. An expired row is reclaimed.
func (d *DatabaseLocker) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	now := d.now().UTC()
	acquired := false

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("lock_key = ? AND expires_at < ?", key, now).Delete(&SyncLock{}).Error; err != nil {
			return err
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&SyncLock{
			LockKey:   key,
			Owner:     owner,
			ExpiresAt: now.Add(ttl),
		})
		if res.Error != nil {
			return res.Error
		}
		acquired = res.RowsAffected == 1
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("lock: acquire %s: %w", key, err)
	}
	return acquired, nil
}

// Refresh implements Locker. An expired row is not revived.
func (d *DatabaseLocker) Refresh(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	now := d.now().UTC()
	res := d.db.WithContext(ctx).
		Model(&SyncLock{}).
		Where("lock_key = ? AND owner = ? AND expires_at >= ?", key, owner, now).
		Update("expires_at", now.Add(ttl))
	if res.Error != nil {
		return false, fmt.Errorf("lock: refresh %s: %w", key, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Release implements Locker.
func (d *DatabaseLocker) Release(ctx context.Context, key, owner string) error {
	err := d.db.WithContext(ctx).
		Where("lock_key = ? AND owner = ?", key, owner).
		Delete(&SyncLock{}).Error
	if err != nil {
		return fmt.Errorf("lock: release %s: %w", key, err)
	}
	return nil
}
