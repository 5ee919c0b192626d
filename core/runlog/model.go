package runlog

import "time"

// TableName is the run-log table shared with the other scheduled jobs.
const TableName = "cron_job_logs"

// CronJobLog is one append-only row per sync invocation.
type CronJobLog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	JobID          string    `gorm:"column:job_id;size:191;index;not null" json:"jobId"`
	Business       string    `gorm:"column:business;size:64;index" json:"business"`
	Status         string    `gorm:"column:status;size:16;not null" json:"status"`
	ItemsProcessed int       `gorm:"column:items_processed" json:"itemsProcessed"`
	ItemsUpdated   int       `gorm:"column:items_updated" json:"itemsUpdated"`
	ItemsSkipped   int       `gorm:"column:items_skipped" json:"itemsSkipped"`
	Errors         int       `gorm:"column:errors" json:"errors"`
	ErrorDetails   []string  `gorm:"column:error_details;serializer:json" json:"errorDetails"`
	DurationMs     int64     `gorm:"column:duration_ms" json:"durationMs"`
	DryRun         bool      `gorm:"column:dry_run" json:"dryRun"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"createdAt"`
}

// TableName pins the table name.
func (CronJobLog) TableName() string {
	return TableName
}

// Columns lists the columns Persist writes.
var Columns = []string{
	"id", "job_id", "business", "status", "items_processed", "items_updated",
	"items_skipped", "errors", "error_details", "duration_ms", "dry_run", "created_at",
}

// JobSuffix is appended to the store name to form the job identifier. It matches
// the rows the dashboard already reads.
const JobSuffix = "-unleashed-inventory-sync"

// JobID returns the job identifier recorded for a store.
func JobID(store string) string {
	return store + JobSuffix
}
