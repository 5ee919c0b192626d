// Package database opens the run-log database and inspects its schema.
//
// It wraps GORM and supports three drivers: postgres (the default, e.g. Supabase),
// mysql and sqlite. sqlite is intended for local runs and tests; its pool is capped
// at one connection so an in-memory database is shared by every query.
//
// # Schema Inspection
//
// GetTableColumns lists a table's columns in a driver-neutral form. The health
// feature uses it to confirm the run-log table has the columns the sync writes.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Fatal("Database connection failed", err)
//	}
//
//	columns, err := database.GetTableColumns(db, "cron_job_logs")
package database
