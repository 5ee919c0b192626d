package checks

import (
	"fmt"

	"inventory-sync/core/database"
	"inventory-sync/core/runlog"

	"gorm.io/gorm"
)

// SchemaReport is the result of comparing a table against the columns the
// service writes.
type SchemaReport struct {
	Table          string   `json:"table"`
	Matched        bool     `json:"matched"`
	MissingColumns []string `json:"missing_columns"`
	Errors         []string `json:"errors"`
}

// CheckRunLogSchema verifies that the run-log table has every column Persist writes.
// An unreadable table is reported, not returned as an error.
func CheckRunLogSchema(db *gorm.DB) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	report := &SchemaReport{
		Table:          runlog.TableName,
		Matched:        true,
		MissingColumns: []string{},
		Errors:         []string{},
	}

	missing, err := database.MissingColumns(db, runlog.TableName, runlog.Columns)
	if err != nil {
		report.Matched = false
		report.Errors = append(report.Errors, fmt.Sprintf("Failed to inspect table %s: %v", runlog.TableName, err))
		return report, nil
	}

	if len(missing) > 0 {
		report.Matched = false
		report.MissingColumns = missing
	}
	return report, nil
}
