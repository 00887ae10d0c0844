// pkg/model/cleaning.go
package model

import (
	"time"
)

// CleaningOperation represents a single value normalization applied during ingestion
type CleaningOperation struct {
	RunID             string    // Pipeline run that performed the cleaning
	TableName         string    // Destination table
	ColumnName        string    // Column that was cleaned
	OriginalValue     string    // Original value
	NewValue          string    // New value after cleaning
	RowIdentifier     string    // nctId of the record
	CleaningOperation string    // Type of cleaning performed (e.g., "delimiter_replacement")
	CleaningReason    string    // Reason for cleaning (e.g., "delimiter_collision")
	CleanedAt         time.Time // When the cleaning occurred
}

// CleaningColumns is the ordered schema of the cleaned_on_ingress audit table
var CleaningColumns = []string{
	"run_id",
	"table_name",
	"column_name",
	"original_value",
	"new_value",
	"row_identifier",
	"cleaning_operation",
	"cleaning_reason",
	"cleaned_at",
}

// CleaningTableMetadata describes cleaned_on_ingress. Unlike the trial tables
// it is appended to across runs.
func CleaningTableMetadata() *TableMetadata {
	cols := stringColumns(CleaningColumns)
	for i := range cols {
		switch cols[i].Name {
		case "run_id", "table_name", "column_name", "cleaning_operation":
			cols[i].Nullable = false
		}
	}
	return &TableMetadata{
		Table:   CleaningTable,
		Columns: cols,
	}
}

// Values returns the operation in CleaningColumns order. The timestamp is
// stored as RFC 3339 text so every dialect reads it back the same way.
func (op CleaningOperation) Values() []interface{} {
	return []interface{}{
		op.RunID,
		op.TableName,
		op.ColumnName,
		op.OriginalValue,
		op.NewValue,
		op.RowIdentifier,
		op.CleaningOperation,
		op.CleaningReason,
		op.CleanedAt.UTC().Format(time.RFC3339),
	}
}
