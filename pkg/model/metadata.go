// pkg/model/metadata.go
package model

// Table names used by the pipeline
const (
	RawTable         = "trial_data_raw"
	TransformedTable = "trial_data_transformed"
	InferredTable    = "trial_data_inferred"
	CleaningTable    = "cleaned_on_ingress"
)

// Logical column types, mapped to a storage dialect by the converter
const (
	TypeString  = "STRING"
	TypeBoolean = "BOOLEAN"
	TypeJSON    = "JSON"
)

// TableMetadata contains the structure information for a destination table
type TableMetadata struct {
	Schema      string   // Schema name (empty for the connection default)
	Table       string   // Table name
	Columns     []Column // Column definitions, in insert order
	PrimaryKeys []string // List of primary key column names
}

// Column represents metadata about a database column
type Column struct {
	Name         string // Column name
	DataType     string // Logical data type (TypeString, TypeBoolean, TypeJSON)
	SQLType      string // Dialect type, filled in by the converter
	Nullable     bool   // Whether column allows NULL values
	IsPrimaryKey bool   // Whether column is part of primary key
}

// RawColumns is the fixed, ordered raw schema
var RawColumns = []string{
	"nctId",
	"briefTitle",
	"officialTitle",
	"overallStatus",
	"conditions",
	"interventions",
	"studyFirstPostDate",
	"lastUpdatePostDate",
	"phases",
	"studyType",
	"sex",
	"minimumAge",
	"maximumAge",
}

// ContainsChemoColumn is the classifier output column of the inferred table
const ContainsChemoColumn = "contains_chemo"

// InterventionsArrayColumn is added by the transform stage
const InterventionsArrayColumn = "interventionsArray"

// RawTableMetadata describes trial_data_raw: 13 string columns
func RawTableMetadata() *TableMetadata {
	return &TableMetadata{
		Table:   RawTable,
		Columns: stringColumns(RawColumns),
	}
}

// TransformedTableMetadata describes trial_data_transformed: raw columns plus interventionsArray
func TransformedTableMetadata() *TableMetadata {
	cols := stringColumns(RawColumns)
	cols = append(cols, Column{Name: InterventionsArrayColumn, DataType: TypeJSON, Nullable: true})
	return &TableMetadata{
		Table:   TransformedTable,
		Columns: cols,
	}
}

// InferredTableMetadata describes trial_data_inferred: raw columns plus contains_chemo
func InferredTableMetadata() *TableMetadata {
	cols := stringColumns(RawColumns)
	cols = append(cols, Column{Name: ContainsChemoColumn, DataType: TypeBoolean, Nullable: true})
	return &TableMetadata{
		Table:   InferredTable,
		Columns: cols,
	}
}

func stringColumns(names []string) []Column {
	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name, DataType: TypeString, Nullable: true}
	}
	return cols
}

// ColumnNames returns the column names in order
func (tm *TableMetadata) ColumnNames() []string {
	names := make([]string, len(tm.Columns))
	for i, col := range tm.Columns {
		names[i] = col.Name
	}
	return names
}
