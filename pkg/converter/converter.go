// pkg/converter/converter.go
package converter

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/trial-ingress/pkg/model"
)

// Dialect identifies the SQL flavour of a storage backend
type Dialect string

const (
	DialectSQLite    Dialect = "sqlite"
	DialectPostgres  Dialect = "postgres"
	DialectSnowflake Dialect = "snowflake"
)

// ParseDialect maps a driver name to a Dialect
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	case "snowflake":
		return DialectSnowflake, nil
	default:
		return "", fmt.Errorf("unsupported storage dialect: %q", name)
	}
}

// TypeConverter maps logical columns and values onto a storage dialect
type TypeConverter struct {
	logger *zap.Logger
	// Configuration options
	config TypeConverterConfig
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Target SQL dialect
	Dialect Dialect
	// Whether to store empty strings as NULL
	EmptyStringAsNull bool
}

// DefaultConfig returns the default configuration for a dialect
func DefaultConfig(dialect Dialect) TypeConverterConfig {
	return TypeConverterConfig{
		Dialect:           dialect,
		EmptyStringAsNull: false,
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger, dialect Dialect) *TypeConverter {
	return NewTypeConverterWithConfig(logger, DefaultConfig(dialect))
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, config TypeConverterConfig) *TypeConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TypeConverter{
		logger: logger,
		config: config,
	}
}

// Dialect returns the configured dialect
func (c *TypeConverter) Dialect() Dialect {
	return c.config.Dialect
}

// GenerateColumnDefinitions creates dialect column definitions in schema order
func (c *TypeConverter) GenerateColumnDefinitions(metadata *model.TableMetadata) ([]string, error) {
	definitions := make([]string, 0, len(metadata.Columns))

	for _, col := range metadata.Columns {
		sqlType := col.SQLType
		if sqlType == "" {
			var err error
			sqlType, err = c.MapLogicalType(col.DataType)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", col.Name, err)
			}
		}

		nullability := "NULL"
		if col.IsPrimaryKey || !col.Nullable {
			nullability = "NOT NULL"
		}

		definitions = append(definitions, fmt.Sprintf("%s %s %s",
			c.QuoteIdentifier(col.Name),
			sqlType,
			nullability))
	}

	return definitions, nil
}

// ReplaceTableStatements returns the statements that (re)create a table empty.
// Snowflake gets a single CREATE OR REPLACE; the others drop then create.
func (c *TypeConverter) ReplaceTableStatements(metadata *model.TableMetadata) ([]string, error) {
	definitions, err := c.GenerateColumnDefinitions(metadata)
	if err != nil {
		return nil, err
	}

	if len(metadata.PrimaryKeys) > 0 {
		keys := make([]string, len(metadata.PrimaryKeys))
		for i, k := range metadata.PrimaryKeys {
			keys[i] = c.QuoteIdentifier(k)
		}
		definitions = append(definitions, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(keys, ", ")))
	}

	tableName := c.QualifiedTableName(metadata.Schema, metadata.Table)
	body := fmt.Sprintf("(\n\t%s\n)", strings.Join(definitions, ",\n\t"))

	if c.config.Dialect == DialectSnowflake {
		return []string{fmt.Sprintf("CREATE OR REPLACE TABLE %s %s", tableName, body)}, nil
	}

	return []string{
		fmt.Sprintf("DROP TABLE IF EXISTS %s", tableName),
		fmt.Sprintf("CREATE TABLE %s %s", tableName, body),
	}, nil
}

// QualifiedTableName returns a quoted, optionally schema-qualified table name
func (c *TypeConverter) QualifiedTableName(schema, table string) string {
	if schema == "" {
		return c.QuoteIdentifier(table)
	}
	return c.QuoteIdentifier(schema) + "." + c.QuoteIdentifier(table)
}

// QuoteIdentifier quotes an identifier, preserving its case
func (c *TypeConverter) QuoteIdentifier(name string) string {
	if c.config.Dialect == DialectPostgres {
		return pq.QuoteIdentifier(name)
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Placeholder returns the bind parameter for the 1-based position
func (c *TypeConverter) Placeholder(position int) string {
	if c.config.Dialect == DialectPostgres {
		return fmt.Sprintf("$%d", position)
	}
	return "?"
}

// Placeholders returns a comma separated run of n bind parameters starting at start
func (c *TypeConverter) Placeholders(start, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = c.Placeholder(start + i)
	}
	return strings.Join(ps, ", ")
}

// CreateTableIfNotExistsStatement returns the statement that creates a table
// only when it is missing, leaving existing rows in place
func (c *TypeConverter) CreateTableIfNotExistsStatement(metadata *model.TableMetadata) (string, error) {
	definitions, err := c.GenerateColumnDefinitions(metadata)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)",
		c.QualifiedTableName(metadata.Schema, metadata.Table),
		strings.Join(definitions, ",\n\t")), nil
}

// InsertStatement returns a multi-row INSERT for rowCount rows of the table.
// Bind parameters are numbered across rows for dialects that number them.
func (c *TypeConverter) InsertStatement(metadata *model.TableMetadata, rowCount int) string {
	columns := make([]string, len(metadata.Columns))
	for i, col := range metadata.Columns {
		columns[i] = c.QuoteIdentifier(col.Name)
	}

	width := len(columns)
	tuples := make([]string, rowCount)
	for i := range tuples {
		tuples[i] = "(" + c.Placeholders(i*width+1, width) + ")"
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		c.QualifiedTableName(metadata.Schema, metadata.Table),
		strings.Join(columns, ", "),
		strings.Join(tuples, ", "))
}
