// pkg/connector/connector.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/David-Botos/trial-ingress/pkg/converter"
)

// DatabaseConnector defines the interface for storage connectors
type DatabaseConnector interface {
	// DB returns the underlying database connection
	DB() *sql.DB

	// DBX returns the connection wrapped for struct scanning
	DBX() *sqlx.DB

	// Dialect returns the SQL dialect spoken by the connection
	Dialect() converter.Dialect

	// Schema returns the schema tables are created in ("" for the default)
	Schema() string

	// Validate verifies the connection and permissions
	Validate() error

	// Close closes the connection and releases resources
	Close() error

	// SelectWithTimeout runs a query with a timeout and scans every row into dest
	SelectWithTimeout(ctx context.Context, dest interface{}, query string, timeout time.Duration, args ...interface{}) error

	// ExecWithTimeout executes a statement with a timeout
	ExecWithTimeout(ctx context.Context, query string, timeout time.Duration, args ...interface{}) (sql.Result, error)
}

// ConnStats contains standardized connection statistics
type ConnStats struct {
	OpenConnections int
	InUse           int
	Idle            int
	MaxOpenConns    int
}

// GetConnectionStats returns connection pool statistics for logging
func GetConnectionStats(db *sql.DB) ConnStats {
	stats := db.Stats()
	return ConnStats{
		OpenConnections: stats.OpenConnections,
		InUse:           stats.InUse,
		Idle:            stats.Idle,
		MaxOpenConns:    stats.MaxOpenConnections,
	}
}

// LogConnectionStats logs connection pool statistics
func LogConnectionStats(logger *zap.Logger, name string, db *sql.DB) {
	stats := GetConnectionStats(db)
	logger.Debug("Connection pool stats",
		zap.String("database", name),
		zap.Int("openConnections", stats.OpenConnections),
		zap.Int("inUse", stats.InUse),
		zap.Int("idle", stats.Idle),
		zap.Int("maxOpen", stats.MaxOpenConns),
	)
}

// PingWithTimeout attempts to ping a database with a timeout
func PingWithTimeout(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if pingCtx.Err() != nil {
			return fmt.Errorf("ping timed out after %v: %w", timeout, pingCtx.Err())
		}
		return err
	}
	return nil
}

// ApplyConnectionSettings configures database connection pool settings
func ApplyConnectionSettings(db *sql.DB, maxOpen, maxIdle int, maxLifetime, maxIdleTime time.Duration) {
	if maxOpen > 0 {
		db.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		db.SetMaxIdleConns(maxIdle)
	}
	if maxLifetime > 0 {
		db.SetConnMaxLifetime(maxLifetime)
	}
	if maxIdleTime > 0 {
		db.SetConnMaxIdleTime(maxIdleTime)
	}
}

// baseConnector carries the behaviour shared by every connector
type baseConnector struct {
	db      *sqlx.DB
	logger  *zap.Logger
	dialect converter.Dialect
	schema  string
	name    string
}

// DB returns the underlying database connection
func (c *baseConnector) DB() *sql.DB {
	return c.db.DB
}

// DBX returns the connection wrapped for struct scanning
func (c *baseConnector) DBX() *sqlx.DB {
	return c.db
}

// Dialect returns the SQL dialect of the connection
func (c *baseConnector) Dialect() converter.Dialect {
	return c.dialect
}

// Schema returns the schema tables are created in
func (c *baseConnector) Schema() string {
	return c.schema
}

// Close closes the database connection
func (c *baseConnector) Close() error {
	c.logger.Info("Closing connection", zap.String("database", c.name))
	LogConnectionStats(c.logger, c.name, c.db.DB)
	return c.db.Close()
}

// ExecWithTimeout executes a statement with a timeout
func (c *baseConnector) ExecWithTimeout(
	ctx context.Context,
	query string,
	timeout time.Duration,
	args ...interface{},
) (sql.Result, error) {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.ExecContext(queryCtx, query, args...)
}

// SelectWithTimeout runs a query with a timeout and scans all rows into dest
func (c *baseConnector) SelectWithTimeout(
	ctx context.Context,
	dest interface{},
	query string,
	timeout time.Duration,
	args ...interface{},
) error {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.SelectContext(queryCtx, dest, query, args...)
}
