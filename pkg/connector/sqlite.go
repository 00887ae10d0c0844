// pkg/connector/sqlite.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/David-Botos/trial-ingress/pkg/config"
	"github.com/David-Botos/trial-ingress/pkg/converter"
)

const memoryPath = ":memory:"

// SQLiteConnector implements the DatabaseConnector interface for an embedded SQLite file
type SQLiteConnector struct {
	baseConnector
	cfg *config.SQLiteConfig
}

// NewSQLiteConnector opens (creating if needed) the embedded database.
// The pool is pinned to one connection: SQLite has a single writer and every
// connection to ":memory:" would otherwise see its own empty database.
func NewSQLiteConnector(ctx context.Context, cfg *config.SQLiteConfig, logger *zap.Logger) (*SQLiteConnector, error) {
	logger = logger.Named("sqlite-connector")

	logger.Info("Opening SQLite database", zap.String("path", cfg.Path))

	if cfg.Path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite connection: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if cfg.Path != memoryPath {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode = WAL"); err != nil {
			logger.Warn("Failed to enable WAL journal", zap.Error(err))
		}
	}

	connector := &SQLiteConnector{
		baseConnector: baseConnector{
			db:      sqlx.NewDb(db, "sqlite"),
			logger:  logger,
			dialect: converter.DialectSQLite,
			name:    cfg.Path,
		},
		cfg: cfg,
	}

	LogConnectionStats(logger, cfg.Path, db)
	return connector, nil
}

// Validate verifies the SQLite connection
func (c *SQLiteConnector) Validate() error {
	var version string
	if err := c.db.QueryRow("SELECT sqlite_version()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query SQLite version: %w", err)
	}
	c.logger.Info("Connected to SQLite",
		zap.String("version", version),
		zap.String("path", c.cfg.Path))
	return nil
}

// NewMemorySQLiteConnector opens a private in-memory database. It lives as
// long as the connector's single connection.
func NewMemorySQLiteConnector(ctx context.Context, logger *zap.Logger) (*SQLiteConnector, error) {
	return NewSQLiteConnector(ctx, &config.SQLiteConfig{Path: memoryPath}, logger)
}
