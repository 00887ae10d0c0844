// pkg/connector/postgres.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/trial-ingress/pkg/config"
	"github.com/David-Botos/trial-ingress/pkg/converter"
)

// PostgresConnector implements the DatabaseConnector interface for PostgreSQL
type PostgresConnector struct {
	baseConnector
	cfg *config.PostgresConfig
}

// NewPostgresConnector creates and initializes a new PostgreSQL connector
func NewPostgresConnector(ctx context.Context, cfg *config.PostgresConfig, logger *zap.Logger) (*PostgresConnector, error) {
	logger = logger.Named("postgres-connector")

	// Log connection attempt
	logger.Info("Connecting to PostgreSQL",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.String("user", cfg.User))

	db, err := sql.Open("pgx", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL connection: %w", err)
	}

	// Configure connection pool
	ApplyConnectionSettings(
		db,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	// Verify connection
	if err := PingWithTimeout(ctx, db, 5*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// Set statement timeout if configured
	if cfg.StatementTimeout > 0 {
		_, err = db.ExecContext(
			ctx,
			fmt.Sprintf("SET statement_timeout = %d", cfg.StatementTimeout.Milliseconds()),
		)
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	connector := &PostgresConnector{
		baseConnector: baseConnector{
			db:      sqlx.NewDb(db, "pgx"),
			logger:  logger,
			dialect: converter.DialectPostgres,
			schema:  cfg.Schema,
			name:    cfg.Database,
		},
		cfg: cfg,
	}

	LogConnectionStats(logger, cfg.Database, db)
	return connector, nil
}

// Validate verifies the PostgreSQL connection and required permissions
func (c *PostgresConnector) Validate() error {
	var version string
	if err := c.db.QueryRow("SELECT version()").Scan(&version); err != nil {
		return fmt.Errorf("failed to query PostgreSQL version: %w", err)
	}
	c.logger.Info("Connected to PostgreSQL", zap.String("version", version))

	if c.schema != "" {
		if err := c.ensureSchema(c.schema); err != nil {
			return fmt.Errorf("failed to create/verify schema %s: %w", c.schema, err)
		}
	}

	c.logger.Info("PostgreSQL connection validated",
		zap.String("database", c.cfg.Database),
		zap.String("schema", c.schema),
		zap.String("host", c.cfg.Host),
		zap.Int("port", c.cfg.Port))

	return nil
}

// ensureSchema creates a schema if it doesn't exist
func (c *PostgresConnector) ensureSchema(schema string) error {
	_, err := c.db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pq.QuoteIdentifier(schema)))
	return err
}
