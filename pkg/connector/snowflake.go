// pkg/connector/snowflake.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	sf "github.com/snowflakedb/gosnowflake"
	"go.uber.org/zap"

	"github.com/David-Botos/trial-ingress/pkg/config"
	"github.com/David-Botos/trial-ingress/pkg/converter"
)

// SnowflakeConnector implements the DatabaseConnector interface for Snowflake
type SnowflakeConnector struct {
	baseConnector
	cfg *config.SnowflakeConfig
}

// NewSnowflakeConnector creates a new Snowflake connection
func NewSnowflakeConnector(ctx context.Context, cfg *config.SnowflakeConfig, logger *zap.Logger) (*SnowflakeConnector, error) {
	logger = logger.Named("snowflake-connector")

	sfConfig := &sf.Config{
		Account:       cfg.Account,
		User:          cfg.User,
		Password:      cfg.Password,
		Database:      cfg.Database,
		Schema:        cfg.Schema,
		Warehouse:     cfg.Warehouse,
		Role:          cfg.Role,
		Authenticator: cfg.Authenticator,
	}

	// Log connection attempt (without credentials)
	logger.Info("Connecting to Snowflake",
		zap.String("account", cfg.Account),
		zap.String("user", cfg.User),
		zap.String("database", cfg.Database),
		zap.String("schema", cfg.Schema),
		zap.String("warehouse", cfg.Warehouse),
		zap.String("role", cfg.Role))

	dsn, err := sf.DSN(sfConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build Snowflake DSN: %w", err)
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Snowflake connection: %w", err)
	}

	ApplyConnectionSettings(
		db,
		cfg.MaxOpenConns,
		cfg.MaxIdleConns,
		cfg.ConnMaxLifetime,
		cfg.ConnMaxIdleTime,
	)

	if err := PingWithTimeout(ctx, db, 10*time.Second); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to Snowflake: %w", err)
	}

	if cfg.QueryTimeout > 0 {
		_, err = db.ExecContext(
			ctx,
			fmt.Sprintf("ALTER SESSION SET STATEMENT_TIMEOUT_IN_SECONDS = %d",
				int(cfg.QueryTimeout.Seconds())),
		)
		if err != nil {
			logger.Warn("Failed to set statement timeout", zap.Error(err))
		}
	}

	connector := &SnowflakeConnector{
		baseConnector: baseConnector{
			db:      sqlx.NewDb(db, "snowflake"),
			logger:  logger,
			dialect: converter.DialectSnowflake,
			name:    cfg.Database,
		},
		cfg: cfg,
	}

	LogConnectionStats(logger, cfg.Database, db)
	return connector, nil
}

// Validate verifies the Snowflake connection and access rights
func (c *SnowflakeConnector) Validate() error {
	var role, database, warehouse sql.NullString
	err := c.db.QueryRow("SELECT CURRENT_ROLE(), CURRENT_DATABASE(), CURRENT_WAREHOUSE()").Scan(
		&role, &database, &warehouse)
	if err != nil {
		return fmt.Errorf("failed to verify Snowflake access: %w", err)
	}

	c.logger.Info("Connected to Snowflake",
		zap.String("role", role.String),
		zap.String("database", database.String),
		zap.String("warehouse", warehouse.String))

	// Verify we're connected to the correct database
	if !strings.EqualFold(database.String, c.cfg.Database) {
		return fmt.Errorf("connected to wrong database: %s (expected: %s)",
			database.String, c.cfg.Database)
	}

	return nil
}
