// pkg/connector/factory.go
package connector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/David-Botos/trial-ingress/pkg/config"
)

// ConnectorFactory creates database connectors
type ConnectorFactory struct {
	cfg    *config.StorageConfig
	logger *zap.Logger
}

// NewConnectorFactory creates a new connector factory
func NewConnectorFactory(cfg *config.StorageConfig, logger *zap.Logger) *ConnectorFactory {
	return &ConnectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// Create opens and validates the connector for the configured storage driver.
// The caller owns the connector and must Close it.
func (f *ConnectorFactory) Create(ctx context.Context) (DatabaseConnector, error) {
	f.logger.Info("Creating storage connector", zap.String("driver", f.cfg.Driver))

	var (
		conn DatabaseConnector
		err  error
	)
	switch f.cfg.Driver {
	case "sqlite":
		conn, err = NewSQLiteConnector(ctx, f.cfg.SQLite, f.logger)
	case "postgres":
		conn, err = NewPostgresConnector(ctx, f.cfg.Postgres, f.logger)
	case "snowflake":
		conn, err = NewSnowflakeConnector(ctx, f.cfg.Snowflake, f.logger)
	default:
		return nil, fmt.Errorf("unknown storage driver: %q", f.cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s connector: %w", f.cfg.Driver, err)
	}

	if err := conn.Validate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to validate %s connector: %w", f.cfg.Driver, err)
	}

	return conn, nil
}
