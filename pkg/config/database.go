// pkg/config/database.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/snowflakedb/gosnowflake"

	"github.com/David-Botos/trial-ingress/pkg/converter"
)

// StorageConfig selects and configures the destination database
type StorageConfig struct {
	Driver    string // "sqlite", "postgres" or "snowflake"
	BatchSize int    // rows per INSERT statement

	// Store empty strings as NULL; reads coalesce NULL back to ""
	EmptyStringAsNull bool

	SQLite    *SQLiteConfig
	Postgres  *PostgresConfig
	Snowflake *SnowflakeConfig
}

// SQLiteConfig holds the embedded database parameters
type SQLiteConfig struct {
	Path        string // file path or ":memory:"
	BusyTimeout time.Duration
}

// SnowflakeConfig holds Snowflake connection parameters
type SnowflakeConfig struct {
	User          string
	Password      string
	Account       string
	Warehouse     string
	Database      string
	Schema        string
	Role          string
	Authenticator gosnowflake.AuthType

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Query timeout
	QueryTimeout time.Duration
}

// PostgresConfig holds PostgreSQL connection parameters
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Schema   string
	SSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Statement timeout
	StatementTimeout time.Duration
}

// LoadStorageConfig loads the configuration of the selected storage driver.
// Driver aliases such as "postgresql", "pgx" or "sqlite3" are normalized.
func LoadStorageConfig() (*StorageConfig, error) {
	dialect, err := converter.ParseDialect(getEnv("STORAGE_DRIVER", "sqlite"))
	if err != nil {
		return nil, err
	}

	cfg := &StorageConfig{
		Driver:            string(dialect),
		BatchSize:         getEnvAsInt("INSERT_BATCH_SIZE", 500),
		EmptyStringAsNull: getEnvAsBool("STORAGE_EMPTY_AS_NULL", false),
	}

	switch cfg.Driver {
	case "sqlite":
		cfg.SQLite = LoadSQLiteConfig()
	case "postgres":
		cfg.Postgres, err = LoadPostgresConfig()
	case "snowflake":
		cfg.Snowflake, err = LoadSnowflakeConfig()
	default:
		err = fmt.Errorf("unknown storage driver: %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures the selected driver has its configuration
func (c *StorageConfig) Validate() error {
	if c.BatchSize <= 0 {
		return errors.New("insert batch size must be positive")
	}

	switch c.Driver {
	case "sqlite":
		if c.SQLite == nil || c.SQLite.Path == "" {
			return errors.New("sqlite configuration is required")
		}
	case "postgres":
		if c.Postgres == nil {
			return errors.New("postgreSQL configuration is required")
		}
	case "snowflake":
		if c.Snowflake == nil {
			return errors.New("snowflake configuration is required")
		}
	default:
		return fmt.Errorf("unknown storage driver: %q", c.Driver)
	}
	return nil
}

// LoadSQLiteConfig loads SQLite configuration from environment variables
func LoadSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:        getEnv("SQLITE_PATH", "trial_db.sqlite"),
		BusyTimeout: time.Duration(getEnvAsInt("SQLITE_BUSY_TIMEOUT_MS", 10000)) * time.Millisecond,
	}
}

// LoadSnowflakeConfig loads Snowflake configuration from environment variables
func LoadSnowflakeConfig() (*SnowflakeConfig, error) {
	user := os.Getenv("SNOWFLAKE_USER")
	if user == "" {
		return nil, errors.New("SNOWFLAKE_USER environment variable is required")
	}

	password := os.Getenv("SNOWFLAKE_PASSWORD")
	if password == "" {
		return nil, errors.New("SNOWFLAKE_PASSWORD environment variable is required")
	}

	account := os.Getenv("SNOWFLAKE_ACCOUNT")
	if account == "" {
		return nil, errors.New("SNOWFLAKE_ACCOUNT environment variable is required")
	}

	warehouse := os.Getenv("SNOWFLAKE_WAREHOUSE")
	if warehouse == "" {
		return nil, errors.New("SNOWFLAKE_WAREHOUSE environment variable is required")
	}

	cfg := &SnowflakeConfig{
		User:          user,
		Password:      password,
		Account:       account,
		Warehouse:     warehouse,
		Database:      getEnv("SNOWFLAKE_DATABASE", "TRIALS"),
		Schema:        getEnv("SNOWFLAKE_SCHEMA", "PUBLIC"),
		Role:          getEnv("SNOWFLAKE_ROLE", ""),
		Authenticator: parseAuthenticator(getEnv("SNOWFLAKE_AUTHENTICATOR", "snowflake")),

		MaxOpenConns:    getEnvAsInt("SNOWFLAKE_MAX_OPEN_CONNS", 4),
		MaxIdleConns:    getEnvAsInt("SNOWFLAKE_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime: time.Duration(getEnvAsInt("SNOWFLAKE_CONN_MAX_LIFETIME_SECONDS", 600)) * time.Second,
		ConnMaxIdleTime: time.Duration(getEnvAsInt("SNOWFLAKE_CONN_MAX_IDLE_TIME_SECONDS", 300)) * time.Second,
		QueryTimeout:    time.Duration(getEnvAsInt("SNOWFLAKE_QUERY_TIMEOUT_SECONDS", 300)) * time.Second,
	}

	return cfg, nil
}

// parseAuthenticator converts an authenticator name to the driver type
func parseAuthenticator(name string) gosnowflake.AuthType {
	switch name {
	case "oauth":
		return gosnowflake.AuthTypeOAuth
	case "externalbrowser":
		return gosnowflake.AuthTypeExternalBrowser
	case "username_password_mfa":
		return gosnowflake.AuthTypeUsernamePasswordMFA
	case "jwt":
		return gosnowflake.AuthTypeJwt
	case "token":
		return gosnowflake.AuthTypeTokenAccessor
	case "okta":
		return gosnowflake.AuthTypeOkta
	default:
		return gosnowflake.AuthTypeSnowflake
	}
}

// LoadPostgresConfig loads PostgreSQL configuration from environment variables
func LoadPostgresConfig() (*PostgresConfig, error) {
	user := os.Getenv("POSTGRES_USER")
	if user == "" {
		return nil, errors.New("POSTGRES_USER environment variable is required")
	}

	password := os.Getenv("POSTGRES_PASSWORD")
	if password == "" {
		return nil, errors.New("POSTGRES_PASSWORD environment variable is required")
	}

	database := os.Getenv("POSTGRES_DB")
	if database == "" {
		return nil, errors.New("POSTGRES_DB environment variable is required")
	}

	cfg := &PostgresConfig{
		Host:     getEnv("POSTGRES_HOST", "localhost"),
		Port:     getEnvAsInt("POSTGRES_PORT", 5432),
		User:     user,
		Password: password,
		Database: database,
		Schema:   getEnv("POSTGRES_SCHEMA", "public"),
		SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxOpenConns:     getEnvAsInt("POSTGRES_MAX_OPEN_CONNS", 4),
		MaxIdleConns:     getEnvAsInt("POSTGRES_MAX_IDLE_CONNS", 2),
		ConnMaxLifetime:  time.Duration(getEnvAsInt("POSTGRES_CONN_MAX_LIFETIME_SECONDS", 1800)) * time.Second,
		ConnMaxIdleTime:  time.Duration(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_TIME_SECONDS", 600)) * time.Second,
		StatementTimeout: time.Duration(getEnvAsInt("POSTGRES_STATEMENT_TIMEOUT_SECONDS", 300)) * time.Second,
	}

	return cfg, nil
}

// ConnectionString returns a formatted PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Database,
		c.SSLMode,
	)
}

// ConnectionString returns the SQLite DSN with the busy timeout pragma applied
func (c *SQLiteConfig) ConnectionString() string {
	if c.BusyTimeout <= 0 {
		return c.Path
	}
	sep := "?"
	if strings.Contains(c.Path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", c.Path, sep, c.BusyTimeout.Milliseconds())
}
