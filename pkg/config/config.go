// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default registry query, matching the public ClinicalTrials.gov v2 API
const (
	DefaultRegistryBaseURL = "https://clinicaltrials.gov/api/v2/studies"
	DefaultCondition       = "Cancer"
	DefaultLocation        = "USA" // "United States" inflates result quantity too much
	DefaultFields          = "protocolSection"
	DefaultPageSize        = 100
)

// Config represents the application configuration
type Config struct {
	Registry   RegistryConfig
	Storage    StorageConfig
	Transform  TransformConfig
	Classifier ClassifierConfig
	Inference  InferenceConfig
	Snapshot   SnapshotConfig

	// HTTP trigger
	ServerAddr string

	// Logging
	LogLevel  string
	LogFormat string
}

// RegistryConfig holds the registry endpoint and query parameters
type RegistryConfig struct {
	BaseURL   string
	Condition string
	Location  string
	Fields    string
	PageSize  int
	Timeout   time.Duration
}

// TransformConfig selects how trial_data_transformed is produced
type TransformConfig struct {
	Mode    string // "builtin" or "command"
	Command string // e.g. "dbt run"
	Dir     string // working directory for Command
}

// ClassifierConfig holds the language-model backend settings
type ClassifierConfig struct {
	Provider      string // "openai" or "gemini"
	Model         string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	GeminiAPIKey  string
	Timeout       time.Duration
	Concurrency   int
}

// InferenceConfig controls which transformed trials are classified
type InferenceConfig struct {
	Limit          int
	PrioritizeGold bool
}

// SnapshotConfig controls the raw CSV snapshot and its optional S3 archive
type SnapshotConfig struct {
	CSVPath  string
	S3Bucket string
	S3Prefix string
}

// LoadConfig loads configuration from environment variables.
// A .env file in the working directory is read first when present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &Config{
		Registry: RegistryConfig{
			BaseURL:   getEnv("REGISTRY_BASE_URL", DefaultRegistryBaseURL),
			Condition: getEnv("REGISTRY_CONDITION", DefaultCondition),
			Location:  getEnv("REGISTRY_LOCATION", DefaultLocation),
			Fields:    getEnv("REGISTRY_FIELDS", DefaultFields),
			PageSize:  getEnvAsInt("REGISTRY_PAGE_SIZE", DefaultPageSize),
			Timeout:   getEnvAsSeconds("REGISTRY_TIMEOUT_SECONDS", 60),
		},
		Transform: TransformConfig{
			Mode:    getEnv("TRANSFORM_MODE", "builtin"),
			Command: getEnv("TRANSFORM_COMMAND", "dbt run"),
			Dir:     getEnv("TRANSFORM_DIR", ""),
		},
		Classifier: ClassifierConfig{
			Provider:      getEnv("CLASSIFIER_PROVIDER", "openai"),
			Model:         getEnv("CLASSIFIER_MODEL", ""),
			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
			Timeout:       getEnvAsSeconds("CLASSIFIER_TIMEOUT_SECONDS", 60),
			Concurrency:   getEnvAsInt("CLASSIFIER_CONCURRENCY", 1),
		},
		Inference: InferenceConfig{
			Limit:          getEnvAsInt("INFERENCE_LIMIT", 100),
			PrioritizeGold: getEnvAsBool("INFERENCE_PRIORITIZE_GOLD", false),
		},
		Snapshot: SnapshotConfig{
			CSVPath:  getEnv("SNAPSHOT_CSV_PATH", "clinical_trials_data.csv"),
			S3Bucket: getEnv("SNAPSHOT_S3_BUCKET", ""),
			S3Prefix: getEnv("SNAPSHOT_S3_PREFIX", "snapshots"),
		},
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "json"),
	}

	storage, err := LoadStorageConfig()
	if err != nil {
		return nil, errors.New("failed to load storage configuration: " + err.Error())
	}
	cfg.Storage = *storage

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.Registry.BaseURL == "" {
		return errors.New("registry base URL is required")
	}

	if c.Registry.PageSize <= 0 {
		return errors.New("registry page size must be positive")
	}

	switch c.Transform.Mode {
	case "builtin":
	case "command":
		if strings.TrimSpace(c.Transform.Command) == "" {
			return errors.New("transform command is required in command mode")
		}
	default:
		return fmt.Errorf("unknown transform mode: %q", c.Transform.Mode)
	}

	switch c.Classifier.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unknown classifier provider: %q", c.Classifier.Provider)
	}

	if c.Classifier.Concurrency < 1 {
		return errors.New("classifier concurrency must be at least 1")
	}

	if c.Inference.Limit < 0 {
		return errors.New("inference limit cannot be negative")
	}

	return c.Storage.Validate()
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultSeconds)) * time.Second
}
