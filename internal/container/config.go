// Package container provides dependency injection and lifecycle management
// for the approval service following Clean Architecture principles.
package container

import (
	"fmt"
	"time"
)

// Database drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// OpenAI configuration
	OpenAI OpenAIConfig

	// Lark messaging configuration
	Lark LarkConfig

	// Redis rate limiter configuration
	Redis RedisConfig

	// Storage configuration
	Storage StorageConfig

	// Server configuration used by container-owned components
	Server ServerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver selects the store: sqlite, postgres or memory
	Driver string

	// Path to SQLite database file
	Path string

	// DSN is the PostgreSQL connection string
	DSN string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration

	// MigrationsDir overrides the embedded SQLite migrations
	MigrationsDir string
}

// OpenAIConfig holds OpenAI API settings. An empty APIKey disables enrichment.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string

	// Model is the model to use (e.g., "gpt-4o-mini")
	Model string

	// Temperature and MaxTokens apply to prompts that do not set their own
	Temperature float32
	MaxTokens   int

	// Timeout for API calls
	Timeout time.Duration

	// PromptsPath is a prompts YAML file. Empty uses the built-in prompts.
	PromptsPath string
}

// LarkConfig holds Lark API settings.
type LarkConfig struct {
	Enabled   bool
	AppID     string
	AppSecret string
	BaseURL   string
}

// RedisConfig holds the enrichment rate limiter settings. An empty Addr disables limiting.
type RedisConfig struct {
	Addr             string
	Password         string
	DB               int
	EnrichmentLimit  int
	EnrichmentWindow time.Duration
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	// UploadDir is the base directory for uploaded documents
	UploadDir string

	// ExportDir is where command-line exports are written
	ExportDir string
}

// ServerConfig holds HTTP settings shared with the realtime hub.
type ServerConfig struct {
	AllowedOrigins []string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:       DriverSQLite,
			Path:         "data/approvals.db",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		OpenAI: OpenAIConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.2,
			MaxTokens:   800,
			Timeout:     60 * time.Second,
		},
		Redis: RedisConfig{
			EnrichmentLimit:  20,
			EnrichmentWindow: time.Minute,
		},
		Storage: StorageConfig{
			UploadDir: "data/uploads",
			ExportDir: "data/exports",
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required")
		}
	case DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Lark.Enabled && (c.Lark.AppID == "" || c.Lark.AppSecret == "") {
		return fmt.Errorf("lark.app_id and lark.app_secret are required when lark is enabled")
	}

	if c.Storage.UploadDir == "" {
		return fmt.Errorf("storage.upload_dir is required")
	}

	return nil
}
