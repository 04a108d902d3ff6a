package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "data/approvals.db", cfg.Database.Path)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, time.Minute, cfg.Redis.EnrichmentWindow)
	assert.Equal(t, "data/uploads", cfg.Storage.UploadDir)
}

func TestLoad_EnvironmentSecrets(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DATABASE_URL", "postgres://localhost/approvals")

	path := writeConfig(t, "database:\n  driver: postgres\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, "secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "postgres://localhost/approvals", cfg.Database.DSN)

	cc := cfg.ToContainerConfig()
	assert.Equal(t, "postgres", cc.Database.Driver)
	assert.Equal(t, "sk-test", cc.OpenAI.APIKey)
	assert.NoError(t, cc.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Driver: DriverSQLite, Path: "db"},
			Storage:  StorageConfig{UploadDir: "uploads"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: "server.port"},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "oracle" }, wantErr: "database.driver"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Database.Driver = DriverPostgres }, wantErr: "database.dsn"},
		{name: "memory needs nothing", mutate: func(c *Config) { c.Database = DatabaseConfig{Driver: DriverMemory} }},
		{name: "lark enabled without id", mutate: func(c *Config) { c.Lark.Enabled = true }, wantErr: "lark.app_id"},
		{name: "redis without limit", mutate: func(c *Config) { c.Redis.Addr = "localhost:6379" }, wantErr: "redis.enrichment_limit"},
		{name: "no upload dir", mutate: func(c *Config) { c.Storage.UploadDir = "" }, wantErr: "storage.upload_dir"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
