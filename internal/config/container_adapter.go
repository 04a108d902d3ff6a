package config

import (
	"github.com/djishijima/hellbuild-v3/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Driver:          c.Database.Driver,
			Path:            c.Database.Path,
			DSN:             c.Database.DSN,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			MigrationsDir:   c.Database.MigrationsDir,
		},
		OpenAI: container.OpenAIConfig{
			APIKey:      c.OpenAI.APIKey,
			BaseURL:     c.OpenAI.BaseURL,
			Model:       c.OpenAI.Model,
			Temperature: c.OpenAI.Temperature,
			MaxTokens:   c.OpenAI.MaxTokens,
			Timeout:     c.OpenAI.Timeout,
			PromptsPath: c.OpenAI.PromptsPath,
		},
		Lark: container.LarkConfig{
			Enabled:   c.Lark.Enabled,
			AppID:     c.Lark.AppID,
			AppSecret: c.Lark.AppSecret,
			BaseURL:   c.Lark.BaseURL,
		},
		Redis: container.RedisConfig{
			Addr:             c.Redis.Addr,
			Password:         c.Redis.Password,
			DB:               c.Redis.DB,
			EnrichmentLimit:  c.Redis.EnrichmentLimit,
			EnrichmentWindow: c.Redis.EnrichmentWindow,
		},
		Storage: container.StorageConfig{
			UploadDir: c.Storage.UploadDir,
			ExportDir: c.Storage.ExportDir,
		},
		Server: container.ServerConfig{
			AllowedOrigins: c.Server.AllowedOrigins,
		},
	}
}
