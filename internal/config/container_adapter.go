package config

import (
	"github.com/garyjia/workflow-engine/internal/container"
	"github.com/garyjia/workflow-engine/pkg/utils"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Server: container.ServerConfig{
			Host:            c.Server.Host,
			Port:            c.Server.Port,
			ReadTimeout:     c.Server.ReadTimeout,
			WriteTimeout:    c.Server.WriteTimeout,
			ShutdownTimeout: c.Server.ShutdownTimeout,
		},
		Storage: container.StorageConfig{
			Driver:          c.Storage.Driver,
			Path:            c.Storage.SQLite.Path,
			MaxOpenConns:    c.Storage.SQLite.MaxOpenConns,
			MaxIdleConns:    c.Storage.SQLite.MaxIdleConns,
			ConnMaxLifetime: c.Storage.SQLite.ConnMaxLifetime,
		},
		SeedPath: c.Seed.Path,
	}
}

// LoggerConfig returns the settings for utils.NewLogger
func (c *Config) LoggerConfig() utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:      c.Logger.Level,
		OutputPath: c.Logger.OutputPath,
		Format:     c.Logger.Format,
	}
}
