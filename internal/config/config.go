// Package config provides configuration loading for coed.
package config

import (
	"fmt"
	"time"

	"github.com/coedev/coed/internal/logging"
)

// Config is the top-level coed configuration.
type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Logging      logging.Config     `koanf:"logging"`
	Orchestrator OrchestratorConfig `koanf:"orchestrator"`
	Telemetry    TelemetryConfig    `koanf:"telemetry"`
}

// ServerConfig identifies the tool registry server.
type ServerConfig struct {
	Name            string        `koanf:"name"`
	Version         string        `koanf:"version"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// OrchestratorConfig tunes task retry behavior.
type OrchestratorConfig struct {
	MaxRetries   int           `koanf:"max_retries"`
	RetryBackoff time.Duration `koanf:"retry_backoff"`
}

// TelemetryConfig controls the metrics endpoint.
type TelemetryConfig struct {
	Enabled    bool   `koanf:"enabled"`
	ListenAddr string `koanf:"listen_addr"`
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Name == "" {
		return fmt.Errorf("server.name is required")
	}
	if c.Server.Version == "" {
		return fmt.Errorf("server.version is required")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive, got %v", c.Server.ShutdownTimeout)
	}
	if c.Orchestrator.MaxRetries < 0 {
		return fmt.Errorf("orchestrator.max_retries must be non-negative, got %d", c.Orchestrator.MaxRetries)
	}
	if c.Orchestrator.RetryBackoff < 0 {
		return fmt.Errorf("orchestrator.retry_backoff must be non-negative, got %v", c.Orchestrator.RetryBackoff)
	}
	if c.Telemetry.Enabled && c.Telemetry.ListenAddr == "" {
		return fmt.Errorf("telemetry.listen_addr is required when telemetry is enabled")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
