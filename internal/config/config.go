// Package config loads application configuration from file and
// environment.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Drafts  DraftsConfig  `mapstructure:"drafts"`
	Editor  EditorConfig  `mapstructure:"editor"`
	Lists   ListsConfig   `mapstructure:"lists"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"` // Bind address (e.g., 0.0.0.0 for all interfaces)
	Port int    `mapstructure:"port"` // HTTP server port
}

// StorageConfig represents persistence configuration
type StorageConfig struct {
	// Path is the SQLite database file. ":memory:" keeps everything
	// in process memory.
	Path string `mapstructure:"path"`
}

// DraftsConfig represents draft retention configuration
type DraftsConfig struct {
	TTL time.Duration `mapstructure:"ttl"` // Draft age beyond which a draft reads as absent
}

// EditorConfig represents editor session configuration
type EditorConfig struct {
	SessionMaxAge      time.Duration `mapstructure:"session_max_age"`
	SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout"`
}

// ListsConfig represents list view configuration
type ListsConfig struct {
	PageSize    int           `mapstructure:"page_size"`    // Default list page size
	SearchDelay time.Duration `mapstructure:"search_delay"` // Debounce before a search re-fetch
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
}

// Validate checks configuration invariants
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}
	if c.Drafts.TTL < 0 {
		return fmt.Errorf("draft ttl must not be negative")
	}
	if c.Lists.PageSize <= 0 {
		return fmt.Errorf("list page size must be positive")
	}
	return nil
}
