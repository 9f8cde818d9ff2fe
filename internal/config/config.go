// Package config holds the daemon configuration: where the gateway
// listens, which catalog backend to use, how the indexer is scheduled,
// and how logging behaves.
package config

import (
	"encoding/json"
	"fmt"
)

// Config represents the main toolgate configuration.
type Config struct {
	Server   ServerConfig   `json:"server" mapstructure:"server"`
	Catalog  CatalogConfig  `json:"catalog" mapstructure:"catalog"`
	Indexer  IndexerConfig  `json:"indexer" mapstructure:"indexer"`
	Dispatch DispatchConfig `json:"dispatch" mapstructure:"dispatch"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`

	// DataDir is where the catalog database, mapping file and logs live
	// unless overridden per section.
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// ServerConfig holds gateway server configuration.
type ServerConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

// CatalogConfig selects and configures the catalog backend.
type CatalogConfig struct {
	Provider string `json:"provider" mapstructure:"provider"` // sqlite, memory
	Path     string `json:"path" mapstructure:"path"`         // sqlite database file
}

// IndexerConfig holds metadata indexer configuration.
type IndexerConfig struct {
	// MappingFile overrides derived invocation paths per tool name.
	MappingFile string `json:"mapping_file" mapstructure:"mapping_file"`
	// Schedule is a cron expression for periodic catalog rebuilds.
	// Empty disables the scheduler.
	Schedule string `json:"schedule" mapstructure:"schedule"`
	// WatchMapping reindexes automatically when the mapping file changes.
	WatchMapping bool `json:"watch_mapping" mapstructure:"watch_mapping"`
	// ReindexOnStart rebuilds the catalog during daemon startup.
	ReindexOnStart bool `json:"reindex_on_start" mapstructure:"reindex_on_start"`
}

// DispatchConfig holds tool execution configuration.
type DispatchConfig struct {
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Console   bool   `json:"console" mapstructure:"console"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	MaxSize   int    `json:"max_size" mapstructure:"max_size"` // MB
	MaxAge    int    `json:"max_age" mapstructure:"max_age"`   // days
	Compress  bool   `json:"compress" mapstructure:"compress"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// DefaultConfig returns a config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Catalog: CatalogConfig{
			Provider: "sqlite",
		},
		Indexer: IndexerConfig{
			WatchMapping:   true,
			ReindexOnStart: true,
		},
		Dispatch: DispatchConfig{
			TimeoutSeconds: 30,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Console:   true,
			Pretty:    true,
			MaxSize:   100,
			MaxAge:    7,
			Compress:  true,
			Redaction: true,
		},
	}
}

// String returns a JSON representation of the config.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks the configuration for values the daemon cannot run with.
func (c *Config) Validate() error {
	errs := NewValidator().ValidateConfig(c)
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %w", errs[0])
}
