package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Loader handles configuration loading and saving.
type Loader struct {
	configPath string
}

// NewLoader creates a config loader. An empty path means the default
// location under the user's home directory.
func NewLoader(configPath string) *Loader {
	return &Loader{configPath: configPath}
}

// Load reads the configuration file, layering it over the defaults.
// A missing file is not an error: defaults apply.
func (l *Loader) Load() (*Config, error) {
	configPath := l.GetConfigPath()
	if configPath == "" {
		return nil, fmt.Errorf("failed to determine config path")
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		v := viper.New()
		v.SetConfigFile(configPath)
		v.SetConfigType("json")

		v.SetEnvPrefix("TOOLGATE")
		v.AutomaticEnv()

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, ".toolgate")
	}

	if cfg.Catalog.Provider == "sqlite" && cfg.Catalog.Path == "" {
		cfg.Catalog.Path = filepath.Join(cfg.DataDir, "catalog.db")
	}
	if cfg.Indexer.MappingFile == "" {
		cfg.Indexer.MappingFile = filepath.Join(cfg.DataDir, "tool-paths.json")
	}
	if cfg.Logging.File == "" {
		cfg.Logging.File = filepath.Join(cfg.DataDir, "toolgate.log")
	}

	return cfg, nil
}

// Save writes the configuration to file.
func (l *Loader) Save(cfg *Config) error {
	configPath := l.GetConfigPath()
	if configPath == "" {
		return fmt.Errorf("failed to determine config path")
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("json")

	v.Set("server", cfg.Server)
	v.Set("catalog", cfg.Catalog)
	v.Set("indexer", cfg.Indexer)
	v.Set("dispatch", cfg.Dispatch)
	v.Set("logging", cfg.Logging)
	v.Set("data_dir", cfg.DataDir)

	if err := v.WriteConfig(); err != nil {
		if os.IsNotExist(err) {
			if err := v.SafeWriteConfig(); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}
			return nil
		}
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetConfigPath returns the effective config file path.
func (l *Loader) GetConfigPath() string {
	if l.configPath != "" {
		return l.configPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".toolgate", "toolgate.json")
}

// Load is a convenience function that creates a loader and loads the config.
func Load(configPath string) (*Config, error) {
	return NewLoader(configPath).Load()
}
