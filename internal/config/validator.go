package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validator validates configuration values.
type Validator struct{}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidatePort validates a TCP listen port.
func (v *Validator) ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

// ValidateCatalogProvider validates the catalog backend name.
func (v *Validator) ValidateCatalogProvider(provider string) error {
	validProviders := []string{"sqlite", "memory"}
	for _, valid := range validProviders {
		if provider == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid catalog provider: %s (must be one of: %s)", provider, strings.Join(validProviders, ", "))
}

// ValidateSchedule validates a cron expression. Empty means disabled.
func (v *Validator) ValidateSchedule(spec string) error {
	if spec == "" {
		return nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid reindex schedule %q: %w", spec, err)
	}
	return nil
}

// ValidateTimeout validates the tool execution timeout.
func (v *Validator) ValidateTimeout(seconds int) error {
	if seconds < 0 {
		return fmt.Errorf("dispatch timeout must be >= 0, got %d", seconds)
	}
	return nil
}

// ValidateLogLevel validates a log level name.
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"trace", "debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateConfig performs comprehensive validation and returns every
// problem found, not just the first.
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errors []error

	if err := v.ValidatePort(cfg.Server.Port); err != nil {
		errors = append(errors, err)
	}

	if err := v.ValidateCatalogProvider(cfg.Catalog.Provider); err != nil {
		errors = append(errors, err)
	}
	if cfg.Catalog.Provider == "sqlite" && cfg.Catalog.Path == "" && cfg.DataDir == "" {
		errors = append(errors, fmt.Errorf("sqlite catalog requires catalog.path or data_dir"))
	}

	if err := v.ValidateSchedule(cfg.Indexer.Schedule); err != nil {
		errors = append(errors, err)
	}

	if err := v.ValidateTimeout(cfg.Dispatch.TimeoutSeconds); err != nil {
		errors = append(errors, err)
	}

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errors = append(errors, err)
	}
	if cfg.Logging.MaxSize < 0 {
		errors = append(errors, fmt.Errorf("logging max_size must be >= 0"))
	}
	if cfg.Logging.MaxAge < 0 {
		errors = append(errors, fmt.Errorf("logging max_age must be >= 0"))
	}

	return errors
}
