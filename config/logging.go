package config

import (
	"github.com/kilianp07/evdemand/infra/logger"
)

// LoggingConfig defines the log output settings.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn or error.
	Level string `json:"level"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks that the level is known.
func (c LoggingConfig) Validate() error {
	_, err := logger.ParseLevel(c.Level)
	return err
}
