package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kilianp07/careplan/infra/logger"
)

// LoggingConfig defines the log level and output format.
type LoggingConfig struct {
	// Level is a zerolog level name such as "debug" or "warn".
	Level string `json:"level"`
	// Format is "json" or "console". Empty follows APP_ENV.
	Format string `json:"format"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the level and format.
func (c LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Level)); err != nil {
		return fmt.Errorf("unknown level %q", c.Level)
	}
	switch c.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	return nil
}

// Logger returns the infra logger settings.
func (c LoggingConfig) Logger() logger.Config {
	return logger.Config{Level: c.Level, Format: c.Format}
}
