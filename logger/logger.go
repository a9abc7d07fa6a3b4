// Package logger configures the global zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds logging configuration.
type Config struct {
	Level  string // trace, debug, info, warn, error
	Format string // json, console
}

// DefaultConfig returns a sensible default logging configuration.
func DefaultConfig() Config {
	return Config{Level: "info", Format: "console"}
}

// FromEnv builds a Config from LOG_LEVEL and LOG_FORMAT.
func FromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Format = v
	}
	return cfg
}

// Setup initializes the global logger with the provided configuration.
func Setup(cfg Config) error {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(level)

	var output io.Writer = os.Stdout
	if strings.ToLower(cfg.Format) != "json" {
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	return nil
}

// WithComponent returns a logger tagged with a component name.
func WithComponent(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}
