// Package logging configures structured logging with zerolog.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"watchpost/internal/config"
)

// New builds the root logger from configuration.
func New(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	switch strings.ToLower(cfg.Format) {
	case "console", "text":
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	default:
		logger = zerolog.New(os.Stdout)
	}

	return logger.Level(level).With().
		Timestamp().
		Str("service", "watchpost").
		Logger()
}
