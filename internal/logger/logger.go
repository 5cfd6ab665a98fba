// Package logger configures the global zerolog logger and provides
// context helpers for request-scoped sub-loggers.
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global zerolog logger with the given level.
// Unknown levels fall back to info.
func Setup(level string) {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	log.Logger = zerolog.New(os.Stdout).
		Level(lvl).
		With().
		Timestamp().
		Logger()

	// Contexts without a request-scoped logger fall back to the global one.
	zerolog.DefaultContextLogger = &log.Logger
}

// FromContext returns the logger attached to ctx by the logging middleware,
// or the global logger when none is attached.
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
