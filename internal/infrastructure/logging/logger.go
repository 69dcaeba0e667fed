// Package logging builds the slog logger used by background workers
// (the auction sweeper, the storage retrier). The HTTP surface logs
// through zerolog; installing this logger as the slog default keeps the
// worker output on the same level and format as the rest of the
// process.
package logging

import (
	"log/slog"
	"os"
)

// New creates a structured slog logger for the given level and format
// ("json" or "console").
func New(level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

// ParseLevel parses a log level string, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
