package strata

import (
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with strata-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithTimeline adds a timeline field to the logger. A LayerMap serves one
// timeline; tagging the logger keeps multi-timeline processes readable.
func (l *Logger) WithTimeline(id string) *Logger {
	return &Logger{
		Logger: l.Logger.With("timeline", id),
	}
}

// LogInsert logs an insert into the historic inventory.
func (l *Logger) LogInsert(shortID string, err error) {
	if err != nil {
		l.Error("layer insert rejected",
			"layer", shortID,
			"error", err,
		)
	} else {
		l.Debug("layer inserted",
			"layer", shortID,
		)
	}
}

// LogRemove logs a removal from the historic inventory.
func (l *Logger) LogRemove(shortID string, found bool) {
	if !found {
		l.Warn("removal of unknown layer",
			"layer", shortID,
		)
	} else {
		l.Debug("layer removed",
			"layer", shortID,
		)
	}
}

// LogRebuild logs an index rebuild.
func (l *Logger) LogRebuild(layers, pending int, duration time.Duration, err error) {
	if err != nil {
		l.Error("index rebuild failed",
			"layers", layers,
			"pending", pending,
			"duration", duration,
			"error", err,
		)
	} else {
		l.Info("index rebuilt",
			"layers", layers,
			"pending", pending,
			"duration", duration,
		)
	}
}
