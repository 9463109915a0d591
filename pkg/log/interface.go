// Package log provides structured diagnostics logging for trainlog.
//
// This package defines a minimal, slog-compatible logging interface so that
// the instrumentation core can emit diagnostics (lifecycle transitions,
// configuration fallbacks) without being tied to one backend. The console
// output of the training loop itself is not written through this package;
// that is the renderer's job. This logger is the side channel an operator
// reads when something about the instrumentation needs explaining.
package log

import (
	"context"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// It supports contextual field chaining through With, so a per-logger-instance
// logger can carry its session name in every record.
type Logger interface {
	// Debug logs a debug-level message with optional structured fields.
	//
	// Example:
	//
	//	logger.Debug("epoch started", log.EpochKey, 3)
	Debug(msg string, fields ...any)

	// Info logs an info-level message with optional structured fields.
	Info(msg string, fields ...any)

	// Warn logs a warning-level message with optional structured fields.
	// Recoverable configuration problems land here.
	Warn(msg string, fields ...any)

	// Error logs an error-level message with optional structured fields.
	// Pass the error via ErrAttr to get a stacktrace attribute attached.
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4 // Detailed diagnostic information
	LevelInfo  Level = 0  // General operational information
	LevelWarn  Level = 4  // Warning conditions
	LevelError Level = 8  // Error conditions
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
