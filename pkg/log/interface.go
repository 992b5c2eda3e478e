// Package log provides the structured logging interface used by the foehngo
// estimators.
//
// The EM driver and the IWLS solver never log through a process-wide
// configuration; they receive a Logger through their Control object or
// options and default to a no-op logger. The interface is slog-compatible so
// implementations can be backed by zerolog (the default implementation in
// this package), log/slog, or anything else.
package log

import (
	"context"
)

// Logger defines a minimal structured logging interface. Fields are
// alternating key-value pairs, e.g.
//
//	logger.Info("EM iteration finished",
//	    log.IterationKey, 12,
//	    log.LogLikKey, -1042.7,
//	)
type Logger interface {
	// Debug logs detailed diagnostic information.
	Debug(msg string, fields ...any)

	// Info logs general operational information.
	Info(msg string, fields ...any)

	// Warn logs potentially problematic conditions that do not stop a fit,
	// such as an iteration cap being reached.
	Warn(msg string, fields ...any)

	// Error logs error conditions.
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits records at the given level.
	// Use it to skip expensive log-message construction.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, value-compatible with slog.Level.
type Level int

// Standard logging levels.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
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
