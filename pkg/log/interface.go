// Package log provides the structured logging surface used by stablefit.
//
// Logger is a small slog-compatible interface. The default implementation
// forwards to slog.Default(); NewZerologLogger offers a zerolog backend and
// TestLogger captures records for assertions.
//
//	logger := log.GetLogger().With(log.ModelNameKey, "RLSSVD")
//	logger.Debug("slopes computed",
//	    log.SamplesKey, 200,
//	    log.RetainedKey, 3,
//	)

package log

import (
	"context"
)

// Logger is a structured logger taking alternating key/value fields.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	// Error logs at error level. Pass the error under ErrAttrKey (or with
	// ErrAttr) so handlers can attach its stack trace.
	Error(msg string, fields ...any)
	// With returns a logger that adds fields to every record.
	With(fields ...any) Logger
	// Enabled reports whether records at level would be emitted.
	Enabled(ctx context.Context, level Level) bool
}

// Level is a logging level with slog.Level values.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the upper-case level name.
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
