package logger

import (
	"context"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"github.com/lmittmann/tint"
)

// Logger wraps slog.Logger with contextual fields.
type Logger struct {
	*slog.Logger
}

// New creates a new logger for the given level ("debug"/"info"/"warn"/"error")
// and format ("json" for JSON output; any other value, e.g. "text", for
// tint-colored console output).
func New(level, format string) *Logger {
	var handler slog.Handler

	logLevel := ParseLevel(level)

	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	default:
		handler = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      logLevel,
			TimeFormat: time.TimeOnly,
			AddSource:  false,
		})
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithContext returns a logger with trace_id from context.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if traceID := ctx.Value(traceIDKey{}); traceID != nil {
		return &Logger{Logger: l.With("trace_id", traceID)}
	}
	return l
}

type traceIDKey struct{}

// WithFields returns a logger with additional fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.With(args...)}
}

// WithNodeID adds node_id to logger context.
func (l *Logger) WithNodeID(nodeID string) *Logger {
	return &Logger{Logger: l.With("node_id", nodeID)}
}

// WithOperatorID adds operator_id to logger context.
func (l *Logger) WithOperatorID(operatorID string) *Logger {
	return &Logger{Logger: l.With("operator_id", operatorID)}
}

// Error logs an error with a stack trace attached.
func (l *Logger) Error(msg string, args ...any) {
	args = append(args, "stack", string(debug.Stack()))
	l.Logger.Error(msg, args...)
}

// ErrorContext logs an error with context and a stack trace attached.
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	args = append(args, "stack", string(debug.Stack()))
	l.Logger.ErrorContext(ctx, msg, args...)
}

// ParseLevel maps the service's string log levels onto slog levels.
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
	case "trace":
		// slog has no trace level; treat as the most verbose debug output.
		return slog.LevelDebug - 4
	default:
		return slog.LevelInfo
	}
}

// LevelFromVerbosity maps the CLI's repeated `-v` count onto a level name,
// per the dataflow CLI's documented rule: 0=ERROR, 1=INFO, 2=DEBUG, >=3=TRACE.
func LevelFromVerbosity(count int) string {
	switch count {
	case 0:
		return "error"
	case 1:
		return "info"
	case 2:
		return "debug"
	default:
		return "trace"
	}
}

// ResolveLevel implements the "more verbose wins" rule between RUST_LOG-style
// env override and the CLI's -v count: whichever names the more verbose level
// takes effect.
func ResolveLevel(envLevel string, verboseCount int) string {
	fromVerbosity := LevelFromVerbosity(verboseCount)
	if envLevel == "" {
		return fromVerbosity
	}
	if ParseLevel(envLevel) <= ParseLevel(fromVerbosity) {
		return envLevel
	}
	return fromVerbosity
}
