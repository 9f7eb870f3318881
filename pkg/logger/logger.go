package logger

import (
	"context"
	"log/slog"
	"os"
)

// Field is a structured key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value interface{}
}

// Logger is the logging interface services depend on.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...Field)
	Info(ctx context.Context, msg string, fields ...Field)
	Warn(ctx context.Context, msg string, fields ...Field)
	Error(ctx context.Context, msg string, fields ...Field)
}

// AppLogger implements Logger on top of slog.
type AppLogger struct {
	slog *slog.Logger
}

// NewLogger returns a logger configured for the given environment:
// JSON output in production, human-readable text otherwise.
func NewLogger(env string) *AppLogger {
	var handler slog.Handler
	switch env {
	case "production":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return &AppLogger{slog: slog.New(handler)}
}

// NewWithSlog wraps an existing slog.Logger, e.g. one backed by the
// otelslog bridge when OTLP export is enabled.
func NewWithSlog(l *slog.Logger) *AppLogger {
	return &AppLogger{slog: l}
}

func (l *AppLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.slog.DebugContext(ctx, msg, attrs(fields)...)
}

func (l *AppLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.slog.InfoContext(ctx, msg, attrs(fields)...)
}

func (l *AppLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.slog.WarnContext(ctx, msg, attrs(fields)...)
}

func (l *AppLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.slog.ErrorContext(ctx, msg, attrs(fields)...)
}

func attrs(fields []Field) []any {
	out := make([]any, 0, len(fields))
	for _, f := range fields {
		out = append(out, slog.Any(f.Key, f.Value))
	}
	return out
}
