package log

import (
	"context"
	"log/slog"
)

type contextKey string

const loggerContextKey contextKey = "logger"

// WithContext stores logger in ctx so that deeper calls can pick it up.
func WithContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// FromContext extracts a logger from ctx, falling back to the slog default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// OrDefault returns l, or the logger found in ctx when l is nil.
func OrDefault(ctx context.Context, l *Logger) *Logger {
	if l != nil {
		return l
	}
	return FromContext(ctx)
}
