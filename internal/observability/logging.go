// Package observability provides structured logging and tracing for the
// client and the stub backend.
package observability

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger to provide specialized logging methods.
type Logger struct {
	*slog.Logger
}

// NewLogger builds a Logger for the given environment: JSON output in
// production, text output for local development.
func NewLogger(env string) *Logger {
	level := slog.LevelInfo
	var handler slog.Handler
	if env == "production" || env == "prod" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NopLogger discards all records. Used in tests that assert on behavior, not
// log output.
func NopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// APILogger provides structured logging for outgoing API calls.
type APILogger struct {
	service string
	logger  *Logger
}

// NewAPILogger creates an APILogger labelled with the calling service.
func NewAPILogger(service string, logger *Logger) *APILogger {
	return &APILogger{service: service, logger: logger}
}

// LogRequest logs a completed API call. retried marks calls that were
// re-issued after a token refresh.
func (l *APILogger) LogRequest(ctx context.Context, method, path string, status int, elapsed time.Duration, retried bool) {
	l.logger.InfoContext(ctx, "api request",
		slog.String("service", l.service),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Duration("elapsed", elapsed),
		slog.Bool("retried", retried),
	)
}

// LogError logs a failed API call.
func (l *APILogger) LogError(ctx context.Context, method, path string, err error) {
	l.logger.ErrorContext(ctx, "api request failed",
		slog.String("service", l.service),
		slog.String("method", method),
		slog.String("path", path),
		slog.String("error", err.Error()),
	)
}
