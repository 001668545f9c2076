// Package logging threads request-scoped slog loggers through contexts so
// the services and handlers of the door API log with whatever attributes the
// middleware attached upstream.
package logging

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// ContextWithLogger derives a context carrying the logger. A nil context or
// logger is returned unchanged so callers never need to guard the attach.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger attached to the context, or nil when the
// request came in without one.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	logger, _ := ctx.Value(contextKey{}).(*slog.Logger)
	return logger
}
