package common

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// EnsureRequestID returns ctx carrying a request ID, minting one if absent.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if rid := RequestIDFromContext(ctx); rid != "" {
		return ctx, rid
	}
	rid := uuid.New().String()
	return WithRequestID(ctx, rid), rid
}

// WithTimeout creates a context with the specified timeout; a non-positive
// timeout leaves the parent deadline alone.
func WithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
