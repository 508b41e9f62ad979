package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey keeps this package's context values from colliding with keys
// defined elsewhere.
type contextKey int

const (
	// LoggerKey carries the request-scoped logger.
	LoggerKey contextKey = iota
	// RequestIDKey carries the request correlation ID.
	RequestIDKey
)

// WithContext stores a logger in ctx.
func WithContext(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext returns the logger stored in ctx. Contexts without one get a
// no-op logger, never nil.
func FromContext(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(LoggerKey).(*zap.Logger); ok {
		return logger
	}
	return zap.NewNop()
}

// WithRequestID stores requestID in ctx and returns a logger that tags
// every entry with it. The returned context carries the tagged logger too,
// so downstream layers recover both through FromContext and GetRequestID.
func WithRequestID(ctx context.Context, logger *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	tagged := logger.With(zap.String("request_id", requestID))
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	return WithContext(ctx, tagged), tagged
}

// GetRequestID returns the request ID stored in ctx, or the empty string.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
