package logger

import (
	"errors"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Keys shared with the HTTP middleware chain. The request ID middleware
// stores its ID under ginRequestIDKey before this package runs.
const (
	ginLoggerKey    = "logger"
	ginRequestIDKey = "request_id"
)

// GinMiddleware returns a middleware that attaches a request-scoped logger
// to the gin context and the request context, then emits one entry per
// request. 4xx responses log at warn, 5xx at error.
func GinMiddleware(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path, query := c.Request.URL.Path, c.Request.URL.RawQuery

		reqLogger := base
		ctx := c.Request.Context()
		if id := c.GetString(ginRequestIDKey); id != "" {
			ctx, reqLogger = WithRequestID(ctx, base, id)
		} else {
			ctx = WithContext(ctx, reqLogger)
		}
		c.Set(ginLoggerKey, reqLogger)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		fields := requestFields(c, status, path, query, time.Since(start))
		switch {
		case status >= http.StatusInternalServerError:
			reqLogger.Error("HTTP request", fields...)
		case status >= http.StatusBadRequest:
			reqLogger.Warn("HTTP request", fields...)
		default:
			reqLogger.Info("HTTP request", fields...)
		}
	}
}

// requestFields assembles the log fields for a completed request. The path
// and query come from before the handler chain ran, since middleware may
// rewrite the URL in place.
func requestFields(c *gin.Context, status int, path, query string, latency time.Duration) []zap.Field {
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Duration("latency", latency),
		zap.String("client_ip", c.ClientIP()),
		zap.String("user_agent", c.Request.UserAgent()),
		zap.Int("body_size", c.Writer.Size()),
	}
	if query != "" {
		fields = append(fields, zap.String("query", query))
	}
	if len(c.Errors) > 0 {
		fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
	}
	return fields
}

// Recovery returns a middleware that converts panics into 500 responses
// and logs them with a stack trace. When the panic came from writing to a
// connection the client already closed, no response is written.
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			log := base
			if stored, ok := c.Get(ginLoggerKey); ok {
				if reqLogger, ok := stored.(*zap.Logger); ok {
					log = reqLogger
				}
			}

			fields := []zap.Field{
				zap.Any("panic", rec),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
			}

			if isClientDisconnect(rec) {
				log.Error("Client connection lost", fields...)
				c.Abort()
				return
			}

			log.Error("Panic recovered", append(fields, zap.Stack("stack"))...)
			c.AbortWithStatus(http.StatusInternalServerError)
		}()

		c.Next()
	}
}

// isClientDisconnect reports whether a recovered value stems from writing
// to a closed connection, which net/http surfaces as a panic.
func isClientDisconnect(rec any) bool {
	err, ok := rec.(error)
	if !ok {
		return false
	}
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if !errors.As(opErr.Err, &sysErr) {
		return false
	}
	msg := strings.ToLower(sysErr.Error())
	return strings.Contains(msg, "broken pipe") || strings.Contains(msg, "connection reset by peer")
}

// GetGinLogger returns the request-scoped logger stored by GinMiddleware,
// or a no-op logger when none is present.
func GetGinLogger(c *gin.Context) *zap.Logger {
	if stored, ok := c.Get(ginLoggerKey); ok {
		if reqLogger, ok := stored.(*zap.Logger); ok {
			return reqLogger
		}
	}
	return zap.NewNop()
}
