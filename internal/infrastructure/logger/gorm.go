package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowThreshold = 200 * time.Millisecond

// GormLogger adapts zap to GORM's logger interface. Queries slower than
// the threshold log at warn, failed queries at error, the rest at debug.
type GormLogger struct {
	logger        *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
	skipNotFound  bool
}

// GormOption configures a GormLogger.
type GormOption func(*GormLogger)

// WithSlowQueryThreshold sets the elapsed time above which a query is
// reported as slow. Zero disables slow query reporting.
func WithSlowQueryThreshold(d time.Duration) GormOption {
	return func(l *GormLogger) {
		l.slowThreshold = d
	}
}

// WithNotFoundLogging controls whether gorm.ErrRecordNotFound is reported
// as a query error. Lookups that legitimately miss are routine, so it is
// off unless enabled here.
func WithNotFoundLogging(enabled bool) GormOption {
	return func(l *GormLogger) {
		l.skipNotFound = !enabled
	}
}

// NewGormLogger creates a GORM logger backed by zap.
func NewGormLogger(base *zap.Logger, level gormlogger.LogLevel, opts ...GormOption) *GormLogger {
	l := &GormLogger{
		logger:        base.Named("gorm"),
		level:         level,
		slowThreshold: defaultSlowThreshold,
		skipNotFound:  true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LogMode returns a copy of the logger at the given level.
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface.
func (l *GormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level < gormlogger.Info {
		return
	}
	l.logger.Info(fmt.Sprintf(msg, args...), requestIDField(ctx)...)
}

// Warn implements gormlogger.Interface.
func (l *GormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level < gormlogger.Warn {
		return
	}
	l.logger.Warn(fmt.Sprintf(msg, args...), requestIDField(ctx)...)
}

// Error implements gormlogger.Interface.
func (l *GormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level < gormlogger.Error {
		return
	}
	l.logger.Error(fmt.Sprintf(msg, args...), requestIDField(ctx)...)
}

// Trace logs a completed query with its elapsed time and affected rows.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := append([]zap.Field{
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	}, requestIDField(ctx)...)

	switch {
	case err != nil && l.level >= gormlogger.Error && !(l.skipNotFound && errors.Is(err, gormlogger.ErrRecordNotFound)):
		l.logger.Error("SQL error", append(fields, zap.Error(err))...)
	case l.slowThreshold > 0 && elapsed >= l.slowThreshold && l.level >= gormlogger.Warn:
		l.logger.Warn(fmt.Sprintf("Slow SQL (>= %v)", l.slowThreshold), fields...)
	case l.level >= gormlogger.Info:
		l.logger.Debug("SQL trace", fields...)
	}
}

func requestIDField(ctx context.Context) []zap.Field {
	if id := GetRequestID(ctx); id != "" {
		return []zap.Field{zap.String("request_id", id)}
	}
	return nil
}

var gormLevelNames = map[string]gormlogger.LogLevel{
	"silent": gormlogger.Silent,
	"error":  gormlogger.Error,
	"warn":   gormlogger.Warn,
	"info":   gormlogger.Info,
	"debug":  gormlogger.Info,
}

// MapGormLogLevel resolves an application log level name to the matching
// GORM level, defaulting to warn. GORM has no debug level, so debug maps
// to info.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	if mapped, ok := gormLevelNames[strings.ToLower(level)]; ok {
		return mapped
	}
	return gormlogger.Warn
}
