package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// maxSQLLength caps the statement text attached to an entry.
const maxSQLLength = 1000

// GormLogger routes GORM statements to zap. Entries carry the request_id of
// their context.
type GormLogger struct {
	log           *zap.Logger
	slowThreshold time.Duration
	level         gormlogger.LogLevel
}

var _ gormlogger.Interface = (*GormLogger)(nil)

// NewGormLogger maps the service log level onto GORM's: debug logs every
// statement, info and warn log slow statements and failures, error logs
// failures only. A zero slowThreshold disables slow statement logging.
func NewGormLogger(log *zap.Logger, slowThreshold time.Duration, serviceLevel string) *GormLogger {
	return &GormLogger{
		log:           log,
		slowThreshold: slowThreshold,
		level:         gormLevel(serviceLevel),
	}
}

func gormLevel(serviceLevel string) gormlogger.LogLevel {
	switch strings.ToLower(serviceLevel) {
	case "silent":
		return gormlogger.Silent
	case "debug":
		return gormlogger.Info
	case "error":
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		WithContext(ctx, l.log).Sugar().Infof(msg, data...)
	}
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		WithContext(ctx, l.log).Sugar().Warnf(msg, data...)
	}
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		WithContext(ctx, l.log).Sugar().Errorf(msg, data...)
	}
}

// Trace implements gormlogger.Interface. Missing rows are not failures;
// constraint violations are logged as warnings because callers see them as
// AlreadyExists.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)

	switch {
	case l.level <= gormlogger.Silent:
	case failed && isConstraintViolation(err):
		if l.level >= gormlogger.Warn {
			WithContext(ctx, l.log).Warn("gorm constraint violation", statementFields(fc, elapsed, zap.Error(err))...)
		}
	case failed:
		WithContext(ctx, l.log).Error("gorm query error", statementFields(fc, elapsed, zap.Error(err))...)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		WithContext(ctx, l.log).Warn("gorm slow query",
			statementFields(fc, elapsed, zap.Duration("threshold", l.slowThreshold))...)
	case l.level >= gormlogger.Info:
		WithContext(ctx, l.log).Debug("gorm query", statementFields(fc, elapsed)...)
	}
}

func statementFields(fc func() (string, int64), elapsed time.Duration, extra ...zap.Field) []zap.Field {
	sql, rows := fc()
	fields := make([]zap.Field, 0, 4+len(extra))
	if len(sql) > maxSQLLength {
		sql = sql[:maxSQLLength] + "..."
		fields = append(fields, zap.Bool("sql_truncated", true))
	}
	fields = append(fields,
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	)
	return append(fields, extra...)
}

// isConstraintViolation recognises unique violations from PostgreSQL, SQLite
// and GORM's translated form.
func isConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
