package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

// gormLogger forwards GORM's trace output to the service logger. Only failed
// statements and slow ones are emitted; missing rows are not failures.
type gormLogger struct {
	logg          *logger.Logger
	slowThreshold time.Duration
	level         gormlogger.LogLevel
}

func newGormLogger(logg *logger.Logger, slow time.Duration) gormlogger.Interface {
	if logg == nil {
		return gormlogger.Discard
	}
	return &gormLogger{logg: logg, slowThreshold: slow, level: gormlogger.Warn}
}

func (g *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *g
	clone.level = level
	return &clone
}

func (g *gormLogger) Info(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Info {
		g.logg.Info(ctx, fmt.Sprintf(msg, args...))
	}
}

func (g *gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Warn {
		g.logg.Warn(ctx, fmt.Sprintf(msg, args...))
	}
}

func (g *gormLogger) Error(ctx context.Context, msg string, args ...any) {
	if g.level >= gormlogger.Error {
		g.logg.Error(ctx, fmt.Sprintf(msg, args...), nil)
	}
}

func (g *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && g.level >= gormlogger.Error:
		sql, rows := fc()
		g.logg.Error(g.fields(ctx, sql, rows, elapsed), "sql statement failed", err)
	case g.slowThreshold > 0 && elapsed > g.slowThreshold && g.level >= gormlogger.Warn:
		sql, rows := fc()
		g.logg.Warn(g.fields(ctx, sql, rows, elapsed), "slow sql statement")
	case g.level >= gormlogger.Info:
		sql, rows := fc()
		g.logg.Debug(g.fields(ctx, sql, rows, elapsed), "sql statement")
	}
}

func (g *gormLogger) fields(ctx context.Context, sql string, rows int64, elapsed time.Duration) context.Context {
	return g.logg.WithFields(ctx, map[string]any{
		"sql":         sql,
		"rows":        rows,
		"duration_ms": elapsed.Milliseconds(),
	})
}
