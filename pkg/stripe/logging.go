package stripe

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/printshop-backend/pkg/logger"
)

// leveledLogger routes stripe-go's own diagnostics into the service logger.
type leveledLogger struct {
	logg *logger.Logger
	ctx  context.Context
}

func newLeveledLogger(logg *logger.Logger) stripe.LeveledLoggerInterface {
	if logg == nil {
		return &stripe.LeveledLogger{Level: stripe.LevelNull}
	}
	return &leveledLogger{logg: logg, ctx: logg.WithField(context.Background(), "component", "stripe-go")}
}

func (l *leveledLogger) Debugf(format string, v ...interface{}) {
	l.logg.Debug(l.ctx, fmt.Sprintf(format, v...))
}

func (l *leveledLogger) Infof(format string, v ...interface{}) {
	l.logg.Debug(l.ctx, fmt.Sprintf(format, v...))
}

func (l *leveledLogger) Warnf(format string, v ...interface{}) {
	l.logg.Warn(l.ctx, fmt.Sprintf(format, v...))
}

func (l *leveledLogger) Errorf(format string, v ...interface{}) {
	l.logg.Warn(l.ctx, fmt.Sprintf(format, v...))
}
