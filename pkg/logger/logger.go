package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/angelmondragon/printshop-backend/pkg/env"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options configures the structured logger.
type Options struct {
	ServiceName string
	Level       zerolog.Level
	WarnStack   bool
	Output      io.Writer
	// Format is "json" or "console"; empty reads PRINTSHOP_LOG_FORMAT.
	Format string
	// Fields are attached to every entry, e.g. the instance id.
	Fields map[string]any
}

// Logger writes zerolog entries enriched with fields carried on the context.
type Logger struct {
	base      *zerolog.Logger
	warnStack bool
}

type ctxKey struct{}

var timeFormatOnce sync.Once

func New(opts Options) *Logger {
	timeFormatOnce.Do(func() { zerolog.TimeFieldFormat = time.RFC3339Nano })

	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.InfoLevel
	}
	output := opts.Output
	if output == nil {
		output = os.Stdout
	}
	format := opts.Format
	if format == "" {
		format = env.FirstOf(FormatJSON, "PRINTSHOP_LOG_FORMAT", "LOG_FORMAT")
	}
	if strings.EqualFold(format, FormatConsole) {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	builder := zerolog.New(output).With().Timestamp().Str("service", opts.ServiceName)
	builder = withSortedFields(builder, opts.Fields)
	base := builder.Logger().Level(opts.Level)

	return &Logger{base: &base, warnStack: opts.WarnStack}
}

// ParseLevel maps a config string to a level, defaulting to info.
func ParseLevel(value string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(value)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) fromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if entry, ok := ctx.Value(ctxKey{}).(*zerolog.Logger); ok {
			return entry
		}
	}
	return l.base
}

func (l *Logger) attach(ctx context.Context, entry zerolog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey{}, &entry)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.attach(ctx, l.fromContext(ctx).With().Interface(key, value).Logger())
}

// WithFields attaches fields in key order so entries render deterministically.
func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	return l.attach(ctx, withSortedFields(l.fromContext(ctx).With(), fields).Logger())
}

func withSortedFields(builder zerolog.Context, fields map[string]any) zerolog.Context {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		builder = builder.Interface(k, fields[k])
	}
	return builder
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, "request_id", requestID)
}

func (l *Logger) WithUserID(ctx context.Context, userID int64) context.Context {
	return l.WithField(ctx, "user_id", userID)
}

func (l *Logger) WithOrderID(ctx context.Context, orderID int64) context.Context {
	return l.WithField(ctx, "order_id", orderID)
}

func (l *Logger) WithEventID(ctx context.Context, eventID string) context.Context {
	return l.WithField(ctx, "event_id", eventID)
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	l.fromContext(ctx).Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.fromContext(ctx).Info().Msg(msg)
}

// Warn carries a stack only when WarnStack is set.
func (l *Logger) Warn(ctx context.Context, msg string) {
	event := l.fromContext(ctx).Warn()
	if l.warnStack {
		event = event.Str("stack", stackTrace())
	}
	event.Msg(msg)
}

// Error always carries a stack.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	event := l.fromContext(ctx).Error()
	if err != nil {
		event = event.Err(err)
	}
	event.Str("stack", stackTrace()).Msg(msg)
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}
