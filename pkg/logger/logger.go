package logger

import (
	"context"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	ServiceName string
	// Level is a zerolog level name; empty or unknown means info.
	Level string
	// Format is "json" (default) or "console".
	Format    string
	WarnStack bool
	Output    io.Writer
}

// Logger writes structured lines. Per-request fields travel in the context
// through zerolog's own context logger, so handlers only pass ctx around.
type Logger struct {
	base      zerolog.Logger
	warnStack bool
}

func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.EqualFold(opts.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	base := zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger()
	return &Logger{base: base, warnStack: opts.WarnStack}
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{base: zerolog.Nop()}
}

func ParseLevel(name string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) from(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if lg := zerolog.Ctx(ctx); lg.GetLevel() != zerolog.Disabled {
			return lg
		}
	}
	return &l.base
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.WithFields(ctx, map[string]any{key: value})
}

func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	child := l.from(ctx).With().Fields(fields).Logger()
	return child.WithContext(ctx)
}

func (l *Logger) WithRequestID(ctx context.Context, id string) context.Context {
	return l.WithField(ctx, "request_id", id)
}

func (l *Logger) WithSessionKey(ctx context.Context, key string) context.Context {
	return l.WithField(ctx, "session_key", key)
}

func (l *Logger) WithJobName(ctx context.Context, name string) context.Context {
	return l.WithField(ctx, "job_name", name)
}

func (l *Logger) Debug(ctx context.Context, msg string) {
	l.from(ctx).Debug().Msg(msg)
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.from(ctx).Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	ev := l.from(ctx).Warn()
	if l.warnStack {
		ev = ev.Str("stack", stack())
	}
	ev.Msg(msg)
}

// Error always carries a stack.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	l.from(ctx).Error().Err(err).Str("stack", stack()).Msg(msg)
}

func stack() string {
	return strings.TrimSpace(string(debug.Stack()))
}
