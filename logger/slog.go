package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/phsym/console-slog"
	slogmulti "github.com/samber/slog-multi"
)

// Options configures a slog backed Logger.
type Options struct {
	// Level is the initial minimum level.
	Level Level
	// AddSource adds the caller's file:line to each record.
	AddSource bool
	// Output is the primary sink, os.Stderr when nil.
	Output io.Writer
	// Console selects the colored console handler for Output instead of JSON.
	// It is forced on when the ENV environment variable is "development".
	Console bool
	// File, when set, additionally receives every record as JSON.
	File io.Writer
}

type slogLogger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

var _ Logger = (*slogLogger)(nil)

// NewSlog creates a slog based Logger writing to stderr.
func NewSlog(level Level, addSource bool) Logger {
	return New(Options{Level: level, AddSource: addSource})
}

// New creates a slog based Logger from opts. When opts.File is set, records are
// fanned out to both sinks and share a single level.
func New(opts Options) Logger {
	inst := &slogLogger{level: &slog.LevelVar{}}
	inst.level.Set(toSlogLevel(opts.Level))

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	var primary slog.Handler
	if opts.Console || os.Getenv("ENV") == "development" {
		primary = console.NewHandler(output, &console.HandlerOptions{
			AddSource: opts.AddSource,
			Level:     inst.level,
		})
	} else {
		primary = newJSONHandler(output, inst.level, opts.AddSource)
	}

	handler := primary
	if opts.File != nil {
		handler = slogmulti.Fanout(primary, newJSONHandler(opts.File, inst.level, opts.AddSource))
	}
	inst.logger = slog.New(handler)

	return inst
}

func newJSONHandler(w io.Writer, level slog.Leveler, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: addSource,
		Level:     level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "ts"
			}
			return a
		},
	})
}

func (l *slogLogger) Debug(msg string, keysAndValues ...any) {
	l.log(context.Background(), slog.LevelDebug, msg, keysAndValues...)
}

func (l *slogLogger) Info(msg string, keysAndValues ...any) {
	l.log(context.Background(), slog.LevelInfo, msg, keysAndValues...)
}

func (l *slogLogger) Warn(msg string, keysAndValues ...any) {
	l.log(context.Background(), slog.LevelWarn, msg, keysAndValues...)
}

func (l *slogLogger) Error(msg string, keysAndValues ...any) {
	l.log(context.Background(), slog.LevelError, msg, keysAndValues...)
}

func (l *slogLogger) Fatal(msg string, keysAndValues ...any) {
	l.log(context.Background(), slog.LevelError, msg, keysAndValues...)
	os.Exit(1)
}

func (l *slogLogger) With(keyValues ...any) Logger {
	return &slogLogger{
		logger: l.logger.With(keyValues...),
		level:  l.level,
	}
}

func (l *slogLogger) Level() Level {
	switch lv := l.level.Level(); {
	case lv <= slog.LevelDebug:
		return DebugLevel
	case lv <= slog.LevelInfo:
		return InfoLevel
	case lv <= slog.LevelWarn:
		return WarnLevel
	default:
		return ErrorLevel
	}
}

// SetLevel changes the level of l and of every logger derived from it with With.
func (l *slogLogger) SetLevel(level Level) {
	l.level.Set(toSlogLevel(level))
}

// log must always be called directly by an exported logging method,
// because it uses a fixed call depth to obtain the pc.
func (l *slogLogger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	if !l.logger.Enabled(ctx, level) {
		return
	}

	var pcs [1]uintptr
	// skip [runtime.Callers, this function, this function's caller]
	runtime.Callers(3, pcs[:])

	r := slog.NewRecord(time.Now(), level, msg, pcs[0])
	r.Add(args...)
	_ = l.logger.Handler().Handle(ctx, r)
}

func toSlogLevel(level Level) slog.Level {
	switch level {
	case DebugLevel:
		return slog.LevelDebug
	case InfoLevel:
		return slog.LevelInfo
	case WarnLevel:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
