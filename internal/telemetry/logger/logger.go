package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

// Logger is the application logger interface.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	// WithContext binds ctx so every record carries the connection
	// fields stored in it.
	WithContext(ctx context.Context) Logger
}

// Config holds logger configuration.
type Config struct {
	// Level is debug, info, warn or error.
	Level string
	// Format is text or json.
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
	// Service, when set, is attached to every record.
	Service string
	// AddSource adds source file information to log entries.
	AddSource bool
}

// DefaultConfig matches the server's log section defaults.
func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Format:  "text",
		Output:  os.Stderr,
		Service: "bankmesh",
	}
}

// level is shared by every logger built here so one SetLevel call
// reaches the bank server, storage and the config watcher alike.
var level = new(slog.LevelVar)

// NewSlog builds the *slog.Logger all bankmesh loggers sit on. Records
// are redacted and enriched with the remote, session_id and user_id
// found in the record's context.
func NewSlog(cfg Config) (*slog.Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			return redactSensitive(a)
		},
	}

	var base slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		base = slog.NewTextHandler(output, opts)
	case "json":
		base = slog.NewJSONHandler(output, opts)
	default:
		return nil, fmt.Errorf("logger: unknown format %q (want text or json)", cfg.Format)
	}

	level.Set(lvl)
	l := slog.New(&connHandler{next: base})
	if cfg.Service != "" {
		l = l.With("service", cfg.Service)
	}
	return l, nil
}

// New builds a Logger from cfg.
func New(cfg Config) (Logger, error) {
	l, err := NewSlog(cfg)
	if err != nil {
		return nil, err
	}
	return Wrap(l), nil
}

// Wrap adapts an existing *slog.Logger, normally one from NewSlog.
func Wrap(l *slog.Logger) Logger {
	return &slogLogger{logger: l, ctx: context.Background()}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return Wrap(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1})))
}

// SetLevel changes the level of every logger at runtime. An unknown
// level leaves the current one in place.
func SetLevel(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	level.Set(lvl)
	return nil
}

// GetLevel returns the current level name.
func GetLevel() string {
	return strings.ToLower(level.Level().String())
}

// ParseLevel converts debug, info, warn (or warning) and error. The
// empty string means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("logger: unknown level %q", name)
	}
}

// connHandler copies connection identity from the record's context.
type connHandler struct {
	next slog.Handler
}

func (h *connHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.next.Enabled(ctx, l)
}

func (h *connHandler) Handle(ctx context.Context, r slog.Record) error {
	if v := RemoteFromContext(ctx); v != "" {
		r.AddAttrs(slog.String("remote", v))
	}
	if v := SessionIDFromContext(ctx); v != "" {
		r.AddAttrs(slog.String("session_id", v))
	}
	if v := UserIDFromContext(ctx); v != "" {
		r.AddAttrs(slog.String("user_id", v))
	}
	return h.next.Handle(ctx, r)
}

func (h *connHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &connHandler{next: h.next.WithAttrs(attrs)}
}

func (h *connHandler) WithGroup(name string) slog.Handler {
	return &connHandler{next: h.next.WithGroup(name)}
}

type slogLogger struct {
	logger *slog.Logger
	ctx    context.Context
}

func (l *slogLogger) Debug(msg string, args ...any) {
	l.logger.DebugContext(l.ctx, msg, args...)
}

func (l *slogLogger) Info(msg string, args ...any) {
	l.logger.InfoContext(l.ctx, msg, args...)
}

func (l *slogLogger) Warn(msg string, args ...any) {
	l.logger.WarnContext(l.ctx, msg, args...)
}

func (l *slogLogger) Error(msg string, args ...any) {
	l.logger.ErrorContext(l.ctx, msg, args...)
}

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...), ctx: l.ctx}
}

func (l *slogLogger) WithContext(ctx context.Context) Logger {
	return &slogLogger{logger: l.logger, ctx: ctx}
}

var defaultLogger atomic.Value

func init() {
	l, _ := New(DefaultConfig())
	defaultLogger.Store(&holder{l})
}

// holder keeps atomic.Value stores of one concrete type.
type holder struct{ Logger }

// SetDefault replaces the process-wide logger used when a context
// carries none.
func SetDefault(l Logger) {
	if l != nil {
		defaultLogger.Store(&holder{l})
	}
}

// Default returns the process-wide logger.
func Default() Logger {
	return defaultLogger.Load().(*holder).Logger
}
