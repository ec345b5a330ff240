// Package logger provides structured logging built on log/slog.
package logger

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Level represents a logging level.
type Level slog.Level

// Logging levels.
const (
	LevelDebug = Level(slog.LevelDebug)
	LevelInfo  = Level(slog.LevelInfo)
	LevelWarn  = Level(slog.LevelWarn)
	LevelError = Level(slog.LevelError)
)

// ParseLevel converts a config string into a Level. Unknown values map to Info.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return LevelDebug
	case "warn":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// LoggerInterface defines the logging contract used across the application.
type LoggerInterface interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) LoggerInterface
}

// contextHandler decorates records with attributes derived from the context.
type contextHandler struct {
	slog.Handler
	attrFn func(context.Context) []slog.Attr
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.attrFn != nil {
		r.AddAttrs(h.attrFn(ctx)...)
	}
	return h.Handler.Handle(ctx, r)
}

// Logger implements LoggerInterface on top of slog.
type Logger struct {
	handler *slog.Logger
}

// New creates a Logger writing JSON records to w at the given minimum level.
// service is attached to every record. attrFn, if non-nil, is invoked per
// record to add context-derived attributes (e.g. a cycle ID).
func New(w io.Writer, level Level, service string, attrFn func(context.Context) []slog.Attr) *Logger {
	opts := &slog.HandlerOptions{Level: slog.Level(level)}
	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if attrFn != nil {
		h = &contextHandler{Handler: h, attrFn: attrFn}
	}
	return &Logger{handler: slog.New(h).With(slog.String("service", service))}
}

// Debug logs at debug level.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.handler.DebugContext(ctx, msg, args...)
}

// Info logs at info level.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.handler.InfoContext(ctx, msg, args...)
}

// Warn logs at warn level.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.handler.WarnContext(ctx, msg, args...)
}

// Error logs at error level.
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.handler.ErrorContext(ctx, msg, args...)
}

// With returns a Logger with additional attributes attached to every record.
func (l *Logger) With(args ...any) LoggerInterface {
	return &Logger{handler: l.handler.With(args...)}
}

// Timestamp returns the canonical timestamp representation used in emitted
// records: UTC, ISO-8601.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
