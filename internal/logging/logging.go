// Package logging initialises a [log/slog] logger from the application
// configuration and provides context-based logger propagation.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Supported formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options controls the logger built by Setup.
type Options struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string
	// Format is text or json.
	Format string
	// Quiet forces the error level.
	Quiet bool
}

type ctxKey struct{}

// Setup creates a *slog.Logger writing to stderr and installs it as the
// process-wide default via slog.SetDefault.
func Setup(opts Options) *slog.Logger {
	return SetupWithWriter(opts, os.Stderr)
}

// SetupWithWriter is Setup writing to w. Use it in tests to capture or
// suppress log output.
func SetupWithWriter(opts Options, w io.Writer) *slog.Logger {
	logger := New(opts, w)
	slog.SetDefault(logger)

	return logger
}

// New creates a logger without touching the process default.
func New(opts Options, w io.Writer) *slog.Logger {
	level := ParseLevel(opts.Level)
	if opts.Quiet {
		level = slog.LevelError
	}

	hopts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler

	switch opts.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, hopts)
	default:
		handler = slog.NewTextHandler(w, hopts)
	}

	return slog.New(handler)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewContext returns a child context carrying logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext extracts a logger from ctx, falling back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}

	return slog.Default()
}

// With returns a child context whose logger carries the extra attributes.
func With(ctx context.Context, args ...any) context.Context {
	return NewContext(ctx, FromContext(ctx).With(args...))
}
