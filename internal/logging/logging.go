// Package logging configures the process-wide slog logger.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
)

// Options selects the output format and level.
type Options struct {
	// Level is DEBUG, INFO, WARN or ERROR. Defaults to INFO.
	Level string
	// JSON selects the JSON handler; otherwise records are written as text.
	JSON bool
	// Output defaults to os.Stdout.
	Output io.Writer
}

// Setup installs a logger built from opts as the slog default and returns it.
func Setup(opts Options) *slog.Logger {
	l := New(opts)
	slog.SetDefault(l)
	return l
}

// New builds a logger. ERROR records carry a stack trace and values of
// credential-looking keys are masked.
func New(opts Options) *slog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	ho := &slog.HandlerOptions{
		Level:       parseLevel(opts.Level),
		AddSource:   true,
		ReplaceAttr: redact,
	}
	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(out, ho)
	} else {
		h = slog.NewTextHandler(out, ho)
	}
	return slog.New(&stackHandler{Handler: h})
}

// FromEnv reads LOG_LEVEL and uses JSON output in production.
func FromEnv(env string) Options {
	return Options{
		Level: os.Getenv("LOG_LEVEL"),
		JSON:  env == "production" || os.Getenv("LOG_FORMAT") == "json",
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var sensitiveKeys = []string{"password", "secret", "token", "authorization", "cookie"}

func redact(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return slog.String(a.Key, "[REDACTED]")
		}
	}
	return a
}

// Fatal logs at Error level and exits with code 1.
func Fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}

// stackHandler wraps a slog.Handler and appends a stack trace for ERROR+.
type stackHandler struct {
	slog.Handler
}

func (h *stackHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		buf := make([]byte, 4096)
		n := runtime.Stack(buf, false)
		r.AddAttrs(slog.String("stacktrace", string(buf[:n])))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *stackHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &stackHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *stackHandler) WithGroup(name string) slog.Handler {
	return &stackHandler{Handler: h.Handler.WithGroup(name)}
}
