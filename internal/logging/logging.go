// Package logging builds the slog.Logger used by the simpleud CLI.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options defines parameters for logger creation.
type Options struct {
	Level   string    // console level (default: info)
	File    string    // optional JSON log file, rotated
	Output  io.Writer // console destination (default: os.Stderr)
	NoColor bool
}

// New creates a logger and a close function releasing the log file, if any.
func New(o Options) (*slog.Logger, func() error) {
	out := o.Output
	if out == nil {
		out = os.Stderr
	}
	lvl := ParseLevel(o.Level)

	console := tint.NewHandler(out, &tint.Options{
		Level:      lvl,
		TimeFormat: time.TimeOnly,
		NoColor:    o.NoColor,
	})

	if o.File == "" {
		return slog.New(console), func() error { return nil }
	}

	fw := &lumberjack.Logger{
		Filename:   o.File,
		MaxSize:    5,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}
	file := slog.NewJSONHandler(fw, &slog.HandlerOptions{Level: slog.LevelDebug})

	return slog.New(&fanout{handlers: []slog.Handler{console, file}}), fw.Close
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// fanout writes each record to every handler that accepts its level.
type fanout struct {
	handlers []slog.Handler
}

func (h *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanout) Handle(ctx context.Context, r slog.Record) error {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &fanout{handlers: handlers}
}

func (h *fanout) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &fanout{handlers: handlers}
}
