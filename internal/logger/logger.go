// Package logger provides a small, dependency-free leveled logger used for
// scheduler diagnostics (SubscriberFailure, PollFailure, and friends).
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"
)

// Level is the logging level.
type Level string

const (
	LevelLog   Level = "log"
	LevelError Level = "error"
	LevelWarn  Level = "warn"
	LevelInfo  Level = "info"
	LevelDebug Level = "debug"
)

var levels = []Level{LevelLog, LevelError, LevelWarn, LevelInfo, LevelDebug}

// Logger is a named, leveled logger with structured fields.
type Logger struct {
	name   string
	level  int // index into levels
	output io.Writer
}

// New creates a Logger with "info" as the default level.
func New(name string) *Logger {
	return NewWithLevel(name, "info", os.Stdout)
}

// NewWithLevel creates a Logger with an explicit level and output, honoring
// the KONGFLOW_LOG_LEVEL environment variable as an override.
func NewWithLevel(name, levelStr string, output io.Writer) *Logger {
	if env := os.Getenv("KONGFLOW_LOG_LEVEL"); env != "" {
		levelStr = env
	}

	idx := -1
	for i, l := range levels {
		if string(l) == levelStr {
			idx = i
			break
		}
	}
	if idx == -1 {
		idx = 3 // info
	}

	return &Logger{name: name, level: idx, output: output}
}

func formattedDateTime() string {
	now := time.Now()
	return fmt.Sprintf("%02d:%02d:%02d.%03d", now.Hour(), now.Minute(), now.Second(), now.Nanosecond()/1_000_000)
}

func (l *Logger) write(minLevel int, message string, fields map[string]any) {
	if l.level < minLevel {
		return
	}
	if len(fields) == 0 {
		fmt.Fprintf(l.output, "[%s] [%s] %s\n", formattedDateTime(), l.name, message)
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	suffix := ""
	for _, k := range keys {
		suffix += fmt.Sprintf(" %s=%v", k, fields[k])
	}
	fmt.Fprintf(l.output, "[%s] [%s] %s%s\n", formattedDateTime(), l.name, message, suffix)
}

// Log writes at the base "log" level (always shown unless level is negative).
func (l *Logger) Log(message string, fields ...map[string]any) { l.write(0, message, merge(fields)) }

// Error writes at error level.
func (l *Logger) Error(message string, fields ...map[string]any) {
	l.write(1, message, merge(fields))
}

// Warn writes at warn level.
func (l *Logger) Warn(message string, fields ...map[string]any) {
	l.write(2, message, merge(fields))
}

// Info writes at info level.
func (l *Logger) Info(message string, fields ...map[string]any) {
	l.write(3, message, merge(fields))
}

// Debug writes at debug level as a single JSON line, for machine consumption.
func (l *Logger) Debug(message string, fields ...map[string]any) {
	if l.level < 4 {
		return
	}
	entry := map[string]any{
		"timestamp": time.Now(),
		"name":      l.name,
		"message":   message,
	}
	if f := merge(fields); len(f) > 0 {
		entry["fields"] = f
	}
	b, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(l.output, "[%s] [%s] DEBUG: %s (marshal error: %v)\n", formattedDateTime(), l.name, message, err)
		return
	}
	fmt.Fprintln(l.output, string(b))
}

func merge(fields []map[string]any) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]any)
	for _, f := range fields {
		for k, v := range f {
			out[k] = v
		}
	}
	return out
}

// Name returns the logger's name.
func (l *Logger) Name() string { return l.name }

// SlogHandler adapts Logger to an slog.Handler, so hosts that already use
// log/slog can route scheduler
// diagnostics into their existing pipeline instead of keeping two log sinks.
type SlogHandler struct {
	logger *Logger
	attrs  []slog.Attr
}

func NewSlogHandler(l *Logger) *SlogHandler { return &SlogHandler{logger: l} }

func (h *SlogHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *SlogHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]any, r.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		fields[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.Any()
		return true
	})

	switch {
	case r.Level >= slog.LevelError:
		h.logger.Error(r.Message, fields)
	case r.Level >= slog.LevelWarn:
		h.logger.Warn(r.Message, fields)
	case r.Level >= slog.LevelInfo:
		h.logger.Info(r.Message, fields)
	default:
		h.logger.Debug(r.Message, fields)
	}
	return nil
}

func (h *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &SlogHandler{logger: h.logger, attrs: append(append([]slog.Attr{}, h.attrs...), attrs...)}
}

func (h *SlogHandler) WithGroup(string) slog.Handler { return h }
