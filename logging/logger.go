// Package logging wires log/slog for the monitor: human readable text on
// stdout and JSON lines in a weekly rotating file.
package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Options configures the global logger.
type Options struct {
	Dir            string
	Level          slog.Level
	RetentionWeeks int
	MaxFileSize    int64
}

var (
	mu      sync.RWMutex
	current *slog.Logger
	writer  *RotatingWriter
)

// InitLogger installs the global logger. When the log directory cannot be
// used it logs to the console only. The returned func closes the log file.
func InitLogger(opts Options) func() error {
	logger, w := newLogger(opts)

	mu.Lock()
	current, writer = logger, w
	mu.Unlock()
	slog.SetDefault(logger)

	return func() error {
		if w == nil {
			return nil
		}
		return w.Close()
	}
}

func newLogger(opts Options) (*slog.Logger, *RotatingWriter) {
	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: opts.Level})
	if opts.Dir == "" {
		return slog.New(console), nil
	}

	w, err := NewRotatingWriter(opts.Dir, opts.RetentionWeeks, opts.MaxFileSize)
	if err != nil {
		l := slog.New(console)
		l.Error("File logging disabled", "dir", opts.Dir, "error", err)
		return l, nil
	}

	file := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: opts.Level})
	return slog.New(&fanout{handlers: []slog.Handler{console, file}}), w
}

// ParseLevel maps a LOG_LEVEL value to a slog level; unknown values are Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Logger returns the global logger, or a stderr fallback before InitLogger.
func Logger() *slog.Logger {
	mu.RLock()
	l := current
	mu.RUnlock()
	if l != nil {
		return l
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}
