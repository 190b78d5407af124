// Package qlog wraps log/slog with a rotating file sink, matching the
// shape the rest of the stack uses for its own ambient logging.
package qlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger pairs a *slog.Logger with the file it's writing to, so callers
// can report its location in a crash report or a `--version`-style dump.
type Logger struct {
	*slog.Logger
	LogFile string
	LogDir  string
	Start   time.Time
}

// New creates a Logger writing to dir/component.log (rotated by
// lumberjack), tee'd to stderr when debug is requested. level is one of
// "debug", "info", "warn", "error"; anything else defaults to info.
func New(component string, level string, dir string) *Logger {
	if dir == "" {
		dir = "qomet-logs"
	}

	w := &lumberjack.Logger{
		Filename: filepath.Join(dir, component+".log"),
		MaxSize:  64, // MB
		MaxAge:   14,
		Compress: true,
	}

	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}

	var out io.Writer = w
	if level == "debug" {
		out = io.MultiWriter(w, os.Stderr)
	}

	h := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl})
	return &Logger{
		Logger:  slog.New(h),
		LogFile: w.Filename,
		LogDir:  dir,
		Start:   time.Now(),
	}
}

// Discard returns a Logger that drops everything, used by tests and by
// callers that want the qlog.Logger shape without touching disk.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// Warnf is a convenience for the engine's many single-line warnings
// (clamp-to-MIN_DISTANCE, missed shaper deadline, convergence cap hit).
func (l *Logger) Warnf(ctx context.Context, format string, args ...any) {
	l.WarnContext(ctx, fmt.Sprintf(format, args...))
}
