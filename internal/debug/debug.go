// Package debug provides the process-wide development log behind --debug.
// Nothing is written unless Enable was called.
package debug

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	logger  *slog.Logger
	logFile io.WriteCloser
	logPath string
)

// Enable turns on debug logging to the file at path, appending to it.
func Enable(path string) error {
	mu.Lock()
	defer mu.Unlock()

	if logger != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	logFile = f
	logPath = path
	logger = newLogger(f)
	logger.Info("debug session started", "pid", os.Getpid(), "time", time.Now().Format(time.RFC3339))
	return nil
}

// EnableWriter logs to w instead of a file. Used by tests.
func EnableWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	logPath = ""
	logger = newLogger(w)
}

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Disable turns off debug logging and closes the file.
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	logger = nil
}

// IsEnabled returns whether debug logging is enabled.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return logger != nil
}

// LogPath returns the path to the log file.
func LogPath() string {
	mu.Lock()
	defer mu.Unlock()
	return logPath
}

// Logger returns the debug logger, or a logger that discards everything
// when debugging is off.
func Logger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

// Log writes a formatted debug message.
func Log(format string, args ...any) {
	if l := current(); l != nil {
		l.Debug(fmt.Sprintf(format, args...))
	}
}

// Event logs something that happened in a component.
func Event(component, eventType, details string) {
	if l := current(); l != nil {
		l.Info(eventType, "component", component, "details", details)
	}
}

// Error logs a failure with what was being attempted.
func Error(component string, err error, context string) {
	if l := current(); l != nil {
		l.Error(context, "component", component, "err", err)
	}
}

func current() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}
