package orchestrator

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// DebugLogger writes timestamped debug lines to a size-rotated file.
type DebugLogger struct {
	mu  sync.Mutex
	out io.WriteCloser
}

// NewDebugLogger creates a logger writing to logPath. If the path is empty,
// returns a no-op logger. Creates parent directories if they don't exist.
func NewDebugLogger(logPath string) (*DebugLogger, error) {
	if logPath == "" {
		return &DebugLogger{}, nil
	}

	dir := filepath.Dir(logPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	logger := &DebugLogger{out: &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}}
	logger.Log("=== Assistant Debug Log Started at %s ===", time.Now().Format(time.RFC3339))

	return logger, nil
}

// DefaultLogPath is where the debug log goes when none is configured.
func DefaultLogPath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "tasktalk", "debug.log")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "tasktalk-debug.log")
	}
	return filepath.Join(home, ".local", "state", "tasktalk", "debug.log")
}

// NopLogger returns a no-op logger for testing or when logging is disabled.
func NopLogger() *DebugLogger {
	return &DebugLogger{}
}

// Log writes a timestamped message to the debug log.
// If the logger is nil or has no output, this is a no-op.
func (l *DebugLogger) Log(format string, args ...interface{}) {
	if l == nil || l.out == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.out, "[%s] %s\n", timestamp, msg)
}

// Close closes the log file.
// Safe to call on nil logger or logger without output.
func (l *DebugLogger) Close() error {
	if l == nil || l.out == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.out.Close()
}
