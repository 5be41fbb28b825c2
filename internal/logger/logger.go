// Package logger is grimoire's verbose trace log. Debug, Info and Warn lines
// are written only under --verbose; errors always are. While the TUI owns
// the terminal the log is redirected to a file with ToFile.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type level string

const (
	levelDebug level = "DEBUG"
	levelInfo  level = "INFO"
	levelWarn  level = "WARN"
	levelError level = "ERROR"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	stamped bool
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the writer log lines go to. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	stamped = false
}

// ToFile appends log lines to path, each prefixed with a timestamp, until
// the returned restore func is called. Parent directories are created.
func ToFile(path string) (restore func() error, err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	mu.Lock()
	prev, prevStamped := output, stamped
	output, stamped = f, true
	mu.Unlock()

	return func() error {
		mu.Lock()
		output, stamped = prev, prevStamped
		mu.Unlock()
		return f.Close()
	}, nil
}

// Debug traces a step under --verbose.
func Debug(format string, args ...any) { logf(levelDebug, format, args...) }

// Info reports progress under --verbose.
func Info(format string, args ...any) { logf(levelInfo, format, args...) }

// Warn reports a degraded path under --verbose.
func Warn(format string, args ...any) { logf(levelWarn, format, args...) }

// Error is printed regardless of verbose mode.
func Error(format string, args ...any) { logf(levelError, format, args...) }

// Section prints a header separating phases such as ingest and retrieval.
func Section(name string) {
	mu.Lock()
	defer mu.Unlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Timed logs how long a step took when the returned func is called.
//
//	defer logger.Timed("embed query")()
func Timed(step string) func() {
	start := time.Now()
	return func() {
		Debug("%s took %s", step, time.Since(start).Round(time.Millisecond))
	}
}

// logf holds the write lock so concurrent lines never interleave.
func logf(lvl level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if !verbose && lvl != levelError {
		return
	}
	prefix := "[" + string(lvl) + "] "
	if stamped {
		prefix = time.Now().Format(time.RFC3339) + " " + prefix
	}
	fmt.Fprintf(output, prefix+format+"\n", args...)
}
