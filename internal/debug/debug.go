package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Build flag for debug mode - can be overridden at build time
// go build -ldflags "-X github.com/standardbeagle/rspfix/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// QuietMode suppresses all debug output (set by main for --quiet hook runs)
var QuietMode = false

// Component tags a trace line with the subsystem that wrote it
type Component string

const (
	Patch  Component = "PATCH"
	Watch  Component = "WATCH"
	Config Component = "CONFIG"
	Probe  Component = "PROBE"
)

var (
	mu        sync.Mutex
	output    io.Writer // nil means no output
	logFile   *os.File
	startedAt = time.Now()
)

// SetQuietMode enables quiet mode which suppresses all debug output
func SetQuietMode(enabled bool) {
	QuietMode = enabled
}

// SetDebugOutput sets a custom writer for debug output.
// Pass nil to disable debug output entirely.
func SetDebugOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// InitDebugLogFile directs debug output to a new file under dir, or under
// the system temp directory when dir is empty. It returns the file path.
// Call CloseDebugLog when done.
func InitDebugLogFile(dir string) (string, error) {
	mu.Lock()
	defer mu.Unlock()

	if dir == "" {
		dir = filepath.Join(os.TempDir(), "rspfix-debug-logs")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug log directory: %w", err)
	}

	name := fmt.Sprintf("rspfix-%s-%d.log", time.Now().Format("2006-01-02T150405"), os.Getpid())
	path := filepath.Join(dir, name)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create debug log file: %w", err)
	}

	logFile = file
	output = file
	return path, nil
}

// CloseDebugLog closes the debug log file if one is open.
func CloseDebugLog() error {
	mu.Lock()
	defer mu.Unlock()

	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	output = nil
	return err
}

// IsDebugEnabled returns true if debug mode is enabled and we're not in quiet mode
func IsDebugEnabled() bool {
	if QuietMode {
		return false
	}
	if EnableDebug == "true" {
		return true
	}
	// Runtime override for editor hooks, which cannot pass flags
	v := os.Getenv("DEBUG")
	return v == "1" || v == "true"
}

// Log writes one trace line tagged with component and the time since start.
func Log(component Component, format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if output == nil {
		return
	}
	elapsed := time.Since(startedAt).Round(time.Millisecond)
	fmt.Fprintf(output, "[DEBUG:%s +%s] "+format, append([]interface{}{component, elapsed}, args...)...)
}

// LogPatch traces project and solution patching
func LogPatch(format string, args ...interface{}) {
	Log(Patch, format, args...)
}

// LogWatch traces watch mode
func LogWatch(format string, args ...interface{}) {
	Log(Watch, format, args...)
}

// LogConfig traces configuration loading
func LogConfig(format string, args ...interface{}) {
	Log(Config, format, args...)
}
