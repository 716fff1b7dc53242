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
// go build -ldflags "-X github.com/halfspin/grepline/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// forceEnabled turns debug logging on at runtime (set by the --debug flag)
var forceEnabled = false

// SetEnabled force-enables debug logging regardless of the build flag or
// environment. Call before any goroutines start logging.
func SetEnabled(enabled bool) {
	forceEnabled = enabled
}

// debugOutput is the writer for debug output (defaults to nil, meaning no output)
var debugOutput io.Writer

// debugFile holds the open file handle if debug output goes to a file
var debugFile *os.File

// debugMutex protects access to debug output
var debugMutex sync.Mutex

// SetDebugOutput sets a custom writer for debug output.
// Pass nil to disable debug output entirely. Debug output must never go to
// stdout: matched lines are the only thing written there.
func SetDebugOutput(w io.Writer) {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	debugOutput = w
}

// InitDebugLogFile initializes debug logging to a file.
// Returns the path to the log file, or an error if initialization fails.
// Call CloseDebugLog when done to ensure the file is properly closed.
func InitDebugLogFile() (string, error) {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	// Create log directory
	logDir := filepath.Join(os.TempDir(), "grepline-debug-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create debug log directory: %w", err)
	}

	// Create timestamped log file
	timestamp := time.Now().Format("2006-01-02T150405")
	logPath := filepath.Join(logDir, fmt.Sprintf("debug-%s.log", timestamp))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create debug log file: %w", err)
	}

	debugFile = file
	debugOutput = file
	return logPath, nil
}

// CloseDebugLog closes the debug log file if one is open.
func CloseDebugLog() error {
	debugMutex.Lock()
	defer debugMutex.Unlock()

	if debugFile != nil {
		err := debugFile.Close()
		debugFile = nil
		debugOutput = nil
		return err
	}
	return nil
}

// IsDebugEnabled returns true if debug mode is enabled
func IsDebugEnabled() bool {
	if forceEnabled {
		return true
	}

	// Check build flag first
	if EnableDebug == "true" {
		return true
	}

	// Allow runtime override via environment variable
	if os.Getenv("DEBUG") == "1" || os.Getenv("DEBUG") == "true" {
		return true
	}

	return false
}

// getDebugWriter returns the writer for debug output, or nil if none is configured
func getDebugWriter() io.Writer {
	debugMutex.Lock()
	defer debugMutex.Unlock()
	return debugOutput
}

// Printf prints debug information only when debug mode is enabled and output is configured
func Printf(format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	w := getDebugWriter()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[DEBUG] "+format, args...)
}

// Println prints debug information only when debug mode is enabled and output is configured
func Println(args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	w := getDebugWriter()
	if w == nil {
		return
	}
	fmt.Fprint(w, "[DEBUG] ")
	fmt.Fprintln(w, args...)
}

// Log provides structured debug logging with component names
func Log(component, format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	w := getDebugWriter()
	if w == nil {
		return
	}
	fmt.Fprintf(w, "[DEBUG:%s] "+format, append([]interface{}{component}, args...)...)
}

// LogScan provides debug logging specifically for line scanning operations
func LogScan(format string, args ...interface{}) {
	Log("SCAN", format, args...)
}

// LogMatch provides debug logging specifically for match evaluation
func LogMatch(format string, args ...interface{}) {
	Log("MATCH", format, args...)
}

// LogEngine provides debug logging specifically for engine orchestration
func LogEngine(format string, args ...interface{}) {
	Log("ENGINE", format, args...)
}

// Fatal outputs a catastrophic error message to the debug log and returns a fatal error.
// This function does not call os.Exit - callers should handle the error appropriately.
func Fatal(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	w := getDebugWriter()
	if w != nil {
		fmt.Fprintf(w, "[FATAL] %s", msg)
	}
	// Return a fatal error instead of exiting - let callers decide what to do
	return fmt.Errorf("fatal error: %s", msg)
}
