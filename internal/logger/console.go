// Package logger provides logging implementations for textdump runs.
//
// Loggers report per-file diagnostics while a tree is collected and a summary
// once the dump is written. Implementations are thread-safe and write either to
// the console or to per-run log files.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/textdump/internal/models"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs run progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// It supports log level filtering to control message verbosity.
// Color output is enabled when the writer is a terminal and NO_COLOR is unset.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		mutex:       sync.Mutex{},
		colorOutput: isTerminal(writer),
	}
}

// isTerminal reports whether w is a TTY that should receive ANSI colors.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}

	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}

	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}

	return "info"
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LevelEnabled reports whether a message at level passes a logger configured
// with threshold. Both are normalized like NewConsoleLogger does.
func LevelEnabled(threshold, level string) bool {
	return logLevelToInt(normalizeLogLevel(level)) >= logLevelToInt(normalizeLogLevel(threshold))
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
// Format: "[HH:MM:SS] [WARN] <message>"
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}

	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string

	if cl.colorOutput {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, colorizeLevel(level), message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

// colorizeLevel wraps a level tag in its ANSI color.
// Colors are forced on: the caller has already checked the writer is a TTY.
func colorizeLevel(level string) string {
	var c *color.Color

	switch strings.ToUpper(level) {
	case "TRACE":
		c = color.New(color.FgHiBlack)
	case "DEBUG":
		c = color.New(color.FgCyan)
	case "INFO":
		c = color.New(color.FgBlue)
	case "WARN":
		c = color.New(color.FgYellow)
	case "ERROR":
		c = color.New(color.FgRed)
	default:
		return level
	}

	c.EnableColor()
	return c.Sprint(level)
}

// LogSummary logs the run summary at INFO level.
func (cl *ConsoleLogger) LogSummary(result models.DumpResult) {
	if cl.writer == nil {
		return
	}

	if !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	durationStr := formatDuration(result.Duration)

	var output string

	if cl.colorOutput {
		bold := color.New(color.Bold)
		green := color.New(color.FgGreen)
		red := color.New(color.FgRed)
		bold.EnableColor()
		green.EnableColor()
		red.EnableColor()

		output = fmt.Sprintf("[%s] %s\n", ts, bold.Sprint("=== Dump Summary ==="))
		output += fmt.Sprintf("[%s] Files visited: %d\n", ts, result.Visited)
		output += fmt.Sprintf("[%s] %s\n", ts, green.Sprintf("Included: %d", result.Included))
		output += fmt.Sprintf("[%s] Skipped: %d\n", ts, result.Skipped)

		if result.Failed() > 0 {
			output += fmt.Sprintf("[%s] %s\n", ts, red.Sprintf("Unreadable: %d", result.Failed()))
		} else {
			output += fmt.Sprintf("[%s] Unreadable: 0\n", ts)
		}
	} else {
		output = fmt.Sprintf("[%s] === Dump Summary ===\n", ts)
		output += fmt.Sprintf("[%s] Files visited: %d\n", ts, result.Visited)
		output += fmt.Sprintf("[%s] Included: %d\n", ts, result.Included)
		output += fmt.Sprintf("[%s] Skipped: %d\n", ts, result.Skipped)
		output += fmt.Sprintf("[%s] Unreadable: %d\n", ts, result.Failed())
	}

	if result.OutputPath != "" {
		output += fmt.Sprintf("[%s] Output: %s (%s)\n", ts, result.OutputPath, formatBytes(result.Bytes))
	}
	output += fmt.Sprintf("[%s] Duration: %s\n", ts, durationStr)

	cl.writer.Write([]byte(output))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "250ms", "5s", "1m30s"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder < time.Second {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm%ds", minutes, remainder/time.Second)
	case d >= time.Second:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	default:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
}

// formatBytes renders a byte count with a binary unit suffix.
// Examples: "512 B", "1.5 KiB", "3.0 MiB"
func formatBytes(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := int64(n) / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// NoOpLogger is a Logger implementation that discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTrace(message string) {}
func (n *NoOpLogger) LogDebug(message string) {}
func (n *NoOpLogger) LogInfo(message string) {}
func (n *NoOpLogger) LogWarn(message string) {}
func (n *NoOpLogger) LogError(message string) {}
func (n *NoOpLogger) LogSummary(result models.DumpResult) {}
