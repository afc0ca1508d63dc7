package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/textdump/internal/models"
)

// FileLogger logs run events to a timestamped file in a log directory and
// maintains a latest.log symlink pointing to the most recent run.
// It is thread-safe and supports log level filtering.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger writing to logDir at the given level.
// It creates the directory if needed, opens run-YYYYMMDD-HHMMSS.log and
// points latest.log at it.
func NewFileLogger(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", timestamp))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")

	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}

	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	logger := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
		mu:       sync.Mutex{},
	}

	logger.writeRunLog("=== textdump Run Log ===\n")
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

// RunFile returns the path of the log file for this run
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}

	formatted := fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format("15:04:05"), level, message)
	fl.writeRunLog(formatted)
}

// LogSummary logs the run summary with final statistics at INFO level.
func (fl *FileLogger) LogSummary(result models.DumpResult) {
	if !fl.shouldLog("info") {
		return
	}

	timestamp := time.Now().Format("15:04:05")

	status := "SUCCESS"
	if result.Failed() > 0 {
		if result.Included == 0 {
			status = "FAILED"
		} else {
			status = "PARTIAL"
		}
	}

	message := fmt.Sprintf(
		"\n[%s] === DUMP SUMMARY ===\n"+
			"[%s] Run ID:       %s\n"+
			"[%s] Root:         %s\n"+
			"[%s] Output:       %s\n"+
			"[%s] Visited:      %d\n"+
			"[%s] Included:     %d\n"+
			"[%s] Skipped:      %d\n"+
			"[%s] Unreadable:   %d\n"+
			"[%s] Bytes:        %d\n"+
			"[%s] Total time:   %.1fs\n"+
			"[%s] Status:       %s\n",
		timestamp,
		timestamp, result.RunID,
		timestamp, result.Root,
		timestamp, result.OutputPath,
		timestamp, result.Visited,
		timestamp, result.Included,
		timestamp, result.Skipped,
		timestamp, result.Failed(),
		timestamp, result.Bytes,
		timestamp, result.Duration.Seconds(),
		timestamp, status,
	)

	for _, failure := range result.Failures {
		message += fmt.Sprintf("[%s]   - %s\n", timestamp, failure.Error())
	}

	fl.writeRunLog(message)
}

// Close flushes and closes the run log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}

	return nil
}

func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
	}
}
