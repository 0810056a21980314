package log

import (
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"minichatbot/internal/core"
)

// LogLevel defines the severity level for log messages.
type LogLevel int

// Log level constants.
const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[string]LogLevel{
	"debug": DEBUG,
	"info":  INFO,
	"warn":  WARN,
	"error": ERROR,
}

// ParseLevel maps a LOG_LEVEL value to a LogLevel, defaulting to INFO.
func ParseLevel(s string) LogLevel {
	if lvl, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return lvl
	}
	return INFO
}

// AppLogger is the application logger implementation.
type AppLogger struct {
	logger     *log.Logger
	level      LogLevel
	fileHandle *os.File
	mu         sync.RWMutex
}

// NewAppLoggerWithConfig creates a logger instance with configuration.
func NewAppLoggerWithConfig(output io.Writer, debugMode bool) *AppLogger {
	level := INFO
	if debugMode {
		level = DEBUG
	}
	return NewAppLoggerWithLevel(output, level)
}

// NewAppLoggerWithLevel creates a logger that drops messages below level.
func NewAppLoggerWithLevel(output io.Writer, level LogLevel) *AppLogger {
	return &AppLogger{
		logger: log.New(output, "", log.LstdFlags),
		level:  level,
	}
}

func (l *AppLogger) logf(level LogLevel, prefix, format string, args ...any) {
	if l == nil || level < l.level {
		return
	}
	l.logger.Printf(prefix+format, args...)
}

// Debug logs a message at DEBUG level.
func (l *AppLogger) Debug(format string, args ...any) {
	l.logf(DEBUG, "[DEBUG] ", format, args...)
}

// Info logs a message at INFO level.
func (l *AppLogger) Info(format string, args ...any) {
	l.logf(INFO, "[INFO] ", format, args...)
}

// Warn logs a message at WARN level.
func (l *AppLogger) Warn(format string, args ...any) {
	l.logf(WARN, "[WARN] ", format, args...)
}

// Error logs a message at ERROR level.
func (l *AppLogger) Error(format string, args ...any) {
	l.logf(ERROR, "[ERROR] ", format, args...)
}

// Fatal logs a message at FATAL level and terminates the process.
func (l *AppLogger) Fatal(format string, args ...any) {
	if l != nil {
		l.logger.Fatalf("[FATAL] "+format, args...)
	}
	log.New(os.Stderr, "", log.LstdFlags).Fatalf("[FATAL] "+format, args...)
}

// Close safely closes log file handle.
func (l *AppLogger) Close() error {
	if l == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fileHandle != nil {
		err := l.fileHandle.Close()
		l.fileHandle = nil
		return err
	}
	return nil
}

func containsPathTraversal(path string) bool {
	return strings.Contains(path, "..")
}

// createFileOutput opens LOG_FILE (or DEBUG_FILE) for appending, falls back to stdout on failure.
func createFileOutput(warn *log.Logger) (io.Writer, *os.File) {
	path := os.Getenv("LOG_FILE")
	if path == "" {
		path = os.Getenv("DEBUG_FILE")
	}
	if path == "" {
		return os.Stdout, nil
	}

	if len(path) > core.MaxDebugFilePathLength {
		warn.Print("[WARN] LOG_FILE path too long, falling back to stdout")
		return os.Stdout, nil
	}
	if containsPathTraversal(path) {
		warn.Print("[WARN] LOG_FILE contains path traversal characters, falling back to stdout")
		return os.Stdout, nil
	}

	//nolint:gosec // G304: path from env var, validated by containsPathTraversal
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, core.FilePermissionReadWrite)
	if err != nil {
		warn.Printf("[WARN] Failed to open LOG_FILE '%s': %v, falling back to stdout", path, err)
		return os.Stdout, nil
	}

	return file, file
}

// IsDebug returns whether the app is running in debug mode.
func IsDebug() bool {
	return os.Getenv("GIN_MODE") == "debug"
}

// CreateLogger creates a logger instance (for dependency injection).
func CreateLogger() core.Logger {
	level := ParseLevel(os.Getenv("LOG_LEVEL"))
	if IsDebug() {
		level = DEBUG
	}
	output, fileHandle := createFileOutput(log.New(os.Stderr, "", log.LstdFlags))

	return &AppLogger{
		logger:     log.New(output, "", log.LstdFlags),
		level:      level,
		fileHandle: fileHandle,
	}
}
