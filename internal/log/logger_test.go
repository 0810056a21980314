package log

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewAppLoggerWithConfig(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAppLoggerWithConfig(&buf, true)
	if logger == nil {
		t.Fatal("logger should not be nil")
	}
	if logger.level != DEBUG {
		t.Error("debug mode should lower the level to DEBUG")
	}
	if logger.fileHandle != nil {
		t.Error("external writer should not hold a file handle")
	}
}

func TestAppLogger_Debug(t *testing.T) {
	tests := []struct {
		name      string
		debugMode bool
		message   string
		expectLog bool
	}{
		{"debug mode writes", true, "debug message", true},
		{"release mode drops", false, "should not appear", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewAppLoggerWithConfig(&buf, tt.debugMode)
			logger.Debug(tt.message)
			output := buf.String()
			if strings.Contains(output, tt.message) != tt.expectLog {
				t.Errorf("expected log output=%v, got %q", tt.expectLog, output)
			}
			if tt.expectLog && !strings.Contains(output, "[DEBUG]") {
				t.Error("debug line should carry the [DEBUG] prefix")
			}
		})
	}
}

func TestAppLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAppLoggerWithConfig(&buf, false)
	logger.Info("model %s", "gpt-4o-mini")
	logger.Warn("retry %d", 3)
	logger.Error("upstream: %v", "boom")

	output := buf.String()
	for _, want := range []string{"[INFO] model gpt-4o-mini", "[WARN] retry 3", "[ERROR] upstream: boom"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q: %s", want, output)
		}
	}
}

func TestAppLogger_WarnLevelDropsInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewAppLoggerWithLevel(&buf, WARN)
	logger.Info("hidden")
	logger.Warn("shown")
	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Error("info should be dropped at WARN level")
	}
	if !strings.Contains(output, "shown") {
		t.Error("warn should be written at WARN level")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]LogLevel{
		"debug":   DEBUG,
		"INFO":    INFO,
		" warn ":  WARN,
		"error":   ERROR,
		"":        INFO,
		"verbose": INFO,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestAppLogger_NilSafety(t *testing.T) {
	var logger *AppLogger
	logger.Debug("no panic")
	logger.Info("no panic")
	logger.Warn("no panic")
	logger.Error("no panic")
	if err := logger.Close(); err != nil {
		t.Errorf("closing nil logger should not fail: %v", err)
	}
}

func TestContainsPathTraversal(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"plain path", "/var/log/app.log", false},
		{"parent segment", "/var/../etc/passwd", true},
		{"relative parent", "../secret.txt", true},
		{"current dir", "./local.log", false},
		{"windows parent", "..\\config.ini", true},
		{"empty", "", false},
		{"dotted file name", "/var/log/app.2024.log", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := containsPathTraversal(tt.path); got != tt.expected {
				t.Errorf("containsPathTraversal(%q) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}

func TestCreateLogger_LogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	t.Setenv("LOG_FILE", path)
	t.Setenv("GIN_MODE", "release")

	logger := CreateLogger()
	appLog, ok := logger.(*AppLogger)
	if !ok {
		t.Fatalf("expected *AppLogger, got %T", logger)
	}
	defer func() { _ = appLog.Close() }()

	if appLog.fileHandle == nil {
		t.Fatal("LOG_FILE should open a file handle")
	}
}

func TestIsDebug(t *testing.T) {
	tests := []struct {
		ginMode  string
		expected bool
	}{
		{"debug", true},
		{"release", false},
		{"test", false},
	}
	for _, tt := range tests {
		t.Run(tt.ginMode, func(t *testing.T) {
			t.Setenv("GIN_MODE", tt.ginMode)
			if got := IsDebug(); got != tt.expected {
				t.Errorf("IsDebug() = %v, want %v (GIN_MODE=%s)", got, tt.expected, tt.ginMode)
			}
		})
	}
}
