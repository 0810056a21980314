package core

import (
	"context"
	"time"
)

// Logger interface
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
	Fatal(format string, args ...any)
}

// Cache interface
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, duration time.Duration)
	Delete(key string)
	Stop()
}

// StatsStorage persists aggregated request statistics.
type StatsStorage interface {
	SaveStats(stats *RequestStats) error
	LoadStats() (*RequestStats, error)
}

// StorageInterface is the key-value store behind sessions and stats.
// Settings and last answers are keyed by session id.
type StorageInterface interface {
	StatsStorage
	LoadSettings(ctx context.Context, sessionID string) (*Settings, error)
	SaveSettings(ctx context.Context, sessionID string, settings *Settings) error
	// UpdateSettings applies mutate to the current settings and stores the
	// result atomically with respect to other writers of the same session.
	UpdateSettings(ctx context.Context, sessionID string, mutate func(*Settings) error) (*Settings, error)
	LoadLastAnswer(ctx context.Context, sessionID string) (string, error)
	SaveLastAnswer(ctx context.Context, sessionID, answer string) error
	DeleteLastAnswer(ctx context.Context, sessionID string) error
	Close() error
}

// MetricsCollector interface
type MetricsCollector interface {
	RecordAsk(result AskOutcome, provider, model string, duration time.Duration)
	RecordUpstreamStatus(provider string, statusCode int)
	GetQPS() float64
}

// NopLogger empty logger implementation
type NopLogger struct{}

func (*NopLogger) Debug(format string, args ...any) {}
func (*NopLogger) Info(format string, args ...any)  {}
func (*NopLogger) Warn(format string, args ...any)  {}
func (*NopLogger) Error(format string, args ...any) {}
func (*NopLogger) Fatal(format string, args ...any) {}

// NopMetrics empty metrics collector implementation
type NopMetrics struct{}

func (*NopMetrics) RecordAsk(AskOutcome, string, string, time.Duration) {}
func (*NopMetrics) RecordUpstreamStatus(string, int)                    {}
func (*NopMetrics) GetQPS() float64                                     { return 0 }
