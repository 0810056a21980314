package core

import "time"

// HTTP client config constants
const (
	HTTPMaxIdleConns          = 100
	HTTPMaxIdleConnsPerHost   = 20
	HTTPMaxConnsPerHost       = 50
	HTTPIdleConnTimeout       = 90 * time.Second
	HTTPTLSHandshakeTimeout   = 30 * time.Second
	HTTPResponseHeaderTimeout = 2 * time.Minute
	HTTPExpectContinueTimeout = 5 * time.Second
	HTTPRequestTimeout        = 5 * time.Minute
)

// Cache config constants
const (
	CacheDefaultCapacity = 1000
	CacheCleanupInterval = 5 * time.Minute
	SessionTTL           = 30 * 24 * time.Hour
	CacheKeyVersion      = "v1"
)

// Stats and monitoring constants
const (
	StatsFilePath        = "stats.json"
	SettingsFilePath     = "settings.json"
	MinSaveInterval      = 5 * time.Second
	HistoryBufferSize    = 1000
	HistoryBatchSize     = 100
	HistoryFlushInterval = 100 * time.Millisecond
	MetricsNamespace     = "minichatbot"
)

// Storage backend identifiers
const (
	StorageBackendFile   = "file"
	StorageBackendRedis  = "redis"
	StorageBackendMemory = "memory"
	RedisKeyPrefix       = "minichatbot"
	RedisTxMaxRetries    = 10
)

// Response body size limits
const (
	MaxResponseBodySize = 10 * 1024 * 1024
	MaxErrorBodyChars   = 400
)

// Logging config constants
const (
	MaxDebugFilePathLength = 260
)

// File permission constants
const (
	FilePermissionReadWrite = 0644
)

// Rate limiting constants
const (
	DefaultRateLimit = 120
	MaxBodySize      = 1 << 20
)

// Time format constants
const (
	TimeFormatDateTime = "2006-01-02 15:04:05"
)
