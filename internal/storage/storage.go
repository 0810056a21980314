package storage

import (
	"errors"
	"strings"

	"minichatbot/internal/core"
)

// ErrInvalidSession is returned for empty session ids.
var ErrInvalidSession = errors.New("storage: empty session id")

// Config selects and configures a storage backend
type Config struct {
	Backend      string
	RedisURL     string
	SettingsPath string
	StatsPath    string
}

// InitStorage initializes storage (returns StorageInterface).
// Redis is used when REDIS_URL is set, falling back to files if it cannot be reached.
func InitStorage(cfg Config, logger core.Logger) (core.StorageInterface, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Backend))

	if backend == core.StorageBackendMemory {
		logger.Info("Using in-memory storage")
		return NewMemoryStorage(core.CacheDefaultCapacity), nil
	}

	if cfg.RedisURL != "" || backend == core.StorageBackendRedis {
		redisStorage, err := NewRedisStorage(RedisStorageConfig{
			URL:    cfg.RedisURL,
			Prefix: core.RedisKeyPrefix,
		})
		if err == nil {
			logger.Info("Using Redis storage")
			return redisStorage, nil
		}
		logger.Warn("Failed to initialize Redis storage: %v, falling back to file storage", err)
	}

	logger.Info("Using file storage (%s, %s)", orDefault(cfg.SettingsPath, core.SettingsFilePath), orDefault(cfg.StatsPath, core.StatsFilePath))
	return NewFileStorage(cfg.SettingsPath, cfg.StatsPath), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func checkSession(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSession
	}
	return nil
}

func emptyStats() *core.RequestStats {
	return &core.RequestStats{RequestHistory: []core.RequestRecord{}}
}
