package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"minichatbot/internal/core"
	"minichatbot/internal/util"

	"github.com/redis/go-redis/v9"
)

const (
	fieldAPIKey     = "api_key"
	fieldModel      = "model"
	fieldTheme      = "theme"
	fieldLastAnswer = "last_answer"
)

// RedisStorage implements persistence using Redis.
// Each session is a hash at <prefix>:session:<id> that expires after SessionTTL of inactivity.
type RedisStorage struct {
	client     *redis.Client
	ctx        context.Context
	prefix     string
	sessionTTL time.Duration
}

// RedisStorageConfig Redis storage config
type RedisStorageConfig struct {
	URL        string
	Prefix     string
	SessionTTL time.Duration
}

// NewRedisStorage connects and pings the server.
func NewRedisStorage(config RedisStorageConfig) (*RedisStorage, error) {
	if config.URL == "" {
		return nil, errors.New("redis url is empty")
	}
	opts, err := redis.ParseURL(config.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	prefix := config.Prefix
	if prefix == "" {
		prefix = core.RedisKeyPrefix
	}
	ttl := config.SessionTTL
	if ttl <= 0 {
		ttl = core.SessionTTL
	}

	return &RedisStorage{client: client, ctx: ctx, prefix: prefix, sessionTTL: ttl}, nil
}

func (rs *RedisStorage) statsKey() string {
	return rs.prefix + ":stats"
}

func (rs *RedisStorage) sessionKey(sessionID string) string {
	return rs.prefix + ":session:" + sessionID
}

func (rs *RedisStorage) SaveStats(stats *core.RequestStats) error {
	data, err := util.MarshalJSON(stats)
	if err != nil {
		return err
	}
	return rs.client.Set(rs.ctx, rs.statsKey(), data, 0).Err()
}

func (rs *RedisStorage) LoadStats() (*core.RequestStats, error) {
	val, err := rs.client.Get(rs.ctx, rs.statsKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return emptyStats(), nil
		}
		return nil, err
	}

	var stats core.RequestStats
	if err := util.UnmarshalJSON([]byte(val), &stats); err != nil {
		return nil, err
	}

	if stats.RequestHistory == nil {
		stats.RequestHistory = []core.RequestRecord{}
	}

	return &stats, nil
}

func (rs *RedisStorage) LoadSettings(ctx context.Context, sessionID string) (*core.Settings, error) {
	if err := checkSession(sessionID); err != nil {
		return nil, err
	}
	return readSettings(ctx, rs.client, rs.sessionKey(sessionID))
}

// hashReader is satisfied by both *redis.Client and *redis.Tx.
type hashReader interface {
	HMGet(ctx context.Context, key string, fields ...string) *redis.SliceCmd
}

func readSettings(ctx context.Context, c hashReader, key string) (*core.Settings, error) {
	vals, err := c.HMGet(ctx, key, fieldAPIKey, fieldModel, fieldTheme).Result()
	if err != nil {
		return nil, err
	}
	return &core.Settings{
		APIKey: stringField(vals, 0),
		Model:  stringField(vals, 1),
		Theme:  stringField(vals, 2),
	}, nil
}

func (rs *RedisStorage) SaveSettings(ctx context.Context, sessionID string, settings *core.Settings) error {
	if err := checkSession(sessionID); err != nil {
		return err
	}
	if settings == nil {
		settings = &core.Settings{}
	}
	_, err := rs.client.TxPipelined(ctx, rs.writeSettings(ctx, rs.sessionKey(sessionID), settings))
	return err
}

// UpdateSettings runs mutate inside an optimistic WATCH/MULTI transaction
// and retries when another client touched the session first.
func (rs *RedisStorage) UpdateSettings(ctx context.Context, sessionID string, mutate func(*core.Settings) error) (*core.Settings, error) {
	if err := checkSession(sessionID); err != nil {
		return nil, err
	}
	key := rs.sessionKey(sessionID)

	var updated *core.Settings
	txf := func(tx *redis.Tx) error {
		settings, err := readSettings(ctx, tx, key)
		if err != nil {
			return err
		}
		if err := mutate(settings); err != nil {
			return err
		}
		if _, err := tx.TxPipelined(ctx, rs.writeSettings(ctx, key, settings)); err != nil {
			return err
		}
		updated = settings
		return nil
	}

	for i := 0; i < core.RedisTxMaxRetries; i++ {
		err := rs.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("update settings for session %s: too much contention", sessionID)
}

func (rs *RedisStorage) writeSettings(ctx context.Context, key string, settings *core.Settings) func(redis.Pipeliner) error {
	return func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldAPIKey, settings.APIKey,
			fieldModel, settings.Model,
			fieldTheme, settings.Theme,
		)
		pipe.Expire(ctx, key, rs.sessionTTL)
		return nil
	}
}

func (rs *RedisStorage) LoadLastAnswer(ctx context.Context, sessionID string) (string, error) {
	if err := checkSession(sessionID); err != nil {
		return "", err
	}
	val, err := rs.client.HGet(ctx, rs.sessionKey(sessionID), fieldLastAnswer).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return val, err
}

func (rs *RedisStorage) SaveLastAnswer(ctx context.Context, sessionID, answer string) error {
	if err := checkSession(sessionID); err != nil {
		return err
	}
	key := rs.sessionKey(sessionID)
	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldLastAnswer, answer)
		pipe.Expire(ctx, key, rs.sessionTTL)
		return nil
	})
	return err
}

func (rs *RedisStorage) DeleteLastAnswer(ctx context.Context, sessionID string) error {
	if err := checkSession(sessionID); err != nil {
		return err
	}
	return rs.client.HDel(ctx, rs.sessionKey(sessionID), fieldLastAnswer).Err()
}

func (rs *RedisStorage) Close() error {
	return rs.client.Close()
}

func stringField(vals []any, i int) string {
	if i >= len(vals) {
		return ""
	}
	s, _ := vals[i].(string)
	return s
}
