package storage

import (
	"context"
	"sync"

	"minichatbot/internal/cache"
	"minichatbot/internal/core"
)

// MemoryStorage keeps sessions in a TTL'd LRU cache and stats in memory.
// Nothing survives a restart.
type MemoryStorage struct {
	sessions core.Cache
	// settingsMu serializes settings writes
	settingsMu sync.Mutex
	statsMu  sync.Mutex
	stats    *core.RequestStats
}

// NewMemoryStorage creates a store holding at most capacity cache entries.
func NewMemoryStorage(capacity int) *MemoryStorage {
	return &MemoryStorage{
		sessions: cache.NewCache(capacity),
		stats:    emptyStats(),
	}
}

func (ms *MemoryStorage) SaveStats(stats *core.RequestStats) error {
	ms.statsMu.Lock()
	defer ms.statsMu.Unlock()

	snapshot := *stats
	snapshot.RequestHistory = append([]core.RequestRecord(nil), stats.RequestHistory...)
	ms.stats = &snapshot
	return nil
}

func (ms *MemoryStorage) LoadStats() (*core.RequestStats, error) {
	ms.statsMu.Lock()
	defer ms.statsMu.Unlock()

	snapshot := *ms.stats
	snapshot.RequestHistory = append([]core.RequestRecord{}, ms.stats.RequestHistory...)
	return &snapshot, nil
}

func (ms *MemoryStorage) LoadSettings(_ context.Context, sessionID string) (*core.Settings, error) {
	if err := checkSession(sessionID); err != nil {
		return nil, err
	}
	if v, ok := ms.sessions.Get(cache.SettingsKey(sessionID)); ok {
		if s, ok := v.(*core.Settings); ok {
			return s.Clone(), nil
		}
	}
	return &core.Settings{}, nil
}

func (ms *MemoryStorage) SaveSettings(_ context.Context, sessionID string, settings *core.Settings) error {
	if err := checkSession(sessionID); err != nil {
		return err
	}
	if settings == nil {
		settings = &core.Settings{}
	}
	ms.settingsMu.Lock()
	defer ms.settingsMu.Unlock()
	ms.sessions.Set(cache.SettingsKey(sessionID), settings.Clone(), core.SessionTTL)
	return nil
}

func (ms *MemoryStorage) UpdateSettings(ctx context.Context, sessionID string, mutate func(*core.Settings) error) (*core.Settings, error) {
	ms.settingsMu.Lock()
	defer ms.settingsMu.Unlock()

	settings, err := ms.LoadSettings(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := mutate(settings); err != nil {
		return nil, err
	}
	ms.sessions.Set(cache.SettingsKey(sessionID), settings.Clone(), core.SessionTTL)
	return settings, nil
}

func (ms *MemoryStorage) LoadLastAnswer(_ context.Context, sessionID string) (string, error) {
	if err := checkSession(sessionID); err != nil {
		return "", err
	}
	if v, ok := ms.sessions.Get(cache.AnswerKey(sessionID)); ok {
		if s, ok := v.(string); ok {
			return s, nil
		}
	}
	return "", nil
}

func (ms *MemoryStorage) SaveLastAnswer(_ context.Context, sessionID, answer string) error {
	if err := checkSession(sessionID); err != nil {
		return err
	}
	ms.sessions.Set(cache.AnswerKey(sessionID), answer, core.SessionTTL)
	return nil
}

func (ms *MemoryStorage) DeleteLastAnswer(_ context.Context, sessionID string) error {
	if err := checkSession(sessionID); err != nil {
		return err
	}
	ms.sessions.Delete(cache.AnswerKey(sessionID))
	return nil
}

func (ms *MemoryStorage) Close() error {
	ms.sessions.Stop()
	return nil
}
