package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"minichatbot/internal/core"

	"github.com/bytedance/sonic"
)

type sessionRecord struct {
	Settings   core.Settings `json:"settings"`
	LastAnswer string        `json:"last_answer,omitempty"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

type sessionsDocument struct {
	Sessions map[string]*sessionRecord `json:"sessions"`
}

// FileStorage implements persistence using JSON files
type FileStorage struct {
	settingsPath string
	statsPath    string
	mu           sync.Mutex
}

// NewFileStorage creates a file-backed store. Empty paths use the defaults.
func NewFileStorage(settingsPath, statsPath string) *FileStorage {
	if settingsPath == "" {
		settingsPath = core.SettingsFilePath
	}
	if statsPath == "" {
		statsPath = core.StatsFilePath
	}
	return &FileStorage{settingsPath: settingsPath, statsPath: statsPath}
}

func (fs *FileStorage) SaveStats(stats *core.RequestStats) error {
	data, err := sonic.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	return writeFileAtomic(fs.statsPath, data)
}

func (fs *FileStorage) LoadStats() (*core.RequestStats, error) {
	fs.mu.Lock()
	data, err := os.ReadFile(fs.statsPath)
	fs.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return emptyStats(), nil
		}
		return nil, err
	}

	var stats core.RequestStats
	if err := sonic.Unmarshal(data, &stats); err != nil {
		return nil, err
	}

	if stats.RequestHistory == nil {
		stats.RequestHistory = []core.RequestRecord{}
	}

	return &stats, nil
}

func (fs *FileStorage) LoadSettings(_ context.Context, sessionID string) (*core.Settings, error) {
	if err := checkSession(sessionID); err != nil {
		return nil, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc, err := fs.readSessions()
	if err != nil {
		return nil, err
	}
	if rec, ok := doc.Sessions[sessionID]; ok {
		return rec.Settings.Clone(), nil
	}
	return &core.Settings{}, nil
}

func (fs *FileStorage) SaveSettings(_ context.Context, sessionID string, settings *core.Settings) error {
	if err := checkSession(sessionID); err != nil {
		return err
	}
	if settings == nil {
		settings = &core.Settings{}
	}
	return fs.updateSession(sessionID, func(rec *sessionRecord) error {
		rec.Settings = *settings
		return nil
	})
}

func (fs *FileStorage) UpdateSettings(_ context.Context, sessionID string, mutate func(*core.Settings) error) (*core.Settings, error) {
	if err := checkSession(sessionID); err != nil {
		return nil, err
	}
	var updated *core.Settings
	err := fs.updateSession(sessionID, func(rec *sessionRecord) error {
		settings := rec.Settings.Clone()
		if err := mutate(settings); err != nil {
			return err
		}
		rec.Settings = *settings
		updated = settings.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (fs *FileStorage) LoadLastAnswer(_ context.Context, sessionID string) (string, error) {
	if err := checkSession(sessionID); err != nil {
		return "", err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc, err := fs.readSessions()
	if err != nil {
		return "", err
	}
	if rec, ok := doc.Sessions[sessionID]; ok {
		return rec.LastAnswer, nil
	}
	return "", nil
}

func (fs *FileStorage) SaveLastAnswer(_ context.Context, sessionID, answer string) error {
	if err := checkSession(sessionID); err != nil {
		return err
	}
	return fs.updateSession(sessionID, func(rec *sessionRecord) error {
		rec.LastAnswer = answer
		return nil
	})
}

func (fs *FileStorage) DeleteLastAnswer(ctx context.Context, sessionID string) error {
	return fs.SaveLastAnswer(ctx, sessionID, "")
}

func (fs *FileStorage) Close() error {
	return nil
}

func (fs *FileStorage) updateSession(sessionID string, mutate func(rec *sessionRecord) error) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	doc, err := fs.readSessions()
	if err != nil {
		return err
	}
	rec, ok := doc.Sessions[sessionID]
	if !ok {
		rec = &sessionRecord{}
	}
	if err := mutate(rec); err != nil {
		return err
	}
	doc.Sessions[sessionID] = rec
	rec.UpdatedAt = time.Now()

	data, err := sonic.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(fs.settingsPath, data)
}

// readSessions must be called with fs.mu held
func (fs *FileStorage) readSessions() (*sessionsDocument, error) {
	doc := &sessionsDocument{}
	data, err := os.ReadFile(fs.settingsPath)
	if err != nil {
		if os.IsNotExist(err) {
			doc.Sessions = make(map[string]*sessionRecord)
			return doc, nil
		}
		return nil, err
	}
	if err := sonic.Unmarshal(data, doc); err != nil {
		return nil, err
	}
	if doc.Sessions == nil {
		doc.Sessions = make(map[string]*sessionRecord)
	}
	return doc, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, core.FilePermissionReadWrite); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
