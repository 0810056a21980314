package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"minichatbot/internal/core"
)

func createModelsTempFile(t *testing.T, content string) string {
	t.Helper()
	filePath := filepath.Join(t.TempDir(), "models.json")
	if err := os.WriteFile(filePath, []byte(content), core.FilePermissionReadWrite); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return filePath
}

func providerByPrefix(modelID string) string {
	if strings.HasPrefix(modelID, core.GeminiModelPrefix) {
		return core.ProviderGemini
	}
	return core.ProviderOpenAI
}

func TestLoadModelsConfig_ValidJSON(t *testing.T) {
	filePath := createModelsTempFile(t, `{"default":"gpt-4o-mini","models":{"gpt-4o-mini":"GPT-4o mini","gemini-1.5-flash":"Gemini Flash"}}`)

	config, err := LoadModelsConfig(filePath)
	if err != nil {
		t.Fatalf("LoadModelsConfig failed: %v", err)
	}

	if len(config.Models) != 2 {
		t.Errorf("Expected 2 models, got %d", len(config.Models))
	}
	if config.Models["gemini-1.5-flash"] != "Gemini Flash" {
		t.Errorf("Expected 'Gemini Flash', got '%s'", config.Models["gemini-1.5-flash"])
	}
	if config.Default != "gpt-4o-mini" {
		t.Errorf("Expected default gpt-4o-mini, got %q", config.Default)
	}
}

func TestLoadModelsConfig_ArrayFormat(t *testing.T) {
	filePath := createModelsTempFile(t, `["gpt-4o"," gemini-pro ",""]`)

	config, err := LoadModelsConfig(filePath)
	if err != nil {
		t.Fatalf("LoadModelsConfig failed: %v", err)
	}

	if len(config.Models) != 2 {
		t.Errorf("Expected 2 models, got %d", len(config.Models))
	}
	if config.Models["gemini-pro"] != "gemini-pro" {
		t.Errorf("Array format: expected identity mapping for 'gemini-pro'")
	}
}

func TestLoadModelsConfig_Errors(t *testing.T) {
	if _, err := LoadModelsConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for non-existent file")
	}
	if _, err := LoadModelsConfig(createModelsTempFile(t, `not json`)); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}

func TestLoadModels(t *testing.T) {
	filePath := createModelsTempFile(t, `{"models":{"gpt-4o":"gpt-4o","gemini-1.5-pro":"Gemini Pro"}}`)

	models, config, err := LoadModels(filePath, providerByPrefix, &core.NopLogger{})
	if err != nil {
		t.Fatalf("LoadModels failed: %v", err)
	}
	if len(config.Models) != 2 {
		t.Errorf("Expected 2 mappings, got %d", len(config.Models))
	}
	if models.Object != core.ModelListObjectType {
		t.Errorf("Expected object %q, got %q", core.ModelListObjectType, models.Object)
	}
	if len(models.Data) != 2 {
		t.Fatalf("Expected 2 model items, got %d", len(models.Data))
	}

	// sorted by id
	if models.Data[0].ID != "gemini-1.5-pro" || models.Data[0].Provider != core.ProviderGemini {
		t.Errorf("unexpected first model: %+v", models.Data[0])
	}
	if models.Data[0].Name != "Gemini Pro" {
		t.Errorf("expected display name, got %q", models.Data[0].Name)
	}
	if models.Data[1].Provider != core.ProviderOpenAI || models.Data[1].Name != "" {
		t.Errorf("unexpected second model: %+v", models.Data[1])
	}
}

func TestLoadModels_MissingFile(t *testing.T) {
	models, _, err := LoadModels(filepath.Join(t.TempDir(), "nope.json"), nil, &core.NopLogger{})
	if err == nil {
		t.Fatal("expected error")
	}
	if models.Data == nil {
		t.Error("model list should be empty, not nil")
	}
}

func TestGetModelItem(t *testing.T) {
	models := core.ModelList{
		Data: []core.ModelInfo{
			{ID: "gpt-4o", Object: "model", Provider: core.ProviderOpenAI},
			{ID: "gemini-pro", Object: "model", Provider: core.ProviderGemini},
		},
	}

	item := GetModelItem(models, "gemini-pro")
	if item == nil || item.Provider != core.ProviderGemini {
		t.Errorf("expected gemini-pro, got %+v", item)
	}
	if GetModelItem(models, "nonexistent") != nil {
		t.Error("Expected nil for non-existent model")
	}
}

func TestDefaultHTTPClientSettings(t *testing.T) {
	settings := DefaultHTTPClientSettings()
	if settings.RequestTimeout != core.HTTPRequestTimeout {
		t.Errorf("expected %v, got %v", core.HTTPRequestTimeout, settings.RequestTimeout)
	}
	if settings.MaxIdleConns != core.HTTPMaxIdleConns {
		t.Errorf("expected %d idle conns, got %d", core.HTTPMaxIdleConns, settings.MaxIdleConns)
	}
}

func TestLoadServerConfigFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"CLIENT_API_KEYS", "PORT", "GIN_MODE", "MODELS_CONFIG_PATH", "SYSTEM_PROMPT",
		"OPENAI_BASE_URL", "GEMINI_BASE_URL", "DEFAULT_MODEL", "HTTP_TIMEOUT",
		"RATE_LIMIT", "STORAGE", "REDIS_URL", "SETTINGS_FILE", "STATS_FILE",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadServerConfigFromEnv(&core.NopLogger{})
	if err != nil {
		t.Fatalf("LoadServerConfigFromEnv: %v", err)
	}
	if cfg.Port != core.DefaultPort {
		t.Errorf("expected port %s, got %s", core.DefaultPort, cfg.Port)
	}
	if cfg.SystemPrompt != core.DefaultSystemPrompt {
		t.Errorf("unexpected system prompt %q", cfg.SystemPrompt)
	}
	if cfg.OpenAIBaseURL != core.OpenAIBaseURL || cfg.GeminiBaseURL != core.GeminiBaseURL {
		t.Errorf("unexpected base urls %q %q", cfg.OpenAIBaseURL, cfg.GeminiBaseURL)
	}
	if cfg.DefaultModel != core.DefaultModel {
		t.Errorf("expected default model %s, got %s", core.DefaultModel, cfg.DefaultModel)
	}
	if cfg.RateLimit != core.DefaultRateLimit {
		t.Errorf("expected rate limit %d, got %d", core.DefaultRateLimit, cfg.RateLimit)
	}
	if cfg.StorageConfig.Backend != core.StorageBackendFile {
		t.Errorf("expected file storage, got %q", cfg.StorageConfig.Backend)
	}
	if len(cfg.ClientAPIKeys) != 0 {
		t.Errorf("expected no client keys, got %v", cfg.ClientAPIKeys)
	}
}

func TestLoadServerConfigFromEnv_Overrides(t *testing.T) {
	t.Setenv("CLIENT_API_KEYS", "k1, k2")
	t.Setenv("PORT", "9000")
	t.Setenv("OPENAI_BASE_URL", "http://localhost:8080/")
	t.Setenv("HTTP_TIMEOUT", "30s")
	t.Setenv("RATE_LIMIT", "10")
	t.Setenv("STORAGE", "Memory")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := LoadServerConfigFromEnv(&core.NopLogger{})
	if err != nil {
		t.Fatalf("LoadServerConfigFromEnv: %v", err)
	}
	if len(cfg.ClientAPIKeys) != 2 || cfg.ClientAPIKeys[1] != "k2" {
		t.Errorf("unexpected client keys %v", cfg.ClientAPIKeys)
	}
	if cfg.Port != "9000" {
		t.Errorf("expected port 9000, got %s", cfg.Port)
	}
	if cfg.OpenAIBaseURL != "http://localhost:8080" {
		t.Errorf("trailing slash should be trimmed, got %q", cfg.OpenAIBaseURL)
	}
	if cfg.HTTPClientSettings.RequestTimeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", cfg.HTTPClientSettings.RequestTimeout)
	}
	if cfg.RateLimit != 10 {
		t.Errorf("expected rate limit 10, got %d", cfg.RateLimit)
	}
	if cfg.StorageConfig.Backend != core.StorageBackendMemory || cfg.StorageConfig.RedisURL == "" {
		t.Errorf("unexpected storage config %+v", cfg.StorageConfig)
	}
}

func TestLoadServerConfigFromEnv_Invalid(t *testing.T) {
	t.Run("timeout", func(t *testing.T) {
		t.Setenv("STORAGE", "")
		t.Setenv("HTTP_TIMEOUT", "soon")
		if _, err := LoadServerConfigFromEnv(&core.NopLogger{}); err == nil {
			t.Error("expected error for invalid HTTP_TIMEOUT")
		}
	})
	t.Run("storage", func(t *testing.T) {
		t.Setenv("HTTP_TIMEOUT", "")
		t.Setenv("STORAGE", "postgres")
		if _, err := LoadServerConfigFromEnv(&core.NopLogger{}); err == nil {
			t.Error("expected error for unknown STORAGE")
		}
	})
	t.Run("rate limit falls back", func(t *testing.T) {
		t.Setenv("HTTP_TIMEOUT", "")
		t.Setenv("STORAGE", "")
		t.Setenv("RATE_LIMIT", "-3")
		cfg, err := LoadServerConfigFromEnv(&core.NopLogger{})
		if err != nil {
			t.Fatal(err)
		}
		if cfg.RateLimit != core.DefaultRateLimit {
			t.Errorf("expected default rate limit, got %d", cfg.RateLimit)
		}
	})
}
