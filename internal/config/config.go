package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"minichatbot/internal/core"
	"minichatbot/internal/storage"
	"minichatbot/internal/util"

	"github.com/bytedance/sonic"
)

// ServerConfig server configuration
type ServerConfig struct {
	Port               string
	GinMode            string
	ClientAPIKeys      []string
	ModelsConfigPath   string
	SystemPrompt       string
	OpenAIBaseURL      string
	GeminiBaseURL      string
	DefaultModel       string
	RateLimit          int
	HTTPClientSettings HTTPClientSettings
	StorageConfig      storage.Config
	Storage            core.StorageInterface
	Logger             core.Logger
}

// HTTPClientSettings HTTP client configuration
type HTTPClientSettings struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration
	TLSHandshakeTimeout time.Duration
	// RequestTimeout bounds one provider call; zero means no limit.
	RequestTimeout time.Duration
}

// DefaultHTTPClientSettings default HTTP client settings
func DefaultHTTPClientSettings() HTTPClientSettings {
	return HTTPClientSettings{
		MaxIdleConns:        core.HTTPMaxIdleConns,
		MaxIdleConnsPerHost: core.HTTPMaxIdleConnsPerHost,
		MaxConnsPerHost:     core.HTTPMaxConnsPerHost,
		IdleConnTimeout:     core.HTTPIdleConnTimeout,
		TLSHandshakeTimeout: core.HTTPTLSHandshakeTimeout,
		RequestTimeout:      core.HTTPRequestTimeout,
	}
}

// LoadModels loads the model list for the API response. providerFor tags
// each entry with the provider its id routes to.
func LoadModels(path string, providerFor func(modelID string) string, logger core.Logger) (core.ModelList, core.ModelsConfig, error) {
	result := core.ModelList{Object: core.ModelListObjectType, Data: []core.ModelInfo{}}

	config, err := LoadModelsConfig(path)
	if err != nil {
		return result, config, err
	}

	modelKeys := make([]string, 0, len(config.Models))
	for modelKey := range config.Models {
		modelKeys = append(modelKeys, modelKey)
	}
	sort.Strings(modelKeys)

	for _, modelKey := range modelKeys {
		info := core.ModelInfo{
			ID:     modelKey,
			Object: core.ModelObjectType,
		}
		if name := config.Models[modelKey]; name != modelKey {
			info.Name = name
		}
		if providerFor != nil {
			info.Provider = providerFor(modelKey)
		}
		result.Data = append(result.Data, info)
	}

	logger.Info("Loaded %d models from %s", len(config.Models), path)
	return result, config, nil
}

// LoadModelsConfig loads the model mapping. Both {"models":{id:name}} and
// a plain ["id", ...] array are accepted.
func LoadModelsConfig(path string) (core.ModelsConfig, error) {
	var config core.ModelsConfig

	data, err := os.ReadFile(path) //nolint:gosec // G304: path from config, not user input
	if err != nil {
		return config, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := sonic.Unmarshal(data, &config); err != nil {
		var modelIDs []string
		if err := sonic.Unmarshal(data, &modelIDs); err != nil {
			return config, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		config.Models = make(map[string]string)
		for _, modelID := range modelIDs {
			modelID = strings.TrimSpace(modelID)
			if modelID != "" {
				config.Models[modelID] = modelID
			}
		}
	}

	if config.Models == nil {
		config.Models = make(map[string]string)
	}

	return config, nil
}

// GetModelItem finds a model by ID
func GetModelItem(models core.ModelList, modelID string) *core.ModelInfo {
	for i := range models.Data {
		if models.Data[i].ID == modelID {
			return &models.Data[i]
		}
	}
	return nil
}

// LoadServerConfigFromEnv loads server config from environment variables
func LoadServerConfigFromEnv(logger core.Logger) (ServerConfig, error) {
	clientAPIKeys := util.ParseEnvList(os.Getenv("CLIENT_API_KEYS"))
	if len(clientAPIKeys) == 0 {
		logger.Warn("CLIENT_API_KEYS environment variable is empty, the API is open to anyone who can reach it")
	} else {
		logger.Info("Loaded %d client API keys", len(clientAPIKeys))
	}

	httpSettings := DefaultHTTPClientSettings()
	timeout, ok := util.GetEnvDuration("HTTP_TIMEOUT", core.HTTPRequestTimeout)
	if !ok {
		return ServerConfig{}, fmt.Errorf("invalid HTTP_TIMEOUT %q", os.Getenv("HTTP_TIMEOUT"))
	}
	httpSettings.RequestTimeout = timeout

	rateLimit, ok := util.GetEnvInt("RATE_LIMIT", core.DefaultRateLimit)
	if !ok {
		logger.Warn("Invalid RATE_LIMIT %q, using %d", os.Getenv("RATE_LIMIT"), core.DefaultRateLimit)
	}

	backend := strings.ToLower(util.GetEnvWithDefault("STORAGE", core.StorageBackendFile))
	switch backend {
	case core.StorageBackendFile, core.StorageBackendRedis, core.StorageBackendMemory:
	default:
		return ServerConfig{}, fmt.Errorf("unknown STORAGE backend %q", backend)
	}

	config := ServerConfig{
		Port:               util.GetEnvWithDefault("PORT", core.DefaultPort),
		GinMode:            util.GetEnvWithDefault("GIN_MODE", core.DefaultGinMode),
		ClientAPIKeys:      clientAPIKeys,
		ModelsConfigPath:   util.GetEnvWithDefault("MODELS_CONFIG_PATH", core.DefaultModelsConfigPath),
		SystemPrompt:       util.GetEnvWithDefault("SYSTEM_PROMPT", core.DefaultSystemPrompt),
		OpenAIBaseURL:      strings.TrimRight(util.GetEnvWithDefault("OPENAI_BASE_URL", core.OpenAIBaseURL), "/"),
		GeminiBaseURL:      strings.TrimRight(util.GetEnvWithDefault("GEMINI_BASE_URL", core.GeminiBaseURL), "/"),
		DefaultModel:       util.GetEnvWithDefault("DEFAULT_MODEL", core.DefaultModel),
		RateLimit:          rateLimit,
		HTTPClientSettings: httpSettings,
		StorageConfig: storage.Config{
			Backend:      backend,
			RedisURL:     os.Getenv("REDIS_URL"),
			SettingsPath: util.GetEnvWithDefault("SETTINGS_FILE", core.SettingsFilePath),
			StatsPath:    util.GetEnvWithDefault("STATS_FILE", core.StatsFilePath),
		},
		Logger: logger,
	}

	return config, nil
}
