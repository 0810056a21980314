package model

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"minichatbot/internal/core"
	"minichatbot/internal/util"
)

// HTTPError is returned when the provider answers with a non-2xx status.
// Body holds at most core.MaxErrorBodyChars characters of the response.
type HTTPError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error %d: %s", e.StatusCode, e.Body)
}

// Config configures an Adapter. Zero values fall back to the public
// endpoints, the default system prompt and a no-op logger/metrics.
type Config struct {
	HTTPClient    *http.Client
	OpenAIBaseURL string
	GeminiBaseURL string
	SystemPrompt  string
	// Protocols registers extra prefix routes on top of the built-in gemini one.
	Protocols map[string]Protocol
	Logger    core.Logger
	Metrics   core.MetricsCollector
}

// Adapter sends one prompt to the provider selected by the model id and
// returns the trimmed answer text. It keeps no per-call state and is safe
// for concurrent use.
type Adapter struct {
	httpClient *http.Client
	registry   *Registry
	logger     core.Logger
	metrics    core.MetricsCollector
}

// NewAdapter creates an adapter with the OpenAI-compatible protocol as the
// fallback and Gemini registered for ids starting with "gemini".
func NewAdapter(cfg Config) *Adapter {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: core.HTTPRequestTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = &core.NopLogger{}
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = &core.NopMetrics{}
	}

	registry := NewRegistry(NewOpenAIProtocol(cfg.OpenAIBaseURL, cfg.SystemPrompt))
	registry.Register(core.GeminiModelPrefix, NewGeminiProtocol(cfg.GeminiBaseURL))
	for prefix, p := range cfg.Protocols {
		registry.Register(prefix, p)
	}

	return &Adapter{
		httpClient: httpClient,
		registry:   registry,
		logger:     logger,
		metrics:    metrics,
	}
}

// Registry exposes the prefix routes.
func (a *Adapter) Registry() *Registry {
	return a.registry
}

// ProviderFor returns the provider name modelID routes to.
func (a *Adapter) ProviderFor(modelID string) string {
	return a.registry.Resolve(modelID).Name()
}

// CallModel performs exactly one HTTP round trip. A successful response
// with no text yields "" and a nil error; deciding whether that is a
// failure is up to the caller.
func (a *Adapter) CallModel(ctx context.Context, credentials, modelID, prompt string) (string, error) {
	p := a.registry.Resolve(modelID)
	provider := p.Name()

	req, err := p.BuildRequest(ctx, credentials, modelID, prompt)
	if err != nil {
		return "", fmt.Errorf("%s: build request: %w", provider, err)
	}

	start := time.Now()
	a.logger.Debug("Calling %s model %s (key %s)", provider, modelID, util.MaskSecret(credentials))

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: request failed: %w", provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	a.metrics.RecordUpstreamStatus(provider, resp.StatusCode)
	a.logger.Debug("%s responded %d in %v", provider, resp.StatusCode, time.Since(start))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, core.MaxResponseBodySize))
		return "", &HTTPError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Body:       util.TruncateChars(string(body), core.MaxErrorBodyChars),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, core.MaxResponseBodySize))
	if err != nil {
		return "", fmt.Errorf("%s: read response: %w", provider, err)
	}

	answer, err := p.ExtractAnswer(body)
	if err != nil {
		return "", fmt.Errorf("%s: decode response: %w", provider, err)
	}

	return strings.TrimSpace(answer), nil
}
