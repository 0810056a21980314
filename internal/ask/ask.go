// Package ask implements the caller side of a model call: input validation,
// settings fallback, the empty-answer policy and per-session state.
package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"minichatbot/internal/core"
	"minichatbot/internal/util"
)

// ErrEmptyAnswer is returned when the provider answered with no text.
var ErrEmptyAnswer = errors.New("the model returned an empty response")

// ValidationError reports input rejected before any provider is contacted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ModelCaller is the adapter surface the service depends on.
type ModelCaller interface {
	CallModel(ctx context.Context, credentials, modelID, prompt string) (string, error)
	ProviderFor(modelID string) string
}

// Input is one question from a session. Empty APIKey or Model fall back to
// the session's saved settings.
type Input struct {
	SessionID string `json:"-"`
	APIKey    string `json:"api_key"`
	Model     string `json:"model"`
	Question  string `json:"question"`
}

// Result is a successful answer.
type Result struct {
	SessionID  string `json:"session_id"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Model      string `json:"model"`
	Provider   string `json:"provider"`
	DurationMs int64  `json:"duration_ms"`
}

// SettingsPatch updates only the non-nil fields.
type SettingsPatch struct {
	APIKey *string `json:"api_key"`
	Model  *string `json:"model"`
	Theme  *string `json:"theme"`
}

// Config wires a Service.
type Config struct {
	Caller       ModelCaller
	Store        core.StorageInterface
	Metrics      core.MetricsCollector
	Logger       core.Logger
	DefaultModel string
}

// Service answers questions and keeps per-session settings.
type Service struct {
	caller       ModelCaller
	store        core.StorageInterface
	metrics      core.MetricsCollector
	logger       core.Logger
	defaultModel string
}

// NewService creates a Service. Caller and Store are required.
func NewService(cfg Config) (*Service, error) {
	if cfg.Caller == nil {
		return nil, errors.New("ask: model caller is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("ask: store is required")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &core.NopMetrics{}
	}
	if cfg.Logger == nil {
		cfg.Logger = &core.NopLogger{}
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = core.DefaultModel
	}
	return &Service{
		caller:       cfg.Caller,
		store:        cfg.Store,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		defaultModel: cfg.DefaultModel,
	}, nil
}

// Ask validates the input, persists the settings used and calls the model
// once. An empty answer is reported as ErrEmptyAnswer.
func (s *Service) Ask(ctx context.Context, in Input) (*Result, error) {
	start := time.Now()
	outcome := core.OutcomeFailure
	var provider, modelID string
	defer func() {
		s.metrics.RecordAsk(outcome, provider, modelID, time.Since(start))
	}()

	question := strings.TrimSpace(in.Question)
	apiKey := strings.TrimSpace(in.APIKey)
	modelID = strings.TrimSpace(in.Model)

	if strings.TrimSpace(in.SessionID) == "" {
		outcome = core.OutcomeValidation
		return nil, &ValidationError{Reason: "missing session id"}
	}

	saved, err := s.store.LoadSettings(ctx, in.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if apiKey == "" {
		apiKey = saved.APIKey
	}
	if apiKey == "" {
		outcome = core.OutcomeValidation
		return nil, &ValidationError{Reason: "missing API key"}
	}
	if question == "" {
		outcome = core.OutcomeValidation
		return nil, &ValidationError{Reason: "empty question"}
	}
	if modelID == "" {
		modelID = saved.Model
	}
	if modelID == "" {
		modelID = s.defaultModel
	}
	provider = s.caller.ProviderFor(modelID)

	_, err = s.store.UpdateSettings(ctx, in.SessionID, func(settings *core.Settings) error {
		settings.APIKey = apiKey
		settings.Model = modelID
		return nil
	})
	if err != nil {
		s.logger.Warn("Failed to save settings for session %s: %v", in.SessionID, err)
	}

	s.logger.Debug("Session %s asking %s (%s), %d chars", in.SessionID, modelID, provider, len(question))

	answer, err := s.caller.CallModel(ctx, apiKey, modelID, question)
	if err != nil {
		outcome = core.OutcomeUpstream
		s.logger.Warn("Model call failed for %s: %v", modelID, err)
		return nil, err
	}
	if answer == "" {
		outcome = core.OutcomeEmpty
		return nil, ErrEmptyAnswer
	}

	if err := s.store.SaveLastAnswer(ctx, in.SessionID, answer); err != nil {
		s.logger.Warn("Failed to remember answer for session %s: %v", in.SessionID, err)
	}

	outcome = core.OutcomeSuccess
	return &Result{
		SessionID:  in.SessionID,
		Question:   question,
		Answer:     answer,
		Model:      modelID,
		Provider:   provider,
		DurationMs: time.Since(start).Milliseconds(),
	}, nil
}

// LastAnswer returns the session's most recent answer, or "".
func (s *Service) LastAnswer(ctx context.Context, sessionID string) (string, error) {
	return s.store.LoadLastAnswer(ctx, sessionID)
}

// Clear forgets the session's last answer.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	return s.store.DeleteLastAnswer(ctx, sessionID)
}

// Settings returns the session's saved settings with the model defaulted.
func (s *Service) Settings(ctx context.Context, sessionID string) (*core.Settings, error) {
	settings, err := s.store.LoadSettings(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.withDefaults(settings), nil
}

func (s *Service) withDefaults(settings *core.Settings) *core.Settings {
	if settings.Model == "" {
		settings.Model = s.defaultModel
	}
	if settings.Theme == "" {
		settings.Theme = core.ThemeDark
	}
	return settings
}

// UpdateSettings applies patch and returns the stored result.
func (s *Service) UpdateSettings(ctx context.Context, sessionID string, patch SettingsPatch) (*core.Settings, error) {
	var theme string
	if patch.Theme != nil {
		theme = strings.ToLower(strings.TrimSpace(*patch.Theme))
		if theme != core.ThemeLight && theme != core.ThemeDark {
			return nil, &ValidationError{Reason: fmt.Sprintf("unknown theme %q", *patch.Theme)}
		}
	}

	settings, err := s.store.UpdateSettings(ctx, sessionID, func(settings *core.Settings) error {
		if patch.APIKey != nil {
			settings.APIKey = strings.TrimSpace(*patch.APIKey)
		}
		if patch.Model != nil {
			settings.Model = strings.TrimSpace(*patch.Model)
		}
		if patch.Theme != nil {
			settings.Theme = theme
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Session %s settings updated (key %s, model %q, theme %q)",
		sessionID, util.MaskSecret(settings.APIKey), settings.Model, settings.Theme)
	return s.withDefaults(settings), nil
}

// ToggleTheme flips between light and dark and returns the new theme.
func (s *Service) ToggleTheme(ctx context.Context, sessionID string) (string, error) {
	settings, err := s.store.UpdateSettings(ctx, sessionID, func(settings *core.Settings) error {
		if settings.IsLightTheme() {
			settings.Theme = core.ThemeDark
		} else {
			settings.Theme = core.ThemeLight
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return settings.Theme, nil
}
