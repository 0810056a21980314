package core

import "time"

// AskOutcome classifies how an ask request ended.
type AskOutcome string

// Ask outcomes, used as a metrics label.
const (
	OutcomeSuccess    AskOutcome = "success"
	OutcomeValidation AskOutcome = "validation_error"
	OutcomeUpstream   AskOutcome = "upstream_error"
	OutcomeEmpty      AskOutcome = "empty_answer"
	OutcomeFailure    AskOutcome = "failure"
)

// Settings holds the per-session preferences the front-end used to keep in local storage.
type Settings struct {
	APIKey string `json:"api_key,omitempty"`
	Model  string `json:"model,omitempty"`
	Theme  string `json:"theme,omitempty"`
}

// Clone returns a copy of the settings, or nil.
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// IsLightTheme reports whether the light theme is selected.
func (s *Settings) IsLightTheme() bool {
	return s != nil && s.Theme == ThemeLight
}

// RequestStats holds aggregated request statistics for monitoring.
type RequestStats struct {
	TotalRequests      int64           `json:"total_requests"`
	SuccessfulRequests int64           `json:"successful_requests"`
	FailedRequests     int64           `json:"failed_requests"`
	TotalResponseTime  int64           `json:"total_response_time"`
	LastRequestTime    time.Time       `json:"last_request_time"`
	RequestHistory     []RequestRecord `json:"request_history"`
}

// RequestRecord represents a single request's metadata for history tracking.
type RequestRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Success      bool      `json:"success"`
	ResponseTime int64     `json:"response_time"`
	Model        string    `json:"model"`
	Provider     string    `json:"provider"`
}

// PeriodStats holds computed statistics for a time period.
type PeriodStats struct {
	Requests        int64   `json:"requests"`
	SuccessRate     float64 `json:"successRate"`
	AvgResponseTime int64   `json:"avgResponseTime"`
	QPS             float64 `json:"qps"`
}

// ModelInfo represents a single model entry in the models list.
type ModelInfo struct {
	ID       string `json:"id"`
	Object   string `json:"object"`
	Provider string `json:"provider"`
	Name     string `json:"name,omitempty"`
}

// ModelList is the model list response.
type ModelList struct {
	Object string      `json:"object"`
	Data   []ModelInfo `json:"data"`
}

// ModelsConfig holds the model id to display name mapping from models.json.
type ModelsConfig struct {
	Default string            `json:"default,omitempty"`
	Models  map[string]string `json:"models"`
}
