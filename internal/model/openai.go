package model

import (
	"context"
	"net/http"
	"strings"

	"minichatbot/internal/core"
	"minichatbot/internal/util"
)

// OpenAIProtocol speaks the OpenAI-compatible chat completions API.
type OpenAIProtocol struct {
	BaseURL      string
	SystemPrompt string
	Temperature  float64
}

// NewOpenAIProtocol returns the protocol with the default base URL, system prompt and temperature
// wherever the arguments are empty.
func NewOpenAIProtocol(baseURL, systemPrompt string) *OpenAIProtocol {
	if baseURL == "" {
		baseURL = core.OpenAIBaseURL
	}
	if systemPrompt == "" {
		systemPrompt = core.DefaultSystemPrompt
	}
	return &OpenAIProtocol{
		BaseURL:      baseURL,
		SystemPrompt: systemPrompt,
		Temperature:  core.OpenAITemperature,
	}
}

func (p *OpenAIProtocol) Name() string {
	return core.ProviderOpenAI
}

// Endpoint returns the chat completions URL.
func (p *OpenAIProtocol) Endpoint() string {
	return strings.TrimRight(p.BaseURL, "/") + core.OpenAIChatCompletionsPath
}

// BuildRequest sends the system instruction first and the prompt last.
// Credentials travel as a bearer token.
func (p *OpenAIProtocol) BuildRequest(ctx context.Context, credentials, modelID, prompt string) (*http.Request, error) {
	payload := core.ChatCompletionRequest{
		Model: modelID,
		Messages: []core.ChatMessage{
			{Role: core.RoleSystem, Content: p.SystemPrompt},
			{Role: core.RoleUser, Content: prompt},
		},
		Temperature: p.Temperature,
	}

	req, err := util.CreateJSONRequest(ctx, http.MethodPost, p.Endpoint(), payload, "")
	if err != nil {
		return nil, err
	}
	req.Header.Set(core.HeaderAuthorization, core.AuthBearerPrefix+credentials)
	return req, nil
}

// ExtractAnswer reads choices[0].message.content.
func (p *OpenAIProtocol) ExtractAnswer(body []byte) (string, error) {
	doc, err := decodeDocument(body)
	if err != nil {
		return "", err
	}
	return lookupText(doc, "choices", 0, "message", "content"), nil
}
