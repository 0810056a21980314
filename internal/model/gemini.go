package model

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"minichatbot/internal/core"
	"minichatbot/internal/util"
)

// GeminiProtocol speaks the Gemini generateContent API.
type GeminiProtocol struct {
	BaseURL string
}

// NewGeminiProtocol returns the protocol, defaulting to the public endpoint.
func NewGeminiProtocol(baseURL string) *GeminiProtocol {
	if baseURL == "" {
		baseURL = core.GeminiBaseURL
	}
	return &GeminiProtocol{BaseURL: baseURL}
}

func (p *GeminiProtocol) Name() string {
	return core.ProviderGemini
}

// Endpoint returns the generateContent URL for modelID. The key goes in the
// query string, not in a header.
func (p *GeminiProtocol) Endpoint(modelID, credentials string) string {
	return strings.TrimRight(p.BaseURL, "/") +
		core.GeminiModelsPath + url.PathEscape(modelID) + core.GeminiGenerateAction +
		"?" + core.GeminiKeyQueryParam + "=" + url.QueryEscape(credentials)
}

// BuildRequest nests the prompt at contents[0].parts[0].text.
func (p *GeminiProtocol) BuildRequest(ctx context.Context, credentials, modelID, prompt string) (*http.Request, error) {
	payload := core.GeminiGenerateContentRequest{
		Contents: []core.GeminiContent{{
			Role:  core.RoleUser,
			Parts: []core.GeminiPart{{Text: prompt}},
		}},
	}
	return util.CreateJSONRequest(ctx, http.MethodPost, p.Endpoint(modelID, credentials), payload, "")
}

// ExtractAnswer reads candidates[0].content.parts[0].text.
func (p *GeminiProtocol) ExtractAnswer(body []byte) (string, error) {
	doc, err := decodeDocument(body)
	if err != nil {
		return "", err
	}
	return lookupText(doc, "candidates", 0, "content", "parts", 0, "text"), nil
}
