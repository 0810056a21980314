package core

// ChatMessage represents a single message in an OpenAI chat completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest is the OpenAI-compatible chat completion request payload.
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

// GeminiPart is one part of a Gemini content entry.
type GeminiPart struct {
	Text string `json:"text"`
}

// GeminiContent is a role-tagged list of parts.
type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

// GeminiGenerateContentRequest is the generateContent request payload.
type GeminiGenerateContentRequest struct {
	Contents []GeminiContent `json:"contents"`
}
