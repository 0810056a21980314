package core

// OpenAI-compatible endpoint constants
const (
	OpenAIBaseURL             = "https://api.openai.com"
	OpenAIChatCompletionsPath = "/v1/chat/completions"
	OpenAITemperature         = 0.7
)

// Gemini endpoint constants
const (
	GeminiBaseURL        = "https://generativelanguage.googleapis.com"
	GeminiModelsPath     = "/v1beta/models/"
	GeminiGenerateAction = ":generateContent"
	GeminiKeyQueryParam  = "key"
	GeminiModelPrefix    = "gemini"
)

// DefaultSystemPrompt is always sent as the first message to OpenAI-compatible models.
const DefaultSystemPrompt = "Você é um assistente útil e conciso. Responda em português do Brasil quando o usuário falar em PT-BR."
