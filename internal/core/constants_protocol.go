package core

// Default config constants
const (
	DefaultPort             = "7860"
	DefaultGinMode          = "release"
	DefaultModelsConfigPath = "models.json"
	DefaultModel            = "gpt-4o-mini"
	CORSMaxAge              = "86400"
)

// Content type and header constants
const (
	ContentTypeJSON     = "application/json"
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderXAPIKey       = "x-api-key"
	HeaderSessionID     = "X-Session-ID"
	HeaderRequestID     = "X-Request-ID"
	AuthBearerPrefix    = "Bearer "
)

// Role constants
const (
	RoleAssistant = "assistant"
	RoleUser      = "user"
	RoleSystem    = "system"
)

// Provider identifiers
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Theme constants
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Model list constants
const (
	ModelObjectType     = "model"
	ModelListObjectType = "list"
)
