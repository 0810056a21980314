package util

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"minichatbot/internal/core"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

// MarshalJSON wraps Sonic for performance
func MarshalJSON(v any) ([]byte, error) {
	return sonic.Marshal(v)
}

// UnmarshalJSON wraps Sonic for performance
func UnmarshalJSON(data []byte, v any) error {
	return sonic.Unmarshal(data, v)
}

// NewSessionID returns a fresh random session identifier
func NewSessionID() string {
	return uuid.NewString()
}

// IsValidSessionID reports whether id looks like a session identifier we issued
func IsValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// CreateJSONRequest creates an outbound POST-style request with a JSON body.
// bearer is sent as "Authorization: Bearer <bearer>" when non-empty.
func CreateJSONRequest(ctx context.Context, method, url string, payload any, bearer string) (*http.Request, error) {
	var body io.Reader

	if payload != nil {
		payloadBytes, err := MarshalJSON(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(payloadBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set(core.HeaderContentType, core.ContentTypeJSON)
	if bearer != "" {
		req.Header.Set(core.HeaderAuthorization, core.AuthBearerPrefix+bearer)
	}

	return req, nil
}

// TruncateString keeps prefixLen leading and suffixLen trailing characters
// and puts replacement between them. Runes are never split.
func TruncateString(s string, prefixLen, suffixLen int, replacement string) string {
	runes := []rune(s)
	if len(runes) > prefixLen+suffixLen {
		return string(runes[:prefixLen]) + replacement + string(runes[len(runes)-suffixLen:])
	}
	return s
}

// TruncateChars keeps at most maxChars characters of s, never splitting a rune
func TruncateChars(s string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	count := 0
	for i := range s {
		if count == maxChars {
			return s[:i]
		}
		count++
	}
	return s
}

// MaskSecret hides all but the edges of a credential for logging
func MaskSecret(secret string) string {
	if secret == "" {
		return "<empty>"
	}
	if utf8.RuneCountInString(secret) <= 8 {
		return "***"
	}
	return TruncateString(secret, 3, 4, "***")
}

// ParseEnvList parses comma-separated env var to trimmed slice
func ParseEnvList(envVar string) []string {
	if envVar == "" {
		return nil
	}
	parts := strings.Split(envVar, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// GetEnvWithDefault gets env var with default value
func GetEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets a positive integer env var, falling back to defaultValue when unset or invalid
func GetEnvInt(key string, defaultValue int) (int, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, true
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		return defaultValue, false
	}
	return v, true
}

// GetEnvDuration gets a duration env var ("30s", "5m", "0"), falling back when unset or invalid
func GetEnvDuration(key string, defaultValue time.Duration) (time.Duration, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, true
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d < 0 {
		return defaultValue, false
	}
	return d, true
}
