package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"minichatbot/internal/core"

	"github.com/gin-gonic/gin"
)

func newTestServerForMiddleware(clientKeys []string) *Server {
	gin.SetMode(gin.TestMode)
	keyMap := make(map[string]bool)
	for _, k := range clientKeys {
		keyMap[k] = true
	}
	return &Server{
		validClientKeys: keyMap,
	}
}

func TestAuthenticateClient_ValidBearerToken(t *testing.T) {
	s := newTestServerForMiddleware([]string{"test-key-1", "test-key-2"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/ask", nil)
	c.Request.Header.Set("Authorization", "Bearer test-key-1")
	s.authenticateClient(c)
	if w.Code != http.StatusOK {
		t.Errorf("valid bearer token should pass, got status %d", w.Code)
	}
	if c.IsAborted() {
		t.Error("valid bearer token should not abort")
	}
}

func TestAuthenticateClient_ValidXAPIKey(t *testing.T) {
	s := newTestServerForMiddleware([]string{"test-key-1"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/ask", nil)
	c.Request.Header.Set("x-api-key", "test-key-1")
	s.authenticateClient(c)
	if c.IsAborted() {
		t.Error("valid x-api-key should not abort")
	}
}

func TestAuthenticateClient_InvalidKey(t *testing.T) {
	s := newTestServerForMiddleware([]string{"valid-key"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/ask", nil)
	c.Request.Header.Set("Authorization", "Bearer wrong-key")
	s.authenticateClient(c)
	if w.Code != http.StatusForbidden {
		t.Errorf("invalid key should return 403, got %d", w.Code)
	}
	if !c.IsAborted() {
		t.Error("invalid key should abort")
	}
}

func TestAuthenticateClient_MissingKey(t *testing.T) {
	s := newTestServerForMiddleware([]string{"valid-key"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/ask", nil)
	s.authenticateClient(c)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing key should return 401, got %d", w.Code)
	}
	if !c.IsAborted() {
		t.Error("missing key should abort")
	}
}

func TestAuthenticateClient_NoKeysConfiguredIsOpen(t *testing.T) {
	s := newTestServerForMiddleware(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/ask", nil)
	s.authenticateClient(c)
	if c.IsAborted() {
		t.Error("with no keys configured the API should be open")
	}
}

func TestAuthenticateClient_XAPIKeyTakesPrecedence(t *testing.T) {
	s := newTestServerForMiddleware([]string{"valid-key"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/ask", nil)
	c.Request.Header.Set("x-api-key", "invalid-key")
	c.Request.Header.Set("Authorization", "Bearer valid-key")
	s.authenticateClient(c)
	if w.Code != http.StatusForbidden {
		t.Errorf("invalid x-api-key should return 403 even with valid Bearer, got %d", w.Code)
	}
}

func TestCorsMiddleware_SetsHeaders(t *testing.T) {
	s := newTestServerForMiddleware(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	s.corsMiddleware()(c)
	if origin := w.Header().Get("Access-Control-Allow-Origin"); origin != "*" {
		t.Errorf("expected Access-Control-Allow-Origin '*', got '%s'", origin)
	}
}

func TestCorsMiddleware_OptionsRequest(t *testing.T) {
	s := newTestServerForMiddleware(nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodOptions, "/api/ask", nil)
	s.corsMiddleware()(c)
	if w.Code != http.StatusNoContent {
		t.Errorf("OPTIONS should return 204, got %d", w.Code)
	}
	if !c.IsAborted() {
		t.Error("OPTIONS should abort (skip handler)")
	}
}

func TestSessionMiddleware(t *testing.T) {
	s := newTestServerForMiddleware(nil)

	t.Run("mints a session id", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/settings", nil)
		s.sessionMiddleware(c)
		id := sessionID(c)
		if id == "" {
			t.Fatal("expected a session id")
		}
		if w.Header().Get(core.HeaderSessionID) != id {
			t.Errorf("session id should be echoed, got %q", w.Header().Get(core.HeaderSessionID))
		}
	})

	t.Run("keeps a valid id", func(t *testing.T) {
		const given = "0b7c8a3e-5c1f-4c55-9a43-3f2d3c4b9e10"
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/settings", nil)
		c.Request.Header.Set(core.HeaderSessionID, given)
		s.sessionMiddleware(c)
		if sessionID(c) != given {
			t.Errorf("expected %s, got %s", given, sessionID(c))
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/api/settings", nil)
		c.Request.Header.Set(core.HeaderSessionID, "../../etc/passwd")
		s.sessionMiddleware(c)
		if w.Code != http.StatusBadRequest || !c.IsAborted() {
			t.Errorf("expected aborted 400, got %d", w.Code)
		}
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	s := newTestServerForMiddleware(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)
	s.requestIDMiddleware()(c)
	if requestID(c) == "" || w.Header().Get(core.HeaderRequestID) != requestID(c) {
		t.Errorf("expected minted and echoed request id, got %q", w.Header().Get(core.HeaderRequestID))
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)
	c.Request.Header.Set(core.HeaderRequestID, "abc123")
	s.requestIDMiddleware()(c)
	if requestID(c) != "abc123" {
		t.Errorf("expected propagated request id, got %q", requestID(c))
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2)
	defer rl.stop()

	if !rl.allow("1.2.3.4") || !rl.allow("1.2.3.4") {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("1.2.3.4") {
		t.Error("third request within a minute should be limited")
	}
	if !rl.allow("5.6.7.8") {
		t.Error("limits are per IP")
	}
	rl.stop()
}
