package server

import (
	"errors"
	"net/http"

	"minichatbot/internal/ask"
	"minichatbot/internal/model"

	"github.com/gin-gonic/gin"
)

// respondWithError returns {"error": message}
func respondWithError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

// respondWithAskError maps an ask failure to a status code. Upstream HTTP
// errors carry the provider's status and truncated body.
func respondWithAskError(c *gin.Context, err error) {
	var httpErr *model.HTTPError
	switch {
	case ask.IsValidation(err):
		respondWithError(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &httpErr):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":    httpErr.Error(),
			"provider": httpErr.Provider,
			"status":   httpErr.StatusCode,
			"body":     httpErr.Body,
		})
	case errors.Is(err, ask.ErrEmptyAnswer):
		respondWithError(c, http.StatusBadGateway, err.Error())
	default:
		respondWithError(c, http.StatusInternalServerError, "internal server error")
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(ctxKeySessionID)
}

func requestID(c *gin.Context) string {
	return c.GetString(ctxKeyRequestID)
}
