package server

import (
	"fmt"
	"net/http"
	"time"

	"minichatbot/internal/ask"
	"minichatbot/internal/core"
	"minichatbot/internal/metrics"

	"github.com/gin-gonic/gin"
)

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (s *Server) getStatsData(c *gin.Context) {
	stats := s.metricsService.GetRequestStats()
	periodStats := metrics.GetPeriodStats(stats.RequestHistory, 24, 24*7, 24*30)
	currentQPS := s.metricsService.GetQPS()

	var avgResponseTime int64
	if stats.TotalRequests > 0 {
		avgResponseTime = stats.TotalResponseTime / stats.TotalRequests
	}

	c.JSON(http.StatusOK, gin.H{
		"currentTime":        time.Now().Format(core.TimeFormatDateTime),
		"currentQPS":         fmt.Sprintf("%.3f", currentQPS),
		"totalRequests":      stats.TotalRequests,
		"successfulRequests": stats.SuccessfulRequests,
		"failedRequests":     stats.FailedRequests,
		"avgResponseTime":    avgResponseTime,
		"totalRecords":       len(stats.RequestHistory),
		"stats24h":           periodStats[24],
		"stats7d":            periodStats[24*7],
		"stats30d":           periodStats[24*30],
		"providers":          metrics.ProviderCounts(stats.RequestHistory),
	})
}

func (s *Server) listModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"object":    s.modelsData.Object,
		"data":      s.modelsData.Data,
		"default":   s.defaultModel,
		"providers": s.adapter.Registry().Providers(),
	})
}

func (s *Server) askQuestion(c *gin.Context) {
	var input ask.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		s.metricsService.RecordAsk(core.OutcomeValidation, "", "", 0)
		respondWithError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	input.SessionID = sessionID(c)

	result, err := s.askService.Ask(c.Request.Context(), input)
	if err != nil {
		if !ask.IsValidation(err) {
			s.config.Logger.Warn("Ask failed [request %s, session %s]: %v", requestID(c), input.SessionID, err)
		}
		respondWithAskError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) getLastAnswer(c *gin.Context) {
	answer, err := s.askService.LastAnswer(c.Request.Context(), sessionID(c))
	if err != nil {
		s.config.Logger.Error("Failed to load last answer: %v", err)
		respondWithError(c, http.StatusInternalServerError, "internal server error")
		return
	}
	if answer == "" {
		respondWithError(c, http.StatusNotFound, "no answer yet")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID(c), "answer": answer})
}

func (s *Server) clearAnswer(c *gin.Context) {
	if err := s.askService.Clear(c.Request.Context(), sessionID(c)); err != nil {
		s.config.Logger.Error("Failed to clear answer: %v", err)
		respondWithError(c, http.StatusInternalServerError, "internal server error")
		return
	}
	c.Status(http.StatusNoContent)
}

// settingsView never echoes the stored key back in full.
func settingsView(session string, settings *core.Settings) gin.H {
	return gin.H{
		"session_id":  session,
		"model":       settings.Model,
		"theme":       settings.Theme,
		"has_api_key": settings.APIKey != "",
	}
}

func (s *Server) getSettings(c *gin.Context) {
	settings, err := s.askService.Settings(c.Request.Context(), sessionID(c))
	if err != nil {
		s.config.Logger.Error("Failed to load settings: %v", err)
		respondWithError(c, http.StatusInternalServerError, "internal server error")
		return
	}
	c.JSON(http.StatusOK, settingsView(sessionID(c), settings))
}

func (s *Server) updateSettings(c *gin.Context) {
	var patch ask.SettingsPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondWithError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	settings, err := s.askService.UpdateSettings(c.Request.Context(), sessionID(c), patch)
	if err != nil {
		if ask.IsValidation(err) {
			respondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		s.config.Logger.Error("Failed to update settings: %v", err)
		respondWithError(c, http.StatusInternalServerError, "internal server error")
		return
	}
	c.JSON(http.StatusOK, settingsView(sessionID(c), settings))
}

func (s *Server) toggleTheme(c *gin.Context) {
	theme, err := s.askService.ToggleTheme(c.Request.Context(), sessionID(c))
	if err != nil {
		s.config.Logger.Error("Failed to toggle theme: %v", err)
		respondWithError(c, http.StatusInternalServerError, "internal server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID(c), "theme": theme})
}
