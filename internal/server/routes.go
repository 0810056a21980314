package server

import (
	"github.com/gin-gonic/gin"
)

func (s *Server) setupRoutes() {
	gin.SetMode(s.ginMode)
	s.router = gin.New()

	s.router.Use(gin.Logger())
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestIDMiddleware())
	s.router.Use(s.metricsMiddleware())
	s.router.Use(s.corsMiddleware())
	s.router.Use(s.maxBodySizeMiddleware())
	s.router.Use(s.rateLimitMiddleware())

	// Public routes (no auth)
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(s.prom.Handler()))
	s.router.GET("/api/stats", s.getStatsData)

	// API routes (auth required)
	api := s.router.Group("/api")
	api.Use(s.authenticateClient)
	{
		api.GET("/models", s.listModels)

		session := api.Group("")
		session.Use(s.sessionMiddleware)
		session.POST("/ask", s.askQuestion)
		session.GET("/answer", s.getLastAnswer)
		session.DELETE("/answer", s.clearAnswer)
		session.GET("/settings", s.getSettings)
		session.PUT("/settings", s.updateSettings)
		session.POST("/settings/theme", s.toggleTheme)
	}
}
