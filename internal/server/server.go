package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"minichatbot/internal/ask"
	"minichatbot/internal/config"
	"minichatbot/internal/core"
	"minichatbot/internal/metrics"
	"minichatbot/internal/model"

	"github.com/gin-gonic/gin"
)

// Server application server
type Server struct {
	port    string
	ginMode string

	httpClient *http.Client
	router     *gin.Engine

	adapter        *model.Adapter
	askService     *ask.Service
	metricsService *metrics.MetricsService
	prom           *metrics.Prometheus

	validClientKeys map[string]bool
	modelsData      core.ModelList
	defaultModel    string

	config config.ServerConfig

	rateLimiter *rateLimiter

	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

// NewServer creates a new server instance
func NewServer(cfg config.ServerConfig) (*Server, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required in ServerConfig")
	}
	if cfg.Storage == nil {
		return nil, fmt.Errorf("storage is required in ServerConfig")
	}

	httpClient := createOptimizedHTTPClient(cfg.HTTPClientSettings)

	prom := metrics.NewPrometheus(core.MetricsNamespace)
	metricsService := metrics.NewMetricsService(metrics.MetricsConfig{
		SaveInterval: core.MinSaveInterval,
		HistorySize:  core.HistoryBufferSize,
		Storage:      cfg.Storage,
		Logger:       cfg.Logger,
		Prometheus:   prom,
	})

	if err := metricsService.LoadStats(); err != nil {
		cfg.Logger.Warn("Failed to load historical stats: %v", err)
	}

	adapter := model.NewAdapter(model.Config{
		HTTPClient:    httpClient,
		OpenAIBaseURL: cfg.OpenAIBaseURL,
		GeminiBaseURL: cfg.GeminiBaseURL,
		SystemPrompt:  cfg.SystemPrompt,
		Logger:        cfg.Logger,
		Metrics:       metricsService,
	})

	defaultModel := cfg.DefaultModel
	modelsData, modelsConfig, err := config.LoadModels(cfg.ModelsConfigPath, adapter.ProviderFor, cfg.Logger)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			_ = metricsService.Close()
			return nil, fmt.Errorf("failed to load models config: %w", err)
		}
		cfg.Logger.Warn("Models file %s not found, only the default model is listed", cfg.ModelsConfigPath)
	}
	if modelsConfig.Default != "" && (defaultModel == "" || defaultModel == core.DefaultModel) {
		defaultModel = modelsConfig.Default
	}
	if defaultModel == "" {
		defaultModel = core.DefaultModel
	}
	if config.GetModelItem(modelsData, defaultModel) == nil {
		modelsData.Data = append(modelsData.Data, core.ModelInfo{
			ID:       defaultModel,
			Object:   core.ModelObjectType,
			Provider: adapter.ProviderFor(defaultModel),
		})
	}

	askService, err := ask.NewService(ask.Config{
		Caller:       adapter,
		Store:        cfg.Storage,
		Metrics:      metricsService,
		Logger:       cfg.Logger,
		DefaultModel: defaultModel,
	})
	if err != nil {
		_ = metricsService.Close()
		return nil, err
	}

	validClientKeys := make(map[string]bool)
	for _, key := range cfg.ClientAPIKeys {
		validClientKeys[key] = true
	}

	if len(validClientKeys) == 0 {
		cfg.Logger.Warn("No client API keys configured, /api routes are unauthenticated")
	}

	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = core.DefaultRateLimit
	}

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	server := &Server{
		port:            cfg.Port,
		ginMode:         cfg.GinMode,
		httpClient:      httpClient,
		adapter:         adapter,
		askService:      askService,
		metricsService:  metricsService,
		prom:            prom,
		validClientKeys: validClientKeys,
		modelsData:      modelsData,
		defaultModel:    defaultModel,
		config:          cfg,
		rateLimiter:     newRateLimiter(rateLimit),
		shutdownCtx:     shutdownCtx,
		shutdownCancel:  shutdownCancel,
	}

	server.setupRoutes()

	cfg.Logger.Info("Server initialized with %d models, default %s", len(modelsData.Data), defaultModel)
	return server, nil
}

func createOptimizedHTTPClient(settings config.HTTPClientSettings) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          settings.MaxIdleConns,
		MaxIdleConnsPerHost:   settings.MaxIdleConnsPerHost,
		MaxConnsPerHost:       settings.MaxConnsPerHost,
		IdleConnTimeout:       settings.IdleConnTimeout,
		TLSHandshakeTimeout:   settings.TLSHandshakeTimeout,
		ExpectContinueTimeout: core.HTTPExpectContinueTimeout,
		ForceAttemptHTTP2:     true,
	}
	// A zero request timeout means the call may block until the provider answers.
	if settings.RequestTimeout > 0 {
		transport.ResponseHeaderTimeout = min(core.HTTPResponseHeaderTimeout, settings.RequestTimeout)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   settings.RequestTimeout,
	}
}

// Handler exposes the router, mainly for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run runs the server
func (s *Server) Run() error {
	s.setupGracefulShutdown()

	writeTimeout := s.config.HTTPClientSettings.RequestTimeout
	if writeTimeout > 0 {
		writeTimeout += 30 * time.Second
	}

	srv := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout, // must outlive the provider call
	}

	go func() {
		<-s.shutdownCtx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			s.config.Logger.Error("Server shutdown error: %v", err)
		}
	}()

	s.config.Logger.Info("Server starting on port %s", s.port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (s *Server) setupGracefulShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-quit:
			s.config.Logger.Info("Shutdown signal received, shutting down gracefully...")
			s.shutdownCancel()
		case <-s.shutdownCtx.Done():
		}
		signal.Stop(quit)
	}()
}

// Close closes the server
func (s *Server) Close() error {
	if s.shutdownCancel != nil {
		s.shutdownCancel()
	}

	var closeErr error

	if s.rateLimiter != nil {
		s.rateLimiter.stop()
	}

	if s.metricsService != nil {
		if err := s.metricsService.Close(); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close metrics service: %w", err))
		}
	}

	if s.httpClient != nil {
		s.httpClient.CloseIdleConnections()
	}

	return closeErr
}
