// Package api exposes the optimization pipeline and hosted interviews over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/care-router-mcp-server/internal/domain"
	"github.com/care-router-mcp-server/internal/interview"
	"github.com/care-router-mcp-server/internal/middleware"
	"github.com/care-router-mcp-server/internal/pipeline"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

const requestIDKey = "request_id"

// Dependencies are the components the HTTP surface drives
type Dependencies struct {
	Decision    domain.DecisionService
	Optimizer   *pipeline.Optimizer
	Interviewer *interview.Interviewer
	Sessions    *interview.Store
	Metrics     http.Handler
	Logger      *logrus.Logger
}

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	deps          Dependencies
	logger        *logrus.Logger
	router        *gin.Engine
	server        *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, deps Dependencies) *Server {
	cfg := configManager.GetConfig()

	// Set Gin mode based on environment
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := deps.Logger
	if logger == nil {
		logger = logrus.New()
	}

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))

	server := &Server{
		configManager: configManager,
		deps:          deps,
		logger:        logger,
		router:        router,
	}

	server.setupRoutes()

	return server
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	cfg := s.configManager.GetConfig()

	s.router.GET("/health", s.handleHealth)
	if cfg.Metrics.Enabled && s.deps.Metrics != nil {
		s.router.GET(cfg.Metrics.Path, gin.WrapH(s.deps.Metrics))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/route", s.handleRoute)
		v1.GET("/alternatives/:level", s.handleAlternatives)

		interviews := v1.Group("/interviews")
		interviews.POST("", s.handleCreateInterview)
		interviews.DELETE("/:id", s.handleDeleteInterview)

		interviews.POST("/:id/risk-factors", s.handleCollect(stepRiskFactors))
		interviews.POST("/:id/risk-factors/answers", s.handleRecord(stepRiskFactors))
		interviews.POST("/:id/related-symptoms", s.handleCollect(stepRelatedSymptoms))
		interviews.POST("/:id/related-symptoms/answers", s.handleRecord(stepRelatedSymptoms))
		interviews.POST("/:id/red-flags", s.handleCollect(stepRedFlags))
		interviews.POST("/:id/red-flags/answers", s.handleRecord(stepRedFlags))

		interviews.POST("/:id/questions/next", s.handleNextQuestion)
		interviews.POST("/:id/answers", s.handleAnswer)
		interviews.GET("/:id/progress", s.handleProgress)
		interviews.GET("/:id/results", s.handleResults)
		interviews.POST("/:id/route", s.handleInterviewRoute)
		interviews.GET("/:id/ws", s.handleWebSocket)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	cfg := s.configManager.GetConfig()
	sessions := 0
	if s.deps.Sessions != nil {
		sessions = s.deps.Sessions.Len()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   Version,
		"directory": cfg.Directory.Backend,
		"sessions":  sessions,
	})
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, X-Request-ID, X-Correlation-ID")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, X-Correlation-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestIDMiddleware adds a unique request ID to each request
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Set(requestIDKey, requestID)
		c.Next()
	}
}
