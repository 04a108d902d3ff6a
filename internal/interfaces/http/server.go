// Package http provides HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/djishijima/hellbuild-v3/internal/application/port"
	"github.com/djishijima/hellbuild-v3/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// AllowedOrigins lists CORS origins. Empty allows every origin without credentials.
	AllowedOrigins []string

	// JWTSecret enables bearer-token identity. When empty the X-User-ID header is trusted.
	JWTSecret string

	// MaxUploadBytes bounds documents posted for field suggestion
	MaxUploadBytes int64
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxUploadBytes: 10 << 20,
	}
}

// HealthFunc reports component health for GET /health
type HealthFunc func(ctx context.Context) (healthy bool, details interface{})

// Dependencies are the services the HTTP layer calls into
type Dependencies struct {
	Approvals  service.ApprovalService
	References service.ReferenceService
	Enrichment service.EnrichmentService
	Export     service.ExportService

	// Realtime serves GET /ws. Nil disables the route.
	Realtime http.Handler
	// Limiter guards the enrichment routes. Nil disables limiting.
	Limiter port.RateLimiter
	// Health is optional
	Health HealthFunc
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	deps       Dependencies
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, deps Dependencies, logger Logger) *Server {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	server := &Server{
		config: config,
		router: router,
		deps:   deps,
		logger: logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(cors.New(corsConfig(s.config.AllowedOrigins)))
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", HeaderUserID}
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.ExposeHeaders = []string{"Content-Disposition"}
	return cfg
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"user_id", c.GetString(ctxKeyUserID),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := NewHandlers(s.deps, s.config.MaxUploadBytes, s.logger)
	identity := identityMiddleware([]byte(s.config.JWTSecret))

	s.router.GET("/health", h.HealthCheck)

	if s.deps.Realtime != nil {
		s.router.GET("/ws", identity, gin.WrapH(s.deps.Realtime))
	}

	api := s.router.Group("/api", identity)
	{
		api.GET("/application-codes", h.ListApplicationCodes)
		api.POST("/application-codes", h.CreateApplicationCode)

		api.GET("/recipients", h.ListRecipients)
		api.GET("/recipients/:id", h.GetRecipient)
		api.POST("/recipients", h.CreateRecipient)
		api.PUT("/recipients/:id", h.UpdateRecipient)
		api.DELETE("/recipients/:id", h.DeactivateRecipient)

		api.GET("/users", h.ListUsers)
		api.GET("/users/:id", h.GetUser)
		api.POST("/users", h.CreateUser)
		api.PUT("/users/:id", h.UpdateUser)
		api.DELETE("/users/:id", h.DeactivateUser)

		api.GET("/dashboard/stats", h.DashboardStats)

		api.GET("/approvals", h.ListApprovals)
		api.GET("/approvals/export", h.ExportApprovals)
		api.POST("/approvals", h.CreateApproval)
		api.GET("/approvals/:id", h.GetApproval)
		api.GET("/approvals/:id/history", h.GetApprovalHistory)
		api.POST("/approvals/:id/submit", h.SubmitApproval)
		api.POST("/approvals/:id/approve", h.ApproveApproval)
		api.POST("/approvals/:id/reject", h.RejectApproval)
		api.POST("/approvals/:id/return", h.ReturnApproval)
		api.POST("/approvals/:id/transition", h.TransitionApproval)

		enrichment := api.Group("/enrichment", rateLimitMiddleware(s.deps.Limiter, s.logger))
		enrichment.POST("/summarize", h.Summarize)
		enrichment.POST("/suggest", h.Suggest)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
