// Package http provides the HTTP adapter for the application layer.
// Handlers translate requests into application service calls and map
// service errors onto status codes.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/priyamtech/expense-approval/internal/application/service"
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
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config              ServerConfig
	httpServer          *http.Server
	router              *gin.Engine
	admissionService    service.AdmissionService
	approvalService     service.ApprovalService
	voucherService      service.VoucherService
	notificationService service.NotificationService
	logger              Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	admissionService service.AdmissionService,
	approvalService service.ApprovalService,
	voucherService service.VoucherService,
	notificationService service.NotificationService,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:              config,
		router:              gin.New(),
		admissionService:    admissionService,
		approvalService:     approvalService,
		voucherService:      voucherService,
		notificationService: notificationService,
		logger:              logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

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
		)
	}
}

func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.admissionService, s.approvalService, s.voucherService, s.notificationService, s.logger)

	s.router.GET("/health", handlers.HealthCheck)

	api := s.router.Group("/api")
	{
		api.POST("/claims", handlers.SubmitClaim)
		api.POST("/claims/self-declaration", handlers.SubmitSelfDeclaration)
		api.POST("/claims/trip", handlers.SubmitTrip)
		api.GET("/claims", handlers.ListMyClaims)
		api.GET("/claims/:id", handlers.GetClaim)
		api.PATCH("/claims/:id", handlers.UpdateClaim)
		api.DELETE("/claims/:id", handlers.DeleteClaim)
		api.GET("/claims/:id/history", handlers.GetHistory)
		api.GET("/claims/:id/audit", handlers.GetAuditTrail)
		api.POST("/claims/:id/approve", handlers.ApproveClaim)
		api.POST("/claims/:id/reject", handlers.RejectClaim)
		api.POST("/claims/:id/voucher", handlers.ExportVoucher)
		api.GET("/approvals/pending", handlers.ListPending)
		api.GET("/claimants/:employee_id", handlers.GetClaimant)
		api.GET("/notifications", handlers.ListNotifications)
	}
}

// Start starts the HTTP server and blocks until the context is
// cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
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
