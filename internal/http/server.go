// Package http provides the HTTP API for reconciled.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/reconciled/internal/reconcile"
)

// Runner triggers reconciliation passes. *reconcile.Reconciler satisfies
// it.
type Runner interface {
	ReconcileReceipts(ctx context.Context, limit int) *reconcile.RunResult
}

// HealthChecker reports store connectivity for the health endpoint.
type HealthChecker interface {
	Connected() bool
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Server exposes the reconciliation pipeline over HTTP.
type Server struct {
	echo   *echo.Echo
	runner Runner
	health HealthChecker
	logger *zap.Logger
	config Config
}

// NewServer creates the HTTP server.
func NewServer(runner Runner, health HealthChecker, logger *zap.Logger, cfg Config) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 8750
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo:   e,
		runner: runner,
		health: health,
		logger: logger,
		config: cfg,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/reconcile", s.handleReconcile)
}

// ReconcileRequest is the request body for POST /api/v1/reconcile.
type ReconcileRequest struct {
	Limit int `json:"limit"`
}

func (s *Server) handleReconcile(c echo.Context) error {
	var req ReconcileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Limit < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must not be negative")
	}

	result := s.runner.ReconcileReceipts(c.Request().Context(), req.Limit)
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleHealth(c echo.Context) error {
	status := "ok"
	code := http.StatusOK
	if s.health != nil && !s.health.Connected() {
		status = "store unavailable"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]string{"status": status})
}

// Start runs the server until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("http server starting", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
