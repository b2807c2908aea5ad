package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/vexorbot/internal/domain"
	"github.com/alanyoungcy/vexorbot/internal/server/handler"
	"github.com/alanyoungcy/vexorbot/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port       int
	APIKey     string // guards /api/audit; empty disables it
	RateLimit  int    // requests per RateWindow per client IP; 0 disables
	RateWindow time.Duration
	// TrustProxyHeaders keys the limiter on X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
}

// Handlers aggregates the HTTP handlers the server registers. Audit may be
// nil when no audit store is configured.
type Handlers struct {
	Health  *handler.HealthHandler
	Webhook *handler.WebhookHandler
	Audit   *handler.AuditHandler
}

// Server is the HTTP ingress: Telegram webhook deliveries plus liveness and
// admin endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered. limiter may be nil.
func NewServer(cfg Config, handlers Handlers, limiter domain.RateLimiter, logger *slog.Logger) *Server {
	// The webhook stays outside the per-IP limiter: every delivery comes
	// from Telegram's addresses, and updates are limited per user by the
	// dispatcher instead.
	limited := func(h http.Handler) http.Handler { return h }
	if limiter != nil && cfg.RateLimit > 0 {
		limited = middleware.RateLimit(limiter, cfg.RateLimit, cfg.RateWindow, cfg.TrustProxyHeaders, logger)
	}

	mux := http.NewServeMux()

	mux.Handle("GET /{$}", limited(http.HandlerFunc(handlers.Health.Alive)))
	mux.Handle("GET /api/health", limited(http.HandlerFunc(handlers.Health.HealthCheck)))

	if handlers.Webhook != nil {
		mux.HandleFunc("POST /webhook", handlers.Webhook.Receive)
	}
	if handlers.Audit != nil {
		mux.Handle("GET /api/audit", limited(middleware.Auth(cfg.APIKey)(http.HandlerFunc(handlers.Audit.List))))
	}

	h := middleware.Logging(logger)(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
	}
}

// Handler returns the root handler including middleware.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
