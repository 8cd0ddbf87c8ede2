// Package server exposes expression evaluation over HTTP: GET or POST
// /eval, /health and the Prometheus /metrics endpoint.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/agbru/casbridge/internal/config"
	apperrors "github.com/agbru/casbridge/internal/errors"
	"github.com/agbru/casbridge/internal/logging"
	"github.com/agbru/casbridge/internal/orchestration"
)

// Server is the cascalc HTTP evaluation service.
type Server struct {
	evaluator      orchestration.Evaluator
	cfg            config.AppConfig
	httpServer     *http.Server
	logger         logging.Logger
	shutdownSignal chan os.Signal
	rateLimiter    *RateLimiter
	securityConfig SecurityConfig
	metrics        *Metrics
	timeouts       Timeouts
}

// NewServer builds a server listening on cfg.Port.
//
// Parameters:
//   - cfg: The application configuration (port, epsilon, seed, timeout).
//   - opts: Functional options (WithLogger, WithEvaluator, WithTimeouts...).
//
// Returns:
//   - *Server: The configured server, not yet listening.
func NewServer(cfg config.AppConfig, opts ...Option) *Server {
	s := &Server{
		cfg:            cfg,
		logger:         logging.NewLogger(os.Stdout, "server"),
		shutdownSignal: make(chan os.Signal, 1),
		securityConfig: DefaultSecurityConfig(),
		metrics:        NewMetrics(),
		timeouts:       DefaultServerTimeouts(),
	}
	if cfg.Timeout > 0 {
		s.timeouts.RequestTimeout = cfg.Timeout
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.evaluator == nil {
		s.evaluator = orchestration.CASEvaluator{Epsilon: cfg.Epsilon, Seed: cfg.Seed}
	}
	if s.rateLimiter == nil {
		s.rateLimiter = NewRateLimiter(DefaultRateLimiterConfig())
	}

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.Handler(),
		ReadTimeout:  s.timeouts.ReadTimeout,
		WriteTimeout: s.timeouts.WriteTimeout,
		IdleTimeout:  s.timeouts.IdleTimeout,
	}
	return s
}

// Handler returns the routed handler with the full middleware chain.
//
// Returns:
//   - http.Handler: The routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/eval", s.wrapWithMiddleware("/eval", s.handleEval))
	mux.HandleFunc("/health", s.wrapWithMiddleware("/health", s.handleHealth))
	mux.HandleFunc("/metrics", s.wrapWithMiddleware("/metrics", s.handleMetrics))
	return mux
}

// wrapWithMiddleware applies, outermost first: security headers, rate
// limiting, logging, metrics.
func (s *Server) wrapWithMiddleware(route string, handler http.HandlerFunc) http.HandlerFunc {
	wrapped := s.metricsMiddleware(route, handler)
	wrapped = s.loggingMiddleware(wrapped)
	wrapped = RateLimitMiddleware(s.rateLimiter, wrapped)
	wrapped = SecurityMiddleware(s.securityConfig, wrapped)
	return wrapped
}

// Start listens until SIGINT or SIGTERM, then shuts down gracefully.
//
// Returns:
//   - error: A ServerError if listening or shutdown fails.
func (s *Server) Start() error {
	signal.Notify(s.shutdownSignal, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(s.shutdownSignal)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			logging.String("addr", s.httpServer.Addr),
			logging.Duration("request_timeout", s.timeouts.RequestTimeout))
		s.logger.Println("Available endpoints:")
		s.logger.Println("  GET  /eval?expr=<expression>")
		s.logger.Println("  POST /eval {\"exprs\": [...]}")
		s.logger.Println("  GET  /health")
		s.logger.Println("  GET  /metrics")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-s.shutdownSignal:
		s.logger.Info("shutdown signal received, draining connections")
	case err := <-errCh:
		return apperrors.NewServerError("server failed to start", err)
	}
	return s.Shutdown()
}

// Shutdown stops the server within the configured shutdown timeout.
//
// Returns:
//   - error: An error if the graceful shutdown failed.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeouts.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return apperrors.NewServerError("failed to gracefully shutdown server", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}
