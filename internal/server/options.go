package server

import (
	"log"
	"time"

	"github.com/agbru/casbridge/internal/logging"
	"github.com/agbru/casbridge/internal/orchestration"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger replaces the default zerolog logger. Nil is ignored.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStdLogger logs through a standard log.Logger. Nil is ignored.
func WithStdLogger(logger *log.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logging.NewStdLoggerAdapter(logger)
		}
	}
}

// WithEvaluator replaces the engine-backed evaluator, typically with a test
// double. Nil is ignored.
func WithEvaluator(ev orchestration.Evaluator) Option {
	return func(s *Server) {
		if ev != nil {
			s.evaluator = ev
		}
	}
}

// WithRateLimiter replaces the default rate limiter.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) { s.rateLimiter = rl }
}

// WithSecurityConfig replaces the default request limits.
func WithSecurityConfig(cfg SecurityConfig) Option {
	return func(s *Server) { s.securityConfig = cfg }
}

// WithTimeouts replaces the default timeouts.
func WithTimeouts(timeouts Timeouts) Option {
	return func(s *Server) { s.timeouts = timeouts }
}

// Timeouts holds the HTTP server deadlines.
type Timeouts struct {
	// RequestTimeout bounds one evaluation.
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
}

// DefaultServerTimeouts returns the production deadlines.
func DefaultServerTimeouts() Timeouts {
	return Timeouts{
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    2 * time.Minute,
		IdleTimeout:     2 * time.Minute,
	}
}
