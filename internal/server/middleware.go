package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/agbru/casbridge/internal/logging"
)

// statusRecorder remembers the status code written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func asRecorder(w http.ResponseWriter) *statusRecorder {
	if rec, ok := w.(*statusRecorder); ok {
		return rec
	}
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (s *Server) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := asRecorder(w)
		next(rec, r)
		s.logger.Info("request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rec.status),
			logging.Duration("duration", time.Since(start)))
	}
}

// SecurityConfig bounds request sizes.
type SecurityConfig struct {
	// MaxExprLength is the longest accepted expression, in bytes.
	MaxExprLength int
	// MaxBatchSize is the most expressions accepted by one POST /eval.
	MaxBatchSize int
	// MaxBodyBytes caps the POST body.
	MaxBodyBytes int64
}

// DefaultSecurityConfig returns the production limits.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{MaxExprLength: 4096, MaxBatchSize: 64, MaxBodyBytes: 1 << 20}
}

// SecurityMiddleware sets hardening response headers and caps the body size.
//
// Parameters:
//   - cfg: The request limits.
//   - next: The handler to protect.
//
// Returns:
//   - http.HandlerFunc: The wrapped handler.
func SecurityMiddleware(cfg SecurityConfig, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'")
		h.Set("Cache-Control", "no-store")
		if r.Body != nil && cfg.MaxBodyBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxBodyBytes)
		}
		next(w, r)
	}
}

// RateLimiterConfig sets the per-client request budget.
type RateLimiterConfig struct {
	RequestsPerMinute int
}

// DefaultRateLimiterConfig allows 120 requests per client per minute.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{RequestsPerMinute: 120}
}

// RateLimiter is a fixed-window limiter keyed by client IP.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu     sync.Mutex
	start  time.Time
	counts map[string]int
}

// NewRateLimiter creates a limiter; a non-positive budget disables limiting.
//
// Parameters:
//   - cfg: The per-client request budget per window.
//
// Returns:
//   - *RateLimiter: A limiter with empty windows.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	return &RateLimiter{
		limit:  cfg.RequestsPerMinute,
		window: time.Minute,
		now:    time.Now,
		counts: make(map[string]int),
	}
}

// Allow records a request from client and reports whether it is within
// budget.
//
// Parameters:
//   - client: The client key, usually its IP.
//
// Returns:
//   - bool: True if the request fits in the current window.
func (rl *RateLimiter) Allow(client string) bool {
	if rl.limit <= 0 {
		return true
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if now := rl.now(); now.Sub(rl.start) >= rl.window {
		rl.start = now
		clear(rl.counts)
	}
	if rl.counts[client] >= rl.limit {
		return false
	}
	rl.counts[client]++
	return true
}

// RateLimitMiddleware answers 429 once a client exceeds its budget.
//
// Parameters:
//   - rl: The limiter to consult.
//   - next: The handler to protect.
//
// Returns:
//   - http.HandlerFunc: The wrapped handler, answering 429 when over budget.
func RateLimitMiddleware(rl *RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"Too Many Requests","message":"Rate limit exceeded"}` + "\n"))
			return
		}
		next(w, r)
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
