package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/agbru/casbridge/internal/config"
	"github.com/agbru/casbridge/pkg/models"
)

// mockEvaluator answers "1/0" with an engine error, "slow" by waiting for
// the deadline, and everything else by echoing the input.
type mockEvaluator struct{}

func (mockEvaluator) Evaluate(ctx context.Context, expr string) (string, string, error) {
	switch expr {
	case "1/0":
		return "", "", errors.New("Division by 0")
	case "slow":
		<-ctx.Done()
		return "", "", ctx.Err()
	}
	return expr, "identifier", nil
}

func newTestServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	timeouts := DefaultServerTimeouts()
	timeouts.RequestTimeout = 50 * time.Millisecond
	base := []Option{
		WithStdLogger(log.New(io.Discard, "", 0)),
		WithEvaluator(mockEvaluator{}),
		WithTimeouts(timeouts),
		WithRateLimiter(NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 0})),
	}
	return NewServer(config.AppConfig{Port: "0"}, append(base, opts...)...)
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleEvalGet(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantResult string
		wantError  string
	}{
		{"success", "?expr=x", http.StatusOK, "x", ""},
		{"url encoded", "?expr=a%2Bb", http.StatusOK, "a+b", ""},
		{"engine error", "?expr=1%2F0", http.StatusUnprocessableEntity, "", "Division by 0"},
		{"timeout", "?expr=slow", http.StatusGatewayTimeout, "", "context deadline exceeded"},
	}
	srv := newTestServer(t)
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := do(t, srv.Handler(), http.MethodGet, "/eval"+tt.query, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body)
			}
			var res models.EvalResult
			if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if res.Result != tt.wantResult || res.Error != tt.wantError {
				t.Errorf("got %+v", res)
			}
		})
	}
}

func TestHandleEvalValidation(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, WithSecurityConfig(SecurityConfig{MaxExprLength: 8, MaxBatchSize: 2, MaxBodyBytes: 1 << 10}))
	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   string
	}{
		{"missing expr", http.MethodGet, "/eval", "", "validation error for 'expr': must not be empty"},
		{"too long", http.MethodGet, "/eval?expr=123456789", "", "longer than 8 bytes"},
		{"bad json", http.MethodPost, "/eval", "{", "Invalid JSON body"},
		{"empty batch", http.MethodPost, "/eval", `{"exprs":[]}`, "Missing 'exprs'"},
		{"batch too large", http.MethodPost, "/eval", `{"exprs":["a","b","c"]}`, "exceeds the maximum of 2"},
		{"empty batch item", http.MethodPost, "/eval", `{"exprs":["a",""]}`, "exprs[1]"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := do(t, srv.Handler(), tt.method, tt.target, strings.NewReader(tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status %d, want 400", rec.Code)
			}
			var er models.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &er); err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(er.Message, tt.want) {
				t.Errorf("message %q does not contain %q", er.Message, tt.want)
			}
		})
	}
}

func TestHandleEvalPostBatch(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodPost, "/eval", strings.NewReader(`{"exprs":["a","1/0","b"]}`))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var rep models.BatchReport
	if err := json.Unmarshal(rec.Body.Bytes(), &rep); err != nil {
		t.Fatal(err)
	}
	if rep.Succeeded != 2 || rep.Failed != 1 {
		t.Errorf("unexpected counts %+v", rep)
	}
	if rep.Results[0].Result != "a" || rep.Results[1].Error != "Division by 0" || rep.Results[2].Result != "b" {
		t.Errorf("results out of order: %+v", rep.Results)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	for _, target := range []string{"/eval", "/health", "/metrics"} {
		rec := do(t, srv.Handler(), http.MethodDelete, target, nil)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("DELETE %s: status %d, want 405", target, rec.Code)
		}
	}
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"healthy"`) {
		t.Errorf("unexpected health response %d %s", rec.Code, rec.Body)
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	rec := do(t, srv.Handler(), http.MethodGet, "/health", nil)
	for h, want := range map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'none'",
	} {
		if got := rec.Header().Get(h); got != want {
			t.Errorf("%s = %q, want %q", h, got, want)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	do(t, srv.Handler(), http.MethodGet, "/eval?expr=y", nil)
	rec := do(t, srv.Handler(), http.MethodGet, "/metrics", nil)
	body := rec.Body.String()
	for _, name := range []string{"casbridge_http_requests_total", "casbridge_http_evaluations_total", "casbridge_http_active_requests"} {
		if !strings.Contains(body, name) {
			t.Errorf("/metrics missing %s", name)
		}
	}
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()
	now := time.Unix(1000, 0)
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 2})
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Error("third request in the window should be refused")
	}
	if !rl.Allow("b") {
		t.Error("budgets are per client")
	}
	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Error("a new window should reset the budget")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t, WithRateLimiter(NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 1})))
	h := srv.Handler()
	if rec := do(t, h, http.MethodGet, "/health", nil); rec.Code != http.StatusOK {
		t.Fatalf("first request: %d", rec.Code)
	}
	rec := do(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "60" {
		t.Errorf("second request: %d %v", rec.Code, rec.Header())
	}
}

func TestLoggingMiddleware(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	srv := newTestServer(t, WithStdLogger(log.New(&buf, "", 0)))
	do(t, srv.Handler(), http.MethodGet, "/eval?expr=1%2F0", nil)
	if !strings.Contains(buf.String(), "[INFO] request method=GET path=/eval status=422") {
		t.Errorf("unexpected log %q", buf.String())
	}
}

func TestServerWithEngine(t *testing.T) {
	t.Parallel()
	srv := NewServer(config.AppConfig{Port: "0", Epsilon: 1e-12},
		WithStdLogger(log.New(io.Discard, "", 0)),
		WithRateLimiter(NewRateLimiter(RateLimiterConfig{})))
	rec := do(t, srv.Handler(), http.MethodGet, "/eval?expr=gcd(12%2C18)", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	var res models.EvalResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatal(err)
	}
	if res.Result != "6" || res.Type != "int" {
		t.Errorf("gcd(12,18) = %+v", res)
	}
}

func TestShutdownWithoutStart(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	if err := srv.Shutdown(); err != nil {
		t.Errorf("Shutdown on an idle server: %v", err)
	}
}
