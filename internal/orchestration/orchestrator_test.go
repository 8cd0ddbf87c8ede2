package orchestration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agbru/casbridge/internal/config"
	apperrors "github.com/agbru/casbridge/internal/errors"
	"github.com/agbru/casbridge/internal/testutil"
	"github.com/agbru/casbridge/pkg/models"
)

// MockEvaluator answers from a function so orchestration can be tested
// without the engine.
type MockEvaluator struct {
	EvaluateFunc func(ctx context.Context, expr string) (string, string, error)
}

func (m MockEvaluator) Evaluate(ctx context.Context, expr string) (string, string, error) {
	return m.EvaluateFunc(ctx, expr)
}

func TestExecuteEvaluationsKeepsInputOrder(t *testing.T) {
	t.Parallel()
	ev := MockEvaluator{EvaluateFunc: func(_ context.Context, expr string) (string, string, error) {
		if expr == "bad" {
			return "", "", errors.New("Syntax error")
		}
		return strings.ToUpper(expr), "identifier", nil
	}}

	results := ExecuteEvaluations(context.Background(), ev, []string{"a", "bad", "c"}, Options{Concurrency: 2})
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Result != "A" || results[2].Result != "C" {
		t.Errorf("results out of order: %+v", results)
	}
	var evalErr apperrors.EvaluationError
	if !errors.As(results[1].Err, &evalErr) || evalErr.Expr != "bad" {
		t.Errorf("expected an EvaluationError for 'bad', got %v", results[1].Err)
	}
}

func TestExecuteEvaluationsRespectsConcurrency(t *testing.T) {
	t.Parallel()
	var running, peak atomic.Int32
	ev := MockEvaluator{EvaluateFunc: func(context.Context, string) (string, string, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return "1", "int", nil
	}}

	exprs := make([]string, 12)
	ExecuteEvaluations(context.Background(), ev, exprs, Options{Concurrency: 3})
	if peak.Load() > 3 {
		t.Errorf("peak concurrency %d exceeds limit 3", peak.Load())
	}
}

func TestExecuteEvaluationsTimeout(t *testing.T) {
	t.Parallel()
	ev := MockEvaluator{EvaluateFunc: func(ctx context.Context, _ string) (string, string, error) {
		<-ctx.Done()
		return "", "", ctx.Err()
	}}
	results := ExecuteEvaluations(context.Background(), ev, []string{"slow"}, Options{Timeout: 10 * time.Millisecond})
	if !errors.Is(results[0].Err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", results[0].Err)
	}
}

func TestCASEvaluator(t *testing.T) {
	t.Parallel()
	tests := []struct {
		expr    string
		want    string
		typ     string
		wantErr bool
	}{
		{"1+2", "3", "int", false},
		{"2^70", "1180591620717411303424", "zint", false},
		{"ifactor(90)", "2*3^2*5", "symbolic", false},
		{"1/0", "", "", true},
		{"(", "", "", true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()
			got, typ, err := CASEvaluator{Epsilon: 1e-12}.Evaluate(context.Background(), tt.expr)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected an error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if tt.typ != "" && typ != tt.typ {
				t.Errorf("type %q, want %q", typ, tt.typ)
			}
		})
	}
}

func TestAnalyzeResults(t *testing.T) {
	t.Parallel()
	ok := EvaluationResult{Expr: "1+1", Result: "2", Type: "int", Duration: time.Millisecond}
	bad := EvaluationResult{Expr: "1/0", Err: apperrors.NewEvaluationError("1/0", errors.New("Division by 0"))}
	slow := EvaluationResult{Expr: "slow", Err: context.DeadlineExceeded, Duration: time.Second}

	tests := []struct {
		name     string
		results  []EvaluationResult
		cfg      config.AppConfig
		wantCode int
		contains []string
	}{
		{"all ok table", []EvaluationResult{ok}, config.AppConfig{}, apperrors.ExitSuccess, []string{"1+1", "2"}},
		{"evaluation error table", []EvaluationResult{ok, bad}, config.AppConfig{}, apperrors.ExitErrorEvaluation, []string{"Division by 0"}},
		{"timeout table", []EvaluationResult{slow}, config.AppConfig{}, apperrors.ExitErrorTimeout, []string{"Timeout"}},
		{"quiet", []EvaluationResult{ok, bad}, config.AppConfig{Quiet: true}, apperrors.ExitErrorEvaluation, []string{"2\n"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			code := AnalyzeResults(tt.results, tt.cfg, &buf)
			if code != tt.wantCode {
				t.Errorf("exit code %d, want %d", code, tt.wantCode)
			}
			out := testutil.StripAnsiCodes(buf.String())
			for _, s := range tt.contains {
				if !strings.Contains(out, s) {
					t.Errorf("output missing %q:\n%s", s, out)
				}
			}
		})
	}
}

func TestAnalyzeResultsJSON(t *testing.T) {
	t.Parallel()
	results := []EvaluationResult{
		{Expr: "1+1", Result: "2", Type: "int"},
		{Expr: "(", Err: apperrors.NewEvaluationError("(", errors.New("Syntax error"))},
	}
	var buf bytes.Buffer
	code := AnalyzeResults(results, config.AppConfig{JSONOutput: true}, &buf)
	if code != apperrors.ExitErrorEvaluation {
		t.Errorf("exit code %d", code)
	}
	var rep models.BatchReport
	if err := json.Unmarshal(buf.Bytes(), &rep); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if rep.Succeeded != 1 || rep.Failed != 1 || rep.Results[1].Error != "Syntax error" {
		t.Errorf("unexpected report %+v", rep)
	}
}
