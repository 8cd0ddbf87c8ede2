// Package orchestration runs batches of expressions concurrently, one fresh
// evaluation context per expression, and summarises the outcome.
package orchestration

import (
	"context"
	"errors"
	"io"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/casbridge/internal/cli"
	"github.com/agbru/casbridge/internal/config"
	apperrors "github.com/agbru/casbridge/internal/errors"
	"github.com/agbru/casbridge/pkg/cas"
	"github.com/agbru/casbridge/pkg/models"
)

// Evaluator turns one expression into its printed result and type name.
type Evaluator interface {
	Evaluate(ctx context.Context, expr string) (result, typ string, err error)
}

// CASEvaluator evaluates each expression in a new cas.Context configured
// with Epsilon and Seed, and frees the context afterwards.
type CASEvaluator struct {
	Epsilon float64
	Seed    int64
}

// Evaluate implements Evaluator. When ctx ends before the engine returns,
// the context is left to the garbage collector because the abandoned call
// may still be using it.
//
// Parameters:
//   - ctx: Bounds the wait for the result.
//   - expr: The expression text.
//
// Returns:
//   - string: The canonical text of the result.
//   - string: The result type name.
//   - error: The engine error or the context error.
func (e CASEvaluator) Evaluate(ctx context.Context, expr string) (string, string, error) {
	c := cas.NewContext()
	if e.Epsilon > 0 {
		c.SetEpsilon(e.Epsilon)
	}
	if e.Seed != 0 {
		c.Seed(e.Seed)
	}
	v, err := cas.RunWithTimeout(ctx, func() (*cas.Value, error) {
		return c.EvalContext(ctx, expr)
	})
	if err != nil {
		if !apperrors.IsContextError(err) {
			c.Free()
		}
		return "", "", err
	}
	defer c.Free()
	defer v.Free()
	return v.String(), v.Type().String(), nil
}

// EvaluationResult is the outcome of one expression of a batch.
type EvaluationResult struct {
	Expr     string
	Result   string
	Type     string
	Duration time.Duration
	Err      error
}

// Model converts the result into its JSON record.
func (r EvaluationResult) Model() models.EvalResult {
	m := models.EvalResult{
		Expr:       r.Expr,
		Result:     r.Result,
		Type:       r.Type,
		DurationMs: float64(r.Duration.Microseconds()) / 1000,
	}
	if r.Err != nil {
		m.Error = r.Err.Error()
	}
	return m
}

// Options bound a batch run.
type Options struct {
	// Concurrency caps simultaneous evaluations; zero means one per CPU.
	Concurrency int
	// Timeout bounds each evaluation; zero means no bound.
	Timeout time.Duration
}

// ExecuteEvaluations evaluates every expression and returns the results in
// input order. A failing expression never stops the others: engine errors
// are recorded as apperrors.EvaluationError and deadline errors as is.
//
// Parameters:
//   - ctx: The parent context; cancelling it abandons pending evaluations.
//   - ev: The evaluator used for each expression.
//   - exprs: The expressions to evaluate.
//   - opts: Concurrency and per-expression timeout.
//
// Returns:
//   - []EvaluationResult: One entry per expression.
func ExecuteEvaluations(ctx context.Context, ev Evaluator, exprs []string, opts Options) []EvaluationResult {
	results := make([]EvaluationResult, len(exprs))
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i, expr := range exprs {
		i, expr := i, expr
		g.Go(func() error {
			evalCtx, cancel := ctx, context.CancelFunc(func() {})
			if opts.Timeout > 0 {
				evalCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
			}
			defer cancel()

			start := time.Now()
			res, typ, err := ev.Evaluate(evalCtx, expr)
			if err != nil && !apperrors.IsContextError(err) {
				err = apperrors.NewEvaluationError(expr, err)
			}
			results[i] = EvaluationResult{Expr: expr, Result: res, Type: typ, Duration: time.Since(start), Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// AnalyzeResults renders a batch in the format chosen by cfg and returns the
// exit code: success when every expression evaluated, otherwise the code of
// the first failure.
//
// Parameters:
//   - results: The batch results, in input order.
//   - cfg: The application configuration (JSON and quiet switches).
//   - out: The io.Writer for the report.
//
// Returns:
//   - int: The process exit code.
func AnalyzeResults(results []EvaluationResult, cfg config.AppConfig, out io.Writer) int {
	records := make([]models.EvalResult, len(results))
	var firstErr error
	var firstDur time.Duration
	for i, r := range results {
		records[i] = r.Model()
		if r.Err != nil && firstErr == nil {
			firstErr, firstDur = r.Err, r.Duration
		}
	}

	switch {
	case cfg.JSONOutput:
		if err := cli.DisplayJSON(out, models.NewBatchReport(records)); err != nil {
			return apperrors.HandleEvaluationError(err, 0, out, nil)
		}
		return apperrors.HandleEvaluationError(firstErr, 0, io.Discard, nil)
	case cfg.Quiet:
		cli.DisplayQuiet(out, records)
		return apperrors.HandleEvaluationError(firstErr, 0, io.Discard, nil)
	}

	cli.DisplayResults(out, records)
	if firstErr == nil {
		return apperrors.ExitSuccess
	}
	var evalErr apperrors.EvaluationError
	if errors.As(firstErr, &evalErr) {
		// Already shown in the table.
		return apperrors.ExitErrorEvaluation
	}
	return apperrors.HandleEvaluationError(firstErr, firstDur, out, cli.CLIColorProvider{})
}
