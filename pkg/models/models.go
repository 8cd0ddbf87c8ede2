// Package models defines the JSON records shared by the cascalc batch output
// and the HTTP evaluation service.
package models

// EvalResult is the outcome of evaluating one expression.
type EvalResult struct {
	// Expr is the input text.
	Expr string `json:"expr"`
	// Result is the printed form of the value, empty on failure.
	Result string `json:"result,omitempty"`
	// Type is the value's tag name ("zint", "symbolic", ...), empty on failure.
	Type string `json:"type,omitempty"`
	// DurationMs is the wall time of the evaluation in milliseconds.
	DurationMs float64 `json:"duration_ms"`
	// Error is the engine's message on failure.
	Error string `json:"error,omitempty"`
}

// OK reports whether the evaluation succeeded.
func (r EvalResult) OK() bool { return r.Error == "" }

// BatchReport groups the results of a batch run.
type BatchReport struct {
	Results   []EvalResult `json:"results"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
}

// NewBatchReport counts successes and failures over results.
//
// Parameters:
//   - results: The evaluation records, in input order.
//
// Returns:
//   - BatchReport: The records with success and failure counts.
func NewBatchReport(results []EvalResult) BatchReport {
	rep := BatchReport{Results: results}
	for _, r := range results {
		if r.OK() {
			rep.Succeeded++
		} else {
			rep.Failed++
		}
	}
	return rep
}

// ErrorResponse is the body of a non-2xx HTTP reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
