package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/agbru/casbridge/pkg/models"
)

// DisplayJSON writes the report as indented JSON.
//
// Parameters:
//   - out: The writer for the JSON document.
//   - report: The batch report to encode.
//
// Returns:
//   - error: An error if encoding or writing fails.
func DisplayJSON(out io.Writer, report models.BatchReport) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("encoding JSON report: %w", err)
	}
	return nil
}

// DisplayQuiet prints one line per expression: the result, or the error
// prefixed with "error: ".
//
// Parameters:
//   - out: The writer for the results.
//   - results: The evaluation records, in input order.
func DisplayQuiet(out io.Writer, results []models.EvalResult) {
	for _, r := range results {
		if r.OK() {
			fmt.Fprintln(out, r.Result)
		} else {
			fmt.Fprintln(out, "error: "+r.Error)
		}
	}
}
