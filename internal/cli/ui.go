// Package cli renders cascalc results to a terminal: the batch table, the
// quiet and JSON forms, the spinner shown while a batch runs, and the REPL.
package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/casbridge/internal/ui"
	"github.com/agbru/casbridge/pkg/models"
)

const (
	// TruncationLimit is the length from which a printed result is shortened
	// in the batch table.
	TruncationLimit = 100
	// DisplayEdges is the number of characters kept at each end of a
	// shortened result.
	DisplayEdges = 25
	// SpinnerRefreshRate is the spinner frame interval.
	SpinnerRefreshRate = 120 * time.Millisecond
)

// FormatExecutionDuration formats a duration as µs below a millisecond, ms
// below a second, and time.Duration's own form above.
//
// Parameters:
//   - d: The measured duration.
//
// Returns:
//   - string: The duration rounded for display.
func FormatExecutionDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "< 1µs"
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.String()
}

// CLIColorProvider feeds the active ui theme to apperrors.
type CLIColorProvider struct{}

func (CLIColorProvider) Yellow() string { return ui.ColorYellow() }
func (CLIColorProvider) Red() string    { return ui.ColorRed() }
func (CLIColorProvider) Reset() string  { return ui.ColorReset() }

// Spinner abstracts the terminal spinner so tests can observe it.
type Spinner interface {
	Start()
	Stop()
	UpdateSuffix(suffix string)
}

type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start()                     { rs.s.Start() }
func (rs *realSpinner) Stop()                      { rs.s.Stop() }
func (rs *realSpinner) UpdateSuffix(suffix string) { rs.s.Suffix = suffix }

var newSpinner = func(options ...spinner.Option) Spinner {
	return &realSpinner{spinner.New(spinner.CharSets[14], SpinnerRefreshRate, options...)}
}

// RunWithSpinner shows a spinner labelled with label on out while fn runs.
//
// Parameters:
//   - out: The writer the spinner draws on.
//   - label: The text shown next to the spinner.
//   - fn: The work to run.
func RunWithSpinner(out io.Writer, label string, fn func()) {
	s := newSpinner(spinner.WithWriter(out))
	s.UpdateSuffix(" " + label)
	s.Start()
	defer s.Stop()
	fn()
}

// truncate shortens s to its first and last DisplayEdges characters when it
// exceeds TruncationLimit.
func truncate(s string) string {
	if len(s) <= TruncationLimit {
		return s
	}
	return s[:DisplayEdges] + "..." + s[len(s)-DisplayEdges:] + fmt.Sprintf(" (%d chars)", len(s))
}

// DisplayResults prints a batch as an aligned table followed by a status line.
//
// Parameters:
//   - out: The io.Writer for the table.
//   - results: The batch records, in input order.
func DisplayResults(out io.Writer, results []models.EvalResult) {
	t := ui.GetCurrentTheme()
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sExpression%s\t%sResult%s\t%sType%s\t%sTime%s\n",
		t.Bold, t.Reset, t.Bold, t.Reset, t.Bold, t.Reset, t.Bold, t.Reset)

	failed := 0
	for _, r := range results {
		dur := FormatExecutionDuration(time.Duration(r.DurationMs * float64(time.Millisecond)))
		if !r.OK() {
			failed++
			fmt.Fprintf(tw, "%s\t%s\t-\t%s\n", r.Expr, t.Paint(t.Error, "error: "+r.Error), t.Paint(t.Secondary, dur))
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Expr, t.Paint(t.Primary, truncate(r.Result)), t.Paint(t.Secondary, r.Type), t.Paint(t.Secondary, dur))
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}

	switch {
	case len(results) == 0:
		fmt.Fprintln(out, "\nNo expression to evaluate.")
	case failed == 0:
		fmt.Fprintf(out, "\n%s\n", t.Paint(t.Success, fmt.Sprintf("Status: Success. %d expression(s) evaluated.", len(results))))
	default:
		fmt.Fprintf(out, "\n%s\n", t.Paint(t.Error, fmt.Sprintf("Status: Failure. %d of %d expression(s) failed.", failed, len(results))))
	}
}

// padRight is used by the REPL help table.
func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
