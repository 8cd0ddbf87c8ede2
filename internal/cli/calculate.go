package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/casbridge/internal/config"
	"github.com/agbru/casbridge/internal/ui"
)

// PrintExecutionConfig prints the batch header: how many expressions, the
// limits applied, and the runtime environment.
//
// Parameters:
//   - cfg: The batch configuration.
//   - backend: The active factorial backend name.
//   - out: The writer for the summary.
func PrintExecutionConfig(cfg config.AppConfig, backend string, out io.Writer) {
	t := ui.GetCurrentTheme()
	workers := cfg.Concurrency
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Evaluating %s%d%s expression(s) with a timeout of %s%s%s each.\n",
		t.Info, len(cfg.Exprs), t.Reset, t.Warning, cfg.Timeout, t.Reset)
	fmt.Fprintf(out, "Epsilon: %s%g%s, workers: %s%d%s, factorial backend: %s%s%s.\n",
		t.Secondary, cfg.Epsilon, t.Reset, t.Secondary, workers, t.Reset, t.Secondary, backend, t.Reset)
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n\n",
		t.Secondary, runtime.NumCPU(), t.Reset, t.Secondary, runtime.Version(), t.Reset)
}
