package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	apperrors "github.com/agbru/casbridge/internal/errors"
	"github.com/agbru/casbridge/internal/ui"
	"github.com/agbru/casbridge/pkg/cas"
)

// REPLConfig configures the evaluation context of a REPL session.
type REPLConfig struct {
	// Epsilon is the initial numeric tolerance.
	Epsilon float64
	// Seed, when non-zero, seeds rand().
	Seed int64
	// Timeout bounds each evaluation; zero means no bound.
	Timeout time.Duration
}

// REPL is an interactive session over a single evaluation context, so
// assignments made with := persist from one line to the next.
type REPL struct {
	cfg         REPLConfig
	ctx         *cas.Context
	in          io.Reader
	out         io.Writer
	interactive bool
	count       int
}

var replCommands = [][2]string{
	{":help", "show this help"},
	{":epsilon [value]", "show or set the numeric tolerance"},
	{":seed <n>", "seed rand()"},
	{":type <expr>", "evaluate and show the type of the result"},
	{":reset", "drop every binding and start a fresh context"},
	{":quit", "leave the session (also :exit, :q)"},
}

// NewREPL creates a session reading os.Stdin and writing os.Stdout. Prompts
// are shown only when stdin is a terminal.
//
// Parameters:
//   - cfg: The context settings of the session.
//
// Returns:
//   - *REPL: A session owning a fresh evaluation context.
func NewREPL(cfg REPLConfig) *REPL {
	r := &REPL{
		cfg:         cfg,
		in:          os.Stdin,
		out:         os.Stdout,
		interactive: IsTerminal(os.Stdin),
	}
	r.ctx = r.newContext()
	return r
}

func (r *REPL) newContext() *cas.Context {
	c := cas.NewContext()
	if r.cfg.Epsilon > 0 {
		c.SetEpsilon(r.cfg.Epsilon)
	}
	if r.cfg.Seed != 0 {
		c.Seed(r.cfg.Seed)
	}
	return c
}

// SetInput replaces the input stream. Prompts follow whether the new input
// is a terminal.
func (r *REPL) SetInput(in io.Reader) {
	r.in = in
	r.interactive = IsTerminal(in)
}

// IsTerminal reports whether r is a file attached to a terminal.
//
// Parameters:
//   - r: The input stream.
//
// Returns:
//   - bool: True if r is an interactive terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// SetOutput replaces the output stream.
func (r *REPL) SetOutput(out io.Writer) { r.out = out }

// Close frees the session's context.
func (r *REPL) Close() { r.ctx.Free() }

// Start runs the read-eval-print loop until end of input, :quit, or ctx
// cancellation.
//
// Parameters:
//   - ctx: Cancels the session between lines.
//
// Returns:
//   - error: The input read error, or the context error when canceled.
func (r *REPL) Start(ctx context.Context) error {
	defer r.Close()
	t := ui.GetCurrentTheme()
	if r.interactive {
		fmt.Fprintf(r.out, "%s\nType an expression, or :help for commands.\n\n", t.Paint(t.Bold, "cascalc interactive session"))
	}

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	for {
		if r.interactive {
			fmt.Fprint(r.out, t.Paint(t.Info, "cas> "))
		}
		if !scanner.Scan() {
			break
		}
		if !r.ProcessCommand(ctx, scanner.Text()) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// ProcessCommand handles one input line and reports whether the session
// should continue.
//
// Parameters:
//   - ctx: Bounds the evaluation of the line.
//   - line: One trimmed input line.
//
// Returns:
//   - bool: False when the session should end.
func (r *REPL) ProcessCommand(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	if !strings.HasPrefix(line, ":") {
		r.evaluate(ctx, line, false)
		return true
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case ":quit", ":exit", ":q":
		return false
	case ":help":
		r.printHelp()
	case ":epsilon":
		r.epsilon(arg)
	case ":seed":
		seed, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			r.printError(fmt.Sprintf("invalid seed %q", arg))
			return true
		}
		r.ctx.Seed(seed)
		fmt.Fprintf(r.out, "seed set to %d\n", seed)
	case ":type":
		if arg == "" {
			r.printError("usage: :type <expr>")
			return true
		}
		r.evaluate(ctx, arg, true)
	case ":reset":
		r.ctx.Free()
		r.ctx = r.newContext()
		r.count = 0
		fmt.Fprintln(r.out, "context reset")
	default:
		r.printError(fmt.Sprintf("unknown command %s, type :help", cmd))
	}
	return true
}

func (r *REPL) epsilon(arg string) {
	if arg == "" {
		fmt.Fprintf(r.out, "epsilon = %g\n", r.ctx.Epsilon())
		return
	}
	eps, err := strconv.ParseFloat(arg, 64)
	if err != nil || eps < 0 {
		r.printError(fmt.Sprintf("invalid epsilon %q", arg))
		return
	}
	r.ctx.SetEpsilon(eps)
	fmt.Fprintf(r.out, "epsilon = %g\n", eps)
}

func (r *REPL) evaluate(ctx context.Context, expr string, showType bool) {
	evalCtx, cancel := ctx, context.CancelFunc(func() {})
	if r.cfg.Timeout > 0 {
		evalCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
	}
	defer cancel()

	start := time.Now()
	c := r.ctx
	v, err := cas.RunWithTimeout(evalCtx, func() (*cas.Value, error) {
		return c.EvalContext(evalCtx, expr)
	})
	if err != nil {
		if apperrors.IsContextError(err) {
			apperrors.HandleEvaluationError(err, time.Since(start), r.out, CLIColorProvider{})
			return
		}
		r.printError(err.Error())
		return
	}
	defer v.Free()

	t := ui.GetCurrentTheme()
	r.count++
	fmt.Fprintf(r.out, "%s %s", t.Paint(t.Secondary, fmt.Sprintf("[%d]", r.count)), t.Paint(t.Primary, v.String()))
	if showType {
		fmt.Fprintf(r.out, " %s", t.Paint(t.Secondary, ":: "+v.Type().String()))
	}
	fmt.Fprintln(r.out)
}

func (r *REPL) printHelp() {
	t := ui.GetCurrentTheme()
	fmt.Fprintln(r.out, t.Paint(t.Bold, "Commands:"))
	for _, c := range replCommands {
		fmt.Fprintf(r.out, "  %s %s\n", t.Paint(t.Primary, padRight(c[0], 18)), c[1])
	}
	fmt.Fprintln(r.out, "Anything else is evaluated, e.g. factor(x^2-1), a:=ifactors(360), det([[1,2],[3,4]]).")
}

func (r *REPL) printError(msg string) {
	t := ui.GetCurrentTheme()
	fmt.Fprintf(r.out, "%s %s\n", t.Paint(t.Error, "error:"), msg)
}
