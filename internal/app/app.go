// Package app wires the cascalc command: configuration, logging, and the
// dispatch between completion, version, server, REPL and batch modes.
package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/agbru/casbridge/internal/cli"
	"github.com/agbru/casbridge/internal/config"
	"github.com/agbru/casbridge/internal/engine"
	apperrors "github.com/agbru/casbridge/internal/errors"
	"github.com/agbru/casbridge/internal/logging"
	"github.com/agbru/casbridge/internal/orchestration"
	"github.com/agbru/casbridge/internal/server"
	"github.com/agbru/casbridge/internal/ui"
	"github.com/agbru/casbridge/pkg/cas"
)

// Application is one cascalc invocation.
type Application struct {
	// Config holds the parsed configuration.
	Config config.AppConfig
	// Evaluator evaluates batch expressions; tests may replace it.
	Evaluator orchestration.Evaluator
	// In supplies expressions when none are given on the command line.
	In io.Reader
	// ErrWriter receives diagnostics, the spinner and error messages.
	ErrWriter io.Writer
}

// New parses args (args[0] is the program name), configures logging and the
// factorial backend, and prepares the global evaluation context.
//
// Parameters:
//   - args: The command-line arguments, typically os.Args.
//   - errWriter: The writer for diagnostics.
//
// Returns:
//   - *Application: The configured application.
//   - error: An error if parsing or validation fails.
func New(args []string, errWriter io.Writer) (*Application, error) {
	backends := engine.FactorialBackends().List()

	programName := "cascalc"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter, backends)
	if err != nil {
		return nil, err
	}

	configureLogging(cfg, errWriter)
	if cfg.Backend != "" {
		if err := engine.FactorialBackends().Use(cfg.Backend); err != nil {
			return nil, apperrors.NewConfigError("%v", err)
		}
	}
	cas.Init()

	return &Application{
		Config:    cfg,
		Evaluator: orchestration.CASEvaluator{Epsilon: cfg.Epsilon, Seed: cfg.Seed},
		In:        os.Stdin,
		ErrWriter: errWriter,
	}, nil
}

// configureLogging points the zerolog global logger at w, in console form,
// at the configured level.
func configureLogging(cfg config.AppConfig, w io.Writer) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: cfg.NoColor}).With().Timestamp().Logger()
	cas.SetLogger(log.Logger.With().Str("component", "cas").Logger())
}

// Run executes the configured mode and returns the process exit code.
//
// Parameters:
//   - ctx: The parent context; SIGINT and SIGTERM cancel it.
//   - out: The writer for results.
//
// Returns:
//   - int: The process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}
	if a.Config.ShowVersion {
		PrintVersion(out)
		return apperrors.ExitSuccess
	}

	ui.InitTheme(a.Config.NoColor)

	switch {
	case a.Config.ServerMode:
		return a.runServer()
	case a.Config.Interactive:
		return a.runREPL(ctx, out)
	}
	return a.runBatch(ctx, out)
}

func (a *Application) runCompletion(out io.Writer) int {
	if err := cli.GenerateCompletion(out, a.Config.Completion, engine.FactorialBackends().List()); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

func (a *Application) runServer() int {
	logger := logging.NewZerologAdapter(log.Logger.With().Str("component", "server").Logger())
	srv := server.NewServer(a.Config, server.WithLogger(logger), server.WithEvaluator(a.Evaluator))
	if err := srv.Start(); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

func (a *Application) runREPL(ctx context.Context, out io.Writer) int {
	ctx, stop := SetupSignals(ctx)
	defer stop()

	repl := cli.NewREPL(cli.REPLConfig{
		Epsilon: a.Config.Epsilon,
		Seed:    a.Config.Seed,
		Timeout: a.Config.Timeout,
	})
	repl.SetInput(a.In)
	repl.SetOutput(out)
	if err := repl.Start(ctx); err != nil {
		return apperrors.HandleEvaluationError(err, 0, a.ErrWriter, cli.CLIColorProvider{})
	}
	return apperrors.ExitSuccess
}

func (a *Application) runBatch(ctx context.Context, out io.Writer) int {
	exprs := a.Config.Exprs
	if len(exprs) == 0 {
		if cli.IsTerminal(a.In) {
			fmt.Fprintln(a.ErrWriter, "No expression given. Use -e <expr>, -interactive or -server; see -h.")
			return apperrors.ExitErrorConfig
		}
		var err error
		if exprs, err = readExpressions(a.In); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error reading expressions: %v\n", err)
			return apperrors.ExitErrorGeneric
		}
		a.Config.Exprs = exprs
	}

	ctx, stop := SetupSignals(ctx)
	defer stop()

	verbose := !a.Config.JSONOutput && !a.Config.Quiet
	if verbose {
		cli.PrintExecutionConfig(a.Config, engine.FactorialBackends().Active().Name(), out)
	}

	var results []orchestration.EvaluationResult
	run := func() {
		results = orchestration.ExecuteEvaluations(ctx, a.Evaluator, exprs, orchestration.Options{
			Concurrency: a.Config.Concurrency,
			Timeout:     a.Config.Timeout,
		})
	}
	if verbose {
		cli.RunWithSpinner(a.ErrWriter, fmt.Sprintf("Evaluating %d expression(s)...", len(exprs)), run)
	} else {
		run()
	}
	log.Debug().Int("count", len(results)).Msg("batch evaluated")
	return orchestration.AnalyzeResults(results, a.Config, out)
}

// readExpressions returns the non-blank lines of r that do not start with
// '#'.
func readExpressions(r io.Reader) ([]string, error) {
	var exprs []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		exprs = append(exprs, line)
	}
	return exprs, sc.Err()
}

// IsHelpError reports whether err comes from -h or -help.
//
// Parameters:
//   - err: The error returned by New.
//
// Returns:
//   - bool: True if the user asked for usage.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
