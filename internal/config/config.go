// Package config holds the cascalc configuration: the flag set, its
// CASCALC_* environment overrides and the validation rules.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "github.com/agbru/casbridge/internal/errors"
)

const (
	// EnvPrefix is the prefix for all environment variables used by cascalc.
	EnvPrefix = "CASCALC_"
)

// Default configuration values.
const (
	// DefaultTimeout bounds a single evaluation.
	DefaultTimeout = 30 * time.Second
	// DefaultPort is the default server port.
	DefaultPort = "8080"
	// DefaultEpsilon is the numeric tolerance of fresh contexts.
	DefaultEpsilon = 1e-12
	// DefaultLogLevel is the zerolog level used when none is given.
	DefaultLogLevel = "warn"
	// DefaultConcurrency caps batch evaluations running at once; 0 means
	// one per CPU.
	DefaultConcurrency = 0
)

// exprList collects repeated -e flags.
type exprList []string

func (l *exprList) String() string { return strings.Join(*l, "; ") }

func (l *exprList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// AppConfig aggregates the application's configuration parameters.
type AppConfig struct {
	// Exprs are the expressions to evaluate in batch mode.
	Exprs []string
	// Epsilon is the numeric tolerance set on every context.
	Epsilon float64
	// Timeout bounds each evaluation.
	Timeout time.Duration
	// Seed, when non-zero, seeds every context's random source.
	Seed int64
	// Concurrency caps the number of expressions evaluated at once.
	Concurrency int
	// JSONOutput, if true, prints results as JSON.
	JSONOutput bool
	// Quiet prints bare results only, one per line.
	Quiet bool
	// ServerMode, if true, starts the HTTP evaluation service.
	ServerMode bool
	// Port specifies the port to listen on in server mode.
	Port string
	// Interactive, if true, starts the REPL.
	Interactive bool
	// NoColor, if true, disables all color output in the CLI.
	// Also respects the NO_COLOR environment variable.
	NoColor bool
	// LogLevel is the zerolog level name for diagnostics.
	LogLevel string
	// Backend names the factorial backend to activate, empty for the default.
	Backend string
	// ShowVersion prints the version and exits.
	ShowVersion bool
	// Completion names a shell to print a completion script for.
	Completion string
}

// Validate checks the semantic consistency of the configuration.
//
// Parameters:
//   - backends: The factorial backend names registered in this build.
//
// Returns:
//   - error: A ConfigError if the configuration is invalid, nil otherwise.
func (c AppConfig) Validate(backends []string) error {
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.Epsilon < 0 {
		return apperrors.NewConfigError("epsilon cannot be negative: %g", c.Epsilon)
	}
	if c.Concurrency < 0 {
		return apperrors.NewConfigError("concurrency cannot be negative: %d", c.Concurrency)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return apperrors.NewConfigError("unrecognized log level: '%s'", c.LogLevel)
	}
	if c.ServerMode && c.Interactive {
		return apperrors.NewConfigError("-server and -interactive are mutually exclusive")
	}
	if c.Backend != "" {
		found := false
		for _, b := range backends {
			if b == c.Backend {
				found = true
				break
			}
		}
		if !found {
			return apperrors.NewConfigError("unrecognized backend: '%s'. Valid backends are: [%s]", c.Backend, strings.Join(backends, ", "))
		}
	}
	return nil
}

// ParseConfig parses the command-line arguments into an AppConfig, applies
// environment overrides for flags left unset, and validates the result.
//
// Parameters:
//   - programName: The name of the program, used in the usage message.
//   - args: The command-line arguments (typically os.Args[1:]).
//   - errorWriter: Where parsing errors and usage are printed.
//   - backends: The factorial backend names registered in this build.
//
// Returns:
//   - AppConfig: The populated configuration struct.
//   - error: An error if flag parsing or validation fails.
func ParseConfig(programName string, args []string, errorWriter io.Writer, backends []string) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)

	config := AppConfig{}
	var exprs exprList
	fs.Var(&exprs, "e", "Expression to evaluate (repeatable).")
	fs.Var(&exprs, "expr", "Alias for -e.")
	fs.Float64Var(&config.Epsilon, "epsilon", DefaultEpsilon, "Numeric tolerance for zero tests and float to rational conversion.")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum time allowed for one evaluation.")
	fs.Int64Var(&config.Seed, "seed", 0, "Seed for rand() (0 keeps the time-based seed).")
	fs.IntVar(&config.Concurrency, "concurrency", DefaultConcurrency, "Maximum number of expressions evaluated at once (0 for one per CPU).")
	fs.BoolVar(&config.JSONOutput, "json", false, "Output results in JSON format.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode - print bare results only.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.ServerMode, "server", false, "Start in HTTP server mode.")
	fs.StringVar(&config.Port, "port", DefaultPort, "Port to listen on in server mode.")
	fs.BoolVar(&config.Interactive, "interactive", false, "Start in interactive REPL mode.")
	fs.BoolVar(&config.Interactive, "i", false, "Interactive mode (shorthand).")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "Diagnostic log level (debug, info, warn, error, disabled).")
	fs.StringVar(&config.Backend, "backend", "", "Factorial backend to use (default: tree).")
	fs.BoolVar(&config.ShowVersion, "version", false, "Print version information and exit.")
	fs.StringVar(&config.Completion, "completion", "", "Print a completion script for a shell (bash, zsh, fish, powershell).")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	// Positional arguments are expressions too.
	config.Exprs = append([]string(exprs), fs.Args()...)

	applyEnvOverrides(&config, fs)

	config.LogLevel = strings.ToLower(config.LogLevel)
	if err := config.Validate(backends); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, errors.Join(errors.New("invalid configuration"), err)
	}
	return config, nil
}
