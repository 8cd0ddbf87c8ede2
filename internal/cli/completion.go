package cli

import (
	"fmt"
	"io"
	"strings"
)

// completionFlag describes one cascalc flag for completion scripts. Values
// lists the suggested arguments; a nil Values marks a boolean switch and an
// empty non-nil slice a free-form argument.
type completionFlag struct {
	Name   string
	Desc   string
	Values []string
}

func completionFlags(backends []string) []completionFlag {
	return []completionFlag{
		{"e", "Expression to evaluate", []string{}},
		{"expr", "Expression to evaluate", []string{}},
		{"epsilon", "Numeric tolerance", []string{"1e-12", "1e-9", "1e-6"}},
		{"timeout", "Maximum time per evaluation", []string{"1s", "10s", "30s", "1m"}},
		{"seed", "Seed for rand()", []string{}},
		{"concurrency", "Expressions evaluated at once", []string{"1", "2", "4", "8"}},
		{"json", "Output in JSON format", nil},
		{"quiet", "Print bare results only", nil},
		{"q", "Print bare results only", nil},
		{"server", "Start HTTP server mode", nil},
		{"port", "Server port", []string{"8080", "3000", "9000"}},
		{"interactive", "Start interactive REPL mode", nil},
		{"i", "Start interactive REPL mode", nil},
		{"no-color", "Disable colored output", nil},
		{"log-level", "Diagnostic log level", []string{"debug", "info", "warn", "error", "disabled"}},
		{"backend", "Factorial backend", backends},
		{"version", "Show version information", nil},
		{"completion", "Generate completion script", []string{"bash", "zsh", "fish", "powershell"}},
	}
}

// GenerateCompletion writes a completion script for shell ("bash", "zsh",
// "fish", "powershell" or "ps").
//
// Parameters:
//   - out: The writer receiving the script.
//   - shell: The target shell.
//   - backends: The factorial backend names offered for -backend.
//
// Returns:
//   - error: An error if the shell is not supported or the write fails.
func GenerateCompletion(out io.Writer, shell string, backends []string) error {
	flags := completionFlags(backends)
	var script string
	switch shell {
	case "bash":
		script = bashCompletion(flags)
	case "zsh":
		script = zshCompletion(flags)
	case "fish":
		script = fishCompletion(flags)
	case "powershell", "ps":
		script = powerShellCompletion(flags)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh, fish, powershell)", shell)
	}
	_, err := io.WriteString(out, script)
	return err
}

func bashCompletion(flags []completionFlag) string {
	var b strings.Builder
	names := make([]string, len(flags))
	for i, f := range flags {
		names[i] = "-" + f.Name
	}
	b.WriteString("# Bash completion script for cascalc\n# Add this to your ~/.bashrc or ~/.bash_completion\n\n")
	b.WriteString("_cascalc_completions() {\n    local cur prev\n    COMPREPLY=()\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n\n")
	b.WriteString("    case \"${prev}\" in\n")
	for _, f := range flags {
		if len(f.Values) == 0 {
			continue
		}
		fmt.Fprintf(&b, "        -%s|--%s)\n            COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n            return 0\n            ;;\n",
			f.Name, f.Name, strings.Join(f.Values, " "))
	}
	b.WriteString("    esac\n\n")
	fmt.Fprintf(&b, "    if [[ \"${cur}\" == -* ]]; then\n        COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n    fi\n}\n\n", strings.Join(names, " "))
	b.WriteString("complete -F _cascalc_completions cascalc\n")
	return b.String()
}

func zshCompletion(flags []completionFlag) string {
	var b strings.Builder
	b.WriteString("#compdef cascalc\n\n# Zsh completion script for cascalc\n\n_cascalc() {\n    _arguments -s \\\n")
	for i, f := range flags {
		spec := fmt.Sprintf("'-%s[%s]", f.Name, f.Desc)
		switch {
		case f.Values == nil:
		case len(f.Values) == 0:
			spec += ":" + f.Name + ":"
		default:
			spec += ":" + f.Name + ":(" + strings.Join(f.Values, " ") + ")"
		}
		spec += "'"
		if i < len(flags)-1 {
			spec += " \\"
		}
		b.WriteString("        " + spec + "\n")
	}
	b.WriteString("}\n\n_cascalc \"$@\"\n")
	return b.String()
}

func fishCompletion(flags []completionFlag) string {
	var b strings.Builder
	b.WriteString("# Fish completion script for cascalc\n# Add this to ~/.config/fish/completions/cascalc.fish\n\ncomplete -c cascalc -f\n")
	for _, f := range flags {
		opt := "-l"
		if len(f.Name) == 1 {
			opt = "-s"
		}
		line := fmt.Sprintf("complete -c cascalc %s %s -d '%s'", opt, f.Name, f.Desc)
		switch {
		case f.Values == nil:
		case len(f.Values) == 0:
			line += " -x"
		default:
			line += fmt.Sprintf(" -xa '%s'", strings.Join(f.Values, " "))
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func powerShellCompletion(flags []completionFlag) string {
	var b strings.Builder
	b.WriteString("# PowerShell completion script for cascalc\n# Add this to your $PROFILE\n\n")
	b.WriteString("Register-ArgumentCompleter -CommandName 'cascalc' -Native -ScriptBlock {\n")
	b.WriteString("    param($wordToComplete, $commandAst, $cursorPosition)\n\n    $values = @{\n")
	for _, f := range flags {
		if len(f.Values) == 0 {
			continue
		}
		quoted := make([]string, len(f.Values))
		for i, v := range f.Values {
			quoted[i] = "'" + v + "'"
		}
		fmt.Fprintf(&b, "        '-%s' = @(%s)\n", f.Name, strings.Join(quoted, ", "))
	}
	b.WriteString("    }\n    $options = @(\n")
	for _, f := range flags {
		fmt.Fprintf(&b, "        @{Name = '-%s'; Description = '%s' }\n", f.Name, f.Desc)
	}
	b.WriteString("    )\n\n")
	b.WriteString("    $elements = $commandAst.CommandElements\n")
	b.WriteString("    $prev = if ($elements.Count -gt 2) { $elements[-2].ToString() } else { '' }\n")
	b.WriteString("    if ($values.ContainsKey($prev)) {\n")
	b.WriteString("        $values[$prev] | Where-Object { $_ -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("            [System.Management.Automation.CompletionResult]::new($_, $_, 'ParameterValue', $_)\n        }\n        return\n    }\n")
	b.WriteString("    $options | Where-Object { $_.Name -like \"$wordToComplete*\" } | ForEach-Object {\n")
	b.WriteString("        [System.Management.Automation.CompletionResult]::new($_.Name, $_.Name, 'ParameterName', $_.Description)\n    }\n}\n")
	return b.String()
}
