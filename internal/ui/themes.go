// Package ui holds the terminal palette shared by the usage text, the REPL
// and the batch printer.
package ui

import (
	"os"
	"sync"
)

// Theme maps each output role to an ANSI escape sequence.
type Theme struct {
	Name string
	// Primary highlights results and flag names.
	Primary string
	// Secondary dims defaults, durations and types.
	Secondary string
	Success   string
	Warning   string
	Error     string
	// Info marks prompts and banners.
	Info  string
	Bold  string
	Reset string
}

var (
	// DarkTheme suits dark terminal backgrounds.
	DarkTheme = Theme{
		Name:      "dark",
		Primary:   "\033[38;5;39m",
		Secondary: "\033[38;5;245m",
		Success:   "\033[38;5;82m",
		Warning:   "\033[38;5;220m",
		Error:     "\033[38;5;196m",
		Info:      "\033[38;5;141m",
		Bold:      "\033[1m",
		Reset:     "\033[0m",
	}

	// LightTheme suits light terminal backgrounds.
	LightTheme = Theme{
		Name:      "light",
		Primary:   "\033[38;5;27m",
		Secondary: "\033[38;5;240m",
		Success:   "\033[38;5;28m",
		Warning:   "\033[38;5;130m",
		Error:     "\033[38;5;124m",
		Info:      "\033[38;5;54m",
		Bold:      "\033[1m",
		Reset:     "\033[0m",
	}

	// NoColorTheme emits no escape sequences at all.
	NoColorTheme = Theme{Name: "none"}

	themes = map[string]Theme{
		DarkTheme.Name:    DarkTheme,
		LightTheme.Name:   LightTheme,
		NoColorTheme.Name: NoColorTheme,
	}

	current   = DarkTheme
	currentMu sync.RWMutex
)

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() Theme {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

// SetCurrentTheme replaces the active theme. Tests use it to restore state.
func SetCurrentTheme(t Theme) {
	currentMu.Lock()
	defer currentMu.Unlock()
	current = t
}

// SetTheme activates a theme by name ("dark", "light" or "none"), falling
// back to dark for unknown names.
func SetTheme(name string) {
	t, ok := themes[name]
	if !ok {
		t = DarkTheme
	}
	SetCurrentTheme(t)
}

// InitTheme picks the startup theme. Colors are off when noColor is true or
// the NO_COLOR variable is present with any value (https://no-color.org/).
//
// Parameters:
//   - noColor: Forces the colorless theme.
func InitTheme(noColor bool) {
	if _, set := os.LookupEnv("NO_COLOR"); noColor || set {
		SetCurrentTheme(NoColorTheme)
		return
	}
	SetCurrentTheme(DarkTheme)
}

// Paint wraps s in the given escape code and a reset, or returns s unchanged
// when the code is empty.
//
// Parameters:
//   - code: The ANSI escape to apply.
//   - s: The text to color.
//
// Returns:
//   - string: s wrapped in code and the reset sequence.
func (t Theme) Paint(code, s string) string {
	if code == "" {
		return s
	}
	return code + s + t.Reset
}

// ColorReset returns the reset sequence of the active theme.
func ColorReset() string { return GetCurrentTheme().Reset }

// ColorRed returns the error color of the active theme.
func ColorRed() string { return GetCurrentTheme().Error }

// ColorGreen returns the success color of the active theme.
func ColorGreen() string { return GetCurrentTheme().Success }

// ColorYellow returns the warning color of the active theme.
func ColorYellow() string { return GetCurrentTheme().Warning }

// ColorCyan returns the secondary color of the active theme.
func ColorCyan() string { return GetCurrentTheme().Secondary }
