package app

import (
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/agbru/casbridge/internal/engine"
)

// Build-time variables set via -ldflags, for example:
//
//	go build -ldflags="-X github.com/agbru/casbridge/internal/app.Version=v0.3.0 -X github.com/agbru/casbridge/internal/app.Commit=abc123" ./cmd/cascalc
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// HasVersionFlag reports whether args contain a version flag in any
// position, so "cascalc -server -version" still prints the version.
//
// Parameters:
//   - args: The command-line arguments without the program name.
//
// Returns:
//   - bool: True if --version, -version or -V is present.
func HasVersionFlag(args []string) bool {
	for _, arg := range args {
		switch arg {
		case "--version", "-version", "-V":
			return true
		}
	}
	return false
}

// VersionData is the machine-readable form of PrintVersion.
type VersionData struct {
	Version   string   `json:"version"`
	Commit    string   `json:"commit"`
	BuildDate string   `json:"build_date"`
	GoVersion string   `json:"go_version"`
	OS        string   `json:"os"`
	Arch      string   `json:"arch"`
	Backends  []string `json:"factorial_backends"`
}

// GetVersionInfo returns the build and runtime information.
//
// Returns:
//   - VersionData: The build metadata and registered backends.
func GetVersionInfo() VersionData {
	return VersionData{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Backends:  engine.FactorialBackends().List(),
	}
}

// PrintVersion writes the version block to out.
//
// Parameters:
//   - out: The writer for the version banner.
func PrintVersion(out io.Writer) {
	v := GetVersionInfo()
	fmt.Fprintf(out, "cascalc %s\n", v.Version)
	fmt.Fprintf(out, "  Commit:     %s\n", v.Commit)
	fmt.Fprintf(out, "  Built:      %s\n", v.BuildDate)
	fmt.Fprintf(out, "  Go version: %s\n", v.GoVersion)
	fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", v.OS, v.Arch)
	fmt.Fprintf(out, "  Backends:   %s\n", strings.Join(v.Backends, ", "))
}
