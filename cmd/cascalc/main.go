// Command cascalc evaluates computer-algebra expressions from the command
// line, an interactive session, or an HTTP service.
package main

import (
	"context"
	"os"

	"github.com/agbru/casbridge/internal/app"
	apperrors "github.com/agbru/casbridge/internal/errors"
	"github.com/agbru/casbridge/pkg/cas"
)

func main() {
	os.Exit(run())
}

func run() int {
	if app.HasVersionFlag(os.Args[1:]) {
		app.PrintVersion(os.Stdout)
		return apperrors.ExitSuccess
	}

	application, err := app.New(os.Args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			return apperrors.ExitSuccess
		}
		return apperrors.ExitErrorConfig
	}
	defer cas.Teardown()

	return application.Run(context.Background(), os.Stdout)
}
