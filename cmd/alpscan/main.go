// Command alpscan computes photon-ALP conversion probabilities over a
// log-spaced energy grid, either as a one-shot CLI scan or as an HTTP
// service.
package main

import (
	"context"
	"os"

	"github.com/astrohep/alpflux/internal/app"
	apperrors "github.com/astrohep/alpflux/internal/errors"
)

func main() {
	os.Exit(run(os.Args))
}

// run wires the process arguments to the application and returns the
// exit code. Keeping main a one-liner makes the wiring testable.
func run(args []string) int {
	// --version works in any position and short-circuits everything else
	if app.HasVersionFlag(args[1:]) {
		app.PrintVersion(os.Stdout)
		return apperrors.ExitSuccess
	}

	application, err := app.New(args, os.Stderr)
	if err != nil {
		if app.IsHelpError(err) {
			return apperrors.ExitSuccess
		}
		return apperrors.ExitErrorConfig
	}

	return application.Run(context.Background(), os.Stdout)
}
