package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/astrohep/alpflux/internal/cli"
	"github.com/astrohep/alpflux/internal/config"
	apperrors "github.com/astrohep/alpflux/internal/errors"
	"github.com/astrohep/alpflux/internal/orchestration"
	"github.com/astrohep/alpflux/internal/propagation"
	"github.com/astrohep/alpflux/internal/server"
	"github.com/astrohep/alpflux/internal/service"
	"github.com/astrohep/alpflux/internal/ui"
	"github.com/astrohep/alpflux/pkg/models"
)

// Application represents the alpscan application instance.
// It encapsulates the configuration and provides methods to run
// the application in various modes (CLI scan or HTTP server).
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// ErrWriter is the writer for error output (typically os.Stderr).
	ErrWriter io.Writer
}

// New creates a new Application instance by parsing command-line arguments.
// It validates the configuration and returns an error if parsing or validation fails.
//
// Parameters:
//   - args: The command-line arguments (typically os.Args).
//   - errWriter: The writer for error output.
//
// Returns:
//   - *Application: A new application instance.
//   - error: An error if configuration parsing or validation fails.
func New(args []string, errWriter io.Writer) (*Application, error) {
	// args[0] is program name, args[1:] are the actual arguments
	programName := "alpscan"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}

	return &Application{
		Config:    cfg,
		ErrWriter: errWriter,
	}, nil
}

// Run executes the application based on the configured mode.
// It dispatches to the appropriate handler (server or CLI scan).
//
// Parameters:
//   - ctx: The context for managing cancellation and timeouts.
//   - out: The writer for standard output.
//
// Returns:
//   - int: An exit code (0 for success, non-zero for errors).
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	// Initialize CLI theme (respects --no-color flag and NO_COLOR env var)
	ui.InitTheme(a.Config.NoColor)

	// Server mode
	if a.Config.ServerMode {
		return a.runServer()
	}

	// Standard CLI scan mode
	return a.runScan(ctx, out)
}

// runServer starts the HTTP server mode.
func (a *Application) runServer() int {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: a.ErrWriter}).
		With().Timestamp().Logger()
	scanner := &service.Scanner{
		Workers:  a.Config.Workers,
		Observer: propagation.NewLoggingObserver(logger),
	}
	srv := server.NewServer(scanner, a.Config, server.WithLogger(logger))
	if err := srv.Start(); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// ScanRequestFromConfig maps the CLI configuration onto the scan request
// shared with the HTTP API, so both entry points assemble propagators
// through the same code path.
//
// Parameters:
//   - cfg: The application configuration.
//
// Returns:
//   - models.ScanRequest: The equivalent scan request, including the
//     log-spaced energy grid.
func ScanRequestFromConfig(cfg config.AppConfig) models.ScanRequest {
	return models.ScanRequest{
		EnergiesGeV:     orchestration.EnergyGrid(cfg.EnergyMinGeV, cfg.EnergyMaxGeV, cfg.EnergyCount),
		Mode:            cfg.Mode,
		Medium:          cfg.Medium,
		Polarization:    cfg.Polarization,
		CouplingG11:     cfg.CouplingG11,
		MassNeV:         cfg.MassNeV,
		ElectronDensity: cfg.ElectronDensity,
		FieldMuG:        cfg.FieldMuG,
		CoherenceKpc:    cfg.CoherenceKpc,
		RadiusKpc:       cfg.RadiusKpc,
		DomainSizeMpc:   cfg.DomainSizeMpc,
		Xi:              cfg.Xi,
		Redshift:        cfg.Redshift,
		Lossless:        cfg.Lossless,
		GalLonDeg:       cfg.GalLonDeg,
		GalLatDeg:       cfg.GalLatDeg,
		PathKpc:         cfg.PathKpc,
		StepKpc:         cfg.StepKpc,
		RhoMaxKpc:       cfg.RhoMaxKpc,
		ZMaxKpc:         cfg.ZMaxKpc,
		Seed:            cfg.Seed,
	}
}

// runScan orchestrates the execution of the CLI scan command.
func (a *Application) runScan(ctx context.Context, out io.Writer) int {
	ctx, lifecycle := newScanLifecycle(ctx, a.Config.Timeout)
	defer lifecycle.Close()

	req := ScanRequestFromConfig(a.Config)

	scanner := &service.Scanner{Workers: a.Config.Workers}
	prop, err := scanner.BuildPropagator(req)
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Configuration error: %v\n", err)
		return apperrors.ExitErrorConfig
	}

	// Skip verbose output in quiet mode
	if !a.Config.JSONOutput && !a.Config.Quiet {
		cli.PrintScanConfig(a.Config, out)
		cli.PrintScanMode(a.Config, out)
	}

	// In quiet mode, use a discard writer for progress display
	progressOut := out
	if a.Config.Quiet || a.Config.JSONOutput {
		progressOut = io.Discard
	}

	start := time.Now()
	results := orchestration.ExecuteScan(ctx, prop, req.EnergiesGeV, a.Config.Workers, progressOut)
	response := buildScanResponse(req, results, time.Since(start))

	// Handle JSON output
	if a.Config.JSONOutput {
		return printJSONResults(response, out)
	}

	outputCfg := cli.OutputConfig{
		OutputFile: a.Config.OutputFile,
		Quiet:      a.Config.Quiet,
		Verbose:    a.Config.Verbose,
	}

	// Quiet mode skips the summary entirely and emits only the peak line
	if a.Config.Quiet {
		if err := cli.DisplayScanWithConfig(out, response, outputCfg); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error writing scan output: %v\n", err)
			return apperrors.ExitErrorGeneric
		}
		return quietExitCode(results)
	}

	exitCode := orchestration.AnalyzeScanResults(results, a.Config, out)
	if err := cli.DisplayScanWithConfig(out, response, outputCfg); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error writing scan output: %v\n", err)
		return apperrors.ExitErrorGeneric
	}

	return exitCode
}

// quietExitCode derives the exit code from the grid results without
// printing anything.
func quietExitCode(results []orchestration.PointResult) int {
	for _, res := range results {
		if res.Err != nil {
			return apperrors.ExitErrorGeneric
		}
	}
	return apperrors.ExitSuccess
}

// buildScanResponse assembles the wire-format response from the grid
// results, mirroring what the HTTP handler returns for the same request.
func buildScanResponse(req models.ScanRequest, results []orchestration.PointResult, elapsed time.Duration) models.ScanResponse {
	points := make([]models.ScanPoint, len(results))
	for i, res := range results {
		point := models.ScanPoint{
			EnergyGeV:      res.EnergyGeV,
			DurationMicros: res.Duration.Microseconds(),
		}
		if res.Err != nil {
			point.Error = res.Err.Error()
		} else {
			point.PhotonT = res.Res.T
			point.PhotonU = res.Res.U
			point.ALP = res.Res.ALP
			point.Conversion = res.Res.Conversion
			point.ValidityViolations = res.Res.ValidityViolations
		}
		points[i] = point
	}

	mode := req.Mode
	if mode == "" {
		mode = config.ModeDiscrete
	}
	medium := req.Medium
	if medium == "" {
		medium = config.MediumCluster
	}
	return models.ScanResponse{
		Mode:     mode,
		Medium:   medium,
		Points:   points,
		Duration: elapsed.String(),
	}
}

// printJSONResults encodes the scan response as indented JSON and writes
// it to the output. This is useful for programmatic consumption of the
// results.
func printJSONResults(response models.ScanResponse, out io.Writer) int {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(response); err != nil {
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// IsHelpError checks if the error is a help flag error (--help was used).
// This is useful for determining if the application should exit with success
// after displaying help text.
//
// Parameters:
//   - err: The error to check.
//
// Returns:
//   - bool: True if the error indicates help was requested.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}
