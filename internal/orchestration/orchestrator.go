// Package orchestration coordinates the concurrent execution of a
// conversion-probability scan over an energy grid and summarizes the
// outcome for the terminal.
package orchestration

import (
	"context"
	"fmt"
	"io"
	"math"
	"runtime"
	"sync"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/astrohep/alpflux/internal/cli"
	"github.com/astrohep/alpflux/internal/config"
	apperrors "github.com/astrohep/alpflux/internal/errors"
	"github.com/astrohep/alpflux/internal/parallel"
	"github.com/astrohep/alpflux/internal/propagation"
	"github.com/astrohep/alpflux/internal/ui"
)

// PointResult encapsulates the outcome of one propagation at one energy.
// It serves as a standardized container for results across the grid,
// facilitating summary and reporting.
type PointResult struct {
	// EnergyGeV is the observed photon energy of this grid point.
	EnergyGeV float64
	// Res holds the channel probabilities or kernel intensities. It is
	// only meaningful when Err is nil.
	Res propagation.Result
	// Duration is the time taken to compute this point.
	Duration time.Duration
	// Err contains any error that occurred during the propagation.
	Err error
}

// ProgressBufferMultiplier defines the buffer size multiplier for the
// progress channel. A larger buffer reduces the likelihood of blocking
// worker goroutines when the UI is slow to consume updates.
const ProgressBufferMultiplier = 5

// EnergyGrid builds a logarithmically spaced energy grid in GeV.
//
// Parameters:
//   - minGeV, maxGeV: The grid edges; both must be strictly positive.
//   - count: The number of points.
//
// Returns:
//   - []float64: The grid, from minGeV to maxGeV inclusive.
func EnergyGrid(minGeV, maxGeV float64, count int) []float64 {
	if count <= 0 {
		return nil
	}
	if count == 1 {
		return []float64{minGeV}
	}
	grid := make([]float64, count)
	floats.LogSpan(grid, minGeV, maxGeV)
	return grid
}

// ExecuteScan runs a propagator over every energy in the grid, with a
// bounded number of concurrent workers.
//
// It manages the lifecycle of the worker goroutines, collects the
// per-point results, and coordinates the display of progress updates.
// Per-point failures are recorded in the corresponding PointResult and
// never abort the rest of the scan; only context cancellation stops the
// remaining work.
//
// Parameters:
//   - ctx: The context for managing cancellation and deadlines.
//   - prop: The propagation strategy to run at each energy.
//   - energies: The energy grid in GeV.
//   - workers: Maximum concurrent computations (0 means one per CPU).
//   - out: The io.Writer for displaying progress updates.
//
// Returns:
//   - []PointResult: One result per grid point, in grid order.
func ExecuteScan(ctx context.Context, prop propagation.Propagator, energies []float64, workers int, out io.Writer) []PointResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	results := make([]PointResult, len(energies))
	progressChan := make(chan struct{}, len(energies)+ProgressBufferMultiplier)

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go cli.DisplayProgress(&displayWg, progressChan, len(energies), out)

	for i, energy := range energies {
		idx, e := i, energy
		g.Go(func() error {
			startTime := time.Now()
			res, err := prop.Propagate(ctx, e)
			results[idx] = PointResult{
				EnergyGeV: e, Res: res, Duration: time.Since(startTime), Err: err,
			}
			progressChan <- struct{}{}
			return nil
		})
	}

	g.Wait()
	close(progressChan)
	displayWg.Wait()

	return results
}

// AnalyzeScanResults processes the per-point results of a finished scan
// and generates a summary report.
//
// It reports the peak conversion probability and its energy, the number
// of failed points and of perturbative validity violations, and, in
// verbose mode, the full per-energy table. It determines the global exit
// code from the individual outcomes.
//
// Parameters:
//   - results: The per-point results to analyze.
//   - cfg: The application configuration.
//   - out: The io.Writer for the summary report.
//
// Returns:
//   - int: An exit code indicating success (0) or the type of failure.
func AnalyzeScanResults(results []PointResult, cfg config.AppConfig, out io.Writer) int {
	var collector parallel.ErrorCollector
	successCount := 0
	violations := 0
	peakIdx := -1
	peak := math.Inf(-1)
	var totalDuration time.Duration

	for i, res := range results {
		if res.Err != nil {
			collector.SetError(res.Err)
			continue
		}
		successCount++
		violations += res.Res.ValidityViolations
		totalDuration += res.Duration
		if res.Res.Conversion > peak {
			peak = res.Res.Conversion
			peakIdx = i
		}
	}

	if successCount == 0 {
		fmt.Fprintf(out, "\nGlobal Status: Failure. No grid point could be computed.\n")
		return apperrors.HandleScanError(collector.Err(), 0, out, cli.CLIColorProvider{})
	}

	fmt.Fprintf(out, "\n--- Scan Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "Points computed\t%s%d / %d%s\n",
		ui.ColorCyan(), successCount, len(results), ui.ColorReset())
	fmt.Fprintf(tw, "Peak conversion\t%s%.4e%s at %s%.4e GeV%s\n",
		ui.ColorGreen(), peak, ui.ColorReset(),
		ui.ColorMagenta(), results[peakIdx].EnergyGeV, ui.ColorReset())
	if violations > 0 {
		fmt.Fprintf(tw, "Validity violations\t%s%d%s\n", ui.ColorYellow(), violations, ui.ColorReset())
	}
	fmt.Fprintf(tw, "Compute time (sum)\t%s%s%s\n",
		ui.ColorYellow(), cli.FormatExecutionDuration(totalDuration), ui.ColorReset())
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}

	if cfg.Verbose {
		writePointTable(results, out)
	}

	if err := collector.Err(); err != nil {
		fmt.Fprintf(out, "\nGlobal Status: Partial failure. %d point(s) failed, first error: %v\n",
			len(results)-successCount, err)
		return apperrors.ExitErrorGeneric
	}

	fmt.Fprintf(out, "\nGlobal Status: Success. All grid points computed.\n")
	return apperrors.ExitSuccess
}

// writePointTable renders the full per-energy table.
func writePointTable(results []PointResult, out io.Writer) {
	fmt.Fprintf(out, "\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sEnergy [GeV]%s\t%sP(t)%s\t%sP(u)%s\t%sP(ALP)%s\t%sConversion%s\t%sStatus%s\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset())

	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(tw, "%.4e\t-\t-\t-\t-\t%s❌ %v%s\n",
				res.EnergyGeV, ui.ColorRed(), res.Err, ui.ColorReset())
			continue
		}
		status := fmt.Sprintf("%s✅%s", ui.ColorGreen(), ui.ColorReset())
		if res.Res.ValidityViolations > 0 {
			status = fmt.Sprintf("%s⚠ %d violation(s)%s",
				ui.ColorYellow(), res.Res.ValidityViolations, ui.ColorReset())
		}
		fmt.Fprintf(tw, "%.4e\t%.4e\t%.4e\t%.4e\t%.4e\t%s\n",
			res.EnergyGeV, res.Res.T, res.Res.U, res.Res.ALP, res.Res.Conversion, status)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}
}
