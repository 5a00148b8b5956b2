package orchestration

import (
	"bytes"
	"context"
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/astrohep/alpflux/internal/config"
	apperrors "github.com/astrohep/alpflux/internal/errors"
	"github.com/astrohep/alpflux/internal/propagation"
	"github.com/astrohep/alpflux/internal/testutil"
	"github.com/astrohep/alpflux/internal/ui"
)

// fakePropagator returns canned results keyed on the energy and counts
// its invocations.
type fakePropagator struct {
	calls  int64
	failAt float64
}

func (f *fakePropagator) Name() string { return "fake" }

func (f *fakePropagator) Propagate(ctx context.Context, energyGeV float64) (propagation.Result, error) {
	atomic.AddInt64(&f.calls, 1)
	if err := ctx.Err(); err != nil {
		return propagation.Result{}, err
	}
	if f.failAt != 0 && energyGeV == f.failAt {
		return propagation.Result{}, errors.New("synthetic point failure")
	}
	// Conversion grows with energy so the peak lands on the last point
	return propagation.Result{
		Mode:       propagation.ModeDiscrete,
		T:          0.5,
		U:          0.4,
		ALP:        energyGeV / 1e5,
		Conversion: energyGeV / 1e5,
	}, nil
}

func TestEnergyGrid(t *testing.T) {
	t.Parallel()

	t.Run("Endpoints", func(t *testing.T) {
		grid := EnergyGrid(10, 1e4, 50)
		if len(grid) != 50 {
			t.Fatalf("Expected 50 points, got %d", len(grid))
		}
		if math.Abs(grid[0]-10) > 1e-9 {
			t.Errorf("Expected first point 10, got %g", grid[0])
		}
		if math.Abs(grid[49]-1e4) > 1e-9 {
			t.Errorf("Expected last point 1e4, got %g", grid[49])
		}
	})

	t.Run("LogSpacing", func(t *testing.T) {
		grid := EnergyGrid(1, 1000, 4)
		// Successive ratios of a log-spaced grid are constant
		for i := 1; i < len(grid)-1; i++ {
			r1 := grid[i] / grid[i-1]
			r2 := grid[i+1] / grid[i]
			if math.Abs(r1-r2) > 1e-9 {
				t.Errorf("Expected constant ratio, got %g and %g", r1, r2)
			}
		}
	})

	t.Run("SinglePoint", func(t *testing.T) {
		grid := EnergyGrid(5, 1e4, 1)
		if len(grid) != 1 || grid[0] != 5 {
			t.Errorf("Expected [5], got %v", grid)
		}
	})

	t.Run("Empty", func(t *testing.T) {
		if grid := EnergyGrid(5, 1e4, 0); grid != nil {
			t.Errorf("Expected nil grid for count 0, got %v", grid)
		}
	})
}

func TestExecuteScan(t *testing.T) {
	t.Parallel()

	energies := EnergyGrid(10, 1e4, 8)
	fake := &fakePropagator{}
	results := ExecuteScan(context.Background(), fake, energies, 4, &bytes.Buffer{})

	if len(results) != len(energies) {
		t.Fatalf("Expected %d results, got %d", len(energies), len(results))
	}
	if got := atomic.LoadInt64(&fake.calls); got != int64(len(energies)) {
		t.Errorf("Expected %d propagator calls, got %d", len(energies), got)
	}
	// Results must line up with the grid regardless of completion order
	for i, res := range results {
		if res.EnergyGeV != energies[i] {
			t.Errorf("Result %d: expected energy %g, got %g", i, energies[i], res.EnergyGeV)
		}
		if res.Err != nil {
			t.Errorf("Result %d: unexpected error: %v", i, res.Err)
		}
	}
}

func TestExecuteScan_PointFailureDoesNotAbort(t *testing.T) {
	t.Parallel()

	energies := []float64{10, 20, 30}
	fake := &fakePropagator{failAt: 20}
	results := ExecuteScan(context.Background(), fake, energies, 2, &bytes.Buffer{})

	if results[1].Err == nil {
		t.Error("Expected an error on the failing point")
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Error("Expected the remaining points to succeed")
	}
}

func TestExecuteScan_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	energies := EnergyGrid(10, 1e4, 5)
	results := ExecuteScan(ctx, &fakePropagator{}, energies, 2, &bytes.Buffer{})

	for i, res := range results {
		if !errors.Is(res.Err, context.Canceled) {
			t.Errorf("Result %d: expected context.Canceled, got %v", i, res.Err)
		}
	}
}

func TestAnalyzeScanResults(t *testing.T) {
	ui.InitTheme(true)
	defer ui.SetCurrentTheme(ui.DarkTheme)

	mkResults := func(failAt float64) []PointResult {
		energies := []float64{10, 100, 1000}
		fake := &fakePropagator{failAt: failAt}
		return ExecuteScan(context.Background(), fake, energies, 1, &bytes.Buffer{})
	}

	t.Run("AllSuccess", func(t *testing.T) {
		var buf bytes.Buffer
		code := AnalyzeScanResults(mkResults(0), config.AppConfig{}, &buf)
		if code != apperrors.ExitSuccess {
			t.Errorf("Expected exit code %d, got %d", apperrors.ExitSuccess, code)
		}
		out := testutil.StripAnsiCodes(buf.String())
		if !strings.Contains(out, "Scan Summary") {
			t.Errorf("Expected a summary header, got:\n%s", out)
		}
		if !strings.Contains(out, "Peak conversion") || !strings.Contains(out, "1.0000e+03 GeV") {
			t.Errorf("Expected the peak at the last grid point, got:\n%s", out)
		}
		if !strings.Contains(out, "Global Status: Success") {
			t.Errorf("Expected global success, got:\n%s", out)
		}
	})

	t.Run("PartialFailure", func(t *testing.T) {
		var buf bytes.Buffer
		code := AnalyzeScanResults(mkResults(100), config.AppConfig{}, &buf)
		if code != apperrors.ExitErrorGeneric {
			t.Errorf("Expected exit code %d, got %d", apperrors.ExitErrorGeneric, code)
		}
		out := testutil.StripAnsiCodes(buf.String())
		if !strings.Contains(out, "Partial failure") || !strings.Contains(out, "synthetic point failure") {
			t.Errorf("Expected a partial-failure status with the first error, got:\n%s", out)
		}
	})

	t.Run("AllFailed", func(t *testing.T) {
		var buf bytes.Buffer
		results := []PointResult{
			{EnergyGeV: 10, Err: errors.New("synthetic point failure")},
		}
		code := AnalyzeScanResults(results, config.AppConfig{}, &buf)
		if code != apperrors.ExitErrorGeneric {
			t.Errorf("Expected exit code %d, got %d", apperrors.ExitErrorGeneric, code)
		}
		out := testutil.StripAnsiCodes(buf.String())
		if !strings.Contains(out, "No grid point could be computed") {
			t.Errorf("Expected an all-failed status, got:\n%s", out)
		}
	})

	t.Run("VerboseTable", func(t *testing.T) {
		var buf bytes.Buffer
		AnalyzeScanResults(mkResults(0), config.AppConfig{Verbose: true}, &buf)
		out := testutil.StripAnsiCodes(buf.String())
		if !strings.Contains(out, "Energy [GeV]") || !strings.Contains(out, "P(ALP)") {
			t.Errorf("Expected the full per-energy table, got:\n%s", out)
		}
	})
}
