package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/astrohep/alpflux/internal/config"
	"github.com/astrohep/alpflux/internal/ui"
)

// PrintScanConfig displays the current scan configuration to the user.
// It shows the energy grid, the ALP parameters relevant to the selected
// medium and the environment details.
//
// Parameters:
//   - cfg: The application configuration.
//   - out: The writer for standard output.
func PrintScanConfig(cfg config.AppConfig, out io.Writer) {
	writeOut(out, "--- Scan Configuration ---\n")
	writeOut(out, "Scanning %s%d%s energies from %s%.4g%s to %s%.4g%s GeV with a timeout of %s%s%s.\n",
		ColorMagenta(), cfg.EnergyCount, ColorReset(),
		ColorYellow(), cfg.EnergyMinGeV, ColorReset(),
		ColorYellow(), cfg.EnergyMaxGeV, ColorReset(),
		ColorYellow(), cfg.Timeout, ColorReset())
	writeOut(out, "ALP parameters: g=%s%.4g%s (10^-11 GeV^-1), m=%s%.4g%s neV.\n",
		ColorCyan(), cfg.CouplingG11, ColorReset(),
		ColorCyan(), cfg.MassNeV, ColorReset())
	writeOut(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n",
		ColorCyan(), runtime.NumCPU(), ColorReset(),
		ColorCyan(), runtime.Version(), ColorReset())
}

// PrintScanMode displays the propagation strategy and traversed medium.
//
// Parameters:
//   - cfg: The application configuration.
//   - out: The writer for standard output.
func PrintScanMode(cfg config.AppConfig, out io.Writer) {
	theme := ui.GetCurrentTheme()
	var modeDesc string
	if cfg.Mode == config.ModeContinuous {
		modeDesc = "Perturbative line-of-sight integral"
	} else {
		modeDesc = "Transfer-matrix domain chain"
	}
	writeOut(out, "Propagation: %s through the %s medium.\n",
		ui.Colorize(theme.Success, modeDesc),
		ui.Colorize(theme.Secondary, cfg.Medium))
	writeOut(out, "\n--- Starting Scan ---\n")
}

// writeOut writes a formatted string to the output writer.
//
// Parameters:
//   - out: The destination writer.
//   - format: The format string (see fmt.Printf).
//   - a: Arguments for the format string.
func writeOut(out io.Writer, format string, a ...any) {
	fmt.Fprintf(out, format, a...)
}
