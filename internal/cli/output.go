// Package cli provides output utilities for exporting scan results.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/astrohep/alpflux/pkg/models"
)

// OutputConfig holds configuration for scan result output.
type OutputConfig struct {
	// OutputFile is the path to save the scan table (empty for no file output).
	OutputFile string
	// Quiet mode suppresses everything but a single machine-readable line.
	Quiet bool
	// Verbose shows the full per-energy table on the terminal.
	Verbose bool
}

// PeakPoint returns the scan point with the highest conversion probability.
// Points that carry a per-point error are skipped.
//
// Parameters:
//   - points: The scan points to search.
//
// Returns:
//   - models.ScanPoint: The point with the maximum conversion probability.
//   - bool: False if every point failed or the slice is empty.
func PeakPoint(points []models.ScanPoint) (models.ScanPoint, bool) {
	var peak models.ScanPoint
	found := false
	for _, p := range points {
		if p.Error != "" {
			continue
		}
		if !found || p.Conversion > peak.Conversion {
			peak = p
			found = true
		}
	}
	return peak, found
}

// WriteScanToFile writes a scan table to a file, preceded by a commented
// header describing the run.
//
// Parameters:
//   - resp: The completed scan.
//   - config: Output configuration.
//
// Returns:
//   - error: An error if the file cannot be written.
func WriteScanToFile(resp models.ScanResponse, config OutputConfig) error {
	if config.OutputFile == "" {
		return nil
	}

	// Ensure directory exists
	dir := filepath.Dir(config.OutputFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(config.OutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "# Photon-ALP Conversion Scan\n")
	fmt.Fprintf(file, "# Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(file, "# Mode: %s\n", resp.Mode)
	fmt.Fprintf(file, "# Medium: %s\n", resp.Medium)
	fmt.Fprintf(file, "# Duration: %s\n", resp.Duration)
	fmt.Fprintf(file, "# Points: %d\n", len(resp.Points))
	fmt.Fprintf(file, "#\n")
	fmt.Fprintf(file, "# energy_gev\tp_t\tp_u\tp_alp\tconversion\n")

	for _, p := range resp.Points {
		if p.Error != "" {
			fmt.Fprintf(file, "# %.6e\tFAILED: %s\n", p.EnergyGeV, p.Error)
			continue
		}
		fmt.Fprintf(file, "%.6e\t%.6e\t%.6e\t%.6e\t%.6e\n",
			p.EnergyGeV, p.PhotonT, p.PhotonU, p.ALP, p.Conversion)
	}
	return nil
}

// FormatQuietResult formats a scan for quiet mode output.
// Returns a single line with the peak conversion energy and probability,
// suitable for scripting.
//
// Parameters:
//   - resp: The completed scan.
//
// Returns:
//   - string: The formatted result string.
func FormatQuietResult(resp models.ScanResponse) string {
	peak, ok := PeakPoint(resp.Points)
	if !ok {
		return "no valid points"
	}
	return fmt.Sprintf("%.6e %.6e", peak.EnergyGeV, peak.Conversion)
}

// DisplayScanWithConfig displays a completed scan with the given output
// configuration. This is the unified entry point that handles all output
// modes: quiet single-line output, terminal summary, and file export.
//
// Parameters:
//   - out: The output writer.
//   - resp: The completed scan.
//   - config: Output configuration.
//
// Returns:
//   - error: An error if file output fails.
func DisplayScanWithConfig(out io.Writer, resp models.ScanResponse, config OutputConfig) error {
	if config.Quiet {
		fmt.Fprintln(out, FormatQuietResult(resp))
	}

	if config.OutputFile != "" {
		if err := WriteScanToFile(resp, config); err != nil {
			return err
		}
		if !config.Quiet {
			fmt.Fprintf(out, "\n%s✓ Scan saved to: %s%s%s\n",
				ColorGreen(), ColorCyan(), config.OutputFile, ColorReset())
		}
	}
	return nil
}
