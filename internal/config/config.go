// Package config provides the configuration management for the alpscan
// application. It defines the data structure for the configuration,
// handles the parsing of command-line arguments, and performs validation
// on the configuration values.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	apperrors "github.com/astrohep/alpflux/internal/errors"
)

const (
	// EnvPrefix is the prefix for all environment variables used by
	// alpscan. Environment variables provide an alternative to CLI
	// flags for configuration, following the 12-Factor App methodology.
	EnvPrefix = "ALPSCAN_"
)

// Propagation modes and media accepted by the -mode and -medium flags.
const (
	ModeDiscrete   = "discrete"
	ModeContinuous = "continuous"

	MediumCosmic   = "cosmic"
	MediumCluster  = "cluster"
	MediumGalactic = "galactic"
)

// Default configuration values.
// These can be overridden via command-line flags or environment variables.
const (
	// DefaultEnergyMinGeV is the lower edge of the default energy grid.
	DefaultEnergyMinGeV = 10.0
	// DefaultEnergyMaxGeV is the upper edge of the default energy grid.
	DefaultEnergyMaxGeV = 1e4
	// DefaultEnergyCount is the default number of grid points.
	DefaultEnergyCount = 50
	// DefaultCouplingG11 is the default photon-ALP coupling in
	// 10^-11 GeV^-1.
	DefaultCouplingG11 = 1.0
	// DefaultMassNeV is the default ALP mass in neV.
	DefaultMassNeV = 1.0
	// DefaultElectronDensity is the default electron density in
	// 10^-3 cm^-3.
	DefaultElectronDensity = 1.0
	// DefaultFieldMuG is the default field strength in micro-Gauss.
	DefaultFieldMuG = 1.0
	// DefaultCoherenceKpc is the default field coherence length in kpc.
	DefaultCoherenceKpc = 10.0
	// DefaultRadiusKpc is the default cluster path length in kpc.
	DefaultRadiusKpc = 500.0
	// DefaultDomainSizeMpc is the default cosmological domain size.
	DefaultDomainSizeMpc = 5.0
	// DefaultXi is the default coupling-field product in
	// (10^-11 GeV^-1) * nG.
	DefaultXi = 1.0
	// DefaultRedshift is the default source redshift.
	DefaultRedshift = 0.1
	// DefaultStepKpc is the default line-of-sight sampling step.
	DefaultStepKpc = 0.05
	// DefaultRhoMaxKpc and DefaultZMaxKpc bound the galactic field
	// region.
	DefaultRhoMaxKpc = 20.0
	DefaultZMaxKpc   = 50.0
	// DefaultTimeout is the default scan timeout.
	DefaultTimeout = 5 * time.Minute
	// DefaultPort is the default server port.
	DefaultPort = "8080"
	// DefaultPolarization is the default beam polarization.
	DefaultPolarization = "unpolarized"
)

// AppConfig aggregates the application's configuration parameters, parsed
// from command-line flags. It encapsulates all settings that control a
// scan, from the energy grid and ALP parameters to output and server
// options.
type AppConfig struct {
	// EnergyMinGeV and EnergyMaxGeV delimit the log-spaced energy grid
	// in GeV.
	EnergyMinGeV float64
	EnergyMaxGeV float64
	// EnergyCount is the number of grid points.
	EnergyCount int
	// Mode selects the propagation strategy ("discrete" or
	// "continuous").
	Mode string
	// Medium selects the traversed medium ("cosmic", "cluster" or
	// "galactic").
	Medium string
	// Polarization of the incoming beam ("unpolarized", "t", "u",
	// "alp").
	Polarization string

	// CouplingG11 is the photon-ALP coupling in 10^-11 GeV^-1.
	CouplingG11 float64
	// MassNeV is the ALP mass in neV.
	MassNeV float64
	// ElectronDensity is the electron density in 10^-3 cm^-3.
	ElectronDensity float64
	// FieldMuG is the magnetic field strength in micro-Gauss.
	FieldMuG float64
	// CoherenceKpc is the field coherence length in kpc.
	CoherenceKpc float64
	// RadiusKpc is the cluster path length in kpc.
	RadiusKpc float64

	// DomainSizeMpc is the z = 0 cosmological domain size in Mpc.
	DomainSizeMpc float64
	// Xi is the coupling-field product in (10^-11 GeV^-1) * nG.
	Xi float64
	// Redshift is the source redshift.
	Redshift float64
	// Lossless disables background-light absorption in the cosmic
	// medium.
	Lossless bool

	// GalLonDeg and GalLatDeg aim the line of sight, degrees.
	GalLonDeg float64
	GalLatDeg float64
	// PathKpc overrides the galactic path length; zero derives it from
	// the field-region bounds.
	PathKpc float64
	// StepKpc is the sampling step of the continuous strategy.
	StepKpc float64
	// RhoMaxKpc and ZMaxKpc bound the galactic field region.
	RhoMaxKpc float64
	ZMaxKpc   float64
	// Seed fixes the random field/angle realization.
	Seed uint64

	// Timeout sets the maximum duration of a scan.
	Timeout time.Duration
	// Workers caps the concurrent per-energy computations; zero means
	// one per CPU.
	Workers int
	// JSONOutput, if true, outputs the scan in JSON format.
	JSONOutput bool
	// ServerMode, if true, starts the application as an HTTP server.
	ServerMode bool
	// Port specifies the port to listen on in server mode.
	Port string
	// NoColor, if true, disables all color output in the CLI.
	// Also respects the NO_COLOR environment variable.
	NoColor bool
	// OutputFile, if specified, saves the scan table to this file path.
	OutputFile string
	// Quiet mode - minimal output for scripting purposes.
	Quiet bool
	// Verbose, if true, prints the full per-energy table instead of a
	// summary.
	Verbose bool
}

// Validate checks the semantic consistency of the configuration
// parameters: ranges of the energy grid, positivity of the physical
// inputs and the validity of the mode/medium selection.
//
// Returns:
//   - error: An error of type ConfigError if the configuration is
//     invalid, nil otherwise.
func (c AppConfig) Validate() error {
	if c.EnergyMinGeV <= 0 {
		return apperrors.NewConfigError("minimum energy must be strictly positive: %g", c.EnergyMinGeV)
	}
	if c.EnergyMaxGeV < c.EnergyMinGeV {
		return apperrors.NewConfigError("maximum energy %g below minimum %g", c.EnergyMaxGeV, c.EnergyMinGeV)
	}
	if c.EnergyCount < 1 {
		return apperrors.NewConfigError("energy grid needs at least one point: %d", c.EnergyCount)
	}
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.Workers < 0 {
		return apperrors.NewConfigError("worker count cannot be negative: %d", c.Workers)
	}

	switch c.Mode {
	case ModeDiscrete:
	case ModeContinuous:
		if c.Medium != MediumGalactic {
			return apperrors.NewConfigError("continuous mode requires the galactic medium, got '%s'", c.Medium)
		}
	default:
		return apperrors.NewConfigError("unrecognized mode: '%s'. Valid modes are [%s, %s]",
			c.Mode, ModeDiscrete, ModeContinuous)
	}

	switch c.Medium {
	case MediumCosmic, MediumCluster, MediumGalactic:
	default:
		return apperrors.NewConfigError("unrecognized medium: '%s'. Valid media are [%s, %s, %s]",
			c.Medium, MediumCosmic, MediumCluster, MediumGalactic)
	}

	switch c.Polarization {
	case "unpolarized", "t", "u", "alp":
	default:
		return apperrors.NewConfigError("unrecognized polarization: '%s'. Valid values are [unpolarized, t, u, alp]", c.Polarization)
	}

	if c.CouplingG11 < 0 || c.MassNeV < 0 || c.ElectronDensity < 0 || c.FieldMuG < 0 {
		return apperrors.NewConfigError("physical parameters cannot be negative")
	}
	if c.CoherenceKpc <= 0 {
		return apperrors.NewConfigError("coherence length must be strictly positive: %g", c.CoherenceKpc)
	}
	if c.Medium == MediumCosmic && c.Redshift <= 0 {
		return apperrors.NewConfigError("source redshift must be strictly positive: %g", c.Redshift)
	}
	if c.Mode == ModeContinuous && c.StepKpc <= 0 {
		return apperrors.NewConfigError("sampling step must be strictly positive: %g", c.StepKpc)
	}
	return nil
}

// ParseConfig parses the command-line arguments and populates an
// AppConfig struct. It defines all the command-line flags, sets their
// default values, and handles the parsing process. After parsing, it
// performs validation on the resulting configuration.
//
// The function is designed to be testable by allowing the input
// arguments and output writer to be specified.
//
// Parameters:
//   - programName: The name of the program, used in the usage message.
//   - args: A slice of strings representing the command-line arguments
//     (typically os.Args[1:]).
//   - errorWriter: An io.Writer where parsing errors and usage
//     information will be printed.
//
// Returns:
//   - AppConfig: The populated configuration struct.
//   - error: An error if flag parsing fails or validation fails.
func ParseConfig(programName string, args []string, errorWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)

	config := AppConfig{}
	fs.Float64Var(&config.EnergyMinGeV, "energy-min", DefaultEnergyMinGeV, "Lower edge of the energy grid in GeV.")
	fs.Float64Var(&config.EnergyMaxGeV, "energy-max", DefaultEnergyMaxGeV, "Upper edge of the energy grid in GeV.")
	fs.IntVar(&config.EnergyCount, "energies", DefaultEnergyCount, "Number of log-spaced energy grid points.")
	fs.StringVar(&config.Mode, "mode", ModeDiscrete, "Propagation strategy: 'discrete' or 'continuous'.")
	fs.StringVar(&config.Medium, "medium", MediumCluster, "Traversed medium: 'cosmic', 'cluster' or 'galactic'.")
	fs.StringVar(&config.Polarization, "polarization", DefaultPolarization, "Beam polarization: 'unpolarized', 't', 'u' or 'alp'.")

	fs.Float64Var(&config.CouplingG11, "coupling", DefaultCouplingG11, "Photon-ALP coupling in 1e-11 GeV^-1.")
	fs.Float64Var(&config.MassNeV, "mass", DefaultMassNeV, "ALP mass in neV.")
	fs.Float64Var(&config.ElectronDensity, "density", DefaultElectronDensity, "Electron density in 1e-3 cm^-3.")
	fs.Float64Var(&config.FieldMuG, "field", DefaultFieldMuG, "Magnetic field strength in micro-Gauss.")
	fs.Float64Var(&config.CoherenceKpc, "coherence", DefaultCoherenceKpc, "Field coherence length in kpc.")
	fs.Float64Var(&config.RadiusKpc, "radius", DefaultRadiusKpc, "Cluster path length in kpc.")

	fs.Float64Var(&config.DomainSizeMpc, "domain-size", DefaultDomainSizeMpc, "Cosmological domain size at z=0 in Mpc.")
	fs.Float64Var(&config.Xi, "xi", DefaultXi, "Coupling-field product in (1e-11 GeV^-1)*nG for the cosmic medium.")
	fs.Float64Var(&config.Redshift, "redshift", DefaultRedshift, "Source redshift for the cosmic medium.")
	fs.BoolVar(&config.Lossless, "lossless", false, "Disable background-light absorption in the cosmic medium.")

	fs.Float64Var(&config.GalLonDeg, "lon", 0, "Galactic longitude of the line of sight in degrees.")
	fs.Float64Var(&config.GalLatDeg, "lat", 0, "Galactic latitude of the line of sight in degrees.")
	fs.Float64Var(&config.PathKpc, "path", 0, "Galactic path length in kpc (0 = derive from the field-region bounds).")
	fs.Float64Var(&config.StepKpc, "step", DefaultStepKpc, "Line-of-sight sampling step in kpc for continuous mode.")
	fs.Float64Var(&config.RhoMaxKpc, "rho-max", DefaultRhoMaxKpc, "Galactic field-region cylinder radius in kpc.")
	fs.Float64Var(&config.ZMaxKpc, "z-max", DefaultZMaxKpc, "Galactic field-region half-height in kpc.")
	fs.Uint64Var(&config.Seed, "seed", 0, "Seed for the random field/angle realization.")

	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time for the scan.")
	fs.IntVar(&config.Workers, "workers", 0, "Concurrent per-energy computations (0 = one per CPU).")
	fs.BoolVar(&config.JSONOutput, "json", false, "Output the scan in JSON format.")
	fs.BoolVar(&config.ServerMode, "server", false, "Start in HTTP server mode.")
	fs.StringVar(&config.Port, "port", DefaultPort, "Port to listen on in server mode.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.StringVar(&config.OutputFile, "output", "", "Output file path for the scan table.")
	fs.StringVar(&config.OutputFile, "o", "", "Output file path (shorthand).")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode - minimal output for scripts.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.Verbose, "v", false, "Display the full per-energy table.")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	// Apply environment variable overrides for flags not explicitly set
	applyEnvOverrides(&config, fs)

	config.Mode = strings.ToLower(config.Mode)
	config.Medium = strings.ToLower(config.Medium)
	config.Polarization = strings.ToLower(config.Polarization)
	if err := config.Validate(); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, errors.New("invalid configuration")
	}
	return config, nil
}

// setCustomUsage installs a grouped usage message on the flag set.
func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "Usage: %s [options]\n\n", fs.Name())
		fmt.Fprintf(out, "Photon-ALP conversion probability scans over an energy grid.\n\n")
		fmt.Fprintf(out, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(out, "\nEnvironment variables with the %s prefix override defaults for\n", EnvPrefix)
		fmt.Fprintf(out, "flags not given on the command line, e.g. %sMEDIUM=galactic.\n", EnvPrefix)
	}
}
