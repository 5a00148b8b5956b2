// Package config provides the configuration management for the alpscan application.
// This file contains environment variable utilities for configuration override.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

// getEnvString returns the value of the environment variable with the given key
// (prefixed with EnvPrefix), or the default value if not set.
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvUint64 returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as uint64, or the default value if not set
// or invalid.
func getEnvUint64(key string, defaultVal uint64) uint64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseUint(val, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvInt returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as int, or the default value if not set
// or invalid.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvFloat returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as float64, or the default value if not set
// or invalid.
func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as bool, or the default value if not set.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

// getEnvDuration returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as time.Duration, or the default value if not
// set or invalid. Accepts formats like "5m", "30s", "1h30m".
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// isFlagSet checks if a flag was explicitly set on the command line.
// This is used to determine whether to apply environment variable overrides.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
// This implements the priority: CLI flags > Environment variables > Defaults.
//
// Supported environment variables:
//   - ALPSCAN_ENERGY_MIN / ALPSCAN_ENERGY_MAX: Energy grid edges in GeV (float)
//   - ALPSCAN_ENERGIES: Number of energy grid points (int)
//   - ALPSCAN_MODE: Propagation strategy (string: discrete, continuous)
//   - ALPSCAN_MEDIUM: Traversed medium (string: cosmic, cluster, galactic)
//   - ALPSCAN_POLARIZATION: Beam polarization (string)
//   - ALPSCAN_COUPLING, ALPSCAN_MASS, ALPSCAN_DENSITY, ALPSCAN_FIELD,
//     ALPSCAN_COHERENCE, ALPSCAN_RADIUS, ALPSCAN_DOMAIN_SIZE, ALPSCAN_XI,
//     ALPSCAN_REDSHIFT, ALPSCAN_LON, ALPSCAN_LAT, ALPSCAN_PATH,
//     ALPSCAN_STEP, ALPSCAN_RHO_MAX, ALPSCAN_Z_MAX: Physical inputs (float)
//   - ALPSCAN_SEED: Random realization seed (uint64)
//   - ALPSCAN_WORKERS: Concurrent per-energy computations (int)
//   - ALPSCAN_TIMEOUT: Scan timeout (duration: "5m", "30s")
//   - ALPSCAN_PORT: Port for server mode (string)
//   - ALPSCAN_SERVER: Enable server mode (bool: true/false, 1/0, yes/no)
//   - ALPSCAN_JSON: Enable JSON output (bool)
//   - ALPSCAN_LOSSLESS: Disable cosmic absorption (bool)
//   - ALPSCAN_VERBOSE: Enable full per-energy table output (bool)
//   - ALPSCAN_QUIET: Enable quiet mode (bool)
//   - ALPSCAN_NO_COLOR: Disable colored output (bool)
//   - ALPSCAN_OUTPUT: Output file path (string)
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	applyNumericOverrides(config, fs)
	applyPhysicsOverrides(config, fs)
	applyStringOverrides(config, fs)
	applyBooleanOverrides(config, fs)
}

func applyNumericOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "energies") {
		config.EnergyCount = getEnvInt("ENERGIES", config.EnergyCount)
	}
	if !isFlagSet(fs, "workers") {
		config.Workers = getEnvInt("WORKERS", config.Workers)
	}
	if !isFlagSet(fs, "seed") {
		config.Seed = getEnvUint64("SEED", config.Seed)
	}
	if !isFlagSet(fs, "timeout") {
		config.Timeout = getEnvDuration("TIMEOUT", config.Timeout)
	}
}

func applyPhysicsOverrides(config *AppConfig, fs *flag.FlagSet) {
	floats := []struct {
		flag string
		env  string
		dst  *float64
	}{
		{"energy-min", "ENERGY_MIN", &config.EnergyMinGeV},
		{"energy-max", "ENERGY_MAX", &config.EnergyMaxGeV},
		{"coupling", "COUPLING", &config.CouplingG11},
		{"mass", "MASS", &config.MassNeV},
		{"density", "DENSITY", &config.ElectronDensity},
		{"field", "FIELD", &config.FieldMuG},
		{"coherence", "COHERENCE", &config.CoherenceKpc},
		{"radius", "RADIUS", &config.RadiusKpc},
		{"domain-size", "DOMAIN_SIZE", &config.DomainSizeMpc},
		{"xi", "XI", &config.Xi},
		{"redshift", "REDSHIFT", &config.Redshift},
		{"lon", "LON", &config.GalLonDeg},
		{"lat", "LAT", &config.GalLatDeg},
		{"path", "PATH", &config.PathKpc},
		{"step", "STEP", &config.StepKpc},
		{"rho-max", "RHO_MAX", &config.RhoMaxKpc},
		{"z-max", "Z_MAX", &config.ZMaxKpc},
	}
	for _, f := range floats {
		if !isFlagSet(fs, f.flag) {
			*f.dst = getEnvFloat(f.env, *f.dst)
		}
	}
}

func applyStringOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "mode") {
		config.Mode = getEnvString("MODE", config.Mode)
	}
	if !isFlagSet(fs, "medium") {
		config.Medium = getEnvString("MEDIUM", config.Medium)
	}
	if !isFlagSet(fs, "polarization") {
		config.Polarization = getEnvString("POLARIZATION", config.Polarization)
	}
	if !isFlagSet(fs, "port") {
		config.Port = getEnvString("PORT", config.Port)
	}
	if !isFlagSet(fs, "output") && !isFlagSet(fs, "o") {
		config.OutputFile = getEnvString("OUTPUT", config.OutputFile)
	}
}

func applyBooleanOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "server") {
		config.ServerMode = getEnvBool("SERVER", config.ServerMode)
	}
	if !isFlagSet(fs, "json") {
		config.JSONOutput = getEnvBool("JSON", config.JSONOutput)
	}
	if !isFlagSet(fs, "lossless") {
		config.Lossless = getEnvBool("LOSSLESS", config.Lossless)
	}
	if !isFlagSet(fs, "v") {
		config.Verbose = getEnvBool("VERBOSE", config.Verbose)
	}
	if !isFlagSet(fs, "quiet") && !isFlagSet(fs, "q") {
		config.Quiet = getEnvBool("QUIET", config.Quiet)
	}
	if !isFlagSet(fs, "no-color") {
		config.NoColor = getEnvBool("NO_COLOR", config.NoColor)
	}
}
