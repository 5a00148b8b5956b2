/*
Package models defines the shared data transfer structures of the alpscan
API surface.

These models are used for:
  - **HTTP API**: request and response payloads of the scan endpoint.
  - **JSON output**: the CLI's machine-readable scan export.
*/
package models

// ScanRequest describes one conversion-probability scan: the energy grid,
// the propagation strategy, the traversed medium and the ALP parameters.
// Zero-valued physical fields are filled with the server defaults.
type ScanRequest struct {
	// EnergiesGeV is the observed photon energy grid in GeV.
	EnergiesGeV []float64 `json:"energies_gev"`
	// Mode selects the strategy: "discrete" or "continuous".
	Mode string `json:"mode"`
	// Medium selects the traversed medium: "cosmic", "cluster" or
	// "galactic".
	Medium string `json:"medium"`
	// Polarization of the incoming beam: "unpolarized", "t", "u" or
	// "alp".
	Polarization string `json:"polarization,omitempty"`

	// CouplingG11 is the photon-ALP coupling in 10^-11 GeV^-1.
	CouplingG11 float64 `json:"coupling_g11,omitempty"`
	// MassNeV is the ALP mass in neV.
	MassNeV float64 `json:"mass_nev,omitempty"`
	// ElectronDensity is the electron density in 10^-3 cm^-3.
	ElectronDensity float64 `json:"electron_density,omitempty"`
	// FieldMuG is the magnetic field strength in micro-Gauss.
	FieldMuG float64 `json:"field_mug,omitempty"`
	// CoherenceKpc is the field coherence length in kpc.
	CoherenceKpc float64 `json:"coherence_kpc,omitempty"`
	// RadiusKpc is the cluster path length in kpc (cluster medium).
	RadiusKpc float64 `json:"radius_kpc,omitempty"`

	// DomainSizeMpc is the z = 0 domain size in Mpc (cosmic medium).
	DomainSizeMpc float64 `json:"domain_size_mpc,omitempty"`
	// Xi is the coupling-field product in (10^-11 GeV^-1) * nG (cosmic
	// medium).
	Xi float64 `json:"xi,omitempty"`
	// Redshift is the source redshift (cosmic medium).
	Redshift float64 `json:"redshift,omitempty"`
	// Lossless disables background-light absorption (cosmic medium).
	Lossless bool `json:"lossless,omitempty"`

	// GalLonDeg, GalLatDeg aim the line of sight in galactic
	// coordinates, degrees (galactic medium).
	GalLonDeg float64 `json:"gal_lon_deg,omitempty"`
	GalLatDeg float64 `json:"gal_lat_deg,omitempty"`
	// PathKpc overrides the path length in kpc; zero derives it from
	// the field-region bounds (galactic medium).
	PathKpc float64 `json:"path_kpc,omitempty"`
	// StepKpc is the sampling step of the continuous strategy in kpc.
	StepKpc float64 `json:"step_kpc,omitempty"`
	// RhoMaxKpc and ZMaxKpc bound the galactic field region (cylinder
	// radius and half-height in kpc) when PathKpc is not given.
	RhoMaxKpc float64 `json:"rho_max_kpc,omitempty"`
	ZMaxKpc   float64 `json:"z_max_kpc,omitempty"`
	// Seed fixes the turbulent field realization.
	Seed uint64 `json:"seed,omitempty"`
}

// ScanPoint is the scan outcome at one energy.
type ScanPoint struct {
	// EnergyGeV is the observed photon energy in GeV.
	EnergyGeV float64 `json:"energy_gev"`
	// PhotonT, PhotonU, ALP are the channel probabilities (discrete
	// mode).
	PhotonT float64 `json:"p_t"`
	PhotonU float64 `json:"p_u"`
	ALP     float64 `json:"p_alp"`
	// Conversion is the photon-to-ALP conversion probability.
	Conversion float64 `json:"conversion"`
	// ValidityViolations counts perturbation-bound violations
	// (continuous mode).
	ValidityViolations int `json:"validity_violations,omitempty"`
	// DurationMicros is the per-point compute time in microseconds.
	DurationMicros int64 `json:"duration_us"`
	// Error is the per-point failure, if any.
	Error string `json:"error,omitempty"`
}

// ScanResponse is the payload returned by the scan endpoint and by the
// CLI's JSON output.
type ScanResponse struct {
	// Mode and Medium echo the effective strategy and medium.
	Mode   string `json:"mode"`
	Medium string `json:"medium"`
	// Points are the per-energy outcomes, in grid order.
	Points []ScanPoint `json:"points"`
	// Duration is the wall-clock time of the whole scan.
	Duration string `json:"duration"`
}

// ErrorResponse is the standardized error payload of the HTTP API.
type ErrorResponse struct {
	// Error is the HTTP status text.
	Error string `json:"error"`
	// Message is the human-readable cause.
	Message string `json:"message"`
}
