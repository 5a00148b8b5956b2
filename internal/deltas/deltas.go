// Package deltas provides the local mixing terms of the photon-ALP system.
//
// Each term is a momentum difference ("Delta") entering the 3x3 mixing
// matrix, evaluated for a homogeneous patch of medium. All terms are
// returned in inverse kiloparsec so that multiplying by a path length in
// kpc yields a dimensionless phase. The input unit conventions are fixed
// at this boundary and used consistently by every caller:
//
//   - photon energy E in GeV
//   - magnetic field B in micro-Gauss
//   - electron density n in 10^-3 cm^-3
//   - ALP mass m in neV
//   - photon-ALP coupling g in 10^-11 GeV^-1
//
// The numeric prefactors fold the natural-unit conversion (1 eV ~ 1.57e26
// kpc^-1) into each expression.
package deltas

import "math"

// Numeric prefactors of the mixing terms, in kpc^-1 at the reference
// units documented in the package comment.
const (
	// PlasmaPrefactor scales the plasma frequency term
	// Delta_pl = -omega_pl^2 / (2E).
	PlasmaPrefactor = -1.1e-7
	// QEDPrefactor scales the QED vacuum birefringence term
	// Delta_QED = (alpha/45pi) (B/B_crit)^2 E.
	QEDPrefactor = 4.1e-9
	// CouplingPrefactor scales the photon-ALP mixing term
	// Delta_ag = g B / 2.
	CouplingPrefactor = 1.52e-2
	// MassPrefactor scales the ALP mass term Delta_a = -m^2 / (2E).
	MassPrefactor = -7.8e-2
)

// Weights of the QED term for the two photon polarizations. The
// perpendicular mode picks up twice the birefringence term, the parallel
// mode 7/2 of it.
const (
	qedWeightPerp = 2.0
	qedWeightPar  = 3.5
)

// Plasma returns the plasma term Delta_pl in kpc^-1.
//
// Parameters:
//   - n: The electron density in 10^-3 cm^-3.
//   - energyGeV: The photon energy in GeV.
//
// Returns:
//   - float64: The plasma term (negative for positive density).
func Plasma(n, energyGeV float64) float64 {
	return PlasmaPrefactor * n / energyGeV
}

// QED returns the vacuum birefringence term Delta_QED in kpc^-1 for a
// transverse field strength B in micro-Gauss.
//
// Parameters:
//   - b: The transverse magnetic field strength in micro-Gauss.
//   - energyGeV: The photon energy in GeV.
//
// Returns:
//   - float64: The QED dispersion term.
func QED(b, energyGeV float64) float64 {
	return QEDPrefactor * energyGeV * b * b
}

// Coupling returns the photon-ALP mixing term Delta_ag in kpc^-1.
// The field argument is the projection of the transverse field onto one
// polarization direction and may be negative; the sign is carried through
// since it matters for the line-of-sight kernels.
//
// Parameters:
//   - g: The photon-ALP coupling in 10^-11 GeV^-1.
//   - b: The projected magnetic field in micro-Gauss.
//
// Returns:
//   - float64: The coupling term.
func Coupling(g, b float64) float64 {
	return CouplingPrefactor * g * b
}

// Mass returns the ALP mass term Delta_a in kpc^-1.
//
// Parameters:
//   - m: The ALP mass in neV.
//   - energyGeV: The photon energy in GeV.
//
// Returns:
//   - float64: The mass term (always non-positive).
func Mass(m, energyGeV float64) float64 {
	return MassPrefactor * m * m / energyGeV
}

// Perp returns the full dispersion term of the perpendicular photon
// polarization, Delta_pl + 2 Delta_QED.
func Perp(n, b, energyGeV float64) float64 {
	return Plasma(n, energyGeV) + qedWeightPerp*QED(b, energyGeV)
}

// Par returns the full dispersion term of the parallel photon
// polarization, Delta_pl + 3.5 Delta_QED.
func Par(n, b, energyGeV float64) float64 {
	return Plasma(n, energyGeV) + qedWeightPar*QED(b, energyGeV)
}

// Oscillation returns the closed-form diagonalization pair of the 2x2
// (parallel photon, ALP) sub-system: the oscillation wave number
// Dosc = sqrt((Dpar - Da)^2 + 4 Dag^2) and the mixing angle
// alpha = 1/2 atan(2 Dag / (Dpar - Da)).
//
// When Dpar == Da the system is at resonance and alpha is pi/4 by
// continuity (atan2 handles the limit).
//
// Parameters:
//   - dpar: The parallel dispersion term in kpc^-1.
//   - da: The ALP mass term in kpc^-1.
//   - dag: The coupling term in kpc^-1.
//
// Returns:
//   - dosc: The oscillation wave number in kpc^-1.
//   - alpha: The mixing angle in radians.
func Oscillation(dpar, da, dag float64) (dosc, alpha float64) {
	diff := dpar - da
	dosc = math.Sqrt(diff*diff + 4.0*dag*dag)
	alpha = 0.5 * math.Atan2(2.0*dag, diff)
	return dosc, alpha
}
