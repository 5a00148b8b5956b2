// Package propagation contains the two propagation strategies of the
// photon-ALP engine: the discrete transfer-matrix chain and the
// perturbative line-of-sight integral. Both are pure per call; every
// derived quantity lives in call-local values so independent
// (energy, direction) tuples can run concurrently without locks.
package propagation

import (
	"math"
	"math/rand/v2"

	"github.com/astrohep/alpflux/internal/geometry"
)

// OpticalDepth supplies the cumulative optical depth of the absorbing
// background toward a redshift, at a given energy. Implementations must
// be reentrant for concurrent reads; lookup failures (missing table,
// out-of-range query) are returned unchanged to the caller.
type OpticalDepth interface {
	// Tau returns the optical depth at redshift z for a photon observed
	// with energy energyTeV (TeV; absorption models are TeV-native, the
	// engine converts from its GeV energies at this boundary).
	Tau(z, energyTeV float64) (float64, error)
}

// FieldModel supplies the local magnetic field for spatially resolved
// propagation. Positions are galactocentric Cartesian in kpc, fields in
// micro-Gauss. Implementations must be reentrant for concurrent reads.
type FieldModel interface {
	FieldAt(pos geometry.Vector) geometry.Vector
}

// AngleFunc supplies the mixing angle of domain n (1-indexed) for media
// whose field orientation is not spatially resolved. ConstantAngle and
// RandomAngles cover the common cases.
type AngleFunc func(n int) float64

// ConstantAngle returns an AngleFunc with the same angle in every domain.
func ConstantAngle(psi float64) AngleFunc {
	return func(int) float64 { return psi }
}

// RandomAngles returns an AngleFunc drawing an independent uniform angle
// in [0, 2pi) per domain. The draw depends only on (seed, n), so repeated
// resolutions of the same path see the same realization and the function
// is safe for concurrent use.
func RandomAngles(seed uint64) AngleFunc {
	return func(n int) float64 {
		rng := rand.New(rand.NewPCG(seed, uint64(n)))
		return 2 * math.Pi * rng.Float64()
	}
}
