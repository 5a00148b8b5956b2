package propagation

import (
	"context"

	"github.com/astrohep/alpflux/internal/mixing"
)

// Mode identifies which propagation strategy produced a Result.
type Mode int

const (
	// ModeDiscrete is the transfer-matrix chain over coherence domains.
	ModeDiscrete Mode = iota
	// ModeContinuous is the perturbative line-of-sight integral.
	ModeContinuous
)

// String returns the flag-style name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeDiscrete:
		return "discrete"
	case ModeContinuous:
		return "continuous"
	default:
		return "unknown"
	}
}

// Result is the outcome of one propagation call at one energy.
//
// Discrete mode fills the three channel probabilities; continuous mode
// fills the kernel intensities. Conversion is the headline
// photon-to-ALP figure in both modes. Continuous-mode values are NOT
// clamped to [0, 1]: where the perturbative assumption breaks down they
// may legitimately exceed physical bounds, and the violation count is
// the signal to distrust them. Clamping is left to the caller as a
// documented policy decision.
type Result struct {
	// Mode records the strategy that produced this result.
	Mode Mode

	// T, U, ALP are the discrete-mode channel probabilities.
	T, U, ALP float64

	// IT, IU are the continuous-mode squared kernel integrals for the
	// two transverse polarizations; ICross is the real cross term.
	IT, IU, ICross float64

	// Conversion is the photon-to-ALP conversion probability.
	Conversion float64

	// ValidityViolations counts the contiguous path regions where the
	// perturbation bound was exceeded (continuous mode only).
	ValidityViolations int
}

// Propagator computes conversion probabilities for a single energy along
// a fixed line of sight. The two implementations, ChainPropagator and
// PerturbativePropagator, are genuinely different algorithms with
// different validity regimes and are kept as explicit strategies rather
// than one unified code path.
//
// Implementations are pure per call: no state is shared across calls, so
// one Propagator value may be used concurrently for independent
// energies.
type Propagator interface {
	// Name returns a descriptive name of the strategy.
	Name() string
	// Propagate computes the conversion result at an observed energy in
	// GeV. The context is consulted between domains or samples so long
	// paths can be abandoned early.
	Propagate(ctx context.Context, energyGeV float64) (Result, error)
}

// InitialState values for ChainPropagator. Re-exported from the mixing
// package so callers assembling a propagation do not need a second
// import for the common cases.
var (
	// Unpolarized is an unpolarized photon beam.
	Unpolarized = mixing.DensityUnpolarized()
	// PolarizedT is a beam fully polarized along the first transverse
	// direction.
	PolarizedT = mixing.DensityT()
	// PolarizedU is a beam fully polarized along the second transverse
	// direction.
	PolarizedU = mixing.DensityU()
	// PureALP is a pure ALP state (for reconversion studies).
	PureALP = mixing.DensityALP()
)
