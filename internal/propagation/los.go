package propagation

import (
	"context"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"github.com/astrohep/alpflux/internal/deltas"
	apperrors "github.com/astrohep/alpflux/internal/errors"
	"github.com/astrohep/alpflux/internal/geometry"
)

const (
	// PerturbationBound is the largest coupling term (kpc^-1) for which
	// the perturbative line-of-sight integral is trusted. Beyond it a
	// validity event is emitted and the result is still returned.
	PerturbationBound = 0.10
	// KernelFloor is the squared kernel magnitude below which samples
	// are excluded from the quadrature, so negligible contributions do
	// not accumulate floating-point noise.
	KernelFloor = 1e-20
	// losCtxStride is how many samples are evaluated between context
	// checks.
	losCtxStride = 1024
)

// PerturbativePropagator is the continuous propagation strategy: instead
// of chaining discrete domains it integrates one complex kernel per
// transverse polarization along the line of sight,
//
//	I_{t,u} = | integral_0^smax ds  Dag_{t,u}(s) exp(i s (Da - Dperp/par(s))) |^2
//
// The estimate is only valid in the weak-mixing regime; coupling terms
// above PerturbationBound are reported through the ValidityObserver as
// non-fatal diagnostics. Returned intensities are not clamped to [0, 1]
// (see Result).
type PerturbativePropagator struct {
	// Field supplies the local field vector.
	Field FieldModel
	// LOS is the line-of-sight basis of the viewing direction.
	LOS geometry.LineOfSight
	// PathKpc is the upper integration limit in kpc.
	PathKpc float64
	// StepKpc is the sampling step in kpc.
	StepKpc float64
	// ElectronDensity is the electron density in 10^-3 cm^-3.
	ElectronDensity float64
	// CouplingG11 is the photon-ALP coupling in 10^-11 GeV^-1.
	CouplingG11 float64
	// MassNeV is the ALP mass in neV.
	MassNeV float64
	// PolT and PolU weight the two transverse polarizations in the
	// combined conversion probability. An unpolarized beam uses
	// 1/sqrt(2) for both.
	PolT, PolU float64
	// Observer receives validity diagnostics; nil discards them.
	Observer ValidityObserver
}

// Name returns the descriptive name of the strategy.
func (p *PerturbativePropagator) Name() string {
	return "Perturbative line-of-sight integral"
}

// kernelAccumulator collects the filtered samples of one polarization
// kernel and tracks its perturbation-violation regions.
type kernelAccumulator struct {
	name        string
	xs, re, im  []float64
	inViolation bool
	violations  int
}

// add evaluates one sample into the accumulator, applying the magnitude
// floor and the region-wise validity check.
func (k *kernelAccumulator) add(s, coupling, phase float64, obs ValidityObserver) {
	// One event per contiguous violating region, not per sample.
	if math.Abs(coupling) > PerturbationBound {
		if !k.inViolation {
			k.inViolation = true
			k.violations++
			obs.Violation(ValidityEvent{Kernel: k.name, DistanceKpc: s, Coupling: coupling})
		}
	} else {
		k.inViolation = false
	}

	val := complex(coupling, 0) * cmplx.Exp(complex(0, s*phase))
	if real(val)*real(val)+imag(val)*imag(val) <= KernelFloor {
		return
	}
	k.xs = append(k.xs, s)
	k.re = append(k.re, real(val))
	k.im = append(k.im, imag(val))
}

// integral integrates the filtered samples, real and imaginary parts
// separately, with composite Simpson quadrature over the (generally
// uneven) retained abscissas.
func (k *kernelAccumulator) integral() complex128 {
	switch len(k.xs) {
	case 0, 1:
		return 0
	case 2:
		return complex(integrate.Trapezoidal(k.xs, k.re), integrate.Trapezoidal(k.xs, k.im))
	default:
		return complex(integrate.Simpsons(k.xs, k.re), integrate.Simpsons(k.xs, k.im))
	}
}

// Propagate evaluates the line-of-sight integral for one observed energy
// in GeV.
//
// Parameters:
//   - ctx: The context consulted between sample batches.
//   - energyGeV: The observed photon energy in GeV; must be positive.
//
// Returns:
//   - Result: The kernel intensities IT, IU, the cross term and the
//     polarization-weighted conversion probability.
//   - error: A validation error on bad input or a context error on
//     cancellation.
func (p *PerturbativePropagator) Propagate(ctx context.Context, energyGeV float64) (Result, error) {
	if err := p.validate(energyGeV); err != nil {
		return Result{}, err
	}

	obs := p.Observer
	if obs == nil {
		obs = NewNoOpObserver()
	}

	n := int(math.Ceil(p.PathKpc/p.StepKpc)) + 1
	if n < 3 {
		n = 3
	}
	samples := floats.Span(make([]float64, n), 0, p.PathKpc)

	da := deltas.Mass(p.MassNeV, energyGeV)
	kt := kernelAccumulator{name: "t"}
	ku := kernelAccumulator{name: "u"}

	for i, s := range samples {
		if i%losCtxStride == losCtxStride-1 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}

		field := p.Field.FieldAt(p.LOS.Position(s))
		_, bt, bu := p.LOS.Project(field)
		btrans := math.Hypot(bt, bu)

		// The perpendicular dispersion pairs with the t kernel, the
		// parallel one with the u kernel; both see the full transverse
		// strength while the couplings carry the signed projections.
		kt.add(s, deltas.Coupling(p.CouplingG11, bt),
			da-deltas.Perp(p.ElectronDensity, btrans, energyGeV), obs)
		ku.add(s, deltas.Coupling(p.CouplingG11, bu),
			da-deltas.Par(p.ElectronDensity, btrans, energyGeV), obs)
	}

	it := kt.integral()
	iu := ku.integral()

	resIT := real(it)*real(it) + imag(it)*imag(it)
	resIU := real(iu)*real(iu) + imag(iu)*imag(iu)
	cross := real(cmplx.Conj(iu) * it)

	return Result{
		Mode:               ModeContinuous,
		IT:                 resIT,
		IU:                 resIU,
		ICross:             cross,
		Conversion:         p.PolT*p.PolT*resIT + p.PolU*p.PolU*resIU,
		ValidityViolations: kt.violations + ku.violations,
	}, nil
}

func (p *PerturbativePropagator) validate(energyGeV float64) error {
	if energyGeV <= 0 || math.IsNaN(energyGeV) {
		return apperrors.NewValidationError("energyGeV", "must be positive", energyGeV)
	}
	if p.Field == nil {
		return apperrors.NewValidationError("Field", "field model required", nil)
	}
	if p.PathKpc <= 0 {
		return apperrors.NewValidationError("PathKpc", "must be positive", p.PathKpc)
	}
	if p.StepKpc <= 0 {
		return apperrors.NewValidationError("StepKpc", "must be positive", p.StepKpc)
	}
	if p.PolT == 0 && p.PolU == 0 {
		return apperrors.NewValidationError("PolT/PolU",
			"polarization weights must not both be zero", nil)
	}
	return nil
}
