package propagation

import (
	"context"
	"math"

	apperrors "github.com/astrohep/alpflux/internal/errors"
	"github.com/astrohep/alpflux/internal/mixing"
)

// ctxCheckStride is how many domains are processed between context
// checks. Building one transfer matrix is microseconds of work, so a
// per-domain check would be mostly overhead.
const ctxCheckStride = 256

// ChainPropagator is the discrete propagation strategy: it composes the
// per-domain transfer matrices of a DomainResolver into one cumulative
// operator and reads the channel probabilities off the evolved density
// matrix.
//
// Ordering convention: the resolver numbers domains source to observer,
// and the chain accumulates U_total <- U_n * U_total. The first-traversed
// (source-side) domain therefore ends up as the rightmost factor, acting
// first on the initial state:
//
//	U_total = U_N * ... * U_2 * U_1,   rho_out = U_total rho_in U_total^dagger
//
// This convention is pinned by TestChainPropagator_ProductOrdering
// against a hand-multiplied reference.
type ChainPropagator struct {
	// Resolver supplies the per-domain parameters.
	Resolver DomainResolver
	// InitialState is the input density matrix rho_in; its trace is the
	// total beam intensity. The common choices are Unpolarized,
	// PolarizedT, PolarizedU and PureALP.
	InitialState mixing.Matrix3
}

// Name returns the descriptive name of the strategy.
func (p *ChainPropagator) Name() string {
	return "Transfer-matrix domain chain"
}

// Propagate runs the full chain for one observed energy in GeV.
//
// Parameters:
//   - ctx: The context consulted between domain batches.
//   - energyGeV: The observed photon energy in GeV; must be positive.
//
// Returns:
//   - Result: The three channel probabilities and the conversion figure.
//   - error: A validation error on bad input, a context error on
//     cancellation, or a propagated collaborator failure.
func (p *ChainPropagator) Propagate(ctx context.Context, energyGeV float64) (Result, error) {
	if energyGeV <= 0 || math.IsNaN(energyGeV) {
		return Result{}, apperrors.NewValidationError("energyGeV", "must be positive", energyGeV)
	}
	if p.Resolver == nil {
		return Result{}, apperrors.NewValidationError("Resolver", "domain resolver required", nil)
	}

	u, err := p.accumulate(ctx, energyGeV)
	if err != nil {
		return Result{}, err
	}

	pt, pu, pa := mixing.ChannelProbabilities(u, p.InitialState)
	return Result{
		Mode:       ModeDiscrete,
		T:          pt,
		U:          pu,
		ALP:        pa,
		Conversion: pa,
	}, nil
}

// TransferOperator returns the cumulative transfer matrix of the whole
// path without collapsing it to probabilities, for callers evolving a
// custom polarization state or chaining several media.
func (p *ChainPropagator) TransferOperator(ctx context.Context, energyGeV float64) (mixing.Matrix3, error) {
	if energyGeV <= 0 || math.IsNaN(energyGeV) {
		return mixing.Matrix3{}, apperrors.NewValidationError("energyGeV", "must be positive", energyGeV)
	}
	if p.Resolver == nil {
		return mixing.Matrix3{}, apperrors.NewValidationError("Resolver", "domain resolver required", nil)
	}
	return p.accumulate(ctx, energyGeV)
}

// accumulate walks the path source to observer and left-multiplies each
// domain transfer matrix into the cumulative operator.
func (p *ChainPropagator) accumulate(ctx context.Context, energyGeV float64) (mixing.Matrix3, error) {
	nd, err := p.Resolver.DomainCount()
	if err != nil {
		return mixing.Matrix3{}, err
	}

	u := mixing.Identity()
	for n := 1; n <= nd; n++ {
		if n%ctxCheckStride == 0 {
			if err := ctx.Err(); err != nil {
				return mixing.Matrix3{}, err
			}
		}
		dp, err := p.Resolver.Resolve(n, energyGeV)
		if err != nil {
			return mixing.Matrix3{}, err
		}
		u = mixing.TransferMatrix(dp).Mul(u)
	}
	return u, nil
}
