package mixing

import (
	"math"
	"math/cmplx"

	"github.com/astrohep/alpflux/internal/deltas"
)

// Variant tags the physical regime a domain was resolved for. It selects
// the eigen-system used by the transfer matrix builder; there is no type
// hierarchy between the regimes, a DomainParameters value is complete on
// its own.
type Variant int

const (
	// VariantCosmological is the expanding-medium regime: domain lengths
	// shrink with redshift and photons are absorbed on the extragalactic
	// background light. Eigenvalues follow the (d, D) discriminant
	// formulation.
	VariantCosmological Variant = iota
	// VariantCluster is the static intracluster regime: constant
	// coherence length, no absorption, eigenvalues from the local
	// dispersion terms.
	VariantCluster
	// VariantGalactic is the spatially varying Milky-Way regime: same
	// eigen-system as VariantCluster but with the field (and hence the
	// mixing angle) resolved per domain from a spatial field model.
	VariantGalactic
)

// MinOpticalDepthStep is the floor applied to optical-depth differences
// when converting them to a mean free path. A step of exactly zero would
// divide by zero; the floor turns it into an effectively infinite free
// path, which is the physically correct lossless limit.
const MinOpticalDepthStep = 1e-20

// discriminantFloor bounds |D| away from the degenerate point d = 1/2.
const discriminantFloor = 1e-12

// OscillationTerms bundles the local dispersion terms of the oscillatory
// eigen-system, all in kpc^-1.
type OscillationTerms struct {
	// Perp is the dispersion term of the perpendicular photon mode.
	Perp float64
	// Par is the dispersion term of the parallel photon mode.
	Par float64
	// Mass is the ALP mass term.
	Mass float64
	// Coupling is the photon-ALP mixing term.
	Coupling float64
}

// DomainParameters is the complete physical snapshot of one coherence
// domain: everything the transfer matrix builder needs, fully resolved.
// Values are derived fresh per (energy, path, domain) and never mutated;
// a DomainParameters does not outlive the propagation call that created it.
type DomainParameters struct {
	// Variant records the regime this domain was resolved for.
	Variant Variant
	// Length is the coherence length in kpc.
	Length float64
	// Psi is the angle between the transverse field and the first
	// polarization direction, in radians.
	Psi float64

	// Coupling is the dimensionless off-diagonal term d of the
	// discriminant formulation (zero for oscillatory domains).
	Coupling float64
	// Discriminant is D = sqrt(1 - 4 d^2). It is complex so that the
	// strong-mixing regime d > 1/2 needs no special casing; the branch is
	// continuous with D -> 1 as d -> 0.
	Discriminant complex128
	// MeanFreePath is the photon absorption length in kpc (discriminant
	// formulation only).
	MeanFreePath float64

	// MixingAngle is the alpha angle diagonalizing the (parallel, ALP)
	// sub-system (oscillatory formulation only).
	MixingAngle float64

	// Eigenvalues are the exponent rates lambda_k in kpc^-1: the domain
	// transfer matrix is U = sum_k exp(lambda_k * Length) * T_k. A real
	// negative part damps (absorption), an imaginary part oscillates.
	Eigenvalues [3]complex128

	// T1, T2, T3 are the eigen-basis matrices, satisfying T1+T2+T3 = I.
	T1, T2, T3 Matrix3
}

// MeanFreePathFromDepth converts an optical-depth difference over one
// domain into a photon mean free path. A vanishing difference is floored
// at MinOpticalDepthStep instead of raising: zero absorption means an
// effectively infinite free path, not an error.
//
// Parameters:
//   - length: The domain length in kpc.
//   - dtau: The optical-depth difference across the domain.
//
// Returns:
//   - float64: The mean free path in kpc, always positive and finite.
func MeanFreePathFromDepth(length, dtau float64) float64 {
	if dtau < MinOpticalDepthStep {
		dtau = MinOpticalDepthStep
	}
	return length / dtau
}

// NewDiscriminantDomain resolves an absorptive domain in the (d, D)
// discriminant formulation used by the cosmological regime.
//
// The discriminant D = sqrt(1 - 4 d^2) is evaluated in complex arithmetic:
// for d > 1/2 the square root argument is negative and D becomes purely
// imaginary, which is a legitimate strong-mixing regime, not a failure.
//
// The eigenvalue exponents carry the absorption split
//
//	lambda_1 = -1/(2 mfn)
//	lambda_2 = -1/(4 mfn) (1 + D)
//	lambda_3 = -1/(4 mfn) (1 - D)
//
// The eigen-basis matrices are complex symmetric rather than Hermitian.
// That is fine for an absorptive operator, but it means the lossless
// limit cannot be obtained by rotating these exponents onto the
// imaginary axis; use NewLosslessCosmicDomain for that limit.
//
// Parameters:
//   - length: The domain length in kpc.
//   - psi: The field angle in radians.
//   - d: The dimensionless off-diagonal coupling term.
//   - mfn: The photon mean free path in kpc (non-positive values are
//     clamped to the lossless fallback).
//
// Returns:
//   - DomainParameters: The fully resolved domain.
func NewDiscriminantDomain(length, psi, d, mfn float64) DomainParameters {
	if mfn <= 0 {
		mfn = length / MinOpticalDepthStep
	}
	dp := DomainParameters{
		Variant:      VariantCosmological,
		Length:       length,
		Psi:          psi,
		Coupling:     d,
		Discriminant: cmplx.Sqrt(complex(1.0-4.0*d*d, 0)),
		MeanFreePath: mfn,
	}
	// At exactly d = 1/2 the eigen-system degenerates (D = 0) and the
	// basis matrices are singular. Nudging D off zero keeps the transfer
	// matrix finite and continuous with the neighboring d values.
	if cmplx.Abs(dp.Discriminant) < discriminantFloor {
		dp.Discriminant = complex(discriminantFloor, 0)
	}

	dp.Eigenvalues[0] = complex(-0.5/mfn, 0)
	dp.Eigenvalues[1] = complex(-0.25/mfn, 0) * (1 + dp.Discriminant)
	dp.Eigenvalues[2] = complex(-0.25/mfn, 0) * (1 - dp.Discriminant)

	dp.T1, dp.T2, dp.T3 = discriminantBasis(psi, d, dp.Discriminant)
	return dp
}

// NewLosslessCosmicDomain resolves a cosmological domain in the
// absorption-free limit. The discriminant eigen-basis is complex
// symmetric, not Hermitian, so rotating the absorptive exponents onto
// the imaginary axis would not give a unitary operator (and blows up for
// d > 1/2, where D is imaginary). The lossless limit is therefore built
// on the Hermitian dispersion-term eigen-system, with the mixing
// wavenumber dag = d / (2 mfn) as the sole coupling; the resulting
// transfer matrix is exactly unitary.
//
// Parameters:
//   - length: The domain length in kpc.
//   - psi: The field angle in radians.
//   - dag: The photon-ALP mixing wavenumber in kpc^-1.
//
// Returns:
//   - DomainParameters: The fully resolved domain.
func NewLosslessCosmicDomain(length, psi, dag float64) DomainParameters {
	return NewOscillatoryDomain(VariantCosmological, length, psi,
		OscillationTerms{Coupling: dag})
}

// NewOscillatoryDomain resolves a domain in the dispersion-term
// formulation used by the cluster and galactic regimes (and, through
// NewLosslessCosmicDomain, the lossless cosmological limit). The
// eigenvalue exponents are purely imaginary, so the resulting transfer
// matrix is unitary.
//
// Parameters:
//   - variant: The regime to record on the domain.
//   - length: The domain length in kpc.
//   - psi: The field angle in radians.
//   - terms: The local dispersion terms in kpc^-1.
//
// Returns:
//   - DomainParameters: The fully resolved domain.
func NewOscillatoryDomain(variant Variant, length, psi float64, terms OscillationTerms) DomainParameters {
	dosc, alpha := deltas.Oscillation(terms.Par, terms.Mass, terms.Coupling)

	dp := DomainParameters{
		Variant:     variant,
		Length:      length,
		Psi:         psi,
		MixingAngle: alpha,
	}
	dp.Eigenvalues[0] = complex(0, terms.Perp)
	dp.Eigenvalues[1] = complex(0, 0.5*(terms.Par+terms.Mass-dosc))
	dp.Eigenvalues[2] = complex(0, 0.5*(terms.Par+terms.Mass+dosc))

	dp.T1, dp.T2, dp.T3 = oscillatoryBasis(psi, alpha)
	return dp
}

// discriminantBasis builds the three eigen-basis matrices of the
// discriminant formulation. T1 projects onto the decoupled photon mode;
// T2 and T3 mix the remaining photon mode with the ALP, the off-diagonal
// ALP entries carrying the factor i d / D with opposite signs.
func discriminantBasis(psi, d float64, dis complex128) (t1, t2, t3 Matrix3) {
	s, c := math.Sin(psi), math.Cos(psi)
	cs, cc := complex(s, 0), complex(c, 0)

	t1[0][0] = cc * cc
	t1[0][1] = -cs * cc
	t1[1][0] = t1[0][1]
	t1[1][1] = cs * cs

	plus := 0.5 * (1 + dis) / dis
	minus := 0.5 * (-1 + dis) / dis
	mix := 1i * complex(d, 0) / dis

	t2[0][0] = plus * cs * cs
	t2[0][1] = plus * cs * cc
	t2[0][2] = -mix * cs
	t2[1][0] = t2[0][1]
	t2[2][0] = t2[0][2]
	t2[1][1] = plus * cc * cc
	t2[1][2] = -mix * cc
	t2[2][1] = t2[1][2]
	t2[2][2] = minus

	t3[0][0] = minus * cs * cs
	t3[0][1] = minus * cs * cc
	t3[0][2] = mix * cs
	t3[1][0] = t3[0][1]
	t3[2][0] = t3[0][2]
	t3[1][1] = minus * cc * cc
	t3[1][2] = mix * cc
	t3[2][1] = t3[1][2]
	t3[2][2] = plus

	return t1, t2, t3
}

// oscillatoryBasis builds the three eigen-basis matrices of the
// dispersion-term formulation, rank-1 outer products of the eigenvectors
// parameterized by the field angle psi and the mixing angle alpha.
func oscillatoryBasis(psi, alpha float64) (t1, t2, t3 Matrix3) {
	s, c := math.Sin(psi), math.Cos(psi)
	sa, ca := math.Sin(alpha), math.Cos(alpha)
	cs, cc := complex(s, 0), complex(c, 0)
	csa, cca := complex(sa, 0), complex(ca, 0)

	t1[0][0] = cc * cc
	t1[0][1] = -cc * cs
	t1[1][0] = t1[0][1]
	t1[1][1] = cs * cs

	t2[0][0] = cs * cs * csa * csa
	t2[0][1] = cs * cc * csa * csa
	t2[0][2] = -cs * csa * cca
	t2[1][0] = t2[0][1]
	t2[1][1] = cc * cc * csa * csa
	t2[1][2] = -cc * cca * csa
	t2[2][0] = t2[0][2]
	t2[2][1] = t2[1][2]
	t2[2][2] = cca * cca

	t3[0][0] = cs * cs * cca * cca
	t3[0][1] = cs * cc * cca * cca
	t3[0][2] = cs * csa * cca
	t3[1][0] = t3[0][1]
	t3[1][1] = cc * cc * cca * cca
	t3[1][2] = cc * csa * cca
	t3[2][0] = t3[0][2]
	t3[2][1] = t3[1][2]
	t3[2][2] = csa * csa

	return t1, t2, t3
}
