package mixing

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/astrohep/alpflux/internal/deltas"
)

func TestMeanFreePathFromDepth(t *testing.T) {
	tests := []struct {
		name   string
		length float64
		dtau   float64
		want   float64
	}{
		{"ordinary step", 100, 0.5, 200},
		{"zero step floors to lossless", 100, 0, 100 / MinOpticalDepthStep},
		{"negative step floors to lossless", 100, -1, 100 / MinOpticalDepthStep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MeanFreePathFromDepth(tt.length, tt.dtau)
			if got != tt.want {
				t.Errorf("MeanFreePathFromDepth(%v, %v) = %v, want %v", tt.length, tt.dtau, got, tt.want)
			}
			if got <= 0 || math.IsInf(got, 0) || math.IsNaN(got) {
				t.Errorf("mean free path %v not positive finite", got)
			}
		})
	}
}

func TestDiscriminantDomainBasisCompleteness(t *testing.T) {
	for _, d := range []float64{0, 0.1, 0.49, 0.5, 0.7, 2.0} {
		dp := NewDiscriminantDomain(200, 1.3, d, 4e3)
		sum := dp.T1.Add(dp.T2).Add(dp.T3)
		if diff := maxDiff(sum, Identity()); diff > 1e-9 {
			t.Errorf("d=%v: T1+T2+T3 deviates from I by %v", d, diff)
		}
		if !TransferMatrix(dp).IsFinite() {
			t.Errorf("d=%v: transfer matrix not finite", d)
		}
	}
}

func TestDiscriminantStrongMixingBranch(t *testing.T) {
	// Above d = 1/2 the square-root argument goes negative. The
	// discriminant must come out purely imaginary, not NaN.
	dp := NewDiscriminantDomain(150, 0.4, 0.8, 1e3)
	if math.Abs(real(dp.Discriminant)) > 1e-12 {
		t.Errorf("strong-mixing discriminant has real part %v", real(dp.Discriminant))
	}
	want := math.Sqrt(4*0.8*0.8 - 1)
	if math.Abs(imag(dp.Discriminant)-want) > 1e-12 {
		t.Errorf("imag(D) = %v, want %v", imag(dp.Discriminant), want)
	}
}

func TestDiscriminantDegeneratePoint(t *testing.T) {
	// d = 1/2 collapses D to zero; the constructor floors it so the
	// basis matrices stay finite.
	dp := NewDiscriminantDomain(150, 0.4, 0.5, 1e3)
	if cmplx.Abs(dp.Discriminant) == 0 {
		t.Fatal("degenerate discriminant not floored")
	}
	if !TransferMatrix(dp).IsFinite() {
		t.Error("transfer matrix not finite at d = 1/2")
	}
}

func TestLosslessCosmicZeroCouplingKeepsPhotons(t *testing.T) {
	// Without coupling the ALP sector is fully decoupled regardless of
	// the field angle: no conversion, unitary evolution.
	dp := NewLosslessCosmicDomain(300, 2.1, 0)

	u := TransferMatrix(dp)
	if dev := u.UnitarityDeviation(); dev > 1e-9 {
		t.Errorf("lossless zero-coupling domain not unitary, deviation %v", dev)
	}

	_, _, pa := ChannelProbabilities(u, DensityUnpolarized())
	if math.Abs(pa) > 1e-12 {
		t.Errorf("conversion probability %v without coupling, want 0", pa)
	}
}

func TestLosslessCosmicDomainEigenvalues(t *testing.T) {
	// Single domain, psi = 0, d = 0.01 and mfn = 1e3, absorption off:
	// the exponents of the Hermitian lossless limit are purely
	// imaginary, {0, -i dag, +i dag} with dag = d / (2 mfn).
	const mfn = 1e3
	d := 0.01
	dag := d / (2 * mfn)

	dp := NewLosslessCosmicDomain(100, 0, dag)

	if dp.Variant != VariantCosmological {
		t.Errorf("variant = %v, want VariantCosmological", dp.Variant)
	}
	want := [3]complex128{
		0,
		complex(0, -dag),
		complex(0, dag),
	}
	for k, w := range want {
		if cmplx.Abs(dp.Eigenvalues[k]-w) > 1e-15 {
			t.Errorf("eigenvalue %d = %v, want %v", k+1, dp.Eigenvalues[k], w)
		}
		if math.Abs(real(dp.Eigenvalues[k])) > 0 {
			t.Errorf("eigenvalue %d has real part %v, want purely imaginary", k+1, real(dp.Eigenvalues[k]))
		}
	}
}

func TestLosslessCosmicDomainUnitarity(t *testing.T) {
	// Strong mixing over a long path, where a non-Hermitian eigen-basis
	// would leak probability at the 1e-2 level. The Hermitian build
	// must stay unitary to numerical precision.
	const length, psi = 500.0, 0.9
	dag := 0.3 / (2 * 4e3) // d = 0.3, mfn = 4e3 kpc

	u := TransferMatrix(NewLosslessCosmicDomain(length, psi, dag))
	if dev := u.UnitarityDeviation(); dev > 1e-9 {
		t.Errorf("lossless cosmic domain not unitary, deviation %v", dev)
	}

	pt, pu, pa := ChannelProbabilities(u, DensityUnpolarized())
	if math.Abs(pt+pu+pa-1) > 1e-9 {
		t.Errorf("probabilities sum to %v, want 1", pt+pu+pa)
	}
}

func TestDiscriminantDampingAttenuates(t *testing.T) {
	// With absorption enabled the total beam probability must fall
	// below one, and a shorter free path must attenuate more.
	total := func(mfn float64) float64 {
		dp := NewDiscriminantDomain(500, 0.9, 0.05, mfn)
		pt, pu, pa := ChannelProbabilities(TransferMatrix(dp), DensityUnpolarized())
		return pt + pu + pa
	}

	strong := total(300)
	weak := total(3000)
	if strong >= 1 || weak >= 1 {
		t.Errorf("damped totals %v, %v not below one", strong, weak)
	}
	if strong >= weak {
		t.Errorf("shorter free path attenuated less: %v >= %v", strong, weak)
	}
}

func TestOscillatoryDomainClosedForm(t *testing.T) {
	// With the field aligned so that only the parallel mode mixes
	// (psi = 0), the two-level conversion probability has the closed
	// form sin^2(2 alpha) sin^2(dosc L / 2).
	terms := OscillationTerms{
		Perp:     -3.2e-3,
		Par:      -3.0e-3,
		Mass:     -7.8e-3,
		Coupling: 1.5e-3,
	}
	length := 10.0

	dp := NewOscillatoryDomain(VariantCluster, length, 0, terms)
	u := TransferMatrix(dp)

	pt, pu, pa := ChannelProbabilities(u, DensityU())

	dosc, alpha := deltas.Oscillation(terms.Par, terms.Mass, terms.Coupling)
	s2a := math.Sin(2 * alpha)
	want := s2a * s2a * math.Pow(math.Sin(dosc*length/2), 2)

	if math.Abs(pa-want) > 1e-12 {
		t.Errorf("conversion = %v, want closed form %v", pa, want)
	}
	if math.Abs(pt) > 1e-12 {
		t.Errorf("perpendicular channel leaked: %v", pt)
	}
	if math.Abs(pt+pu+pa-1) > 1e-12 {
		t.Errorf("total probability %v, want 1", pt+pu+pa)
	}
}

func TestOscillatoryDomainUnitarity(t *testing.T) {
	terms := OscillationTerms{Perp: -1e-3, Par: -9e-4, Mass: -2e-2, Coupling: 3e-3}
	for _, psi := range []float64{0, 0.3, math.Pi / 2, 2.7, 2 * math.Pi} {
		dp := NewOscillatoryDomain(VariantGalactic, 25, psi, terms)
		if dev := TransferMatrix(dp).UnitarityDeviation(); dev > 1e-9 {
			t.Errorf("psi=%v: unitarity deviation %v", psi, dev)
		}
	}
}

func TestOscillatoryBasisCompleteness(t *testing.T) {
	terms := OscillationTerms{Perp: -2e-3, Par: -1.8e-3, Mass: -5e-2, Coupling: 8e-3}
	dp := NewOscillatoryDomain(VariantCluster, 10, 1.1, terms)
	sum := dp.T1.Add(dp.T2).Add(dp.T3)
	if diff := maxDiff(sum, Identity()); diff > 1e-12 {
		t.Errorf("T1+T2+T3 deviates from I by %v", diff)
	}
}

func TestZeroLengthTransferIsIdentity(t *testing.T) {
	terms := OscillationTerms{Perp: -1e-3, Par: -1e-3, Mass: -1e-2, Coupling: 2e-3}
	dp := NewOscillatoryDomain(VariantCluster, 0, 0.8, terms)
	if diff := maxDiff(TransferMatrix(dp), Identity()); diff > 1e-12 {
		t.Errorf("zero-length transfer deviates from I by %v", diff)
	}
}
