package propagation

import (
	"context"
	"math"
	"testing"

	"github.com/astrohep/alpflux/internal/geometry"
	"github.com/astrohep/alpflux/internal/mixing"
)

// stubResolver replays a fixed sequence of domains.
type stubResolver struct {
	domains []mixing.DomainParameters
}

func (s *stubResolver) DomainCount() (int, error) { return len(s.domains), nil }

func (s *stubResolver) Resolve(n int, _ float64) (mixing.DomainParameters, error) {
	return s.domains[n-1], nil
}

// fullConversionDomain builds a domain converting the mixing photon
// polarization into the ALP with probability one: maximal mixing angle
// (degenerate parallel and mass terms) and a length of half an
// oscillation period.
func fullConversionDomain(psi float64) mixing.DomainParameters {
	terms := mixing.OscillationTerms{
		Perp:     -1e-3,
		Par:      -1e-3,
		Mass:     -1e-3,
		Coupling: 0.05,
	}
	dosc := 2 * terms.Coupling
	return mixing.NewOscillatoryDomain(mixing.VariantCluster, math.Pi/dosc, psi, terms)
}

func TestChainPropagator_ProductOrdering(t *testing.T) {
	// Domain 1 (traversed first) mixes the second polarization with the
	// ALP and leaves the first alone; domain 2 fully converts the first
	// polarization. A beam starting in the first polarization must pass
	// domain 1 untouched and convert in domain 2. The reversed product
	// would instead convert in domain 2 first and then rotate the ALP
	// back into the photon sector, ending with no ALP at all.
	resolver := &stubResolver{domains: []mixing.DomainParameters{
		fullConversionDomain(0),
		fullConversionDomain(math.Pi / 2),
	}}
	p := &ChainPropagator{Resolver: resolver, InitialState: PolarizedT}

	res, err := p.Propagate(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(res.ALP-1) > 1e-9 {
		t.Errorf("P_alp = %v, want 1 (domain product in traversal order)", res.ALP)
	}
	if res.Mode != ModeDiscrete {
		t.Errorf("mode = %v, want discrete", res.Mode)
	}
}

func TestChainPropagator_ZeroFieldPath(t *testing.T) {
	// Field strength zero along a 50-domain path: no conversion, and
	// the photon probabilities sum to the input trace.
	resolver := &GalacticResolver{
		Field:           geometry.UniformField{},
		LOS:             geometry.NewLineOfSight(0, 0, geometry.SunOffsetKpc),
		PathKpc:         50,
		CoherenceKpc:    1,
		ElectronDensity: 1,
		CouplingG11:     5,
		MassNeV:         10,
	}
	if nd, err := resolver.DomainCount(); err != nil || nd != 50 {
		t.Fatalf("DomainCount = %v, %v, want 50, nil", nd, err)
	}

	p := &ChainPropagator{Resolver: resolver, InitialState: Unpolarized}
	res, err := p.Propagate(context.Background(), 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(res.ALP) > 1e-12 {
		t.Errorf("P_alp = %v, want 0 for a field-free path", res.ALP)
	}
	if math.Abs(res.T+res.U-1) > 1e-9 {
		t.Errorf("P_t + P_u = %v, want 1", res.T+res.U)
	}
}

// rampTau is a linear optical-depth model tau = slope * z.
type rampTau struct {
	slope float64
}

func (r rampTau) Tau(z, _ float64) (float64, error) { return r.slope * z, nil }

func TestChainPropagator_LosslessCosmicConservation(t *testing.T) {
	// A lossless cosmological chain with no optical depth model must
	// conserve total probability to numerical precision over the whole
	// domain chain, with every channel inside [0, 1].
	resolver := &CosmicResolver{
		DomainSizeMpc: 5,
		Xi:            1,
		Z:             0.05,
		Angles:        RandomAngles(7),
		Lossless:      true,
	}
	p := &ChainPropagator{Resolver: resolver, InitialState: Unpolarized}

	res, err := p.Propagate(context.Background(), 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total := res.T + res.U + res.ALP; math.Abs(total-1) > 1e-9 {
		t.Errorf("P_t + P_u + P_alp = %v, want 1", total)
	}
	for name, p := range map[string]float64{"P_t": res.T, "P_u": res.U, "P_alp": res.ALP} {
		if p < -1e-12 || p > 1+1e-12 {
			t.Errorf("%s = %v outside [0, 1]", name, p)
		}
	}
}

func TestChainPropagator_AbsorptionMonotonicity(t *testing.T) {
	survival := func(slope float64) float64 {
		resolver := &CosmicResolver{
			DomainSizeMpc: 5,
			Xi:            0,
			Z:             0.05,
			Tau:           rampTau{slope: slope},
		}
		p := &ChainPropagator{Resolver: resolver, InitialState: Unpolarized}
		res, err := p.Propagate(context.Background(), 1000)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return res.T + res.U
	}

	weak := survival(1)
	strong := survival(4)
	if weak >= 1 || strong >= 1 {
		t.Errorf("survivals %v, %v not below one", weak, strong)
	}
	if strong >= weak {
		t.Errorf("larger optical depth survived more: %v >= %v", strong, weak)
	}
	if expect := math.Exp(-0.05 * 1); math.Abs(weak-expect) > 0.01 {
		t.Errorf("survival %v far from exp(-tau) = %v", weak, expect)
	}
}

func TestChainPropagator_Validation(t *testing.T) {
	p := &ChainPropagator{Resolver: &stubResolver{}, InitialState: Unpolarized}

	if _, err := p.Propagate(context.Background(), 0); err == nil {
		t.Error("expected error for non-positive energy")
	}
	if _, err := p.Propagate(context.Background(), math.NaN()); err == nil {
		t.Error("expected error for NaN energy")
	}
	if _, err := (&ChainPropagator{}).Propagate(context.Background(), 1); err == nil {
		t.Error("expected error for nil resolver")
	}
}

func TestChainPropagator_Cancellation(t *testing.T) {
	domains := make([]mixing.DomainParameters, 5000)
	for i := range domains {
		domains[i] = fullConversionDomain(0)
	}
	p := &ChainPropagator{Resolver: &stubResolver{domains: domains}, InitialState: Unpolarized}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Propagate(ctx, 1); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestChainPropagator_TransferOperatorMatchesPropagate(t *testing.T) {
	resolver := &ClusterResolver{
		CoherenceKpc:    10,
		RadiusKpc:       200,
		FieldMuG:        1,
		ElectronDensity: 1,
		CouplingG11:     3,
		MassNeV:         5,
		Angles:          RandomAngles(42),
	}
	p := &ChainPropagator{Resolver: resolver, InitialState: Unpolarized}

	u, err := p.TransferOperator(context.Background(), 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := p.Propagate(context.Background(), 500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pt, pu, pa := mixing.ChannelProbabilities(u, Unpolarized)
	if math.Abs(pt-res.T) > 1e-12 || math.Abs(pu-res.U) > 1e-12 || math.Abs(pa-res.ALP) > 1e-12 {
		t.Errorf("operator probabilities (%v, %v, %v) differ from Propagate (%v, %v, %v)",
			pt, pu, pa, res.T, res.U, res.ALP)
	}
	if dev := u.UnitarityDeviation(); dev > 1e-9 {
		t.Errorf("lossless cluster chain not unitary, deviation %v", dev)
	}
}

func TestModeString(t *testing.T) {
	if ModeDiscrete.String() != "discrete" || ModeContinuous.String() != "continuous" {
		t.Errorf("unexpected mode names %q, %q", ModeDiscrete, ModeContinuous)
	}
	if Mode(99).String() != "unknown" {
		t.Errorf("unexpected fallback name %q", Mode(99))
	}
}
