package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	apperrors "github.com/astrohep/alpflux/internal/errors"
	"github.com/astrohep/alpflux/internal/propagation"
	"github.com/astrohep/alpflux/pkg/models"
)

func clusterRequest() models.ScanRequest {
	return models.ScanRequest{
		EnergiesGeV:     []float64{10, 100, 1000},
		Mode:            "discrete",
		Medium:          "cluster",
		Polarization:    PolUnpolarized,
		CouplingG11:     1,
		MassNeV:         1,
		ElectronDensity: 1,
		FieldMuG:        1,
		CoherenceKpc:    10,
		RadiusKpc:       100,
	}
}

func galacticRequest(mode string) models.ScanRequest {
	req := clusterRequest()
	req.Mode = mode
	req.Medium = "galactic"
	req.GalLonDeg = 184.56
	req.GalLatDeg = -5.78
	req.PathKpc = 5
	req.StepKpc = 0.05
	req.CoherenceKpc = 1
	return req
}

func TestBuildPropagator(t *testing.T) {
	t.Parallel()
	s := &Scanner{}

	cases := []struct {
		name     string
		req      models.ScanRequest
		wantName string
		wantErr  bool
	}{
		{"Cluster", clusterRequest(), "Transfer-matrix domain chain", false},
		{"GalacticDiscrete", galacticRequest("discrete"), "Transfer-matrix domain chain", false},
		{"GalacticContinuous", galacticRequest("continuous"), "Perturbative line-of-sight integral", false},
		{"DefaultsToDiscreteCluster", models.ScanRequest{CoherenceKpc: 10, RadiusKpc: 100}, "Transfer-matrix domain chain", false},
		{"UnknownMode", func() models.ScanRequest {
			r := clusterRequest()
			r.Mode = "adiabatic"
			return r
		}(), "", true},
		{"UnknownMedium", func() models.ScanRequest {
			r := clusterRequest()
			r.Medium = "void"
			return r
		}(), "", true},
		{"UnknownPolarization", func() models.ScanRequest {
			r := clusterRequest()
			r.Polarization = "circular"
			return r
		}(), "", true},
		{"ContinuousNeedsGalactic", func() models.ScanRequest {
			r := clusterRequest()
			r.Mode = "continuous"
			return r
		}(), "", true},
		{"ContinuousRejectsALPBeam", func() models.ScanRequest {
			r := galacticRequest("continuous")
			r.Polarization = PolALP
			return r
		}(), "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			prop, err := s.BuildPropagator(tc.req)
			if tc.wantErr {
				if err == nil {
					t.Fatal("Expected an error")
				}
				var cfgErr apperrors.ConfigError
				if !errors.As(err, &cfgErr) {
					t.Errorf("Expected a ConfigError, got %T: %v", err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if prop.Name() != tc.wantName {
				t.Errorf("Expected strategy %q, got %q", tc.wantName, prop.Name())
			}
		})
	}
}

func TestBuildPropagator_CosmicNeedsTau(t *testing.T) {
	t.Parallel()
	req := models.ScanRequest{
		EnergiesGeV:   []float64{100},
		Medium:        "cosmic",
		DomainSizeMpc: 5,
		Xi:            1,
		Redshift:      0.1,
	}

	s := &Scanner{}
	if _, err := s.BuildPropagator(req); err == nil {
		t.Error("Expected an error for cosmic absorption without an optical depth model")
	}

	req.Lossless = true
	if _, err := s.BuildPropagator(req); err != nil {
		t.Errorf("Expected the lossless cosmic request to build, got %v", err)
	}
}

func TestBuildPropagator_DerivedGalacticPath(t *testing.T) {
	t.Parallel()
	req := galacticRequest("discrete")
	req.PathKpc = 0
	req.RhoMaxKpc = 20
	req.ZMaxKpc = 50

	s := &Scanner{}
	if _, err := s.BuildPropagator(req); err != nil {
		t.Fatalf("Expected the path to derive from the field-region bounds, got %v", err)
	}

	// Bounds that exclude the observer must fail
	req.RhoMaxKpc = 1
	if _, err := s.BuildPropagator(req); err == nil {
		t.Error("Expected an error when the field region excludes the observer")
	}
}

func TestScan(t *testing.T) {
	t.Parallel()
	s := &Scanner{Workers: 2}

	resp, err := s.Scan(context.Background(), clusterRequest())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if resp.Mode != "discrete" || resp.Medium != "cluster" {
		t.Errorf("Expected mode/medium echoed, got %s/%s", resp.Mode, resp.Medium)
	}
	if len(resp.Points) != 3 {
		t.Fatalf("Expected 3 points, got %d", len(resp.Points))
	}
	for i, p := range resp.Points {
		if p.Error != "" {
			t.Errorf("Point %d: unexpected error %q", i, p.Error)
			continue
		}
		total := p.PhotonT + p.PhotonU + p.ALP
		if math.Abs(total-1) > 1e-9 {
			t.Errorf("Point %d: expected probability conservation in the lossless cluster, got %g", i, total)
		}
		if p.Conversion != p.ALP {
			t.Errorf("Point %d: expected conversion to equal the ALP channel, got %g vs %g", i, p.Conversion, p.ALP)
		}
	}
}

func TestScan_EmptyGrid(t *testing.T) {
	t.Parallel()
	s := &Scanner{}
	req := clusterRequest()
	req.EnergiesGeV = nil
	if _, err := s.Scan(context.Background(), req); err == nil {
		t.Error("Expected an error for an empty energy grid")
	}
}

func TestScan_PointFailureRecorded(t *testing.T) {
	t.Parallel()
	s := &Scanner{}
	req := clusterRequest()
	req.EnergiesGeV = []float64{100, -5}

	resp, err := s.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Unexpected scan-level error: %v", err)
	}
	if resp.Points[0].Error != "" {
		t.Errorf("Expected the valid point to succeed, got %q", resp.Points[0].Error)
	}
	if !strings.Contains(resp.Points[1].Error, "energyGeV") {
		t.Errorf("Expected a recorded validation error on the bad point, got %q", resp.Points[1].Error)
	}
}

func TestScan_Canceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Scanner{}
	req := clusterRequest()
	req.CoherenceKpc = 0.01 // long domain chain so cancellation is observed mid-path
	if _, err := s.Scan(ctx, req); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestScan_ContinuousMode(t *testing.T) {
	t.Parallel()
	s := &Scanner{Observer: propagation.NewNoOpObserver()}
	req := galacticRequest("continuous")
	req.EnergiesGeV = []float64{100}

	resp, err := s.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	p := resp.Points[0]
	if p.Error != "" {
		t.Fatalf("Unexpected point error: %q", p.Error)
	}
	if p.Conversion < 0 {
		t.Errorf("Expected a non-negative conversion intensity, got %g", p.Conversion)
	}
}
