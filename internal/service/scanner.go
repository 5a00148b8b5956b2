// Package service assembles propagation strategies from scan requests
// and runs complete scans. It centralizes request validation, resolver
// selection, and execution options, so the CLI and the HTTP server share
// one code path from a models.ScanRequest to results.
package service

import (
	"context"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/astrohep/alpflux/internal/errors"
	"github.com/astrohep/alpflux/internal/geometry"
	"github.com/astrohep/alpflux/internal/mixing"
	"github.com/astrohep/alpflux/internal/propagation"
	"github.com/astrohep/alpflux/pkg/models"
)

// Polarization selectors accepted in a ScanRequest.
const (
	PolUnpolarized = "unpolarized"
	PolT           = "t"
	PolU           = "u"
	PolALP         = "alp"
)

// Scanner builds propagators from scan requests and executes scans.
// The zero value is usable; Tau and Observer are optional collaborators
// for embedding programs that carry an absorption model or want validity
// diagnostics.
type Scanner struct {
	// Tau supplies the optical depth of the absorbing background for
	// the cosmic medium. Nil restricts the cosmic medium to lossless
	// runs: no model-table loader ships with the engine.
	Tau propagation.OpticalDepth
	// Observer receives perturbative validity diagnostics; nil
	// discards them.
	Observer propagation.ValidityObserver
	// Workers caps the concurrent per-energy computations in Scan;
	// zero means one per CPU.
	Workers int
}

// BuildPropagator assembles the propagation strategy described by a scan
// request: the resolver or integrator for the requested medium, the
// field model, the line-of-sight geometry, and the initial beam state.
//
// Parameters:
//   - req: The scan request.
//
// Returns:
//   - propagation.Propagator: The ready-to-run strategy.
//   - error: A ConfigError for unsupported selections, or a validation
//     error from the geometry.
func (s *Scanner) BuildPropagator(req models.ScanRequest) (propagation.Propagator, error) {
	switch req.Mode {
	case "", propagation.ModeDiscrete.String():
		return s.buildChain(req)
	case propagation.ModeContinuous.String():
		return s.buildPerturbative(req)
	default:
		return nil, apperrors.NewConfigError("unrecognized mode: '%s'", req.Mode)
	}
}

func (s *Scanner) buildChain(req models.ScanRequest) (propagation.Propagator, error) {
	initial, err := initialState(req.Polarization)
	if err != nil {
		return nil, err
	}

	var resolver propagation.DomainResolver
	switch req.Medium {
	case "cosmic":
		if !req.Lossless && s.Tau == nil {
			return nil, apperrors.NewConfigError(
				"cosmic absorption requires an optical depth model; rerun with lossless enabled")
		}
		resolver = &propagation.CosmicResolver{
			DomainSizeMpc: req.DomainSizeMpc,
			Xi:            req.Xi,
			Z:             req.Redshift,
			Tau:           s.Tau,
			Angles:        propagation.RandomAngles(req.Seed),
			Lossless:      req.Lossless,
		}
	case "", "cluster":
		resolver = &propagation.ClusterResolver{
			CoherenceKpc:    req.CoherenceKpc,
			RadiusKpc:       req.RadiusKpc,
			FieldMuG:        req.FieldMuG,
			ElectronDensity: req.ElectronDensity,
			CouplingG11:     req.CouplingG11,
			MassNeV:         req.MassNeV,
			Angles:          propagation.RandomAngles(req.Seed),
		}
	case "galactic":
		los, path, err := s.sightline(req)
		if err != nil {
			return nil, err
		}
		resolver = &propagation.GalacticResolver{
			Field:           s.fieldModel(req),
			LOS:             los,
			PathKpc:         path,
			CoherenceKpc:    req.CoherenceKpc,
			ElectronDensity: req.ElectronDensity,
			CouplingG11:     req.CouplingG11,
			MassNeV:         req.MassNeV,
		}
	default:
		return nil, apperrors.NewConfigError("unrecognized medium: '%s'", req.Medium)
	}

	return &propagation.ChainPropagator{Resolver: resolver, InitialState: initial}, nil
}

func (s *Scanner) buildPerturbative(req models.ScanRequest) (propagation.Propagator, error) {
	if req.Medium != "galactic" {
		return nil, apperrors.NewConfigError(
			"continuous mode requires the galactic medium, got '%s'", req.Medium)
	}
	polT, polU, err := polarizationWeights(req.Polarization)
	if err != nil {
		return nil, err
	}
	los, path, err := s.sightline(req)
	if err != nil {
		return nil, err
	}

	return &propagation.PerturbativePropagator{
		Field:           s.fieldModel(req),
		LOS:             los,
		PathKpc:         path,
		StepKpc:         req.StepKpc,
		ElectronDensity: req.ElectronDensity,
		CouplingG11:     req.CouplingG11,
		MassNeV:         req.MassNeV,
		PolT:            polT,
		PolU:            polU,
		Observer:        s.Observer,
	}, nil
}

// sightline builds the line-of-sight basis and path length of a galactic
// request. A zero PathKpc derives the path from the field-region bounds.
func (s *Scanner) sightline(req models.ScanRequest) (geometry.LineOfSight, float64, error) {
	l := req.GalLonDeg * math.Pi / 180
	b := req.GalLatDeg * math.Pi / 180
	los := geometry.NewLineOfSight(l, b, geometry.SunOffsetKpc)

	path := req.PathKpc
	if path <= 0 {
		bounds := geometry.Bounds{RhoMax: req.RhoMaxKpc, ZMax: req.ZMaxKpc}
		var err error
		path, err = geometry.MaxPathLength(l, b, geometry.SunOffsetKpc, bounds)
		if err != nil {
			return geometry.LineOfSight{}, 0, err
		}
	}
	return los, path, nil
}

// fieldModel picks the turbulent cell field for the request, cell size
// tied to the coherence length.
func (s *Scanner) fieldModel(req models.ScanRequest) propagation.FieldModel {
	return geometry.CellField{
		StrengthMuG: req.FieldMuG,
		CellSizeKpc: req.CoherenceKpc,
		Seed:        req.Seed,
	}
}

// initialState maps a polarization selector to an input density matrix.
func initialState(pol string) (mixing.Matrix3, error) {
	switch pol {
	case "", PolUnpolarized:
		return propagation.Unpolarized, nil
	case PolT:
		return propagation.PolarizedT, nil
	case PolU:
		return propagation.PolarizedU, nil
	case PolALP:
		return propagation.PureALP, nil
	default:
		return mixing.Matrix3{}, apperrors.NewConfigError("unrecognized polarization: '%s'", pol)
	}
}

// polarizationWeights maps a polarization selector to the transverse
// weights of the perturbative strategy. A pure ALP beam has no photon
// component to convert and is rejected.
func polarizationWeights(pol string) (polT, polU float64, err error) {
	switch pol {
	case "", PolUnpolarized:
		r := 1 / math.Sqrt2
		return r, r, nil
	case PolT:
		return 1, 0, nil
	case PolU:
		return 0, 1, nil
	default:
		return 0, 0, apperrors.NewConfigError(
			"polarization '%s' is not supported in continuous mode", pol)
	}
}

// Scan builds the propagator for a request and computes every energy in
// it, with bounded concurrency and without progress UI. Per-point
// failures are recorded on the corresponding point; only an unbuildable
// request or context cancellation fails the scan as a whole.
//
// Parameters:
//   - ctx: The context for cancellation and deadlines.
//   - req: The scan request; EnergiesGeV lists the grid explicitly.
//
// Returns:
//   - models.ScanResponse: One point per requested energy, in order.
//   - error: A ConfigError for an unbuildable request, or the context
//     error on cancellation.
func (s *Scanner) Scan(ctx context.Context, req models.ScanRequest) (models.ScanResponse, error) {
	prop, err := s.BuildPropagator(req)
	if err != nil {
		return models.ScanResponse{}, err
	}
	if len(req.EnergiesGeV) == 0 {
		return models.ScanResponse{}, apperrors.NewConfigError("at least one energy is required")
	}

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	start := time.Now()
	points := make([]models.ScanPoint, len(req.EnergiesGeV))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, energy := range req.EnergiesGeV {
		idx, e := i, energy
		g.Go(func() error {
			pointStart := time.Now()
			res, err := prop.Propagate(ctx, e)
			point := models.ScanPoint{
				EnergyGeV:      e,
				DurationMicros: time.Since(pointStart).Microseconds(),
			}
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				point.Error = err.Error()
			} else {
				point.PhotonT = res.T
				point.PhotonU = res.U
				point.ALP = res.ALP
				point.Conversion = res.Conversion
				point.ValidityViolations = res.ValidityViolations
			}
			points[idx] = point
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return models.ScanResponse{}, err
	}

	mode := req.Mode
	if mode == "" {
		mode = propagation.ModeDiscrete.String()
	}
	medium := req.Medium
	if medium == "" {
		medium = "cluster"
	}
	return models.ScanResponse{
		Mode:     mode,
		Medium:   medium,
		Points:   points,
		Duration: time.Since(start).String(),
	}, nil
}
