package propagation

import (
	"math"

	"github.com/astrohep/alpflux/internal/deltas"
	apperrors "github.com/astrohep/alpflux/internal/errors"
	"github.com/astrohep/alpflux/internal/geometry"
	"github.com/astrohep/alpflux/internal/mixing"
)

// DomainResolver maps a 1-indexed domain number and a photon energy to
// the fully resolved parameters of that domain. [PropagationPath] calls
// it once per domain per propagation; implementations derive everything
// fresh and keep no mutable state between calls.
type DomainResolver interface {
	// DomainCount returns the number of domains on the path, always
	// at least 1 for a valid path.
	DomainCount() (int, error)
	// Resolve returns the parameters of domain n for a fixed observed
	// energy in GeV. Domains are ordered source to observer: n = 1 is
	// the domain the photon traverses first.
	Resolve(n int, energyGeV float64) (mixing.DomainParameters, error)
}

// ─────────────────────────────────────────────────────────────────────────────
// Cosmological resolver (expanding medium, absorption on the background light)
// ─────────────────────────────────────────────────────────────────────────────

// Legacy normalization of the cosmological domain grid. The historic
// constants are Mpc-native; the resolver converts to the engine-wide kpc
// unit system at this boundary (1 Mpc = 1e3 kpc).
const (
	// referenceDomainSizeMpc is the domain size the redshift step and
	// domain count normalizations are quoted at.
	referenceDomainSizeMpc = 5.0
	// redshiftStepAtReference is the redshift step per domain for a
	// 5 Mpc domain at z = 0.
	redshiftStepAtReference = 1.17e-3
	// domainsPerRedshiftAtReference is the number of 5 Mpc domains per
	// unit redshift.
	domainsPerRedshiftAtReference = 0.85e3
	// comovingStepKpc converts the redshift step to a comoving domain
	// length: L = comovingStepKpc * dz / (1 + expansionRate*(n-1)*dz).
	comovingStepKpc = 4.29e6
	// expansionRate is the redshift dilution rate of the domain length.
	expansionRate = 1.45
	// couplingPerKpc scales d = couplingPerKpc * xi * mfn * (1+z)^2
	// with xi = g * B in (10^-11 GeV^-1) * nG and mfn in kpc. The
	// (1+z)^2 factor is the field-strength scaling with expansion.
	couplingPerKpc = 1.1e-4
	// gevPerTeV converts the engine's GeV energies to the TeV-native
	// optical-depth interface.
	gevPerTeV = 1e3
)

// CosmicResolver derives the per-domain parameters of a photon beam
// traversing the expanding intergalactic medium from a source at
// redshift Z. Domain lengths shrink with redshift, absorption comes from
// optical-depth differences between successive redshift steps, and the
// coupling term carries the (1+z)^2 field scaling.
//
// Domain 1 sits at the source (highest redshift); the last domain ends
// at the observer.
type CosmicResolver struct {
	// DomainSizeMpc is the domain (coherence) length at z = 0, in Mpc.
	DomainSizeMpc float64
	// Xi is the product of the photon-ALP coupling (10^-11 GeV^-1) and
	// the field strength at z = 0 (nG).
	Xi float64
	// Z is the source redshift.
	Z float64
	// Tau supplies the optical depth of the absorbing background.
	Tau OpticalDepth
	// Angles supplies the per-domain field angle. Nil means zero angle
	// everywhere.
	Angles AngleFunc
	// Lossless disables absorption: domains are built in the unitary
	// absorption-free limit, whose mixing wavenumber is free-path
	// independent, so no optical depth model is consulted.
	Lossless bool
}

// redshiftStep returns the redshift covered by one domain.
func (r *CosmicResolver) redshiftStep() float64 {
	return redshiftStepAtReference * r.DomainSizeMpc / referenceDomainSizeMpc
}

// DomainCount returns ceil of the redshift path over the per-domain
// redshift step, at least 1.
func (r *CosmicResolver) DomainCount() (int, error) {
	if err := r.validate(); err != nil {
		return 0, err
	}
	nd := int(math.Ceil(domainsPerRedshiftAtReference * referenceDomainSizeMpc / r.DomainSizeMpc * r.Z))
	if nd < 1 {
		nd = 1
	}
	return nd, nil
}

// Resolve derives the parameters of domain n for an observed energy in
// GeV. The domain index is converted to its redshift interval; the
// absorption over the domain is the optical-depth difference across that
// interval.
//
// A vanishing optical-depth difference is not an error: the mean free
// path falls back to an effectively infinite value (see
// mixing.MeanFreePathFromDepth).
func (r *CosmicResolver) Resolve(n int, energyGeV float64) (mixing.DomainParameters, error) {
	if err := r.validate(); err != nil {
		return mixing.DomainParameters{}, err
	}
	if n < 1 {
		return mixing.DomainParameters{}, apperrors.NewValidationError(
			"n", "domain index is 1-based", n)
	}
	if energyGeV <= 0 {
		return mixing.DomainParameters{}, apperrors.NewValidationError(
			"energyGeV", "must be positive", energyGeV)
	}

	// Domain 1 is at the source: walk the redshift grid from Z down.
	nd, err := r.DomainCount()
	if err != nil {
		return mixing.DomainParameters{}, err
	}
	k := nd - n + 1 // redshift grid index, observer side is k = 1
	dz := r.redshiftStep()
	zNear := float64(k-1) * dz
	zFar := float64(k) * dz

	lengthKpc := comovingStepKpc * dz / (1 + expansionRate*zNear)
	scale := 1 + zNear // field scales as (1+z)^2

	psi := 0.0
	if r.Angles != nil {
		psi = r.Angles(n)
	}

	if r.Lossless {
		// d = couplingPerKpc * xi * mfn * (1+z)^2 and dag = d/(2 mfn):
		// the free path cancels, leaving the pure mixing wavenumber.
		dag := 0.5 * couplingPerKpc * r.Xi * scale * scale
		return mixing.NewLosslessCosmicDomain(lengthKpc, psi, dag), nil
	}

	tauFar, err := r.Tau.Tau(zFar, energyGeV/gevPerTeV)
	if err != nil {
		return mixing.DomainParameters{}, apperrors.PropagationError{Cause: err}
	}
	tauNear, err := r.Tau.Tau(zNear, energyGeV/gevPerTeV)
	if err != nil {
		return mixing.DomainParameters{}, apperrors.PropagationError{Cause: err}
	}
	mfn := mixing.MeanFreePathFromDepth(lengthKpc, tauFar-tauNear)

	d := couplingPerKpc * r.Xi * mfn * scale * scale
	return mixing.NewDiscriminantDomain(lengthKpc, psi, d, mfn), nil
}

func (r *CosmicResolver) validate() error {
	if r.DomainSizeMpc <= 0 {
		return apperrors.NewValidationError("DomainSizeMpc", "must be positive", r.DomainSizeMpc)
	}
	if r.Z <= 0 {
		return apperrors.NewValidationError("Z", "source redshift must be positive", r.Z)
	}
	if !r.Lossless && r.Tau == nil {
		return apperrors.NewValidationError("Tau", "optical depth model required unless Lossless", nil)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Cluster resolver (static medium, no absorption)
// ─────────────────────────────────────────────────────────────────────────────

// ClusterResolver derives per-domain parameters for a static, ionized
// cluster medium: constant coherence length and electron density, a
// fixed field strength with a per-domain orientation, no absorption.
type ClusterResolver struct {
	// CoherenceKpc is the field coherence length in kpc.
	CoherenceKpc float64
	// RadiusKpc is the total path length through the medium in kpc.
	RadiusKpc float64
	// FieldMuG is the field strength in micro-Gauss.
	FieldMuG float64
	// ElectronDensity is the electron density in 10^-3 cm^-3.
	ElectronDensity float64
	// CouplingG11 is the photon-ALP coupling in 10^-11 GeV^-1.
	CouplingG11 float64
	// MassNeV is the ALP mass in neV.
	MassNeV float64
	// Angles supplies the per-domain field angle. Nil means zero angle
	// everywhere.
	Angles AngleFunc
}

// DomainCount returns ceil(RadiusKpc / CoherenceKpc), at least 1.
func (r *ClusterResolver) DomainCount() (int, error) {
	if err := r.validate(); err != nil {
		return 0, err
	}
	nd := int(math.Ceil(r.RadiusKpc / r.CoherenceKpc))
	if nd < 1 {
		nd = 1
	}
	return nd, nil
}

// Resolve derives the parameters of domain n for an energy in GeV. All
// domains share the same dispersion terms; only the angle varies.
func (r *ClusterResolver) Resolve(n int, energyGeV float64) (mixing.DomainParameters, error) {
	if err := r.validate(); err != nil {
		return mixing.DomainParameters{}, err
	}
	if n < 1 {
		return mixing.DomainParameters{}, apperrors.NewValidationError(
			"n", "domain index is 1-based", n)
	}
	if energyGeV <= 0 {
		return mixing.DomainParameters{}, apperrors.NewValidationError(
			"energyGeV", "must be positive", energyGeV)
	}

	terms := mixing.OscillationTerms{
		Perp:     deltas.Perp(r.ElectronDensity, r.FieldMuG, energyGeV),
		Par:      deltas.Par(r.ElectronDensity, r.FieldMuG, energyGeV),
		Mass:     deltas.Mass(r.MassNeV, energyGeV),
		Coupling: deltas.Coupling(r.CouplingG11, r.FieldMuG),
	}

	psi := 0.0
	if r.Angles != nil {
		psi = r.Angles(n)
	}

	return mixing.NewOscillatoryDomain(mixing.VariantCluster, r.CoherenceKpc, psi, terms), nil
}

func (r *ClusterResolver) validate() error {
	if r.CoherenceKpc <= 0 {
		return apperrors.NewValidationError("CoherenceKpc", "must be positive", r.CoherenceKpc)
	}
	if r.RadiusKpc <= 0 {
		return apperrors.NewValidationError("RadiusKpc", "must be positive", r.RadiusKpc)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Galactic resolver (spatially varying field)
// ─────────────────────────────────────────────────────────────────────────────

// GalacticResolver derives per-domain parameters along a line of sight
// through a spatially varying field model. Domain 1 sits at the far end
// of the path (PathKpc from the observer); the last domain touches the
// observer.
type GalacticResolver struct {
	// Field supplies the local field vector.
	Field FieldModel
	// LOS is the line-of-sight basis of the viewing direction.
	LOS geometry.LineOfSight
	// PathKpc is the total path length in kpc (typically the exit
	// distance from geometry.MaxPathLength).
	PathKpc float64
	// CoherenceKpc is the domain step in kpc.
	CoherenceKpc float64
	// ElectronDensity is the electron density in 10^-3 cm^-3.
	ElectronDensity float64
	// CouplingG11 is the photon-ALP coupling in 10^-11 GeV^-1.
	CouplingG11 float64
	// MassNeV is the ALP mass in neV.
	MassNeV float64
}

// DomainCount returns ceil(PathKpc / CoherenceKpc), at least 1.
func (r *GalacticResolver) DomainCount() (int, error) {
	if err := r.validate(); err != nil {
		return 0, err
	}
	nd := int(math.Ceil(r.PathKpc / r.CoherenceKpc))
	if nd < 1 {
		nd = 1
	}
	return nd, nil
}

// Resolve derives the parameters of domain n for an energy in GeV. The
// field is sampled at the domain midpoint; the mixing angle is the
// orientation of the transverse field in the (t, u) polarization plane.
// A field-free domain degrades to zero mixing angle and zero coupling
// rather than failing.
func (r *GalacticResolver) Resolve(n int, energyGeV float64) (mixing.DomainParameters, error) {
	if err := r.validate(); err != nil {
		return mixing.DomainParameters{}, err
	}
	nd, err := r.DomainCount()
	if err != nil {
		return mixing.DomainParameters{}, err
	}
	if n < 1 || n > nd {
		return mixing.DomainParameters{}, apperrors.NewValidationError(
			"n", "domain index out of range", n)
	}
	if energyGeV <= 0 {
		return mixing.DomainParameters{}, apperrors.NewValidationError(
			"energyGeV", "must be positive", energyGeV)
	}

	length := r.PathKpc / float64(nd)
	// Domain 1 is farthest from the observer.
	s := r.PathKpc - (float64(n)-0.5)*length

	field := r.Field.FieldAt(r.LOS.Position(s))
	_, bt, bu := r.LOS.Project(field)
	btrans := math.Hypot(bt, bu)

	psi := 0.0
	if btrans > 0 {
		psi = math.Acos(bt / btrans)
		if bu < 0 {
			psi = 2*math.Pi - psi
		}
	}

	terms := mixing.OscillationTerms{
		Perp:     deltas.Perp(r.ElectronDensity, btrans, energyGeV),
		Par:      deltas.Par(r.ElectronDensity, btrans, energyGeV),
		Mass:     deltas.Mass(r.MassNeV, energyGeV),
		Coupling: deltas.Coupling(r.CouplingG11, btrans),
	}

	return mixing.NewOscillatoryDomain(mixing.VariantGalactic, length, psi, terms), nil
}

func (r *GalacticResolver) validate() error {
	if r.Field == nil {
		return apperrors.NewValidationError("Field", "field model required", nil)
	}
	if r.PathKpc <= 0 {
		return apperrors.NewValidationError("PathKpc", "must be positive", r.PathKpc)
	}
	if r.CoherenceKpc <= 0 {
		return apperrors.NewValidationError("CoherenceKpc", "must be positive", r.CoherenceKpc)
	}
	return nil
}
