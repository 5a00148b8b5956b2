// Package geometry provides the spatial scaffolding for line-of-sight
// propagation: celestial-to-galactic coordinate conversion, the
// heliocentric line-of-sight basis used to project magnetic fields onto
// the two photon polarization directions, and the maximum path length
// inside a bounded field region.
//
// Conventions: galactocentric Cartesian coordinates in kpc with the
// Galactic Center at the origin, the Sun on the negative x axis at
// x = originOffset (-8.5 kpc by default), and z toward the north galactic
// pole. Angles are in radians unless a name says degrees.
package geometry

import (
	"math"

	apperrors "github.com/astrohep/alpflux/internal/errors"
)

// SunOffsetKpc is the default position of the Sun along the
// galactocentric x axis, in kpc.
const SunOffsetKpc = -8.5

// J2000 orientation of the galactic frame relative to the equatorial one.
const (
	ngpRightAscensionDeg = 192.85948
	ngpDeclinationDeg    = 27.12825
	northCelestialPoleLonDeg = 122.93192
)

// Vector is a 3-component Cartesian vector. It doubles as a position
// (kpc) and as a field value (micro-Gauss); the context makes the unit
// unambiguous.
type Vector struct {
	X, Y, Z float64
}

// Dot returns the scalar product of v and w.
func (v Vector) Dot(w Vector) float64 { return v.X*w.X + v.Y*w.Y + v.Z*w.Z }

// Norm returns the Euclidean length of v.
func (v Vector) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// Scale returns v multiplied by a.
func (v Vector) Scale(a float64) Vector { return Vector{a * v.X, a * v.Y, a * v.Z} }

// Add returns the component-wise sum v + w.
func (v Vector) Add(w Vector) Vector { return Vector{v.X + w.X, v.Y + w.Y, v.Z + w.Z} }

// GalacticFromEquatorial converts J2000 equatorial coordinates to
// galactic longitude and latitude. Inputs and outputs are in degrees;
// the returned longitude lies in [0, 360).
//
// Parameters:
//   - raDeg: Right ascension in degrees.
//   - decDeg: Declination in degrees.
//
// Returns:
//   - lDeg: Galactic longitude in degrees.
//   - bDeg: Galactic latitude in degrees.
func GalacticFromEquatorial(raDeg, decDeg float64) (lDeg, bDeg float64) {
	ra := raDeg * math.Pi / 180
	dec := decDeg * math.Pi / 180
	raNGP := ngpRightAscensionDeg * math.Pi / 180
	decNGP := ngpDeclinationDeg * math.Pi / 180

	sb := math.Sin(dec)*math.Sin(decNGP) +
		math.Cos(dec)*math.Cos(decNGP)*math.Cos(ra-raNGP)
	b := math.Asin(sb)

	y := math.Cos(dec) * math.Sin(ra-raNGP)
	x := math.Sin(dec)*math.Cos(decNGP) -
		math.Cos(dec)*math.Sin(decNGP)*math.Cos(ra-raNGP)
	l := northCelestialPoleLonDeg*math.Pi/180 - math.Atan2(y, x)

	lDeg = math.Mod(l*180/math.Pi, 360)
	if lDeg < 0 {
		lDeg += 360
	}
	return lDeg, b * 180 / math.Pi
}

// LineOfSight is the heliocentric description of one sky direction: the
// propagation unit vector and the two transverse unit vectors the photon
// polarizations are measured along.
type LineOfSight struct {
	// L and B are the galactic longitude and latitude in radians.
	L, B float64
	// OriginOffset is the observer position on the galactocentric x
	// axis in kpc.
	OriginOffset float64
	// Dir points from the observer toward the source.
	Dir Vector
	// T is the first transverse unit vector (in the galactic plane).
	T Vector
	// U is the second transverse unit vector, completing the
	// right-handed triad (Dir, T, U).
	U Vector
}

// NewLineOfSight builds the line-of-sight basis for a direction given in
// galactic coordinates (radians).
func NewLineOfSight(l, b, originOffset float64) LineOfSight {
	cl, sl := math.Cos(l), math.Sin(l)
	cb, sb := math.Cos(b), math.Sin(b)
	return LineOfSight{
		L: l, B: b, OriginOffset: originOffset,
		Dir: Vector{cl * cb, sl * cb, sb},
		T:   Vector{-sl, cl, 0},
		U:   Vector{-cl * sb, -sl * sb, cb},
	}
}

// Position returns the galactocentric position of the point at distance
// s (kpc) from the observer along the line of sight.
func (los LineOfSight) Position(s float64) Vector {
	return Vector{los.OriginOffset, 0, 0}.Add(los.Dir.Scale(s))
}

// Project decomposes a galactocentric field vector into its components
// along the propagation direction and the two transverse directions.
//
// Returns:
//   - bs: Component along the propagation direction.
//   - bt: Component along the first transverse direction.
//   - bu: Component along the second transverse direction.
func (los LineOfSight) Project(field Vector) (bs, bt, bu float64) {
	return field.Dot(los.Dir), field.Dot(los.T), field.Dot(los.U)
}

// Bounds delimits the cylindrical region inside which a field model is
// considered non-zero.
type Bounds struct {
	// RhoMax is the maximal galactocentric cylinder radius in kpc.
	RhoMax float64
	// ZMax is the maximal |z| in kpc.
	ZMax float64
}

// MaxPathLength returns the distance from the observer to the point
// where the line of sight leaves the bounded field region, i.e. the
// upper integration limit for galactic propagation.
//
// Parameters:
//   - l, b: Galactic longitude and latitude in radians.
//   - originOffset: Observer position on the galactocentric x axis in kpc.
//   - bounds: The cylindrical field region.
//
// Returns:
//   - float64: The exit distance in kpc.
//   - error: A validation error if the observer lies outside the region.
func MaxPathLength(l, b, originOffset float64, bounds Bounds) (float64, error) {
	if bounds.RhoMax <= math.Abs(originOffset) {
		return 0, apperrors.NewValidationError("bounds.RhoMax",
			"field region must enclose the observer", bounds.RhoMax)
	}
	if bounds.ZMax <= 0 {
		return 0, apperrors.NewValidationError("bounds.ZMax",
			"must be positive", bounds.ZMax)
	}

	cl := math.Cos(l)
	cb, sb := math.Cos(b), math.Sin(b)
	d := originOffset

	sZ := math.Inf(1)
	if sb != 0 {
		sZ = bounds.ZMax / math.Abs(sb)
	}

	sRho := math.Inf(1)
	if cb != 0 {
		// Exit of the cylinder rho = RhoMax along the in-plane
		// projection: s^2 cb^2 + 2 d cl cb s + d^2 - RhoMax^2 = 0.
		disc := d*d*cl*cl - d*d + bounds.RhoMax*bounds.RhoMax
		sRho = (-d*cl + math.Sqrt(disc)) / cb
	}

	return math.Min(sZ, sRho), nil
}
