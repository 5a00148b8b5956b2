package geometry

import "math"

// Reference magnetic field models. These are deliberately simple
// collaborators for tests and batch scans; full disk/halo/X-component
// generators are external to this engine and plug in through the same
// field interface.

// UniformField is a constant field everywhere. The zero value is a
// field-free medium.
type UniformField struct {
	// B is the field vector in micro-Gauss, galactocentric Cartesian.
	B Vector
}

// FieldAt returns the constant field regardless of position.
func (f UniformField) FieldAt(Vector) Vector { return f.B }

// CellField models a turbulent medium as a grid of cubic cells of fixed
// coherence length, each with the same field strength but a direction
// drawn deterministically from the cell index and a seed. Repeated
// queries for the same position always see the same field, so the model
// is reentrant for concurrent reads.
type CellField struct {
	// StrengthMuG is the field magnitude in every cell, micro-Gauss.
	StrengthMuG float64
	// CellSizeKpc is the edge length of a coherence cell in kpc.
	CellSizeKpc float64
	// Seed decorrelates independent realizations.
	Seed uint64
}

// FieldAt returns the cell field at a galactocentric position.
func (f CellField) FieldAt(p Vector) Vector {
	size := f.CellSizeKpc
	if size <= 0 {
		size = 1
	}
	ix := int64(math.Floor(p.X / size))
	iy := int64(math.Floor(p.Y / size))
	iz := int64(math.Floor(p.Z / size))

	h := f.Seed
	for _, v := range [3]int64{ix, iy, iz} {
		h ^= uint64(v)
		h = splitmix(h)
	}

	// Two hashed uniforms give an isotropic direction.
	u1 := float64(splitmix(h)>>11) / (1 << 53)
	u2 := float64(splitmix(h+1)>>11) / (1 << 53)
	cosTheta := 2*u1 - 1
	sinTheta := math.Sqrt(1 - cosTheta*cosTheta)
	phi := 2 * math.Pi * u2

	return Vector{
		X: sinTheta * math.Cos(phi),
		Y: sinTheta * math.Sin(phi),
		Z: cosTheta,
	}.Scale(f.StrengthMuG)
}

// splitmix is the SplitMix64 finalizer, used as a position hash.
func splitmix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
