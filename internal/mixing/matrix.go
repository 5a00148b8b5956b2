// Package mixing implements the per-domain photon-ALP mixing algebra:
// the 3x3 complex matrix type, the fixed polarization projectors, and the
// analytic construction of the domain transfer matrix from its
// eigen-decomposition.
//
// All state is held in small value types; nothing in this package retains
// references across calls, so every operation is safe for concurrent use.
package mixing

import (
	"math"
	"math/cmplx"
)

// Matrix3 is a dense 3x3 complex matrix stored by value.
//
// Depending on context it represents either a transfer operator acting on
// the (photon-t, photon-u, ALP) amplitude vector or a polarization density
// matrix. In the lossless regime a transfer operator is unitary and a
// density matrix is Hermitian with unit trace.
//
// The value representation is deliberate: matrices are tiny, copies are
// cheap, and keeping them off the heap avoids any shared scratch state
// between concurrent propagation calls.
type Matrix3 [3][3]complex128

// Identity returns the 3x3 identity matrix.
func Identity() Matrix3 {
	return Matrix3{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// Mul returns the matrix product m * n.
func (m Matrix3) Mul(n Matrix3) Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum complex128
			for k := 0; k < 3; k++ {
				sum += m[i][k] * n[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// Add returns the element-wise sum m + n.
func (m Matrix3) Add(n Matrix3) Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][j] + n[i][j]
		}
	}
	return out
}

// Sub returns the element-wise difference m - n.
func (m Matrix3) Sub(n Matrix3) Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][j] - n[i][j]
		}
	}
	return out
}

// Scale returns the matrix m with every element multiplied by z.
func (m Matrix3) Scale(z complex128) Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = z * m[i][j]
		}
	}
	return out
}

// Dagger returns the conjugate transpose of m.
func (m Matrix3) Dagger() Matrix3 {
	var out Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = cmplx.Conj(m[j][i])
		}
	}
	return out
}

// Trace returns the sum of the diagonal elements of m.
func (m Matrix3) Trace() complex128 {
	return m[0][0] + m[1][1] + m[2][2]
}

// Conjugate returns the matrix m sandwiched around rho:
// m * rho * m-dagger. This is the evolution of a density matrix rho under
// the transfer operator m.
func (m Matrix3) Conjugate(rho Matrix3) Matrix3 {
	return m.Mul(rho).Mul(m.Dagger())
}

// UnitarityDeviation returns the max-norm of m * m-dagger - I. A transfer
// matrix with purely imaginary eigenvalue exponents satisfies
// UnitarityDeviation() < eps up to floating-point rounding.
func (m Matrix3) UnitarityDeviation() float64 {
	diff := m.Mul(m.Dagger()).Sub(Identity())
	var max float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if a := cmplx.Abs(diff[i][j]); a > max {
				max = a
			}
		}
	}
	return max
}

// IsFinite reports whether every element of m is finite (no NaN or Inf in
// either component). Used by tests and the propagation engine to detect
// numerical degeneracies early.
func (m Matrix3) IsFinite() bool {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			re, im := real(m[i][j]), imag(m[i][j])
			if math.IsNaN(re) || math.IsInf(re, 0) || math.IsNaN(im) || math.IsInf(im, 0) {
				return false
			}
		}
	}
	return true
}
