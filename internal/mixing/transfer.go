package mixing

import "math/cmplx"

// TransferMatrix assembles the domain transfer operator from the resolved
// eigen-system:
//
//	U = exp(lambda_1 L) T1 + exp(lambda_2 L) T2 + exp(lambda_3 L) T3
//
// The construction is purely algebraic; it performs no external calls and
// allocates nothing beyond the returned value. When every lambda_k is
// purely imaginary the result is unitary up to rounding.
//
// Parameters:
//   - dp: The fully resolved domain parameters.
//
// Returns:
//   - Matrix3: The 3x3 complex transfer matrix of the domain.
func TransferMatrix(dp DomainParameters) Matrix3 {
	l := complex(dp.Length, 0)
	u := dp.T1.Scale(cmplx.Exp(dp.Eigenvalues[0] * l))
	u = u.Add(dp.T2.Scale(cmplx.Exp(dp.Eigenvalues[1] * l)))
	u = u.Add(dp.T3.Scale(cmplx.Exp(dp.Eigenvalues[2] * l)))
	return u
}

// ChannelProbabilities reads the three channel probabilities off an
// evolved state: P_c = Re Tr(Pi_c * U * rho * U-dagger) for the fixed
// projectors of this package.
//
// Parameters:
//   - u: The cumulative transfer matrix of the traversed path.
//   - rho: The input density matrix.
//
// Returns:
//   - pt: Probability of the first transverse photon polarization.
//   - pu: Probability of the second transverse photon polarization.
//   - pa: Probability of the ALP channel.
func ChannelProbabilities(u, rho Matrix3) (pt, pu, pa float64) {
	evolved := u.Conjugate(rho)
	pt = real(ProjectorT().Mul(evolved).Trace())
	pu = real(ProjectorU().Mul(evolved).Trace())
	pa = real(ProjectorALP().Mul(evolved).Trace())
	return pt, pu, pa
}
