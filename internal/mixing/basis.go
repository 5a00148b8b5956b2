package mixing

// Fixed polarization projectors. Each selects one channel probability from
// a density matrix via P = Re Tr(Pi * rho); they are idempotent, mutually
// orthogonal, and sum to the identity.

// ProjectorT selects the first transverse photon polarization.
func ProjectorT() Matrix3 {
	var p Matrix3
	p[0][0] = 1
	return p
}

// ProjectorU selects the second transverse photon polarization.
func ProjectorU() Matrix3 {
	var p Matrix3
	p[1][1] = 1
	return p
}

// ProjectorALP selects the ALP channel.
func ProjectorALP() Matrix3 {
	var p Matrix3
	p[2][2] = 1
	return p
}

// DensityT returns the density matrix of a beam fully polarized along the
// first transverse direction.
func DensityT() Matrix3 { return ProjectorT() }

// DensityU returns the density matrix of a beam fully polarized along the
// second transverse direction.
func DensityU() Matrix3 { return ProjectorU() }

// DensityALP returns the density matrix of a pure ALP state.
func DensityALP() Matrix3 { return ProjectorALP() }

// DensityUnpolarized returns the density matrix of an unpolarized photon
// beam, the equal mixture of the two transverse polarizations.
func DensityUnpolarized() Matrix3 {
	var p Matrix3
	p[0][0] = 0.5
	p[1][1] = 0.5
	return p
}
