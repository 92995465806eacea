package linkage

import "math"

// IsNearSingular reports whether the mechanism at (θ2, θ3, θ4) is close to a
// kinematic singularity, i.e. |det J| < threshold, and returns |det J|. A
// non-positive threshold selects [DefaultSingularThreshold].
//
// θ2 does not enter the Jacobian; it is accepted so callers can pass a full
// joint state.
func (l *Linkage) IsNearSingular(theta2, theta3, theta4, threshold float64) (bool, float64) {
	if !(threshold > 0) {
		threshold = DefaultSingularThreshold
	}
	det := math.Abs(l.Jacobian(theta3, theta4).Det())
	return det < threshold, det
}
