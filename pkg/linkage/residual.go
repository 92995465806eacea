package linkage

import "math"

// Residual evaluates the loop-closure equations F(θ2, θ3, θ4) = (f1, f2):
//
//	f1 = r2·cosθ2 + r3·cosθ3 − r1 − r4·cosθ4
//	f2 = r2·sinθ2 + r3·sinθ3 − r4·sinθ4
//
// F is zero exactly when the four links close. Angles are in radians.
func (l *Linkage) Residual(theta2, theta3, theta4 float64) Vec2 {
	return polar(l.input, theta2).
		Add(polar(l.coupler, theta3)).
		Add(Vec2{X: -l.fixed}).
		Add(polar(l.output, theta4).Neg())
}

// Jacobian returns ∂F/∂(θ3, θ4):
//
//	[ −r3·sinθ3    r4·sinθ4 ]
//	[  r3·cosθ3   −r4·cosθ4 ]
//
// θ2 is held fixed during a solve, so it does not appear.
func (l *Linkage) Jacobian(theta3, theta4 float64) Mat2 {
	s3, c3 := math.Sincos(theta3)
	s4, c4 := math.Sincos(theta4)
	return Mat2{
		{-l.coupler * s3, l.output * s4},
		{l.coupler * c3, -l.output * c4},
	}
}
