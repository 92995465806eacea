package linkage

import "math"

// Vec2 is a two-component column vector. It doubles as a planar point.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns v + w.
func (v Vec2) Add(w Vec2) Vec2 { return Vec2{v.X + w.X, v.Y + w.Y} }

// Scale returns s·v.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{s * v.X, s * v.Y} }

// Neg returns −v.
func (v Vec2) Neg() Vec2 { return Vec2{-v.X, -v.Y} }

// Norm returns the Euclidean length of v.
func (v Vec2) Norm() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y) }

// polar returns r·(cos θ, sin θ).
func polar(r, theta float64) Vec2 {
	return Vec2{r * math.Cos(theta), r * math.Sin(theta)}
}

// Mat2 is a row-major 2×2 matrix.
type Mat2 [2][2]float64

// Det returns the determinant a·d − b·c.
func (m Mat2) Det() float64 {
	return m[0][0]*m[1][1] - m[0][1]*m[1][0]
}

// Inverse returns the closed-form inverse of m. The second result is false
// when |det| < threshold, in which case the matrix is treated as
// non-invertible and the zero matrix is returned.
func (m Mat2) Inverse(threshold float64) (Mat2, bool) {
	det := m.Det()
	if math.Abs(det) < threshold {
		return Mat2{}, false
	}
	return Mat2{
		{m[1][1] / det, -m[0][1] / det},
		{-m[1][0] / det, m[0][0] / det},
	}, true
}

// MulVec returns the matrix-vector product m·v.
func (m Mat2) MulVec(v Vec2) Vec2 {
	return Vec2{
		X: m[0][0]*v.X + m[0][1]*v.Y,
		Y: m[1][0]*v.X + m[1][1]*v.Y,
	}
}
