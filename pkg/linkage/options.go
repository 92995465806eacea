package linkage

import "math"

// Solver defaults.
const (
	// DefaultTolerance is the convergence bound on ‖F‖₂.
	DefaultTolerance = 1e-8

	// DefaultMaxIter is the Newton-Raphson iteration budget.
	DefaultMaxIter = 50

	// SolverSingularThreshold is the |det J| below which the Jacobian is
	// treated as non-invertible during iteration.
	SolverSingularThreshold = 1e-10

	// DefaultSingularThreshold is the |det J| below which a converged position
	// is flagged as near a kinematic singularity.
	DefaultSingularThreshold = 1e-3
)

// Seed is an initial guess for (θ3, θ4) in radians.
type Seed struct {
	Theta3 float64 `json:"theta3"`
	Theta4 float64 `json:"theta4"`
}

// SeedDegrees builds a Seed from angles in degrees.
func SeedDegrees(theta3, theta4 float64) Seed {
	return Seed{Theta3: radians(theta3), Theta4: radians(theta4)}
}

// Option tunes a single solve.
type Option func(*options)

type options struct {
	seed              *Seed
	tolerance         float64
	maxIter           int
	singularThreshold float64
}

// WithSeed overrides the initial guess.
func WithSeed(s Seed) Option { return func(o *options) { o.seed = &s } }

// WithTolerance overrides the convergence tolerance. Non-positive values keep
// the default.
func WithTolerance(tol float64) Option { return func(o *options) { o.tolerance = tol } }

// WithMaxIter overrides the iteration budget. Non-positive values keep the
// default.
func WithMaxIter(n int) Option { return func(o *options) { o.maxIter = n } }

// WithSingularThreshold overrides the near-singularity threshold applied to
// converged positions. Non-positive values keep the default.
func WithSingularThreshold(th float64) Option {
	return func(o *options) { o.singularThreshold = th }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if !(o.tolerance > 0) {
		o.tolerance = DefaultTolerance
	}
	if o.maxIter <= 0 {
		o.maxIter = DefaultMaxIter
	}
	if !(o.singularThreshold > 0) {
		o.singularThreshold = DefaultSingularThreshold
	}
	return o
}

func radians(deg float64) float64 { return deg * (math.Pi / 180) }

func degrees(rad float64) float64 { return rad * (180 / math.Pi) }
