package linkage

import (
	"math"

	"github.com/matzehuels/fourbar/pkg/errors"
)

// Status is the terminal state of a Newton-Raphson run.
type Status int

// Terminal solver states. The zero Status is StatusUnknown, so a zero
// SolveResult never reads as converged.
const (
	StatusUnknown Status = iota
	Converged
	SingularJacobian
	MaxIterExceeded
)

var statusNames = map[Status]string{
	Converged:        "converged",
	SingularJacobian: "singular-jacobian",
	MaxIterExceeded:  "max-iter-exceeded",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return "unknown"
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a status name.
func (s *Status) UnmarshalText(b []byte) error {
	for k, v := range statusNames {
		if v == string(b) {
			*s = k
			return nil
		}
	}
	return errors.New(errors.ErrCodeInvalidInput, "unknown solver status %q", b)
}

// SolveResult is the outcome of one Newton-Raphson run. On failure the angles
// hold the last iterate, not a solution.
type SolveResult struct {
	Theta3       float64 `json:"theta3"` // radians
	Theta4       float64 `json:"theta4"` // radians
	Converged    bool    `json:"converged"`
	Iterations   int     `json:"iterations"`
	ResidualNorm float64 `json:"residual_norm"`
	Status       Status  `json:"status"`
}

// Err returns nil for a converged run and a structured error describing the
// failure otherwise.
func (r SolveResult) Err() error {
	switch r.Status {
	case Converged:
		return nil
	case SingularJacobian:
		return errors.New(errors.ErrCodeSingularJacobian,
			"jacobian not invertible at iteration %d (residual %.3g)", r.Iterations, r.ResidualNorm)
	case MaxIterExceeded:
		return errors.New(errors.ErrCodeMaxIterExceeded,
			"no convergence after %d iterations (residual %.3g)", r.Iterations, r.ResidualNorm)
	}
	return errors.New(errors.ErrCodeInternal, "unknown solver status %d", int(r.Status))
}

// NewtonRaphson solves F(θ2, θ3, θ4) = 0 for (θ3, θ4) with θ2 fixed, in
// radians. Without [WithSeed] the iteration starts from the open-branch seed
// [Linkage.BranchSeed].
//
// Each iteration checks ‖F‖ < tolerance first, then stops with
// [SingularJacobian] when |det J| < [SolverSingularThreshold], and otherwise
// applies the step Δ = −J⁻¹·F. Angles are never wrapped.
func (l *Linkage) NewtonRaphson(theta2 float64, opts ...Option) SolveResult {
	o := buildOptions(opts)
	seed := l.BranchSeed(theta2, Open)
	if o.seed != nil {
		seed = *o.seed
	}
	return l.newton(theta2, seed, o.tolerance, o.maxIter)
}

func (l *Linkage) newton(theta2 float64, seed Seed, tol float64, maxIter int) SolveResult {
	theta3, theta4 := seed.Theta3, seed.Theta4
	residual := math.Inf(1)

	for i := 0; i < maxIter; i++ {
		f := l.Residual(theta2, theta3, theta4)
		residual = f.Norm()
		if residual < tol {
			return SolveResult{theta3, theta4, true, i + 1, residual, Converged}
		}

		inv, ok := l.Jacobian(theta3, theta4).Inverse(SolverSingularThreshold)
		if !ok {
			return SolveResult{theta3, theta4, false, i + 1, residual, SingularJacobian}
		}

		delta := inv.MulVec(f.Neg())
		theta3 += delta.X
		theta4 += delta.Y
	}

	return SolveResult{theta3, theta4, false, maxIter, residual, MaxIterExceeded}
}
