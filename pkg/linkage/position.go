package linkage

import (
	"math"

	"github.com/matzehuels/fourbar/pkg/errors"
)

// Configuration selects one of the two assembly branches.
type Configuration string

// Assembly branches.
const (
	Open    Configuration = "open"
	Crossed Configuration = "crossed"
)

// Configurations lists the branches in sweep order.
var Configurations = []Configuration{Open, Crossed}

// ParseConfiguration validates a branch name.
func ParseConfiguration(s string) (Configuration, error) {
	switch Configuration(s) {
	case Open, Crossed:
		return Configuration(s), nil
	}
	return "", errors.New(errors.ErrCodeInvalidConfiguration,
		"invalid configuration: %q (must be 'open' or 'crossed')", s)
}

// Branch seed offsets from the B→D diagonal, in degrees.
const (
	branchOffsetCoupler = 60
	branchOffsetOutput  = 120
)

// BranchSeed returns the heuristic Newton-Raphson seed for the branch at input
// angle θ2 (radians). With ψ the direction from B to D, the open seed is
// (ψ+60°, ψ+120°) and the crossed seed its mirror (ψ−60°, ψ−120°), placing
// the initial coupler point C on the left or right of BD respectively.
//
// A seed with θ3 == θ4 makes det J = r3·r4·sin(θ3−θ4) vanish, so the two
// offsets must differ.
//
// The seed keeps crank-rockers and drag-links on the requested branch over
// the whole input circle. On double-rockers, near the input limit positions
// where the two branches meet, Newton-Raphson can converge to the other
// branch; callers that need a strict branch should check the side of BD or
// pass [WithSeed].
func (l *Linkage) BranchSeed(theta2 float64, cfg Configuration) Seed {
	b := polar(l.input, theta2)
	psi := math.Atan2(-b.Y, l.fixed-b.X)
	sign := 1.0
	if cfg == Crossed {
		sign = -1
	}
	return Seed{
		Theta3: psi + sign*radians(branchOffsetCoupler),
		Theta4: psi + sign*radians(branchOffsetOutput),
	}
}

// CrankPin returns joint B for an input angle in degrees.
func (l *Linkage) CrankPin(theta2Deg float64) Vec2 {
	return polar(l.input, radians(theta2Deg))
}

// Points holds the joint coordinates. A and D are the ground pivots.
type Points struct {
	A Vec2 `json:"a"`
	B Vec2 `json:"b"`
	C Vec2 `json:"c"`
	D Vec2 `json:"d"`
}

// Singularity is the advisory near-singularity record of a converged position.
type Singularity struct {
	NearSingular bool    `json:"near_singular"`
	Determinant  float64 `json:"determinant"` // |det J|
}

// PositionResult is a solved linkage position. Angles are in degrees.
type PositionResult struct {
	Configuration     Configuration `json:"configuration"`
	Theta2            float64       `json:"theta2"`
	Theta3            float64       `json:"theta3"`
	Theta4            float64       `json:"theta4"`
	TransmissionAngle float64       `json:"transmission_angle"`
	Points            Points        `json:"points"`
	Convergence       SolveResult   `json:"convergence"`
	Singularity       Singularity   `json:"singularity"`
}

// SolvePosition solves the linkage for an input angle in degrees on the given
// branch, starting Newton-Raphson from [Linkage.BranchSeed] unless [WithSeed]
// overrides it. The second result is false when the solve did not converge;
// that means no position was found from this seed, not that the input angle is
// unreachable.
func (l *Linkage) SolvePosition(theta2Deg float64, cfg Configuration, opts ...Option) (PositionResult, bool) {
	pos, _, ok := l.solvePosition(theta2Deg, cfg, opts...)
	return pos, ok
}

// SolvePositionDetail is like [Linkage.SolvePosition] but also returns the raw
// solver result, which explains a failure.
func (l *Linkage) SolvePositionDetail(theta2Deg float64, cfg Configuration, opts ...Option) (PositionResult, SolveResult, bool) {
	return l.solvePosition(theta2Deg, cfg, opts...)
}

func (l *Linkage) solvePosition(theta2Deg float64, cfg Configuration, opts ...Option) (PositionResult, SolveResult, bool) {
	o := buildOptions(opts)
	theta2 := radians(theta2Deg)
	seed := l.BranchSeed(theta2, cfg)
	if o.seed != nil {
		seed = *o.seed
	}

	sr := l.newton(theta2, seed, o.tolerance, o.maxIter)
	if !sr.Converged {
		return PositionResult{}, sr, false
	}

	near, det := l.IsNearSingular(theta2, sr.Theta3, sr.Theta4, o.singularThreshold)

	b := polar(l.input, theta2)
	return PositionResult{
		Configuration:     cfg,
		Theta2:            degrees(theta2),
		Theta3:            degrees(sr.Theta3),
		Theta4:            degrees(sr.Theta4),
		TransmissionAngle: transmissionAngle(sr.Theta3, sr.Theta4),
		Points: Points{
			A: Vec2{},
			B: b,
			C: b.Add(polar(l.coupler, sr.Theta3)),
			D: Vec2{X: l.fixed},
		},
		Convergence: sr,
		Singularity: Singularity{NearSingular: near, Determinant: det},
	}, sr, true
}

// transmissionAngle returns the angle between coupler and output link in
// degrees, folded into [0, 180].
func transmissionAngle(theta3, theta4 float64) float64 {
	mu := math.Abs(math.Remainder(theta4-theta3, 2*math.Pi))
	return degrees(mu)
}
