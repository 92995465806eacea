package linkage

import (
	"fmt"

	"github.com/matzehuels/fourbar/pkg/errors"
)

// Linkage is an immutable planar four-bar linkage.
//
// The ground pivots sit at A=(0,0) and D=(r1,0). The mechanism type is
// classified once at construction and cached.
type Linkage struct {
	fixed   float64 // r1, ground link between A and D
	input   float64 // r2, driver pivoting about A
	coupler float64 // r3, floating link between B and C
	output  float64 // r4, follower pivoting about D
	kind    MechanismType
}

// New creates a linkage from the fixed, input, coupler and output link
// lengths. Every length must be finite and strictly positive.
func New(r1, r2, r3, r4 float64) (*Linkage, error) {
	if err := errors.ValidateLengths(r1, r2, r3, r4); err != nil {
		return nil, err
	}
	return &Linkage{
		fixed:   r1,
		input:   r2,
		coupler: r3,
		output:  r4,
		kind:    Classify(r1, r2, r3, r4),
	}, nil
}

// MustNew is like [New] but panics on invalid lengths. Intended for tests and
// package-level fixtures with constant lengths.
func MustNew(r1, r2, r3, r4 float64) *Linkage {
	l, err := New(r1, r2, r3, r4)
	if err != nil {
		panic(err)
	}
	return l
}

// Lengths returns (r1, r2, r3, r4).
func (l *Linkage) Lengths() [4]float64 {
	return [4]float64{l.fixed, l.input, l.coupler, l.output}
}

// Fixed returns r1.
func (l *Linkage) Fixed() float64 { return l.fixed }

// Input returns r2.
func (l *Linkage) Input() float64 { return l.input }

// Coupler returns r3.
func (l *Linkage) Coupler() float64 { return l.coupler }

// Output returns r4.
func (l *Linkage) Output() float64 { return l.output }

// Classify returns the cached mechanism type.
func (l *Linkage) Classify() MechanismType { return l.kind }

// String implements fmt.Stringer.
func (l *Linkage) String() string {
	return fmt.Sprintf("four-bar(r1=%g, r2=%g, r3=%g, r4=%g, %s)",
		l.fixed, l.input, l.coupler, l.output, l.kind)
}
