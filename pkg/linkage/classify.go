package linkage

import "slices"

// MechanismType names the Grashof class of a four-bar linkage.
type MechanismType string

// Mechanism types.
const (
	CrankRocker  MechanismType = "crank-rocker"
	DragLink     MechanismType = "drag-link"
	DoubleRocker MechanismType = "double-rocker"
	ChangePoint  MechanismType = "change-point"
	TripleRocker MechanismType = "triple-rocker"
)

// Description returns a longer human-readable name.
func (t MechanismType) Description() string {
	switch t {
	case CrankRocker:
		return "crank-rocker (Grashof)"
	case DragLink:
		return "drag-link / double-crank (Grashof)"
	case DoubleRocker:
		return "double-rocker (Grashof)"
	case ChangePoint:
		return "change-point (foldable)"
	case TripleRocker:
		return "triple-rocker (non-Grashof)"
	}
	return string(t)
}

// IsGrashof reports whether at least one link can rotate fully relative to
// the others (s + l < p + q).
func (t MechanismType) IsGrashof() bool {
	return t == CrankRocker || t == DragLink || t == DoubleRocker
}

// LinkRole identifies one of the four links.
type LinkRole int

// Link roles in declaration order.
const (
	FixedLink LinkRole = iota
	InputLink
	CouplerLink
	OutputLink
)

func (r LinkRole) String() string {
	switch r {
	case FixedLink:
		return "fixed"
	case InputLink:
		return "input"
	case CouplerLink:
		return "coupler"
	case OutputLink:
		return "output"
	}
	return "unknown"
}

// Classify applies the Grashof condition to the four link lengths.
//
// With s the shortest, l the longest and p, q the remaining lengths:
//   - s+l < p+q: Grashof; the type follows from which link is shortest
//   - s+l == p+q: change-point
//   - otherwise: triple-rocker
//
// An output-shortest Grashof linkage is reported as [CrankRocker], the same as
// input-shortest. Classical theory calls that case a rocker-crank; the
// mapping is kept for compatibility with existing analyses.
func Classify(r1, r2, r3, r4 float64) MechanismType {
	sorted := []float64{r1, r2, r3, r4}
	slices.Sort(sorted)
	s, p, q, l := sorted[0], sorted[1], sorted[2], sorted[3]

	switch {
	case s+l < p+q:
		switch ShortestLink(r1, r2, r3, r4) {
		case InputLink:
			return CrankRocker
		case FixedLink:
			return DragLink
		case CouplerLink:
			return DoubleRocker
		default:
			return CrankRocker
		}
	case s+l == p+q:
		return ChangePoint
	default:
		return TripleRocker
	}
}

// ShortestLink returns the role of the shortest link. Ties resolve to the
// first role in fixed, input, coupler, output order.
func ShortestLink(r1, r2, r3, r4 float64) LinkRole {
	lengths := [4]float64{r1, r2, r3, r4}
	best := FixedLink
	for i := InputLink; i <= OutputLink; i++ {
		if lengths[i] < lengths[best] {
			best = i
		}
	}
	return best
}
