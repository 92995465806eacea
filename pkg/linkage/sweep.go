package linkage

import (
	"context"
	"iter"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/fourbar/pkg/errors"
)

// DefaultStep is the sweep increment in degrees.
const DefaultStep = 1

// EventKind tags a sweep event.
type EventKind string

// Event kinds.
const (
	// EventNearSingular marks a converged position with |det J| below the
	// singularity threshold. The position is also in the result sequence.
	EventNearSingular EventKind = "near-singular"

	// EventNonConvergent marks an input angle and branch for which no position
	// was found.
	EventNonConvergent EventKind = "non-convergent"
)

// Sample is one attempted (θ2, configuration) solve of a sweep.
type Sample struct {
	Theta2        int            // input angle in whole degrees
	Configuration Configuration  // assembly branch
	Position      PositionResult // valid only when OK
	Solve         SolveResult    // raw solver outcome
	OK            bool           // a position was found
}

// Event is a singularity or non-convergence record of a sweep.
type Event struct {
	Theta2        int           `json:"theta2"`
	Configuration Configuration `json:"configuration"`
	Kind          EventKind     `json:"kind"`
	Determinant   float64       `json:"determinant"`
	Status        Status        `json:"status"`
	Iterations    int           `json:"iterations"`
	ResidualNorm  float64       `json:"residual_norm"`
}

// SweepRecord is the collected outcome of a sweep. Results and Events are
// ordered by input angle, then by configuration (open before crossed).
type SweepRecord struct {
	Step    int              `json:"step"`
	Results []PositionResult `json:"results"`
	Events  []Event          `json:"events"`
}

// Attempted returns the number of samples the sweep tried: every sample is
// either a result or a non-convergent event.
func (r *SweepRecord) Attempted() int {
	return len(r.Results) + r.count(EventNonConvergent)
}

// NonConvergent returns the non-convergent events.
func (r *SweepRecord) NonConvergent() []Event { return r.filter(EventNonConvergent) }

// NearSingular returns the near-singular events.
func (r *SweepRecord) NearSingular() []Event { return r.filter(EventNearSingular) }

func (r *SweepRecord) count(kind EventKind) int {
	n := 0
	for _, e := range r.Events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (r *SweepRecord) filter(kind EventKind) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// SweepAngles returns the input angles visited for step: 0, step, 2·step, ...
// below 360.
func SweepAngles(step int) []int {
	if step <= 0 {
		return nil
	}
	angles := make([]int, 0, (359/step)+1)
	for a := 0; a < 360; a += step {
		angles = append(angles, a)
	}
	return angles
}

// Samples returns a lazy sequence of every (θ2, configuration) solve for step.
// Each iteration over the sequence recomputes the solves, so the sequence can
// be restarted and stopped early. An invalid step yields nothing.
func (l *Linkage) Samples(step int, opts ...Option) iter.Seq[Sample] {
	return func(yield func(Sample) bool) {
		for _, a := range SweepAngles(step) {
			for _, cfg := range Configurations {
				if !yield(l.sample(a, cfg, opts)) {
					return
				}
			}
		}
	}
}

func (l *Linkage) sample(theta2 int, cfg Configuration, opts []Option) Sample {
	pos, sr, ok := l.solvePosition(float64(theta2), cfg, opts...)
	return Sample{Theta2: theta2, Configuration: cfg, Position: pos, Solve: sr, OK: ok}
}

// Sweep solves every input angle in [0°, 360°) at the given step for both
// configurations and collects the results and events.
func (l *Linkage) Sweep(step int, opts ...Option) (*SweepRecord, error) {
	if err := errors.ValidateStep(step); err != nil {
		return nil, err
	}
	rec := &SweepRecord{Step: step}
	for s := range l.Samples(step, opts...) {
		rec.add(s)
	}
	return rec, nil
}

// SweepParallel is [Linkage.Sweep] spread over at most workers goroutines
// (GOMAXPROCS when workers <= 0). The record is identical to the sequential
// one. Cancelling ctx stops scheduling and returns the context error.
func (l *Linkage) SweepParallel(ctx context.Context, step, workers int, opts ...Option) (*SweepRecord, error) {
	if err := errors.ValidateStep(step); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	angles := SweepAngles(step)
	samples := make([]Sample, len(angles)*len(Configurations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range samples {
		if gctx.Err() != nil {
			break
		}
		a := angles[i/len(Configurations)]
		cfg := Configurations[i%len(Configurations)]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			samples[i] = l.sample(a, cfg, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rec := &SweepRecord{Step: step}
	for _, s := range samples {
		rec.add(s)
	}
	return rec, nil
}

func (r *SweepRecord) add(s Sample) {
	if !s.OK {
		r.Events = append(r.Events, Event{
			Theta2:        s.Theta2,
			Configuration: s.Configuration,
			Kind:          EventNonConvergent,
			Status:        s.Solve.Status,
			Iterations:    s.Solve.Iterations,
			ResidualNorm:  s.Solve.ResidualNorm,
		})
		return
	}
	r.Results = append(r.Results, s.Position)
	if s.Position.Singularity.NearSingular {
		r.Events = append(r.Events, Event{
			Theta2:        s.Theta2,
			Configuration: s.Configuration,
			Kind:          EventNearSingular,
			Determinant:   s.Position.Singularity.Determinant,
			Status:        s.Solve.Status,
			Iterations:    s.Solve.Iterations,
			ResidualNorm:  s.Solve.ResidualNorm,
		})
	}
}

// BranchSummary aggregates one configuration of a sweep.
type BranchSummary struct {
	Configuration   Configuration `json:"configuration"`
	Converged       int           `json:"converged"`
	NonConvergent   int           `json:"non_convergent"`
	NearSingular    int           `json:"near_singular"`
	Theta4Min       float64       `json:"theta4_min"`
	Theta4Max       float64       `json:"theta4_max"`
	TransmissionMin float64       `json:"transmission_min"`
	TransmissionMax float64       `json:"transmission_max"`
	MaxIterations   int           `json:"max_iterations"`
	FullInputRange  bool          `json:"full_input_range"`
}

// Summary aggregates the record per configuration, in [Configurations] order.
// θ4 bounds are taken over the output angle folded into (−180°, 180°].
func (r *SweepRecord) Summary() []BranchSummary {
	out := make([]BranchSummary, len(Configurations))
	idx := make(map[Configuration]int, len(Configurations))
	for i, cfg := range Configurations {
		out[i] = BranchSummary{
			Configuration:   cfg,
			Theta4Min:       math.Inf(1),
			Theta4Max:       math.Inf(-1),
			TransmissionMin: math.Inf(1),
			TransmissionMax: math.Inf(-1),
		}
		idx[cfg] = i
	}

	for _, p := range r.Results {
		b := &out[idx[p.Configuration]]
		b.Converged++
		t4 := foldDegrees(p.Theta4)
		b.Theta4Min = math.Min(b.Theta4Min, t4)
		b.Theta4Max = math.Max(b.Theta4Max, t4)
		b.TransmissionMin = math.Min(b.TransmissionMin, p.TransmissionAngle)
		b.TransmissionMax = math.Max(b.TransmissionMax, p.TransmissionAngle)
		b.MaxIterations = max(b.MaxIterations, p.Convergence.Iterations)
	}
	for _, e := range r.Events {
		b := &out[idx[e.Configuration]]
		switch e.Kind {
		case EventNonConvergent:
			b.NonConvergent++
			b.MaxIterations = max(b.MaxIterations, e.Iterations)
		case EventNearSingular:
			b.NearSingular++
		}
	}

	for i := range out {
		b := &out[i]
		if b.Converged == 0 {
			b.Theta4Min, b.Theta4Max = 0, 0
			b.TransmissionMin, b.TransmissionMax = 0, 0
		}
		b.FullInputRange = b.NonConvergent == 0 && b.Converged > 0
	}
	return out
}

// foldDegrees maps an angle in degrees into (−180, 180].
func foldDegrees(deg float64) float64 {
	d := math.Remainder(deg, 360)
	if d == -180 {
		return 180
	}
	return d
}
