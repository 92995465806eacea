package linkage

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/matzehuels/fourbar/pkg/errors"
)

type sampleKey struct {
	theta2 int
	cfg    Configuration
}

func TestSweepCompleteness(t *testing.T) {
	for _, lengths := range [][4]float64{
		{120, 30, 90, 80},  // crank-rocker, fully reachable
		{100, 60, 70, 80},  // triple-rocker, partially reachable
		{6, 1, 2, 3},       // fully extended
		{100, 100, 100, 100},
	} {
		l := MustNew(lengths[0], lengths[1], lengths[2], lengths[3])
		rec, err := l.Sweep(10)
		require.NoError(t, err)

		assert.Equal(t, 72, rec.Attempted(), "%v", lengths)

		seen := make(map[sampleKey]bool)
		for _, p := range rec.Results {
			k := sampleKey{int(math.Round(p.Theta2)), p.Configuration}
			assert.False(t, seen[k], "duplicate result %v", k)
			seen[k] = true
		}
		for _, e := range rec.NonConvergent() {
			k := sampleKey{e.Theta2, e.Configuration}
			assert.False(t, seen[k], "sample %v is both a result and non-convergent", k)
			seen[k] = true
		}
		assert.Len(t, seen, 72)
		for _, a := range SweepAngles(10) {
			for _, cfg := range Configurations {
				assert.True(t, seen[sampleKey{a, cfg}], "missing sample θ2=%d %s", a, cfg)
			}
		}
	}
}

func TestSweepCrankRocker(t *testing.T) {
	l := MustNew(120, 30, 90, 80)
	rec, err := l.Sweep(DefaultStep)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.Step)
	assert.Len(t, rec.Results, 720)
	assert.Empty(t, rec.NonConvergent())

	// Ordered by angle, open before crossed.
	assert.Equal(t, Open, rec.Results[0].Configuration)
	assert.Equal(t, Crossed, rec.Results[1].Configuration)
	assert.InDelta(t, 1, rec.Results[2].Theta2, 1e-12)

	for _, b := range rec.Summary() {
		assert.Equal(t, 360, b.Converged)
		assert.Zero(t, b.NonConvergent)
		assert.True(t, b.FullInputRange)
		assert.Less(t, b.Theta4Min, b.Theta4Max)
		// A rocker oscillates; it does not sweep the full circle.
		assert.Less(t, b.Theta4Max-b.Theta4Min, 180.0)
		assert.GreaterOrEqual(t, b.TransmissionMin, 0.0)
		assert.LessOrEqual(t, b.TransmissionMax, 180.0)
		assert.LessOrEqual(t, b.MaxIterations, DefaultMaxIter)
	}
}

// sideOfBD returns the sign of C relative to the directed line B→D: positive
// on the left (open), negative on the right (crossed).
func sideOfBD(p Points) float64 {
	bd := p.D.Add(p.B.Neg())
	bc := p.C.Add(p.B.Neg())
	return bd.X*bc.Y - bd.Y*bc.X
}

func TestSweepStaysOnBranch(t *testing.T) {
	for _, lengths := range [][4]float64{
		{120, 30, 90, 80}, // crank-rocker
		{30, 60, 80, 70},  // drag-link
	} {
		l := MustNew(lengths[0], lengths[1], lengths[2], lengths[3])
		rec, err := l.Sweep(DefaultStep)
		require.NoError(t, err)
		require.Len(t, rec.Results, 720, "%v", lengths)

		for _, p := range rec.Results {
			side := sideOfBD(p.Points)
			if p.Configuration == Open {
				assert.Positive(t, side, "%v open θ2=%v", lengths, p.Theta2)
			} else {
				assert.Negative(t, side, "%v crossed θ2=%v", lengths, p.Theta2)
			}
		}
	}
}

func TestSweepFullyExtended(t *testing.T) {
	l := MustNew(6, 1, 2, 3)
	rec, err := l.Sweep(10)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(rec.NonConvergent()), 70)
	for _, p := range rec.Results {
		assert.InDelta(t, 0, p.Theta2, 1e-12, "only the extended dead point closes")
		assert.True(t, p.Singularity.NearSingular)
	}
	assert.Len(t, rec.NearSingular(), len(rec.Results))

	for _, e := range rec.NonConvergent() {
		assert.Zero(t, e.Determinant)
		assert.NotEqual(t, Converged, e.Status)
	}
	for _, b := range rec.Summary() {
		assert.False(t, b.FullInputRange)
	}
}

func TestSweepInvalidStep(t *testing.T) {
	l := MustNew(120, 30, 90, 80)
	for _, step := range []int{0, -1, 361} {
		_, err := l.Sweep(step)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidStep), "step %d", step)

		_, err = l.SweepParallel(context.Background(), step, 4)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidStep), "step %d", step)
	}
}

func TestSweepAngles(t *testing.T) {
	assert.Len(t, SweepAngles(10), 36)
	assert.Len(t, SweepAngles(1), 360)
	assert.Equal(t, []int{0}, SweepAngles(360))

	a := SweepAngles(7)
	assert.Len(t, a, 52)
	assert.Equal(t, 357, a[len(a)-1])

	assert.Nil(t, SweepAngles(0))
}

func TestSamplesLazyAndRestartable(t *testing.T) {
	l := MustNew(120, 30, 90, 80)
	seq := l.Samples(10)

	n := 0
	for range seq {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)

	var first, second []Sample
	for s := range seq {
		first = append(first, s)
	}
	for s := range seq {
		second = append(second, s)
	}
	assert.Len(t, first, 72)
	assert.Equal(t, first, second)

	count := 0
	for range l.Samples(0) {
		count++
	}
	assert.Zero(t, count)
}

func TestSweepParallelMatchesSequential(t *testing.T) {
	defer goleak.VerifyNone(t)

	for _, lengths := range [][4]float64{{120, 30, 90, 80}, {100, 60, 70, 80}, {6, 1, 2, 3}} {
		l := MustNew(lengths[0], lengths[1], lengths[2], lengths[3])
		want, err := l.Sweep(5)
		require.NoError(t, err)

		for _, workers := range []int{0, 1, 3, 16} {
			got, err := l.SweepParallel(context.Background(), 5, workers)
			require.NoError(t, err)
			assert.Equal(t, want, got, "%v workers=%d", lengths, workers)
		}
	}
}

func TestSweepParallelCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := MustNew(120, 30, 90, 80).SweepParallel(ctx, 1, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSweepDeterministic(t *testing.T) {
	l := MustNew(100, 60, 70, 80)
	a, err := l.Sweep(3)
	require.NoError(t, err)
	b, err := l.Sweep(3)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestFoldDegrees(t *testing.T) {
	assert.InDelta(t, 10, foldDegrees(370), 1e-12)
	assert.InDelta(t, -10, foldDegrees(-370), 1e-12)
	assert.Equal(t, 180.0, foldDegrees(180))
	assert.Equal(t, 180.0, foldDegrees(-180))
}
