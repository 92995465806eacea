package linkage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/fourbar/pkg/errors"
)

func TestNewtonRaphsonConverges(t *testing.T) {
	l := MustNew(120, 30, 90, 80)
	theta2 := radians(15)

	r := l.NewtonRaphson(theta2)
	require.True(t, r.Converged)
	assert.Equal(t, Converged, r.Status)
	assert.LessOrEqual(t, r.Iterations, DefaultMaxIter)
	assert.Less(t, r.ResidualNorm, DefaultTolerance)
	assert.NoError(t, r.Err())

	assert.InDelta(t, 47.4696, degrees(r.Theta3), 1e-3)
	assert.InDelta(t, 112.1665, degrees(r.Theta4), 1e-3)
}

func TestNewtonRaphsonEqualSeedIsSingular(t *testing.T) {
	// With θ3 == θ4 the links are parallel and det J = r3·r4·sin(0) = 0, so
	// the very first iteration stops.
	l := MustNew(120, 30, 90, 80)
	for _, seed := range []Seed{SeedDegrees(45, 45), SeedDegrees(30, 30), SeedDegrees(120, 120)} {
		r := l.NewtonRaphson(radians(15), WithSeed(seed))
		assert.False(t, r.Converged)
		assert.Equal(t, SingularJacobian, r.Status)
		assert.Equal(t, 1, r.Iterations)
		assert.Equal(t, seed.Theta3, r.Theta3)
		assert.Equal(t, seed.Theta4, r.Theta4)
		assert.Greater(t, r.ResidualNorm, 0.0)
		assert.True(t, errors.Is(r.Err(), errors.ErrCodeSingularJacobian))
	}
}

func TestNewtonRaphsonMaxIter(t *testing.T) {
	// Fully extended linkage: B at 90° is out of reach of coupler+output.
	l := MustNew(6, 1, 2, 3)

	r := l.NewtonRaphson(radians(90))
	assert.False(t, r.Converged)
	assert.Equal(t, MaxIterExceeded, r.Status)
	assert.Equal(t, DefaultMaxIter, r.Iterations)
	assert.Greater(t, r.ResidualNorm, DefaultTolerance)
	assert.True(t, errors.Is(r.Err(), errors.ErrCodeMaxIterExceeded))

	r = l.NewtonRaphson(radians(90), WithMaxIter(3))
	assert.Equal(t, MaxIterExceeded, r.Status)
	assert.Equal(t, 3, r.Iterations)
}

func TestNewtonRaphsonTolerance(t *testing.T) {
	l := MustNew(120, 30, 90, 80)
	loose := l.NewtonRaphson(radians(15), WithTolerance(1))
	tight := l.NewtonRaphson(radians(15))

	require.True(t, loose.Converged)
	require.True(t, tight.Converged)
	assert.LessOrEqual(t, loose.Iterations, tight.Iterations)
	assert.Less(t, loose.ResidualNorm, 1.0)
}

func TestNewtonRaphsonInvalidOptionsFallBack(t *testing.T) {
	l := MustNew(120, 30, 90, 80)
	want := l.NewtonRaphson(radians(15))
	got := l.NewtonRaphson(radians(15), WithTolerance(-1), WithMaxIter(0))
	assert.Equal(t, want, got)
}

func TestStatusText(t *testing.T) {
	for _, s := range []Status{Converged, SingularJacobian, MaxIterExceeded} {
		data, err := json.Marshal(s)
		require.NoError(t, err)

		var back Status
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, s, back)
	}
	assert.Equal(t, `"singular-jacobian"`, mustJSON(t, SingularJacobian))
	assert.Equal(t, "unknown", Status(42).String())

	var s Status
	assert.Error(t, s.UnmarshalText([]byte("diverged")))
}

func TestZeroSolveResultIsNotConverged(t *testing.T) {
	var r SolveResult
	assert.Equal(t, StatusUnknown, r.Status)
	assert.Equal(t, "unknown", r.Status.String())
	assert.True(t, errors.Is(r.Err(), errors.ErrCodeInternal))
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
