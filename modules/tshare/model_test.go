package tshare

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantRate(r float64) RateFunc {
	return func(int) float64 { return r }
}

func almostEqual(t *testing.T, want, got float64) {
	t.Helper()
	assert.InDelta(t, want, got, 1e-9)
}

func TestModelEqualVolumes(t *testing.T) {
	m := NewModel(constantRate(100))
	_, err := m.Insert("a", 50, 0)
	require.NoError(t, err)
	_, err = m.Insert("b", 50, 0)
	require.NoError(t, err)

	ft1, p1, ok, err := m.Pop(0)
	require.NoError(t, err)
	require.True(t, ok)
	almostEqual(t, 1.0, ft1)
	assert.Equal(t, "a", p1)

	ft2, p2, ok, err := m.Pop(ft1)
	require.NoError(t, err)
	require.True(t, ok)
	almostEqual(t, 1.0, ft2)
	assert.Equal(t, "b", p2)
}

func TestModelStaggeredArrival(t *testing.T) {
	m := NewModel(constantRate(100))
	_, err := m.Insert("first", 100, 0)
	require.NoError(t, err)

	_, err = m.Insert("second", 100, 0.5)
	require.NoError(t, err)

	ft1, p1, ok, err := m.Pop(0.5)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "first", p1)
	almostEqual(t, 1.5, ft1)

	ft2, p2, ok, err := m.Pop(ft1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", p2)
	almostEqual(t, 2.5, ft2)
}

func TestModelDegradedSharing(t *testing.T) {
	rate := func(n int) float64 { return 100 / math.Sqrt(float64(n)) }
	m := NewModel(rate)
	for i := 0; i < 3; i++ {
		_, err := m.Insert(i, 30, 0)
		require.NoError(t, err)
	}

	want := 0.9 * math.Sqrt(3)
	now := 0.0
	for i := 0; i < 3; i++ {
		ft, _, ok, err := m.Pop(now)
		require.NoError(t, err)
		require.True(t, ok)
		almostEqual(t, want, ft)
		now = ft
	}
}

func TestModelSingleActivity(t *testing.T) {
	m := NewModel(constantRate(40), WithFactor(func(any) float64 { return 2 }))
	_, err := m.Insert("solo", 100, 3)
	require.NoError(t, err)

	ft, p, ok, err := m.Pop(3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "solo", p)
	// V / (R(1) * F) = 100 / (40*2) = 1.25, starting at t=3.
	almostEqual(t, 4.25, ft)
}

func TestModelFairnessEqualFactor(t *testing.T) {
	m := NewModel(constantRate(60))
	_, err := m.Insert("a", 90, 0)
	require.NoError(t, err)
	_, err = m.Insert("b", 30, 0)
	require.NoError(t, err)

	ftB, _, ok, err := m.Pop(0)
	require.NoError(t, err)
	require.True(t, ok)
	ftA, _, ok, err := m.Pop(ftB)
	require.NoError(t, err)
	require.True(t, ok)

	perItem := 60.0 / 2.0
	almostEqual(t, 60.0/perItem, ftA-ftB)
}

func TestModelRejectsNonPositiveInputs(t *testing.T) {
	m := NewModel(constantRate(10))
	_, err := m.Insert("x", 0, 0)
	assert.ErrorIs(t, err, ErrNonPositiveVolume)

	m2 := NewModel(constantRate(10), WithFactor(func(any) float64 { return 0 }))
	_, err = m2.Insert("x", 10, 0)
	assert.ErrorIs(t, err, ErrNonPositiveFactor)
}

func TestModelRejectsBackwardsTime(t *testing.T) {
	m := NewModel(constantRate(10))
	_, err := m.Insert("x", 10, 5)
	require.NoError(t, err)
	_, err = m.Insert("y", 10, 1)
	assert.ErrorIs(t, err, ErrTimeWentBackwards)
}

func TestModelResetInvariance(t *testing.T) {
	rate := constantRate(100)
	withReset := NewModel(rate)
	plain := NewModel(rate)

	// Force an overflow reset mid-run by manipulating tw directly through
	// many small operations is impractical in a unit test; instead we
	// simulate the reset's effect directly and assert it doesn't perturb
	// a subsequent finish-time prediction, matching the
	// "semantically invisible" guarantee.
	_, _ = withReset.Insert("p", 50, 0)
	_, _ = plain.Insert("p", 50, 0)

	withReset.tw = resetThreshold + 10
	for _, a := range withReset.heap {
		a.fw += resetThreshold + 10
	}
	withReset.maybeReset()

	ftReset, _, _, err := withReset.Pop(0)
	require.NoError(t, err)
	ftPlain, _, _, err := plain.Pop(0)
	require.NoError(t, err)
	almostEqual(t, ftPlain, ftReset)
}

func TestModelDeterministicTieBreak(t *testing.T) {
	m := NewModel(constantRate(100))
	_, _ = m.Insert("first", 10, 0)
	_, _ = m.Insert("second", 10, 0)

	_, p1, _, _ := m.Pop(0)
	_, p2, _, _ := m.Pop(0)
	assert.Equal(t, "first", p1)
	assert.Equal(t, "second", p2)
}

func TestNaiveModelAgreesWithFastModel(t *testing.T) {
	rate := func(n int) float64 { return 100 / math.Sqrt(float64(n)) }
	fast := NewModel(rate)
	naive := NewNaiveModel(rate)

	volumes := []float64{30, 45, 15, 60}
	arrivals := []float64{0, 0.2, 0.5, 0.9}
	for i, v := range volumes {
		_, err := fast.Insert(i, v, arrivals[i])
		require.NoError(t, err)
		_, err = naive.Insert(i, v, arrivals[i])
		require.NoError(t, err)
	}

	now := arrivals[len(arrivals)-1]
	for fast.ActiveCount() > 0 {
		ftFast, pFast, ok, err := fast.Pop(now)
		require.NoError(t, err)
		require.True(t, ok)
		ftNaive, pNaive, ok, err := naive.Pop(now)
		require.NoError(t, err)
		require.True(t, ok)

		assert.Equal(t, pFast, pNaive)
		almostEqual(t, ftNaive, ftFast)
		now = ftFast
	}
}

func TestModelActiveCount(t *testing.T) {
	m := NewModel(constantRate(10))
	assert.Equal(t, 0, m.ActiveCount())
	_, _ = m.Insert("a", 5, 0)
	_, _ = m.Insert("b", 5, 0)
	assert.Equal(t, 2, m.ActiveCount())
	_, _, _, _ = m.Pop(0)
	assert.Equal(t, 1, m.ActiveCount())
}
