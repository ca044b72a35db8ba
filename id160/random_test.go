package id160

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestRandom(t *testing.T) *Random {
	t.Helper()
	r, err := NewRandom()
	require.NoError(t, err)
	return r
}

func TestSeedAlwaysFails(t *testing.T) {
	r := newTestRandom(t)
	require.ErrorIs(t, r.Seed(42), ErrReseedNotSupported)
	require.ErrorIs(t, r.Seed(0), ErrReseedNotSupported)
}

func TestIntnBounds(t *testing.T) {
	r := newTestRandom(t)

	_, err := r.Intn(0)
	require.ErrorIs(t, err, ErrNonPositiveBound)
	_, err = r.Intn(-3)
	require.ErrorIs(t, err, ErrNonPositiveBound)
	_, err = r.Intn(math.MaxInt32 + 1)
	require.ErrorIs(t, err, ErrNonPositiveBound)

	v, err := r.Intn(1)
	require.NoError(t, err)
	require.Equal(t, 0, v)

	for _, n := range []int{2, 7, 64, 1000, math.MaxInt32} {
		for i := 0; i < 1000; i++ {
			v, err := r.Intn(n)
			require.NoError(t, err)
			require.GreaterOrEqual(t, v, 0)
			require.Less(t, v, n)
		}
	}
}

func TestIntnIsRoughlyUniform(t *testing.T) {
	r := newTestRandom(t)

	const n = 10
	const draws = 100000
	counts := make([]int, n)
	for i := 0; i < draws; i++ {
		v, err := r.Intn(n)
		require.NoError(t, err)
		counts[v]++
	}
	// Each bucket expects 10000 draws; allow 5% drift.
	for b, c := range counts {
		require.InDelta(t, draws/n, c, draws/n*0.05, "bucket %d", b)
	}
}

func TestInt63n(t *testing.T) {
	r := newTestRandom(t)

	_, err := r.Int63n(0)
	require.ErrorIs(t, err, ErrNonPositiveBound)

	for _, n := range []int64{5, math.MaxInt32 - 1, math.MaxInt32 + 1, int64(1) << 40, math.MaxInt64} {
		for i := 0; i < 1000; i++ {
			v, err := r.Int63n(n)
			require.NoError(t, err)
			require.GreaterOrEqual(t, v, int64(0))
			require.Less(t, v, n)
		}
	}
}

func TestInt63IsNonNegative(t *testing.T) {
	r := newTestRandom(t)
	for i := 0; i < 10000; i++ {
		require.GreaterOrEqual(t, r.Int63(), int64(0))
	}
}

func TestFloat64Range(t *testing.T) {
	r := newTestRandom(t)

	for i := 0; i < 10000; i++ {
		f := r.Float64()
		require.GreaterOrEqual(t, f, 0.0)
		require.Less(t, f, 1.0)
	}

	_, err := r.Float64n(0)
	require.ErrorIs(t, err, ErrNonPositiveBound)
	_, err = r.Float64Range(2, 2)
	require.ErrorIs(t, err, ErrBadRange)
	_, err = r.Float64Range(3, 1)
	require.ErrorIs(t, err, ErrBadRange)

	for i := 0; i < 1000; i++ {
		f, err := r.Float64Range(-5, 5)
		require.NoError(t, err)
		require.GreaterOrEqual(t, f, -5.0)
		require.Less(t, f, 5.0)
	}
}

func TestNormFloat64Moments(t *testing.T) {
	r := newTestRandom(t)

	const draws = 100000
	var sum, sumSq float64
	for i := 0; i < draws; i++ {
		v := r.NormFloat64()
		sum += v
		sumSq += v * v
	}
	mean := sum / draws
	variance := sumSq/draws - mean*mean
	require.InDelta(t, 0.0, mean, 0.02)
	require.InDelta(t, 1.0, variance, 0.05)
}

func TestNextId160IsFull(t *testing.T) {
	r := newTestRandom(t)

	// Across a handful of draws every byte position should vary.
	seen := make(map[Id160]bool)
	var varied [Size]bool
	first := r.NextId160()
	for i := 0; i < 64; i++ {
		id := r.NextId160()
		require.False(t, seen[id], "duplicate identifier")
		seen[id] = true
		for b := 0; b < Size; b++ {
			if id[b] != first[b] {
				varied[b] = true
			}
		}
	}
	for b, v := range varied {
		require.True(t, v, "byte %d never varied", b)
	}
}

func TestNextId160Bounded(t *testing.T) {
	r := newTestRandom(t)

	_, err := r.NextId160Bounded(Zero)
	require.ErrorIs(t, err, ErrNonPositiveBound)

	one := Id160{19: 1}
	id, err := r.NextId160Bounded(one)
	require.NoError(t, err)
	require.Equal(t, Zero, id)

	bounds := []Id160{
		{19: 2},
		{19: 100},
		{18: 1},          // 256
		{10: 0x40},       // mid-width
		{0: 0x01, 19: 1}, // near full width
	}
	for _, bound := range bounds {
		for i := 0; i < 200; i++ {
			id, err := r.NextId160Bounded(bound)
			require.NoError(t, err)
			require.Negative(t, id.Compare(bound))
		}
	}
}

func TestNextId160Range(t *testing.T) {
	r := newTestRandom(t)

	least := Id160{19: 10}
	bound := Id160{19: 20}

	_, err := r.NextId160Range(bound, least)
	require.ErrorIs(t, err, ErrBadRange)
	_, err = r.NextId160Range(least, least)
	require.ErrorIs(t, err, ErrBadRange)

	for i := 0; i < 500; i++ {
		id, err := r.NextId160Range(least, bound)
		require.NoError(t, err)
		require.GreaterOrEqual(t, id.Compare(least), 0)
		require.Negative(t, id.Compare(bound))
	}
}

func TestPoolAndNewId(t *testing.T) {
	r := Acquire()
	require.NotNil(t, r)
	Release(r)

	a := NewId()
	b := NewId()
	require.NotEqual(t, a, b)
	require.False(t, a.IsZero())
}
