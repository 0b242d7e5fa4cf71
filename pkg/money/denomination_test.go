package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitExactForEveryAmount(t *testing.T) {
	for cents := int64(0); cents <= 5000; cents++ {
		b, err := Split(cents)
		require.NoError(t, err)
		assert.Equal(t, cents, b.Total(), "amount %d", cents)
	}
}

func TestSplitPrefersLargePieces(t *testing.T) {
	b, err := Split(1200) // 12.00 -> one 10€ note and one 2€ coin
	require.NoError(t, err)
	assert.Equal(t, int64(1), b.Count(1000))
	assert.Equal(t, int64(1), b.Count(200))
	assert.Equal(t, int64(2), b.Pieces())

	b, err = Split(4321)
	require.NoError(t, err)
	assert.Equal(t, int64(2), b.Count(2000))
	assert.Equal(t, int64(1), b.Count(200))
	assert.Equal(t, int64(1), b.Count(100))
	assert.Equal(t, int64(1), b.Count(20))
	assert.Equal(t, int64(1), b.Count(1))
	assert.Equal(t, int64(6), b.Pieces())
}

func TestSplitRejectsNegative(t *testing.T) {
	_, err := Split(-1)
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

// The ladder is a canonical coin system; greedy must never beat itself. A
// brute force over small amounts guards the ladder against careless edits.
func TestSplitMinimalPieceCount(t *testing.T) {
	const limit = 500
	best := make([]int64, limit+1)
	for n := int64(1); n <= limit; n++ {
		best[n] = n // all 1c pieces upper bound
		for _, denom := range Denominations {
			if denom <= n && best[n-denom]+1 < best[n] {
				best[n] = best[n-denom] + 1
			}
		}
		b, err := Split(n)
		require.NoError(t, err)
		assert.Equal(t, best[n], b.Pieces(), "amount %d", n)
	}
}

func TestBreakdownAdd(t *testing.T) {
	a, err := Split(1250)
	require.NoError(t, err)
	b, err := Split(75)
	require.NoError(t, err)

	sum := a.Add(b)
	assert.Equal(t, int64(1325), sum.Total())
	assert.Equal(t, a.Pieces()+b.Pieces(), sum.Pieces())

	// Add on a zero-value breakdown must not panic on missing counts.
	var zero Breakdown
	assert.Equal(t, int64(1250), zero.Add(a).Total())
}

func TestBreakdownString(t *testing.T) {
	b, err := Split(1202)
	require.NoError(t, err)
	assert.Equal(t, "1x 10.00, 1x 2.00, 1x 0.02", b.String())

	empty := NewBreakdown()
	assert.Equal(t, "nothing", empty.String())
}
