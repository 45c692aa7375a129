package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputeNextRetry_Bounds(t *testing.T) {
	d0 := computeNextRetry(-1)
	require.GreaterOrEqual(t, d0, 4500*time.Millisecond)
	require.LessOrEqual(t, d0, 5500*time.Millisecond)

	d10 := computeNextRetry(10)
	require.GreaterOrEqual(t, d10, 920*time.Second)
	require.LessOrEqual(t, d10, 1127*time.Second)

	d20 := computeNextRetry(20)
	require.GreaterOrEqual(t, d20, 1620*time.Second)
	require.LessOrEqual(t, d20, 1980*time.Second)
}

func TestComputeNextRetry_Monotonic(t *testing.T) {
	// jitter is +/-10%, so doubling always dominates once past the floor
	for a := 3; a < 10; a++ {
		require.Less(t, computeNextRetry(a), computeNextRetry(a+2))
	}
}
