package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func fixedClock(start time.Time, steps ...time.Duration) func() time.Time {
	calls := 0
	return func() time.Time {
		if calls == 0 {
			calls++
			return start
		}
		idx := calls - 1
		calls++
		if idx < len(steps) {
			return start.Add(steps[idx])
		}
		return start.Add(steps[len(steps)-1])
	}
}

func TestUpdateRejectsNegative(t *testing.T) {
	t.Parallel()

	tr := New()
	_, err := tr.Update(-1)
	require.ErrorIs(t, err, ErrInvalidSample)
}

func TestUpdateAccumulatesBytesAndChunks(t *testing.T) {
	t.Parallel()

	start := time.Unix(0, 0)
	clock := fixedClock(start, time.Second, 2*time.Second, 3*time.Second)
	tr := New(withClock(clock))

	snap, err := tr.Update(100)
	require.NoError(t, err)
	require.EqualValues(t, 100, snap.BytesProcessed)
	require.EqualValues(t, 1, snap.ChunksProcessed)

	snap, err = tr.Update(200)
	require.NoError(t, err)
	require.EqualValues(t, 300, snap.BytesProcessed)
	require.EqualValues(t, 2, snap.ChunksProcessed)
	require.Greater(t, snap.ThroughputBytesPerSec, 0.0)
}

func TestUpdateWithTotalBytesComputesPercentAndETA(t *testing.T) {
	t.Parallel()

	start := time.Unix(0, 0)
	clock := fixedClock(start, time.Second, 2*time.Second)
	tr := New(WithTotalBytes(1000), withClock(clock))

	snap, err := tr.Update(500)
	require.NoError(t, err)
	require.NotNil(t, snap.PercentComplete)
	require.InDelta(t, 50.0, *snap.PercentComplete, 0.001)
	require.NotNil(t, snap.ETA)
	require.GreaterOrEqual(t, *snap.ETA, time.Duration(0))
}

func TestPercentCompleteClampsAtHundred(t *testing.T) {
	t.Parallel()

	start := time.Unix(0, 0)
	clock := fixedClock(start, time.Second)
	tr := New(WithTotalBytes(10), withClock(clock))

	snap, err := tr.Update(50)
	require.NoError(t, err)
	require.InDelta(t, 100.0, *snap.PercentComplete, 0.001)
}

func TestRollingThroughputBoundedToFiveSamples(t *testing.T) {
	t.Parallel()

	start := time.Unix(0, 0)
	steps := make([]time.Duration, 0, 10)
	for i := 1; i <= 10; i++ {
		steps = append(steps, time.Duration(i)*time.Second)
	}
	clock := fixedClock(start, steps...)
	tr := New(withClock(clock))

	for i := 0; i < 10; i++ {
		_, err := tr.Update(1024)
		require.NoError(t, err)
	}

	require.LessOrEqual(t, len(tr.recentThroughputs), maxSamples)
}

func TestZeroDeltaFallsBackToElapsedSinceStart(t *testing.T) {
	t.Parallel()

	start := time.Unix(0, 0)
	// Same instant returned by the now() call in New and the one in Update.
	clock := fixedClock(start, 0)
	tr := New(withClock(clock))

	snap, err := tr.Update(1024)
	require.NoError(t, err)
	require.GreaterOrEqual(t, snap.ThroughputBytesPerSec, 0.0)
}
