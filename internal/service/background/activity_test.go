package background

import (
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestTimedActivityExpiresOnce(t *testing.T) {
	activity := NewTimedActivity(10*time.Millisecond, testLogger())

	var expired int32
	require.NoError(t, activity.Start(func() {
		atomic.AddInt32(&expired, 1)
	}))

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&expired) == 1
	}, time.Second, time.Millisecond)

	// An expired lease does not fire again and Stop is a no-op.
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, int32(1), atomic.LoadInt32(&expired))
	activity.Stop()
}

func TestTimedActivityStopPreventsExpiry(t *testing.T) {
	activity := NewTimedActivity(20*time.Millisecond, testLogger())

	var expired int32
	require.NoError(t, activity.Start(func() {
		atomic.AddInt32(&expired, 1)
	}))

	activity.Stop()

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(0), atomic.LoadInt32(&expired))
}

func TestTimedActivityRejectsDoubleStart(t *testing.T) {
	activity := NewTimedActivity(time.Minute, testLogger())

	require.NoError(t, activity.Start(func() {}))
	require.Error(t, activity.Start(func() {}))

	activity.Stop()

	// A stopped lease can be armed again.
	require.NoError(t, activity.Start(func() {}))
	activity.Stop()
}

func TestTimedActivityStopAndWaitBlocksUntilCallbackReturns(t *testing.T) {
	activity := NewTimedActivity(time.Millisecond, testLogger())

	started := make(chan struct{})
	release := make(chan struct{})
	var finished int32

	require.NoError(t, activity.Start(func() {
		close(started)
		<-release
		atomic.AddInt32(&finished, 1)
	}))

	<-started
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()

	activity.StopAndWait()
	require.Equal(t, int32(1), atomic.LoadInt32(&finished))
}
