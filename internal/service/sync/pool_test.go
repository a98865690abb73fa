package sync

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestForEachLimitHonorsWorkerCap(t *testing.T) {
	var concurrent, maxConcurrent int32

	items := make([]int, 10)
	for i := range items {
		items[i] = i
	}

	var processed int32
	forEachLimit(context.Background(), items, 3, len(items), func(ctx context.Context, _ int) {
		cur := atomic.AddInt32(&concurrent, 1)
		for {
			max := atomic.LoadInt32(&maxConcurrent)
			if cur <= max || atomic.CompareAndSwapInt32(&maxConcurrent, max, cur) {
				break
			}
		}

		time.Sleep(10 * time.Millisecond)

		atomic.AddInt32(&concurrent, -1)
		atomic.AddInt32(&processed, 1)
	})

	require.Equal(t, int32(10), atomic.LoadInt32(&processed))
	require.LessOrEqual(t, atomic.LoadInt32(&maxConcurrent), int32(3))
}

func TestForEachLimitDropsOldestWhenBufferFull(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})

	var mu sync.Mutex
	var processed []int
	var once sync.Once

	go func() {
		<-started
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()

	forEachLimit(context.Background(), []int{1, 2, 3, 4, 5}, 1, 1, func(ctx context.Context, v int) {
		mu.Lock()
		processed = append(processed, v)
		mu.Unlock()

		once.Do(func() { close(started) })
		<-release
	})

	mu.Lock()
	defer mu.Unlock()

	// The single worker was blocked while the producer overran the buffer, so
	// older unstarted items were dropped and the newest one survived.
	require.NotEmpty(t, processed)
	require.Less(t, len(processed), 5)
	require.Equal(t, 5, processed[len(processed)-1])
}

func TestForEachLimitSkipsWorkAfterCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var processed int32
	forEachLimit(ctx, []int{1, 2, 3}, 2, 3, func(ctx context.Context, _ int) {
		atomic.AddInt32(&processed, 1)
	})

	require.Equal(t, int32(0), atomic.LoadInt32(&processed))
}
