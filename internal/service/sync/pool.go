package sync

import (
	"context"
	"sync"
)

// forEachLimit fans items out over a fixed number of workers through a
// bounded buffer. When the buffer is full the oldest item that no worker has
// picked up yet is dropped instead of blocking the producer.
func forEachLimit[T any](ctx context.Context, items []T, workers, buffer int, fn func(context.Context, T)) {
	if len(items) == 0 {
		return
	}
	if workers < 1 {
		workers = 1
	}
	if buffer < 1 {
		buffer = 1
	}

	in := make(chan T, buffer)

	var wg sync.WaitGroup
	wg.Add(workers)
	for n := 0; n < workers; n++ {
		go func() {
			defer wg.Done()

			for item := range in {
				if ctx.Err() != nil {
					// Keep draining so the producer's close is observed.
					continue
				}

				fn(ctx, item)
			}
		}()
	}

	for _, item := range items {
	enqueue:
		for {
			select {
			case in <- item:
				break enqueue
			default:
				// Buffer full: drop the oldest unstarted item, then retry.
				select {
				case <-in:
				default:
				}
			}
		}
	}
	close(in)

	wg.Wait()
}
