package sync

import (
	"sync"
	"time"
)

// progressThrottle rate-limits per-file progress reports to one per interval.
// The latest value wins: reports arriving within the quiet period overwrite
// the pending one and are delivered when the interval elapses. Emission runs
// under the throttle's lock, so once Stop returns no further emission can be
// in flight and a stale fraction can never overwrite a terminal state.
type progressThrottle struct {
	interval time.Duration
	emit     func(float32)

	mu       sync.Mutex
	timer    *time.Timer
	pending  *float32
	lastEmit time.Time
	stopped  bool
}

func newProgressThrottle(interval time.Duration, emit func(float32)) *progressThrottle {
	return &progressThrottle{
		interval: interval,
		emit:     emit,
	}
}

// Send offers a progress value. It either emits immediately, when the quiet
// period already elapsed, or parks the value for the pending timer flush.
func (t *progressThrottle) Send(value float32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}

	now := time.Now()
	if t.timer == nil && now.Sub(t.lastEmit) >= t.interval {
		t.lastEmit = now
		t.emit(value)

		return
	}

	t.pending = &value
	if t.timer == nil {
		t.timer = time.AfterFunc(t.interval-now.Sub(t.lastEmit), t.flush)
	}
}

func (t *progressThrottle) flush() {
	t.mu.Lock()
	defer t.mu.Unlock()

	value := t.pending
	t.pending = nil
	t.timer = nil

	if value == nil || t.stopped {
		return
	}

	t.lastEmit = time.Now()
	t.emit(*value)
}

// Stop drops any pending value and prevents further emissions. The caller
// writes the terminal state itself right after.
func (t *progressThrottle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	t.pending = nil
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
