// Package background models the execution lease the OS grants a long sync.
package background

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// TimedActivity arms a budget timer on Start and fires onExpire exactly once
// if the budget runs out before Stop. The expiry callback runs under its own
// lock so StopAndWait can block until an in-flight callback returns.
type TimedActivity struct {
	budget time.Duration
	log    *slog.Logger

	mu      sync.Mutex
	cbMu    sync.Mutex
	timer   *time.Timer
	running bool
}

func NewTimedActivity(budget time.Duration, log *slog.Logger) *TimedActivity {
	return &TimedActivity{
		budget: budget,
		log:    log.With(slog.String("item", "TimedActivity")),
	}
}

func (a *TimedActivity) Start(onExpire func()) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return fmt.Errorf("background activity has already started")
	}

	a.running = true
	a.timer = time.AfterFunc(a.budget, func() {
		a.cbMu.Lock()
		defer a.cbMu.Unlock()

		a.mu.Lock()
		if !a.running {
			a.mu.Unlock()

			return
		}
		a.running = false
		a.timer = nil
		a.mu.Unlock()

		a.log.Warn("Background execution budget expired", slog.Duration("budget", a.budget))
		onExpire()
	})

	a.log.Debug("Background activity started", slog.Duration("budget", a.budget))

	return nil
}

// Stop releases the lease. A lease that already expired or was never started
// is a no-op.
func (a *TimedActivity) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return
	}

	a.running = false
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// StopAndWait releases the lease and additionally waits out an expiry
// callback that is already running.
func (a *TimedActivity) StopAndWait() {
	a.Stop()

	// The lock is taken only to rendezvous with a callback that already
	// passed its running check.
	a.cbMu.Lock()
	defer a.cbMu.Unlock()
}
