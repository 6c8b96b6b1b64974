// Package clock abstracts the time source used by round timers and grace
// periods so countdowns can be driven deterministically in tests.
package clock

import (
	"context"
	"time"
)

// Clock schedules periodic and one-shot callbacks
type Clock interface {
	Now() time.Time
	// Every calls fn once per period until the returned stop function is called.
	Every(period time.Duration, fn func()) (stop func())
	// AfterFunc calls fn once after d unless stopped first.
	AfterFunc(d time.Duration, fn func()) (stop func())
}

// Real is the wall-clock implementation
type Real struct{}

// New returns the wall clock
func New() Clock {
	return Real{}
}

// Now returns the current time
func (Real) Now() time.Time {
	return time.Now()
}

// Every runs fn on its own goroutine driven by a time.Ticker
func (Real) Every(period time.Duration, fn func()) func() {
	ctx, cancel := context.WithCancel(context.Background())
	ticker := time.NewTicker(period)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				// A stop issued while fn was running must win over a tick
				// that is already queued.
				if ctx.Err() != nil {
					return
				}
				fn()
			}
		}
	}()

	return cancel
}

// AfterFunc wraps time.AfterFunc
func (Real) AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}
