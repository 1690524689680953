// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"sync"
	"time"
)

type (
	// Clock is the time source the engine's retry delays run against.
	// Production code uses RealClock; tests substitute a FakeClock so
	// long delays elapse instantly and deterministically.
	Clock interface {
		// Now returns the current time.
		Now() time.Time

		// After returns a channel that delivers once the duration has
		// elapsed on this clock.
		After(d time.Duration) <-chan time.Time

		// Since returns the time elapsed on this clock since t.
		Since(t time.Time) time.Duration
	}

	// RealClock delegates to the system clock.
	RealClock struct{}

	// FakeClock is a Clock whose time stands still until a test moves
	// it with Advance or Set. Safe for concurrent use.
	FakeClock struct {
		mu      sync.Mutex
		now     time.Time
		pending []fakeTimer
	}

	// fakeTimer is one outstanding After call on a FakeClock.
	fakeTimer struct {
		fires time.Time
		ch    chan time.Time
	}
)

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (RealClock) Since(t time.Time) time.Duration { return time.Since(t) }

// fakeEpoch anchors FakeClocks constructed from a zero time, so tests
// that never care about the absolute date stay reproducible.
var fakeEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// NewFakeClock returns a FakeClock frozen at initial, or at a fixed
// reference time when initial is the zero time.
func NewFakeClock(initial time.Time) *FakeClock {
	if initial.IsZero() {
		initial = fakeEpoch
	}
	return &FakeClock{now: initial}
}

// Now returns the frozen time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After registers a timer that fires once Advance or Set moves the
// clock to or past now+d. Non-positive durations fire immediately.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.pending = append(c.pending, fakeTimer{fires: c.now.Add(d), ch: ch})
	return ch
}

// Since returns the frozen-clock time elapsed since t.
func (c *FakeClock) Since(t time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now.Sub(t)
}

// Advance moves the clock forward by d, firing every timer whose
// deadline is reached.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.fireDue()
}

// Set jumps the clock to t, firing every timer whose deadline is
// reached.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
	c.fireDue()
}

// fireDue delivers to every pending timer at or past its deadline.
// Callers hold mu.
func (c *FakeClock) fireDue() {
	kept := c.pending[:0]
	for _, timer := range c.pending {
		if timer.fires.After(c.now) {
			kept = append(kept, timer)
			continue
		}
		select {
		case timer.ch <- c.now:
		default:
		}
	}
	c.pending = kept
}
