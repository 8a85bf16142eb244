package testutil

import (
	"sync"
	"time"

	"graphdeck/internal/debounce"
)

// FakeClock is a debounce.Clock whose timers only fire on demand
type FakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *FakeClock
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

// Ensure FakeClock implements debounce.Clock
var _ debounce.Clock = (*FakeClock)(nil)

// NewFakeClock creates a clock with no timers
func NewFakeClock() *FakeClock {
	return &FakeClock{}
}

// AfterFunc registers f to run on the next Fire
func (c *FakeClock) AfterFunc(d time.Duration, f func()) debounce.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

// Fire runs every pending timer, as if their interval elapsed
func (c *FakeClock) Fire() int {
	c.mu.Lock()
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	c.timers = nil
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
	return len(due)
}

// Pending returns the number of armed timers
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}
