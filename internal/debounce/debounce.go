// Package debounce coalesces bursts of writes to the same target into a
// single write. At most one session is active per Coalescer; any event that
// is not a matching write closes it and flushes its pending action first.
package debounce

import (
	"log/slog"
	"time"

	"graphdeck/internal/eventloop"
	"graphdeck/internal/metrics"
)

// Key identifies the target of a debounced write
type Key struct {
	Category string
	Target   int64
}

// Reason explains why a session was closed
type Reason string

const (
	ReasonTimeout  Reason = "timeout"
	ReasonSwitch   Reason = "switch"
	ReasonRead     Reason = "read"
	ReasonWrite    Reason = "write"
	ReasonFlush    Reason = "flush"
	ReasonShutdown Reason = "shutdown"
)

type session struct {
	key   Key
	acc   any
	flush func()
	timer Timer
	gen   uint64
}

// Coalescer holds the single debounce session. Methods must be called on the
// event loop.
type Coalescer struct {
	loop     *eventloop.Loop
	clock    Clock
	interval time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics

	active *session
	gen    uint64
}

// Option configures a Coalescer
type Option func(*Coalescer)

// WithClock replaces the real clock
func WithClock(clock Clock) Option {
	return func(c *Coalescer) { c.clock = clock }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coalescer) { c.logger = logger }
}

// WithMetrics sets the collectors updated on flush
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coalescer) { c.metrics = m }
}

// New creates an idle coalescer flushing after interval of inactivity
func New(loop *eventloop.Loop, interval time.Duration, opts ...Option) *Coalescer {
	c := &Coalescer{
		loop:     loop,
		clock:    RealClock(),
		interval: interval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = metrics.Discard()
	}
	return c
}

type accumulator[T any] struct {
	value T
}

// Submit feeds payload into the session for key. A matching active session
// merges it and restarts the countdown; otherwise the active session is
// closed and a new one is opened, seeded with payload. flush receives the
// accumulated payload once the session closes.
func Submit[T any](c *Coalescer, key Key, payload T, merge func(acc, next T) T, flush func(T)) {
	if s := c.active; s != nil && s.key == key {
		if acc, ok := s.acc.(*accumulator[T]); ok {
			acc.value = merge(acc.value, payload)
			c.arm(s)
			return
		}
		c.logger.Warn("debounce payload type changed for key; flushing", "category", key.Category, "target", key.Target)
	}

	if c.active != nil {
		c.Close(ReasonSwitch)
	}

	acc := &accumulator[T]{value: payload}
	s := &session{
		key:   key,
		acc:   acc,
		flush: func() { flush(acc.value) },
	}
	c.active = s
	c.arm(s)
}

func (c *Coalescer) arm(s *session) {
	if s.timer != nil {
		s.timer.Stop()
	}
	c.gen++
	gen := c.gen
	s.gen = gen
	s.timer = c.clock.AfterFunc(c.interval, func() {
		c.loop.Post(func() {
			if c.active == s && s.gen == gen {
				c.Close(ReasonTimeout)
			}
		})
	})
}

// Close ends the active session, running its pending flush synchronously.
// No-op when idle.
func (c *Coalescer) Close(reason Reason) {
	s := c.active
	if s == nil {
		return
	}
	c.active = nil
	if s.timer != nil {
		s.timer.Stop()
	}
	c.metrics.DebounceFlushes.WithLabelValues(s.key.Category, string(reason)).Inc()
	c.logger.Debug("debounce session closed", "category", s.key.Category, "target", s.key.Target, "reason", reason)
	s.flush()
}

// Active returns the key of the open session, if any
func (c *Coalescer) Active() (Key, bool) {
	if c.active == nil {
		return Key{}, false
	}
	return c.active.key, true
}
