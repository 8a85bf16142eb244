// Package queue serializes requests to the graph store: one request in
// flight, answered in submission order. After a write fails the queue turns
// sticky and fails every request without contacting the store until
// ClearError is called.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"graphdeck/internal/eventloop"
	"graphdeck/internal/metrics"
	"graphdeck/internal/pipeline"
	"graphdeck/internal/ports"
)

// ErrQueueFailed is returned for requests refused while the queue is in its
// sticky error state.
var ErrQueueFailed = errors.New("request queue is in error state")

// Request is one store operation. Do runs on a worker goroutine; Done runs
// on the event loop with Do's error (or the refusal error).
type Request struct {
	Name     string
	ReadOnly bool
	Do       func(ctx context.Context, store ports.GraphStore) error
	Done     func(err error)
}

type task struct {
	req          Request
	failDirectly bool
	cause        error
}

// Queue is owned by the event loop; all methods must be called on it.
type Queue struct {
	loop    *eventloop.Loop
	store   ports.GraphStore
	base    context.Context
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics

	tasks  []*task
	busy   bool
	sticky error
}

// Option configures a Queue
type Option func(*Queue)

// WithTimeout bounds every store call
func WithTimeout(d time.Duration) Option {
	return func(q *Queue) { q.timeout = d }
}

// WithLogger sets the queue logger
func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) { q.logger = logger }
}

// WithMetrics sets the collectors updated by the queue
func WithMetrics(m *metrics.Metrics) Option {
	return func(q *Queue) { q.metrics = m }
}

// WithContext sets the parent context of store calls
func WithContext(ctx context.Context) Option {
	return func(q *Queue) { q.base = ctx }
}

// New creates a queue in front of store
func New(loop *eventloop.Loop, store ports.GraphStore, opts ...Option) *Queue {
	q := &Queue{
		loop:   loop,
		store:  store,
		base:   context.Background(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.metrics == nil {
		q.metrics = metrics.Discard()
	}
	return q
}

// Submit appends req and starts it if nothing is in flight
func (q *Queue) Submit(req Request) {
	t := &task{req: req}
	if q.sticky != nil {
		t.failDirectly = true
		t.cause = q.sticky
	}
	q.tasks = append(q.tasks, t)
	q.metrics.QueueDepth.Set(float64(len(q.tasks)))
	if !q.busy {
		q.startNext()
	}
}

// ClearError leaves the sticky error state. Tasks already marked to fail
// directly stay marked.
func (q *Queue) ClearError() {
	if q.sticky != nil {
		q.logger.Info("request queue error cleared", "cause", q.sticky)
	}
	q.sticky = nil
	q.metrics.QueueSticky.Set(0)
}

// Err returns the cause of the sticky error state, or nil
func (q *Queue) Err() error {
	return q.sticky
}

// Len returns the number of requests queued or in flight
func (q *Queue) Len() int {
	n := len(q.tasks)
	if q.busy {
		n++
	}
	return n
}

func (q *Queue) startNext() {
	if len(q.tasks) == 0 {
		q.busy = false
		return
	}
	t := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	q.busy = true
	q.metrics.QueueDepth.Set(float64(len(q.tasks)))

	r := pipeline.New(q.loop, "queue:"+t.req.Name).WithLogger(q.logger)
	r.AddStep(eventloop.Detached(), func(r *pipeline.Routine) {
		if t.failDirectly {
			r.Fail(fmt.Errorf("%s: %w: %w", t.req.Name, ErrQueueFailed, t.cause))
			r.Next()
			return
		}
		q.loop.Go(func() func() {
			err := q.call(t.req)
			return func() {
				if err != nil {
					r.Fail(err)
				}
				r.Next()
			}
		})
	})
	r.AddStep(eventloop.Detached(), func(r *pipeline.Routine) {
		// the queue moves on even if Done panics
		defer func() {
			r.Next()
			q.startNext()
		}()
		err := r.Err()
		q.record(t, err)
		if err != nil && !t.req.ReadOnly && !t.failDirectly {
			q.enterErrorState(t.req.Name, err)
		}
		if t.req.Done != nil {
			t.req.Done(err)
		}
	})
	r.Start()
}

func (q *Queue) call(req Request) (err error) {
	ctx := q.base
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%s: store panicked: %v", req.Name, p)
		}
	}()
	return req.Do(ctx, q.store)
}

func (q *Queue) enterErrorState(name string, err error) {
	q.sticky = err
	for _, t := range q.tasks {
		if !t.failDirectly {
			t.failDirectly = true
			t.cause = err
		}
	}
	q.metrics.QueueSticky.Set(1)
	q.logger.Warn("write failed, request queue refuses further requests",
		"request", name, "err", err, "queued", len(q.tasks))
}

func (q *Queue) record(t *task, err error) {
	mode := "write"
	if t.req.ReadOnly {
		mode = "read"
	}
	outcome := "ok"
	switch {
	case t.failDirectly:
		outcome = "refused"
	case err != nil:
		outcome = "error"
	}
	q.metrics.Requests.WithLabelValues(mode, outcome).Inc()
}
