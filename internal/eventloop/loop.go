// Package eventloop provides the single logical thread the persistence layer
// runs on. Application logic executes only inside tasks posted to a Loop;
// blocking I/O runs on worker goroutines whose continuations are posted back.
package eventloop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrStalled is returned by Await when the loop went idle before the awaited
// operation signalled completion.
var ErrStalled = errors.New("event loop idle before operation completed")

// Loop is a FIFO task queue drained by exactly one driver at a time.
type Loop struct {
	mu       sync.Mutex
	tasks    []func()
	inflight int
	wake     chan struct{}
	released chan struct{}

	drive  sync.Mutex
	logger *slog.Logger
}

// New creates an idle loop
func New(logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		wake:     make(chan struct{}, 1),
		released: make(chan struct{}),
		logger:   logger,
	}
}

// Post schedules fn on the loop. Safe to call from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
}

// Go runs work on a worker goroutine and posts the continuation it returns
// back onto the loop. A nil continuation is allowed.
func (l *Loop) Go(work func() func()) {
	l.mu.Lock()
	l.inflight++
	l.mu.Unlock()

	go func() {
		var cont func()
		defer func() {
			if r := recover(); r != nil {
				l.logger.Error("worker panicked", "panic", r)
			}
			l.mu.Lock()
			l.inflight--
			if cont != nil {
				l.tasks = append(l.tasks, cont)
			}
			l.mu.Unlock()
			l.signal()
		}()
		cont = work()
	}()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// next pops the head task. idle is true when nothing is queued and no worker
// is in flight.
func (l *Loop) next() (task func(), idle bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tasks) > 0 {
		task = l.tasks[0]
		l.tasks[0] = nil
		l.tasks = l.tasks[1:]
		return task, false
	}
	return nil, l.inflight == 0
}

// Run drives the loop until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.drive.Lock()
	defer l.release()

	for {
		for {
			task, _ := l.next()
			if task == nil {
				break
			}
			l.exec(task)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// RunUntilIdle drives the loop until no task is queued and no worker is in
// flight. Pending timers do not keep the loop busy.
func (l *Loop) RunUntilIdle() {
	l.drive.Lock()
	defer l.release()
	l.runUntilIdle()
}

func (l *Loop) runUntilIdle() {
	for {
		task, idle := l.next()
		if task != nil {
			l.exec(task)
			continue
		}
		if idle {
			return
		}
		<-l.wake
	}
}

// Await posts start onto the loop and blocks until start's done callback is
// invoked. If no other goroutine is driving the loop, Await drives it itself
// until idle.
func (l *Loop) Await(ctx context.Context, start func(done func())) error {
	finished := make(chan struct{})
	var once sync.Once
	l.Post(func() {
		start(func() { once.Do(func() { close(finished) }) })
	})

	for {
		l.mu.Lock()
		released := l.released
		l.mu.Unlock()

		if l.drive.TryLock() {
			l.runUntilIdle()
			l.release()
			select {
			case <-finished:
				return nil
			default:
				return ErrStalled
			}
		}

		select {
		case <-finished:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-released:
		}
	}
}

func (l *Loop) release() {
	l.mu.Lock()
	close(l.released)
	l.released = make(chan struct{})
	l.mu.Unlock()
	l.drive.Unlock()
}

func (l *Loop) exec(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("loop task panicked", "panic", r)
		}
	}()
	task()
}
