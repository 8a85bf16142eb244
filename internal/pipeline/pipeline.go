// Package pipeline runs multi-step operations on an event loop. Each step is
// bound to an owner handle and must explicitly advance the routine; a shared
// error flag lets later steps decide whether to act or only propagate.
package pipeline

import (
	"errors"
	"log/slog"

	"graphdeck/internal/eventloop"
)

var (
	// ErrFailed is recorded when Fail is called with a nil error
	ErrFailed = errors.New("routine failed")
	// ErrCancelled marks a routine cancelled by one of its steps
	ErrCancelled = errors.New("routine cancelled")
)

// StepFunc is the body of a step. It must call r.Next or r.SkipToFinal
// exactly once, possibly later from a continuation.
type StepFunc func(r *Routine)

type step struct {
	owner eventloop.Handle
	fn    StepFunc
}

// Routine is an ordered list of steps sharing one error flag.
type Routine struct {
	loop   *eventloop.Loop
	name   string
	steps  []step
	logger *slog.Logger

	current  int
	advanced bool
	started  bool
	finished bool
	err      error
}

// New creates an empty routine that dispatches its steps through loop
func New(loop *eventloop.Loop, name string) *Routine {
	return &Routine{
		loop:    loop,
		name:    name,
		logger:  slog.Default(),
		current: -1,
	}
}

// WithLogger sets the logger used for abandon/misuse diagnostics
func (r *Routine) WithLogger(logger *slog.Logger) *Routine {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// AddStep appends a step executed in the context of owner. Steps cannot be
// added once the routine has started.
func (r *Routine) AddStep(owner eventloop.Handle, fn StepFunc) *Routine {
	if r.started {
		r.logger.Warn("step added to running routine ignored", "routine", r.name)
		return r
	}
	r.steps = append(r.steps, step{owner: owner, fn: fn})
	return r
}

// Start schedules the first step
func (r *Routine) Start() {
	if r.started {
		return
	}
	r.started = true
	if len(r.steps) == 0 {
		r.finished = true
		return
	}
	r.schedule(0)
}

// Next advances to the following step. Calling it after the final step
// finishes the routine.
func (r *Routine) Next() {
	if !r.advance() {
		return
	}
	r.schedule(r.current + 1)
}

// SkipToFinal jumps straight to the final step, bypassing the ones between.
// It does not touch the error flag.
func (r *Routine) SkipToFinal() {
	if !r.advance() {
		return
	}
	r.schedule(len(r.steps) - 1)
}

func (r *Routine) advance() bool {
	if !r.started || r.finished {
		return false
	}
	if r.advanced {
		r.logger.Warn("step advanced twice", "routine", r.name, "step", r.current)
		return false
	}
	r.advanced = true
	if r.current >= len(r.steps)-1 {
		r.finished = true
		return false
	}
	return true
}

func (r *Routine) schedule(i int) {
	r.loop.Post(func() {
		s := r.steps[i]
		if !s.owner.Alive() {
			r.logger.Debug("routine abandoned: step owner is gone", "routine", r.name, "step", i)
			r.finished = true
			return
		}
		r.current = i
		r.advanced = false
		s.fn(r)
	})
}

// Fail sets the shared error flag. The first error is kept.
func (r *Routine) Fail(err error) {
	if err == nil {
		err = ErrFailed
	}
	if r.err == nil {
		r.err = err
	}
}

// Cancel sets the error flag to ErrCancelled
func (r *Routine) Cancel() {
	r.Fail(ErrCancelled)
}

// Failed reports whether any step has set the error flag
func (r *Routine) Failed() bool {
	return r.err != nil
}

// Err returns the first error recorded, or nil
func (r *Routine) Err() error {
	return r.err
}

// Done reports whether the routine has finished or was abandoned
func (r *Routine) Done() bool {
	return r.finished
}

// Name returns the routine name
func (r *Routine) Name() string {
	return r.name
}
