package commands

import (
	"context"

	"graphdeck/internal/application/persistence"
	"graphdeck/internal/eventloop"
)

// Session runs commands against the persistence facade. Commands block the
// calling goroutine until the facade answers; the facade itself is only
// touched on the event loop.
type Session struct {
	loop   *eventloop.Loop
	facade *persistence.Facade
	owner  *eventloop.Owner
}

// NewSession creates a session driving facade through loop
func NewSession(loop *eventloop.Loop, facade *persistence.Facade) *Session {
	return &Session{
		loop:   loop,
		facade: facade,
		owner:  eventloop.NewOwner("commands"),
	}
}

// Close stops delivering results of operations still in flight
func (s *Session) Close() {
	s.owner.Close()
}

// run posts start onto the loop and waits until it calls finish
func (s *Session) run(ctx context.Context, start func(p *persistence.Facade, h eventloop.Handle, finish func(error))) error {
	var result error
	err := s.loop.Await(ctx, func(done func()) {
		start(s.facade, s.owner.Handle(), func(err error) {
			result = err
			done()
		})
	})
	if err != nil {
		return err
	}
	return result
}

// ClearErrorResult contains the result of clearing the queue error
type ClearErrorResult struct {
	Cleared bool
	Message string
}

// ClearErrorCommand lets requests reach the graph store again after a
// failed write
type ClearErrorCommand struct {
	session *Session
}

// NewClearErrorCommand creates a new ClearErrorCommand
func NewClearErrorCommand(session *Session) *ClearErrorCommand {
	return &ClearErrorCommand{session: session}
}

// Execute runs the clear error command
func (c *ClearErrorCommand) Execute(ctx context.Context) (*ClearErrorResult, error) {
	var prev error
	err := c.session.run(ctx, func(p *persistence.Facade, h eventloop.Handle, finish func(error)) {
		prev = p.QueueError()
		p.ClearError()
		finish(nil)
	})
	if err != nil {
		return nil, err
	}
	if prev == nil {
		return &ClearErrorResult{Message: "No error to clear"}, nil
	}
	return &ClearErrorResult{
		Cleared: true,
		Message: "Cleared: " + prev.Error(),
	}, nil
}
