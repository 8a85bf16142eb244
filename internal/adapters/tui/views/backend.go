package views

import (
	tea "github.com/charmbracelet/bubbletea"

	"graphdeck/internal/application/commands"
	"graphdeck/internal/application/persistence"
	"graphdeck/internal/eventloop"
)

// Backend gives the views access to the persistence facade. One-shot
// operations go through the blocking commands; continuous ones (editing,
// viewport changes, status polling) run on the event loop and answer with
// messages sent to the program.
type Backend struct {
	Session *commands.Session

	loop   *eventloop.Loop
	facade *persistence.Facade
	send   func(tea.Msg)
}

// NewBackend creates a backend over a loop that some other goroutine drives
func NewBackend(loop *eventloop.Loop, facade *persistence.Facade) *Backend {
	return &Backend{
		Session: commands.NewSession(loop, facade),
		loop:    loop,
		facade:  facade,
		send:    func(tea.Msg) {},
	}
}

// SetSender sets where loop results go, usually tea.Program.Send
func (b *Backend) SetSender(send func(tea.Msg)) {
	b.send = send
}

// Op is a facade operation run on the loop. It answers through reply.
type Op func(p *persistence.Facade, h eventloop.Handle, reply func(tea.Msg))

// Do schedules op on the loop on behalf of owner. Callbacks of a closed
// owner are dropped by the facade, so a view that went away gets nothing.
func (b *Backend) Do(owner *eventloop.Owner, op Op) tea.Cmd {
	return func() tea.Msg {
		b.loop.Post(func() {
			op(b.facade, owner.Handle(), b.send)
		})
		return nil
	}
}

// UnsavedLogPath is where failed writes are recorded
func (b *Backend) UnsavedLogPath() string {
	return b.facade.UnsavedLogPath()
}
