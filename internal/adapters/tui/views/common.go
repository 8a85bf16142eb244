package views

import (
	"errors"

	"graphdeck/internal/queue"
)

// ViewState is embedded by every view model: terminal size plus a flash
// message shown above the help line
type ViewState struct {
	Width      int
	Height     int
	Message    string
	MessageErr bool
}

func (s *ViewState) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

func (s *ViewState) SetMessage(msg string, isErr bool) {
	s.Message = msg
	s.MessageErr = isErr
}

// SetError shows err. A paused store gets the retry key appended.
func (s *ViewState) SetError(err error) {
	msg := err.Error()
	if errors.Is(err, queue.ErrQueueFailed) {
		msg += " (ctrl+r to retry)"
	}
	s.SetMessage(msg, true)
}

func (s *ViewState) ClearMessage() {
	s.Message = ""
	s.MessageErr = false
}
