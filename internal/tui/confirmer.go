package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmRequest is a before_leave question waiting for the user.
type ConfirmRequest struct {
	Prompt string
	reply  chan bool
}

// Answer replies to the request. It never blocks.
func (r ConfirmRequest) Answer(ok bool) {
	select {
	case r.reply <- ok:
	default:
	}
}

// Confirmer routes leave-guard confirmations from the engine to the running
// program. Confirm is called from the navigation goroutine and blocks until
// the model answers or ctx is done.
type Confirmer struct {
	requests chan ConfirmRequest
}

// NewConfirmer creates a Confirmer. Pass it to flow.BuildOptions and to Run.
func NewConfirmer() *Confirmer {
	return &Confirmer{requests: make(chan ConfirmRequest)}
}

// Confirm implements flow.Confirmer.
func (c *Confirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	req := ConfirmRequest{Prompt: prompt, reply: make(chan bool, 1)}
	select {
	case c.requests <- req:
	case <-ctx.Done():
		return false, ctx.Err()
	}
	select {
	case ok := <-req.reply:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

type confirmRequestMsg struct {
	req ConfirmRequest
}

// wait returns a command that delivers the next confirmation request.
func (c *Confirmer) wait(ctx context.Context) tea.Cmd {
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case req := <-c.requests:
			return confirmRequestMsg{req: req}
		case <-ctx.Done():
			return nil
		}
	}
}
