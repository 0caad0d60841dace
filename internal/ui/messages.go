package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// opTimeout bounds a single store operation started from the UI.
const opTimeout = 15 * time.Second

// OpDoneMsg reports the outcome of a view-model operation started with Run.
type OpDoneMsg struct {
	Op  string
	Err error
}

// Run executes fn off the UI goroutine and reports back with OpDoneMsg.
func Run(op string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		return OpDoneMsg{Op: op, Err: fn(ctx)}
	}
}

// Emit wraps msg in a tea.Cmd.
func Emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
