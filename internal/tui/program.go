package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ShayCichocki/tasktalk/internal/orchestrator"
)

// NewChatProgram creates the full screen program and forwards events to it
// until the channel closes or ctx is done.
func NewChatProgram(ctx context.Context, t Turner, events <-chan orchestrator.Event, threadID string) *tea.Program {
	app := NewChatApp(ctx, t, threadID)
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	if events != nil {
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case e, ok := <-events:
					if !ok {
						return
					}
					program.Send(EventMsg{Event: e})
				}
			}
		}()
	}
	return program
}
