package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Header renders the title bar with the active thread.
type Header struct {
	width    int
	threadID string
}

// NewHeader creates a new Header.
func NewHeader(threadID string) *Header {
	return &Header{
		width:    80,
		threadID: threadID,
	}
}

// SetWidth sets the header width.
func (h *Header) SetWidth(width int) {
	h.width = width
}

// View renders the header.
func (h *Header) View() string {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4ECDC4")).
		Bold(true).
		Render("tasktalk")

	thread := lipgloss.NewStyle().
		Foreground(lipgloss.Color("243")).
		Italic(true).
		Render("thread " + h.threadID)

	gap := h.width - lipgloss.Width(title) - lipgloss.Width(thread) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.NewStyle().
		Width(h.width).
		Padding(0, 1).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("240")).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, title, spacer, thread))
}
