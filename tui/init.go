package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Init starts listening for session transitions.
func (b *statefulBubble) Init() tea.Cmd {
	return b.waitForSession()
}
