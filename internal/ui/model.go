// Package ui renders short-lived notifications below a bubbletea view.
package ui

import (
	"strings"
	"time"

	"github.com/peyitv/peyitv/color"
	"github.com/peyitv/peyitv/style"
	tea "github.com/charmbracelet/bubbletea"
)

// Lifetime is how long a notification stays visible.
const Lifetime = 3 * time.Second

// Model holds the current notification. Any string message sets it.
type Model struct {
	notification string
}

// ClearNotificationMsg resets the notification.
type ClearNotificationMsg struct{}

// Notify returns a command that shows text.
func Notify(text string) tea.Cmd {
	return func() tea.Msg {
		return text
	}
}

// ClearNotification returns a command that clears the notification after Lifetime.
func ClearNotification() tea.Cmd {
	return tea.Tick(Lifetime, func(time.Time) tea.Msg {
		return ClearNotificationMsg{}
	})
}

// Update returns the clearing command when a notification was set.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case string:
		m.notification = msg
		return ClearNotification()
	case ClearNotificationMsg:
		m.notification = ""
	}
	return nil
}

// Notification returns the visible text.
func (m *Model) Notification() string {
	return m.notification
}

// View appends the notification to the last line of content.
func (m *Model) View(content string) string {
	if m.notification == "" {
		return content
	}

	lines := strings.Split(content, "\n")
	lines[len(lines)-1] += "  " + style.Fg(color.Gray)(m.notification)
	return strings.Join(lines, "\n")
}
