// Package style holds the small rendering helpers shared by the commands and pickers.
package style

import (
	"github.com/peyitv/peyitv/color"
	"github.com/charmbracelet/lipgloss"
)

func New() lipgloss.Style {
	return lipgloss.NewStyle()
}

// Colored returns a style with both colors set. An empty color leaves that side unset.
func Colored(fg, bg lipgloss.Color) lipgloss.Style {
	return New().Foreground(fg).Background(bg)
}

// Fg returns a renderer for the foreground color c.
func Fg(c lipgloss.Color) func(string) string {
	return func(s string) string { return New().Foreground(c).Render(s) }
}

// Truncate returns a renderer that wraps text at width max.
func Truncate(max int) func(string) string {
	return func(s string) string { return New().Width(max).Render(s) }
}

var (
	Faint = func(s string) string { return New().Faint(true).Render(s) }
	Bold  = func(s string) string { return New().Bold(true).Render(s) }
)

// Title renders a banner in the application colors.
var Title = func(s string) string {
	return Colored(color.New("230"), color.New("62")).Padding(0, 1).Render(s)
}

// ErrorTitle renders a banner for failures.
var ErrorTitle = func(s string) string {
	return Colored(color.New("230"), color.Red).Padding(0, 1).Render(s)
}
