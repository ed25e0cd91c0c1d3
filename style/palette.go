package style

import "github.com/charmbracelet/lipgloss"

// Fixed hex colors for the full-screen picker, where the terminal theme is not trusted to give contrast.
var (
	Base     = lipgloss.Color("#1e1e2e")
	Text     = lipgloss.Color("#cdd6f4")
	Overlay  = lipgloss.Color("#6c7086")
	Mauve    = lipgloss.Color("#cba6f7")
	Red      = lipgloss.Color("#f38ba8")
	Yellow   = lipgloss.Color("#f9e2af")
	Green    = lipgloss.Color("#a6e3a1")
	Blue     = lipgloss.Color("#89b4fa")
	Lavender = lipgloss.Color("#b4befe")

	AccentColor = Mauve
	FaintColor  = Overlay
	HiRed       = Red
)
