package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/peyitv/peyitv/icon"
	"github.com/peyitv/peyitv/key"
	"github.com/peyitv/peyitv/player"
	"github.com/peyitv/peyitv/style"
	"github.com/spf13/viper"
)

// CheckDependencies exits with install instructions when the configured player is missing.
func CheckDependencies() {
	backend := viper.GetString(key.Player)
	if err := player.Available(backend); err != nil {
		printMissingDependencyError(backend)
		os.Exit(1)
	}
}

func installHint(dep string) string {
	if dep == "iina" {
		return "brew install --cask iina"
	}

	switch runtime.GOOS {
	case "darwin":
		return "brew install mpv"
	case "linux":
		return "sudo apt install mpv"
	case "windows":
		return "scoop install mpv"
	default:
		return ""
	}
}

func printMissingDependencyError(dep string) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.HiRed).
		Padding(1, 2).
		Margin(1, 0)

	title := style.New().Bold(true).Foreground(style.HiRed).Render(fmt.Sprintf("%s Error: Missing Dependency", icon.Get(icon.Fail)))
	body := style.New().Foreground(style.Text).Render(fmt.Sprintf("The player '%s' was not found in your PATH.", dep))

	suggestion := ""
	if hint := installHint(dep); hint != "" {
		suggestion = fmt.Sprintf("\n\nTo install it, try running:\n  %s", style.New().Foreground(style.AccentColor).Bold(true).Render(hint))
	}

	fmt.Println(box.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			"\n",
			body,
			suggestion,
		),
	))
}
