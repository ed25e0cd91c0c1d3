package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/peyitv/peyitv/color"
	"github.com/peyitv/peyitv/icon"
	"github.com/peyitv/peyitv/key"
	"github.com/peyitv/peyitv/session"
	"github.com/peyitv/peyitv/style"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wrap"
	"github.com/spf13/viper"
)

var (
	listExtraPaddingStyle = lipgloss.NewStyle().Padding(1, 2, 1, 0)
	paddingStyle          = lipgloss.NewStyle().Padding(1, 2)
)

func (b *statefulBubble) View() string {
	var output string

	switch b.state {
	case catalogState:
		output = listExtraPaddingStyle.Render(b.catalogC.View())
	case historyState:
		output = listExtraPaddingStyle.Render(b.historyC.View())
	case playState:
		output = b.viewPlay()
	case errorState:
		output = b.viewError()
	default:
		output = "Unknown state"
	}

	return b.notifier.View(output)
}

func (b *statefulBubble) viewPlay() string {
	var name, url string
	if b.playing != nil {
		name, url = b.playing.Name(), b.playing.URL()
	}

	lines := []string{
		style.Title("Now Playing"),
		"",
		style.Truncate(b.width)(fmt.Sprintf("%s %s", icon.Get(icon.Stream), style.Fg(color.Purple)(name))),
	}

	if url != "" && viper.GetBool(key.TUIShowURLs) {
		lines = append(lines, style.Truncate(b.width)(style.Faint(url)))
	}

	lines = append(lines, "", b.statusLine())

	if b.status == session.Playing || b.status == session.Stalled {
		lines = append(lines, style.Faint(fmt.Sprintf(
			"position %s • buffered %s",
			clock(b.position),
			(time.Duration(b.cached*float64(time.Second))).Truncate(100*time.Millisecond),
		)))
	}

	return b.renderLines(true, lines)
}

func (b *statefulBubble) statusLine() string {
	label := style.Fg(color.Purple)(b.status.String())

	switch b.status {
	case session.Starting, session.Buffering:
		return b.spinnerC.View() + " " + label
	case session.Stalled:
		return b.spinnerC.View() + " " + icon.Get(icon.Stalled) + " " + label
	case session.Playing:
		return icon.Get(icon.Play) + " " + label
	default:
		return icon.Get(icon.Stop) + " " + label
	}
}

func (b *statefulBubble) viewError() string {
	var message string
	if b.lastError != nil {
		message = b.lastError.Error()
	}

	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	errorMsg := wrap.String(errorStyle.Render(message), b.width)

	return b.renderLines(
		true,
		[]string{
			style.ErrorTitle("Error"),
			"",
			icon.Get(icon.Fail) + " Playback failed:",
			"",
			errorMsg,
		},
	)
}

func (b *statefulBubble) renderLines(addHelp bool, lines []string) string {
	h := len(lines)
	l := strings.Join(lines, "\n")
	if addHelp {
		if b.height > h {
			l += strings.Repeat("\n", b.height-h)
		}
		l += b.helpC.View(b.keymap)
	}

	return paddingStyle.Render(l)
}

// clock formats seconds as m:ss or h:mm:ss.
func clock(seconds float64) string {
	d := time.Duration(seconds) * time.Second
	h, m, s := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
