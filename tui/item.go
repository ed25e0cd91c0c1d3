package tui

import (
	"fmt"
	"strings"

	"github.com/peyitv/peyitv/history"
	"github.com/peyitv/peyitv/key"
	"github.com/peyitv/peyitv/stream"
	"github.com/peyitv/peyitv/style"
	"github.com/peyitv/peyitv/util"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/viper"
)

// listItem implements list.Item for catalog streams and history entries.
type listItem struct {
	internal any
}

func (t *listItem) Title() string {
	return t.FilterValue()
}

func (t *listItem) Description() string {
	switch e := t.internal.(type) {
	case *stream.Descriptor:
		parts := []string{protocolTag(e.Protocol().String())}
		if n := len(e.Headers()); n > 0 {
			parts = append(parts, lipgloss.NewStyle().Foreground(style.FaintColor).Render(util.Quantify(n, "header", "headers")))
		}
		if viper.GetBool(key.TUIShowURLs) {
			parts = append(parts, lipgloss.NewStyle().Foreground(style.FaintColor).Render(e.URL()))
		}
		return strings.Join(parts, " • ")
	case *history.Entry:
		return strings.Join([]string{
			protocolTag(e.Protocol),
			lipgloss.NewStyle().Foreground(style.AccentColor).Render(fmt.Sprintf("played %s", util.Quantify(e.PlayCount, "time", "times"))),
			lipgloss.NewStyle().Foreground(style.FaintColor).Render(e.LastPlayed.Format("2006-01-02 15:04")),
		}, " • ")
	default:
		return ""
	}
}

func (t *listItem) FilterValue() string {
	switch e := t.internal.(type) {
	case *stream.Descriptor:
		return e.Name()
	case *history.Entry:
		return e.Name
	default:
		return ""
	}
}

func protocolTag(protocol string) string {
	c := style.Blue
	if protocol == stream.SegmentedAdaptive.String() {
		c = style.Green
	}
	return lipgloss.NewStyle().Foreground(c).Render(protocol)
}
