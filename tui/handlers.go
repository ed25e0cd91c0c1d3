package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/peyitv/peyitv/history"
	"github.com/peyitv/peyitv/key"
	"github.com/peyitv/peyitv/log"
	"github.com/peyitv/peyitv/session"
	"github.com/peyitv/peyitv/stream"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// sessionMsg is a session transition.
type sessionMsg struct {
	state session.State
	err   error
}

// startedMsg reports the result of a start.
type startedMsg struct {
	stream *stream.Descriptor
	err    error
}

type releasedMsg struct{}

type statsMsg struct {
	position, cached float64
	ok               bool
}

func (b *statefulBubble) waitForSession() tea.Cmd {
	return func() tea.Msg {
		return <-b.events
	}
}

// startStream starts d off the update loop. Start blocks until the player took the stream.
func (b *statefulBubble) startStream(ctx context.Context, d *stream.Descriptor) tea.Cmd {
	return func() tea.Msg {
		if err := b.session.Start(ctx, d); err != nil {
			return startedMsg{stream: d, err: err}
		}

		if viper.GetBool(key.HistorySaveOnPlay) {
			if err := history.Save(d); err != nil {
				log.Warnf("save history: %v", err)
			}
		}

		return startedMsg{stream: d}
	}
}

func (b *statefulBubble) releaseSession() tea.Cmd {
	return func() tea.Msg {
		b.session.Release()
		return releasedMsg{}
	}
}

func (b *statefulBubble) togglePause() tea.Cmd {
	return func() tea.Msg {
		p := b.session.Player()
		if p == nil {
			return nil
		}

		if err := p.TogglePause(); err != nil {
			return fmt.Sprintf("pause: %v", err)
		}
		return nil
	}
}

// pollStats samples the player once a second while it is held.
func (b *statefulBubble) pollStats() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		p := b.session.Player()
		if p == nil || !p.IsRunning() {
			return statsMsg{}
		}

		position, err := p.GetTimePos()
		if err != nil {
			return statsMsg{}
		}

		cached, err := p.GetCacheDuration()
		if err != nil {
			return statsMsg{position: position}
		}

		return statsMsg{position: position, cached: cached, ok: true}
	})
}

func (b *statefulBubble) loadHistory() error {
	entries, err := history.Recent()
	if err != nil {
		return err
	}

	b.historyC.SetItems(lo.Map(entries, func(e *history.Entry, _ int) list.Item {
		return &listItem{internal: e}
	}))
	return nil
}

// resolve maps a selected item to a catalog stream.
func (b *statefulBubble) resolve(item list.Item) (*stream.Descriptor, error) {
	switch e := item.(*listItem).internal.(type) {
	case *stream.Descriptor:
		return e, nil
	case *history.Entry:
		d, ok := b.store.Get(e.Name)
		if !ok {
			return nil, fmt.Errorf("%q is no longer in the catalog", e.Name)
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unexpected item %T", e)
	}
}
