package mini

import (
	"fmt"
	"time"

	"github.com/peyitv/peyitv/history"
	"github.com/peyitv/peyitv/key"
	"github.com/peyitv/peyitv/log"
	"github.com/peyitv/peyitv/session"
	"github.com/peyitv/peyitv/stream"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

type state int

const (
	catalogSelectState state = iota + 1
	historySelectState
	playState
	quitState
)

func (m *mini) handleCatalogSelectState() error {
	items := lo.Map(m.store.All(), func(d *stream.Descriptor, _ int) streamItem {
		return streamItem{d}
	})

	title("Select Stream")
	b, item, err := menu("Stream", items, toHistory, quit)
	if err != nil {
		return err
	}

	switch b {
	case toHistory:
		m.newState(historySelectState)
		return nil
	case quit:
		m.newState(quitState)
		return nil
	}

	m.selected = item.Descriptor
	m.newState(playState)
	return nil
}

func (m *mini) handleHistorySelectState() error {
	entries, err := history.Recent()
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fail("Nothing was played yet")
		m.newState(catalogSelectState)
		return nil
	}

	items := lo.Map(entries, func(e *history.Entry, _ int) entryItem {
		return entryItem{e}
	})

	title("History")
	b, item, err := menu("Recently played", items, toCatalog, quit)
	if err != nil {
		return err
	}

	switch b {
	case toCatalog:
		m.newState(catalogSelectState)
		return nil
	case quit:
		m.newState(quitState)
		return nil
	}

	d, ok := m.store.Get(item.Name)
	if !ok {
		fail(fmt.Sprintf("%q is no longer in the catalog", item.Name))
		return nil
	}

	m.selected = d
	m.newState(playState)
	return nil
}

// handlePlayState starts the selected stream, then offers controls until it ends or is stopped.
// Start and playback failures are reported and lead back to the list.
func (m *mini) handlePlayState() error {
	d := m.selected

	if m.session.Current() != d || !m.session.State().Active() {
		erase := progress(fmt.Sprintf("Starting %s..", d.Name()))
		err := m.session.Start(m.ctx, d)
		erase()

		if err != nil {
			fail(err.Error())
			m.previousState()
			return nil
		}

		if viper.GetBool(key.HistorySaveOnPlay) {
			if err := history.Save(d); err != nil {
				log.Warnf("save history: %v", err)
			}
		}
	}

	title(fmt.Sprintf("Playing %s", d.Name()))

	for {
		if !m.session.State().Active() {
			if err := m.session.LastError(); err != nil {
				fail(err.Error())
			} else {
				info("Playback ended")
			}
			m.previousState()
			return nil
		}

		b, _, err := menu[streamItem]("Controls", nil, pause, status, stop, quit)
		if err != nil {
			return err
		}

		switch b {
		case pause:
			if p := m.session.Player(); p != nil {
				if err := p.TogglePause(); err != nil {
					fail(err.Error())
				}
			}
		case status:
			info(m.describe())
		case stop:
			m.session.Release()
			m.previousState()
			return nil
		case quit:
			m.session.Release()
			m.newState(quitState)
			return nil
		}
	}
}

// describe summarizes the session for the status control.
func (m *mini) describe() string {
	state := m.session.State()
	p := m.session.Player()
	if p == nil || state != session.Playing && state != session.Stalled {
		return state.String()
	}

	position, err := p.GetTimePos()
	if err != nil {
		return state.String()
	}

	cached, _ := p.GetCacheDuration()
	return fmt.Sprintf(
		"%s at %s, %s buffered",
		state,
		(time.Duration(position) * time.Second).String(),
		(time.Duration(cached * float64(time.Second))).Truncate(100*time.Millisecond),
	)
}
