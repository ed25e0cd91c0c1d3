// Package mini implements a prompt-driven interface for terminals where the full picker is unwanted.
package mini

import (
	"context"

	"github.com/peyitv/peyitv/catalog"
	"github.com/peyitv/peyitv/metrics"
	"github.com/peyitv/peyitv/session"
	"github.com/peyitv/peyitv/stream"
	"github.com/peyitv/peyitv/util"
)

var (
	truncateAt = 100
)

type Options struct {
	Continue bool
}

type mini struct {
	state     state
	prevState state

	ctx     context.Context
	store   *catalog.Store
	session *session.Session

	selected *stream.Descriptor
}

func newMini(ctx context.Context, store *catalog.Store, sess *session.Session) *mini {
	return &mini{
		ctx:     ctx,
		store:   store,
		session: sess,
	}
}

func (m *mini) previousState() {
	if m.prevState == 0 {
		m.setState(catalogSelectState)
		return
	}
	m.setState(m.prevState)
}

func (m *mini) setState(s state) {
	m.state = s
}

// newState switches to s, remembering the list the user came from.
func (m *mini) newState(s state) {
	if m.state == s {
		return
	}

	if m.state == catalogSelectState || m.state == historySelectState {
		m.prevState = m.state
	}

	m.setState(s)
}

// Run prompts until the user quits. The active stream is released before Run returns.
func Run(options *Options) error {
	store, err := catalog.Setup()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts, err := session.OptionsFromConfig(metrics.FromConfig(ctx))
	if err != nil {
		return err
	}

	sess := session.New(opts)
	defer sess.Release()

	m := newMini(ctx, store, sess)
	m.setState(catalogSelectState)
	if options.Continue {
		m.setState(historySelectState)
	}

	if w, _, err := util.TerminalSize(); err == nil {
		truncateAt = w
	}

	for m.state != quitState {
		if err := m.handleState(); err != nil {
			return err
		}
	}

	return nil
}

func (m *mini) handleState() error {
	switch m.state {
	case catalogSelectState:
		return m.handleCatalogSelectState()
	case historySelectState:
		return m.handleHistorySelectState()
	case playState:
		return m.handlePlayState()
	}

	return nil
}
