// Package tui provides the primary terminal user interface implementation.
package tui

import (
	"context"

	"github.com/peyitv/peyitv/catalog"
	"github.com/peyitv/peyitv/metrics"
	"github.com/peyitv/peyitv/session"
	tea "github.com/charmbracelet/bubbletea"
)

// Options encapsulates the runtime configuration for the terminal user interface.
type Options struct {
	// Continue opens the history list instead of the catalog.
	Continue bool
}

// Run loads the catalog and runs the picker until the user quits. The active stream, if any,
// is released before Run returns.
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

	bubble := newBubble(ctx, options, store, sess)

	if options.Continue {
		if err := bubble.loadHistory(); err != nil {
			return err
		}
		bubble.newState(historyState)
	} else {
		bubble.newState(catalogState)
	}

	_, err = tea.NewProgram(bubble, tea.WithAltScreen()).Run()
	return err
}
