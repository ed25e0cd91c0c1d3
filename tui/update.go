package tui

import (
	"errors"
	"fmt"

	"github.com/peyitv/peyitv/history"
	"github.com/peyitv/peyitv/internal/ui"
	"github.com/peyitv/peyitv/session"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := b.notifier.Update(msg)

	switch msg := msg.(type) {
	case error:
		b.raiseError(msg)
		return b, cmd
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
	case sessionMsg:
		return b, tea.Batch(cmd, b.onSession(msg), b.waitForSession())
	case startedMsg:
		b.busy = false
		if msg.err != nil && !errors.Is(msg.err, session.ErrReleased) && b.state != errorState {
			b.raiseError(msg.err)
		}
		return b, cmd
	case releasedMsg:
		b.busy = false
		return b, cmd
	case statsMsg:
		b.position, b.cached = msg.position, msg.cached
		if !b.status.Active() {
			b.polling = false
			return b, cmd
		}
		return b, tea.Batch(cmd, b.pollStats())
	case spinner.TickMsg:
		if !b.waiting() {
			return b, cmd
		}
		var tick tea.Cmd
		b.spinnerC, tick = b.spinnerC.Update(msg)
		return b, tea.Batch(cmd, tick)
	case tea.KeyMsg:
		if bubblesKey.Matches(msg, b.keymap.forceQuit) {
			return b, b.quit()
		}
	}

	var stateCmd tea.Cmd
	switch b.state {
	case catalogState:
		stateCmd = b.updateList(&b.catalogC, msg)
	case historyState:
		stateCmd = b.updateList(&b.historyC, msg)
	case playState:
		stateCmd = b.updatePlay(msg)
	case errorState:
		stateCmd = b.updateError(msg)
	}

	return b, tea.Batch(cmd, stateCmd)
}

// onSession mirrors a session transition into the view.
func (b *statefulBubble) onSession(msg sessionMsg) tea.Cmd {
	b.status = msg.state

	var cmds []tea.Cmd
	switch msg.state {
	case session.Starting:
		b.position, b.cached = 0, 0
		if !b.polling {
			b.polling = true
			cmds = append(cmds, b.pollStats())
		}
	case session.Released:
		if msg.err != nil {
			b.raiseError(msg.err)
		} else if b.state == playState {
			b.previousState()
		}
	}

	if b.waiting() {
		cmds = append(cmds, b.spinnerC.Tick)
	}

	return tea.Batch(cmds...)
}

func (b *statefulBubble) waiting() bool {
	switch b.status {
	case session.Starting, session.Buffering, session.Stalled:
		return true
	default:
		return false
	}
}

// quit and stop run Release off the update loop. Release also interrupts a start in progress.
func (b *statefulBubble) quit() tea.Cmd {
	return tea.Sequence(b.releaseSession(), tea.Quit)
}

func (b *statefulBubble) stop() tea.Cmd {
	b.busy = true
	return b.releaseSession()
}

func (b *statefulBubble) updateList(l *list.Model, msg tea.Msg) tea.Cmd {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && l.FilterState() != list.Filtering {
		switch {
		case bubblesKey.Matches(keyMsg, b.keymap.quit):
			return b.quit()
		case bubblesKey.Matches(keyMsg, b.keymap.play):
			return b.play(l.SelectedItem())
		case bubblesKey.Matches(keyMsg, b.keymap.stop):
			if !b.status.Active() {
				return l.NewStatusMessage("nothing is playing")
			}
			return b.stop()
		case bubblesKey.Matches(keyMsg, b.keymap.switchList):
			if b.state == catalogState {
				if err := b.loadHistory(); err != nil {
					b.raiseError(err)
					return nil
				}
				b.newState(historyState)
			} else {
				b.newState(catalogState)
			}
			return nil
		case b.state == historyState && bubblesKey.Matches(keyMsg, b.keymap.remove):
			return b.removeEntry(l.SelectedItem())
		}
	}

	var cmd tea.Cmd
	*l, cmd = l.Update(msg)
	return cmd
}

func (b *statefulBubble) play(item list.Item) tea.Cmd {
	if item == nil || b.busy {
		return nil
	}

	d, err := b.resolve(item)
	if err != nil {
		b.raiseError(err)
		return nil
	}

	b.playing = d
	b.busy = true
	b.newState(playState)

	return tea.Batch(b.startStream(b.ctx, d), b.spinnerC.Tick)
}

func (b *statefulBubble) removeEntry(item list.Item) tea.Cmd {
	if item == nil {
		return nil
	}

	entry := item.(*listItem).internal.(*history.Entry)
	if err := history.Remove(entry.Name); err != nil {
		b.raiseError(err)
		return nil
	}

	if err := b.loadHistory(); err != nil {
		b.raiseError(err)
		return nil
	}

	return b.historyC.NewStatusMessage(fmt.Sprintf("removed %s", entry.Name))
}

func (b *statefulBubble) updatePlay(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch {
	case bubblesKey.Matches(keyMsg, b.keymap.quit):
		return b.quit()
	case bubblesKey.Matches(keyMsg, b.keymap.pause):
		if b.status != session.Playing && b.status != session.Stalled {
			return ui.Notify("nothing to pause yet")
		}
		return b.togglePause()
	case bubblesKey.Matches(keyMsg, b.keymap.stop):
		return b.stop()
	case bubblesKey.Matches(keyMsg, b.keymap.back):
		b.previousState()
	}

	return nil
}

func (b *statefulBubble) updateError(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch {
	case bubblesKey.Matches(keyMsg, b.keymap.quit):
		return b.quit()
	case bubblesKey.Matches(keyMsg, b.keymap.back):
		b.lastError = nil
		b.previousState()
	}

	return nil
}
