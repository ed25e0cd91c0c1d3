// Package tui provides the primary terminal user interface implementation.
package tui

import (
	"context"
	"time"

	"github.com/peyitv/peyitv/catalog"
	"github.com/peyitv/peyitv/internal/ui"
	"github.com/peyitv/peyitv/key"
	"github.com/peyitv/peyitv/log"
	"github.com/peyitv/peyitv/session"
	"github.com/peyitv/peyitv/stream"
	"github.com/peyitv/peyitv/style"
	"github.com/peyitv/peyitv/util"
	"github.com/charmbracelet/bubbles/help"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// statefulBubble holds the picker state, its component models and the playback session it drives.
type statefulBubble struct {
	state     state
	prevState state
	busy      bool // a start or release is in flight
	polling   bool

	keymap *statefulKeymap

	// components
	spinnerC spinner.Model
	catalogC list.Model
	historyC list.Model
	helpC    help.Model

	ctx     context.Context
	store   *catalog.Store
	session *session.Session
	events  chan sessionMsg

	playing  *stream.Descriptor
	status   session.State
	position float64
	cached   float64

	lastError     error
	width, height int
	notifier      *ui.Model

	options *Options
}

func (b *statefulBubble) raiseError(err error) {
	b.lastError = err
	b.newState(errorState)
}

func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

// newState switches to s, remembering the list the user came from.
func (b *statefulBubble) newState(s state) {
	if b.state == s {
		return
	}

	if lo.Contains([]state{catalogState, historyState}, b.state) {
		b.prevState = b.state
	}

	b.setState(s)
}

// previousState returns to the last list shown.
func (b *statefulBubble) previousState() {
	if b.prevState == initialState {
		b.setState(catalogState)
		return
	}
	b.setState(b.prevState)
}

func (b *statefulBubble) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()
	xx, yy := listExtraPaddingStyle.GetFrameSize()

	listWidth := width - xx
	listHeight := height - yy

	b.catalogC.SetSize(listWidth, listHeight)
	b.catalogC.Help.Width = listWidth

	b.historyC.SetSize(listWidth, listHeight)
	b.historyC.Help.Width = listWidth

	b.width = width - x
	b.height = height - y
	b.helpC.Width = listWidth
}

// listen forwards session transitions to the program. Listeners run under the session lock, so
// a full buffer drops the message instead of blocking.
func (b *statefulBubble) listen(state session.State, err error) {
	select {
	case b.events <- sessionMsg{state: state, err: err}:
	default:
		log.Warnf("tui: dropped session transition to %s", state)
	}
}

func newBubble(ctx context.Context, options *Options, store *catalog.Store, sess *session.Session) *statefulBubble {
	keymap := newStatefulKeymap()
	bubble := statefulBubble{
		keymap:   keymap,
		ctx:      ctx,
		store:    store,
		session:  sess,
		events:   make(chan sessionMsg, 32),
		notifier: &ui.Model{},
		options:  options,
	}

	makeList := func(title string, titleColor lipgloss.Color) list.Model {
		delegate := list.NewDefaultDelegate()
		delegate.SetSpacing(viper.GetInt(key.TUIItemSpacing))
		delegate.Styles.SelectedTitle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(style.AccentColor).
			Foreground(style.AccentColor).
			Padding(0, 0, 0, 1)
		delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.Foreground(lipgloss.Color("7"))
		delegate.Styles.SelectedDesc = delegate.Styles.SelectedTitle

		listC := list.New([]list.Item{}, delegate, 0, 0)
		listC.KeyMap = bubble.keymap.forList()
		listC.AdditionalShortHelpKeys = bubble.keymap.ShortHelp
		listC.AdditionalFullHelpKeys = func() []bubblesKey.Binding {
			return bubble.keymap.FullHelp()[0]
		}
		listC.Title = title
		listC.Styles.Title = lipgloss.NewStyle().Foreground(style.Base).Background(titleColor).Padding(0, 1)
		listC.Styles.NoItems = paddingStyle
		listC.StatusMessageLifetime = 3 * time.Second

		return listC
	}

	bubble.helpC = help.New()

	bubble.spinnerC = spinner.New()
	bubble.spinnerC.Spinner = spinner.Dot
	bubble.spinnerC.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	bubble.catalogC = makeList("Streams", style.Lavender)
	bubble.catalogC.SetStatusBarItemName("stream", "streams")
	bubble.catalogC.SetItems(lo.Map(store.All(), func(d *stream.Descriptor, _ int) list.Item {
		return &listItem{internal: d}
	}))

	bubble.historyC = makeList("History", style.Yellow)
	bubble.historyC.SetStatusBarItemName("entry", "entries")

	sess.Subscribe(bubble.listen)

	if w, h, err := util.TerminalSize(); err == nil {
		bubble.resize(w, h)
	}

	return &bubble
}
