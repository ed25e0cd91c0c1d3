package mini

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/peyitv/peyitv/color"
	"github.com/peyitv/peyitv/history"
	"github.com/peyitv/peyitv/icon"
	"github.com/peyitv/peyitv/stream"
	"github.com/peyitv/peyitv/style"
	"github.com/peyitv/peyitv/util"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/muesli/reflow/truncate"
)

// bind is a fixed menu entry appended after the listed items.
type bind struct {
	label string
	icon  icon.Icon
}

func (b *bind) String() string {
	return icon.Get(b.icon) + " " + b.label
}

var (
	toHistory = &bind{label: "History", icon: icon.Info}
	toCatalog = &bind{label: "Catalog", icon: icon.Stream}
	pause     = &bind{label: "Pause / resume", icon: icon.Play}
	status    = &bind{label: "Status", icon: icon.Info}
	stop      = &bind{label: "Stop", icon: icon.Stop}
	quit      = &bind{label: "Quit", icon: icon.Fail}
)

// menu asks for one of items followed by binds. Exactly one of the results is set.
func menu[T fmt.Stringer](message string, items []T, binds ...*bind) (*bind, T, error) {
	options := make([]string, 0, len(items)+len(binds))
	for _, item := range items {
		options = append(options, truncate.StringWithTail(item.String(), uint(util.Clamp(truncateAt-4, 10, 500)), "…"))
	}
	for _, b := range binds {
		options = append(options, b.String())
	}

	prompt := &survey.Select{
		Message:  message,
		Options:  options,
		PageSize: 15,
		Filter:   filter,
	}

	var index int
	var zero T
	if err := survey.AskOne(prompt, &index); err != nil {
		return nil, zero, err
	}

	return pick(index, items, binds)
}

func pick[T any](index int, items []T, binds []*bind) (*bind, T, error) {
	var zero T
	switch {
	case index < 0 || index >= len(items)+len(binds):
		return nil, zero, fmt.Errorf("selection %d out of range", index)
	case index < len(items):
		return nil, items[index], nil
	default:
		return binds[index-len(items)], zero, nil
	}
}

func filter(query, option string, _ int) bool {
	return fuzzy.MatchNormalizedFold(query, option)
}

// streamItem labels a catalog stream.
type streamItem struct {
	*stream.Descriptor
}

func (s streamItem) String() string {
	return fmt.Sprintf("%s %s", s.Name(), style.Faint("("+s.Protocol().String()+")"))
}

// entryItem labels a history entry.
type entryItem struct {
	*history.Entry
}

func (e entryItem) String() string {
	return fmt.Sprintf(
		"%s %s",
		e.Name,
		style.Faint(fmt.Sprintf("(%s, %s)", util.Quantify(e.PlayCount, "play", "plays"), e.LastPlayed.Format("2006-01-02 15:04"))),
	)
}

func title(s string) {
	fmt.Println(style.Title(s))
}

func fail(msg string) {
	fmt.Println(style.Fg(color.Red)(icon.Get(icon.Fail) + " " + msg))
}

func info(msg string) {
	fmt.Println(style.Fg(color.Blue)(icon.Get(icon.Info)) + " " + msg)
}

func progress(msg string) (eraser func()) {
	return util.PrintErasable(icon.Get(icon.Progress) + " " + msg)
}
