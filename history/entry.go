package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/peyitv/peyitv/stream"
)

// Entry is one remembered stream.
type Entry struct {
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Protocol   string    `json:"protocol"`
	PlayCount  int       `json:"play_count"`
	LastPlayed time.Time `json:"last_played"`
}

func (e *Entry) encode() string {
	return encode(e.Name)
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s (%s, played %d×)", e.Name, e.Protocol, e.PlayCount)
}

func encode(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func newEntry(d *stream.Descriptor, at time.Time) *Entry {
	return &Entry{
		Name:       d.Name(),
		URL:        d.URL(),
		Protocol:   d.Protocol().String(),
		PlayCount:  1,
		LastPlayed: at,
	}
}
