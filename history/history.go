// Package history remembers which streams were played and when.
package history

import (
	"time"

	"github.com/metafates/gache"
	"github.com/peyitv/peyitv/filesystem"
	"github.com/peyitv/peyitv/stream"
	"github.com/peyitv/peyitv/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"golang.org/x/exp/slices"
)

var cacher = gache.New[map[string]*Entry](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// now is replaced in tests.
var now = time.Now

// Get returns every remembered stream keyed by its folded name.
func Get() (map[string]*Entry, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Entry), nil
	}
	return cached, nil
}

// Save records that d was played.
func Save(d *stream.Descriptor) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	entry := newEntry(d, now())
	if existing, exists := saved[entry.encode()]; exists {
		entry.PlayCount = existing.PlayCount + 1
	}

	saved[entry.encode()] = entry
	return cacher.Set(saved)
}

// Recent returns the remembered streams, most recently played first.
func Recent() ([]*Entry, error) {
	saved, err := Get()
	if err != nil {
		return nil, err
	}

	entries := lo.Values(saved)
	slices.SortFunc(entries, func(a, b *Entry) int {
		return b.LastPlayed.Compare(a.LastPlayed)
	})

	return entries, nil
}

// Last returns the most recently played stream.
func Last() (mo.Option[*Entry], error) {
	entries, err := Recent()
	if err != nil {
		return mo.None[*Entry](), err
	}

	if len(entries) == 0 {
		return mo.None[*Entry](), nil
	}

	return mo.Some(entries[0]), nil
}

// Remove forgets the stream with the given name.
func Remove(name string) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, encode(name))
	return cacher.Set(saved)
}
