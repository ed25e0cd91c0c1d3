// Package catalog loads the list of playable streams. The list is read once at startup and never
// changes afterwards.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/peyitv/peyitv/filesystem"
	"github.com/peyitv/peyitv/key"
	"github.com/peyitv/peyitv/log"
	"github.com/peyitv/peyitv/stream"
	"github.com/peyitv/peyitv/where"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// BuiltinPath is reported as the path of the catalog compiled into the binary.
const BuiltinPath = "<builtin>"

//go:embed streams.json
var builtin []byte

// Entry is one record of the JSON catalog.
type Entry struct {
	Name    string            `json:"name" jsonschema:"required,minLength=1,description=Label shown in the picker."`
	URL     string            `json:"url" jsonschema:"required,minLength=1,description=Absolute URL of the media. URLs containing .m3u8 are played as HLS."`
	Headers map[string]string `json:"headers,omitempty" jsonschema:"description=Extra HTTP request headers. User-Agent overrides the default identification."`
}

// LoadError reports a catalog that cannot be used. Index is the offending entry, or -1 when the
// whole file is at fault.
type LoadError struct {
	Path  string
	Index int
	Err   error
}

func (e *LoadError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("catalog %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("catalog %s: entry %d: %v", e.Path, e.Index, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Store is the immutable, ordered set of stream descriptors.
type Store struct {
	path    string
	streams []*stream.Descriptor
}

// Parse decodes a JSON catalog. path is only used for error reporting.
func Parse(data []byte, path string) (*Store, error) {
	var entries []*Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &LoadError{Path: path, Index: -1, Err: err}
	}

	if len(entries) == 0 {
		return nil, &LoadError{Path: path, Index: -1, Err: errors.New("no streams defined")}
	}

	streams := make([]*stream.Descriptor, 0, len(entries))
	for i, e := range entries {
		switch {
		case e == nil:
			return nil, &LoadError{Path: path, Index: i, Err: errors.New("null entry")}
		case strings.TrimSpace(e.Name) == "":
			return nil, &LoadError{Path: path, Index: i, Err: errors.New("missing name")}
		case strings.TrimSpace(e.URL) == "":
			return nil, &LoadError{Path: path, Index: i, Err: fmt.Errorf("%q: missing url", e.Name)}
		}

		streams = append(streams, stream.New(e.Name, strings.TrimSpace(e.URL), e.Headers))
	}

	return &Store{path: path, streams: streams}, nil
}

// Load reads and parses the catalog at path.
func Load(path string) (*Store, error) {
	data, err := filesystem.API().ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Index: -1, Err: err}
	}

	return Parse(data, path)
}

// Builtin returns the catalog compiled into the binary.
func Builtin() (*Store, error) {
	return Parse(builtin, BuiltinPath)
}

// Path returns the catalog location Setup would use: catalog.path, then streams.json in the
// config directory, then the builtin catalog.
func Path() string {
	if p := viper.GetString(key.CatalogPath); p != "" {
		return p
	}

	if exists, _ := filesystem.API().Exists(where.Catalog()); exists {
		return where.Catalog()
	}

	return BuiltinPath
}

// Init writes the builtin catalog to the config directory unless a file is already there, and
// returns its path.
func Init() (string, error) {
	path := where.Catalog()

	exists, err := filesystem.API().Exists(path)
	if err != nil || exists {
		return path, err
	}

	return path, filesystem.API().WriteFile(path, builtin, 0o644)
}

// Setup loads the catalog from Path. An explicit catalog.path that cannot be read is an error,
// never a silent fallback.
func Setup() (*Store, error) {
	path := Path()

	var (
		store *Store
		err   error
	)

	if path == BuiltinPath {
		store, err = Builtin()
	} else {
		store, err = Load(path)
	}

	if err != nil {
		return nil, err
	}

	log.Infof("loaded %d streams from %s", store.Len(), path)
	return store, nil
}

// Source returns where the store was loaded from.
func (s *Store) Source() string {
	return s.path
}

// Len returns the number of streams.
func (s *Store) Len() int {
	return len(s.streams)
}

// All returns the streams in catalog order. The slice is a copy.
func (s *Store) All() []*stream.Descriptor {
	return append([]*stream.Descriptor(nil), s.streams...)
}

// Get returns the first stream named name, compared case-insensitively.
func (s *Store) Get(name string) (*stream.Descriptor, bool) {
	return lo.Find(s.streams, func(d *stream.Descriptor) bool {
		return strings.EqualFold(d.Name(), name)
	})
}

// Find returns the streams whose names fuzzy-match query, in catalog order.
// An exact, case-insensitive match is returned alone.
func (s *Store) Find(query string) []*stream.Descriptor {
	if d, ok := s.Get(query); ok {
		return []*stream.Descriptor{d}
	}

	return lo.Filter(s.streams, func(d *stream.Descriptor, _ int) bool {
		return fuzzy.MatchNormalizedFold(query, d.Name())
	})
}

// IsNotExist reports whether err is a LoadError caused by a missing file.
func IsNotExist(err error) bool {
	var loadErr *LoadError
	return errors.As(err, &loadErr) && errors.Is(loadErr.Err, os.ErrNotExist)
}

// EntryOf converts a descriptor back to its catalog record.
func EntryOf(d *stream.Descriptor) Entry {
	return Entry{
		Name:    d.Name(),
		URL:     d.URL(),
		Headers: lo.Ternary(len(d.Headers()) == 0, nil, d.Headers()),
	}
}
