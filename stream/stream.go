// Package stream defines the immutable stream descriptor and the protocol resolver.
package stream

import (
	"strings"

	"github.com/peyitv/peyitv/constant"
	"github.com/samber/lo"
)

// Descriptor is one playable entry of the catalog. It is never mutated once the catalog is loaded;
// Headers returns a copy so callers cannot alter it either.
type Descriptor struct {
	name    string
	url     string
	headers map[string]string
}

// New builds a descriptor. The header map is copied.
func New(name, url string, headers map[string]string) *Descriptor {
	return &Descriptor{
		name:    name,
		url:     url,
		headers: copyHeaders(headers),
	}
}

// Name is the display label.
func (d *Descriptor) Name() string {
	return d.name
}

// URL is the absolute media URI.
func (d *Descriptor) URL() string {
	return d.url
}

// Headers returns a copy of the per-stream request headers.
func (d *Descriptor) Headers() map[string]string {
	return copyHeaders(d.headers)
}

// Header looks a header up case-insensitively.
func (d *Descriptor) Header(name string) (string, bool) {
	for k, v := range d.headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// Protocol classifies the descriptor's URL.
func (d *Descriptor) Protocol() Protocol {
	return Resolve(d.url)
}

// String returns the name for display.
func (d *Descriptor) String() string {
	return d.name
}

func copyHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return map[string]string{}
	}
	return lo.Assign(headers)
}

// Protocol is the delivery protocol of a stream.
type Protocol int

const (
	// Progressive streams are fetched as one continuous resource.
	Progressive Protocol = iota
	// SegmentedAdaptive streams are described by an HLS playlist.
	SegmentedAdaptive
)

// String returns a short label for the protocol.
func (p Protocol) String() string {
	switch p {
	case SegmentedAdaptive:
		return "hls"
	default:
		return "progressive"
	}
}

// Resolve classifies url. Any URL containing ".m3u8", in any casing, is SegmentedAdaptive;
// everything else is Progressive. Malformed URLs still classify and fail later, when opened.
func Resolve(url string) Protocol {
	if strings.Contains(strings.ToLower(url), constant.SegmentedPlaylistMarker) {
		return SegmentedAdaptive
	}
	return Progressive
}
