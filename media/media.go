// Package media builds the protocol-specific source for a stream and performs the transport open:
// fetching and decoding the playlist for HLS, a one-byte ranged read for progressive media.
// Decoding the media itself is the player's job.
package media

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/peyitv/peyitv/network"
	"github.com/peyitv/peyitv/stream"
)

// Source is an opened-on-demand media resource.
type Source interface {
	// Descriptor returns the stream the source was built for.
	Descriptor() *stream.Descriptor

	// Protocol returns the delivery protocol the source handles.
	Protocol() stream.Protocol

	// Config returns the merged request configuration every request of the source carries.
	Config() network.RequestConfig

	// Open checks the resource can be fetched. It fails with *TransportError.
	Open(ctx context.Context) error

	// Info describes what Open found. It is the zero value before a successful Open.
	Info() Info
}

// Info is what the transport open learned about the resource.
type Info struct {
	// URL is the final URL after redirects.
	URL string

	ContentType   string
	ContentLength int64

	// Variants is the number of renditions of an HLS master playlist, 0 otherwise.
	Variants int
	// Segments is the number of segments of the (first) media playlist.
	Segments int
	// TargetDuration is the playlist's maximum segment duration.
	TargetDuration time.Duration
	// Live is set for media playlists without an end tag.
	Live bool
}

// TransportError reports a failure to open or read a media resource.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("transport %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// transportError wraps err, lifting the status code out of a network.StatusError.
func transportError(url string, err error) *TransportError {
	te := &TransportError{URL: url, Err: err}

	var status *network.StatusError
	if errors.As(err, &status) {
		te.StatusCode = status.StatusCode
	}

	return te
}

// Constructor builds a source for one protocol.
type Constructor func(d *stream.Descriptor, ds *network.DataSource) Source

var constructors = map[stream.Protocol]Constructor{
	stream.SegmentedAdaptive: NewHLS,
	stream.Progressive:       NewProgressive,
}

// New picks the constructor matching the descriptor's protocol.
func New(d *stream.Descriptor, ds *network.DataSource) Source {
	return constructors[stream.Resolve(d.URL())](d, ds)
}

// base holds what every source shares.
type base struct {
	descriptor *stream.Descriptor
	source     *network.DataSource
	info       Info
}

func (b *base) Descriptor() *stream.Descriptor {
	return b.descriptor
}

func (b *base) Config() network.RequestConfig {
	return b.source.Config()
}

func (b *base) Info() Info {
	return b.info
}
