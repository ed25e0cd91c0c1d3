package media

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/grafov/m3u8"
	"github.com/peyitv/peyitv/log"
	"github.com/peyitv/peyitv/network"
	"github.com/peyitv/peyitv/stream"
	"github.com/peyitv/peyitv/util"
	"github.com/samber/lo"
)

// HLS is a segmented adaptive stream described by a playlist. Rendition selection is left to the
// player; opening only proves the playlist chain is reachable and well formed.
type HLS struct {
	base
}

// NewHLS returns an HLS source for d.
func NewHLS(d *stream.Descriptor, ds *network.DataSource) Source {
	return &HLS{base{descriptor: d, source: ds}}
}

// Protocol implements Source.
func (h *HLS) Protocol() stream.Protocol {
	return stream.SegmentedAdaptive
}

// Open fetches the playlist. For a master playlist the first variant's media playlist is fetched as
// well, since that is where a broken stream usually shows.
func (h *HLS) Open(ctx context.Context) error {
	playlist, listType, finalURL, err := h.fetch(ctx, h.descriptor.URL())
	if err != nil {
		return err
	}

	info := Info{URL: finalURL}

	if listType == m3u8.MASTER {
		master := playlist.(*m3u8.MasterPlaylist)
		variants := lo.Filter(master.Variants, func(v *m3u8.Variant, _ int) bool {
			return v != nil && v.URI != ""
		})
		if len(variants) == 0 {
			return &TransportError{URL: finalURL, Err: errors.New("master playlist has no variants")}
		}
		info.Variants = len(variants)

		variantURL, err := resolveURL(finalURL, variants[0].URI)
		if err != nil {
			return &TransportError{URL: finalURL, Err: err}
		}

		log.Debugf("%s: %d variants, checking %s", h.descriptor.Name(), len(variants), variantURL)

		playlist, listType, _, err = h.fetch(ctx, variantURL)
		if err != nil {
			return err
		}
		if listType != m3u8.MEDIA {
			return &TransportError{URL: variantURL, Err: errors.New("variant is not a media playlist")}
		}
	}

	media := playlist.(*m3u8.MediaPlaylist)
	info.Segments = int(media.Count())
	info.TargetDuration = time.Duration(media.TargetDuration * float64(time.Second))
	info.Live = !media.Closed

	if info.Segments == 0 && media.Closed {
		return &TransportError{URL: finalURL, Err: errors.New("playlist contains no segments")}
	}

	h.info = info
	return nil
}

func (h *HLS) fetch(ctx context.Context, rawURL string) (m3u8.Playlist, m3u8.ListType, string, error) {
	resp, err := h.source.Open(ctx, rawURL, "")
	if err != nil {
		return nil, 0, "", transportError(rawURL, err)
	}
	defer util.Ignore(resp.Body.Close)

	finalURL := resp.Request.URL.String()

	playlist, listType, err := m3u8.DecodeFrom(resp.Body, false)
	if err != nil {
		return nil, 0, "", &TransportError{URL: finalURL, Err: fmt.Errorf("decode playlist: %w", err)}
	}

	return playlist, listType, finalURL, nil
}

// resolveURL resolves a playlist reference against the playlist it appeared in.
func resolveURL(baseURL, ref string) (string, error) {
	b, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse variant url: %w", err)
	}

	return b.ResolveReference(r).String(), nil
}
