package media

import (
	"context"
	"strconv"
	"strings"

	"github.com/peyitv/peyitv/network"
	"github.com/peyitv/peyitv/stream"
	"github.com/peyitv/peyitv/util"
)

// Progressive is a single resource fetched as one continuous stream.
type Progressive struct {
	base
}

// NewProgressive returns a progressive source for d.
func NewProgressive(d *stream.Descriptor, ds *network.DataSource) Source {
	return &Progressive{base{descriptor: d, source: ds}}
}

// Protocol implements Source.
func (p *Progressive) Protocol() stream.Protocol {
	return stream.Progressive
}

// Open requests the first byte of the resource. Servers ignoring Range answer 200 with the whole
// body, which is closed unread.
func (p *Progressive) Open(ctx context.Context) error {
	resp, err := p.source.Open(ctx, p.descriptor.URL(), "bytes=0-0")
	if err != nil {
		return transportError(p.descriptor.URL(), err)
	}
	defer util.Ignore(resp.Body.Close)

	p.info = Info{
		URL:           resp.Request.URL.String(),
		ContentType:   resp.Header.Get("Content-Type"),
		ContentLength: resp.ContentLength,
	}

	if total, ok := contentRangeTotal(resp.Header.Get("Content-Range")); ok {
		p.info.ContentLength = total
	}

	return nil
}

// contentRangeTotal extracts the complete length from "bytes 0-0/1234".
func contentRangeTotal(header string) (int64, bool) {
	_, total, found := strings.Cut(header, "/")
	if !found || total == "*" {
		return 0, false
	}

	n, err := strconv.ParseInt(strings.TrimSpace(total), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
