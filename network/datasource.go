package network

import (
	"context"
	"fmt"
	"net/http"

	"github.com/peyitv/peyitv/log"
)

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: HTTP %d", e.URL, e.StatusCode)
}

// DataSource issues requests for one stream with its merged headers applied.
type DataSource struct {
	client *http.Client
	config RequestConfig
}

// NewDataSource binds a request configuration to client.
func NewDataSource(client *http.Client, config RequestConfig) *DataSource {
	return &DataSource{client: client, config: config}
}

// Config returns the request configuration applied to every request.
func (d *DataSource) Config() RequestConfig {
	return d.config
}

// Open performs a GET of rawURL. byteRange, when not empty, is sent as the Range header
// (for example "bytes=0-0"). Non-2xx responses are closed and returned as *StatusError.
func (d *DataSource) Open(ctx context.Context, rawURL, byteRange string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	d.config.Apply(req)
	if byteRange != "" {
		req.Header.Set("Range", byteRange)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{URL: resp.Request.URL.String(), StatusCode: resp.StatusCode}
	}

	log.Debugf("opened %s (%s, %s)", resp.Request.URL, resp.Status, resp.Header.Get("Content-Type"))
	return resp, nil
}
