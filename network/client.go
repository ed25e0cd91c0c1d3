// Package network builds the HTTP data source streams are opened through: a tuned client,
// the header merge policy and an optional browser TLS fingerprint.
package network

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

const maxRedirects = 10

// NewClient returns a client tuned for media servers. Redirects are followed between http and https
// in both directions; any other target scheme stops the chain.
func NewClient(timeout time.Duration, fingerprint bool) *http.Client {
	var transport http.RoundTripper = newTransport()
	if fingerprint {
		transport = NewTLSTransport(timeout)
	}

	return &http.Client{
		Timeout:       timeout,
		Transport:     transport,
		CheckRedirect: checkRedirect,
	}
}

// newTransport initializes a tuned http.Transport with pool and timeout parameters suited to a single
// long-lived media connection plus short playlist fetches.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 16
	t.MaxIdleConnsPerHost = 4
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 15 * time.Second
	t.ExpectContinueTimeout = time.Second
	return t
}

func checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}

	switch req.URL.Scheme {
	case "http", "https":
		return nil
	default:
		return errors.New("redirect to unsupported scheme " + req.URL.Scheme)
	}
}
