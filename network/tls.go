package network

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

// TLSTransport opens https URLs with a Chrome 120 ClientHello. Some CDNs in front of live channels
// reject the Go TLS fingerprint outright. Plain http requests go through a regular transport.
//
// The ClientHello advertises h2, so requests are sent over HTTP/2 first. When the h2 connection
// cannot be set up (handshake failure or a server that does not select h2) no request byte has been
// exchanged, and the request is sent over a connection that advertises http/1.1 only. Failures after
// the connection is up are returned as they are.
type TLSTransport struct {
	h1    *http.Transport
	h2    *http2.Transport
	plain *http.Transport

	// roots overrides the system pool.
	roots *x509.CertPool
}

// errNoH2 marks h2 connections that failed before any request was written.
var errNoH2 = errors.New("h2 connection not established")

// NewTLSTransport returns a fingerprinting transport whose dials give up after timeout.
func NewTLSTransport(timeout time.Duration) *TLSTransport {
	dialer := &net.Dialer{Timeout: timeout}

	t := &TLSTransport{plain: newTransport()}

	t.h2 = &http2.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
			conn, err := t.dial(ctx, dialer, network, addr, nil)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", errNoH2, err)
			}

			if proto := conn.ConnectionState().NegotiatedProtocol; proto != http2.NextProtoTLS {
				_ = conn.Close()
				return nil, fmt.Errorf("%w: server selected %q", errNoH2, proto)
			}

			return conn, nil
		},
	}

	t.h1 = &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			conn, err := t.dial(ctx, dialer, network, addr, []string{"http/1.1"})
			if err != nil {
				return nil, err
			}
			return conn, nil
		},
		ResponseHeaderTimeout: timeout,
	}

	return t
}

// RoundTrip implements http.RoundTripper.
func (t *TLSTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.URL.Scheme != "https" {
		return t.plain.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil || !errors.Is(err, errNoH2) {
		return resp, err
	}

	if ctxErr := req.Context().Err(); ctxErr != nil {
		return nil, ctxErr
	}

	return t.h1.RoundTrip(req)
}

// CloseIdleConnections releases pooled connections of every underlying transport.
func (t *TLSTransport) CloseIdleConnections() {
	t.h1.CloseIdleConnections()
	t.h2.CloseIdleConnections()
	t.plain.CloseIdleConnections()
}

func (t *TLSTransport) dial(ctx context.Context, dialer *net.Dialer, network, addr string, nextProtos []string) (*utls.UConn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		RootCAs:    t.roots,
		MinVersion: tls.VersionTLS12,
		NextProtos: nextProtos,
	}, utls.HelloChrome_120)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
