package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
)

const dialTimeout = 30 * time.Second

// Fingerprinted round-trips requests over connections whose Client Hello mimics Chrome 120.
// It tries HTTP/2 first and falls back to an HTTP/1.1-only handshake when that fails.
type Fingerprinted struct {
	once sync.Once
	h2   *http2.Transport
	h1   *http.Transport
}

// NewFingerprinted returns a RoundTripper with Chrome TLS fingerprint emulation.
func NewFingerprinted() *Fingerprinted {
	return &Fingerprinted{}
}

func (f *Fingerprinted) init() {
	f.once.Do(func() {
		f.h2 = &http2.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialTLS(ctx, network, addr, nil)
			},
		}
		f.h1 = &http.Transport{
			DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialTLS(ctx, network, addr, []string{"http/1.1"})
			},
		}
	})
}

// RoundTrip implements http.RoundTripper.
func (f *Fingerprinted) RoundTrip(req *http.Request) (*http.Response, error) {
	f.init()

	if req.URL.Scheme != "https" {
		return f.h1.RoundTrip(req)
	}

	resp, err := f.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	if req.Body != nil && req.GetBody == nil {
		return nil, err
	}

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, bodyErr := req.GetBody()
		if bodyErr != nil {
			return nil, bodyErr
		}
		retry.Body = body
	}
	return f.h1.RoundTrip(retry)
}

// NewFingerprintedClient returns an http.Client using the fingerprinted transport.
func NewFingerprintedClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewFingerprinted(),
	}
}

func dialTLS(ctx context.Context, network, addr string, protos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		NextProtos: protos,
	}, utls.HelloChrome_120)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
