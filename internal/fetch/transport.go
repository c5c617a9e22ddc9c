package fetch

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

type TransportOptions struct {
	InsecureSkipVerify bool
	MaxIdleConns       int
	DialTimeout        time.Duration
}

// NewTransport builds the transport shared by every icon lookup. Lookups fan
// out over many unrelated hosts, so idle connections per host are kept low.
func NewTransport(opts TransportOptions) *http.Transport {
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 100
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 10 * time.Second
	}

	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        opts.MaxIdleConns,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: opts.InsecureSkipVerify,
		},
		DialContext: (&net.Dialer{
			Timeout:   opts.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: opts.DialTimeout,
		ForceAttemptHTTP2:   true,
	}
	_ = http2.ConfigureTransport(tr)
	return tr
}
