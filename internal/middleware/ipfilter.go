package middleware

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"

	"bookie/internal/logging"
)

type ipFilter struct {
	logger   logging.Logger
	prefixes []netip.Prefix
}

// IPFilter constructs a middleware that rejects requests whose peer address
// falls within any of the given CIDR ranges. Forwarding headers are not
// consulted: the service is meant to be reached directly by the browser.
func IPFilter(logger logging.Logger, cidrs []string) (Middleware, error) {
	if len(cidrs) == 0 {
		return func(next http.Handler) http.Handler {
			return next
		}, nil
	}

	prefixes := make([]netip.Prefix, 0, len(cidrs))
	for _, c := range cidrs {
		p, err := netip.ParsePrefix(c)
		if err != nil {
			return nil, fmt.Errorf("parse cidr %q: %w", c, err)
		}
		prefixes = append(prefixes, p.Masked())
	}

	f := &ipFilter{
		logger:   logger,
		prefixes: prefixes,
	}
	return f.middleware, nil
}

func (f *ipFilter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr, ok := peerAddr(r.RemoteAddr)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		for _, p := range f.prefixes {
			if p.Contains(addr) {
				if f.logger != nil {
					f.logger.Warn("ip blocked",
						"ip", addr.String(),
						"path", r.URL.Path,
					)
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

func peerAddr(remote string) (netip.Addr, bool) {
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		host = remote
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
