package middleware

import "net/http"

type Middleware func(http.Handler) http.Handler

// Chain applies middlewares in order: m1(m2(...(h))). Nil entries are
// skipped.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		h = mws[i](h)
	}
	return h
}
