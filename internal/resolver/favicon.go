package resolver

import (
	"context"
	"net/url"

	"bookie/internal/fetch"
)

// FaviconStage probes /favicon.ico at the target's origin.
func FaviconStage(f Fetcher) Stage {
	return Stage{
		Name: "favicon",
		Run: func(ctx context.Context, t *Target) Result {
			raw := t.URL.ResolveReference(&url.URL{Path: "/favicon.ico"}).String()

			resp, err := f.Fetch(ctx, raw, 0)
			if err != nil {
				return Fail(err)
			}
			fetch.Discard(resp)
			if !fetch.Successful(resp.StatusCode) {
				return Fail(fetch.StatusError(raw, resp.StatusCode))
			}
			return Hit(raw)
		},
	}
}
