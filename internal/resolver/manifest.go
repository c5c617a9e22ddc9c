package resolver

import (
	"context"
	"encoding/json"
	"sort"

	"bookie/internal/fetch"
)

// Manifest is the part of a web app manifest the resolver reads.
type Manifest struct {
	Icons []ManifestIcon `json:"icons"`
}

type ManifestIcon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes,omitempty"`
}

// ManifestStage follows <link rel="manifest"> and picks an icon from the
// manifest's icons list with LargestIcon.
func ManifestStage(f Fetcher) Stage {
	return Stage{
		Name: "manifest",
		Run: func(ctx context.Context, t *Target) Result {
			href := t.FirstLink("manifest")
			if href == "" {
				return Nothing()
			}
			manifestURL, err := t.URL.Parse(href)
			if err != nil {
				return Fail(fetch.ParseError(href, err))
			}
			raw := manifestURL.String()

			resp, err := f.Fetch(ctx, raw, 0)
			if err != nil {
				return Fail(err)
			}
			if !fetch.Successful(resp.StatusCode) {
				fetch.Discard(resp)
				return Fail(fetch.StatusError(raw, resp.StatusCode))
			}
			body, err := fetch.ReadBody(raw, resp)
			if err != nil {
				return Fail(err)
			}

			var m Manifest
			if err := json.Unmarshal(body, &m); err != nil {
				return Fail(fetch.ParseError(raw, err))
			}
			if len(m.Icons) == 0 {
				return Nothing()
			}

			icon := LargestIcon(m.Icons)
			if icon.Src == "" {
				return Nothing()
			}
			iconURL, err := manifestURL.Parse(icon.Src)
			if err != nil {
				return Fail(fetch.ParseError(icon.Src, err))
			}
			return Hit(iconURL.String())
		},
	}
}

// LargestIcon approximates the largest icon by ordering icons on their
// sizes string in reverse lexical order and taking the first; ties keep
// manifest order. The comparison is on text, not pixels: "48x48" ranks
// above "192x192" and "9x9" above "10x10". Callers that share the cache
// with the browser extension rely on both picking the same icon.
func LargestIcon(icons []ManifestIcon) ManifestIcon {
	if len(icons) == 0 {
		return ManifestIcon{}
	}
	sorted := make([]ManifestIcon, len(icons))
	copy(sorted, icons)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Sizes > sorted[j].Sizes
	})
	return sorted[0]
}
