package resolver

import (
	"context"

	"bookie/internal/fetch"
)

// IconRels are the <link rel> values checked by the meta-link stage, in
// priority order.
var IconRels = []string{"icon", "shortcut icon", "apple-touch-icon", "apple-touch-icon-precomposed"}

// MetaLinkStage resolves the first icon <link> declared by the page. For
// each rel only the first matching element is considered; when its href is
// empty the next rel is tried.
func MetaLinkStage() Stage {
	return Stage{
		Name: "meta-link",
		Run: func(ctx context.Context, t *Target) Result {
			for _, rel := range IconRels {
				href := t.FirstLink(rel)
				if href == "" {
					continue
				}
				u, err := t.URL.Parse(href)
				if err != nil {
					return Fail(fetch.ParseError(href, err))
				}
				return Hit(u.String())
			}
			return Nothing()
		},
	}
}
