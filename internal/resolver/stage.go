package resolver

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/html"

	"bookie/internal/fetch"
)

// Target is the fetched and parsed page an icon is being resolved for.
type Target struct {
	URL   *url.URL
	Doc   *html.Node
	Links []Link
}

// FirstLink returns the href of the first <link> whose rel equals rel
// (ASCII case-insensitive), or "" when there is none or its href is empty.
func (t *Target) FirstLink(rel string) string {
	for _, l := range t.Links {
		if l.relIs(rel) {
			return l.Href
		}
	}
	return ""
}

// Result is the outcome of one stage: an icon URL, nothing, or a failure.
// The resolver collapses failures to nothing after recording them.
type Result struct {
	IconURL string
	Err     error
}

func Hit(iconURL string) Result { return Result{IconURL: iconURL} }

func Nothing() Result { return Result{} }

func Fail(err error) Result { return Result{Err: err} }

func (r Result) OK() bool {
	return r.Err == nil && r.IconURL != ""
}

// Outcome labels r for logs and metrics.
func (r Result) Outcome() string {
	switch {
	case r.Err != nil:
		if k := fetch.KindOf(r.Err); k != 0 {
			return k.String()
		}
		return "error"
	case r.IconURL != "":
		return "found"
	default:
		return "empty"
	}
}

type StageFunc func(ctx context.Context, t *Target) Result

// Stage is one step of the fallback chain.
type Stage struct {
	Name string
	Run  StageFunc
}

// Fetcher is the subset of fetch.Fetcher the stages need.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, timeout time.Duration) (*http.Response, error)
}

// DefaultStages returns the chain in priority order: page <link> icons,
// then the web app manifest, then /favicon.ico at the origin.
func DefaultStages(f Fetcher) []Stage {
	return []Stage{
		MetaLinkStage(),
		ManifestStage(f),
		FaviconStage(f),
	}
}
