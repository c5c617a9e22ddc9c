package resolver

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Link is a <link> element's rel and href attributes.
type Link struct {
	Rel  string
	Href string
}

func (l Link) relIs(rel string) bool {
	return strings.EqualFold(l.Rel, rel)
}

func parseDocument(body []byte) (*html.Node, error) {
	return html.Parse(bytes.NewReader(body))
}

// collectLinks returns every <link> element in document order, wherever it
// appears in the tree.
func collectLinks(doc *html.Node) []Link {
	var links []Link
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && strings.EqualFold(n.Data, "link") {
			rel, hasRel := getAttr(n, "rel")
			if hasRel {
				href, _ := getAttr(n, "href")
				links = append(links, Link{Rel: rel, Href: strings.TrimSpace(href)})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}

func getAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}
