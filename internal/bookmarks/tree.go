// Package bookmarks reads the bookmark tree handed over by the browser and
// walks it to warm the icon cache.
package bookmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

type NodeType string

const (
	TypeFolder    NodeType = "folder"
	TypeBookmark  NodeType = "bookmark"
	TypeSeparator NodeType = "separator"
)

// Node mirrors the browser's bookmark tree node.
type Node struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Type     NodeType `json:"type,omitempty"`
	URL      string   `json:"url,omitempty"`
	Children []*Node  `json:"children,omitempty"`
}

// Kind returns the node type, inferring it for exports that omit "type".
func (n *Node) Kind() NodeType {
	if n.Type != "" {
		return n.Type
	}
	if n.URL != "" {
		return TypeBookmark
	}
	return TypeFolder
}

// Decode reads a tree export: either an array of root nodes or one root.
func Decode(r io.Reader) ([]*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read bookmarks: %w", err)
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var nodes []*Node
		if err := json.Unmarshal(data, &nodes); err != nil {
			return nil, fmt.Errorf("decode bookmarks: %w", err)
		}
		return nodes, nil
	}

	var root Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode bookmarks: %w", err)
	}
	return []*Node{&root}, nil
}

func LoadFile(path string) ([]*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bookmarks: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// FindMenu returns the first "Bookmarks Menu" or "Bookmarks Toolbar"
// folder in depth-first order.
func FindMenu(nodes []*Node) *Node {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if n.Title == "Bookmarks Menu" || n.Title == "Bookmarks Toolbar" {
			return n
		}
		if found := FindMenu(n.Children); found != nil {
			return found
		}
	}
	return nil
}

// Walk calls fn for every bookmark in document order.
func Walk(nodes []*Node, fn func(*Node)) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		switch n.Kind() {
		case TypeBookmark:
			fn(n)
		case TypeFolder:
			Walk(n.Children, fn)
		}
	}
}

// Glyph is the letter shown in place of a missing icon: the first letter of
// the registrable-looking label (second to last host label), or of the
// whole host when it has a single label. Hosts are taken in their ASCII
// (punycode) form, so internationalized names yield "x".
func Glyph(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if host == "" {
		return ""
	}
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		host = ascii
	}

	label := host
	if parts := strings.Split(host, "."); len(parts) >= 2 {
		label = parts[len(parts)-2]
	}
	r, _ := utf8.DecodeRuneInString(label)
	if r == utf8.RuneError {
		return ""
	}
	return string(r)
}
