// Package search walks the paginated results feed of the platform's
// plaintext search endpoint, one cursor at a time.
package search

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultBaseURL is the plaintext search frontend walked by default.
const DefaultBaseURL = "https://mobile.twitter.com"

// searchPathPrefix is the fixed prefix every next-page locator carries. A
// locator without it indicates an upstream format change and is fatal.
const searchPathPrefix = "/search?q="

// Query is the set of keywords a walk searches for, combined disjunctively.
type Query struct {
	Keywords []string
}

// InitialPath renders the relative path of the first results page.
func (q Query) InitialPath() string {
	joined := strings.Join(q.Keywords, " OR ")
	return searchPathPrefix + url.QueryEscape("("+joined+")")
}

// Cursor identifies the next results page to fetch. It is an immutable
// value, replaced on every successful page fetch and never persisted.
type Cursor struct {
	url string
}

// CursorFromPath builds a Cursor from a relative locator found on the
// previous page. The locator must carry the fixed search path prefix.
func CursorFromPath(base, path string) (Cursor, error) {
	if !strings.HasPrefix(path, searchPathPrefix) {
		return Cursor{}, fmt.Errorf("next page locator %q does not start with %q", path, searchPathPrefix)
	}
	return Cursor{url: base + path}, nil
}

// URL returns the absolute URL of the results page the cursor points to.
func (c Cursor) URL() string {
	return c.url
}
