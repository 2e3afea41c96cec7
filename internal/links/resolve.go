// Package links resolves raw hrefs found inside fetched documents into
// absolute http(s) locations.
package links

import (
	"fmt"
	"net/url"
	"strings"
)

// Link is the parsed form of a raw href. Any of the three components may be
// empty; a Link with all three empty is never constructed.
type Link struct {
	Scheme string
	Host   string
	Path   string
}

// Parse splits a raw href into scheme, host, and path components. It returns
// false for hrefs that carry none of the three, such as a bare "#section"
// fragment pointing back into the same page, and for hrefs that do not parse
// as URLs at all.
func Parse(raw string) (Link, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return Link{}, false
	}
	l := Link{
		Scheme: u.Scheme,
		Host:   u.Host,
		Path:   u.Path,
	}
	if l.Scheme == "" && l.Host == "" && l.Path == "" {
		return Link{}, false
	}
	return l, true
}

// ResolveFrom resolves the link against the page it was found on, yielding an
// absolute location. It returns false for links that resolve outside http(s)
// (mailto:, javascript:, ...) and for links that resolve back to the base
// document itself.
func (l Link) ResolveFrom(base *url.URL) (Resolved, bool) {
	scheme := l.Scheme
	if scheme == "" {
		if l.Host == "" {
			scheme = base.Scheme
		} else {
			// Protocol-relative ("//example.com/x"): assume TLS.
			scheme = "https"
		}
	}
	if scheme != "http" && scheme != "https" {
		return Resolved{}, false
	}

	host := l.Host
	var p string
	if host != "" {
		// Absolute link; the document's location plays no part.
		p = l.Path
		if p == "" {
			p = "/"
		}
	} else {
		host = base.Host
		if l.Path == "" {
			// No host and no path: a fragment link to the same page.
			return Resolved{}, false
		}
		if strings.HasPrefix(l.Path, "/") {
			p = l.Path
		} else {
			p = joinRelative(base.Path, l.Path)
		}
	}

	return newResolved(scheme, host, p)
}

// joinRelative joins a path against the directory of the base path. The join
// is textual: ".." segments are carried through as-is rather than collapsed,
// which is a known limitation of this resolver.
func joinRelative(basePath, rel string) string {
	dir := ""
	if idx := strings.LastIndex(basePath, "/"); idx > 0 {
		dir = basePath[:idx]
	}
	joined := dir + "/" + rel
	if !strings.HasPrefix(joined, "/") {
		joined = "/" + joined
	}
	return joined
}

// Resolved is an absolute http(s) location. All three components are
// non-empty and Path always begins with "/".
type Resolved struct {
	Scheme string `json:"scheme"`
	Host   string `json:"host"`
	Path   string `json:"path"`
}

func newResolved(scheme, host, p string) (Resolved, bool) {
	if scheme == "" || host == "" || !strings.HasPrefix(p, "/") {
		return Resolved{}, false
	}
	return Resolved{Scheme: scheme, Host: host, Path: p}, true
}

// FromURL parses an already-absolute URL into a Resolved, requiring all three
// components to be present.
func FromURL(raw string) (Resolved, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return Resolved{}, false
	}
	return newResolved(u.Scheme, u.Host, u.Path)
}

// URL renders the location as a fetchable URL string.
func (r Resolved) URL() string {
	return fmt.Sprintf("%s://%s%s", r.Scheme, r.Host, r.Path)
}
