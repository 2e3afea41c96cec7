package links

import (
	"bytes"
	"net/url"

	"github.com/PuerkitoBio/goquery"
)

// OnPage collects every resolvable outbound location referenced by href or
// src attributes in the document, resolved against the document's own URL.
// Unresolvable hrefs are simply excluded.
func OnPage(body []byte, base *url.URL) []Resolved {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var out []Resolved
	collect := func(attr string) func(int, *goquery.Selection) {
		return func(_ int, sel *goquery.Selection) {
			raw, ok := sel.Attr(attr)
			if !ok {
				return
			}
			link, ok := Parse(raw)
			if !ok {
				return
			}
			if resolved, ok := link.ResolveFrom(base); ok {
				out = append(out, resolved)
			}
		}
	}
	doc.Find("[href]").Each(collect("href"))
	doc.Find("[src]").Each(collect("src"))
	return out
}
