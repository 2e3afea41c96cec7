package search

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ResultsPage is one walked page of search results: the cursor to the page
// after it and the external candidate links found on it, in document order.
type ResultsPage struct {
	URL   string
	Next  Cursor
	Links []string
}

// parsePage scrapes a fetched results page for the next-page locator and the
// outbound links inside tweet tables. Links beginning with "/" point back
// into the platform and are filtered here, upstream of the dispatcher.
func parsePage(base, pageURL string, body []byte) (ResultsPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ResultsPage{}, fmt.Errorf("parse results page %s: %w", pageURL, err)
	}

	nextPath, ok := doc.Find("div.w-button-more a").First().Attr("href")
	if !ok {
		return ResultsPage{}, fmt.Errorf("results page %s has no next page locator", pageURL)
	}
	next, err := CursorFromPath(base, nextPath)
	if err != nil {
		return ResultsPage{}, err
	}

	var candidates []string
	doc.Find("table.tweet a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" || strings.HasPrefix(href, "/") {
			return
		}
		candidates = append(candidates, href)
	})

	return ResultsPage{
		URL:   pageURL,
		Next:  next,
		Links: candidates,
	}, nil
}

// hasTweets reports whether the page body contains any tweet tables at all.
// A well-formed results page always has them; their absence suggests the
// server returned a script shell instead of rendered content.
func hasTweets(body []byte) bool {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return false
	}
	return doc.Find("table.tweet").Length() > 0
}
