// Package article turns fetched HTML responses into validated news article
// records.
package article

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"
)

// Extraction is the raw, unvalidated content pulled from an article page.
// Every field may be empty; validation happens during assembly.
type Extraction struct {
	Title           string
	Authors         []string
	Text            string
	PublishDate     time.Time
	MetaPublishDate time.Time
	MetaDescription string
	MetaKeywords    []string
	Tags            []string
}

// Extractor parses article pages with a readability pass for content and a
// metadata pass over the document head.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract pulls candidate title, authors, dates, body text, and tags from the
// page. An unparseable document is an error; missing fields are not.
func (e *Extractor) Extract(pageURL string, body []byte) (Extraction, error) {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return Extraction{}, fmt.Errorf("parse article url: %w", err)
	}

	var ex Extraction
	art, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return Extraction{}, fmt.Errorf("readability parse %s: %w", pageURL, err)
	}
	ex.Title = strings.TrimSpace(art.Title)
	ex.Text = strings.TrimSpace(art.TextContent)
	if byline := strings.TrimSpace(art.Byline); byline != "" {
		ex.Authors = append(ex.Authors, byline)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Extraction{}, fmt.Errorf("parse article document %s: %w", pageURL, err)
	}
	e.extractMeta(doc, &ex)
	return ex, nil
}

func (e *Extractor) extractMeta(doc *goquery.Document, ex *Extraction) {
	for _, selector := range []string{
		`meta[name="author"]`,
		`meta[property="article:author"]`,
	} {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			content := strings.TrimSpace(sel.AttrOr("content", ""))
			if content == "" || strings.HasPrefix(content, "http") {
				return
			}
			for _, name := range strings.Split(content, ",") {
				if name = strings.TrimSpace(name); name != "" && !contains(ex.Authors, name) {
					ex.Authors = append(ex.Authors, name)
				}
			}
		})
	}

	// A page-level published_time is more specific than whatever the
	// content heuristics find, so the two are kept separate.
	if raw := metaContent(doc, `meta[property="article:published_time"]`); raw != "" {
		if ts, err := dateparse.ParseAny(raw); err == nil {
			ex.MetaPublishDate = ts
		}
	}
	for _, selector := range []string{
		`meta[name="date"]`,
		`meta[itemprop="datePublished"]`,
		`meta[name="parsely-pub-date"]`,
	} {
		if !ex.PublishDate.IsZero() {
			break
		}
		if raw := metaContent(doc, selector); raw != "" {
			if ts, err := dateparse.ParseAny(raw); err == nil {
				ex.PublishDate = ts
			}
		}
	}
	if ex.PublishDate.IsZero() {
		if raw, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
			if ts, err := dateparse.ParseAny(raw); err == nil {
				ex.PublishDate = ts
			}
		}
	}

	ex.MetaDescription = metaContent(doc, `meta[name="description"]`)
	if ex.MetaDescription == "" {
		ex.MetaDescription = metaContent(doc, `meta[property="og:description"]`)
	}
	if raw := metaContent(doc, `meta[name="keywords"]`); raw != "" {
		for _, kw := range strings.Split(raw, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				ex.MetaKeywords = append(ex.MetaKeywords, kw)
			}
		}
	}
	doc.Find(`meta[property="article:tag"]`).Each(func(_ int, sel *goquery.Selection) {
		if tag := strings.TrimSpace(sel.AttrOr("content", "")); tag != "" {
			ex.Tags = append(ex.Tags, tag)
		}
	})
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
