// Package feed defines core types shared across the news-fetch subsystems.
package feed

import (
	"mime"
	"net/http"
	"time"

	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/links"
)

// Response is the outcome of a successful link fetch.
type Response struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// ContentType returns the media type of the response body, without parameters.
func (r Response) ContentType() string {
	ct := r.Headers.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ct
	}
	return mediaType
}

// Tags carries the loose classification metadata extracted from an article
// page. Empty strings are filtered out at construction.
type Tags struct {
	Tags            []string `json:"tags"`
	MetaDescription string   `json:"meta_description,omitempty"`
	MetaKeywords    []string `json:"meta_keywords"`
}

// NewTags builds a Tags value, dropping empty entries.
func NewTags(tags []string, metaDescription string, metaKeywords []string) Tags {
	return Tags{
		Tags:            filterEmpty(tags),
		MetaDescription: metaDescription,
		MetaKeywords:    filterEmpty(metaKeywords),
	}
}

func filterEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Article is a validated news article record. It is only ever constructed
// with a non-empty title, author list, publish timestamp, and body text, and
// is never mutated after assembly.
type Article struct {
	FetchID          string           `json:"fetch_id"`
	URL              string           `json:"url"`
	Title            string           `json:"title"`
	Authors          []string         `json:"authors"`
	Tags             Tags             `json:"tags"`
	Links            []links.Resolved `json:"links"`
	PublishTimestamp time.Time        `json:"publish_timestamp"`
	FetchedAt        time.Time        `json:"fetched_at"`
	Text             string           `json:"text"`
	BlobURI          string           `json:"blob_uri,omitempty"`
}
