package article

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/feed"
)

type stubIDs struct {
	id  string
	err error
}

func (s stubIDs) NewID() (string, error) {
	return s.id, s.err
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

// articlePage builds an HTML article page with enough body text for content
// extraction to find the main article.
func articlePage(extraHead string) string {
	paragraph := strings.Repeat("The outbreak continued to spread through the region as officials urged caution. ", 10)
	return fmt.Sprintf(`<html><head>
<title>Outbreak Reaches the Coast</title>
%s
</head><body>
<article>
<p>%s</p>
<p>%s</p>
<p>Read more at <a href="/coverage/timeline">our timeline</a>.</p>
</article>
</body></html>`, extraHead, paragraph, paragraph)
}

func htmlResponse(body string) feed.Response {
	return feed.Response{
		URL:      "https://t.co/abc",
		FinalURL: "https://news.example.com/story/outbreak",
		Headers:  http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
		Body:     []byte(body),
	}
}

func newTestAssembler() *Assembler {
	return NewAssembler(
		NewExtractor(),
		stubIDs{id: "fetch-1"},
		fixedClock{now: time.Date(2020, 3, 10, 12, 0, 0, 0, time.UTC)},
		zap.NewNop(),
	)
}

func TestAssembleAcceptsValidArticle(t *testing.T) {
	t.Parallel()

	body := articlePage(`
<meta name="author" content="Jane Doe">
<meta property="article:published_time" content="2020-03-05T10:00:00Z">
<meta name="date" content="2020-03-04">
<meta name="keywords" content="health, outbreak">
`)
	a := newTestAssembler()
	article, ok, err := a.Assemble(htmlResponse(body))
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, "fetch-1", article.FetchID)
	require.Equal(t, "https://news.example.com/story/outbreak", article.URL)
	require.Equal(t, "Outbreak Reaches the Coast", article.Title)
	require.Contains(t, article.Authors, "Jane Doe")
	// article:published_time wins over the less specific meta date.
	require.Equal(t, time.Date(2020, 3, 5, 10, 0, 0, 0, time.UTC), article.PublishTimestamp.UTC())
	require.Equal(t, time.Date(2020, 3, 10, 12, 0, 0, 0, time.UTC), article.FetchedAt)
	require.NotEmpty(t, article.Text)
	require.Equal(t, []string{"health", "outbreak"}, article.Tags.MetaKeywords)

	// The relative timeline link resolves against the article's own URL.
	var foundTimeline bool
	for _, l := range article.Links {
		if l.Host == "news.example.com" && l.Path == "/coverage/timeline" {
			foundTimeline = true
		}
	}
	require.True(t, foundTimeline)
}

func TestAssembleRejectsNonHTML(t *testing.T) {
	t.Parallel()

	resp := htmlResponse(articlePage(""))
	resp.Headers = http.Header{"Content-Type": []string{"application/pdf"}}

	_, ok, err := newTestAssembler().Assemble(resp)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAssembleRejectsNotFoundSentinel(t *testing.T) {
	t.Parallel()

	body := strings.Replace(
		articlePage(`<meta name="author" content="Jane Doe">
<meta property="article:published_time" content="2020-03-05T10:00:00Z">`),
		"Outbreak Reaches the Coast", "Page Not Found", 1,
	)

	_, ok, err := newTestAssembler().Assemble(htmlResponse(body))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAssembleRejectsMissingAuthors(t *testing.T) {
	t.Parallel()

	body := articlePage(`<meta property="article:published_time" content="2020-03-05T10:00:00Z">`)

	_, ok, err := newTestAssembler().Assemble(htmlResponse(body))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAssembleRejectsMissingPublishDate(t *testing.T) {
	t.Parallel()

	body := articlePage(`<meta name="author" content="Jane Doe">`)

	_, ok, err := newTestAssembler().Assemble(htmlResponse(body))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAssembleRejectsEmptyBody(t *testing.T) {
	t.Parallel()

	body := `<html><head>
<title>Outbreak Reaches the Coast</title>
<meta name="author" content="Jane Doe">
<meta property="article:published_time" content="2020-03-05T10:00:00Z">
</head><body></body></html>`

	_, ok, err := newTestAssembler().Assemble(htmlResponse(body))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAssembleSurfacesIDGenerationFailure(t *testing.T) {
	t.Parallel()

	body := articlePage(`<meta name="author" content="Jane Doe">
<meta property="article:published_time" content="2020-03-05T10:00:00Z">`)

	a := NewAssembler(
		NewExtractor(),
		stubIDs{err: fmt.Errorf("entropy exhausted")},
		fixedClock{now: time.Now()},
		zap.NewNop(),
	)
	_, _, err := a.Assemble(htmlResponse(body))
	require.Error(t, err)
	require.Contains(t, err.Error(), "generate fetch id")
}
