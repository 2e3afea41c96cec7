package pipeline

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/fetch"
	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/search"
)

// TestStreamEndToEnd walks a synthetic two-page feed: the first page carries
// three candidate links (two real articles plus one that redirects back to
// the platform), the second page carries no next-page locator. The stream
// must yield exactly the two article records, in some order, and then
// terminate with the propagated walk failure.
func TestStreamEndToEnd(t *testing.T) {
	t.Parallel()

	// The platform server is assigned below, before any request is made; the
	// bounce link needs its URL as a redirect target.
	var platform *httptest.Server

	articles := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bounce" {
			http.Redirect(w, r, platform.URL+"/home", http.StatusFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<html><body>article %s</body></html>", r.URL.Path)
	}))
	t.Cleanup(articles.Close)

	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if strings.Contains(r.URL.RawQuery, "max_id") {
			fmt.Fprint(w, `<html><body><table class="tweet"></table></body></html>`)
			return
		}
		fmt.Fprintf(w, `<html><body>
<table class="tweet"><tr><td>
  <a href="%s/one">a</a>
  <a href="%s/two">b</a>
  <a href="%s/bounce">c</a>
  <a href="/internal">skip</a>
</td></tr></table>
<div class="w-button-more"><a href="/search?q=(kw)&amp;max_id=9">more</a></div>
</body></html>`, articles.URL, articles.URL, articles.URL)
	})
	mux.HandleFunc("/home", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body>back on the platform</body></html>")
	})
	platform = httptest.NewServer(mux)
	t.Cleanup(platform.Close)
	platformHost := strings.TrimPrefix(platform.URL, "http://")

	fetcher := search.NewPageFetcher(search.FetcherConfig{}, zap.NewNop())
	walker, err := search.NewWalker(search.Query{Keywords: []string{"kw"}}, platform.URL, fetcher, nil, zap.NewNop())
	require.NoError(t, err)

	client := fetch.NewClient(fetch.Config{Workers: 4}, zap.NewNop())
	stream := NewStream(walker, client, stubAssembler{}, Config{
		QueueCapacity:  4,
		PlatformDomain: platformHost,
	}, Sinks{}, zap.NewNop())

	ctx := context.Background()
	stream.Start(ctx)

	got := map[string]bool{}
	for i := 0; i < 2; i++ {
		article, err := stream.Next(ctx)
		require.NoError(t, err)
		got[article.URL] = true
	}
	require.Equal(t, map[string]bool{
		articles.URL + "/one": true,
		articles.URL + "/two": true,
	}, got)

	_, err = stream.Next(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "no next page locator")
}

// TestStreamSurfacesWalkCancellation stops the producer via context and
// expects Next to report the cancellation instead of blocking forever.
func TestStreamSurfacesWalkCancellation(t *testing.T) {
	t.Parallel()

	platform := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(platform.Close)

	fetcher := search.NewPageFetcher(search.FetcherConfig{}, zap.NewNop())
	walker, err := search.NewWalker(search.Query{Keywords: []string{"kw"}}, platform.URL, fetcher, nil, zap.NewNop())
	require.NoError(t, err)

	client := fetch.NewClient(fetch.Config{Workers: 1}, zap.NewNop())
	stream := NewStream(walker, client, stubAssembler{}, Config{QueueCapacity: 1}, Sinks{}, zap.NewNop())

	ctx := context.Background()
	stream.Start(ctx)

	_, err = stream.Next(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "fetch results page")
}
