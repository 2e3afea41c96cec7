package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/metrics"
)

// Renderer renders a page with a browser when the plain fetch returned only
// a script shell.
type Renderer interface {
	Render(ctx context.Context, url string) ([]byte, error)
}

// Walker produces a lazy, sequential, non-restartable sequence of results
// pages. Fetching page N+1 never begins before page N's extraction
// completes; the walk has no natural end and relies on the caller to stop
// consuming.
type Walker struct {
	fetcher  *PageFetcher
	renderer Renderer
	base     string
	cursor   Cursor
	logger   *zap.Logger
}

// NewWalker creates a Walker positioned at the query's first results page.
func NewWalker(query Query, base string, fetcher *PageFetcher, renderer Renderer, logger *zap.Logger) (*Walker, error) {
	if base == "" {
		base = DefaultBaseURL
	}
	cursor, err := CursorFromPath(base, query.InitialPath())
	if err != nil {
		return nil, fmt.Errorf("build initial cursor: %w", err)
	}
	return &Walker{
		fetcher:  fetcher,
		renderer: renderer,
		base:     base,
		cursor:   cursor,
		logger:   logger,
	}, nil
}

// Next fetches the page the walker's cursor points to and advances the
// cursor. Any failure is fatal: it propagates to the caller and the walk
// terminates.
func (w *Walker) Next(ctx context.Context) (ResultsPage, error) {
	pageURL := w.cursor.URL()
	body, err := w.fetcher.FetchHTML(ctx, pageURL)
	if err != nil {
		return ResultsPage{}, fmt.Errorf("fetch results page %s: %w", pageURL, err)
	}

	if w.renderer != nil && looksLikeScriptShell(body) {
		w.logger.Debug("promoting results page to headless render", zap.String("url", pageURL))
		rendered, renderErr := w.renderer.Render(ctx, pageURL)
		if renderErr != nil {
			return ResultsPage{}, fmt.Errorf("render results page %s: %w", pageURL, renderErr)
		}
		body = rendered
	}

	page, err := parsePage(w.base, pageURL, body)
	if err != nil {
		return ResultsPage{}, err
	}

	metrics.PagesWalked.Inc()
	w.logger.Debug("walked results page",
		zap.String("url", pageURL),
		zap.Int("links", len(page.Links)),
	)
	w.cursor = page.Next
	return page, nil
}
