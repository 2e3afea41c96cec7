package search

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// FetcherConfig controls the results-page fetcher.
type FetcherConfig struct {
	UserAgent string
	Timeout   time.Duration
}

// PageFetcher retrieves results pages via a Colly collector. Pages are
// fetched synchronously, one cursor at a time; only link fetches downstream
// run concurrently.
type PageFetcher struct {
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// NewPageFetcher constructs a configured Colly-based results-page fetcher.
func NewPageFetcher(cfg FetcherConfig, logger *zap.Logger) *PageFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	base := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
	)
	base.AllowURLRevisit = true
	base.IgnoreRobotsTxt = true
	base.WithTransport(&http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          8,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ForceAttemptHTTP2:     true,
	})
	base.SetRequestTimeout(cfg.Timeout)

	return &PageFetcher{
		baseCollector: base,
		logger:        logger,
	}
}

// FetchHTML retrieves one results page and returns its raw body. Any failure
// to fetch a results page is fatal to the walk and propagates to the caller.
func (f *PageFetcher) FetchHTML(ctx context.Context, url string) ([]byte, error) {
	collector := f.baseCollector.Clone()
	resultCh := make(chan pageResult, 1)
	var once sync.Once
	send := func(res pageResult) {
		once.Do(func() {
			resultCh <- res
		})
	}

	collector.OnResponse(func(r *colly.Response) {
		send(pageResult{body: append([]byte{}, r.Body...)})
	})
	collector.OnError(func(_ *colly.Response, err error) {
		if err == nil {
			err = errors.New("unknown colly error")
		}
		send(pageResult{err: err})
	})

	if err := collector.Visit(url); err != nil {
		return nil, err
	}
	collector.Wait()

	select {
	case res := <-resultCh:
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return res.body, res.err
	default:
		return nil, errors.New("results page fetch produced no result")
	}
}

type pageResult struct {
	body []byte
	err  error
}
