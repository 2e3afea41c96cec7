// Package fetch issues asynchronous HTTP GETs bounded by a worker ceiling.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/feed"
)

// Config controls Client behavior.
type Config struct {
	Workers      int
	Timeout      time.Duration
	UserAgent    string
	MaxBodyBytes int64
}

const (
	defaultWorkers      = 10
	defaultTimeout      = 15 * time.Second
	defaultMaxBodyBytes = 5 * 1024 * 1024
)

// Client fires HTTP GETs as independent goroutines sharing a pooled
// transport. The worker ceiling bounds how many requests run at once; a
// submitted fetch whose slot is not yet free waits for one, it is never
// dropped. Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	slots      chan struct{}
	userAgent  string
	maxBody    int64
	logger     *zap.Logger
}

// NewClient constructs a Client with a tuned transport shared by all fetches.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          128,
		MaxIdleConnsPerHost:   32,
		MaxConnsPerHost:       cfg.Workers * 2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout,
		ForceAttemptHTTP2:     true,
	}
	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		slots:     make(chan struct{}, cfg.Workers),
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodyBytes,
		logger:    logger,
	}
}

// Get submits an asynchronous fetch for the URL. Network I/O begins as soon
// as a worker slot frees up, independent of when the handle is consumed.
func (c *Client) Get(ctx context.Context, url string) *Handle {
	h := &Handle{
		url:  url,
		done: make(chan struct{}),
	}
	go func() {
		defer close(h.done)
		h.resp, h.err = c.do(ctx, url)
	}()
	return h
}

func (c *Client) do(ctx context.Context, url string) (feed.Response, error) {
	select {
	case c.slots <- struct{}{}:
	case <-ctx.Done():
		return feed.Response{}, fmt.Errorf("fetch slot wait canceled: %w", ctx.Err())
	}
	defer func() { <-c.slots }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return feed.Response{}, fmt.Errorf("build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return feed.Response{}, fmt.Errorf("get %s: %w", url, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("close response body", zap.String("url", url), zap.Error(closeErr))
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return feed.Response{}, fmt.Errorf("read body of %s: %w", url, err)
	}

	return feed.Response{
		URL:        url,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
		Duration:   time.Since(start),
	}, nil
}
