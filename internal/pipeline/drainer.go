package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/feed"
	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/fetch"
	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/metrics"
)

// Assembler builds a validated article record from a response, or rejects it.
type Assembler interface {
	Assemble(resp feed.Response) (feed.Article, bool, error)
}

// Sinks are the optional write-only destinations an accepted article flows
// to before being yielded. Sink failures are logged, never fatal.
type Sinks struct {
	Store         feed.ArticleStore
	Publisher     feed.Publisher
	Topic         string
	Archive       feed.BlobStore
	ArchivePrefix string
	Hasher        feed.Hasher
}

// Drainer is the consumer side of the pipeline. Each round it drains every
// handle the queue holds without blocking, falling back to a single blocking
// pop when none were available, then consumes that batch in completion
// order.
type Drainer struct {
	queue          *Queue
	assembler      Assembler
	platformDomain string
	sinks          Sinks
	logger         *zap.Logger
}

// NewDrainer constructs a Drainer.
func NewDrainer(queue *Queue, assembler Assembler, platformDomain string, sinks Sinks, logger *zap.Logger) *Drainer {
	return &Drainer{
		queue:          queue,
		assembler:      assembler,
		platformDomain: platformDomain,
		sinks:          sinks,
		logger:         logger,
	}
}

// nextBatch gathers the current batch of handles: everything available
// without blocking, or exactly one blocking pop if the drain yielded
// nothing. It never busy-spins. ErrQueueClosed means the producer is done
// and everything has been drained.
func (d *Drainer) nextBatch(ctx context.Context) ([]*fetch.Handle, error) {
	var batch []*fetch.Handle
	for {
		h, err := d.queue.TryDequeue()
		if err != nil {
			if errors.Is(err, ErrQueueClosed) && len(batch) > 0 {
				return batch, nil
			}
			return nil, err
		}
		if h == nil {
			break
		}
		batch = append(batch, h)
	}
	if len(batch) > 0 {
		return batch, nil
	}

	h, err := d.queue.Dequeue(ctx)
	if err != nil {
		return nil, err
	}
	return []*fetch.Handle{h}, nil
}

// processBatch waits on the whole batch with first-ready ordering and
// filters each outcome as it completes: certificate failures and platform
// self-redirects are discarded silently, everything else goes to assembly.
// Articles are returned in completion order, which may differ from
// submission order.
func (d *Drainer) processBatch(ctx context.Context, batch []*fetch.Handle) ([]feed.Article, error) {
	completed := make(chan *fetch.Handle, len(batch))
	for _, h := range batch {
		go func(h *fetch.Handle) {
			<-h.Done()
			completed <- h
		}(h)
	}

	var accepted []feed.Article
	for range batch {
		var h *fetch.Handle
		select {
		case h = <-completed:
		case <-ctx.Done():
			return accepted, fmt.Errorf("batch wait canceled: %w", ctx.Err())
		}

		resp, err := h.Result()
		if err != nil {
			if fetch.IsCertificateError(err) {
				metrics.CertificateSkips.Inc()
				d.logger.Debug("skipping fetch with certificate failure",
					zap.String("url", h.URL()),
					zap.Error(err),
				)
				continue
			}
			return accepted, fmt.Errorf("fetch %s: %w", h.URL(), err)
		}

		if d.isSelfRedirect(resp.FinalURL) {
			metrics.SelfRedirectSkips.Inc()
			d.logger.Debug("skipping platform self-redirect",
				zap.String("url", h.URL()),
				zap.String("final_url", resp.FinalURL),
			)
			continue
		}

		article, ok, err := d.assembler.Assemble(resp)
		if err != nil {
			return accepted, fmt.Errorf("assemble %s: %w", resp.FinalURL, err)
		}
		if !ok {
			metrics.ArticlesRejected.Inc()
			continue
		}

		d.runSinks(ctx, resp, &article)
		metrics.ArticlesEmitted.Inc()
		accepted = append(accepted, article)
	}
	return accepted, nil
}

// isSelfRedirect reports whether the final URL, after redirects, still
// resolves to the originating platform's own domain.
func (d *Drainer) isSelfRedirect(finalURL string) bool {
	if d.platformDomain == "" {
		return false
	}
	u, err := url.Parse(finalURL)
	if err != nil {
		return false
	}
	host := u.Host
	return host == d.platformDomain || strings.HasSuffix(host, "."+d.platformDomain)
}

func (d *Drainer) runSinks(ctx context.Context, resp feed.Response, article *feed.Article) {
	if d.sinks.Archive != nil && d.sinks.Hasher != nil {
		hash, err := d.sinks.Hasher.Hash(resp.Body)
		if err != nil {
			d.logger.Warn("hash article body", zap.String("url", article.URL), zap.Error(err))
		} else {
			path := fmt.Sprintf("%s/%s.html", strings.Trim(d.sinks.ArchivePrefix, "/"), hash)
			uri, err := d.sinks.Archive.PutObject(ctx, path, "text/html; charset=utf-8", resp.Body)
			if err != nil {
				d.logger.Warn("archive article body", zap.String("url", article.URL), zap.Error(err))
			} else {
				article.BlobURI = uri
			}
		}
	}
	if d.sinks.Store != nil {
		if err := d.sinks.Store.StoreArticle(ctx, *article); err != nil {
			d.logger.Warn("store article", zap.String("url", article.URL), zap.Error(err))
		}
	}
	if d.sinks.Publisher != nil && d.sinks.Topic != "" {
		if _, err := d.sinks.Publisher.Publish(ctx, d.sinks.Topic, *article); err != nil {
			d.logger.Warn("publish article", zap.String("url", article.URL), zap.Error(err))
		}
	}
}
