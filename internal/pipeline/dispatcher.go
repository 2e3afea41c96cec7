package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/fetch"
	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/metrics"
	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/search"
)

// Dispatcher is the producer side of the pipeline. It walks results pages
// and, for every candidate link found, submits a fetch and pushes the
// in-flight handle onto the queue. Submission starts network I/O
// immediately; queueing only defers consumption of the result, so queue
// capacity bounds how many fetches are outstanding at once.
type Dispatcher struct {
	walker *search.Walker
	client *fetch.Client
	queue  *Queue
	logger *zap.Logger
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(walker *search.Walker, client *fetch.Client, queue *Queue, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		walker: walker,
		client: client,
		queue:  queue,
		logger: logger,
	}
}

// Run walks pages until the context ends or the walk fails. All of page N's
// links are submitted, in document order, before page N+1 is discovered.
// Every discovered link is submitted and enqueued exactly once; a full queue
// stalls this producer, never the consumer.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		page, err := d.walker.Next(ctx)
		if err != nil {
			return err
		}
		for _, raw := range page.Links {
			handle := d.client.Get(ctx, raw)
			metrics.LinksDispatched.Inc()
			if err := d.queue.Enqueue(ctx, handle); err != nil {
				return fmt.Errorf("enqueue fetch of %s: %w", raw, err)
			}
		}
		d.logger.Debug("dispatched page links",
			zap.String("page", page.URL),
			zap.Int("links", len(page.Links)),
		)
	}
}
