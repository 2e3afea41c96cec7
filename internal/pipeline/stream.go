package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/feed"
	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/fetch"
	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/search"
)

// Config controls the pipeline.
type Config struct {
	// QueueCapacity bounds the number of concurrently in-flight link
	// fetches.
	QueueCapacity int
	// PlatformDomain is the originating platform's domain; responses whose
	// final URL still resolves to it are discarded as self-redirects.
	PlatformDomain string
}

// Stream is the article sequence delivered to the caller. The dispatcher
// runs as a dedicated producer goroutine; Next pulls from the consumer side
// and blocks until an article is available or the walk fails. The stream is
// not restartable and has no natural end: it terminates only by error.
type Stream struct {
	queue      *Queue
	dispatcher *Dispatcher
	drainer    *Drainer
	logger     *zap.Logger

	pending []feed.Article
	fatal   error

	walkMu  sync.Mutex
	walkErr error
	started bool
}

// NewStream wires the walker, fetch client, and assembler into a stream.
func NewStream(
	walker *search.Walker,
	client *fetch.Client,
	assembler Assembler,
	cfg Config,
	sinks Sinks,
	logger *zap.Logger,
) *Stream {
	queue := NewQueue(cfg.QueueCapacity)
	return &Stream{
		queue:      queue,
		dispatcher: NewDispatcher(walker, client, queue, logger),
		drainer:    NewDrainer(queue, assembler, cfg.PlatformDomain, sinks, logger),
		logger:     logger,
	}
}

// Start launches the producer goroutine. It must be called exactly once,
// before the first Next.
func (s *Stream) Start(ctx context.Context) {
	if s.started {
		return
	}
	s.started = true
	go func() {
		err := s.dispatcher.Run(ctx)
		s.walkMu.Lock()
		s.walkErr = err
		s.walkMu.Unlock()
		s.logger.Debug("walk ended", zap.Error(err))
		// Closing the queue lets the drainer finish whatever is already
		// in flight before it observes the failure.
		s.queue.Close()
	}()
}

// Next blocks until the next validated article is available and returns it.
// Articles within a drained batch arrive in completion order, not submission
// order. Once the walk has failed, Next drains any remaining completed
// fetches and then returns the propagated failure.
func (s *Stream) Next(ctx context.Context) (feed.Article, error) {
	for {
		if len(s.pending) > 0 {
			article := s.pending[0]
			s.pending = s.pending[1:]
			return article, nil
		}
		if s.fatal != nil {
			return feed.Article{}, s.fatal
		}

		batch, err := s.drainer.nextBatch(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) {
				return feed.Article{}, s.terminalError(ctx)
			}
			return feed.Article{}, err
		}

		accepted, err := s.drainer.processBatch(ctx, batch)
		s.pending = accepted
		if err != nil {
			// Yield what the batch produced before surfacing the failure.
			s.fatal = err
		}
	}
}

// terminalError reports why the producer stopped.
func (s *Stream) terminalError(ctx context.Context) error {
	s.walkMu.Lock()
	defer s.walkMu.Unlock()
	if s.walkErr != nil {
		return s.walkErr
	}
	if ctx.Err() != nil {
		return fmt.Errorf("walk canceled: %w", ctx.Err())
	}
	return errors.New("walk terminated")
}
