// Package pipeline connects the pagination walker to the article stream via
// a bounded queue of in-flight fetches, one producer and one consumer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/fetch"
)

// ErrQueueClosed is returned by queue operations after Close.
var ErrQueueClosed = errors.New("fetch queue closed")

// Queue is the bounded hand-off of in-flight fetch handles between the
// dispatcher and the drainer. Enqueue blocks while the queue holds its full
// capacity of undrained handles; that backpressure is what keeps the walker
// from racing arbitrarily far ahead of the consumer.
type Queue struct {
	ch      chan *fetch.Handle
	closeMu sync.Mutex
	closed  bool
}

// NewQueue constructs a queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 50
	}
	return &Queue{
		ch: make(chan *fetch.Handle, capacity),
	}
}

// Enqueue pushes a handle, blocking while the queue is full.
func (q *Queue) Enqueue(ctx context.Context, h *fetch.Handle) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- h:
		return nil
	}
}

// Dequeue pops the next handle, blocking while the queue is empty. It
// returns ErrQueueClosed once the queue is closed and drained.
func (q *Queue) Dequeue(ctx context.Context) (*fetch.Handle, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case h, ok := <-q.ch:
		if !ok {
			return nil, ErrQueueClosed
		}
		return h, nil
	}
}

// TryDequeue pops a handle without blocking. It returns (nil, nil) when the
// queue is momentarily empty and ErrQueueClosed once closed and drained.
func (q *Queue) TryDequeue() (*fetch.Handle, error) {
	select {
	case h, ok := <-q.ch:
		if !ok {
			return nil, ErrQueueClosed
		}
		return h, nil
	default:
		return nil, nil
	}
}

// Close closes the queue for shutdown. Handles already enqueued remain
// drainable.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
