package fetch

import (
	"context"
	"fmt"

	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/feed"
)

// Handle represents one in-flight fetch. It is created by Client.Get and
// resolves exactly once, to either a response or a transport error.
type Handle struct {
	url  string
	done chan struct{}
	resp feed.Response
	err  error
}

// URL returns the originally requested URL.
func (h *Handle) URL() string {
	return h.url
}

// Done is closed when the fetch has resolved.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result returns the outcome. It must only be called after Done is closed.
func (h *Handle) Result() (feed.Response, error) {
	return h.resp, h.err
}

// Wait blocks until the fetch resolves or the context ends.
func (h *Handle) Wait(ctx context.Context) (feed.Response, error) {
	select {
	case <-h.done:
		return h.resp, h.err
	case <-ctx.Done():
		return feed.Response{}, fmt.Errorf("fetch wait canceled: %w", ctx.Err())
	}
}
