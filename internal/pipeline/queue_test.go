package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cosmicexplorer/SARS-CoV-2-coverage/internal/fetch"
)

// newTestHandles spins up a throwaway server and submits n fetches against
// it, returning the in-flight handles.
func newTestHandles(t *testing.T, n int) []*fetch.Handle {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	t.Cleanup(server.Close)

	client := fetch.NewClient(fetch.Config{Workers: n}, zap.NewNop())
	handles := make([]*fetch.Handle, n)
	for i := range handles {
		handles[i] = client.Get(context.Background(), server.URL)
	}
	return handles
}

func TestQueueEnqueueBlocksAtCapacity(t *testing.T) {
	t.Parallel()

	handles := newTestHandles(t, 3)
	q := NewQueue(2)
	require.NoError(t, q.Enqueue(context.Background(), handles[0]))
	require.NoError(t, q.Enqueue(context.Background(), handles[1]))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, handles[2])
	require.Error(t, err)
	require.Contains(t, err.Error(), "enqueue canceled")
}

func TestQueueDequeueBlocksUntilEnqueue(t *testing.T) {
	t.Parallel()

	handles := newTestHandles(t, 1)
	q := NewQueue(1)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = q.Enqueue(context.Background(), handles[0])
	}()

	h, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	require.Same(t, handles[0], h)
}

func TestQueueDequeueHonorsContext(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := q.Dequeue(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "dequeue canceled")
}

func TestQueueTryDequeueEmpty(t *testing.T) {
	t.Parallel()

	q := NewQueue(1)
	h, err := q.TryDequeue()
	require.NoError(t, err)
	require.Nil(t, h)
}

func TestQueueCloseDrainsRemainingHandles(t *testing.T) {
	t.Parallel()

	handles := newTestHandles(t, 2)
	q := NewQueue(4)
	require.NoError(t, q.Enqueue(context.Background(), handles[0]))
	require.NoError(t, q.Enqueue(context.Background(), handles[1]))

	q.Close()
	q.Close() // idempotent

	for i := range handles {
		h, err := q.Dequeue(context.Background())
		require.NoError(t, err)
		require.Same(t, handles[i], h)
	}

	_, err := q.Dequeue(context.Background())
	require.ErrorIs(t, err, ErrQueueClosed)
	_, err = q.TryDequeue()
	require.ErrorIs(t, err, ErrQueueClosed)
}
