package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPublisherRecordsMessages(t *testing.T) {
	t.Parallel()

	p := New()
	id, err := p.Publish(context.Background(), "articles", "payload-1")
	require.NoError(t, err)
	require.Equal(t, "memory-1", id)

	_, err = p.Publish(context.Background(), "articles", "payload-2")
	require.NoError(t, err)

	messages := p.Messages()
	require.Len(t, messages, 2)
	require.Equal(t, "articles", messages[0].Topic)
	require.Equal(t, "payload-1", messages[0].Payload)
}
