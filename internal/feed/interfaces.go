package feed

import (
	"context"
	"time"
)

// ArticleStore persists emitted article records.
type ArticleStore interface {
	StoreArticle(ctx context.Context, article Article) error
}

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes emitted articles to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes digests for blob naming and integrity.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces transient fetch IDs.
type IDGenerator interface {
	NewID() (string, error)
}
