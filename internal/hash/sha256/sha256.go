// Package sha256 provides content digests for archive naming.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher implements feed.Hasher with SHA-256.
type Hasher struct{}

// New creates a Hasher.
func New() *Hasher {
	return &Hasher{}
}

// Hash returns the hex-encoded SHA-256 digest of data.
func (Hasher) Hash(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
