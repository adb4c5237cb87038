package blobstore

import (
	"context"
	"errors"
	"time"
)

// ObjectInfo describes one stored blob.
type ObjectInfo struct {
	Path      string
	Size      int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	// ErrObjectExists reports a put on a path that already holds a blob.
	// Puts never overwrite; callers surface this upward unchanged.
	ErrObjectExists = errors.New("object already exists")
	// ErrObjectNotExist reports an operation on a path with no blob.
	ErrObjectNotExist = errors.New("object does not exist")
)

// Store is the object-store contract: namespaced binary blobs, listings
// ordered by creation time descending, and signed URLs whose expiry the
// store itself enforces.
type Store interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	SignedURL(ctx context.Context, path string, ttl time.Duration) (string, error)
	Remove(ctx context.Context, path string) error
}
