// Package objstore abstracts the blob storage used as the client-icon
// thumbnail cache.
//
// Backends:
//   - Disk (local filesystem served by the host)
//   - S3 (any S3-compatible endpoint, via minio-go)
package objstore

import (
	"context"
	"time"
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Path    string
	ModTime time.Time
}

// Store is a content-addressed blob store. Paths are forward-slash
// separated and relative to the backend's root/bucket.
type Store interface {
	// List returns the objects whose path starts with prefix.
	// A missing prefix is not an error; it yields an empty list.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Put writes data at path, creating parent directories as needed
	// and replacing any previous object.
	Put(ctx context.Context, path string, data []byte, contentType string) error

	// Move renames an object. Moving onto an existing path replaces it.
	Move(ctx context.Context, from, to string) error

	// URL resolves a stored path to its public URL.
	URL(path string) string
}
