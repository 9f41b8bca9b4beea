package driven

import "context"

// BlobStore persists raw payloads (uploaded files, audio recordings).
// URIs are opaque to the core; implementations may be local disk or
// object storage.
type BlobStore interface {
	// Get retrieves the bytes stored under a URI.
	Get(ctx context.Context, uri string) ([]byte, error)

	// Put stores data under a key and returns the URI to retrieve it.
	Put(ctx context.Context, key string, data []byte) (string, error)
}
