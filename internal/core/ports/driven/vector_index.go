package driven

import "context"

// VectorChunk is one chunk's vector plus the metadata needed to trace a
// hit back to (document id, chunk index).
type VectorChunk struct {
	ChunkIndex int
	Text       string
	Embedding  []float32
}

// VectorHit is one ranked query result from the index.
type VectorHit struct {
	DocumentID string
	ChunkIndex int
	Text       string
	Score      float64
}

// VectorIndex is the ANN index shared by the indexing and retrieval paths.
// It is the single shared mutable resource of the pipeline: mutations are
// serialized by the implementation, and queries always observe the last
// fully-committed state, never a partially applied upsert.
type VectorIndex interface {
	// Upsert atomically replaces ALL entries for documentID with the new
	// set. Observers see either the old complete set or the new complete
	// set, never a mix.
	Upsert(ctx context.Context, documentID string, chunks []VectorChunk) error

	// Delete removes all entries for a document. Idempotent: deleting an
	// absent document is a no-op.
	Delete(ctx context.Context, documentID string) error

	// Query returns up to topK live entries ranked by similarity,
	// highest first. Ties break by lowest document id, then lowest
	// chunk index.
	Query(ctx context.Context, embedding []float32, topK int) ([]VectorHit, error)

	// Live returns the number of live (non-superseded) entries.
	Live() int

	// Dimensions returns the vector dimension the index was built with.
	Dimensions() int

	// Embedder returns the embedding model the index was built with.
	// Retrieval uses this to detect a provider mismatch.
	Embedder() string

	// Persist writes a snapshot so the index survives a restart.
	Persist() error

	// Close releases resources, persisting first where applicable.
	Close() error
}
