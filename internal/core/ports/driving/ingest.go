package driving

import (
	"context"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
)

// IngestService is the outward surface for document indexing. All
// operations are fire-and-forget: they enqueue background work and
// callers observe completion through the document status.
type IngestService interface {
	// Ingest registers a document and enqueues extraction + indexing.
	Ingest(ctx context.Context, doc *domain.Document) error

	// Reindex re-runs the indexing protocol for one document.
	Reindex(ctx context.Context, documentID string) error

	// ReindexAll rebuilds vectors for every non-deleted document.
	ReindexAll(ctx context.Context) error

	// Delete marks a document deleted and enqueues vector removal.
	Delete(ctx context.Context, documentID string) error

	// Status returns the current lifecycle status of a document.
	Status(ctx context.Context, documentID string) (domain.DocumentStatus, error)
}
