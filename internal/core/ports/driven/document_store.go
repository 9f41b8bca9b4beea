package driven

import (
	"context"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
)

// DocumentStore persists document records and their lifecycle status.
// The relational backend itself lives outside this subsystem; the core
// only depends on this interface.
type DocumentStore interface {
	// Save creates or updates a document
	Save(ctx context.Context, doc *domain.Document) error

	// Get retrieves a document by ID, domain.ErrNotFound if absent
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List retrieves all documents
	List(ctx context.Context) ([]*domain.Document, error)

	// ListByStatus retrieves documents with the given status
	ListByStatus(ctx context.Context, status domain.DocumentStatus) ([]*domain.Document, error)

	// SetStatus updates only the lifecycle status (and failure message)
	SetStatus(ctx context.Context, id string, status domain.DocumentStatus, errMsg string) error

	// SetText updates the extracted text of a document
	SetText(ctx context.Context, id string, text string) error
}
