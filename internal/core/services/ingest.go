package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
	"github.com/voxa-labs/voxa-core/internal/core/ports/driven"
	"github.com/voxa-labs/voxa-core/internal/core/ports/driving"
)

// Ensure Ingest implements IngestService
var _ driving.IngestService = (*Ingest)(nil)

// Ingest is the driving surface for document indexing. It only registers
// documents and enqueues tasks; the worker does the actual processing and
// callers poll Status to observe completion.
type Ingest struct {
	docStore driven.DocumentStore
	queue    driven.TaskQueue
	logger   *slog.Logger
}

// NewIngest creates the ingest service.
func NewIngest(docStore driven.DocumentStore, queue driven.TaskQueue, logger *slog.Logger) *Ingest {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingest{
		docStore: docStore,
		queue:    queue,
		logger:   logger,
	}
}

// Ingest registers a document and enqueues its indexing pass.
func (s *Ingest) Ingest(ctx context.Context, doc *domain.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is required", domain.ErrInvalidInput)
	}
	if doc.Text == "" && doc.SourceURI == "" {
		return fmt.Errorf("%w: document carries neither text nor a source file", domain.ErrInvalidInput)
	}

	if err := s.docStore.Save(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	if err := s.queue.Enqueue(ctx, domain.NewIndexDocumentTask(doc.ID)); err != nil {
		return fmt.Errorf("enqueue indexing: %w", err)
	}

	s.logger.Info("document ingested", "document_id", doc.ID, "title", doc.Title)
	return nil
}

// Reindex re-runs the indexing protocol for one document.
func (s *Ingest) Reindex(ctx context.Context, documentID string) error {
	doc, err := s.docStore.Get(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}
	if doc.IsDeleted() {
		return fmt.Errorf("%w: document %s is deleted", domain.ErrInvalidInput, documentID)
	}

	if err := s.queue.Enqueue(ctx, domain.NewIndexDocumentTask(documentID)); err != nil {
		return fmt.Errorf("enqueue reindex: %w", err)
	}

	s.logger.Info("reindex enqueued", "document_id", documentID)
	return nil
}

// ReindexAll enqueues a whole-corpus rebuild.
func (s *Ingest) ReindexAll(ctx context.Context) error {
	if err := s.queue.Enqueue(ctx, domain.NewReindexAllTask()); err != nil {
		return fmt.Errorf("enqueue reindex all: %w", err)
	}
	s.logger.Info("corpus reindex enqueued")
	return nil
}

// Delete marks the document deleted immediately so retrieval stops
// serving it, then enqueues the vector removal.
func (s *Ingest) Delete(ctx context.Context, documentID string) error {
	if err := s.docStore.SetStatus(ctx, documentID, domain.DocumentStatusDeleted, ""); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	if err := s.queue.Enqueue(ctx, domain.NewDeleteDocumentTask(documentID)); err != nil {
		return fmt.Errorf("enqueue delete: %w", err)
	}

	s.logger.Info("document delete enqueued", "document_id", documentID)
	return nil
}

// Status returns the current lifecycle status of a document.
func (s *Ingest) Status(ctx context.Context, documentID string) (domain.DocumentStatus, error) {
	doc, err := s.docStore.Get(ctx, documentID)
	if err != nil {
		return "", fmt.Errorf("get document: %w", err)
	}
	return doc.Status, nil
}
