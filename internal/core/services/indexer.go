// Package services contains the core orchestrators: background indexing,
// retrieval, the realtime session pipeline, and the ingest surface.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/voxa-labs/voxa-core/internal/chunker"
	"github.com/voxa-labs/voxa-core/internal/core/domain"
	"github.com/voxa-labs/voxa-core/internal/core/ports/driven"
)

const (
	// indexLockTTL bounds one indexing pass. It comfortably exceeds the
	// embed timeout, so the lock outlives the slowest provider call and
	// still expires if the holder crashes.
	indexLockTTL = 5 * time.Minute

	// indexLockPoll is the retry interval while queueing behind a
	// running pass for the same document.
	indexLockPoll = 250 * time.Millisecond

	// defaultEmbedTimeout bounds one batch embedding call.
	defaultEmbedTimeout = 60 * time.Second
)

// IndexOrchestrator runs the per-document indexing protocol: extract,
// chunk, embed, then an atomic vector swap. A per-document distributed
// lock serializes passes for the same document; a second request queues
// behind the running pass instead of failing.
type IndexOrchestrator struct {
	docStore  driven.DocumentStore
	index     driven.VectorIndex
	embedder  driven.EmbeddingService
	extractor driven.Extractor
	chunker   *chunker.Chunker
	lock      driven.DistributedLock
	logger    *slog.Logger

	embedTimeout time.Duration
}

// IndexOrchestratorConfig holds dependencies for IndexOrchestrator.
type IndexOrchestratorConfig struct {
	DocStore  driven.DocumentStore
	Index     driven.VectorIndex
	Embedder  driven.EmbeddingService
	Extractor driven.Extractor
	Chunker   *chunker.Chunker
	Lock      driven.DistributedLock
	Logger    *slog.Logger

	// EmbedTimeout bounds embedding calls; zero means the default.
	EmbedTimeout time.Duration
}

// NewIndexOrchestrator creates a new indexing orchestrator.
func NewIndexOrchestrator(cfg IndexOrchestratorConfig) *IndexOrchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	embedTimeout := cfg.EmbedTimeout
	if embedTimeout <= 0 {
		embedTimeout = defaultEmbedTimeout
	}

	return &IndexOrchestrator{
		docStore:     cfg.DocStore,
		index:        cfg.Index,
		embedder:     cfg.Embedder,
		extractor:    cfg.Extractor,
		chunker:      cfg.Chunker,
		lock:         cfg.Lock,
		logger:       logger,
		embedTimeout: embedTimeout,
	}
}

// IndexDocument runs one full indexing pass for a document. Queries keep
// serving the document's previous vectors until the final swap.
func (o *IndexOrchestrator) IndexDocument(ctx context.Context, documentID string) error {
	lockName := "index:doc:" + documentID
	if err := o.acquireLock(ctx, lockName); err != nil {
		return err
	}
	defer func() {
		_ = o.lock.Release(context.WithoutCancel(ctx), lockName)
	}()

	doc, err := o.docStore.Get(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}
	if doc.IsDeleted() {
		o.logger.Info("skipping deleted document", "document_id", documentID)
		return nil
	}

	o.logger.Info("indexing document", "document_id", documentID, "title", doc.Title)

	text := doc.Text
	if text == "" && doc.SourceURI != "" {
		text, err = o.extractText(ctx, doc)
		if err != nil {
			return err
		}
	}

	chunks := o.chunker.Split(documentID, text)
	if len(chunks) == 0 {
		// Nothing to index; clear any stale vectors from a prior pass.
		if err := o.index.Delete(ctx, documentID); err != nil {
			return o.fail(ctx, documentID, fmt.Errorf("clear vectors: %w", err))
		}
		if err := o.index.Persist(); err != nil {
			o.logger.Warn("persist after clear failed", "document_id", documentID, "error", err)
		}
		if err := o.docStore.SetStatus(ctx, documentID, domain.DocumentStatusIndexed, ""); err != nil {
			return fmt.Errorf("set status: %w", err)
		}
		o.logger.Info("document indexed empty", "document_id", documentID)
		return nil
	}

	if err := o.docStore.SetStatus(ctx, documentID, domain.DocumentStatusIndexing, ""); err != nil {
		return fmt.Errorf("set status: %w", err)
	}

	vectors, err := o.embedChunks(ctx, chunks)
	if err != nil {
		return o.fail(ctx, documentID, err)
	}

	// The document may have been deleted while embedding was running.
	// Its vectors must not reappear, so re-check before the swap.
	current, err := o.docStore.Get(ctx, documentID)
	if err != nil {
		return fmt.Errorf("re-check document: %w", err)
	}
	if current.IsDeleted() {
		o.logger.Info("document deleted mid-pass, discarding vectors", "document_id", documentID)
		if err := o.index.Delete(ctx, documentID); err != nil {
			return fmt.Errorf("clear vectors: %w", err)
		}
		return nil
	}

	if err := o.index.Upsert(ctx, documentID, vectors); err != nil {
		return o.fail(ctx, documentID, fmt.Errorf("upsert vectors: %w", err))
	}
	if err := o.index.Persist(); err != nil {
		o.logger.Warn("persist failed", "document_id", documentID, "error", err)
	}

	if err := o.docStore.SetStatus(ctx, documentID, domain.DocumentStatusIndexed, ""); err != nil {
		return fmt.Errorf("set status: %w", err)
	}

	o.logger.Info("document indexed", "document_id", documentID, "chunks", len(chunks))
	return nil
}

// extractText pulls plain text out of the document's source file and
// persists it on the record.
func (o *IndexOrchestrator) extractText(ctx context.Context, doc *domain.Document) (string, error) {
	if err := o.docStore.SetStatus(ctx, doc.ID, domain.DocumentStatusExtracting, ""); err != nil {
		return "", fmt.Errorf("set status: %w", err)
	}

	text, err := o.extractor.Extract(ctx, doc.SourceURI, doc.MimeType)
	if err != nil {
		return "", o.fail(ctx, doc.ID, fmt.Errorf("extract: %w", err))
	}

	if err := o.docStore.SetText(ctx, doc.ID, text); err != nil {
		return "", fmt.Errorf("save text: %w", err)
	}
	if err := o.docStore.SetStatus(ctx, doc.ID, domain.DocumentStatusExtracted, ""); err != nil {
		return "", fmt.Errorf("set status: %w", err)
	}
	return text, nil
}

// embedChunks embeds all chunk texts in one bounded batch call.
func (o *IndexOrchestrator) embedChunks(ctx context.Context, chunks []domain.Chunk) ([]driven.VectorChunk, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embedCtx, cancel := context.WithTimeout(ctx, o.embedTimeout)
	defer cancel()

	embeddings, err := o.embedder.Embed(embedCtx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d chunks", domain.ErrEmbedding, len(embeddings), len(chunks))
	}

	vectors := make([]driven.VectorChunk, len(chunks))
	for i, chunk := range chunks {
		vectors[i] = driven.VectorChunk{
			ChunkIndex: chunk.Index,
			Text:       chunk.Text,
			Embedding:  embeddings[i],
		}
	}
	return vectors, nil
}

// DeleteDocument marks the document deleted and removes its vectors.
// Both steps are idempotent, so the reconcile sweep can re-run them.
func (o *IndexOrchestrator) DeleteDocument(ctx context.Context, documentID string) error {
	if err := o.docStore.SetStatus(ctx, documentID, domain.DocumentStatusDeleted, ""); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("set status: %w", err)
		}
	}

	if err := o.index.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	if err := o.index.Persist(); err != nil {
		o.logger.Warn("persist after delete failed", "document_id", documentID, "error", err)
	}

	o.logger.Info("document deleted", "document_id", documentID)
	return nil
}

// ReindexAll re-runs the indexing protocol for every non-deleted document.
// Each document keeps serving its old vectors until its own swap lands.
func (o *IndexOrchestrator) ReindexAll(ctx context.Context) error {
	docs, err := o.docStore.List(ctx)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}

	var failed int
	for _, doc := range docs {
		if !doc.Indexable() {
			continue
		}
		if err := o.IndexDocument(ctx, doc.ID); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			o.logger.Error("reindex failed", "document_id", doc.ID, "error", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("reindex completed with %d failed documents", failed)
	}
	o.logger.Info("reindex complete", "documents", len(docs))
	return nil
}

// ReconcileDeleted sweeps documents already marked deleted and re-runs
// vector removal, catching deletes that crashed between the status write
// and the index write.
func (o *IndexOrchestrator) ReconcileDeleted(ctx context.Context) error {
	docs, err := o.docStore.ListByStatus(ctx, domain.DocumentStatusDeleted)
	if err != nil {
		return fmt.Errorf("list deleted documents: %w", err)
	}
	if len(docs) == 0 {
		return nil
	}

	for _, doc := range docs {
		if err := o.index.Delete(ctx, doc.ID); err != nil {
			return fmt.Errorf("delete vectors for %s: %w", doc.ID, err)
		}
	}
	if err := o.index.Persist(); err != nil {
		o.logger.Warn("persist after reconcile failed", "error", err)
	}

	o.logger.Info("reconciled deleted documents", "count", len(docs))
	return nil
}

// fail records a failed pass on the document and returns the error.
func (o *IndexOrchestrator) fail(ctx context.Context, documentID string, err error) error {
	if setErr := o.docStore.SetStatus(context.WithoutCancel(ctx), documentID, domain.DocumentStatusFailed, err.Error()); setErr != nil {
		o.logger.Error("failed to record failure", "document_id", documentID, "error", setErr)
	}
	return err
}

// acquireLock blocks until the per-document lock is free or ctx ends.
func (o *IndexOrchestrator) acquireLock(ctx context.Context, name string) error {
	for {
		acquired, err := o.lock.Acquire(ctx, name, indexLockTTL)
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if acquired {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(indexLockPoll):
		}
	}
}
