package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
	"github.com/voxa-labs/voxa-core/internal/core/ports/driven"
	"github.com/voxa-labs/voxa-core/internal/core/ports/driving"
	"github.com/voxa-labs/voxa-core/internal/runtime"
)

// Ensure Retrieval implements RetrievalService
var _ driving.RetrievalService = (*Retrieval)(nil)

const (
	// DefaultTopK is the evidence set size when the caller does not ask
	// for a specific one.
	DefaultTopK = 5

	// defaultRetrieveTimeout bounds the embed-and-scan path.
	defaultRetrieveTimeout = 10 * time.Second

	// defaultAugmentTimeout bounds the language-model call. Augmentation
	// is optional; on expiry the deterministic fallback answers instead.
	defaultAugmentTimeout = 20 * time.Second

	// fallbackSummaryLimit caps the length of the degraded summary.
	fallbackSummaryLimit = 600
)

// Retrieval answers queries from the vector index. Augmentation runs only
// when the provider is installed and healthy; every failure on that path
// degrades to a summary built from the evidence itself.
type Retrieval struct {
	index    driven.VectorIndex
	embedder driven.EmbeddingService
	services *runtime.Services
	logger   *slog.Logger

	retrieveTimeout time.Duration
	augmentTimeout  time.Duration
}

// RetrievalConfig holds dependencies for Retrieval.
type RetrievalConfig struct {
	Index    driven.VectorIndex
	Embedder driven.EmbeddingService
	Services *runtime.Services
	Logger   *slog.Logger

	RetrieveTimeout time.Duration
	AugmentTimeout  time.Duration
}

// NewRetrieval creates the retrieval service.
func NewRetrieval(cfg RetrievalConfig) *Retrieval {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	retrieveTimeout := cfg.RetrieveTimeout
	if retrieveTimeout <= 0 {
		retrieveTimeout = defaultRetrieveTimeout
	}
	augmentTimeout := cfg.AugmentTimeout
	if augmentTimeout <= 0 {
		augmentTimeout = defaultAugmentTimeout
	}

	// The index snapshot records the embedder it was built with. A
	// mismatch means scores degrade until a reindex; serving continues.
	if indexModel := cfg.Index.Embedder(); indexModel != "" && indexModel != cfg.Embedder.Model() {
		logger.Warn("index was built with a different embedder, results degraded until reindex",
			"index_model", indexModel, "active_model", cfg.Embedder.Model())
	}

	return &Retrieval{
		index:           cfg.Index,
		embedder:        cfg.Embedder,
		services:        cfg.Services,
		logger:          logger,
		retrieveTimeout: retrieveTimeout,
		augmentTimeout:  augmentTimeout,
	}
}

// Retrieve returns the topK most similar chunks as evidence, verbatim.
func (r *Retrieval) Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievedChunk, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	ctx, cancel := context.WithTimeout(ctx, r.retrieveTimeout)
	defer cancel()

	embedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: embedding query", domain.ErrRetrievalTimeout)
		}
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.index.Query(ctx, embedding, topK)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: scanning index", domain.ErrRetrievalTimeout)
		}
		return nil, fmt.Errorf("query index: %w", err)
	}

	chunks := make([]domain.RetrievedChunk, len(hits))
	for i, hit := range hits {
		chunks[i] = domain.RetrievedChunk{
			DocumentID: hit.DocumentID,
			ChunkIndex: hit.ChunkIndex,
			Text:       hit.Text,
			Score:      hit.Score,
		}
	}
	return chunks, nil
}

// Answer retrieves evidence and produces an answer. Zero evidence gives
// the explicit no-content answer, never an error.
func (r *Retrieval) Answer(ctx context.Context, query string, topK int) (*domain.Answer, error) {
	chunks, err := r.Retrieve(ctx, query, topK)
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		return &domain.Answer{
			Text:      domain.NoRelevantContent,
			Augmented: false,
		}, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	if text, ok := r.augment(ctx, query, texts); ok {
		return &domain.Answer{
			Text:      text,
			Augmented: true,
			Chunks:    chunks,
		}, nil
	}

	return &domain.Answer{
		Text:      summarize(texts),
		Augmented: false,
		Chunks:    chunks,
	}, nil
}

// augment calls the language-model provider when installed. Any failure
// reports false and the caller falls back.
func (r *Retrieval) augment(ctx context.Context, query string, texts []string) (string, bool) {
	if r.services == nil || !r.services.Config().AugmentationAvailable() {
		return "", false
	}
	augmenter := r.services.Augmenter()
	if augmenter == nil {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, r.augmentTimeout)
	defer cancel()

	text, err := augmenter.Augment(ctx, query, texts)
	if err != nil {
		r.logger.Warn("augmentation failed, falling back to summary", "error", err)
		return "", false
	}
	return text, true
}

// summarize is the deterministic fallback: evidence concatenated in rank
// order and truncated.
func summarize(texts []string) string {
	joined := strings.Join(texts, " ")
	if len(joined) <= fallbackSummaryLimit {
		return joined
	}
	cut := fallbackSummaryLimit
	// Avoid splitting a word at the boundary.
	if i := strings.LastIndexByte(joined[:cut], ' '); i > 0 {
		cut = i
	}
	return joined[:cut] + "..."
}
