package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
	"github.com/voxa-labs/voxa-core/internal/core/ports/driven"
	"github.com/voxa-labs/voxa-core/internal/core/ports/driven/mocks"
	"github.com/voxa-labs/voxa-core/internal/runtime"
)

type retrievalFixture struct {
	retrieval *Retrieval
	index     *mocks.MockVectorIndex
	embedder  *mocks.MockEmbeddingService
	services  *runtime.Services
	augmenter *mocks.MockAugmenter
}

func newRetrievalFixture(t *testing.T) *retrievalFixture {
	t.Helper()

	f := &retrievalFixture{
		index:     mocks.NewMockVectorIndex(32),
		embedder:  mocks.NewMockEmbeddingService(),
		services:  runtime.NewServices(domain.NewRuntimeConfig("memory", "memory", "en")),
		augmenter: mocks.NewMockAugmenter(),
	}
	f.retrieval = NewRetrieval(RetrievalConfig{
		Index:    f.index,
		Embedder: f.embedder,
		Services: f.services,
	})
	return f
}

// seed inserts a document whose first chunk embeds the given text.
func (f *retrievalFixture) seed(t *testing.T, docID string, texts ...string) {
	t.Helper()
	ctx := context.Background()

	chunks := make([]driven.VectorChunk, len(texts))
	for i, text := range texts {
		embedding, err := f.embedder.EmbedQuery(ctx, text)
		if err != nil {
			t.Fatalf("embed: %v", err)
		}
		chunks[i] = driven.VectorChunk{ChunkIndex: i, Text: text, Embedding: embedding}
	}
	if err := f.index.Upsert(ctx, docID, chunks); err != nil {
		t.Fatalf("upsert: %v", err)
	}
}

func TestRetrieve_RanksExactMatchFirst(t *testing.T) {
	f := newRetrievalFixture(t)
	f.seed(t, "doc-1", "the sky is blue", "compilers parse source code")

	chunks, err := f.retrieval.Retrieve(context.Background(), "the sky is blue", 2)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Text != "the sky is blue" {
		t.Errorf("expected exact match first, got %q", chunks[0].Text)
	}
	if chunks[0].Score < chunks[1].Score {
		t.Error("expected descending scores")
	}
}

func TestRetrieve_EmptyQueryRejected(t *testing.T) {
	f := newRetrievalFixture(t)

	_, err := f.retrieval.Retrieve(context.Background(), "   ", 5)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAnswer_NoEvidence(t *testing.T) {
	f := newRetrievalFixture(t)

	answer, err := f.retrieval.Answer(context.Background(), "anything at all", 5)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer.Text != domain.NoRelevantContent {
		t.Errorf("expected the no-content answer, got %q", answer.Text)
	}
	if answer.Augmented {
		t.Error("no-content answer is never augmented")
	}
}

func TestAnswer_AugmentedWhenAvailable(t *testing.T) {
	f := newRetrievalFixture(t)
	f.seed(t, "doc-1", "the sky is blue")
	_ = f.services.ValidateAndSetAugmenter(context.Background(), f.augmenter)

	answer, err := f.retrieval.Answer(context.Background(), "the sky is blue", 3)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !answer.Augmented {
		t.Error("expected augmented answer")
	}
	if f.augmenter.Calls != 1 {
		t.Errorf("expected one augmenter call, got %d", f.augmenter.Calls)
	}
	if len(answer.Chunks) == 0 {
		t.Error("expected evidence attached")
	}
}

func TestAnswer_AugmentationFailureFallsBack(t *testing.T) {
	f := newRetrievalFixture(t)
	f.seed(t, "doc-1", "the sky is blue")
	_ = f.services.ValidateAndSetAugmenter(context.Background(), f.augmenter)
	f.augmenter.SetFailNext(true)

	answer, err := f.retrieval.Answer(context.Background(), "the sky is blue", 3)
	if err != nil {
		t.Fatalf("augmentation failure must not fail the answer: %v", err)
	}
	if answer.Augmented {
		t.Error("expected degraded answer")
	}
	if !strings.Contains(answer.Text, "the sky is blue") {
		t.Errorf("fallback summary should carry the evidence, got %q", answer.Text)
	}
}

func TestAnswer_NoAugmenterInstalled(t *testing.T) {
	f := newRetrievalFixture(t)
	f.seed(t, "doc-1", "the sky is blue")

	answer, err := f.retrieval.Answer(context.Background(), "the sky is blue", 3)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer.Augmented {
		t.Error("expected summary answer with no augmenter installed")
	}
	if answer.Text == "" {
		t.Error("expected non-empty summary")
	}
}

func TestSummarize_Truncates(t *testing.T) {
	long := strings.Repeat("evidence sentence ", 100)
	got := summarize([]string{long})

	if len(got) > fallbackSummaryLimit+3 {
		t.Errorf("summary too long: %d", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("expected ellipsis on truncated summary")
	}
}
