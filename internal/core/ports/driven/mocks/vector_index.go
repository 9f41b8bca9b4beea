package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
	"github.com/voxa-labs/voxa-core/internal/core/ports/driven"
)

// Ensure MockVectorIndex implements VectorIndex
var _ driven.VectorIndex = (*MockVectorIndex)(nil)

// MockVectorIndex is an in-memory VectorIndex for testing. It scores by
// dot product like the real index but keeps entries in a plain map.
type MockVectorIndex struct {
	mu         sync.Mutex
	docs       map[string][]driven.VectorChunk
	dimensions int
	embedder   string

	failNext     bool
	PersistCalls int
	UpsertCalls  int
	DeleteCalls  int
}

// NewMockVectorIndex creates a new MockVectorIndex
func NewMockVectorIndex(dimensions int) *MockVectorIndex {
	return &MockVectorIndex{
		docs:       make(map[string][]driven.VectorChunk),
		dimensions: dimensions,
		embedder:   "mock-embedding-model",
	}
}

func (m *MockVectorIndex) Upsert(_ context.Context, documentID string, chunks []driven.VectorChunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext {
		m.failNext = false
		return domain.ErrIndex
	}
	m.UpsertCalls++
	m.docs[documentID] = append([]driven.VectorChunk(nil), chunks...)
	return nil
}

func (m *MockVectorIndex) Delete(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls++
	delete(m.docs, documentID)
	return nil
}

func (m *MockVectorIndex) Query(_ context.Context, embedding []float32, topK int) ([]driven.VectorHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var hits []driven.VectorHit
	for docID, chunks := range m.docs {
		for _, chunk := range chunks {
			var score float32
			for i := range embedding {
				if i < len(chunk.Embedding) {
					score += embedding[i] * chunk.Embedding[i]
				}
			}
			hits = append(hits, driven.VectorHit{
				DocumentID: docID,
				ChunkIndex: chunk.ChunkIndex,
				Text:       chunk.Text,
				Score:      float64(score),
			})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].DocumentID != hits[j].DocumentID {
			return hits[i].DocumentID < hits[j].DocumentID
		}
		return hits[i].ChunkIndex < hits[j].ChunkIndex
	})
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

func (m *MockVectorIndex) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int
	for _, chunks := range m.docs {
		n += len(chunks)
	}
	return n
}

func (m *MockVectorIndex) Dimensions() int {
	return m.dimensions
}

func (m *MockVectorIndex) Embedder() string {
	return m.embedder
}

func (m *MockVectorIndex) Persist() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PersistCalls++
	return nil
}

func (m *MockVectorIndex) Close() error {
	return nil
}

// Helper methods for testing

func (m *MockVectorIndex) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

func (m *MockVectorIndex) SetEmbedder(model string) {
	m.embedder = model
}

// DocumentChunks returns the stored chunks for a document.
func (m *MockVectorIndex) DocumentChunks(documentID string) []driven.VectorChunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]driven.VectorChunk(nil), m.docs[documentID]...)
}
