package ai

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/voxa-labs/voxa-core/internal/core/ports/driven"
)

// Ensure HashEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*HashEmbedding)(nil)

// DefaultHashDimensions is the vector size of the fallback embedder.
const DefaultHashDimensions = 256

// HashEmbedding is the degraded local embedder: it hashes tokens into a
// fixed-dimension bag-of-words vector. Retrieval quality is strictly
// worse than a trained model, but it is deterministic, dependency-free,
// and never fails, so the pipeline stays functional without a provider.
type HashEmbedding struct {
	dimensions int
}

// NewHashEmbedding creates a hashing embedder with the given dimension.
func NewHashEmbedding(dimensions int) *HashEmbedding {
	if dimensions <= 0 {
		dimensions = DefaultHashDimensions
	}
	return &HashEmbedding{dimensions: dimensions}
}

// Embed generates embeddings for multiple texts
func (e *HashEmbedding) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embed(text)
	}
	return out, nil
}

// EmbedQuery generates an embedding for a search query
func (e *HashEmbedding) EmbedQuery(_ context.Context, query string) ([]float32, error) {
	return e.embed(query), nil
}

// embed tokenizes the text and accumulates token counts into hashed
// buckets, then L2-normalizes. Pure: same text, same vector.
func (e *HashEmbedding) embed(text string) []float32 {
	vec := make([]float32, e.dimensions)

	for _, token := range tokenize(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		vec[h.Sum64()%uint64(e.dimensions)]++
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum > 0 {
		norm := float32(math.Sqrt(sum))
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Dimensions returns the embedding dimension size
func (e *HashEmbedding) Dimensions() int {
	return e.dimensions
}

// Model returns the model name being used
func (e *HashEmbedding) Model() string {
	return fmt.Sprintf("local-hash-%d", e.dimensions)
}

// HealthCheck always succeeds; the fallback has no external dependency.
func (e *HashEmbedding) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op.
func (e *HashEmbedding) Close() error {
	return nil
}
