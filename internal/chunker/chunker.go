// Package chunker splits document text into overlapping passages.
package chunker

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 200

// Chunker splits text into fixed-size chunks with a configured overlap so
// context is preserved across chunk boundaries. Chunk ordinals and spans
// are deterministic for a fixed (text, size, overlap).
type Chunker struct {
	size    int
	overlap int
}

// New creates a chunker. size must be positive and strictly greater than
// overlap; anything else is a configuration error.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("overlap must not be negative, got %d", overlap)
	}
	if size <= overlap {
		return nil, errors.New("chunk size must be greater than overlap")
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the configured chunk size.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split produces the ordered chunk sequence for a document's text.
// Empty text yields no chunks; text shorter than one chunk yields a
// single chunk equal to the whole text. Size and overlap count runes,
// so a multi-byte character is never cut in half; StartChar and EndChar
// are byte offsets into the original text.
func (c *Chunker) Split(documentID, text string) []domain.Chunk {
	if text == "" {
		return nil
	}

	// Byte offset of every rune, so chunk windows advance by runes
	// while spans stay addressable in the original string.
	starts := make([]int, 0, len(text))
	for i := range text {
		starts = append(starts, i)
	}
	total := len(starts)

	step := c.size - c.overlap
	chunks := make([]domain.Chunk, 0, total/step+1)

	for start := 0; start < total; start += step {
		end := start + c.size
		if end > total {
			end = total
		}

		byteStart := starts[start]
		byteEnd := len(text)
		if end < total {
			byteEnd = starts[end]
		}

		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: documentID,
			Index:      len(chunks),
			Text:       text[byteStart:byteEnd],
			StartChar:  byteStart,
			EndChar:    byteEnd,
		})

		if end == total {
			break
		}
	}

	return chunks
}
