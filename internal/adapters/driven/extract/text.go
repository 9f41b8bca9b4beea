// Package extract provides text extraction from stored raw files.
package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
	"github.com/voxa-labs/voxa-core/internal/core/ports/driven"
)

var _ driven.Extractor = (*TextExtractor)(nil)

// Mime types the plain-text extractor accepts. Parameters like charset
// are stripped before lookup.
var textMimeTypes = map[string]bool{
	"text/plain":       true,
	"text/markdown":    true,
	"text/csv":         true,
	"text/html":        true,
	"application/json": true,
}

// TextExtractor reads text-like files out of a blob store. Binary formats
// (PDF, office documents) are rejected with ErrUnsupportedFormat so the
// caller can surface a clear failure instead of indexing garbage.
type TextExtractor struct {
	blobs driven.BlobStore
}

func NewTextExtractor(blobs driven.BlobStore) *TextExtractor {
	return &TextExtractor{blobs: blobs}
}

// Extract fetches the file behind fileURI and returns its contents as text.
func (e *TextExtractor) Extract(ctx context.Context, fileURI, mimeType string) (string, error) {
	base := mimeType
	if i := strings.IndexByte(base, ';'); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSpace(strings.ToLower(base))

	if !textMimeTypes[base] {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, mimeType)
	}

	data, err := e.blobs.Get(ctx, fileURI)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", domain.ErrExtraction, fileURI, err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrExtraction, fileURI)
	}
	return string(data), nil
}
