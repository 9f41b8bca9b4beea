package driven

import "context"

// Extractor turns a stored raw file into plain text. File-format-specific
// readers live behind this interface; the core treats URIs as opaque.
// Fails with domain.ErrUnsupportedFormat when no reader handles the mime
// type, or domain.ErrExtraction when the source is bad or corrupt.
type Extractor interface {
	Extract(ctx context.Context, fileURI, mimeType string) (string, error)
}
