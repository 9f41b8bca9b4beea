package domain

import "time"

// DocumentStatus tracks a document through the indexing lifecycle.
type DocumentStatus string

const (
	DocumentStatusUploaded   DocumentStatus = "uploaded"
	DocumentStatusExtracting DocumentStatus = "extracting"
	DocumentStatusExtracted  DocumentStatus = "extracted"
	DocumentStatusIndexing   DocumentStatus = "indexing"
	DocumentStatusIndexed    DocumentStatus = "indexed"
	DocumentStatusFailed     DocumentStatus = "failed"
	DocumentStatusDeleted    DocumentStatus = "deleted"
)

// Document represents an uploaded document and its indexing state.
// Text and Status are mutated only by the indexing orchestrator;
// the retrieval path never writes to a document.
type Document struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Filename  string         `json:"filename,omitempty"`
	MimeType  string         `json:"mime_type,omitempty"`
	Text      string         `json:"text"`
	SourceURI string         `json:"source_uri,omitempty"`
	Tags      string         `json:"tags,omitempty"`
	Status    DocumentStatus `json:"status"`
	Error     string         `json:"error,omitempty"` // last indexing failure, kept for inspection
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	IndexedAt *time.Time     `json:"indexed_at,omitempty"`
}

// NewDocument creates a document in the uploaded state.
func NewDocument(title, text string) *Document {
	now := time.Now()
	return &Document{
		ID:        GenerateID(),
		Title:     title,
		Text:      text,
		Status:    DocumentStatusUploaded,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsDeleted reports whether the document has been logically deleted.
func (d *Document) IsDeleted() bool {
	return d.Status == DocumentStatusDeleted
}

// Indexable reports whether the document can still be indexed.
func (d *Document) Indexable() bool {
	return d.Status != DocumentStatusDeleted
}

// MarkStatus updates the status and timestamps. A failed status keeps the
// triggering error; any other transition clears it.
func (d *Document) MarkStatus(status DocumentStatus, errMsg string) {
	now := time.Now()
	d.Status = status
	d.UpdatedAt = now
	if status == DocumentStatusFailed {
		d.Error = errMsg
	} else {
		d.Error = ""
	}
	if status == DocumentStatusIndexed {
		d.IndexedAt = &now
	}
}

// Chunk is a bounded span of a document's text, the unit of embedding
// and retrieval. Chunks are regenerated in full on every (re)index.
type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Index      int    `json:"index"` // ordinal within the document
	Text       string `json:"text"`
	StartChar  int    `json:"start_char"`
	EndChar    int    `json:"end_char"`
}
