package domain

import "testing"

func TestNewDocument(t *testing.T) {
	doc := NewDocument("Handbook", "some text")

	if doc.ID == "" {
		t.Error("expected non-empty ID")
	}
	if doc.Status != DocumentStatusUploaded {
		t.Errorf("expected status uploaded, got %s", doc.Status)
	}
	if doc.Title != "Handbook" {
		t.Errorf("expected title Handbook, got %s", doc.Title)
	}
	if doc.IndexedAt != nil {
		t.Error("expected nil IndexedAt for new document")
	}
}

func TestDocument_MarkStatus_Failed(t *testing.T) {
	doc := NewDocument("Handbook", "some text")

	doc.MarkStatus(DocumentStatusFailed, "corrupt source file")

	if doc.Status != DocumentStatusFailed {
		t.Errorf("expected status failed, got %s", doc.Status)
	}
	if doc.Error != "corrupt source file" {
		t.Errorf("expected error preserved, got %q", doc.Error)
	}
}

func TestDocument_MarkStatus_ClearsError(t *testing.T) {
	doc := NewDocument("Handbook", "some text")
	doc.MarkStatus(DocumentStatusFailed, "transient")

	doc.MarkStatus(DocumentStatusIndexing, "")
	if doc.Error != "" {
		t.Errorf("expected error cleared, got %q", doc.Error)
	}

	doc.MarkStatus(DocumentStatusIndexed, "")
	if doc.IndexedAt == nil {
		t.Error("expected IndexedAt set after indexing")
	}
}

func TestDocument_Indexable(t *testing.T) {
	doc := NewDocument("Handbook", "some text")
	if !doc.Indexable() {
		t.Error("uploaded document should be indexable")
	}

	doc.MarkStatus(DocumentStatusDeleted, "")
	if doc.Indexable() {
		t.Error("deleted document should not be indexable")
	}
	if !doc.IsDeleted() {
		t.Error("expected IsDeleted after delete")
	}
}
