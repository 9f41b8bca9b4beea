package domain

import (
	"testing"
	"time"
)

func TestNewIndexDocumentTask(t *testing.T) {
	task := NewIndexDocumentTask("doc-123")

	if task.Type != TaskTypeIndexDocument {
		t.Errorf("expected type index_document, got %s", task.Type)
	}
	if task.DocumentID() != "doc-123" {
		t.Errorf("expected document_id doc-123, got %s", task.DocumentID())
	}
	if task.Status != TaskStatusPending {
		t.Errorf("expected status pending, got %s", task.Status)
	}
	if task.MaxAttempts != 3 {
		t.Errorf("expected 3 max attempts, got %d", task.MaxAttempts)
	}
}

func TestTask_DocumentID_Empty(t *testing.T) {
	task := NewReindexAllTask()
	if task.DocumentID() != "" {
		t.Errorf("expected empty document_id, got %s", task.DocumentID())
	}
}

func TestTask_Lifecycle(t *testing.T) {
	task := NewDeleteDocumentTask("doc-123")

	task.MarkProcessing()
	if task.Status != TaskStatusProcessing {
		t.Errorf("expected processing, got %s", task.Status)
	}
	if task.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", task.Attempts)
	}
	if task.StartedAt == nil {
		t.Error("expected StartedAt set")
	}

	task.MarkCompleted()
	if task.Status != TaskStatusCompleted {
		t.Errorf("expected completed, got %s", task.Status)
	}
	if task.CompletedAt == nil {
		t.Error("expected CompletedAt set")
	}
}

func TestTask_Retry_Backoff(t *testing.T) {
	task := NewIndexDocumentTask("doc-123")
	task.MarkProcessing()

	before := time.Now()
	task.Retry("embedding provider unavailable")

	if task.Status != TaskStatusPending {
		t.Errorf("expected pending after retry, got %s", task.Status)
	}
	if task.Error != "embedding provider unavailable" {
		t.Errorf("unexpected error message: %s", task.Error)
	}
	if !task.ScheduledFor.After(before) {
		t.Error("expected backoff to push ScheduledFor into the future")
	}
	if task.IsReady() {
		t.Error("task should not be ready during backoff")
	}
}

func TestTask_CanRetry(t *testing.T) {
	task := NewIndexDocumentTask("doc-123")

	for i := 0; i < task.MaxAttempts; i++ {
		if !task.CanRetry() {
			t.Fatalf("expected retry allowed at attempt %d", i)
		}
		task.MarkProcessing()
	}

	if task.CanRetry() {
		t.Error("expected retries exhausted")
	}
}
