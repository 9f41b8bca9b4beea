package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
)

func setupQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	q, err := NewQueue(client, "test-worker")
	if err != nil {
		t.Fatalf("failed to create queue: %v", err)
	}
	return q, mr
}

func TestQueue_EnqueueDequeueAck(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	task := domain.NewIndexDocumentTask("doc-1")
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	got, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if got == nil {
		t.Fatal("expected a task")
	}
	if got.ID != task.ID || got.DocumentID() != "doc-1" {
		t.Errorf("unexpected task: %+v", got)
	}
	if got.Status != domain.TaskStatusProcessing {
		t.Errorf("expected processing, got %s", got.Status)
	}

	if err := q.Ack(ctx, task.ID); err != nil {
		t.Fatalf("ack: %v", err)
	}
	stored, err := q.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if stored.Status != domain.TaskStatusCompleted {
		t.Errorf("expected completed, got %s", stored.Status)
	}

	// queue drained
	got, err = q.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if got != nil {
		t.Errorf("expected empty queue, got %+v", got)
	}
}

func TestQueue_EnqueueBatch(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	tasks := []*domain.Task{
		domain.NewIndexDocumentTask("doc-1"),
		domain.NewIndexDocumentTask("doc-2"),
	}
	if err := q.EnqueueBatch(ctx, tasks); err != nil {
		t.Fatalf("enqueue batch: %v", err)
	}

	seen := map[string]bool{}
	for i := 0; i < 2; i++ {
		got, err := q.DequeueWithTimeout(ctx, 1)
		if err != nil || got == nil {
			t.Fatalf("dequeue %d: task=%v err=%v", i, got, err)
		}
		seen[got.DocumentID()] = true
	}
	if !seen["doc-1"] || !seen["doc-2"] {
		t.Errorf("expected both documents dequeued, got %v", seen)
	}
}

func TestQueue_NackSchedulesRetry(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	task := domain.NewIndexDocumentTask("doc-1")
	_ = q.Enqueue(ctx, task)

	got, _ := q.DequeueWithTimeout(ctx, 1)
	if got == nil {
		t.Fatal("expected a task")
	}

	if err := q.Nack(ctx, task.ID, "embedder down"); err != nil {
		t.Fatalf("nack: %v", err)
	}

	stored, _ := q.GetTask(ctx, task.ID)
	if stored.Status != domain.TaskStatusPending {
		t.Fatalf("expected pending for retry, got %s", stored.Status)
	}
	if stored.Error != "embedder down" {
		t.Errorf("expected reason recorded, got %q", stored.Error)
	}
	if !stored.ScheduledFor.After(time.Now()) {
		t.Error("expected retry to carry backoff")
	}

	// backoff holds the task in the scheduled set until it is due
	got, _ = q.DequeueWithTimeout(ctx, 1)
	if got != nil {
		t.Fatalf("task should still be backing off, got %+v", got)
	}

	// wait out the first-retry backoff, then the task flows again
	time.Sleep(time.Until(stored.ScheduledFor) + 100*time.Millisecond)
	got, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatalf("dequeue after backoff: %v", err)
	}
	if got == nil || got.ID != task.ID {
		t.Fatalf("expected retried task, got %+v", got)
	}
}

func TestQueue_NackExhaustedFails(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	task := domain.NewIndexDocumentTask("doc-1")
	task.MaxAttempts = 1
	_ = q.Enqueue(ctx, task)

	got, _ := q.DequeueWithTimeout(ctx, 1)
	if got == nil {
		t.Fatal("expected a task")
	}

	if err := q.Nack(ctx, task.ID, "broken"); err != nil {
		t.Fatalf("nack: %v", err)
	}

	stored, _ := q.GetTask(ctx, task.ID)
	if stored.Status != domain.TaskStatusFailed {
		t.Errorf("expected failed, got %s", stored.Status)
	}
}

func TestQueue_GetTaskMissing(t *testing.T) {
	q, _ := setupQueue(t)

	_, err := q.GetTask(context.Background(), "ghost")
	if err == nil {
		t.Fatal("expected error for unknown task")
	}
}
