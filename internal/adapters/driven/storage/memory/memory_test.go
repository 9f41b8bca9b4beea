package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
)

func TestDocStore_SaveGetList(t *testing.T) {
	s := NewDocStore()
	ctx := context.Background()

	doc := domain.NewDocument("Title", "body")
	doc.ID = "doc-1"
	if err := s.Save(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Text != "body" {
		t.Errorf("unexpected text: %q", got.Text)
	}

	// mutating the returned copy must not leak into the store
	got.Text = "mutated"
	again, _ := s.Get(ctx, "doc-1")
	if again.Text != "body" {
		t.Error("store state leaked through returned copy")
	}

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDocStore_StatusTransitions(t *testing.T) {
	s := NewDocStore()
	ctx := context.Background()

	doc := domain.NewDocument("Title", "body")
	doc.ID = "doc-1"
	_ = s.Save(ctx, doc)

	if err := s.SetStatus(ctx, "doc-1", domain.DocumentStatusFailed, "boom"); err != nil {
		t.Fatalf("set status: %v", err)
	}
	got, _ := s.Get(ctx, "doc-1")
	if got.Status != domain.DocumentStatusFailed || got.Error != "boom" {
		t.Errorf("unexpected state: %s %q", got.Status, got.Error)
	}

	_ = s.SetStatus(ctx, "doc-1", domain.DocumentStatusIndexed, "")
	got, _ = s.Get(ctx, "doc-1")
	if got.IndexedAt == nil {
		t.Error("expected IndexedAt to be set")
	}

	failed, _ := s.ListByStatus(ctx, domain.DocumentStatusFailed)
	if len(failed) != 0 {
		t.Errorf("expected no failed documents, got %d", len(failed))
	}
}

func TestSessionStore_GateIsAtomic(t *testing.T) {
	s := NewSessionStore()
	ctx := context.Background()
	_ = s.Save(ctx, domain.NewSession("sess-1", "en"))

	var acquired int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.AcquireGate(ctx, "sess-1")
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			if ok {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if acquired != 1 {
		t.Fatalf("expected exactly one acquisition, got %d", acquired)
	}

	if err := s.ReleaseGate(ctx, "sess-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	ok, _ := s.AcquireGate(ctx, "sess-1")
	if !ok {
		t.Error("gate should be free after release")
	}
}

func TestSessionStore_GateUnknownSession(t *testing.T) {
	s := NewSessionStore()

	_, err := s.AcquireGate(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
	if err := s.ReleaseGate(context.Background(), "ghost"); err != nil {
		t.Errorf("release of unknown session should be safe: %v", err)
	}
}

func TestTaskQueue_Lifecycle(t *testing.T) {
	q := NewTaskQueue()
	ctx := context.Background()

	task := domain.NewIndexDocumentTask("doc-1")
	if err := q.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	got, err := q.DequeueWithTimeout(ctx, 1)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if got == nil || got.ID != task.ID {
		t.Fatalf("unexpected task: %+v", got)
	}
	if got.Status != domain.TaskStatusProcessing {
		t.Errorf("expected processing status, got %s", got.Status)
	}

	if err := q.Ack(ctx, task.ID); err != nil {
		t.Fatalf("ack: %v", err)
	}
	stored, _ := q.GetTask(ctx, task.ID)
	if stored.Status != domain.TaskStatusCompleted {
		t.Errorf("expected completed, got %s", stored.Status)
	}
}

func TestTaskQueue_NackRetriesThenFails(t *testing.T) {
	q := NewTaskQueue()
	ctx := context.Background()

	task := domain.NewIndexDocumentTask("doc-1")
	task.MaxAttempts = 1
	_ = q.Enqueue(ctx, task)

	got, _ := q.DequeueWithTimeout(ctx, 1)
	if got == nil {
		t.Fatal("expected a task")
	}
	if err := q.Nack(ctx, task.ID, "embedder down"); err != nil {
		t.Fatalf("nack: %v", err)
	}

	stored, _ := q.GetTask(ctx, task.ID)
	if stored.Status != domain.TaskStatusFailed {
		t.Errorf("expected failed after exhausting retries, got %s", stored.Status)
	}
	if stored.Error != "embedder down" {
		t.Errorf("expected error message preserved, got %q", stored.Error)
	}
}

func TestTaskQueue_DequeueTimeout(t *testing.T) {
	q := NewTaskQueue()

	start := time.Now()
	got, err := q.DequeueWithTimeout(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil task, got %+v", got)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout took too long")
	}
}

func TestTaskQueue_PriorityOrder(t *testing.T) {
	q := NewTaskQueue()
	ctx := context.Background()

	low := domain.NewIndexDocumentTask("doc-low")
	high := domain.NewIndexDocumentTask("doc-high")
	high.Priority = 10
	_ = q.Enqueue(ctx, low)
	_ = q.Enqueue(ctx, high)

	got, _ := q.DequeueWithTimeout(ctx, 1)
	if got == nil || got.DocumentID() != "doc-high" {
		t.Errorf("expected high priority task first, got %+v", got)
	}
}

func TestLock_AcquireReleaseExtend(t *testing.T) {
	l := NewLock()
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "index:doc:1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	ok, _ = l.Acquire(ctx, "index:doc:1", time.Minute)
	if ok {
		t.Error("second acquire should fail while held")
	}
	ok, _ = l.Acquire(ctx, "index:doc:2", time.Minute)
	if !ok {
		t.Error("different name should acquire independently")
	}

	if err := l.Extend(ctx, "index:doc:1", time.Minute); err != nil {
		t.Errorf("extend held lock: %v", err)
	}

	_ = l.Release(ctx, "index:doc:1")
	ok, _ = l.Acquire(ctx, "index:doc:1", time.Minute)
	if !ok {
		t.Error("acquire after release should succeed")
	}

	if err := l.Extend(ctx, "never-held", time.Minute); err == nil {
		t.Error("extend of unheld lock should fail")
	}
}

func TestLock_TTLExpiry(t *testing.T) {
	l := NewLock()
	ctx := context.Background()

	ok, _ := l.Acquire(ctx, "short", 10*time.Millisecond)
	if !ok {
		t.Fatal("acquire failed")
	}
	time.Sleep(20 * time.Millisecond)

	ok, _ = l.Acquire(ctx, "short", time.Minute)
	if !ok {
		t.Error("expired lock should be acquirable")
	}
}

func TestBlobStore_PutGet(t *testing.T) {
	s := NewBlobStore()
	ctx := context.Background()

	uri, err := s.Put(ctx, "audio/q1.wav", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if uri != "mem://audio/q1.wav" {
		t.Errorf("unexpected uri: %q", uri)
	}

	data, err := s.Get(ctx, uri)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(data) != 3 || data[0] != 1 {
		t.Errorf("unexpected data: %v", data)
	}

	if _, err := s.Get(ctx, "mem://missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
