package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
	"github.com/voxa-labs/voxa-core/internal/core/ports/driven"
)

var _ driven.TaskQueue = (*TaskQueue)(nil)

// dequeuePollInterval bounds how long a blocked Dequeue waits before
// re-checking for tasks that became ready (retry backoff expiring).
const dequeuePollInterval = 50 * time.Millisecond

// TaskQueue is an in-process TaskQueue for single-host deployments.
// Tasks survive only as long as the process does.
type TaskQueue struct {
	mu     sync.Mutex
	tasks  map[string]*domain.Task
	closed bool
}

func NewTaskQueue() *TaskQueue {
	return &TaskQueue{tasks: make(map[string]*domain.Task)}
}

func (q *TaskQueue) Enqueue(_ context.Context, task *domain.Task) error {
	if task == nil || task.ID == "" {
		return fmt.Errorf("%w: task must have an id", domain.ErrInvalidInput)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return fmt.Errorf("task queue is closed")
	}
	cp := *task
	q.tasks[task.ID] = &cp
	return nil
}

func (q *TaskQueue) EnqueueBatch(ctx context.Context, tasks []*domain.Task) error {
	for _, task := range tasks {
		if err := q.Enqueue(ctx, task); err != nil {
			return err
		}
	}
	return nil
}

// Dequeue blocks until a task is ready or the context is cancelled.
func (q *TaskQueue) Dequeue(ctx context.Context) (*domain.Task, error) {
	for {
		if task := q.takeReady(); task != nil {
			return task, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dequeuePollInterval):
		}
	}
}

// DequeueWithTimeout waits up to timeout seconds for a ready task and
// returns nil, nil when none arrives.
func (q *TaskQueue) DequeueWithTimeout(ctx context.Context, timeout int) (*domain.Task, error) {
	deadline := time.Now().Add(time.Duration(timeout) * time.Second)
	for {
		if task := q.takeReady(); task != nil {
			return task, nil
		}
		if time.Now().After(deadline) {
			return nil, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dequeuePollInterval):
		}
	}
}

// takeReady claims the highest-priority ready task, oldest first on ties.
func (q *TaskQueue) takeReady() *domain.Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	var ready []*domain.Task
	for _, task := range q.tasks {
		if task.IsReady() {
			ready = append(ready, task)
		}
	}
	if len(ready) == 0 {
		return nil
	}
	sort.Slice(ready, func(i, j int) bool {
		if ready[i].Priority != ready[j].Priority {
			return ready[i].Priority > ready[j].Priority
		}
		return ready[i].CreatedAt.Before(ready[j].CreatedAt)
	})

	task := ready[0]
	task.MarkProcessing()
	cp := *task
	return &cp
}

func (q *TaskQueue) Ack(_ context.Context, taskID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: task %s", domain.ErrNotFound, taskID)
	}
	task.MarkCompleted()
	return nil
}

func (q *TaskQueue) Nack(_ context.Context, taskID string, reason string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[taskID]
	if !ok {
		return fmt.Errorf("%w: task %s", domain.ErrNotFound, taskID)
	}
	if task.CanRetry() {
		task.Retry(reason)
	} else {
		task.MarkFailed(reason)
	}
	return nil
}

func (q *TaskQueue) GetTask(_ context.Context, taskID string) (*domain.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	task, ok := q.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("%w: task %s", domain.ErrNotFound, taskID)
	}
	cp := *task
	return &cp, nil
}

func (q *TaskQueue) Ping(_ context.Context) error { return nil }

func (q *TaskQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	return nil
}
