// Package memory provides in-memory implementations of the driven storage
// ports. They back single-host deployments and tests; everything is safe
// for concurrent use and hands out copies so callers cannot mutate store
// state behind the lock.
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

var _ driven.DocumentStore = (*DocStore)(nil)

// DocStore is an in-memory DocumentStore.
type DocStore struct {
	mu   sync.RWMutex
	docs map[string]*domain.Document
}

func NewDocStore() *DocStore {
	return &DocStore{docs: make(map[string]*domain.Document)}
}

func (s *DocStore) Save(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("%w: document must have an id", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *doc
	s.docs[doc.ID] = &cp
	return nil
}

func (s *DocStore) Get(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	cp := *doc
	return &cp, nil
}

func (s *DocStore) List(_ context.Context) ([]*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		cp := *doc
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *DocStore) ListByStatus(_ context.Context, status domain.DocumentStatus) ([]*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Document
	for _, doc := range s.docs {
		if doc.Status == status {
			cp := *doc
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *DocStore) SetStatus(_ context.Context, id string, status domain.DocumentStatus, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	doc.MarkStatus(status, errMsg)
	return nil
}

func (s *DocStore) SetText(_ context.Context, id string, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	doc.Text = text
	doc.UpdatedAt = time.Now()
	return nil
}
