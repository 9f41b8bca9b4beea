package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/voxa-labs/voxa-core/internal/core/ports/driven"
)

var _ driven.DistributedLock = (*Lock)(nil)

// Lock is a process-local DistributedLock. TTLs still apply so an
// abandoned lock does not wedge the indexer forever.
type Lock struct {
	mu    sync.Mutex
	locks map[string]time.Time
}

func NewLock() *Lock {
	return &Lock{locks: make(map[string]time.Time)}
}

func (l *Lock) Acquire(_ context.Context, name string, ttl time.Duration) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("lock name is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if expiry, held := l.locks[name]; held && time.Now().Before(expiry) {
		return false, nil
	}
	l.locks[name] = time.Now().Add(ttl)
	return true, nil
}

func (l *Lock) Release(_ context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.locks, name)
	return nil
}

func (l *Lock) Extend(_ context.Context, name string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	expiry, held := l.locks[name]
	if !held || time.Now().After(expiry) {
		return fmt.Errorf("lock %s is not held", name)
	}
	l.locks[name] = time.Now().Add(ttl)
	return nil
}

func (l *Lock) Ping(_ context.Context) error { return nil }
