package driven

import (
	"context"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
)

// SessionStore persists realtime sessions and their busy/idle gate.
// Gate acquisition is atomic so at most one query is in flight per
// session even across processes.
type SessionStore interface {
	// Save stores a session
	Save(ctx context.Context, session *domain.Session) error

	// Get retrieves a session by ID, domain.ErrSessionNotFound if absent
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Delete removes a session. Safe to call for an absent session.
	Delete(ctx context.Context, id string) error

	// AcquireGate atomically flips the session gate from idle to busy.
	// Returns false when the session is already busy.
	AcquireGate(ctx context.Context, id string) (bool, error)

	// ReleaseGate returns the session gate to idle. Safe to call when
	// the gate is not held.
	ReleaseGate(ctx context.Context, id string) error
}
