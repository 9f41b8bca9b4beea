// Package redis provides Redis-backed adapters: the realtime session store
// with its busy gate, and the distributed indexing lock.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/voxa-labs/voxa-core/internal/core/domain"
	"github.com/voxa-labs/voxa-core/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.SessionStore = (*SessionStore)(nil)

const (
	sessionPrefix     = "voxa:session:"
	sessionGatePrefix = "voxa:session:gate:"

	// sessionTTL expires abandoned sessions; Save refreshes it, so a live
	// connection never lapses.
	sessionTTL = 24 * time.Hour

	// gateTTL caps how long a stuck query can hold the busy gate before
	// Redis reclaims it.
	gateTTL = 5 * time.Minute
)

// SessionStore implements driven.SessionStore on Redis. The busy gate is a
// separate SETNX key per session, which makes acquisition atomic across
// processes serving the same session.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a new Redis-backed SessionStore.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Save stores a session and refreshes its expiry.
func (s *SessionStore) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return fmt.Errorf("%w: session must have an id", domain.ErrInvalidInput)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionPrefix+session.ID, data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, sessionPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("%w: session %s", domain.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	// The persisted record may lag the gate key; the gate key is the
	// source of truth for busy state.
	held, err := s.client.Exists(ctx, sessionGatePrefix+id).Result()
	if err != nil {
		return nil, fmt.Errorf("get session gate: %w", err)
	}
	if held > 0 {
		session.State = domain.SessionStateBusy
	} else {
		session.State = domain.SessionStateIdle
	}
	return &session, nil
}

// Delete removes a session and its gate. Safe for absent sessions.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, sessionPrefix+id)
	pipe.Del(ctx, sessionGatePrefix+id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// AcquireGate atomically flips the session busy gate. Returns false when a
// query is already in flight for this session.
func (s *SessionStore) AcquireGate(ctx context.Context, id string) (bool, error) {
	exists, err := s.client.Exists(ctx, sessionPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	if exists == 0 {
		return false, fmt.Errorf("%w: session %s", domain.ErrSessionNotFound, id)
	}

	acquired, err := s.client.SetNX(ctx, sessionGatePrefix+id, "busy", gateTTL).Result()
	if err != nil {
		return false, fmt.Errorf("acquire session gate: %w", err)
	}
	return acquired, nil
}

// ReleaseGate returns the session gate to idle. Safe when not held.
func (s *SessionStore) ReleaseGate(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, sessionGatePrefix+id).Err(); err != nil {
		return fmt.Errorf("release session gate: %w", err)
	}
	return nil
}
