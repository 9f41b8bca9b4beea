package domain

import "time"

// SessionState is the per-connection request gate state.
type SessionState string

const (
	// SessionStateIdle means the session accepts a new submission.
	SessionStateIdle SessionState = "idle"
	// SessionStateBusy means a query is in flight; new submissions
	// on the same session are rejected, not queued.
	SessionStateBusy SessionState = "busy"
)

// Session is one realtime connection. The busy/idle gate is its only
// persisted state; it is created on connect and destroyed on disconnect.
type Session struct {
	ID           string       `json:"id"`
	Language     string       `json:"language,omitempty"` // preferred language, BCP 47 style ("en", "de")
	State        SessionState `json:"state"`
	ConnectedAt  time.Time    `json:"connected_at"`
	LastActiveAt time.Time    `json:"last_active_at"`
}

// NewSession creates an idle session for a new connection.
func NewSession(id, language string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		Language:     language,
		State:        SessionStateIdle,
		ConnectedAt:  now,
		LastActiveAt: now,
	}
}

// Touch records activity on the session.
func (s *Session) Touch() {
	s.LastActiveAt = time.Now()
}
