package driving

import (
	"context"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
)

// QueryService backs one realtime chat connection: session lifecycle plus
// the multi-stage query call behind a chat turn.
type QueryService interface {
	// Connect creates a session for a new connection.
	Connect(ctx context.Context, sessionID, language string) (*domain.Session, error)

	// Disconnect destroys the session, releasing its gate and discarding
	// any in-flight response.
	Disconnect(ctx context.Context, sessionID string) error

	// HandleQuery runs one chat turn (text or audio) and returns exactly
	// one terminal response, success or failure.
	HandleQuery(ctx context.Context, req *domain.QueryRequest) (*domain.QueryResponse, error)
}

// RetrievalService answers queries from the vector index.
type RetrievalService interface {
	// Retrieve returns the topK most similar chunks as evidence.
	Retrieve(ctx context.Context, query string, topK int) ([]domain.RetrievedChunk, error)

	// Answer retrieves evidence and produces an answer, augmented when
	// the language-model provider is available, degraded otherwise.
	Answer(ctx context.Context, query string, topK int) (*domain.Answer, error)
}
