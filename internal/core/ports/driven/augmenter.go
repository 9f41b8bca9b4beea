package driven

import "context"

// Augmenter rewrites retrieved evidence into a single natural-language
// answer via an external language model. Strictly an enhancement: it may
// fail or time out, and callers must fall back to a retrieval-only
// summary rather than failing the request.
type Augmenter interface {
	// Augment produces an answer from the query and retrieved chunk texts.
	Augment(ctx context.Context, query string, chunks []string) (string, error)

	// Model returns the model name being used
	Model() string

	// Ping verifies the provider is available
	Ping(ctx context.Context) error

	// Close releases resources held by the provider
	Close() error
}
