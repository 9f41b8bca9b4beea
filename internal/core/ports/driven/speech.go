package driven

import "context"

// Transcriber converts an audio payload to text. Mandatory for audio
// queries: a failure aborts that one request.
type Transcriber interface {
	// Transcribe converts audio to text. languageHint may be empty.
	Transcribe(ctx context.Context, audio []byte, format, languageHint string) (string, error)

	// Ping verifies the provider is reachable.
	Ping(ctx context.Context) error
}

// Translator converts text between languages. Optional: a failure must
// not block returning a text answer.
type Translator interface {
	// Translate converts text from sourceLang to targetLang.
	// An empty sourceLang asks the provider to detect it.
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)

	// Ping verifies the provider is reachable.
	Ping(ctx context.Context) error
}

// Synthesizer renders text as speech audio. Optional: a failure must
// not block returning a text answer.
type Synthesizer interface {
	// Synthesize renders text using a voice for the given language.
	Synthesize(ctx context.Context, text, language string) ([]byte, error)

	// Ping verifies the provider is reachable.
	Ping(ctx context.Context) error
}
