// Package speech provides null-object speech providers. They are installed
// whenever no real provider is configured so the session pipeline can treat
// every speech capability as always present.
package speech

import (
	"context"
	"fmt"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
)

// NullTranscriber rejects every transcription request. Transcription is a
// mandatory stage for audio queries, so the null object fails loudly instead
// of returning an empty transcript.
type NullTranscriber struct{}

func NewNullTranscriber() *NullTranscriber { return &NullTranscriber{} }

func (t *NullTranscriber) Transcribe(_ context.Context, _ []byte, _, _ string) (string, error) {
	return "", fmt.Errorf("%w: no transcription provider configured", domain.ErrTranscription)
}

func (t *NullTranscriber) Ping(_ context.Context) error {
	return fmt.Errorf("%w: no transcription provider configured", domain.ErrTranscription)
}

// NullTranslator passes text through unchanged. Translation is optional, so
// the identity behaviour keeps the pipeline working in the source language.
type NullTranslator struct{}

func NewNullTranslator() *NullTranslator { return &NullTranslator{} }

func (t *NullTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}

func (t *NullTranslator) Ping(_ context.Context) error {
	return fmt.Errorf("%w: no translation provider configured", domain.ErrTranslation)
}

// NullSynthesizer produces no audio. Synthesis is optional and its absence
// degrades an audio answer to text only.
type NullSynthesizer struct{}

func NewNullSynthesizer() *NullSynthesizer { return &NullSynthesizer{} }

func (s *NullSynthesizer) Synthesize(_ context.Context, _, _ string) ([]byte, error) {
	return nil, fmt.Errorf("%w: no synthesis provider configured", domain.ErrSynthesis)
}

func (s *NullSynthesizer) Ping(_ context.Context) error {
	return fmt.Errorf("%w: no synthesis provider configured", domain.ErrSynthesis)
}
