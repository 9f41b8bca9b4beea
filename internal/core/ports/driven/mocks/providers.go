package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
	"github.com/voxa-labs/voxa-core/internal/core/ports/driven"
)

var (
	_ driven.Extractor   = (*MockExtractor)(nil)
	_ driven.Augmenter   = (*MockAugmenter)(nil)
	_ driven.Transcriber = (*MockTranscriber)(nil)
	_ driven.Translator  = (*MockTranslator)(nil)
	_ driven.Synthesizer = (*MockSynthesizer)(nil)
)

// MockExtractor returns canned text per URI.
type MockExtractor struct {
	mu       sync.Mutex
	texts    map[string]string
	failNext bool
}

func NewMockExtractor() *MockExtractor {
	return &MockExtractor{texts: make(map[string]string)}
}

// SetText registers the text returned for a URI.
func (m *MockExtractor) SetText(uri, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts[uri] = text
}

func (m *MockExtractor) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

func (m *MockExtractor) Extract(_ context.Context, fileURI, mimeType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext {
		m.failNext = false
		return "", fmt.Errorf("%w: source unreadable", domain.ErrExtraction)
	}
	if mimeType == "application/octet-stream" {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, mimeType)
	}
	text, ok := m.texts[fileURI]
	if !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrExtraction, fileURI)
	}
	return text, nil
}

// MockAugmenter composes answers by echoing the query and chunk count.
type MockAugmenter struct {
	mu       sync.Mutex
	failNext bool
	pingErr  error
	Calls    int
}

func NewMockAugmenter() *MockAugmenter {
	return &MockAugmenter{}
}

func (m *MockAugmenter) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

func (m *MockAugmenter) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}

func (m *MockAugmenter) Augment(_ context.Context, query string, chunks []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext {
		m.failNext = false
		return "", fmt.Errorf("%w: provider error", domain.ErrAugmentation)
	}
	m.Calls++
	return fmt.Sprintf("augmented answer for %q from %d passages", query, len(chunks)), nil
}

func (m *MockAugmenter) Model() string {
	return "mock-augmenter"
}

func (m *MockAugmenter) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingErr
}

func (m *MockAugmenter) Close() error {
	return nil
}

// MockTranscriber maps audio payloads to fixed transcripts.
type MockTranscriber struct {
	mu          sync.Mutex
	transcripts map[string]string
	failNext    bool
	pingErr     error
}

func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{transcripts: make(map[string]string)}
}

// SetTranscript registers the transcript returned for an audio payload.
func (m *MockTranscriber) SetTranscript(audio []byte, transcript string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcripts[string(audio)] = transcript
}

func (m *MockTranscriber) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

func (m *MockTranscriber) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}

func (m *MockTranscriber) Transcribe(_ context.Context, audio []byte, _, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext {
		m.failNext = false
		return "", fmt.Errorf("%w: provider error", domain.ErrTranscription)
	}
	transcript, ok := m.transcripts[string(audio)]
	if !ok {
		return "", fmt.Errorf("%w: unintelligible audio", domain.ErrTranscription)
	}
	return transcript, nil
}

func (m *MockTranscriber) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingErr
}

// MockTranslator tags translated text so tests can see the language hop.
type MockTranslator struct {
	mu       sync.Mutex
	failNext bool
	pingErr  error
	Calls    int
}

func NewMockTranslator() *MockTranslator {
	return &MockTranslator{}
}

func (m *MockTranslator) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

func (m *MockTranslator) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}

func (m *MockTranslator) Translate(_ context.Context, text, sourceLang, targetLang string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext {
		m.failNext = false
		return "", fmt.Errorf("%w: provider error", domain.ErrTranslation)
	}
	m.Calls++
	return fmt.Sprintf("[%s->%s] %s", sourceLang, targetLang, text), nil
}

func (m *MockTranslator) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingErr
}

// MockSynthesizer renders text as an audible-looking byte payload.
type MockSynthesizer struct {
	mu       sync.Mutex
	failNext bool
	pingErr  error
	Calls    int
}

func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

func (m *MockSynthesizer) SetFailNext(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = fail
}

func (m *MockSynthesizer) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}

func (m *MockSynthesizer) Synthesize(_ context.Context, text, _ string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext {
		m.failNext = false
		return nil, fmt.Errorf("%w: provider error", domain.ErrSynthesis)
	}
	m.Calls++
	return []byte("audio:" + strings.ToLower(text)), nil
}

func (m *MockSynthesizer) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingErr
}
