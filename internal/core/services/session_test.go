package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/voxa-labs/voxa-core/internal/adapters/driven/speech"
	"github.com/voxa-labs/voxa-core/internal/adapters/driven/storage/memory"
	"github.com/voxa-labs/voxa-core/internal/core/domain"
	"github.com/voxa-labs/voxa-core/internal/core/ports/driven/mocks"
	"github.com/voxa-labs/voxa-core/internal/runtime"
)

type sessionFixture struct {
	pipeline    *SessionPipeline
	sessions    *memory.SessionStore
	blobs       *memory.BlobStore
	transcriber *mocks.MockTranscriber
	translator  *mocks.MockTranslator
	synthesizer *mocks.MockSynthesizer
	services    *runtime.Services
	config      *domain.RuntimeConfig
	retrieval   *retrievalFixture
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	config := domain.NewRuntimeConfig("memory", "memory", "en")
	f := &sessionFixture{
		sessions:    memory.NewSessionStore(),
		blobs:       memory.NewBlobStore(),
		transcriber: mocks.NewMockTranscriber(),
		translator:  mocks.NewMockTranslator(),
		synthesizer: mocks.NewMockSynthesizer(),
		services:    runtime.NewServices(config),
		config:      config,
		retrieval:   newRetrievalFixture(t),
	}
	f.pipeline = NewSessionPipeline(SessionPipelineConfig{
		Sessions:    f.sessions,
		Retrieval:   f.retrieval.retrieval,
		Transcriber: f.transcriber,
		Blobs:       f.blobs,
		Services:    f.services,
		Config:      config,
	})
	return f
}

func (f *sessionFixture) connect(t *testing.T, id, language string) {
	t.Helper()
	if _, err := f.pipeline.Connect(context.Background(), id, language); err != nil {
		t.Fatalf("connect: %v", err)
	}
}

func TestHandleQuery_TextTurn(t *testing.T) {
	f := newSessionFixture(t)
	f.retrieval.seed(t, "doc-1", "the sky is blue")
	f.connect(t, "sess-1", "en")

	resp, err := f.pipeline.HandleQuery(context.Background(), &domain.QueryRequest{
		SessionID: "sess-1",
		Text:      "the sky is blue",
	})
	if err != nil {
		t.Fatalf("handle query: %v", err)
	}
	if resp.Failure != nil {
		t.Fatalf("unexpected failure: %+v", resp.Failure)
	}
	if resp.Answer == "" {
		t.Error("expected an answer")
	}
	if resp.AudioURL != "" {
		t.Error("text turn should not synthesize audio")
	}

	// the gate must be free again
	session, _ := f.sessions.Get(context.Background(), "sess-1")
	if session.State != domain.SessionStateIdle {
		t.Errorf("expected idle after turn, got %s", session.State)
	}
}

func TestHandleQuery_BusyGateRejects(t *testing.T) {
	f := newSessionFixture(t)
	f.connect(t, "sess-1", "en")

	// occupy the gate as a running query would
	ok, _ := f.sessions.AcquireGate(context.Background(), "sess-1")
	if !ok {
		t.Fatal("precondition: gate acquired")
	}

	resp, err := f.pipeline.HandleQuery(context.Background(), &domain.QueryRequest{
		SessionID: "sess-1",
		Text:      "hello",
	})
	if err != nil {
		t.Fatalf("handle query: %v", err)
	}
	if resp.Failure == nil || resp.Failure.Code != "session_busy" {
		t.Fatalf("expected session_busy failure, got %+v", resp.Failure)
	}

	// the rejected attempt must not release the running query's gate
	session, _ := f.sessions.Get(context.Background(), "sess-1")
	if session.State != domain.SessionStateBusy {
		t.Error("rejected attempt released the busy gate")
	}
}

func TestHandleQuery_UnknownSession(t *testing.T) {
	f := newSessionFixture(t)

	resp, err := f.pipeline.HandleQuery(context.Background(), &domain.QueryRequest{
		SessionID: "ghost",
		Text:      "hello",
	})
	if err != nil {
		t.Fatalf("handle query: %v", err)
	}
	if resp.Failure == nil || resp.Failure.Code != "session_not_found" {
		t.Fatalf("expected session_not_found failure, got %+v", resp.Failure)
	}
}

func TestHandleQuery_RejectsEmptySubmission(t *testing.T) {
	f := newSessionFixture(t)
	f.connect(t, "sess-1", "en")

	_, err := f.pipeline.HandleQuery(context.Background(), &domain.QueryRequest{
		SessionID: "sess-1",
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestHandleQuery_AudioTurn(t *testing.T) {
	f := newSessionFixture(t)
	f.retrieval.seed(t, "doc-1", "the sky is blue")
	f.connect(t, "sess-1", "en")

	audio := []byte{0x52, 0x49, 0x46, 0x46}
	f.transcriber.SetTranscript(audio, "the sky is blue")
	_ = f.services.ValidateAndSetSynthesizer(context.Background(), f.synthesizer)

	resp, err := f.pipeline.HandleQuery(context.Background(), &domain.QueryRequest{
		SessionID:   "sess-1",
		Audio:       audio,
		AudioFormat: "wav",
	})
	if err != nil {
		t.Fatalf("handle query: %v", err)
	}
	if resp.Failure != nil {
		t.Fatalf("unexpected failure: %+v", resp.Failure)
	}
	if resp.Transcript != "the sky is blue" {
		t.Errorf("unexpected transcript: %q", resp.Transcript)
	}
	if resp.AudioURL == "" {
		t.Error("expected synthesized audio URL")
	}

	// the synthesized audio must be retrievable
	data, err := f.blobs.Get(context.Background(), resp.AudioURL)
	if err != nil || len(data) == 0 {
		t.Errorf("expected stored audio, err=%v", err)
	}
}

func TestHandleQuery_TranscriptionFailureIsTerminal(t *testing.T) {
	f := newSessionFixture(t)
	f.connect(t, "sess-1", "en")

	resp, err := f.pipeline.HandleQuery(context.Background(), &domain.QueryRequest{
		SessionID: "sess-1",
		Audio:     []byte("unregistered audio"),
	})
	if err != nil {
		t.Fatalf("handle query: %v", err)
	}
	if resp.Failure == nil || resp.Failure.Code != "transcription_failed" {
		t.Fatalf("expected transcription_failed, got %+v", resp.Failure)
	}

	session, _ := f.sessions.Get(context.Background(), "sess-1")
	if session.State != domain.SessionStateIdle {
		t.Error("gate must be released after a failed turn")
	}
}

func TestHandleQuery_TranslatesForeignTranscript(t *testing.T) {
	f := newSessionFixture(t)
	f.retrieval.seed(t, "doc-1", "the sky is blue")
	f.connect(t, "sess-1", "de")
	_ = f.services.ValidateAndSetTranslator(context.Background(), f.translator)

	audio := []byte("german audio")
	f.transcriber.SetTranscript(audio, "der Himmel ist blau")

	resp, err := f.pipeline.HandleQuery(context.Background(), &domain.QueryRequest{
		SessionID: "sess-1",
		Audio:     audio,
		Language:  "de",
	})
	if err != nil {
		t.Fatalf("handle query: %v", err)
	}
	if resp.Failure != nil {
		t.Fatalf("unexpected failure: %+v", resp.Failure)
	}
	if f.translator.Calls != 1 {
		t.Errorf("expected one translation, got %d", f.translator.Calls)
	}
	if !strings.Contains(resp.Transcript, "de->en") {
		t.Errorf("expected translated transcript, got %q", resp.Transcript)
	}
}

func TestHandleQuery_TranslationFailureKeepsTranscript(t *testing.T) {
	f := newSessionFixture(t)
	f.retrieval.seed(t, "doc-1", "the sky is blue")
	f.connect(t, "sess-1", "de")
	_ = f.services.ValidateAndSetTranslator(context.Background(), f.translator)
	f.translator.SetFailNext(true)

	audio := []byte("german audio")
	f.transcriber.SetTranscript(audio, "der Himmel ist blau")

	resp, err := f.pipeline.HandleQuery(context.Background(), &domain.QueryRequest{
		SessionID: "sess-1",
		Audio:     audio,
		Language:  "de",
	})
	if err != nil {
		t.Fatalf("handle query: %v", err)
	}
	if resp.Failure != nil {
		t.Fatalf("translation failure must not be terminal: %+v", resp.Failure)
	}
	if resp.Transcript != "der Himmel ist blau" {
		t.Errorf("expected raw transcript kept, got %q", resp.Transcript)
	}
}

func TestHandleQuery_SynthesisFailureKeepsTextAnswer(t *testing.T) {
	f := newSessionFixture(t)
	f.retrieval.seed(t, "doc-1", "the sky is blue")
	f.connect(t, "sess-1", "en")
	_ = f.services.ValidateAndSetSynthesizer(context.Background(), f.synthesizer)
	f.synthesizer.SetFailNext(true)

	audio := []byte("audio")
	f.transcriber.SetTranscript(audio, "the sky is blue")

	resp, err := f.pipeline.HandleQuery(context.Background(), &domain.QueryRequest{
		SessionID: "sess-1",
		Audio:     audio,
	})
	if err != nil {
		t.Fatalf("handle query: %v", err)
	}
	if resp.Failure != nil {
		t.Fatalf("synthesis failure must not be terminal: %+v", resp.Failure)
	}
	if resp.Answer == "" {
		t.Error("expected text answer despite synthesis failure")
	}
	if resp.AudioURL != "" {
		t.Error("expected no audio URL after synthesis failure")
	}
}

func TestHandleQuery_NullSpeechProviders(t *testing.T) {
	f := newSessionFixture(t)
	f.connect(t, "sess-1", "en")

	pipeline := NewSessionPipeline(SessionPipelineConfig{
		Sessions:    f.sessions,
		Retrieval:   f.retrieval.retrieval,
		Transcriber: speech.NewNullTranscriber(),
		Blobs:       f.blobs,
		Services:    f.services,
		Config:      f.config,
	})

	resp, err := pipeline.HandleQuery(context.Background(), &domain.QueryRequest{
		SessionID: "sess-1",
		Audio:     []byte("audio"),
	})
	if err != nil {
		t.Fatalf("handle query: %v", err)
	}
	if resp.Failure == nil || resp.Failure.Code != "transcription_failed" {
		t.Fatalf("expected transcription_failed with null provider, got %+v", resp.Failure)
	}
}

func TestDisconnect_ReleasesEverything(t *testing.T) {
	f := newSessionFixture(t)
	f.connect(t, "sess-1", "en")

	if err := f.pipeline.Disconnect(context.Background(), "sess-1"); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	if _, err := f.sessions.Get(context.Background(), "sess-1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expected session gone, got %v", err)
	}

	// disconnecting an absent session is safe
	if err := f.pipeline.Disconnect(context.Background(), "sess-1"); err != nil {
		t.Errorf("repeated disconnect: %v", err)
	}
}

func TestHandleQuery_ConcurrentTurnsOneWinner(t *testing.T) {
	f := newSessionFixture(t)
	f.retrieval.seed(t, "doc-1", "the sky is blue")
	f.connect(t, "sess-1", "en")

	const turns = 8
	var wg sync.WaitGroup
	results := make([]*domain.QueryResponse, turns)
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := f.pipeline.HandleQuery(context.Background(), &domain.QueryRequest{
				SessionID: "sess-1",
				Text:      "the sky is blue",
			})
			if err != nil {
				t.Errorf("handle query: %v", err)
				return
			}
			results[i] = resp
		}(i)
	}
	wg.Wait()

	var succeeded, busy int
	for _, resp := range results {
		if resp == nil {
			continue
		}
		if resp.Failure == nil {
			succeeded++
		} else if resp.Failure.Code == "session_busy" {
			busy++
		}
	}
	if succeeded == 0 {
		t.Error("expected at least one successful turn")
	}
	if succeeded+busy != turns {
		t.Errorf("every turn must end busy or answered: ok=%d busy=%d", succeeded, busy)
	}
}
