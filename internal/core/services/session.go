package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
	"github.com/voxa-labs/voxa-core/internal/core/ports/driven"
	"github.com/voxa-labs/voxa-core/internal/core/ports/driving"
	"github.com/voxa-labs/voxa-core/internal/runtime"
)

// Ensure SessionPipeline implements QueryService
var _ driving.QueryService = (*SessionPipeline)(nil)

const (
	defaultTranscribeTimeout = 30 * time.Second
	defaultTranslateTimeout  = 10 * time.Second
	defaultSynthesizeTimeout = 30 * time.Second
)

// SessionPipeline runs realtime chat turns. Each session admits one query
// at a time through an atomic busy gate; a submission while busy is
// rejected immediately, never queued. Every submission gets exactly one
// terminal response.
type SessionPipeline struct {
	sessions    driven.SessionStore
	retrieval   driving.RetrievalService
	transcriber driven.Transcriber
	blobs       driven.BlobStore
	services    *runtime.Services
	config      *domain.RuntimeConfig
	logger      *slog.Logger

	transcribeTimeout time.Duration
	translateTimeout  time.Duration
	synthesizeTimeout time.Duration

	// inflight maps session ID to the cancel func of the running query
	// so Disconnect can abort it.
	mu       sync.Mutex
	inflight map[string]context.CancelFunc
}

// SessionPipelineConfig holds dependencies for SessionPipeline.
type SessionPipelineConfig struct {
	Sessions    driven.SessionStore
	Retrieval   driving.RetrievalService
	Transcriber driven.Transcriber
	Blobs       driven.BlobStore
	Services    *runtime.Services
	Config      *domain.RuntimeConfig
	Logger      *slog.Logger

	TranscribeTimeout time.Duration
	TranslateTimeout  time.Duration
	SynthesizeTimeout time.Duration
}

// NewSessionPipeline creates the session pipeline.
func NewSessionPipeline(cfg SessionPipelineConfig) *SessionPipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	p := &SessionPipeline{
		sessions:          cfg.Sessions,
		retrieval:         cfg.Retrieval,
		transcriber:       cfg.Transcriber,
		blobs:             cfg.Blobs,
		services:          cfg.Services,
		config:            cfg.Config,
		logger:            logger,
		transcribeTimeout: cfg.TranscribeTimeout,
		translateTimeout:  cfg.TranslateTimeout,
		synthesizeTimeout: cfg.SynthesizeTimeout,
		inflight:          make(map[string]context.CancelFunc),
	}
	if p.transcribeTimeout <= 0 {
		p.transcribeTimeout = defaultTranscribeTimeout
	}
	if p.translateTimeout <= 0 {
		p.translateTimeout = defaultTranslateTimeout
	}
	if p.synthesizeTimeout <= 0 {
		p.synthesizeTimeout = defaultSynthesizeTimeout
	}
	return p
}

// Connect creates a session for a new connection.
func (p *SessionPipeline) Connect(ctx context.Context, sessionID, language string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}

	session := domain.NewSession(sessionID, language)
	if err := p.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	p.logger.Info("session connected", "session_id", sessionID, "language", language)
	return session, nil
}

// Disconnect destroys the session. A query in flight is cancelled and its
// response discarded.
func (p *SessionPipeline) Disconnect(ctx context.Context, sessionID string) error {
	p.mu.Lock()
	if cancel, ok := p.inflight[sessionID]; ok {
		cancel()
		delete(p.inflight, sessionID)
	}
	p.mu.Unlock()

	if err := p.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	p.logger.Info("session disconnected", "session_id", sessionID)
	return nil
}

// HandleQuery runs one chat turn. Failures come back inside the response,
// never as a bare error, so the caller always has exactly one terminal
// message to deliver.
func (p *SessionPipeline) HandleQuery(ctx context.Context, req *domain.QueryRequest) (*domain.QueryResponse, error) {
	if req == nil || req.SessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	if !req.IsAudio() && strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: query carries neither text nor audio", domain.ErrInvalidInput)
	}

	started := time.Now()

	session, err := p.sessions.Get(ctx, req.SessionID)
	if err != nil {
		return p.failure(req.SessionID, started, err), nil
	}

	acquired, err := p.sessions.AcquireGate(ctx, req.SessionID)
	if err != nil {
		return p.failure(req.SessionID, started, err), nil
	}
	if !acquired {
		return p.failure(req.SessionID, started, domain.ErrSessionBusy), nil
	}
	defer func() {
		if err := p.sessions.ReleaseGate(context.WithoutCancel(ctx), req.SessionID); err != nil {
			p.logger.Error("failed to release session gate", "session_id", req.SessionID, "error", err)
		}
	}()

	// Register the in-flight query so Disconnect can cancel it.
	queryCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.inflight[req.SessionID] = cancel
	p.mu.Unlock()
	defer func() {
		cancel()
		p.mu.Lock()
		delete(p.inflight, req.SessionID)
		p.mu.Unlock()
	}()

	resp := p.runQuery(queryCtx, session, req, started)

	if queryCtx.Err() == context.Canceled && ctx.Err() == nil {
		// Disconnected mid-query; the response has no recipient.
		p.logger.Info("query cancelled by disconnect", "session_id", req.SessionID)
		return nil, context.Canceled
	}

	session.Touch()
	if err := p.sessions.Save(context.WithoutCancel(ctx), session); err != nil {
		p.logger.Warn("failed to touch session", "session_id", req.SessionID, "error", err)
	}
	return resp, nil
}

// runQuery executes the staged pipeline behind the gate.
func (p *SessionPipeline) runQuery(ctx context.Context, session *domain.Session, req *domain.QueryRequest, started time.Time) *domain.QueryResponse {
	queryText := req.Text
	var transcript string

	if req.IsAudio() {
		var err error
		transcript, err = p.transcribeLeg(ctx, session, req)
		if err != nil {
			return p.failure(req.SessionID, started, err)
		}
		queryText = transcript
	}

	answer, err := p.retrieval.Answer(ctx, queryText, req.TopK)
	if err != nil {
		return p.failure(req.SessionID, started, err)
	}

	resp := &domain.QueryResponse{
		SessionID:  req.SessionID,
		Answer:     answer.Text,
		Augmented:  answer.Augmented,
		Transcript: transcript,
		Chunks:     answer.Chunks,
		Took:       time.Since(started),
	}

	if req.IsAudio() {
		// Synthesis is optional; its failure leaves a text-only answer.
		resp.AudioURL = p.synthesizeLeg(ctx, session, answer.Text)
	}
	return resp
}

// transcribeLeg stores the raw audio, transcribes it, and translates the
// transcript into the working language when needed. Only transcription is
// mandatory.
func (p *SessionPipeline) transcribeLeg(ctx context.Context, session *domain.Session, req *domain.QueryRequest) (string, error) {
	if p.blobs != nil {
		key := fmt.Sprintf("audio/%s/%d-in.%s", req.SessionID, time.Now().UnixNano(), audioFormat(req.AudioFormat))
		if _, err := p.blobs.Put(ctx, key, req.Audio); err != nil {
			p.logger.Warn("failed to store raw audio", "session_id", req.SessionID, "error", err)
		}
	}

	hint := req.Language
	if hint == "" {
		hint = session.Language
	}

	transcribeCtx, cancel := context.WithTimeout(ctx, p.transcribeTimeout)
	defer cancel()

	transcript, err := p.transcriber.Transcribe(transcribeCtx, req.Audio, audioFormat(req.AudioFormat), hint)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}

	// Retrieval operates in the working language; translate the
	// transcript when the hint disagrees and a translator is installed.
	working := p.config.WorkingLanguage
	if hint != "" && hint != working && p.config.TranslationAvailable() {
		if translator := p.services.Translator(); translator != nil {
			translateCtx, cancel := context.WithTimeout(ctx, p.translateTimeout)
			defer cancel()

			translated, err := translator.Translate(translateCtx, transcript, hint, working)
			if err != nil {
				p.logger.Warn("translation failed, using raw transcript",
					"session_id", req.SessionID, "error", err)
			} else {
				return translated, nil
			}
		}
	}
	return transcript, nil
}

// synthesizeLeg renders the answer as audio and stores it, returning the
// blob URL or empty on any failure.
func (p *SessionPipeline) synthesizeLeg(ctx context.Context, session *domain.Session, text string) string {
	if !p.config.SynthesisAvailable() || p.blobs == nil {
		return ""
	}
	synthesizer := p.services.Synthesizer()
	if synthesizer == nil {
		return ""
	}

	language := session.Language
	if language == "" {
		language = p.config.WorkingLanguage
	}

	synthCtx, cancel := context.WithTimeout(ctx, p.synthesizeTimeout)
	defer cancel()

	audio, err := synthesizer.Synthesize(synthCtx, text, language)
	if err != nil {
		p.logger.Warn("synthesis failed, returning text only", "session_id", session.ID, "error", err)
		return ""
	}

	key := fmt.Sprintf("audio/%s/%d-out.mp3", session.ID, time.Now().UnixNano())
	url, err := p.blobs.Put(ctx, key, audio)
	if err != nil {
		p.logger.Warn("failed to store synthesized audio", "session_id", session.ID, "error", err)
		return ""
	}
	return url
}

// failure builds the terminal failure response with a stable error code.
func (p *SessionPipeline) failure(sessionID string, started time.Time, err error) *domain.QueryResponse {
	f := domain.FailureFrom(err)
	p.logger.Info("query failed", "session_id", sessionID, "code", f.Code, "error", err)
	return &domain.QueryResponse{
		SessionID: sessionID,
		Failure:   f,
		Took:      time.Since(started),
	}
}

func audioFormat(format string) string {
	if format == "" {
		return "wav"
	}
	return format
}
