package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
	"github.com/voxa-labs/voxa-core/internal/core/ports/driven"
)

var (
	_ driven.Transcriber = (*OpenAISpeech)(nil)
	_ driven.Translator  = (*OpenAISpeech)(nil)
	_ driven.Synthesizer = (*OpenAISpeech)(nil)
)

// OpenAISpeech implements the speech ports against OpenAI-compatible audio
// endpoints: transcription, chat-based translation, and speech synthesis.
type OpenAISpeech struct {
	apiKey         string
	transcribe     string
	translateModel string
	synthesize     string
	voice          string
	baseURL        string
	client         *http.Client
}

// NewOpenAISpeech creates a speech adapter. Empty model names fall back to
// the standard OpenAI models.
func NewOpenAISpeech(apiKey, baseURL string) (*OpenAISpeech, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("speech API key is required")
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	return &OpenAISpeech{
		apiKey:         apiKey,
		transcribe:     "whisper-1",
		translateModel: "gpt-4o-mini",
		synthesize:     "tts-1",
		voice:          "alloy",
		baseURL:        baseURL,
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Transcribe converts audio to text via the transcriptions endpoint.
// languageHint is an ISO 639-1 code and may be empty.
func (s *OpenAISpeech) Transcribe(ctx context.Context, audio []byte, format, languageHint string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("%w: empty audio payload", domain.ErrTranscription)
	}
	if format == "" {
		format = "wav"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "audio."+format)
	if err != nil {
		return "", fmt.Errorf("%w: build form: %v", domain.ErrTranscription, err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("%w: build form: %v", domain.ErrTranscription, err)
	}
	_ = mw.WriteField("model", s.transcribe)
	if languageHint != "" {
		_ = mw.WriteField("language", languageHint)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%w: build form: %v", domain.ErrTranscription, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", domain.ErrTranscription, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTranscription, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", domain.ErrTranscription, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", domain.ErrTranscription, resp.StatusCode)
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrTranscription, err)
	}
	return parsed.Text, nil
}

// Translate rewrites text from sourceLang into targetLang through the chat
// endpoint. Languages are ISO 639-1 codes.
func (s *OpenAISpeech) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if text == "" {
		return "", nil
	}

	body, err := json.Marshal(chatRequest{
		Model: s.translateModel,
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf(
				"You are a translator. Translate the user's text from %s to %s. Reply with the translation only.",
				sourceLang, targetLang)},
			{Role: "user", Content: text},
		},
		Temperature: 0,
		MaxTokens:   1024,
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", domain.ErrTranslation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", domain.ErrTranslation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTranslation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", domain.ErrTranslation, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrTranslation, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrTranslation, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", domain.ErrTranslation, resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", domain.ErrTranslation)
	}
	return parsed.Choices[0].Message.Content, nil
}

// Synthesize converts text to speech audio. language is currently advisory;
// the voice model picks pronunciation from the text itself.
func (s *OpenAISpeech) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrSynthesis)
	}

	body, err := json.Marshal(map[string]any{
		"model":           s.synthesize,
		"input":           text,
		"voice":           s.voice,
		"response_format": "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", domain.ErrSynthesis, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", domain.ErrSynthesis, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSynthesis, err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrSynthesis, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrSynthesis, resp.StatusCode)
	}
	return audio, nil
}

// Ping probes the audio endpoints by synthesizing a short phrase.
func (s *OpenAISpeech) Ping(ctx context.Context) error {
	_, err := s.Synthesize(ctx, "ok", "en")
	return err
}
