package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/voxa-labs/voxa-core/internal/core/domain"
	"github.com/voxa-labs/voxa-core/internal/core/ports/driven"
)

// Ensure OpenAIAugmenter implements Augmenter
var _ driven.Augmenter = (*OpenAIAugmenter)(nil)

const augmenterSystemPrompt = "You answer questions using only the provided context passages. " +
	"If the context does not contain the answer, say so briefly."

// OpenAIAugmenter rewrites retrieved chunks into a single answer via an
// OpenAI-compatible chat completions endpoint.
type OpenAIAugmenter struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

// NewOpenAIAugmenter creates a new chat-based augmentation provider.
func NewOpenAIAugmenter(apiKey, model, baseURL string) (*OpenAIAugmenter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("augmenter API key is required")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &OpenAIAugmenter{
		apiKey:  apiKey,
		model:   model,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

// Augment produces an answer from the query and retrieved chunk texts.
func (a *OpenAIAugmenter) Augment(ctx context.Context, query string, chunks []string) (string, error) {
	var prompt strings.Builder
	prompt.WriteString("Context passages:\n")
	for i, chunk := range chunks {
		fmt.Fprintf(&prompt, "[%d] %s\n", i+1, chunk)
	}
	prompt.WriteString("\nQuestion: ")
	prompt.WriteString(query)

	body, err := json.Marshal(chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: augmenterSystemPrompt},
			{Role: "user", Content: prompt.String()},
		},
		Temperature: 0.2,
		MaxTokens:   512,
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal request: %v", domain.ErrAugmentation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", domain.ErrAugmentation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAugmentation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", domain.ErrAugmentation, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", domain.ErrAugmentation, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrAugmentation, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", domain.ErrAugmentation, resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", domain.ErrAugmentation)
	}

	answer := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if answer == "" {
		return "", fmt.Errorf("%w: empty completion", domain.ErrAugmentation)
	}
	return answer, nil
}

// Model returns the model name being used
func (a *OpenAIAugmenter) Model() string {
	return a.model
}

// Ping verifies the provider is available with a minimal completion.
func (a *OpenAIAugmenter) Ping(ctx context.Context) error {
	_, err := a.Augment(ctx, "ping", []string{"pong"})
	return err
}

// Close releases resources held by the provider
func (a *OpenAIAugmenter) Close() error {
	a.client.CloseIdleConnections()
	return nil
}
