package insight

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"google.golang.org/genai"
)

// Prompt is one request to a text-generation model.
type Prompt struct {
	System      string
	User        string
	Temperature float32
	MaxTokens   int32
	// JSON asks the model for an application/json response.
	JSON bool
}

// Completer sends a prompt to a language model and returns its raw text.
// Implementations must honour ctx cancellation.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

var (
	ErrClosed        = errors.New("llm client closed")
	ErrEmptyResponse = errors.New("empty response from model")
)

// GenAICompleter calls Gemini through google.golang.org/genai.
type GenAICompleter struct {
	client *genai.Client
	model  string
	closed atomic.Bool
}

// NewGenAICompleter creates a Gemini API client for model.
func NewGenAICompleter(ctx context.Context, apiKey, model string) (*GenAICompleter, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("genai: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAICompleter{client: client, model: model}, nil
}

func (c *GenAICompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	if c.closed.Load() {
		return "", ErrClosed
	}

	temperature := p.Temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: p.MaxTokens,
	}
	if p.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	if p.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: p.System}},
		}
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: p.User}},
		},
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Model returns the configured model name.
func (c *GenAICompleter) Model() string {
	return c.model
}

// Close makes later calls fail fast. The underlying HTTP client holds no
// resources that need explicit release.
func (c *GenAICompleter) Close() error {
	c.closed.Store(true)
	return nil
}
