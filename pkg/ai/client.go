package ai

import (
	"context"
	"errors"
	"net/http"
)

var ErrEmptyResponse = errors.New("ai: model returned no text")

// Client is a text-generation backend.
type Client interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	Gemini      GeminiConfig
	LLMEndpoint string
	LLMAPIKey   string
	LLMModel    string
}

// NewClient picks Gemini when it has a key, then an OpenAI-compatible
// endpoint, then the offline mock.
func NewClient(ctx context.Context, cfg Config, hc *http.Client) (Client, error) {
	switch {
	case cfg.Gemini.APIKey != "":
		return NewGemini(ctx, cfg.Gemini, hc)
	case cfg.LLMEndpoint != "" && cfg.LLMAPIKey != "":
		return NewOpenAI(cfg.LLMEndpoint, cfg.LLMAPIKey, cfg.LLMModel, hc), nil
	}
	return NewMock(), nil
}
