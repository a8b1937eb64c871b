package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"
)

type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string // empty for the public endpoint
}

type gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, cfg GeminiConfig, hc *http.Client) (Client, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("ai: create gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &gemini{client: client, model: model}, nil
}

func (g *gemini) Name() string { return "gemini" }

func (g *gemini) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
