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

	"github.com/tidwall/gjson"
)

type openAI struct {
	endpoint string
	key      string
	model    string
	hc       *http.Client
}

// NewOpenAI talks to any OpenAI-compatible chat completions endpoint.
func NewOpenAI(endpoint, key, model string, hc *http.Client) Client {
	if hc == nil {
		hc = &http.Client{Timeout: 25 * time.Second}
	}
	return &openAI{endpoint: strings.TrimRight(endpoint, "/"), key: key, model: model, hc: hc}
}

func (c *openAI) Name() string { return "openai" }

func (c *openAI) Generate(ctx context.Context, prompt string) (string, error) {
	b, err := json.Marshal(map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.2,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/chat/completions", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ai: chat completions status %d", resp.StatusCode)
	}
	content := strings.TrimSpace(gjson.GetBytes(body, "choices.0.message.content").String())
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}
