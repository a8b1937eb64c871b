package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var ErrBadUpstreamBody = errors.New("ai: generator returned invalid JSON")

// Generator forwards generation requests to the Python model service.
type Generator struct {
	url string
	hc  *http.Client
}

func NewGenerator(baseURL string, hc *http.Client) *Generator {
	if hc == nil {
		hc = &http.Client{Timeout: 60 * time.Second}
	}
	return &Generator{url: strings.TrimRight(baseURL, "/") + "/ai/generate", hc: hc}
}

// Forward posts body as-is and returns the service's JSON reply. Non-2xx
// replies are errors.
func (g *Generator) Forward(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("ai: generator status %d", resp.StatusCode)
	}
	out, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(out) {
		return nil, ErrBadUpstreamBody
	}
	return out, nil
}
