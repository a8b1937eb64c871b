package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

func TestModeFor(t *testing.T) {
	cases := map[string]Mode{
		"":                              ModeDefault,
		"   ":                           ModeDefault,
		"Why wheat?":                    ModeDetailed,
		"Tell me MORE INFO about rice":  ModeDetailed,
		"what is the science behind it": ModeDetailed,
		"When should I sow?":            ModeFollowUp,
		"Is cotton profitable":          ModeFollowUp,
	}
	for q, want := range cases {
		assert.Equal(t, want, ModeFor(q), q)
	}
}

func TestBuildPrompt(t *testing.T) {
	req := ExplainRequest{
		Soil:  json.RawMessage(`{"ph":6.5}`),
		Crops: json.RawMessage(`[{"crop":"Wheat"}]`),
	}
	p := BuildPrompt(req)
	assert.Contains(t, p, "**Soil Data:** {\n  \"ph\": 6.5\n}")
	assert.Contains(t, p, "**Weather Conditions:** null")
	assert.Contains(t, p, "Indian Rupees (INR)")
	assert.Contains(t, p, "monsoon, winter, summer")
	assert.Contains(t, p, "1. Start with a clear statement")
	assert.NotContains(t, p, "The farmer is asking")

	req.Prompt = "  how does pH matter? "
	p = BuildPrompt(req)
	assert.Contains(t, p, `The farmer is asking: "how does pH matter?"`)
	assert.Contains(t, p, "scientific backing")

	req.Prompt = "Which crop first?"
	p = BuildPrompt(req)
	assert.Contains(t, p, `The farmer is asking: "Which crop first?"`)
	assert.Contains(t, p, "immediately act on")
}

func TestFallback(t *testing.T) {
	assert.Equal(t,
		"Based on your soil and weather conditions, I recommend these crops: Wheat, Rice. Start with Wheat this season because it ranks highest for your current conditions.",
		Fallback([]byte(`[{"crop":"Wheat","suitability":"High"},{"name":"Rice"},{"other":1}]`)))
	assert.Contains(t, Fallback([]byte(`["Maize"]`)), "I recommend these crops: Maize.")
	assert.Contains(t, Fallback(nil), "recommended crops suit your land")
}

func TestMockEchoesQuestion(t *testing.T) {
	out, err := NewMock().Generate(context.Background(), BuildPrompt(ExplainRequest{Prompt: "When to sow?"}))
	require.NoError(t, err)
	assert.Contains(t, out, `On your question "When to sow?"`)

	out, err = NewMock().Generate(context.Background(), BuildPrompt(ExplainRequest{}))
	require.NoError(t, err)
	assert.NotContains(t, out, "On your question")
}

func TestOpenAIClient(t *testing.T) {
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		got, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  Grow wheat.  "}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAI(srv.URL+"/", "k", "gpt-test", nil)
	out, err := c.Generate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Grow wheat.", out)
	assert.Equal(t, "gpt-test", gjson.GetBytes(got, "model").String())
	assert.Equal(t, "hello", gjson.GetBytes(got, "messages.0.content").String())
}

func TestOpenAIClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("x") == "" {
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	defer srv.Close()

	_, err := NewOpenAI(srv.URL, "k", "m", nil).Generate(context.Background(), "p")
	assert.Error(t, err)

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer empty.Close()
	_, err = NewOpenAI(empty.URL, "k", "m", nil).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewClientChain(t *testing.T) {
	c, err := NewClient(context.Background(), Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", c.Name())

	c, err = NewClient(context.Background(), Config{LLMEndpoint: "http://llm", LLMAPIKey: "k"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Name())

	c, err = NewClient(context.Background(), Config{LLMEndpoint: "http://llm"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", c.Name())
}

type failing struct{}

func (failing) Name() string { return "failing" }
func (failing) Generate(context.Context, string) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestExplainerFallsBack(t *testing.T) {
	e := NewExplainer(failing{}, zap.NewNop(), nil)
	res := e.Explain(context.Background(), ExplainRequest{
		Crops:  json.RawMessage(`[{"crop":"Rice"}]`),
		Prompt: "why rice",
	})
	assert.False(t, res.Success)
	assert.Equal(t, ModeDetailed, res.Mode)
	assert.Contains(t, res.Text, "I recommend these crops: Rice.")

	res = NewExplainer(nil, zap.NewNop(), nil).Explain(context.Background(), ExplainRequest{})
	assert.True(t, res.Success)
	assert.Equal(t, "mock", res.Provider)
}

func TestGeneratorForward(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ai/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		switch gjson.GetBytes(b, "mode").String() {
		case "fail":
			w.WriteHeader(http.StatusInternalServerError)
		case "garbage":
			_, _ = w.Write([]byte("not json"))
		default:
			_, _ = w.Write([]byte(`{"plan":"rotate","lat":` + gjson.GetBytes(b, "lat").Raw + `}`))
		}
	}))
	defer srv.Close()

	g := NewGenerator(srv.URL+"/", nil)
	out, err := g.Forward(context.Background(), []byte(`{"lat":18.5}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"plan":"rotate","lat":18.5}`, string(out))

	_, err = g.Forward(context.Background(), []byte(`{"mode":"fail"}`))
	assert.Error(t, err)

	_, err = g.Forward(context.Background(), []byte(`{"mode":"garbage"}`))
	assert.ErrorIs(t, err, ErrBadUpstreamBody)
}
