package ai

import (
	"context"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"krishi/pkg/metrics"
)

const explainTimeout = 30 * time.Second

type Explanation struct {
	Success  bool
	Text     string
	Provider string
	Mode     Mode
}

type Explainer struct {
	client  Client
	log     *zap.Logger
	metrics *metrics.Metrics
	timeout time.Duration
}

func NewExplainer(c Client, log *zap.Logger, m *metrics.Metrics) *Explainer {
	if c == nil {
		c = NewMock()
	}
	return &Explainer{client: c, log: log, metrics: m, timeout: explainTimeout}
}

func (e *Explainer) Provider() string { return e.client.Name() }

// Explain asks the model and falls back to a canned explanation built from
// the crop list when the model fails.
func (e *Explainer) Explain(ctx context.Context, r ExplainRequest) Explanation {
	mode := ModeFor(r.Prompt)
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	text, err := e.client.Generate(ctx, BuildPrompt(r))
	if err != nil {
		e.log.Warn("explanation failed, using fallback",
			zap.String("provider", e.client.Name()),
			zap.Stringer("mode", mode),
			zap.Error(err))
		e.metrics.Fallback("ai")
		return Explanation{Text: Fallback(r.Crops), Provider: e.client.Name(), Mode: mode}
	}
	return Explanation{Success: true, Text: text, Provider: e.client.Name(), Mode: mode}
}

// Fallback names the recommended crops, accepting either plain strings or
// objects with a crop or name field.
func Fallback(crops []byte) string {
	var names []string
	gjson.ParseBytes(crops).ForEach(func(_, v gjson.Result) bool {
		name := v.String()
		if v.IsObject() {
			name = v.Get("crop").String()
			if name == "" {
				name = v.Get("name").String()
			}
		}
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
		return true
	})
	if len(names) == 0 {
		return "Based on your soil and weather conditions, the recommended crops suit your land this season. Check soil pH and expected rainfall before sowing."
	}
	return "Based on your soil and weather conditions, I recommend these crops: " + strings.Join(names, ", ") +
		". Start with " + names[0] + " this season because it ranks highest for your current conditions."
}
