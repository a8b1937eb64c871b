package ai

import (
	"context"
	"strings"
)

type mockClient struct{}

// NewMock answers without calling out; used when no model is configured.
func NewMock() Client { return mockClient{} }

func (mockClient) Name() string { return "mock" }

func (mockClient) Generate(_ context.Context, prompt string) (string, error) {
	var b strings.Builder
	b.WriteString("Based on your soil and weather conditions, I recommend the crops shown on your dashboard. ")
	if q := farmerQuestion(prompt); q != "" {
		b.WriteString("On your question \"" + q + "\": ")
	}
	b.WriteString("Start with the highest ranked crop this season, keep soil pH between 6.0 and 7.5 and plan irrigation around the forecast rainfall.")
	return b.String(), nil
}

func farmerQuestion(prompt string) string {
	const marker = `The farmer is asking: "`
	i := strings.Index(prompt, marker)
	if i < 0 {
		return ""
	}
	rest := prompt[i+len(marker):]
	if j := strings.Index(rest, "\"\n"); j >= 0 {
		return rest[:j]
	}
	return ""
}
