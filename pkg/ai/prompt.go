package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type Mode int

const (
	ModeDefault Mode = iota
	ModeDetailed
	ModeFollowUp
)

func (m Mode) String() string {
	switch m {
	case ModeDetailed:
		return "detailed"
	case ModeFollowUp:
		return "follow-up"
	}
	return "default"
}

var detailKeywords = []string{"explain", "why", "how", "detail", "science", "deeper", "more info"}

// ModeFor picks the answer style from the farmer's question.
func ModeFor(question string) Mode {
	q := strings.ToLower(strings.TrimSpace(question))
	if q == "" {
		return ModeDefault
	}
	for _, k := range detailKeywords {
		if strings.Contains(q, k) {
			return ModeDetailed
		}
	}
	return ModeFollowUp
}

// ExplainRequest carries the dashboard state as the client sent it.
type ExplainRequest struct {
	Soil    json.RawMessage `json:"soil"`
	Weather json.RawMessage `json:"weather"`
	Market  json.RawMessage `json:"market"`
	Crops   json.RawMessage `json:"crops"`
	Prompt  string          `json:"prompt"`
}

func pretty(raw json.RawMessage) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return "null"
	}
	return buf.String()
}

func systemPrompt(r ExplainRequest) string {
	return fmt.Sprintf(`You are an AI farming assistant helping Indian farmers understand crop recommendations. You have access to:

**Soil Data:** %s
**Weather Conditions:** %s
**Market Prices:** %s
**Recommended Crops:** %s

CONTEXT:
- All monetary values are in Indian Rupees (INR), not USD
- Revenue figures represent expected income per crop cycle/season
- Weather data follows Indian seasonal patterns (monsoon, winter, summer)
- Market conditions reflect Indian agricultural markets and demand

STRICT INSTRUCTIONS:
- Give SPECIFIC, ACTIONABLE recommendations, never say "you know your farm best"
- Provide DEFINITIVE advice based on the data provided
- Use confident language: "I recommend", "This crop will perform well", "Based on your conditions"
- Avoid vague statements like "it depends on you" or "choose what works for you"
- Use simple language but be decisive and specific
- Focus on concrete benefits and clear reasoning`,
		pretty(r.Soil), pretty(r.Weather), pretty(r.Market), pretty(r.Crops))
}

const defaultAsk = `Please explain in specific terms why these crops were recommended for this farmer's land.

Be DEFINITIVE and SPECIFIC in your recommendations. Structure your response like this:
1. Start with a clear statement: "Based on your soil and weather conditions, I recommend these crops:"
2. For each crop, give SPECIFIC reasons why it will work well (soil pH match, ideal rainfall, strong market demand)
3. Mention expected revenue in INR and why it's profitable
4. End with a clear action plan: "Start with [specific crop] this season because [specific reason]"

DO NOT use vague or deferential language such as "you know your farm best" or "it depends on your preference".
DO say "I recommend [crop] because [specific reason]".

Keep it under 3 paragraphs but be decisive and helpful.`

const detailedAsk = `The farmer is asking: "%s"

Since they're asking for more details, provide a thorough explanation with scientific backing. Include:
- Specific soil properties and how they benefit each crop
- Weather patterns and their agricultural impact
- Indian market analysis and INR price trends
- Crop rotation benefits and soil health impacts
- Specific agricultural techniques for Indian farming conditions

Use technical terms but explain them clearly. Be thorough AND decisive: give specific recommendations, not general advice.`

const followUpAsk = `The farmer is asking: "%s"

Answer their question based on the soil, weather, market, and crop data provided. Your response should be:
- Specific and actionable (not vague advice)
- Focused on Indian farming conditions and INR economics
- Decisive, with clear recommendations based on the data
- Practical, something the farmer can immediately act on

Use phrases like "Based on your data, I recommend..." and "The best strategy for your farm is...".
Do not tell farmers to make their own decisions; that is why they are asking you.`

// BuildPrompt renders the full prompt sent to the model.
func BuildPrompt(r ExplainRequest) string {
	q := strings.TrimSpace(r.Prompt)
	var ask string
	switch ModeFor(q) {
	case ModeDetailed:
		ask = fmt.Sprintf(detailedAsk, q)
	case ModeFollowUp:
		ask = fmt.Sprintf(followUpAsk, q)
	default:
		ask = defaultAsk
	}
	return systemPrompt(r) + "\n\n" + ask
}
