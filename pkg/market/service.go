package market

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"krishi/pkg/metrics"
	"krishi/pkg/reading"
)

const (
	maxLive     = 5
	SourceMock  = "mock"
	historyDays = 30
	maxHistory  = 365
)

type Result struct {
	Prices []Price
	Source string
}

type Service struct {
	providers []Provider
	log       *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewService(providers []Provider, log *zap.Logger, m *metrics.Metrics, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{providers: providers, log: log, metrics: m, now: now}
}

// Prices tries each live provider in turn and falls back to the built-in
// table. It never fails.
func (s *Service) Prices(ctx context.Context, q Query) Result {
	if len(q.Crops) == 0 {
		q.Crops = DefaultCrops
	}
	for _, p := range s.providers {
		prices, err := p.Fetch(ctx, q)
		switch {
		case errors.Is(err, ErrNotApplicable):
			continue
		case err != nil:
			s.log.Warn("market provider failed", zap.String("provider", p.Name()), zap.Error(err))
			s.metrics.Fallback("market:" + p.Name())
			continue
		case len(prices) == 0:
			s.log.Debug("market provider returned no prices", zap.String("provider", p.Name()))
			continue
		}
		if len(prices) > maxLive {
			prices = prices[:maxLive]
		}
		return Result{Prices: prices, Source: p.Name()}
	}
	return Result{Prices: Mock(q, s.now()), Source: SourceMock}
}

type History struct {
	Dates  []string  `json:"dates"`
	Prices []float64 `json:"prices"`
}

// History is a synthetic daily series around the base price, moving within
// five percent on a two week cycle. The same date always has the same price.
func (s *Service) History(days int) History {
	if days <= 0 {
		days = historyDays
	}
	if days > maxHistory {
		days = maxHistory
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	h := History{Dates: make([]string, 0, days), Prices: make([]float64, 0, days)}
	for i := days - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		wave := 0.05 * math.Sin(2*math.Pi*float64(d.Unix()/86400)/14)
		h.Dates = append(h.Dates, d.Format("2006-01-02"))
		h.Prices = append(h.Prices, reading.Round(basePrice*(1+wave), 0))
	}
	return h
}

var marketsByState = map[string][]string{
	"maharashtra":   {"Pune", "Mumbai", "Nashik", "Aurangabad", "Nagpur"},
	"punjab":        {"Amritsar", "Ludhiana", "Jalandhar", "Patiala"},
	"haryana":       {"Karnal", "Sirsa", "Hisar", "Kurukshetra"},
	"uttar pradesh": {"Kanpur", "Lucknow", "Agra", "Varanasi"},
	"rajasthan":     {"Jaipur", "Jodhpur", "Kota", "Bikaner"},
	"gujarat":       {"Ahmedabad", "Rajkot", "Surat", "Vadodara"},
}

func Nearby(state string) []string {
	if m, ok := marketsByState[strings.ToLower(strings.TrimSpace(state))]; ok {
		return append([]string(nil), m...)
	}
	return []string{"Local Market"}
}
