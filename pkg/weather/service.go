package weather

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"krishi/pkg/geo"
	"krishi/pkg/metrics"
)

type Provider interface {
	Current(ctx context.Context, lat, lon float64) (Current, error)
	Forecast(ctx context.Context, lat, lon float64, now time.Time) ([]ForecastDay, error)
	Geocode(ctx context.Context, loc geo.Location) (float64, float64, error)
}

type Result struct {
	Success bool
	Report  Report
}

type Service struct {
	provider Provider
	log      *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewService(p Provider, log *zap.Logger, m *metrics.Metrics, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{provider: p, log: log, metrics: m, now: now}
}

// Lookup never fails: provider trouble turns into a placeholder report with
// Success false.
func (s *Service) Lookup(ctx context.Context, loc geo.Location) Result {
	now := s.now()

	var lat, lon float64
	switch {
	case loc.HasCoords():
		lat, lon = *loc.Lat, *loc.Lon
	case loc.HasPlace():
		var err error
		lat, lon, err = s.provider.Geocode(ctx, loc)
		if err != nil {
			return s.fallback(now, err)
		}
	default:
		return Result{Success: true, Report: Placeholder(now, alertNeedLocation)}
	}

	rep, err := s.fetch(ctx, lat, lon, now)
	if err != nil {
		return s.fallback(now, err)
	}
	return Result{Success: true, Report: rep}
}

func (s *Service) fetch(ctx context.Context, lat, lon float64, now time.Time) (Report, error) {
	var (
		cur  Current
		days []ForecastDay
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cur, err = s.provider.Current(gctx, lat, lon)
		return err
	})
	g.Go(func() error {
		var err error
		days, err = s.provider.Forecast(gctx, lat, lon, now)
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}
	return Report{Current: cur, WeeklyForecast: days, Alerts: Alerts(cur)}, nil
}

func (s *Service) fallback(now time.Time, err error) Result {
	if errors.Is(err, ErrNotConfigured) {
		s.log.Debug("weather provider not configured, using placeholders")
	} else {
		s.log.Warn("weather lookup failed, using placeholders", zap.Error(err))
	}
	s.metrics.Fallback("weather")
	return Result{Success: false, Report: Placeholder(now, alertUnavailable)}
}
