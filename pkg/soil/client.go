package soil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"krishi/pkg/geo"
	"krishi/pkg/metrics"
	"krishi/pkg/ratelimit"
	"krishi/pkg/reading"
)

const (
	depth       = "0-5cm"
	limiterKey  = "soilgrids"
	userAgent   = "krishi-ai/1.0 (farmer dashboard)"
	maxBodySize = 4 << 20
)

var properties = []string{"nitrogen", "phh2o", "soc", "cec"}

var (
	ErrTimeout   = errors.New("soil data request timed out")
	ErrMalformed = errors.New("soil: malformed SoilGrids response")
)

// RateLimitError is returned before any request is made when the SoilGrids
// quota for the current window is spent.
type RateLimitError struct{ Decision ratelimit.Decision }

func (e *RateLimitError) Error() string { return e.Decision.Message() }

// LocationError means the geocoder had no match for the place.
type LocationError struct{ City, State string }

func (e *LocationError) Error() string {
	return fmt.Sprintf("Could not find coordinates for %s, %s", e.City, e.State)
}

type Config struct {
	SoilGridsURL string
	NominatimURL string
	Timeout      time.Duration
}

type Client struct {
	cfg     Config
	http    *http.Client
	limiter ratelimit.Limiter
	log     *zap.Logger
	metrics *metrics.Metrics
}

func NewClient(cfg Config, limiter ratelimit.Limiter, hc *http.Client, log *zap.Logger, m *metrics.Metrics) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	cfg.SoilGridsURL = strings.TrimRight(cfg.SoilGridsURL, "/")
	cfg.NominatimURL = strings.TrimRight(cfg.NominatimURL, "/")
	return &Client{cfg: cfg, http: hc, limiter: limiter, log: log, metrics: m}
}

// Fetch counts one call against the quota, then queries SoilGrids within
// the configured timeout.
func (c *Client) Fetch(ctx context.Context, lat, lon float64) (Data, error) {
	if err := c.allow(ctx); err != nil {
		return Data{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	q := url.Values{
		"lat":      {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":      {strconv.FormatFloat(lon, 'f', -1, 64)},
		"property": properties,
		"depth":    {depth},
	}
	doc, err := c.getJSON(ctx, c.cfg.SoilGridsURL+"/properties/query?"+q.Encode())
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Data{}, ErrTimeout
		}
		return Data{}, err
	}
	raw, err := parse(doc)
	if err != nil {
		return Data{}, err
	}
	return Convert(raw), nil
}

// FromLocation resolves a place through Nominatim when no coordinates
// were given. Geocoding and the SoilGrids query share one timeout.
func (c *Client) FromLocation(ctx context.Context, loc geo.Location) (Data, error) {
	if loc.HasCoords() {
		return c.Fetch(ctx, *loc.Lat, *loc.Lon)
	}
	if loc.Country == "" {
		loc.Country = "IN"
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	lat, lon, err := c.Geocode(ctx, loc)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Data{}, ErrTimeout
		}
		return Data{}, err
	}
	return c.Fetch(ctx, lat, lon)
}

func (c *Client) Geocode(ctx context.Context, loc geo.Location) (float64, float64, error) {
	q := url.Values{"format": {"json"}, "q": {loc.Query()}, "limit": {"1"}}
	doc, err := c.getJSON(ctx, c.cfg.NominatimURL+"/search?"+q.Encode())
	if err != nil {
		return 0, 0, err
	}
	// Nominatim sends coordinates as strings
	lat, lon := doc.Get("0.lat"), doc.Get("0.lon")
	la, errLa := strconv.ParseFloat(lat.String(), 64)
	lo, errLo := strconv.ParseFloat(lon.String(), 64)
	if !lat.Exists() || !lon.Exists() || errLa != nil || errLo != nil {
		return 0, 0, &LocationError{City: loc.City, State: loc.State}
	}
	return la, lo, nil
}

func (c *Client) allow(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	d, err := c.limiter.Allow(ctx, limiterKey)
	if err != nil {
		// fail open
		c.log.Warn("soil rate limiter unavailable, allowing call", zap.Error(err))
		return nil
	}
	if !d.Allowed {
		c.metrics.RateLimited("soil")
		return &RateLimitError{Decision: d}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, u string) (gjson.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return gjson.Result{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("soil: %s returned %d", req.URL.Host, resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: invalid JSON", ErrMalformed)
	}
	return gjson.ParseBytes(body), nil
}

func parse(doc gjson.Result) (Raw, error) {
	layers := doc.Get("properties.layers")
	if !layers.IsArray() {
		return Raw{}, fmt.Errorf("%w: no layers", ErrMalformed)
	}
	median := func(name string) reading.Value {
		v := layers.Get(`#(name=="` + name + `").depths.0.values.Q0\.5`)
		if v.Type != gjson.Number {
			return reading.Missing
		}
		// SoilGrids reports 0 for cells it has no data for
		return reading.NonZero(v.Float())
	}
	return Raw{
		Nitrogen: median("nitrogen"),
		PHH2O:    median("phh2o"),
		SOC:      median("soc"),
		CEC:      median("cec"),
	}, nil
}
