package weather

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

	"krishi/pkg/geo"
	"krishi/pkg/reading"
)

var (
	ErrNotConfigured    = errors.New("weather: OpenWeather API key not configured")
	ErrLocationNotFound = errors.New("weather: location not found")
	ErrMalformed        = errors.New("weather: malformed provider response")
)

// OpenWeather talks to api.openweathermap.org (data/2.5 and geo/1.0).
type OpenWeather struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewOpenWeather(baseURL, apiKey string, hc *http.Client) *OpenWeather {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &OpenWeather{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, http: hc}
}

func (c *OpenWeather) Configured() bool { return c.apiKey != "" }

func (c *OpenWeather) Current(ctx context.Context, lat, lon float64) (Current, error) {
	doc, err := c.get(ctx, "/data/2.5/weather", coords(lat, lon))
	if err != nil {
		return Current{}, err
	}
	if !isNum(doc.Get("main.temp")) || !isNum(doc.Get("main.humidity")) ||
		!doc.Get("weather.0.main").Exists() || !isNum(doc.Get("wind.speed")) {
		return Current{}, fmt.Errorf("%w: current conditions", ErrMalformed)
	}

	cur := Current{
		Temp:        reading.Of(reading.Round(doc.Get("main.temp").Float(), 0)),
		Humidity:    reading.Of(doc.Get("main.humidity").Float()),
		Rainfall:    reading.Of(doc.Get("rain.1h").Float()), // absent means no rain
		Condition:   doc.Get("weather.0.main").String(),
		RainChance:  reading.Missing,
		WindSpeed:   kmh(doc.Get("wind.speed").Float()),
		Description: doc.Get("weather.0.description").String(),
	}
	if cl := doc.Get("clouds.all"); isNum(cl) {
		cur.RainChance = reading.Of(cl.Float())
	}
	return cur, nil
}

// Forecast samples the 3-hourly list once per day, starting now.
func (c *OpenWeather) Forecast(ctx context.Context, lat, lon float64, now time.Time) ([]ForecastDay, error) {
	doc, err := c.get(ctx, "/data/2.5/forecast", coords(lat, lon))
	if err != nil {
		return nil, err
	}
	list := doc.Get("list")
	if !list.IsArray() {
		return nil, fmt.Errorf("%w: forecast list", ErrMalformed)
	}

	items := list.Array()
	days := make([]ForecastDay, 0, forecastDays)
	for i := 0; i < len(items) && len(days) < forecastDays; i += 8 {
		it := items[i]
		if !isNum(it.Get("main.temp")) {
			return nil, fmt.Errorf("%w: forecast item %d", ErrMalformed, i)
		}
		day := ForecastDay{
			Day:         DayLabel(now, len(days)),
			Temp:        reading.Of(reading.Round(it.Get("main.temp").Float(), 0)),
			Condition:   Emoji(it.Get("weather.0.icon").String()),
			Humidity:    reading.Missing,
			Wind:        reading.Placeholder,
			Description: it.Get("weather.0.description").String(),
		}
		if h := it.Get("main.humidity"); isNum(h) {
			day.Humidity = reading.Of(h.Float())
		}
		if w := it.Get("wind.speed"); isNum(w) {
			day.Wind = kmh(w.Float())
		}
		days = append(days, day)
	}
	return days, nil
}

// Geocode resolves "city,state[,country]" to coordinates.
func (c *OpenWeather) Geocode(ctx context.Context, loc geo.Location) (float64, float64, error) {
	q := loc.Query()
	doc, err := c.get(ctx, "/geo/1.0/direct", url.Values{"q": {q}, "limit": {"1"}})
	if err != nil {
		return 0, 0, err
	}
	first := doc.Get("0")
	if !isNum(first.Get("lat")) || !isNum(first.Get("lon")) {
		return 0, 0, fmt.Errorf("%w: %s", ErrLocationNotFound, q)
	}
	return first.Get("lat").Float(), first.Get("lon").Float(), nil
}

func (c *OpenWeather) get(ctx context.Context, path string, q url.Values) (gjson.Result, error) {
	if !c.Configured() {
		return gjson.Result{}, ErrNotConfigured
	}
	q.Set("appid", c.apiKey)
	if strings.HasPrefix(path, "/data/") {
		q.Set("units", "metric")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return gjson.Result{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return gjson.Result{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, fmt.Errorf("weather: %s returned %d", path, resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: invalid JSON from %s", ErrMalformed, path)
	}
	return gjson.ParseBytes(body), nil
}

func coords(lat, lon float64) url.Values {
	return url.Values{
		"lat": {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon": {strconv.FormatFloat(lon, 'f', -1, 64)},
	}
}

func isNum(r gjson.Result) bool { return r.Type == gjson.Number }

// kmh converts m/s to a rounded "N km/h" label.
func kmh(ms float64) string {
	return strconv.FormatFloat(reading.Round(ms*3.6, 0), 'f', -1, 64) + " km/h"
}
