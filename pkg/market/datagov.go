package market

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
)

// ErrNotApplicable means a provider has nothing to offer for this query and
// the next one should be tried without logging a failure.
var ErrNotApplicable = errors.New("market: provider not applicable")

type Provider interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]Price, error)
}

// DataGov reads the daily mandi price resource on api.data.gov.in.
type DataGov struct {
	baseURL  string
	resource string
	apiKey   string
	http     *http.Client
}

func NewDataGov(baseURL, resource, apiKey string, hc *http.Client) *DataGov {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &DataGov{baseURL: strings.TrimRight(baseURL, "/"), resource: resource, apiKey: apiKey, http: hc}
}

func (d *DataGov) Name() string { return "data.gov.in" }

func (d *DataGov) Fetch(ctx context.Context, q Query) ([]Price, error) {
	if d.apiKey == "" || q.State == "" {
		return nil, ErrNotApplicable
	}
	params := url.Values{
		"api-key":        {d.apiKey},
		"format":         {"json"},
		"limit":          {"100"},
		"filters[state]": {q.State},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/"+d.resource+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("data.gov.in returned %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("data.gov.in: invalid JSON")
	}

	records := gjson.GetBytes(body, "records")
	if !records.IsArray() {
		return nil, errors.New("data.gov.in: no records field")
	}
	var out []Price
	records.ForEach(func(_, r gjson.Result) bool {
		p, ok := quote{
			Commodity:   r.Get("commodity").String(),
			Variety:     r.Get("variety").String(),
			Market:      r.Get("market").String(),
			ArrivalDate: r.Get("arrival_date").String(),
			Modal:       num(r.Get("modal_price")),
			Min:         num(r.Get("min_price")),
			Max:         num(r.Get("max_price")),
		}.toPrice()
		if ok {
			out = append(out, p)
		}
		return true
	})
	return out, nil
}

// num reads prices sent either as numbers or as strings like "2,150".
func num(r gjson.Result) float64 {
	switch r.Type {
	case gjson.Number:
		return r.Float()
	case gjson.String:
		return parsePrice(r.String())
	}
	return 0
}

func parsePrice(s string) float64 {
	s = strings.NewReplacer(",", "", "₹", "", "Rs.", "", "Rs", "", " ", "").Replace(strings.TrimSpace(s))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
