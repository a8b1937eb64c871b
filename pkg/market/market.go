// Package market assembles mandi price lists from data.gov.in, an optional
// HTML price board and a built-in table, in that order.
package market

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"

	"krishi/pkg/reading"
)

type Demand string

const (
	DemandLow      Demand = "Low"
	DemandMedium   Demand = "Medium"
	DemandHigh     Demand = "High"
	DemandVeryHigh Demand = "Very High"
)

// DemandFor buckets the current price against a reference average.
func DemandFor(price, avg float64) Demand {
	if avg <= 0 {
		return DemandMedium
	}
	switch ratio := price / avg; {
	case ratio > 1.15:
		return DemandVeryHigh
	case ratio > 1.05:
		return DemandHigh
	case ratio > 0.95:
		return DemandMedium
	}
	return DemandLow
}

type Price struct {
	Crop        string  `json:"crop"`
	Price       float64 `json:"price"`
	Change      string  `json:"change"`
	ChangeValue float64 `json:"changeValue"`
	LastWeek    float64 `json:"lastWeek"`
	Demand      Demand  `json:"demand"`
	Quality     string  `json:"quality"`
	Location    string  `json:"location"`
	Market      string  `json:"market,omitempty"`
	Unit        string  `json:"unit,omitempty"`
	LastUpdated string  `json:"lastUpdated,omitempty"`
}

var qualityGrades = []string{"FAQ", "Premium", "Grade A", "Grade B", "Medium", "Superior"}

// qualityFor picks a stable grade per crop name.
func qualityFor(crop string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(crop)))
	return qualityGrades[h.Sum32()%uint32(len(qualityGrades))]
}

// ChangeLabel formats the week-on-week move as "+4.8%" or "-2.0%".
func ChangeLabel(current, lastWeek float64) string {
	if lastWeek == 0 {
		return "0.0%"
	}
	pct := (current - lastWeek) / lastWeek * 100
	sign := ""
	if current > lastWeek {
		sign = "+"
	}
	return fmt.Sprintf("%s%.1f%%", sign, pct)
}

// quote is one raw row from any live source, prices per quintal.
type quote struct {
	Commodity   string
	Variety     string
	Market      string
	ArrivalDate string
	Modal       float64
	Min         float64
	Max         float64
}

// toPrice maps a live quote; ok is false for rows without a usable price.
func (q quote) toPrice() (Price, bool) {
	price := q.Modal
	if price <= 0 {
		price = q.Max
	}
	if price <= 0 {
		return Price{}, false
	}
	lo, hi := q.Min, q.Max
	if lo <= 0 {
		lo = price
	}
	if hi <= 0 {
		hi = price
	}
	mid := (lo + hi) / 2

	p := Price{
		Crop:        orDefault(q.Commodity, "Unknown"),
		Price:       price,
		Change:      ChangeLabel(price, mid),
		ChangeValue: reading.Round(price-mid, 2),
		LastWeek:    reading.Round(mid, 2),
		Demand:      DemandFor(price, mid),
		Quality:     orDefault(q.Variety, "FAQ"),
		Location:    orDefault(q.Market, "Unknown") + " Mandi",
		Market:      q.Market,
		Unit:        "quintal",
		LastUpdated: q.ArrivalDate,
	}
	return p, true
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

var DefaultCrops = []string{"wheat", "rice", "maize"}

// ParseCrops accepts a JSON array or a comma separated list.
func ParseCrops(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultCrops
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		list = strings.Split(raw, ",")
	}
	out := make([]string, 0, len(list))
	for _, c := range list {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return DefaultCrops
	}
	return out
}

// Query is what the dashboard knows about the farmer's market.
type Query struct {
	City  string
	State string
	Crops []string
}

// Location is the label shown above the price list.
func (q Query) Location() string {
	switch {
	case q.City != "" && q.State != "":
		return q.City + ", " + q.State
	case q.State != "":
		return q.State
	}
	return ""
}

func normCrop(c string) string { return strings.ToLower(strings.TrimSpace(c)) }
