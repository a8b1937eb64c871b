package recommend

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"krishi/pkg/reading"
)

const (
	DefaultCriteria = "soil, weather and market conditions"
	topN            = 3

	// score used for every crop when no reading is available
	neutralScore = 0.5
)

type Suitability string

const (
	VeryHigh Suitability = "Very High"
	High     Suitability = "High"
	Medium   Suitability = "Medium"
)

func SuitabilityFor(score float64) Suitability {
	switch {
	case score >= 0.8:
		return VeryHigh
	case score >= 0.5:
		return High
	default:
		return Medium
	}
}

// Conditions are the readings crops are scored on. Missing values are
// skipped.
type Conditions struct {
	PH            reading.Value
	Temp          reading.Value
	OrganicMatter reading.Value
}

type Recommendation struct {
	Crop            string      `json:"crop"`
	Suitability     Suitability `json:"suitability"`
	ExpectedRevenue string      `json:"expectedRevenue"`
}

type Meta struct {
	Explanation string `json:"explanation"`
}

type Result struct {
	Criteria        string           `json:"criteria"`
	Recommendations []Recommendation `json:"recommendations"`
	Meta            Meta             `json:"meta"`
}

type Engine struct {
	catalog []Profile
}

func NewEngine(catalog []Profile) *Engine {
	if len(catalog) == 0 {
		catalog = DefaultCatalog()
	}
	return &Engine{catalog: catalog}
}

type scored struct {
	p     Profile
	score float64
}

// Recommend returns the best three crops for the given conditions. The
// ranking is deterministic: score, then revenue midpoint, then name.
func (e *Engine) Recommend(criteria string, c Conditions) Result {
	criteria = strings.TrimSpace(criteria)
	if criteria == "" {
		criteria = DefaultCriteria
	}

	ranked := make([]scored, 0, len(e.catalog))
	for _, p := range e.catalog {
		ranked = append(ranked, scored{p: p, score: Score(p, c)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if ma, mb := a.p.RevenueMin+a.p.RevenueMax, b.p.RevenueMin+b.p.RevenueMax; ma != mb {
			return ma > mb
		}
		return a.p.Name < b.p.Name
	})

	n := min(topN, len(ranked))
	recs := make([]Recommendation, 0, n)
	for _, s := range ranked[:n] {
		recs = append(recs, Recommendation{
			Crop:            s.p.Name,
			Suitability:     SuitabilityFor(s.score),
			ExpectedRevenue: Revenue(s.p, s.score),
		})
	}
	return Result{
		Criteria:        criteria,
		Recommendations: recs,
		Meta:            Meta{Explanation: "Recommended crops based on " + criteria},
	}
}

// Score is the mean fit over the readings present, in [0,1].
func Score(p Profile, c Conditions) float64 {
	var sum float64
	var n int
	if v, ok := c.PH.Float(); ok {
		sum += fitRange(v, p.PHMin, p.PHMax, 0.5)
		n++
	}
	if v, ok := c.Temp.Float(); ok {
		sum += fitRange(v, p.TempMin, p.TempMax, 5)
		n++
	}
	if v, ok := c.OrganicMatter.Float(); ok {
		sum += fitMin(v, p.MinOM)
		n++
	}
	if n == 0 {
		return neutralScore
	}
	return reading.Round(sum/float64(n), 4)
}

// fitRange is 1 inside [lo,hi] and falls off linearly outside it, reaching
// 0 at half the range width (never less than floor) past the bound.
func fitRange(v, lo, hi, floor float64) float64 {
	if v >= lo && v <= hi {
		return 1
	}
	tol := math.Max((hi-lo)/2, floor)
	d := lo - v
	if v > hi {
		d = v - hi
	}
	return math.Max(0, 1-d/tol)
}

func fitMin(v, lo float64) float64 {
	if lo <= 0 || v >= lo {
		return 1
	}
	return math.Max(0, v/lo)
}

// Revenue scales the crop's revenue range by score, e.g. "₹27k".
func Revenue(p Profile, score float64) string {
	k := p.RevenueMin + score*(p.RevenueMax-p.RevenueMin)
	return fmt.Sprintf("₹%dk", int(reading.Round(k, 0)))
}
