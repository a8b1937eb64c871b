package market

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var now = time.Date(2025, 2, 14, 6, 0, 0, 0, time.UTC)

func TestDemandFor(t *testing.T) {
	assert.Equal(t, DemandVeryHigh, DemandFor(2150, 1800))
	assert.Equal(t, DemandHigh, DemandFor(1980, 1800))
	assert.Equal(t, DemandMedium, DemandFor(1750, 1800))
	assert.Equal(t, DemandLow, DemandFor(1580, 1800))
	assert.Equal(t, DemandMedium, DemandFor(100, 0))
}

func TestChangeLabel(t *testing.T) {
	assert.Equal(t, "+2.4%", ChangeLabel(2100, 2050))
	assert.Equal(t, "-5.0%", ChangeLabel(1900, 2000))
	assert.Equal(t, "0.0%", ChangeLabel(2000, 2000))
	assert.Equal(t, "0.0%", ChangeLabel(10, 0))
}

func TestParseCrops(t *testing.T) {
	assert.Equal(t, []string{"wheat", "bajra"}, ParseCrops(`["wheat"," bajra "]`))
	assert.Equal(t, []string{"rice", "jowar"}, ParseCrops("rice, jowar,"))
	assert.Equal(t, DefaultCrops, ParseCrops(""))
	assert.Equal(t, DefaultCrops, ParseCrops("[]"))
}

func TestQuoteToPrice(t *testing.T) {
	p, ok := quote{Commodity: "Wheat", Market: "Pune", Modal: 2100, Min: 1900, Max: 2200, ArrivalDate: "14/02/2025"}.toPrice()
	require.True(t, ok)
	assert.Equal(t, 2100.0, p.Price)
	assert.Equal(t, 2050.0, p.LastWeek)
	assert.Equal(t, 50.0, p.ChangeValue)
	assert.Equal(t, "+2.4%", p.Change)
	assert.Equal(t, DemandMedium, p.Demand)
	assert.Equal(t, "FAQ", p.Quality)
	assert.Equal(t, "Pune Mandi", p.Location)
	assert.Equal(t, "quintal", p.Unit)

	p, ok = quote{Commodity: "Onion", Max: 1500}.toPrice()
	require.True(t, ok)
	assert.Equal(t, 1500.0, p.Price)
	assert.Equal(t, "Unknown Mandi", p.Location)

	_, ok = quote{Commodity: "Garlic"}.toPrice()
	assert.False(t, ok)
}

func TestMockIsDeterministic(t *testing.T) {
	q := Query{City: "Pune", State: "Maharashtra", Crops: []string{"Wheat", "quinoa", "rice"}}
	a, b := Mock(q, now), Mock(q, now)
	require.Len(t, a, 2)
	assert.Equal(t, a, b)
	assert.Equal(t, "Wheat", a[0].Crop)
	assert.Equal(t, DemandVeryHigh, a[0].Demand)
	assert.Equal(t, "Pune, Maharashtra", a[0].Location)
	assert.Contains(t, qualityGrades, a[0].Quality)

	assert.Equal(t, "Local Market", Mock(Query{Crops: []string{"maize"}}, now)[0].Location)
}

const dataGovBody = `{"records":[
	{"state":"Maharashtra","market":"Pune","commodity":"Wheat","variety":"Lokwan","arrival_date":"14/02/2025","min_price":"1900","max_price":"2200","modal_price":"2100"},
	{"market":"Nashik","commodity":"Onion","min_price":"0","max_price":"0","modal_price":"0"},
	{"market":"Nagpur","commodity":"Rice","min_price":2000,"max_price":2400,"modal_price":2500}
]}`

func TestDataGov(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/res-id", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("api-key"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, "Maharashtra", r.URL.Query().Get("filters[state]"))
		fmt.Fprint(w, dataGovBody)
	}))
	defer srv.Close()

	d := NewDataGov(srv.URL, "res-id", "key", nil)
	prices, err := d.Fetch(context.Background(), Query{State: "Maharashtra"})
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, "Lokwan", prices[0].Quality)
	assert.Equal(t, "Rice", prices[1].Crop)
	assert.Equal(t, DemandHigh, prices[1].Demand) // 2500 vs 2200

	_, err = d.Fetch(context.Background(), Query{})
	assert.ErrorIs(t, err, ErrNotApplicable)
	_, err = NewDataGov(srv.URL, "res-id", "", nil).Fetch(context.Background(), Query{State: "Punjab"})
	assert.ErrorIs(t, err, ErrNotApplicable)
}

const boardHTML = `<html><body>
<table><tr><td>Navigation</td></tr><tr><td>Home</td></tr></table>
<table>
  <tr><th>State</th><th>Market Name</th><th>Commodity</th><th>Variety</th><th>Min Price</th><th>Max Price</th><th>Modal Price</th><th>Arrival Date</th></tr>
  <tr><td>Maharashtra</td><td>Lasalgaon</td><td>Onion</td><td>Red</td><td>1,200</td><td>1,600</td><td>₹1,450</td><td>14/02/2025</td></tr>
  <tr><td>Punjab</td><td>Khanna</td><td>Wheat</td><td>Other</td><td>2,000</td><td>2,100</td><td>2,050</td><td>14/02/2025</td></tr>
  <tr><td>Maharashtra</td><td>Pune</td><td>Tomato</td><td></td><td></td><td></td><td>-</td><td>14/02/2025</td></tr>
</table></body></html>`

func TestParseBoard(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(boardHTML))
	require.NoError(t, err)

	prices := parseBoard(doc, Query{State: "maharashtra"})
	require.Len(t, prices, 1)
	assert.Equal(t, "Onion", prices[0].Crop)
	assert.Equal(t, 1450.0, prices[0].Price)
	assert.Equal(t, 1400.0, prices[0].LastWeek)
	assert.Equal(t, "Lasalgaon Mandi", prices[0].Location)
	assert.Equal(t, "Red", prices[0].Quality)

	assert.Len(t, parseBoard(doc, Query{}), 2)
}

type stubProvider struct {
	name   string
	prices []Price
	err    error
	calls  int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Fetch(context.Context, Query) ([]Price, error) {
	s.calls++
	return s.prices, s.err
}

func newSvc(ps ...Provider) *Service {
	return NewService(ps, zap.NewNop(), nil, func() time.Time { return now })
}

func TestPricesProviderChain(t *testing.T) {
	many := make([]Price, 8)
	for i := range many {
		many[i] = Price{Crop: fmt.Sprintf("c%d", i), Price: 100}
	}
	skip := &stubProvider{name: "a", err: ErrNotApplicable}
	broken := &stubProvider{name: "b", err: errors.New("boom")}
	empty := &stubProvider{name: "c"}
	live := &stubProvider{name: "d", prices: many}
	unused := &stubProvider{name: "e", prices: many}

	res := newSvc(skip, broken, empty, live, unused).Prices(context.Background(), Query{State: "Punjab"})
	assert.Equal(t, "d", res.Source)
	assert.Len(t, res.Prices, 5)
	assert.Zero(t, unused.calls)

	res = newSvc(broken).Prices(context.Background(), Query{})
	assert.Equal(t, SourceMock, res.Source)
	assert.Len(t, res.Prices, 3)
}

func TestHistory(t *testing.T) {
	s := newSvc()
	h := s.History(0)
	require.Len(t, h.Dates, 30)
	require.Len(t, h.Prices, 30)
	assert.Equal(t, "2025-02-14", h.Dates[29])
	assert.Equal(t, "2025-01-16", h.Dates[0])
	for _, p := range h.Prices {
		assert.InDelta(t, basePrice, p, basePrice*0.05+1)
	}
	assert.Equal(t, h, s.History(30))

	short := s.History(7)
	assert.Equal(t, h.Prices[23:], short.Prices)
	assert.Len(t, s.History(10_000).Dates, 365)
}

func TestNearby(t *testing.T) {
	assert.Equal(t, []string{"Karnal", "Sirsa", "Hisar", "Kurukshetra"}, Nearby(" Haryana "))
	assert.Equal(t, []string{"Local Market"}, Nearby("Goa"))
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	prices := Mock(Query{Crops: []string{"wheat", "rice"}}, now)
	require.NoError(t, WriteXLSX(&buf, prices))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Crop", rows[0][0])
	assert.Equal(t, "Wheat", rows[1][0])
	assert.Equal(t, "2150", rows[1][1])
	assert.Equal(t, "Very High", rows[1][5])
}
