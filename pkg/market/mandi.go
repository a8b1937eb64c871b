package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"krishi/pkg/tabular"
)

// MandiBoard scrapes a public APMC price board: the first HTML table whose
// header names a commodity and a price column.
type MandiBoard struct {
	url  string
	http *http.Client
}

func NewMandiBoard(url string, hc *http.Client) *MandiBoard {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &MandiBoard{url: url, http: hc}
}

func (m *MandiBoard) Name() string { return "mandi-board" }

func (m *MandiBoard) Fetch(ctx context.Context, q Query) ([]Price, error) {
	if m.url == "" {
		return nil, ErrNotApplicable
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mandi board returned %d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	return parseBoard(doc, q), nil
}

func parseBoard(doc *goquery.Document, q Query) []Price {
	var out []Price
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return true
		}
		h := tabular.NewHeader(cells(rows.First()))
		cCrop := h.Find("commodity", "crop", "item", "commodityname")
		cModal := h.Find("modal price", "modal", "modalprice(rs/quintal)", "price")
		if !tabular.Has(cCrop, cModal) {
			return true
		}
		cMin := h.Find("min price", "minimum price", "minprice(rs/quintal)", "min")
		cMax := h.Find("max price", "maximum price", "maxprice(rs/quintal)", "max")
		cMarket := h.Find("market", "mandi", "apmc", "market name")
		cVariety := h.Find("variety", "grade")
		cDate := h.Find("arrival date", "date", "reported date")
		cState := h.Find("state")

		rows.Slice(1, rows.Length()).Each(func(_ int, tr *goquery.Selection) {
			row := cells(tr)
			if cState >= 0 && q.State != "" && !strings.EqualFold(tabular.Cell(row, cState), q.State) {
				return
			}
			p, ok := quote{
				Commodity:   tabular.Cell(row, cCrop),
				Variety:     tabular.Cell(row, cVariety),
				Market:      tabular.Cell(row, cMarket),
				ArrivalDate: tabular.Cell(row, cDate),
				Modal:       parsePrice(tabular.Cell(row, cModal)),
				Min:         parsePrice(tabular.Cell(row, cMin)),
				Max:         parsePrice(tabular.Cell(row, cMax)),
			}.toPrice()
			if ok {
				out = append(out, p)
			}
		})
		return false
	})
	return out
}

func cells(tr *goquery.Selection) []string {
	var out []string
	tr.Find("th, td").Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}
