package market

import "time"

const basePrice = 1800.0

type mockRow struct {
	crop     string
	price    float64
	change   string
	value    float64
	lastWeek float64
}

var mockTable = map[string]mockRow{
	"wheat": {"Wheat", 2150, "+5%", 102.38, 2047.62},
	"rice":  {"Rice", 1980, "-2%", -40.40, 2020.40},
	"maize": {"Maize", 1750, "+8%", 129.63, 1620.37},
	"bajra": {"Bajra", 1650, "+3%", 48.06, 1601.94},
	"jowar": {"Jowar", 1580, "-1%", -15.96, 1595.96},
}

// Mock prices the requested crops from the built-in table; unknown crops
// are left out.
func Mock(q Query, now time.Time) []Price {
	loc := q.Location()
	if loc == "" {
		loc = "Local Market"
	}
	out := make([]Price, 0, len(q.Crops))
	for _, c := range q.Crops {
		row, ok := mockTable[normCrop(c)]
		if !ok {
			continue
		}
		out = append(out, Price{
			Crop:        row.crop,
			Price:       row.price,
			Change:      row.change,
			ChangeValue: row.value,
			LastWeek:    row.lastWeek,
			Demand:      DemandFor(row.price, basePrice),
			Quality:     qualityFor(row.crop),
			Location:    loc,
			Unit:        "quintal",
			LastUpdated: now.UTC().Format(time.RFC3339),
		})
	}
	return out
}
