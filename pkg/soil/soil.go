// Package soil reads topsoil properties from ISRIC SoilGrids and converts
// them into the nutrient figures the dashboard shows.
package soil

import (
	"math"

	"krishi/pkg/reading"
)

type Data struct {
	Nitrogen      reading.Value `json:"nitrogen"`
	Phosphorus    reading.Value `json:"phosphorus"`
	Potassium     reading.Value `json:"potassium"`
	PH            reading.Value `json:"ph"`
	OrganicMatter reading.Value `json:"organicMatter"`
}

// Placeholder is what the card shows when nothing could be read.
func Placeholder() Data { return Data{} }

// Raw holds SoilGrids medians in their native units: nitrogen cg/kg,
// phh2o pH*10, soc dg/kg, cec mmol(c)/kg.
type Raw struct {
	Nitrogen reading.Value
	PHH2O    reading.Value
	SOC      reading.Value
	CEC      reading.Value
}

const (
	minCEC = 5.0
	maxCEC = 50.0
)

// Convert maps raw medians to percentages and pH. P and K are estimated
// from N and CEC and stay "-" without a CEC reading.
func Convert(r Raw) Data {
	var d Data
	n, hasN := r.Nitrogen.Float()
	if hasN {
		n *= 0.001
		d.Nitrogen = reading.Of(n)
	}
	if ph, ok := r.PHH2O.Float(); ok {
		d.PH = reading.Of(ph / 10)
	}
	if soc, ok := r.SOC.Float(); ok {
		d.OrganicMatter = reading.Of(soc / 100 * 1.724)
	}
	if cec, ok := r.CEC.Float(); ok {
		if !hasN {
			n = 0
		}
		boost := 0.02 + (math.Max(minCEC, math.Min(maxCEC, cec))-minCEC)/(maxCEC-minCEC)*0.18
		d.Phosphorus = reading.Of(reading.Round(n/2+boost, 3))
		d.Potassium = reading.Of(reading.Round(n/4+boost/2, 3))
	}

	d.Nitrogen = d.Nitrogen.Round(2)
	d.Phosphorus = d.Phosphorus.Round(2)
	d.Potassium = d.Potassium.Round(2)
	d.PH = d.PH.Round(1)
	d.OrganicMatter = d.OrganicMatter.Round(2)
	return d
}
