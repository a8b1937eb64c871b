// Package recommend ranks crops from a catalog of growing ranges against the
// farmer's current soil and weather readings.
package recommend

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"krishi/pkg/tabular"
)

// Profile describes the conditions a crop does well in. Revenue is in
// thousands of rupees per crop cycle.
type Profile struct {
	Name       string
	PHMin      float64
	PHMax      float64
	TempMin    float64
	TempMax    float64
	MinOM      float64
	RevenueMin float64
	RevenueMax float64
}

var ErrEmptyCatalog = errors.New("recommend: catalog has no usable rows")

func DefaultCatalog() []Profile {
	return []Profile{
		{Name: "Wheat", PHMin: 6.0, PHMax: 7.5, TempMin: 10, TempMax: 25, MinOM: 0.5, RevenueMin: 20, RevenueMax: 35},
		{Name: "Rice", PHMin: 5.5, PHMax: 7.0, TempMin: 20, TempMax: 35, MinOM: 1.0, RevenueMin: 18, RevenueMax: 32},
		{Name: "Maize", PHMin: 5.8, PHMax: 7.0, TempMin: 18, TempMax: 32, MinOM: 0.75, RevenueMin: 15, RevenueMax: 28},
		{Name: "Soybean", PHMin: 6.0, PHMax: 7.5, TempMin: 20, TempMax: 30, MinOM: 1.0, RevenueMin: 18, RevenueMax: 30},
		{Name: "Pulses", PHMin: 6.0, PHMax: 7.5, TempMin: 15, TempMax: 30, MinOM: 0.5, RevenueMin: 12, RevenueMax: 25},
		{Name: "Cotton", PHMin: 5.8, PHMax: 8.0, TempMin: 21, TempMax: 35, MinOM: 0.5, RevenueMin: 25, RevenueMax: 39},
		{Name: "Barley", PHMin: 6.0, PHMax: 8.5, TempMin: 7, TempMax: 22, MinOM: 0.3, RevenueMin: 10, RevenueMax: 22},
	}
}

// LoadCatalog reads crop profiles from a .csv or .xlsx file. For workbooks
// the first sheet is used.
func LoadCatalog(path string) ([]Profile, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		rows, err = readXLSX(path)
	case ".csv":
		rows, err = readCSV(path)
	default:
		return nil, fmt.Errorf("recommend: unsupported catalog format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	return parseRows(rows)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1
	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("recommend: read %s: %w", path, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	x, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer x.Close()
	return x.GetRows(x.GetSheetName(0))
}

func parseRows(rows [][]string) ([]Profile, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyCatalog
	}
	head := rows[0]
	h := tabular.NewHeader(head)

	cName := h.Find("Crop", "name", "crop_name")
	cPHMin := h.Find("ph_min", "min_ph", "phlow")
	cPHMax := h.Find("ph_max", "max_ph", "phhigh")
	cTMin := h.Find("temp_min", "min_temp", "tempmin_c")
	cTMax := h.Find("temp_max", "max_temp", "tempmax_c")
	cOM := h.Find("om_min", "organic_matter_min", "min_om", "organicmatter")
	cRevMin := h.Find("revenue_min", "min_revenue", "revenuelow")
	cRevMax := h.Find("revenue_max", "max_revenue", "revenuehigh")

	if !tabular.Has(cName, cPHMin, cPHMax, cTMin, cTMax) {
		return nil, fmt.Errorf("recommend: catalog missing required columns, found %v; need Crop, ph_min, ph_max, temp_min, temp_max", head)
	}

	var out []Profile
	for _, rec := range rows[1:] {
		name := tabular.Cell(rec, cName)
		if name == "" {
			continue
		}
		p := Profile{Name: name}
		var ok bool
		if p.PHMin, ok = num(rec, cPHMin); !ok {
			continue
		}
		if p.PHMax, ok = num(rec, cPHMax); !ok || p.PHMax < p.PHMin {
			continue
		}
		if p.TempMin, ok = num(rec, cTMin); !ok {
			continue
		}
		if p.TempMax, ok = num(rec, cTMax); !ok || p.TempMax < p.TempMin {
			continue
		}
		p.MinOM, _ = num(rec, cOM)
		p.RevenueMin, _ = num(rec, cRevMin)
		p.RevenueMax, _ = num(rec, cRevMax)
		if p.RevenueMax < p.RevenueMin {
			p.RevenueMax = p.RevenueMin
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, ErrEmptyCatalog
	}
	return out, nil
}

func num(rec []string, idx int) (float64, bool) {
	v, err := strconv.ParseFloat(tabular.Cell(rec, idx), 64)
	return v, err == nil
}
