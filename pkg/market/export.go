package market

import (
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Prices"

var exportColumns = []string{
	"Crop", "Price (₹/quintal)", "Change", "Change Value", "Last Week",
	"Demand", "Quality", "Location", "Last Updated",
}

// WriteXLSX writes the price list as a single-sheet workbook.
func WriteXLSX(w io.Writer, prices []Price) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportColumns); err != nil {
		return err
	}
	for i, p := range prices {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{p.Crop, p.Price, p.Change, p.ChangeValue, p.LastWeek, string(p.Demand), p.Quality, p.Location, p.LastUpdated}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(exportSheet, 1, 1, bold); err != nil {
		return err
	}
	if err := f.SetColWidth(exportSheet, "A", "I", 16); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}
