package sensordata

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Readings"

var exportColumns = []string{
	"Recorded At", "Temperature (°C)", "Salinity (ppt)", "pH",
	"Dissolved O2 (mg/L)", "Turbidity (NTU)", "Validator",
}

// WriteWorkbook renders readings as an xlsx workbook with a frozen, styled
// header row. Missing readings are left blank.
func WriteWorkbook(w io.Writer, readings []Reading) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1F6F8B"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	dateStyle, err := file.NewStyle(&excelize.Style{NumFmt: 22})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}

	for i, col := range exportColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := file.SetCellValue(exportSheet, cell, col); err != nil {
			return err
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(exportColumns), 1)
	if err := file.SetCellStyle(exportSheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}
	if err := file.SetPanes(exportSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	for i, r := range readings {
		row := i + 2
		values := []interface{}{
			r.RecordedAt, r.Temperature, r.Salinity, r.PH,
			r.DissolvedO2, r.Turbidity, r.ValidatorID.String(),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if f, ok := v.(*float64); ok {
				if f == nil {
					continue
				}
				v = *f
			}
			if err := file.SetCellValue(exportSheet, cell, v); err != nil {
				return fmt.Errorf("failed to write %s: %w", cell, err)
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := file.SetCellStyle(exportSheet, cell, cell, dateStyle); err != nil {
			return err
		}
	}

	if err := file.SetColWidth(exportSheet, "A", "A", 20); err != nil {
		return err
	}
	if err := file.SetColWidth(exportSheet, "B", "F", 18); err != nil {
		return err
	}
	if err := file.SetColWidth(exportSheet, "G", "G", 38); err != nil {
		return err
	}

	return file.Write(w)
}

// WriteCSV renders readings as CSV with the workbook's columns. Missing
// readings are empty fields.
func WriteCSV(w io.Writer, readings []Reading) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportColumns); err != nil {
		return err
	}

	for _, r := range readings {
		record := []string{r.RecordedAt.UTC().Format(time.RFC3339)}
		for _, m := range r.measurements() {
			if m.value == nil {
				record = append(record, "")
				continue
			}
			record = append(record, strconv.FormatFloat(*m.value, 'f', -1, 64))
		}
		record = append(record, r.ValidatorID.String())
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
