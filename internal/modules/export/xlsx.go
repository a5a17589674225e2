// Package export writes the forecast table as a downloadable
// spreadsheet and reads it back.
package export

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hjuarez/ventasbi/internal/modules/forecast"
)

// Sheet and header names match the workbook the dashboard historically
// produced, so downstream consumers keep working.
const (
	SheetName    = "Predicciones"
	headerDate   = "Fecha"
	headerAmount = "Predicción"
	dateLayout   = "2006-01-02"
)

// Row is one exported (date, prediction) pair.
type Row struct {
	Date      time.Time
	Predicted float64
}

// WriteForecast writes the forecast records to w as an XLSX workbook
// with columns {Fecha, Predicción}.
func WriteForecast(w io.Writer, records []forecast.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &[]string{headerDate, headerAmount}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range records {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{r.Date.Format(dateLayout), r.Predicted}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	return nil
}

// ReadForecast parses a workbook produced by WriteForecast back into
// (date, prediction) rows.
func ReadForecast(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", SheetName, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", SheetName)
	}

	out := make([]Row, 0, len(rows)-1)
	for i, raw := range rows[1:] {
		if len(raw) < 2 {
			continue
		}

		date, err := time.Parse(dateLayout, raw[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: bad date %q: %w", i+2, raw[0], err)
		}
		predicted, err := strconv.ParseFloat(raw[1], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: bad prediction %q: %w", i+2, raw[1], err)
		}

		out = append(out, Row{Date: date, Predicted: predicted})
	}

	return out, nil
}
