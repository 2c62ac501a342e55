// Package report writes discrepancy records to a spreadsheet.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/openkraft/headeraudit/internal/domain"
)

// Columns is the fixed report header.
var Columns = []string{"Docid", "Imported Header", "Correct Header"}

const sheetName = "Sheet1"

// Writer implements domain.ReportSink. The format follows the file
// extension: .csv or .xlsx.
type Writer struct{}

func New() *Writer { return &Writer{} }

// Write serializes records in the given order. Nothing is written when
// records is empty.
func (w *Writer) Write(path string, records []domain.Discrepancy) (bool, error) {
	if len(records) == 0 {
		return false, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return false, fmt.Errorf("creating report directory: %w", err)
		}
	}

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		err = writeCSV(path, records)
	case ".xlsx":
		err = writeXLSX(path, records)
	default:
		return false, fmt.Errorf("unsupported report format %q (want .xlsx or .csv)", filepath.Ext(path))
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func rows(records []domain.Discrepancy) [][]string {
	out := make([][]string, 0, len(records))
	for _, r := range records {
		out = append(out, []string{r.ID, r.Actual(), r.ExpectedLabel})
	}
	return out
}

func writeCSV(path string, records []domain.Discrepancy) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer fh.Close()

	cw := csv.NewWriter(fh)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(rows(records)); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return fh.Close()
}

func writeXLSX(path string, records []domain.Discrepancy) error {
	f := excelize.NewFile()
	defer f.Close()

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}

	for i, r := range records {
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		var actual interface{}
		if r.ActualLabel != nil {
			actual = *r.ActualLabel
		}
		row := []interface{}{r.ID, actual, r.ExpectedLabel}
		if err := f.SetSheetRow(sheetName, cellName, &row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}
