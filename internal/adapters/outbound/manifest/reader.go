// Package manifest reads the audit manifest from an XLSX workbook or a CSV
// file. Columns are addressed by spreadsheet letter in both formats.
package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/openkraft/headeraudit/internal/domain"
)

// Reader implements domain.ManifestReader.
//
// Rows missing the ID or the template are dropped wherever they appear; the
// rest of the sheet is still read.
type Reader struct {
	cfg domain.ManifestConfig
}

func New(cfg domain.ManifestConfig) *Reader {
	return &Reader{cfg: cfg}
}

// Read loads the manifest at path, falling back to the configured path when
// path is empty.
func (r *Reader) Read(path string) (*domain.Manifest, error) {
	if path == "" {
		path = r.cfg.Path
	}

	idCol, err := columnIndex(r.cfg.IDColumn)
	if err != nil {
		return nil, fmt.Errorf("id_column: %w", err)
	}
	tplCol, err := columnIndex(r.cfg.TemplateColumn)
	if err != nil {
		return nil, fmt.Errorf("template_column: %w", err)
	}

	var records [][]string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = readCSV(path)
	case ".xlsx", ".xlsm", ".xltx":
		records, err = readXLSX(path, r.cfg.Sheet)
	default:
		return nil, fmt.Errorf("unsupported manifest format %q (want .xlsx or .csv)", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	m := &domain.Manifest{Source: path}
	for i, rec := range records {
		if i == 0 && r.cfg.HasHeader() {
			continue
		}
		row := domain.ManifestRow{
			Line:     i + 1,
			ID:       strings.TrimSpace(cell(rec, idCol)),
			Template: domain.ParseDeclaredTemplate(cell(rec, tplCol)),
		}
		if !row.Complete() {
			if !blank(rec) {
				m.Dropped++
			}
			continue
		}
		m.Rows = append(m.Rows, row)
	}
	return m, nil
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q of %s: %w", sheet, path, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer fh.Close()

	cr := csv.NewReader(fh)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// columnIndex converts a spreadsheet column letter ("A", "X", "AB") to a
// zero-based index.
func columnIndex(letter string) (int, error) {
	n, err := excelize.ColumnNameToNumber(strings.TrimSpace(letter))
	if err != nil {
		return 0, err
	}
	return n - 1, nil
}

func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
