// Package tabular reads conventionally-delimited exports (CSV or XLSX) into
// an untyped header+rows dataset for the reconciler. It is deliberately
// schema-free: all values are strings and rows may be ragged.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// Dataset is a parsed tabular file: one header row and zero or more data
// rows. Rows are not padded; use Value for bounds-safe access.
type Dataset struct {
	Headers []string
	Rows    [][]string
}

// Value returns the cell at (row, col) or "" when the row is ragged or the
// indexes are out of range.
func (d *Dataset) Value(row, col int) string {
	if row < 0 || row >= len(d.Rows) {
		return ""
	}
	r := d.Rows[row]
	if col < 0 || col >= len(r) {
		return ""
	}
	return r[col]
}

// Column collects one column across all rows, "" for ragged rows.
func (d *Dataset) Column(col int) []string {
	out := make([]string, len(d.Rows))
	for i := range d.Rows {
		out[i] = d.Value(i, col)
	}
	return out
}

// ReadFile dispatches on the file extension: .xls/.xlsx via excelize,
// anything else as CSV.
func ReadFile(path string) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xls", ".xlsx":
		return ReadXLSX(path)
	default:
		return ReadCSV(path)
	}
}

// ReadCSV reads a comma-separated UTF-8 file; if that fails to parse it
// retries as semicolon-separated latin-1, the other convention these CRM
// exports arrive in.
func ReadCSV(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}

	ds, err := parse(bytes.NewReader(data), ',', false)
	if err == nil {
		return ds, nil
	}

	// Retry permissively: these exports also show up as semicolon-separated
	// latin-1 with sloppy quoting.
	decoded, decErr := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if decErr != nil {
		return nil, fmt.Errorf("parse %q: %w", path, err)
	}
	ds, retryErr := parse(bytes.NewReader(decoded), ';', true)
	if retryErr != nil {
		return nil, fmt.Errorf("parse %q: %w", path, err)
	}
	return ds, nil
}

// ReadXLSX reads the first sheet of an Excel workbook.
func ReadXLSX(path string) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open excel file %q: %w", path, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("no sheets in %q", path)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("get rows from %q: %w", path, err)
	}
	if len(rows) == 0 {
		return &Dataset{}, nil
	}
	return &Dataset{Headers: rows[0], Rows: rows[1:]}, nil
}

// ParseString parses CSV content that has no header row of its own, naming
// the columns after the given headers. The reconciler uses this to re-parse
// swallowed rows.
func ParseString(content string, headers []string) (*Dataset, error) {
	cr := csv.NewReader(strings.NewReader(content))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, rec)
	}
	return &Dataset{Headers: append([]string(nil), headers...), Rows: rows}, nil
}

func parse(r io.Reader, sep rune, lazy bool) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.Comma = sep
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = lazy

	headers, err := cr.Read()
	if err == io.EOF {
		return &Dataset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range headers {
		if i == 0 {
			headers[i] = strings.TrimPrefix(headers[i], "\ufeff")
		}
		headers[i] = strings.TrimSpace(headers[i])
	}

	var rows [][]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rows = append(rows, rec)
	}
	return &Dataset{Headers: headers, Rows: rows}, nil
}
