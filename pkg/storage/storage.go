// Package storage writes the normalized export. The CSV is staged in a temp
// file and renamed into place, so an interrupted run never leaves a partial
// output behind.
package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desarrollo-Urbani/Visor-leads-urbani/models"
)

type Storage struct{}

// WriteLeadsCSV writes records under the canonical header, atomically.
func (s *Storage) WriteLeadsCSV(path string, records []models.LeadRecord) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".leads-*.csv")
	if err != nil {
		return fmt.Errorf("create temp output in %q: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)
	if err := w.Write(models.OutputColumns); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range records {
		if err := w.Write(r.Fields()); err != nil {
			tmp.Close()
			return fmt.Errorf("write record %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp output: %w", err)
	}

	// CreateTemp opens 0600; the export is a regular file for the team.
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod output: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename output into place: %w", err)
	}
	return nil
}

// ReadLeadsCSV loads a normalized export back, validating the header.
func (s *Storage) ReadLeadsCSV(path string) ([]models.LeadRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%q is empty", path)
	}

	header := rows[0]
	if len(header) < len(models.OutputColumns) {
		return nil, fmt.Errorf("%q: expected header %v, got %v", path, models.OutputColumns, header)
	}
	for i, want := range models.OutputColumns {
		if header[i] != want {
			return nil, fmt.Errorf("%q: column %d is %q, want %q", path, i, header[i], want)
		}
	}

	records := make([]models.LeadRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, recordFromRow(row))
	}
	return records, nil
}

func recordFromRow(row []string) models.LeadRecord {
	get := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return models.LeadRecord{
		Name:    get(0),
		Email:   get(1),
		Phone:   get(2),
		Income:  get(3),
		Project: get(4),
		Note:    get(5),
	}
}

// HasFile reports whether path exists.
func (s *Storage) HasFile(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !os.IsNotExist(err)
}
