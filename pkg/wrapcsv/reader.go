// Package wrapcsv reads the "wrapped row" CRM export: every body line is one
// entire logical row wrapped in outer double quotes, with the internal quotes
// of the embedded transcript JSON doubled. Generic CSV tokenization chokes on
// it, so rows are split by positional delimiter search instead.
package wrapcsv

import (
	"fmt"
	"os"
	"strings"

	"github.com/desarrollo-Urbani/Visor-leads-urbani/models"
)

// ReadFile parses a wrapped-row export from disk. Only I/O failures are
// errors; malformed lines are dropped and a file yielding zero rows is an
// empty (not failed) result.
func ReadFile(path string) ([]models.RawRow, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	return Parse(string(content)), nil
}

// Parse splits raw file content into rows. The first line is the header and
// is ignored: the body layout is fixed (date, name, phone, transcript JSON,
// project tag, status tag, message count, outcome).
func Parse(content string) []models.RawRow {
	content = strings.TrimPrefix(content, "\ufeff")
	lines := strings.Split(content, "\n")
	if len(lines) == 0 {
		return nil
	}

	var rows []models.RawRow
	for _, raw := range lines[1:] {
		raw = strings.TrimRight(raw, "\r")
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if row, ok := parseLine(raw); ok {
			rows = append(rows, row)
		}
	}
	return rows
}

// parseLine recovers one RawRow. Lines without a transcript array marker are
// unparseable and reported as not ok.
func parseLine(raw string) (models.RawRow, bool) {
	inner := raw
	if strings.HasPrefix(inner, `"`) && strings.HasSuffix(inner, `"`) && len(inner) >= 2 {
		inner = inner[1 : len(inner)-1]
	}
	inner = strings.ReplaceAll(inner, `""`, `"`)

	// The transcript is a JSON array of objects; prefer the comma that
	// separates it from the positional prefix, fall back to the bare start.
	var prefix, rest string
	if i := strings.Index(inner, ",[{"); i >= 0 {
		prefix = inner[:i]
		rest = inner[i+1:]
	} else if i := strings.Index(inner, "[{"); i >= 0 {
		prefix = inner[:i]
		rest = inner[i:]
	} else {
		return models.RawRow{}, false
	}

	date, name, phone := splitPrefix(prefix)

	var transcript, suffix string
	if j := strings.LastIndex(rest, "]"); j >= 0 {
		transcript = rest[:j+1]
		suffix = strings.TrimPrefix(rest[j+1:], ",")
	} else {
		transcript = rest
	}

	project, status, count, outcome := splitSuffix(suffix)

	return models.RawRow{
		CreatedAt:    cleanField(date),
		Name:         cleanField(name),
		RawPhone:     cleanField(phone),
		Transcript:   strings.TrimSpace(transcript),
		ProjectTag:   cleanField(project),
		StatusTag:    cleanField(status),
		MessageCount: cleanField(count),
		Outcome:      cleanField(outcome),
	}, true
}

func splitPrefix(prefix string) (date, name, phone string) {
	parts := strings.Split(prefix, ",")
	if len(parts) > 0 {
		date = parts[0]
	}
	if len(parts) > 1 {
		name = parts[1]
	}
	if len(parts) > 2 {
		phone = parts[2]
	}
	return date, name, phone
}

func splitSuffix(suffix string) (project, status, count, outcome string) {
	parts := strings.Split(suffix, ",")
	if len(parts) > 0 {
		project = parts[0]
	}
	if len(parts) > 1 {
		status = parts[1]
	}
	if len(parts) > 2 {
		count = parts[2]
	}
	if len(parts) > 3 {
		outcome = parts[3]
	}
	return project, status, count, outcome
}

// cleanField trims whitespace and any stray quote layer left on positional
// fields after unwrapping.
func cleanField(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}
