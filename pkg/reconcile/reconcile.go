// Package reconcile maps the arbitrary headers of a tabular export onto the
// canonical lead schema and repairs the "swallowed row" pathology, where a
// quoting mismatch lands every logical row inside column 0.
package reconcile

import (
	"sort"
	"strings"

	"github.com/desarrollo-Urbani/Visor-leads-urbani/pkg/tabular"
)

// targetOrder fixes the scan order for canonical targets so ambiguous headers
// always resolve to the same target.
var targetOrder = []string{"nombre", "apellido", "email", "telefono", "renta", "proyecto", "observacion"}

// Mapped is a reconciled dataset: the (possibly repaired) data plus the
// resolved canonical-target → column-index assignment.
type Mapped struct {
	Data    *tabular.Dataset
	Columns map[string]int

	// Repaired is true when swallowed rows were detected and re-parsed.
	// RepairErr holds the non-fatal error of a failed repair attempt; the
	// unrepaired data is kept in that case.
	Repaired  bool
	RepairErr error
}

// Get returns the value of a canonical column for one row, or "" when the
// column never mapped. Canonical columns are therefore always present, with
// the empty default, never absent.
func (m *Mapped) Get(row int, target string) string {
	col, ok := m.Columns[target]
	if !ok {
		return ""
	}
	return strings.TrimSpace(m.Data.Value(row, col))
}

// Has reports whether a canonical column found a source header.
func (m *Mapped) Has(target string) bool {
	_, ok := m.Columns[target]
	return ok
}

// Reconcile repairs swallowed rows, then assigns each canonical target the
// first source header containing one of its keywords. A header is claimed by
// at most one target; targets are scanned in canonical order so the
// first-seen target wins a contested header.
func Reconcile(ds *tabular.Dataset, keywords map[string][]string) *Mapped {
	m := &Mapped{Data: ds, Columns: make(map[string]int)}

	if swallowed(ds) {
		repaired, err := repair(ds)
		if err != nil {
			m.RepairErr = err
		} else {
			m.Data = repaired
			m.Repaired = true
		}
	}

	lowered := make([]string, len(m.Data.Headers))
	for i, h := range m.Data.Headers {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}

	claimed := make(map[int]bool)
	for _, target := range orderedTargets(keywords) {
		for i, header := range lowered {
			if claimed[i] || !matchesAny(header, keywords[target]) {
				continue
			}
			m.Columns[target] = i
			claimed[i] = true
			break
		}
	}
	return m
}

// orderedTargets yields the canonical targets first, then any extra
// configured targets in sorted order.
func orderedTargets(keywords map[string][]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, t := range targetOrder {
		if _, ok := keywords[t]; ok {
			out = append(out, t)
			seen[t] = true
		}
	}
	var extra []string
	for t := range keywords {
		if !seen[t] {
			extra = append(extra, t)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func matchesAny(header string, kws []string) bool {
	if header == "" {
		return false
	}
	for _, kw := range kws {
		if strings.Contains(header, kw) {
			return true
		}
	}
	return false
}

// swallowed detects the mis-parse heuristically: at least two columns, a
// comma inside the first data cell of column 0, and more than 90% of column 1
// empty.
func swallowed(ds *tabular.Dataset) bool {
	if len(ds.Headers) < 2 || len(ds.Rows) == 0 {
		return false
	}
	if !strings.Contains(ds.Value(0, 0), ",") {
		return false
	}
	empty := 0
	for i := range ds.Rows {
		if strings.TrimSpace(ds.Value(i, 1)) == "" {
			empty++
		}
	}
	return float64(empty) > float64(len(ds.Rows))*0.9
}

// repair rejoins the column-0 values and re-parses them as fresh CSV under
// the original header names.
func repair(ds *tabular.Dataset) (*tabular.Dataset, error) {
	return tabular.ParseString(strings.Join(ds.Column(0), "\n"), ds.Headers)
}
