package reconcile

import (
	"testing"

	"github.com/desarrollo-Urbani/Visor-leads-urbani/models"
	"github.com/desarrollo-Urbani/Visor-leads-urbani/pkg/tabular"
)

func defaultKeywords() map[string][]string {
	return models.DefaultConfig().ColumnKeywords
}

func TestReconcile_MapsHeadersByKeyword(t *testing.T) {
	ds := &tabular.Dataset{
		Headers: []string{"Fecha", "Nombre Completo", "E-Mail Personal", "Fono Celular", "Renta Liquida"},
		Rows: [][]string{
			{"01/01/24", "juan perez", "j@x.cl", "912345678", "800000"},
		},
	}

	m := Reconcile(ds, defaultKeywords())

	tests := []struct {
		target string
		want   string
	}{
		{"nombre", "juan perez"},
		{"email", "j@x.cl"},
		{"telefono", "912345678"},
		{"renta", "800000"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			if got := m.Get(0, tt.target); got != tt.want {
				t.Errorf("Get(0, %q) = %q, want %q", tt.target, got, tt.want)
			}
		})
	}

	if m.Has("proyecto") {
		t.Error("proyecto should be unmapped")
	}
	if got := m.Get(0, "proyecto"); got != "" {
		t.Errorf("unmapped column should read empty, got %q", got)
	}
}

func TestReconcile_FirstTargetWinsContestedHeader(t *testing.T) {
	// "nombre cliente" matches both nombre ("nombre") and nothing else should
	// reclaim it; the second name-like header goes unclaimed by nombre.
	ds := &tabular.Dataset{
		Headers: []string{"nombre cliente", "cliente"},
		Rows:    [][]string{{"Juan", "Empresa SA"}},
	}

	m := Reconcile(ds, defaultKeywords())

	if m.Columns["nombre"] != 0 {
		t.Errorf("nombre mapped to column %d, want 0", m.Columns["nombre"])
	}
}

func TestReconcile_SwallowedRepair(t *testing.T) {
	// Entire logical rows landed in column 0, column 1 is empty.
	ds := &tabular.Dataset{
		Headers: []string{"nombre", "telefono", "renta"},
		Rows: [][]string{
			{"Juan,912345678,800000", "", ""},
			{"Ana,987654321,900000", "", ""},
			{"Eva,911111111,1000000", "", ""},
		},
	}

	m := Reconcile(ds, defaultKeywords())

	if !m.Repaired {
		t.Fatal("expected swallowed-row repair")
	}
	if len(m.Data.Rows) != len(ds.Rows) {
		t.Fatalf("repaired rows = %d, want %d", len(m.Data.Rows), len(ds.Rows))
	}
	if len(m.Data.Headers) != len(ds.Headers) {
		t.Fatalf("repaired headers = %d, want %d", len(m.Data.Headers), len(ds.Headers))
	}
	if got := m.Get(1, "telefono"); got != "987654321" {
		t.Errorf("Get(1, telefono) = %q", got)
	}
}

func TestReconcile_NoRepairWhenColumn1Populated(t *testing.T) {
	ds := &tabular.Dataset{
		Headers: []string{"nombre", "telefono"},
		Rows: [][]string{
			{"Juan, el grande", "912345678"},
			{"Ana", "987654321"},
		},
	}

	m := Reconcile(ds, defaultKeywords())

	if m.Repaired {
		t.Error("repair should not trigger when column 1 is populated")
	}
	if got := m.Get(0, "nombre"); got != "Juan, el grande" {
		t.Errorf("Get(0, nombre) = %q", got)
	}
}
