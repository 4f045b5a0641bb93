package wrapcsv

import (
	"testing"
)

const header = "fecha_creacion,nombre_usuario,telefono,transcripcion,project_tag,tag_estado,cantidad_mensajes,outcome\n"

func TestParse_WrappedRow(t *testing.T) {
	line := `"01/01/24,""Juan Pérez"",56912345678,[{""sender"":""user"",""message"":""mi renta es 2 millones""}],ProjectX,closed,1,won"`
	rows := Parse(header + line + "\n")

	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.CreatedAt != "01/01/24" {
		t.Errorf("CreatedAt = %q", row.CreatedAt)
	}
	if row.Name != "Juan Pérez" {
		t.Errorf("Name = %q", row.Name)
	}
	if row.RawPhone != "56912345678" {
		t.Errorf("RawPhone = %q", row.RawPhone)
	}
	want := `[{"sender":"user","message":"mi renta es 2 millones"}]`
	if row.Transcript != want {
		t.Errorf("Transcript = %q, want %q", row.Transcript, want)
	}
	if row.ProjectTag != "ProjectX" || row.StatusTag != "closed" || row.MessageCount != "1" || row.Outcome != "won" {
		t.Errorf("trailing fields = %q %q %q %q", row.ProjectTag, row.StatusTag, row.MessageCount, row.Outcome)
	}
}

func TestParse_BareArrayMarker(t *testing.T) {
	// No comma directly before the array: the whole prefix still splits
	// positionally and the phone defaults empty.
	line := `02/01/24,Ana [{"sender":"bot","message":"hola"}],CondominioSur`
	rows := Parse(header + line + "\n")

	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].CreatedAt != "02/01/24" || rows[0].Name != "Ana" {
		t.Errorf("prefix = %q %q", rows[0].CreatedAt, rows[0].Name)
	}
	if rows[0].RawPhone != "" {
		t.Errorf("RawPhone = %q, want empty", rows[0].RawPhone)
	}
	if rows[0].ProjectTag != "CondominioSur" {
		t.Errorf("ProjectTag = %q", rows[0].ProjectTag)
	}
}

func TestParse_SkipsMalformedLines(t *testing.T) {
	content := header +
		"this line has no transcript array at all\n" +
		"\n" +
		`"03/01/24,Pedro,987654321,[{""sender"":""user"",""message"":""hola""}],P1,open,1,"` + "\n"

	rows := Parse(content)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1 (malformed and blank lines dropped)", len(rows))
	}
	if rows[0].Name != "Pedro" {
		t.Errorf("Name = %q", rows[0].Name)
	}
}

func TestParse_MissingTrailingFields(t *testing.T) {
	line := `04/01/24,Eva,912345678,[{"sender":"user","message":"info"}]`
	rows := Parse(header + line + "\n")

	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.ProjectTag != "" || row.StatusTag != "" || row.MessageCount != "" || row.Outcome != "" {
		t.Errorf("trailing fields should default empty, got %q %q %q %q",
			row.ProjectTag, row.StatusTag, row.MessageCount, row.Outcome)
	}
}

func TestParse_UnterminatedArray(t *testing.T) {
	line := `05/01/24,Luis,98765432,[{"sender":"user","message":"corte`
	rows := Parse(header + line + "\n")

	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0].Transcript != `[{"sender":"user","message":"corte` {
		t.Errorf("Transcript = %q", rows[0].Transcript)
	}
}

func TestParse_EmptyAndHeaderOnly(t *testing.T) {
	if rows := Parse(""); len(rows) != 0 {
		t.Errorf("empty content: rows = %d", len(rows))
	}
	if rows := Parse(header); len(rows) != 0 {
		t.Errorf("header only: rows = %d", len(rows))
	}
}

func TestParse_StripsBOM(t *testing.T) {
	content := "\ufeff" + header + `06/01/24,Mia,912345678,[{"sender":"user","message":"hola"}],P2` + "\n"
	rows := Parse(content)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
}
