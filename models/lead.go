package models

// OutputColumns is the canonical header of every normalized export, in order.
var OutputColumns = []string{"nombre", "email", "telefono", "renta", "proyecto", "observacion"}

// RawRow is one lead as delimited by the wrapped-row export: three positional
// fields, the embedded transcript JSON, and four positional trailing tags.
// Missing fields are empty strings, never absent.
//
// The trailing fields keep the upstream fixed order (project, status, message
// count, outcome) with no escaping for embedded commas; that fragility comes
// from the export format itself.
type RawRow struct {
	CreatedAt    string
	Name         string
	RawPhone     string
	Transcript   string
	ProjectTag   string
	StatusTag    string
	MessageCount string
	Outcome      string
}

// LeadRecord is the sole persisted entity: one normalized output row. All six
// fields are always present; unrecoverable values default to "" (or "0" for
// Income). Records are built once per input row and never mutated.
type LeadRecord struct {
	Name    string
	Email   string
	Phone   string
	Income  string
	Project string
	Note    string
}

// Fields returns the record in OutputColumns order, ready for the CSV writer.
func (r LeadRecord) Fields() []string {
	return []string{r.Name, r.Email, r.Phone, r.Income, r.Project, r.Note}
}
