// Package normalize drives the full pipeline: ingest an export, reconcile or
// unwrap its rows, extract the canonical fields, generate observations and
// emit the normalized records.
package normalize

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/desarrollo-Urbani/Visor-leads-urbani/models"
	"github.com/desarrollo-Urbani/Visor-leads-urbani/pkg/extract"
	"github.com/desarrollo-Urbani/Visor-leads-urbani/pkg/reconcile"
	"github.com/desarrollo-Urbani/Visor-leads-urbani/pkg/summary"
	"github.com/desarrollo-Urbani/Visor-leads-urbani/pkg/tabular"
	"github.com/desarrollo-Urbani/Visor-leads-urbani/pkg/transcript"
	"github.com/desarrollo-Urbani/Visor-leads-urbani/pkg/wrapcsv"
)

// Input formats. FormatAuto probes the file: a CSV whose rows embed a JSON
// turn array is the wrapped chat export, anything else is a plain table.
const (
	FormatAuto  = "auto"
	FormatChat  = "chat"
	FormatTable = "table"
)

// Stats summarizes one run for the progress report and the runs table.
type Stats struct {
	Total     int
	Enriched  int
	Heuristic int
	Repaired  bool
}

// Pipeline holds the per-run collaborators. Progress lines go to Progress
// (stdout in the CLI); diagnostics go to the structured logger.
type Pipeline struct {
	Config    models.Config
	Generator *summary.Generator
	Log       *slog.Logger
	Progress  io.Writer
}

func New(cfg models.Config, gen *summary.Generator, log *slog.Logger, progress io.Writer) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if progress == nil {
		progress = io.Discard
	}
	return &Pipeline{Config: cfg, Generator: gen, Log: log, Progress: progress}
}

// Run normalizes one input file into lead records.
func (p *Pipeline) Run(ctx context.Context, inputPath, format string) ([]models.LeadRecord, Stats, error) {
	format, err := p.resolveFormat(inputPath, format)
	if err != nil {
		return nil, Stats{}, err
	}
	p.Log.Info("reading input", "path", inputPath, "format", format)

	if format == FormatChat {
		rows, err := wrapcsv.ReadFile(inputPath)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("read wrapped export: %w", err)
		}
		records, stats := p.fromChat(ctx, rows)
		return records, stats, nil
	}

	ds, err := tabular.ReadFile(inputPath)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("read table: %w", err)
	}
	records, stats := p.fromTable(ctx, ds)
	return records, stats, nil
}

// resolveFormat validates an explicit format or probes the file head for the
// embedded JSON turn array that marks the wrapped chat export.
func (p *Pipeline) resolveFormat(inputPath, format string) (string, error) {
	switch format {
	case FormatChat, FormatTable:
		return format, nil
	case "", FormatAuto:
	default:
		return "", fmt.Errorf("unknown format %q (want %s, %s or %s)", format, FormatAuto, FormatChat, FormatTable)
	}

	if strings.HasSuffix(strings.ToLower(inputPath), ".xlsx") || strings.HasSuffix(strings.ToLower(inputPath), ".xls") {
		return FormatTable, nil
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return "", fmt.Errorf("open %q: %w", inputPath, err)
	}
	defer f.Close()

	head := make([]byte, 64*1024)
	n, _ := io.ReadFull(f, head)
	if strings.Contains(string(head[:n]), "[{") {
		return FormatChat, nil
	}
	return FormatTable, nil
}

// fromChat handles the wrapped export: each row already carries its fields
// positionally plus the raw transcript.
func (p *Pipeline) fromChat(ctx context.Context, rows []models.RawRow) ([]models.LeadRecord, Stats) {
	parser := transcript.NewParser(p.Config)
	stats := Stats{Total: len(rows)}
	records := make([]models.LeadRecord, 0, len(rows))

	for i, row := range rows {
		conv, outcome := parser.Parse(row.Transcript)
		if outcome != transcript.DecodeStrict {
			p.Log.Debug("transcript decoded with fallback", "row", i+1, "outcome", outcome.String())
		}

		record := models.LeadRecord{
			Name:    leadName(row.Name),
			Email:   extract.Email(conv),
			Phone:   extract.Phone(row.RawPhone, conv),
			Income:  extract.Income(conv, p.Config.IncomeKeywords),
			Project: cleanTag(row.ProjectTag),
		}

		var prov summary.Provenance
		record.Note, prov = p.Generator.Summarize(ctx, record.Name, record.Phone, cleanTag(row.StatusTag), conv)
		p.count(&stats, prov)
		p.report(i+1, stats.Total, record.Name, record.Phone, prov)
		records = append(records, record)
	}
	return records, stats
}

// fromTable handles conventional exports: headers are reconciled onto the
// canonical schema, then each row is cleaned field by field.
func (p *Pipeline) fromTable(ctx context.Context, ds *tabular.Dataset) ([]models.LeadRecord, Stats) {
	mapped := reconcile.Reconcile(ds, p.Config.ColumnKeywords)
	if mapped.Repaired {
		p.Log.Info("repaired swallowed rows", "rows", len(mapped.Data.Rows))
	}
	if mapped.RepairErr != nil {
		p.Log.Warn("swallowed row repair failed, using original rows", "error", mapped.RepairErr)
	}
	for _, target := range models.OutputColumns {
		if !mapped.Has(target) {
			p.Log.Warn("column not found in input, defaulting empty", "column", target)
		}
	}

	textCols := textColumns(mapped.Data.Headers)
	noteCol := noteFallbackColumn(mapped)

	stats := Stats{Total: len(mapped.Data.Rows), Repaired: mapped.Repaired}
	records := make([]models.LeadRecord, 0, stats.Total)

	for i := range mapped.Data.Rows {
		name := mapped.Get(i, "nombre")
		if apellido := mapped.Get(i, "apellido"); apellido != "" {
			name = strings.TrimSpace(name + " " + apellido)
		}

		email := extract.Email(mapped.Get(i, "email"))
		if email == "" {
			for _, col := range textCols {
				if email = extract.Email(mapped.Data.Value(i, col)); email != "" {
					break
				}
			}
		}

		record := models.LeadRecord{
			Name:    leadName(name),
			Email:   email,
			Phone:   extract.Phone(mapped.Get(i, "telefono"), ""),
			Income:  extract.IncomeFromField(mapped.Get(i, "renta")),
			Project: cleanTag(mapped.Get(i, "proyecto")),
		}

		noteSource := mapped.Get(i, "observacion")
		if noteCol >= 0 {
			noteSource = mapped.Data.Value(i, noteCol)
		}
		note, prov := p.observation(ctx, record, noteSource)
		record.Note = note
		p.count(&stats, prov)
		p.report(i+1, stats.Total, record.Name, record.Phone, prov)
		records = append(records, record)
	}
	return records, stats
}

// observation keeps a plain-text note as-is; a note that embeds a chat turn
// array goes through the transcript parser and the summary generator like the
// wrapped export does.
func (p *Pipeline) observation(ctx context.Context, record models.LeadRecord, raw string) (string, summary.Provenance) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "[{") {
		return raw, summary.Heuristic
	}
	conv, _ := transcript.NewParser(p.Config).Parse(raw)
	return p.Generator.Summarize(ctx, record.Name, record.Phone, "", conv)
}

func (p *Pipeline) count(stats *Stats, prov summary.Provenance) {
	if prov == summary.Enriched {
		stats.Enriched++
	} else {
		stats.Heuristic++
	}
}

func (p *Pipeline) report(n, total int, name, phone string, prov summary.Provenance) {
	status := "⚙️  heurística"
	if prov == summary.Enriched {
		status = "🤖 IA"
	}
	fmt.Fprintf(p.Progress, "[%02d/%d] %-25s %-15s %s\n", n, total, truncateRunes(name, 25), phone, status)
}

// noteFallbackColumn picks a transcript-like column as the note source when
// no observation column mapped.
func noteFallbackColumn(mapped *reconcile.Mapped) int {
	if mapped.Has("observacion") {
		return -1
	}
	for i, h := range mapped.Data.Headers {
		if strings.Contains(strings.ToLower(h), "transcripcion") {
			return i
		}
	}
	return -1
}

// textColumns returns the indexes of columns likely to hide contact data in
// free text, for the email fallback scan.
func textColumns(headers []string) []int {
	markers := []string{"transcripcion", "observacion", "nota", "message", "mensaje", "comentario", "detalle"}
	var out []int
	for i, h := range headers {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, m := range markers {
			if strings.Contains(h, m) {
				out = append(out, i)
				break
			}
		}
	}
	return out
}

// cleanTag drops placeholder tag values that survive serialization.
func cleanTag(tag string) string {
	tag = strings.TrimSpace(tag)
	switch strings.ToLower(tag) {
	case "nan", "none", "null":
		return ""
	}
	return tag
}

// leadName cleans a raw name; when cleaning strips everything (emoji-only or
// placeholder names) the raw value survives, truncated.
func leadName(raw string) string {
	if name := extract.CleanName(raw); name != "" {
		return name
	}
	return truncateRunes(strings.TrimSpace(raw), 50)
}

func truncateRunes(s string, max int) string {
	if runes := []rune(s); len(runes) > max {
		return string(runes[:max])
	}
	return s
}
