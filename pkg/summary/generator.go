// Package summary turns a parsed conversation into the observacion field:
// an LLM-written executive summary when the enrichment backend is available,
// a deterministic snippet of the client's own words when it is not.
package summary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/desarrollo-Urbani/Visor-leads-urbani/models"
	"github.com/desarrollo-Urbani/Visor-leads-urbani/pkg/transcript"
	"github.com/pemistahl/lingua-go"
)

// Provenance records which path produced the observation.
type Provenance int

const (
	// Heuristic: built locally from client lines, no model involved.
	Heuristic Provenance = iota
	// Enriched: written by the model; the note carries the 🤖 marker.
	Enriched
)

func (p Provenance) String() string {
	if p == Enriched {
		return "enriched"
	}
	return "heuristic"
}

// Enricher is the completion backend. ollama.Client satisfies it.
type Enricher interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Generator builds observation text for one lead at a time. A nil enricher
// means heuristic-only mode; enrichment errors also fall back to the
// heuristic, so Summarize never fails.
type Generator struct {
	enricher Enricher
	stop     string
	detector lingua.LanguageDetector
	log      *slog.Logger
}

func NewGenerator(enricher Enricher, cfg models.Config, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{
		enricher: enricher,
		stop:     cfg.Ollama.Stop,
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.Spanish, lingua.English).
			Build(),
		log: log,
	}
}

// Summarize produces the observacion value for one lead. Enriched notes are
// prefixed with the 🤖 marker and, when the lead carries a meaningful status
// tag, a "[status]" label.
func (g *Generator) Summarize(ctx context.Context, name, phone, status, conversation string) (string, Provenance) {
	if strings.TrimSpace(conversation) == "" {
		return "Sin conversación registrada.", Heuristic
	}

	if g.enricher != nil {
		text, err := g.enricher.Generate(ctx, g.prompt(name, phone, status, conversation))
		if err != nil {
			g.log.Warn("enrichment failed, using heuristic summary", "error", err)
		} else if text = g.cleanResponse(text); text != "" {
			return "🤖 " + statusLabel(status) + text, Enriched
		}
	}

	return g.heuristic(conversation), Heuristic
}

// heuristic joins the last four client lines; with no client lines at all it
// falls back to the opening of the conversation.
func (g *Generator) heuristic(conversation string) string {
	client := transcript.ClientLines(conversation)
	if len(client) > 4 {
		client = client[len(client)-4:]
	}
	snippet := strings.Join(client, " | ")
	if snippet == "" {
		snippet = truncate(conversation, 300)
	}
	return "Resumen automático: " + truncate(snippet, 350)
}

// prompt builds the instruction block in the conversation's language. Chilean
// exports are overwhelmingly Spanish; the English variant covers the odd
// expat lead so the summary reads naturally for them too.
func (g *Generator) prompt(name, phone, status, conversation string) string {
	if lang, ok := g.detector.DetectLanguageOf(conversation); ok && lang == lingua.English {
		return g.promptEnglish(name, phone, status, conversation)
	}
	return g.promptSpanish(name, phone, status, conversation)
}

func (g *Generator) promptSpanish(name, phone, status, conversation string) string {
	if name == "" {
		name = "No informado"
	}
	if status == "" {
		status = "Sin clasificar"
	}
	return strings.TrimSpace(fmt.Sprintf(`Eres un asistente de ventas inmobiliarias. Redacta un resumen BREVE y DIRECTO para un ejecutivo humano.

INSTRUCCIONES:
- Analiza solo lo que dice CLIENTE:, el BOT: es contexto.
- Sin JSON, sin tablas, sin adornos. Solo texto plano útil.
- 3 secciones cortas: Resumen, Datos Clave, Siguiente Paso.

LEAD:
- Nombre: %s
- Teléfono: %s
- Estado: %s

CONVERSACIÓN:
"""%s"""

%s
`, name, phone, status, conversation, g.stop))
}

func (g *Generator) promptEnglish(name, phone, status, conversation string) string {
	if name == "" {
		name = "Not provided"
	}
	if status == "" {
		status = "Unclassified"
	}
	return strings.TrimSpace(fmt.Sprintf(`You are a real estate sales assistant. Write a BRIEF and DIRECT summary for a human agent.

INSTRUCTIONS:
- Analyze only what CLIENTE: says; BOT: lines are context.
- No JSON, no tables, no decoration. Plain useful text only.
- 3 short sections: Summary, Key Facts, Next Step.

LEAD:
- Name: %s
- Phone: %s
- Status: %s

CONVERSATION:
"""%s"""

%s
`, name, phone, status, conversation, g.stop))
}

// cleanResponse removes the stop token, which some models echo back, and
// trims the result.
func (g *Generator) cleanResponse(text string) string {
	if g.stop != "" {
		text = strings.ReplaceAll(text, g.stop, "")
	}
	return strings.TrimSpace(text)
}

func statusLabel(status string) string {
	status = strings.TrimSpace(status)
	if status == "" || strings.EqualFold(status, "nan") {
		return ""
	}
	return "[" + status + "] "
}

func truncate(s string, max int) string {
	if runes := []rune(s); len(runes) > max {
		return string(runes[:max])
	}
	return s
}
