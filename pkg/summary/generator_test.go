package summary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/desarrollo-Urbani/Visor-leads-urbani/models"
)

type fakeEnricher struct {
	response string
	err      error
	prompt   string
}

func (f *fakeEnricher) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func newGenerator(e Enricher) *Generator {
	return NewGenerator(e, models.DefaultConfig(), nil)
}

const conv = "BOT: Hola, ¿en qué proyecto está interesado?\n" +
	"CLIENTE: Hola, busco un departamento en Ñuñoa\n" +
	"CLIENTE: mi renta es 1.5 millones\n" +
	"CLIENTE: mi correo es ana@mail.cl"

func TestSummarize_Enriched(t *testing.T) {
	e := &fakeEnricher{response: "Resumen: cliente busca depto en Ñuñoa.\nFIN"}
	g := newGenerator(e)

	note, prov := g.Summarize(context.Background(), "Ana Soto", "+56912345678", "calificado", conv)
	if prov != Enriched {
		t.Fatalf("provenance = %v, want Enriched", prov)
	}
	if !strings.HasPrefix(note, "🤖 [calificado] ") {
		t.Errorf("note missing marker/status prefix: %q", note)
	}
	if strings.Contains(note, "FIN") {
		t.Errorf("stop token not stripped: %q", note)
	}

	for _, want := range []string{"Ana Soto", "+56912345678", "calificado", "Ñuñoa"} {
		if !strings.Contains(e.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSummarize_StatusLabelSkipped(t *testing.T) {
	e := &fakeEnricher{response: "Resumen corto."}
	g := newGenerator(e)

	note, _ := g.Summarize(context.Background(), "Ana", "+56912345678", "nan", conv)
	if !strings.HasPrefix(note, "🤖 Resumen corto.") {
		t.Errorf("nan status should not produce a label: %q", note)
	}
}

func TestSummarize_FallsBackOnError(t *testing.T) {
	g := newGenerator(&fakeEnricher{err: errors.New("connection refused")})

	note, prov := g.Summarize(context.Background(), "Ana", "+56912345678", "", conv)
	if prov != Heuristic {
		t.Fatalf("provenance = %v, want Heuristic", prov)
	}
	if strings.Contains(note, "🤖") {
		t.Errorf("heuristic note must not carry the marker: %q", note)
	}
	if !strings.Contains(note, "busco un departamento en Ñuñoa") {
		t.Errorf("heuristic note should quote client lines: %q", note)
	}
}

func TestSummarize_FallsBackOnEmptyResponse(t *testing.T) {
	g := newGenerator(&fakeEnricher{response: "  FIN  "})

	_, prov := g.Summarize(context.Background(), "Ana", "", "", conv)
	if prov != Heuristic {
		t.Errorf("empty model output should fall back, got %v", prov)
	}
}

func TestSummarize_HeuristicOnly(t *testing.T) {
	g := newGenerator(nil)

	note, prov := g.Summarize(context.Background(), "Ana", "", "", conv)
	if prov != Heuristic {
		t.Fatalf("provenance = %v, want Heuristic", prov)
	}
	if !strings.HasPrefix(note, "Resumen automático: ") {
		t.Errorf("note = %q", note)
	}
	if !strings.Contains(note, " | ") {
		t.Errorf("client lines should be pipe-joined: %q", note)
	}
}

func TestSummarize_HeuristicLastFourClientLines(t *testing.T) {
	g := newGenerator(nil)
	many := "CLIENTE: uno\nCLIENTE: dos\nCLIENTE: tres\nCLIENTE: cuatro\nCLIENTE: cinco\nCLIENTE: seis"

	note, _ := g.Summarize(context.Background(), "", "", "", many)
	if strings.Contains(note, "uno") || strings.Contains(note, "dos") {
		t.Errorf("only the last four client lines should survive: %q", note)
	}
	if !strings.Contains(note, "tres | cuatro | cinco | seis") {
		t.Errorf("note = %q", note)
	}
}

func TestSummarize_HeuristicWithoutClientLines(t *testing.T) {
	g := newGenerator(nil)

	note, _ := g.Summarize(context.Background(), "", "", "", "BOT: solo mensajes del bot por acá")
	if !strings.Contains(note, "solo mensajes del bot") {
		t.Errorf("note should fall back to the conversation head: %q", note)
	}
}

func TestSummarize_EmptyConversation(t *testing.T) {
	e := &fakeEnricher{response: "no debería llamarse"}
	g := newGenerator(e)

	note, prov := g.Summarize(context.Background(), "Ana", "", "", "   ")
	if note != "Sin conversación registrada." {
		t.Errorf("note = %q", note)
	}
	if prov != Heuristic {
		t.Errorf("provenance = %v, want Heuristic", prov)
	}
	if e.prompt != "" {
		t.Error("enricher must not be called for empty conversations")
	}
}

func TestPrompt_EnglishConversation(t *testing.T) {
	e := &fakeEnricher{response: "Summary: client wants a two bedroom."}
	g := newGenerator(e)
	english := "BOT: Hello, how can I help you today?\n" +
		"CLIENTE: I am looking for a two bedroom apartment with a parking space\n" +
		"CLIENTE: my budget is around two hundred thousand dollars and I would like a quiet neighborhood"

	g.Summarize(context.Background(), "John", "+56912345678", "", english)
	if !strings.Contains(e.prompt, "real estate sales assistant") {
		t.Errorf("english conversation should get the english prompt, got: %.120s", e.prompt)
	}
}
