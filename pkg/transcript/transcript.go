// Package transcript decodes raw chat transcripts (JSON arrays of turn
// objects, often mangled by an upstream CSV escape layer) into a normalized
// role-tagged plain-text conversation. Decoding never fails: each attempt
// degrades to a weaker strategy and the outcome is tagged so callers can
// branch without error plumbing.
package transcript

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/desarrollo-Urbani/Visor-leads-urbani/models"
)

// Role labels used in the rendered conversation.
const (
	RoleClient = "CLIENTE"
	RoleBot    = "BOT"
)

// DecodeOutcome tags which strategy produced the conversation text.
type DecodeOutcome int

const (
	// DecodeStrict: the transcript was valid JSON.
	DecodeStrict DecodeOutcome = iota
	// DecodePermissive: Python-literal style input repaired into JSON.
	DecodePermissive
	// DecodeDegraded: undecodable; brackets stripped, residue returned.
	DecodeDegraded
)

func (o DecodeOutcome) String() string {
	switch o {
	case DecodeStrict:
		return "strict"
	case DecodePermissive:
		return "permissive"
	default:
		return "degraded"
	}
}

var (
	hspaceRe   = regexp.MustCompile(`[ \t]+`)
	newlinesRe = regexp.MustCompile(`\n{3,}`)
	bracketsRe = regexp.MustCompile(`[{}\[\]]`)
)

// Parser renders transcripts using the configured client sender labels and
// character budget. It is stateless and safe for concurrent use.
type Parser struct {
	clientSenders map[string]bool
	maxChars      int
}

func NewParser(cfg models.Config) *Parser {
	senders := make(map[string]bool, len(cfg.ClientSenders))
	for _, s := range cfg.ClientSenders {
		senders[strings.ToLower(s)] = true
	}
	return &Parser{clientSenders: senders, maxChars: cfg.MaxConvChars}
}

// Parse converts a raw transcript into "ROLE: message" lines. It is total:
// any input yields some text (possibly empty) plus the outcome tag.
func (p *Parser) Parse(raw string) (string, DecodeOutcome) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", DecodeStrict
	}
	raw = unescape(raw)

	value, outcome := decode(raw)
	if outcome == DecodeDegraded {
		return p.finish(bracketsRe.ReplaceAllString(raw, "")), DecodeDegraded
	}

	items, ok := value.([]interface{})
	if !ok {
		// Decoded, but not an array of turns: degrade to the value's text.
		return p.finish(bracketsRe.ReplaceAllString(stringify(value), "")), DecodeDegraded
	}

	var lines []string
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		sender := firstString(obj, "sender", "from")
		if sender == "" {
			sender = RoleBot
		}
		msg := strings.TrimSpace(firstString(obj, "message", "text"))
		if msg == "" {
			continue
		}
		msg = stripMarkup(msg)

		role := RoleBot
		if p.clientSenders[strings.ToLower(strings.TrimSpace(sender))] {
			role = RoleClient
		}
		lines = append(lines, role+": "+msg)
	}

	return p.finish(strings.Join(lines, "\n")), outcome
}

// ClientLines returns the client-authored lines of a rendered conversation
// with the role prefix stripped.
func ClientLines(conversation string) []string {
	var out []string
	for _, line := range strings.Split(conversation, "\n") {
		if strings.HasPrefix(line, RoleClient+":") {
			out = append(out, strings.TrimSpace(strings.TrimPrefix(line, RoleClient+":")))
		}
	}
	return out
}

// finish applies whitespace normalization and the character budget. The tail
// is cut, not the head: the opening of a sales conversation carries the
// lead's intent.
func (p *Parser) finish(text string) string {
	text = hspaceRe.ReplaceAllString(text, " ")
	text = newlinesRe.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)
	if p.maxChars > 0 {
		if runes := []rune(text); len(runes) > p.maxChars {
			text = string(runes[:p.maxChars])
		}
	}
	return text
}

// unescape undoes one layer of CSV quote doubling, but only when the string
// actually looks like an escaped transcript.
func unescape(s string) string {
	if strings.Contains(s, `""`) && (strings.Contains(s, "sender") || strings.Contains(s, "message")) {
		return strings.ReplaceAll(s, `""`, `"`)
	}
	return s
}

// decode tries strict JSON, then a permissive pass that repairs
// Python-literal conventions (single quotes, None/True/False).
func decode(raw string) (interface{}, DecodeOutcome) {
	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err == nil {
		return value, DecodeStrict
	}
	if err := json.Unmarshal([]byte(repairLiteral(raw)), &value); err == nil {
		return value, DecodePermissive
	}
	return nil, DecodeDegraded
}

// repairLiteral rewrites a Python-ish literal into JSON. Good enough for the
// single-quoted dict arrays these exports contain; anything weirder falls
// through to the degraded path.
func repairLiteral(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	inDouble := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c == '"' && (i == 0 || raw[i-1] != '\\'):
			inDouble = !inDouble
			b.WriteByte(c)
		case c == '\'' && !inDouble:
			b.WriteByte('"')
		default:
			b.WriteByte(c)
		}
	}
	s := b.String()
	s = strings.ReplaceAll(s, ": None", ": null")
	s = strings.ReplaceAll(s, ": True", ": true")
	s = strings.ReplaceAll(s, ": False", ": false")
	return s
}

// stringify renders a decoded non-array value as plain text. A JSON string
// comes back without its quoting.
func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func firstString(obj map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := obj[key]; ok && v != nil {
			if s, ok := v.(string); ok {
				return s
			}
			return fmt.Sprint(v)
		}
	}
	return ""
}

// stripMarkup flattens inline HTML fragments that web chat widgets leave in
// messages. Plain text passes through untouched.
func stripMarkup(msg string) string {
	if !strings.Contains(msg, "<") || !strings.Contains(msg, ">") {
		return msg
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(msg))
	if err != nil {
		return msg
	}
	text := strings.TrimSpace(doc.Text())
	if text == "" {
		return msg
	}
	return text
}
