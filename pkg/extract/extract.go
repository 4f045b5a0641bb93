// Package extract recovers structured lead fields from raw strings and
// normalized conversation text. Every function is total: malformed input maps
// to the documented default, never to an error.
package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/desarrollo-Urbani/Visor-leads-urbani/pkg/transcript"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// Local part must start alphanumeric so escaped-newline artifacts
	// ("\\njuan@...") are not captured from position one.
	emailRe = regexp.MustCompile(`[a-z0-9][\w.\-]*@[\w.\-]+\.\w+`)

	phoneRe     = regexp.MustCompile(`\b(56\d{9}|\d{8,9})\b`)
	nonDigitRe  = regexp.MustCompile(`\D`)
	nonWordRe   = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)
	whitespace  = regexp.MustCompile(`\s+`)
	moneyMillRe = regexp.MustCompile(`(?i)\b(\d+(?:[.,]\d+)?)\s*(millones?|millón)\b`)
	moneyMilRe  = regexp.MustCompile(`(?i)\b(\d{2,4})\s*mil\b`)
	moneyNumRe  = regexp.MustCompile(`\b(\d{1,3}(?:[.,]\d{3})+|\d{6,8})\b`)
	nonMoneyRe  = regexp.MustCompile(`[^\d.]`)
)

// Email finds the first email-shaped substring, case-insensitively. Returns
// "" when none is present.
func Email(text string) string {
	return emailRe.FindString(strings.ToLower(text))
}

// Phone normalizes a Chilean phone number. The raw phone field is preferred;
// when it carries no digits at all, the conversation text is scanned for a
// plausible number. Unrecognized digit runs are returned as best-effort
// "+digits"; nothing recoverable yields "".
func Phone(rawPhone, conversation string) string {
	digits := nonDigitRe.ReplaceAllString(rawPhone, "")
	if digits == "" {
		if m := phoneRe.FindString(conversation); m != "" {
			return formatChilean(m)
		}
		return ""
	}
	if formatted := formatChilean(digits); formatted != "" {
		return formatted
	}
	return "+" + digits
}

// formatChilean applies the local dialing rules: full e.164 without "+",
// a 9-digit mobile, or a bare 8-digit subscriber number.
func formatChilean(digits string) string {
	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "56"):
		return "+" + digits
	case len(digits) == 9 && strings.HasPrefix(digits, "9"):
		return "+56" + digits
	case len(digits) == 8:
		return "+569" + digits
	}
	return ""
}

// Income extracts a monthly income (CLP) from the client-authored lines of a
// conversation. "0" means not mentioned. A number is only trusted when an
// income keyword appears in the client text; then "X millones" beats
// "X mil" beats a thousands-grouped or 6-8 digit plain amount.
func Income(conversation string, keywords []string) string {
	client := strings.Join(transcript.ClientLines(conversation), " ")
	if !containsKeyword(client, keywords) {
		return "0"
	}

	if m := moneyMillRe.FindStringSubmatch(client); m != nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64); err == nil {
			return strconv.Itoa(int(math.Trunc(v * 1_000_000)))
		}
	}
	if m := moneyMilRe.FindStringSubmatch(client); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			return strconv.Itoa(v * 1000)
		}
	}
	if m := moneyNumRe.FindStringSubmatch(client); m != nil {
		if clean := nonDigitRe.ReplaceAllString(m[1], ""); clean != "" {
			return clean
		}
	}
	return "0"
}

// IncomeFromField normalizes a rent/income column value: "$1.200.000",
// "1.200.000_a_1.500.000" and similar range notations all yield the first
// amount above 1000 CLP, dots treated as thousands separators. Anything else
// yields "0".
func IncomeFromField(raw string) string {
	s := strings.NewReplacer("_a_", " ", " a ", " ", "-", " ").Replace(raw)
	s = nonMoneyRe.ReplaceAllString(s, " ")
	for _, part := range strings.Fields(s) {
		digits := strings.ReplaceAll(part, ".", "")
		v, err := strconv.Atoi(digits)
		if err != nil {
			continue
		}
		if v > 1000 {
			return strconv.Itoa(v)
		}
	}
	return "0"
}

func containsKeyword(text string, keywords []string) bool {
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
		if err != nil {
			continue
		}
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// genericNames are placeholder values that sometimes survive upstream
// serialization as a literal name.
var genericNames = map[string]bool{"nan": true, "none": true, "null": true}

// CleanName strips emoji and punctuation from a display name, collapses
// whitespace and title-cases each word. Names shorter than two characters or
// equal to a placeholder token clean to "".
func CleanName(raw string) string {
	name := nonWordRe.ReplaceAllString(raw, "")
	name = strings.TrimSpace(whitespace.ReplaceAllString(name, " "))
	if len([]rune(name)) < 2 || genericNames[strings.ToLower(name)] {
		return ""
	}
	return cases.Title(language.Spanish).String(strings.ToLower(name))
}
