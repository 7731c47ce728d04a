package validation

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountPattern matches amounts such as "194 000,00", "194.000,00", "194000.00" and "194000".
// Alternatives are tried left to right, so grouped forms win over a bare digit run.
var amountPattern = regexp.MustCompile(
	`\d{1,3}(?:[ \x{00A0}]\d{3})+(?:[.,]\d{1,2})?` +
		`|\d{1,3}(?:\.\d{3})+(?:,\d{1,2})?` +
		`|\d+(?:[.,]\d{1,2})?`,
)

// NormalizeAmount converts a formatted amount into a decimal rounded to 2 places.
// With both ',' and '.', the dot is a thousands separator and the comma the decimal mark.
// With only ',', the comma is the decimal mark.
func NormalizeAmount(token string) (decimal.Decimal, bool) {
	s := strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' || r == '\t' || r == '\n' {
			return -1
		}
		return r
	}, token)

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d.Round(2), true
}

// AmountSet is the set of amounts found in a document, keyed by their 2-place string form.
type AmountSet map[string]decimal.Decimal

// ExtractAmounts collects every amount-like token of the text.
func ExtractAmounts(text string) AmountSet {
	set := make(AmountSet)
	for _, token := range amountPattern.FindAllString(text, -1) {
		if d, ok := NormalizeAmount(token); ok {
			set[d.StringFixed(2)] = d
		}
	}
	return set
}

// Contains reports whether any amount lies within tolerance of target.
func (s AmountSet) Contains(target, tolerance decimal.Decimal) bool {
	for _, d := range s {
		if AmountsMatch(d, target, tolerance) {
			return true
		}
	}
	return false
}

// AmountsMatch reports whether |a - b| <= tolerance.
func AmountsMatch(a, b, tolerance decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tolerance)
}
