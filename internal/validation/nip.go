package validation

import (
	"regexp"
	"strings"
)

var (
	nipWeights = [9]int{6, 5, 7, 2, 3, 4, 5, 6, 7}

	// nipPattern matches ten digits optionally separated by single dashes or spaces,
	// with an optional EU "PL" prefix written directly before the digits.
	nipPattern = regexp.MustCompile(`(?:\b(?i:PL)|\b)\d(?:[- ]?\d){9}\b`)
)

// NormalizeNIP strips separators and an optional "PL" prefix.
func NormalizeNIP(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "PL")
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidNIP checks the NIP checksum: the weighted sum of the first nine digits modulo 11
// must equal the tenth digit. A remainder of 10 is never valid.
func ValidNIP(raw string) bool {
	nip := NormalizeNIP(raw)
	if len(nip) != 10 {
		return false
	}

	sum := 0
	for i, w := range nipWeights {
		sum += int(nip[i]-'0') * w
	}
	check := sum % 11
	if check == 10 {
		return false
	}
	if check != int(nip[9]-'0') {
		return false
	}
	// all zeros passes the arithmetic but is not an issued number
	return nip != "0000000000"
}

// FindNIPCandidates returns every 10-digit identifier-like token in the text, normalized.
func FindNIPCandidates(text string) []string {
	matches := nipPattern.FindAllString(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, NormalizeNIP(m))
	}
	return out
}
