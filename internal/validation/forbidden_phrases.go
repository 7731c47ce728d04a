package validation

import (
	"fmt"
	"strings"

	"github.com/jonathan/brdocs/internal/types"
)

// defaultForbiddenPhrases are promotional claims that do not belong in tax documentation.
// Matching is by substring, so stems cover the inflected forms.
var defaultForbiddenPhrases = []string{
	"rewolucyjn",
	"najlepszy na świecie",
	"najlepsze na świecie",
	"bezkonkurencyjn",
	"gwarantujemy",
	"100% skuteczności",
	"światowej klasy",
}

// CheckForbiddenPhrases reports at most one forbidden phrase per document line.
func CheckForbiddenPhrases(doc string, phrases []string) []types.Issue {
	if len(phrases) == 0 {
		return nil
	}

	var issues issueList
	for i, raw := range strings.Split(doc, "\n") {
		lineNum := i + 1
		line := normalizeForMatching(strings.TrimSuffix(raw, "\r"))

		for _, phrase := range phrases {
			normalizedPhrase := strings.ToLower(strings.TrimSpace(phrase))
			if normalizedPhrase == "" {
				continue
			}
			if strings.Contains(line, normalizedPhrase) {
				issues.add("forbidden_phrase", types.SeverityWarning, fmt.Sprintf("linia %d", lineNum),
					fmt.Sprintf("Linia %d zawiera niedozwolone sformułowanie: %s", lineNum, phrase),
					"Zastąp sformułowanie rzeczowym opisem popartym danymi")
				break
			}
		}
	}
	return issues
}

// normalizeForMatching drops markdown emphasis markers and lowercases the line.
func normalizeForMatching(line string) string {
	line = strings.ReplaceAll(line, "**", "")
	line = strings.ReplaceAll(line, "__", "")
	line = strings.ReplaceAll(line, "`", "")
	line = strings.ReplaceAll(line, "\u00a0", " ")
	return strings.ToLower(line)
}
