package validation

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/brdocs/internal/markdown"
	"github.com/jonathan/brdocs/internal/types"
)

const (
	titleSearchLines  = 10
	maxLooseListItems = 3
)

// sectionRule maps a section identifier to heading patterns.
type sectionRule struct {
	ID       string
	Label    string
	Required bool
	Patterns []*regexp.Regexp
}

var sectionRules = []sectionRule{
	{
		ID: "executive_summary", Label: "Streszczenie", Required: true,
		Patterns: compileAll(`(?i)streszczenie`, `(?i)podsumowanie\s+wykonawcze`, `(?i)executive\s+summary`),
	},
	{
		ID: "methodology", Label: "Metodologia", Required: true,
		Patterns: compileAll(`(?i)metodologi`, `(?i)metodyk`, `(?i)methodology`),
	},
	{
		ID: "costs", Label: "Koszty kwalifikowane", Required: true,
		Patterns: compileAll(`(?i)koszt`, `(?i)budżet`, `(?i)\bcosts?\b`),
	},
	{
		ID: "timeline", Label: "Harmonogram", Required: true,
		Patterns: compileAll(`(?i)harmonogram`, `(?i)plan\s+realizacji`, `(?i)timeline`),
	},
	{
		ID: "conclusions", Label: "Wnioski", Required: true,
		Patterns: compileAll(`(?i)wnioski`, `(?i)^(?:\d+\.?\s*)?podsumowanie\s*$`, `(?i)conclusions?`),
	},
	{
		ID: "risk_assessment", Label: "Analiza ryzyka", Required: false,
		Patterns: compileAll(`(?i)ryzyk`, `(?i)\brisks?\b`),
	},
}

var (
	fenceLine    = regexp.MustCompile("^\\s*```")
	listItemLine = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+`)
	headingLine  = regexp.MustCompile(`^\s{0,3}#{1,6}(?:\s|$)`)
)

// StructureStage checks the markdown shape of the document.
type StructureStage struct {
	policy Policy
}

// NewStructureStage creates the structure stage.
func NewStructureStage(policy Policy) *StructureStage {
	return &StructureStage{policy: policy.withDefaults()}
}

// Name returns the stage identifier.
func (s *StructureStage) Name() string { return StageStructure }

// Criteria lists what the stage checks.
func (s *StructureStage) Criteria() []string {
	return []string{
		"Dokument zaczyna się tytułem (nagłówek poziomu 1)",
		"Dokument zawiera wszystkie wymagane sekcje",
		"Hierarchia nagłówków nie pomija poziomów",
		"Sekcje poziomu 2 mają co najmniej kilka zdań treści",
		"Markdown jest poprawny (bloki kodu, linki, listy)",
	}
}

// CorrectionInstructions steers the text-improvement capability.
func (s *StructureStage) CorrectionInstructions() string {
	return `Popraw strukturę dokumentu markdown:
- dodaj brakujące sekcje z nagłówkami poziomu 2 (Streszczenie, Metodologia, Koszty kwalifikowane, Harmonogram, Wnioski),
- zachowaj ciągłość poziomów nagłówków,
- rozwiń zbyt krótkie sekcje o merytoryczną treść wynikającą z dokumentu,
- zamknij bloki kodu i usuń puste linki.
Nie zmieniaj kwot, numeru NIP ani nazw własnych.`
}

// Validate runs the structural checks.
func (s *StructureStage) Validate(_ context.Context, vctx *types.ValidationContext) *types.StageResult {
	doc := vctx.Document
	outline := markdown.Parse(doc)
	var issues issueList

	s.checkTitle(outline, &issues)
	found, missing, optionalFound := s.checkSections(outline, &issues)
	s.checkHierarchy(outline, &issues)
	shortSections := s.checkSectionLengths(outline, &issues)
	fences, emptyLinks, looseItems := s.checkMarkdown(doc, outline, &issues)

	metadata := map[string]any{
		"headings_count":          len(outline.Headings),
		"sections_found":          found,
		"sections_missing":        missing,
		"optional_sections_found": optionalFound,
		"short_sections":          shortSections,
		"code_fences":             fences,
		"empty_links":             emptyLinks,
		"loose_list_items":        looseItems,
		"word_count":              len(strings.Fields(doc)),
	}

	return NewStageResult(s.Name(), iterationOf(vctx), issues, metadata, s.policy)
}

func (s *StructureStage) checkTitle(outline *markdown.Outline, issues *issueList) {
	for _, h := range outline.Headings {
		if h.Line > titleSearchLines {
			break
		}
		if h.Level == 1 {
			return
		}
	}
	issues.add("missing_title", types.SeverityError, "document",
		fmt.Sprintf("Brak tytułu (nagłówka poziomu 1) w pierwszych %d liniach dokumentu", titleSearchLines),
		"Dodaj na początku dokumentu nagłówek '# <nazwa projektu>'")
}

func (s *StructureStage) checkSections(outline *markdown.Outline, issues *issueList) (found, missing []string, optionalFound int) {
	found = []string{}
	missing = []string{}
	for _, rule := range sectionRules {
		if !headingMatches(outline, rule.Patterns) {
			if rule.Required {
				missing = append(missing, rule.ID)
				issues.add("missing_section", types.SeverityError, rule.ID,
					fmt.Sprintf("Brak wymaganej sekcji: %s", rule.Label),
					fmt.Sprintf("Dodaj sekcję '## %s'", rule.Label))
			} else {
				issues.add("optional_section_missing", types.SeverityInfo, rule.ID,
					fmt.Sprintf("Brak sekcji opcjonalnej: %s", rule.Label),
					fmt.Sprintf("Rozważ dodanie sekcji '## %s'", rule.Label))
			}
			continue
		}
		found = append(found, rule.ID)
		if !rule.Required {
			optionalFound++
		}
	}
	return found, missing, optionalFound
}

func headingMatches(outline *markdown.Outline, patterns []*regexp.Regexp) bool {
	for _, h := range outline.Headings {
		for _, p := range patterns {
			if p.MatchString(h.Text) {
				return true
			}
		}
	}
	return false
}

func (s *StructureStage) checkHierarchy(outline *markdown.Outline, issues *issueList) {
	for i := 1; i < len(outline.Headings); i++ {
		prev := outline.Headings[i-1]
		cur := outline.Headings[i]
		if cur.Level > prev.Level+1 {
			issues.add("heading_hierarchy", types.SeverityWarning, cur.Text,
				fmt.Sprintf("Nagłówek '%s' przeskakuje z poziomu %d na poziom %d", cur.Text, prev.Level, cur.Level),
				fmt.Sprintf("Użyj nagłówka poziomu %d (%s)", prev.Level+1, strings.Repeat("#", prev.Level+1)))
		}
	}
}

func (s *StructureStage) checkSectionLengths(outline *markdown.Outline, issues *issueList) int {
	short := 0
	for _, i := range outline.HeadingsAtLevel(2) {
		body := outline.SectionBody(i)
		n := utf8.RuneCountInString(body)
		if n < s.policy.MinSectionChars {
			short++
			title := outline.Headings[i].Text
			issues.add("section_too_short", types.SeverityWarning, title,
				fmt.Sprintf("Sekcja '%s' ma tylko %d znaków treści (minimum %d)", title, n, s.policy.MinSectionChars),
				"Rozwiń sekcję o szczegóły merytoryczne")
		}
	}
	return short
}

func (s *StructureStage) checkMarkdown(doc string, outline *markdown.Outline, issues *issueList) (fences, emptyLinks, looseItems int) {
	lines := strings.Split(doc, "\n")

	inFence := false
	prev := ""
	for _, line := range lines {
		if fenceLine.MatchString(line) {
			fences++
			inFence = !inFence
			prev = line
			continue
		}
		if !inFence && listItemLine.MatchString(line) {
			p := strings.TrimSpace(prev)
			if p != "" && !listItemLine.MatchString(prev) && !headingLine.MatchString(prev) {
				looseItems++
			}
		}
		prev = line
	}

	if fences%2 != 0 {
		issues.add("unclosed_code_block", types.SeverityError, "document",
			"Niezamknięty blok kodu (nieparzysta liczba znaczników ```)",
			"Zamknij blok kodu znacznikiem ```")
	}

	for _, link := range outline.Links {
		if strings.TrimSpace(link.Destination) == "" {
			emptyLinks++
			issues.add("empty_link", types.SeverityWarning, fmt.Sprintf("line %d", link.Line),
				fmt.Sprintf("Link '%s' nie ma adresu docelowego", link.Text),
				"Uzupełnij adres linku lub zamień go na zwykły tekst")
		}
	}

	if looseItems > maxLooseListItems {
		issues.add("list_formatting", types.SeverityInfo, "document",
			fmt.Sprintf("%d elementów listy nie jest poprzedzonych pustą linią", looseItems),
			"Oddziel listy od akapitów pustą linią")
	}

	return fences, emptyLinks, looseItems
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}
