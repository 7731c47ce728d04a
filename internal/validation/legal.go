package validation

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jonathan/brdocs/internal/llm"
	"github.com/jonathan/brdocs/internal/markdown"
	"github.com/jonathan/brdocs/internal/types"
)

// legalCriterion is one statutory feature of R&D activity with the vocabulary that evidences it.
type legalCriterion struct {
	ID       string
	Label    string
	Keywords []string
	MinHits  int
}

var legalCriteria = []legalCriterion{
	{
		ID: "systematicity", Label: "Systematyczność", MinHits: 2,
		Keywords: []string{"systematyczn", "harmonogram", "etap", "plan", "metodyk", "zorganizowan", "regularn"},
	},
	{
		ID: "creativity", Label: "Twórczość", MinHits: 2,
		Keywords: []string{"twórcz", "kreatywn", "oryginaln", "autorsk", "koncepcj", "nowatorsk"},
	},
	{
		ID: "innovation", Label: "Innowacyjność", MinHits: 3,
		Keywords: []string{"innowac", "nowy", "nowe", "nowość", "ulepsz", "udoskonal", "wdroż", "przewag"},
	},
	{
		ID: "uncertainty", Label: "Niepewność wyniku", MinHits: 2,
		Keywords: []string{"niepewnoś", "ryzyk", "hipotez", "eksperyment", "nieznan", "weryfikacj", "test"},
	},
	{
		ID: "documentation", Label: "Dokumentowanie prac", MinHits: 1,
		Keywords: []string{"dokumentacj", "ewidencj", "raport", "protokoł", "protokół", "rejestr"},
	},
}

// costCategoryGroups lists the vocabulary of the qualified-cost categories.
var costCategoryGroups = map[string][]string{
	"wages":           {"wynagrodze", "płac", "pensj", "umow"},
	"materials":       {"materiał", "surowc"},
	"equipment":       {"sprzęt", "aparatur", "urządze"},
	"expert_opinions": {"ekspertyz", "opini", "usług doradcz", "usługi badawcze"},
	"depreciation":    {"amortyzac", "odpis"},
}

var requiredLegalPhrases = []string{"rok podatkowy", "koszty kwalifikowane"}

const minCostCategoryGroups = 2

// LegalStage checks the statutory vocabulary, the taxpayer identifier and the cost terminology.
type LegalStage struct {
	assessor llm.QualityAssessor
	policy   Policy
}

// NewLegalStage creates the legal compliance stage. A nil assessor disables the delegated check.
func NewLegalStage(assessor llm.QualityAssessor, policy Policy) *LegalStage {
	return &LegalStage{assessor: assessor, policy: policy.withDefaults()}
}

// Name returns the stage identifier.
func (s *LegalStage) Name() string { return StageLegal }

// Criteria lists what the stage checks.
func (s *LegalStage) Criteria() []string {
	out := make([]string, 0, len(legalCriteria)+3)
	for _, c := range legalCriteria {
		out = append(out, fmt.Sprintf("%s (min. %d pojęcia)", c.Label, c.MinHits))
	}
	return append(out,
		"Dokument zawiera poprawny NIP podatnika",
		"Dokument nazywa co najmniej dwie kategorie kosztów kwalifikowanych",
		"Dokument używa zwrotów 'rok podatkowy' i 'koszty kwalifikowane'",
	)
}

// CorrectionInstructions steers the text-improvement capability.
func (s *LegalStage) CorrectionInstructions() string {
	return `Dostosuj dokument do wymogów ulgi B+R (art. 18d ustawy o CIT, art. 26e ustawy o PIT):
- opisz systematyczny charakter prac (plan, etapy, harmonogram),
- wskaż twórczy i nowatorski charakter rozwiązania oraz niepewność osiągnięcia wyniku,
- nazwij kategorie kosztów kwalifikowanych (wynagrodzenia, materiały, sprzęt, ekspertyzy, amortyzacja),
- użyj zwrotów 'rok podatkowy' i 'koszty kwalifikowane',
- opisz sposób dokumentowania prac (ewidencja, raporty).
Nie zmieniaj numeru NIP ani kwot.`
}

// Validate runs the legal checks over the plain text of the document.
func (s *LegalStage) Validate(ctx context.Context, vctx *types.ValidationContext) *types.StageResult {
	text := markdown.PlainText(vctx.Document)
	var issues issueList

	criteriaHits := s.checkCriteria(text, &issues)
	nipCandidates := s.checkNIP(text, vctx.Project, &issues)
	groups := s.checkCostCategories(text, &issues)
	s.checkPhrases(text, &issues)

	metadata := map[string]any{
		"criteria_hits":        criteriaHits,
		"nip_candidates":       nipCandidates,
		"cost_category_groups": groups,
		"llm_check":            "disabled",
	}
	if s.assessor != nil {
		s.delegatedReview(ctx, vctx, &issues, metadata)
	}

	return NewStageResult(s.Name(), iterationOf(vctx), issues, metadata, s.policy)
}

func (s *LegalStage) checkCriteria(text string, issues *issueList) map[string]int {
	hits := make(map[string]int, len(legalCriteria))
	for _, c := range legalCriteria {
		n := 0
		for _, kw := range c.Keywords {
			if containsFold(text, kw) {
				n++
			}
		}
		hits[c.ID] = n
		if n < c.MinHits {
			sample := c.Keywords
			if len(sample) > 3 {
				sample = sample[:3]
			}
			issues.add("legal_criterion_missing", types.SeverityError, c.ID,
				fmt.Sprintf("Kryterium '%s' jest niewystarczająco udokumentowane (%d z wymaganych %d pojęć)", c.Label, n, c.MinHits),
				fmt.Sprintf("Opisz to kryterium, używając pojęć takich jak: %s", strings.Join(sample, ", ")))
		}
	}
	return hits
}

func (s *LegalStage) checkNIP(text string, rec *types.ProjectRecord, issues *issueList) int {
	candidates := FindNIPCandidates(text)
	if len(candidates) == 0 {
		issues.add("missing_nip", types.SeverityCritical, "document",
			"Dokument nie zawiera numeru NIP podatnika",
			"Podaj NIP firmy w sekcji z danymi podatnika")
		return 0
	}
	if rec == nil || strings.TrimSpace(rec.Company.NIP) == "" {
		return len(candidates)
	}

	expected := NormalizeNIP(rec.Company.NIP)
	if !ValidNIP(expected) {
		issues.add("invalid_nip", types.SeverityError, "company.nip",
			fmt.Sprintf("Zadeklarowany NIP %s ma niepoprawną sumę kontrolną", rec.Company.NIP),
			"Sprawdź NIP w danych firmy")
	}

	for _, c := range candidates {
		if c == expected {
			return len(candidates)
		}
	}
	issues.add("nip_mismatch", types.SeverityError, "document",
		fmt.Sprintf("Żaden numer w dokumencie nie odpowiada NIP firmy %s", rec.Company.NIP),
		fmt.Sprintf("Użyj NIP %s", expected))
	return len(candidates)
}

func (s *LegalStage) checkCostCategories(text string, issues *issueList) []string {
	found := []string{}
	for _, group := range sortedKeys(costCategoryGroups) {
		for _, kw := range costCategoryGroups[group] {
			if containsFold(text, kw) {
				found = append(found, group)
				break
			}
		}
	}
	if len(found) < minCostCategoryGroups {
		issues.add("cost_categories_missing", types.SeverityWarning, "costs",
			fmt.Sprintf("Dokument nazywa %d kategorii kosztów kwalifikowanych (minimum %d)", len(found), minCostCategoryGroups),
			"Wymień kategorie kosztów: wynagrodzenia, materiały, sprzęt, ekspertyzy, amortyzacja")
	}
	return found
}

func (s *LegalStage) checkPhrases(text string, issues *issueList) {
	for _, phrase := range requiredLegalPhrases {
		if !containsFold(text, phrase) {
			issues.add("missing_legal_phrase", types.SeverityWarning, "document",
				fmt.Sprintf("Brak wymaganego zwrotu '%s'", phrase),
				fmt.Sprintf("Użyj zwrotu '%s' w opisie projektu", phrase))
		}
	}
}

// delegatedReview asks the assessor for a legal review. Failures are only logged.
func (s *LegalStage) delegatedReview(ctx context.Context, vctx *types.ValidationContext, issues *issueList, metadata map[string]any) {
	criteria := make([]string, 0, len(legalCriteria)+1)
	for _, c := range legalCriteria {
		criteria = append(criteria, c.Label)
	}
	criteria = append(criteria, "Zgodność z art. 18d ustawy o CIT i art. 26e ustawy o PIT")

	report, err := s.assessor.AssessQuality(ctx, llm.QualityRequest{
		Text:     vctx.Document,
		Criteria: criteria,
		Context:  "Ocena zgodności z wymogami ulgi B+R. " + projectContext(vctx.Project),
	})
	if err != nil {
		log.Printf("[legal] legal assessment unavailable: %v", err)
		metadata["llm_check"] = "unavailable"
		return
	}

	metadata["llm_check"] = "completed"
	metadata["llm_score"] = report.OverallScore
	for _, qi := range report.Issues {
		location := qi.Location
		if location == "" {
			location = qi.Criterion
		}
		issues.add("legal_quality", types.ParseSeverity(qi.Severity), location, qi.Message, qi.Suggestion)
	}
}
