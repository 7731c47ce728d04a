package validation

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/jonathan/brdocs/internal/llm"
	"github.com/jonathan/brdocs/internal/markdown"
	"github.com/jonathan/brdocs/internal/types"
)

// innovationKeywords lists the vocabulary expected for each innovation type.
var innovationKeywords = map[string][]string{
	types.InnovationProduct: {"produkt", "rozwiązanie", "system"},
	types.InnovationProcess: {"proces", "metod", "technologi", "procedur", "usprawnieni"},
}

func init() {
	mixed := append([]string{}, innovationKeywords[types.InnovationProduct]...)
	innovationKeywords[types.InnovationMixed] = append(mixed, innovationKeywords[types.InnovationProcess]...)
}

var contentCriteria = []string{
	"Spójność i logiczny przebieg wywodu",
	"Poprawność merytoryczna i techniczna opisu",
	"Zgodność informacji między sekcjami dokumentu",
	"Profesjonalny język i rejestr właściwy dla dokumentacji podatkowej",
	"Poparcie twierdzeń konkretnymi danymi lub przykładami",
	"Zgodność celu projektu z jego opisem",
	"Jasne wskazanie elementu nowości i innowacyjności",
	"Metodologia opisana krok po kroku",
}

// ContentStage checks that the document is consistent with the project record
// and, when an assessor is configured, asks it for a qualitative review.
type ContentStage struct {
	assessor llm.QualityAssessor
	policy   Policy
}

// NewContentStage creates the content stage. A nil assessor disables the delegated check.
func NewContentStage(assessor llm.QualityAssessor, policy Policy) *ContentStage {
	return &ContentStage{assessor: assessor, policy: policy.withDefaults()}
}

// Name returns the stage identifier.
func (s *ContentStage) Name() string { return StageContent }

// Criteria lists what the stage checks.
func (s *ContentStage) Criteria() []string {
	out := []string{
		"Dokument wymienia nazwę firmy, nazwę projektu i rok podatkowy",
		"Dokument używa słownictwa właściwego dla typu innowacji",
		"Dokument nie zawiera sformułowań promocyjnych",
	}
	return append(out, contentCriteria...)
}

// CorrectionInstructions steers the text-improvement capability.
func (s *ContentStage) CorrectionInstructions() string {
	return `Popraw treść dokumentu B+R:
- upewnij się, że dokument wymienia pełną nazwę firmy, nazwę projektu i rok podatkowy,
- opisz element nowości (produkt, proces lub rozwiązanie) i sposób jego osiągnięcia,
- usuń sprzeczności między sekcjami, wzmocnij twierdzenia konkretnymi danymi z dokumentu,
- zastąp sformułowania promocyjne rzeczowym opisem.
Zachowaj język polski i formalny rejestr. Nie zmieniaj kwot ani numeru NIP.`
}

// Validate runs the deterministic checks and the optional delegated review.
func (s *ContentStage) Validate(ctx context.Context, vctx *types.ValidationContext) *types.StageResult {
	doc := vctx.Document
	var issues issueList
	metadata := map[string]any{}

	if vctx.Project != nil {
		s.checkRecordMentions(doc, vctx.Project, &issues)
		hits := s.checkInnovationVocabulary(markdown.PlainText(doc), vctx.Project.Project.InnovationType, &issues)
		metadata["innovation_keyword_hits"] = hits
	}

	forbidden := CheckForbiddenPhrases(doc, s.policy.ForbiddenPhrases)
	issues = append(issues, forbidden...)
	metadata["forbidden_phrases"] = len(forbidden)

	metadata["llm_check"] = "disabled"
	if s.assessor != nil {
		s.delegatedReview(ctx, vctx, &issues, metadata)
	}

	return NewStageResult(s.Name(), iterationOf(vctx), issues, metadata, s.policy)
}

func (s *ContentStage) checkRecordMentions(doc string, rec *types.ProjectRecord, issues *issueList) {
	if name := strings.TrimSpace(rec.Company.Name); name != "" && !containsFold(doc, name) {
		issues.add("missing_company_name", types.SeverityError, "document",
			fmt.Sprintf("Dokument nie wymienia nazwy firmy '%s'", name),
			"Podaj pełną nazwę firmy w streszczeniu")
	}
	if name := strings.TrimSpace(rec.Project.Name); name != "" && !containsFold(doc, name) {
		issues.add("missing_project_name", types.SeverityWarning, "document",
			fmt.Sprintf("Dokument nie wymienia nazwy projektu '%s'", name),
			"Użyj nazwy projektu w tytule lub streszczeniu")
	}
	if year := rec.Project.FiscalYear; year > 0 && !strings.Contains(doc, strconv.Itoa(year)) {
		issues.add("missing_fiscal_year", types.SeverityWarning, "document",
			fmt.Sprintf("Dokument nie wskazuje roku podatkowego %d", year),
			fmt.Sprintf("Dodaj informację 'rok podatkowy %d'", year))
	}
}

func (s *ContentStage) checkInnovationVocabulary(text, innovationType string, issues *issueList) int {
	if innovationType == "" {
		innovationType = types.InnovationMixed
	}
	keywords, ok := innovationKeywords[innovationType]
	if !ok {
		return 0
	}

	hits := 0
	for _, kw := range keywords {
		if containsFold(text, kw) {
			hits++
		}
	}
	if hits == 0 {
		issues.add("innovation_keywords_missing", types.SeverityWarning, "document",
			fmt.Sprintf("Dokument nie opisuje innowacji typu '%s' właściwym słownictwem", innovationType),
			fmt.Sprintf("Użyj pojęć takich jak: %s", strings.Join(keywords, ", ")))
	}
	return hits
}

func (s *ContentStage) delegatedReview(ctx context.Context, vctx *types.ValidationContext, issues *issueList, metadata map[string]any) {
	report, err := s.assessor.AssessQuality(ctx, llm.QualityRequest{
		Text:     vctx.Document,
		Criteria: contentCriteria,
		Context:  projectContext(vctx.Project),
	})
	if err != nil {
		log.Printf("[content] quality assessment unavailable: %v", err)
		metadata["llm_check"] = "unavailable"
		issues.add("quality_check_unavailable", types.SeverityInfo, "document",
			fmt.Sprintf("Ocena jakościowa niedostępna, walidacja ograniczona do reguł deterministycznych: %v", err),
			"")
		return
	}

	metadata["llm_check"] = "completed"
	metadata["llm_score"] = report.OverallScore
	metadata["llm_summary"] = report.Summary
	metadata["llm_strengths"] = report.Strengths
	for _, qi := range report.Issues {
		location := qi.Location
		if location == "" {
			location = qi.Criterion
		}
		issues.add("content_quality", types.ParseSeverity(qi.Severity), location, qi.Message, qi.Suggestion)
	}
}

// projectContext renders a short description of the record for the assessor.
func projectContext(rec *types.ProjectRecord) string {
	if rec == nil {
		return ""
	}
	parts := []string{}
	if rec.Company.Name != "" {
		parts = append(parts, "Firma: "+rec.Company.Name)
	}
	if rec.Project.Name != "" {
		parts = append(parts, "Projekt: "+rec.Project.Name)
	}
	if rec.Project.FiscalYear > 0 {
		parts = append(parts, fmt.Sprintf("Rok podatkowy: %d", rec.Project.FiscalYear))
	}
	if rec.Project.InnovationType != "" {
		parts = append(parts, "Typ innowacji: "+rec.Project.InnovationType)
	}
	if rec.Project.Goal != "" {
		parts = append(parts, "Cel: "+rec.Project.Goal)
	}
	return strings.Join(parts, "; ")
}
