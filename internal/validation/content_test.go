package validation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/brdocs/internal/llm"
	"github.com/jonathan/brdocs/internal/types"
)

func TestContentStage_CompliantDocument(t *testing.T) {
	stage := NewContentStage(nil, DefaultPolicy())
	result := stage.Validate(context.Background(), newContext(sampleRecord(), loadCompliantDocument(t)))

	assert.Empty(t, result.Issues, "unexpected issues: %v", result.Issues)
	assert.Equal(t, types.StatusPassed, result.Status)
	assert.Equal(t, "disabled", result.Metadata["llm_check"])
}

func TestContentStage_RecordMentions(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*types.ProjectRecord)
		issueType string
		severity  types.Severity
	}{
		{
			name:      "company name",
			mutate:    func(r *types.ProjectRecord) { r.Company.Name = "Beta Labs S.A." },
			issueType: "missing_company_name",
			severity:  types.SeverityError,
		},
		{
			name:      "project name",
			mutate:    func(r *types.ProjectRecord) { r.Project.Name = "Platforma analityczna" },
			issueType: "missing_project_name",
			severity:  types.SeverityWarning,
		},
		{
			name:      "fiscal year",
			mutate:    func(r *types.ProjectRecord) { r.Project.FiscalYear = 2031 },
			issueType: "missing_fiscal_year",
			severity:  types.SeverityWarning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := sampleRecord()
			tt.mutate(record)
			result := NewContentStage(nil, DefaultPolicy()).Validate(context.Background(), newContext(record, loadCompliantDocument(t)))

			found := issuesOfType(result, tt.issueType)
			require.Len(t, found, 1)
			assert.Equal(t, tt.severity, found[0].Severity)
			assert.Len(t, result.Issues, 1)
		})
	}
}

func TestContentStage_CompanyNameIsCaseInsensitive(t *testing.T) {
	record := sampleRecord()
	record.Company.Name = strings.ToUpper(record.Company.Name)
	result := NewContentStage(nil, DefaultPolicy()).Validate(context.Background(), newContext(record, loadCompliantDocument(t)))

	assert.Empty(t, issuesOfType(result, "missing_company_name"))
}

func TestContentStage_InnovationVocabulary(t *testing.T) {
	doc := "# Acme Innovations Sp. z o.o.\n\nInteligentny system sterowania produkcją, rok 2024.\n"
	record := sampleRecord()

	record.Project.InnovationType = types.InnovationProcess
	result := NewContentStage(nil, DefaultPolicy()).Validate(context.Background(), newContext(record, doc))
	require.Len(t, issuesOfType(result, "innovation_keywords_missing"), 1)
	assert.Equal(t, 0, result.Metadata["innovation_keyword_hits"])

	record.Project.InnovationType = types.InnovationProduct
	result = NewContentStage(nil, DefaultPolicy()).Validate(context.Background(), newContext(record, doc))
	assert.Empty(t, issuesOfType(result, "innovation_keywords_missing"))
}

func TestContentStage_DelegatedReview(t *testing.T) {
	assessor := &fakeAssessor{report: &llm.QualityReport{
		OverallScore: 0.7,
		Issues: []llm.QualityIssue{
			{Criterion: "Spójność", Severity: "error", Location: "Metodologia", Message: "Sprzeczne daty"},
			{Criterion: "Innowacyjność", Severity: "nieznana", Message: "Ogólnikowy opis"},
		},
		Summary: "Dokument wymaga poprawek",
	}}
	stage := NewContentStage(assessor, DefaultPolicy())
	result := stage.Validate(context.Background(), newContext(sampleRecord(), loadCompliantDocument(t)))

	assert.Equal(t, 1, assessor.calls)
	assert.Len(t, assessor.last.Criteria, 8)
	assert.Contains(t, assessor.last.Context, "Acme Innovations")

	quality := issuesOfType(result, "content_quality")
	require.Len(t, quality, 2)
	assert.Equal(t, types.SeverityError, quality[0].Severity)
	assert.Equal(t, "Metodologia", quality[0].Location)
	assert.Equal(t, types.SeverityWarning, quality[1].Severity, "unknown severity defaults to WARNING")
	assert.Equal(t, "Innowacyjność", quality[1].Location)
	assert.Equal(t, "completed", result.Metadata["llm_check"])
}

func TestContentStage_DelegatedReviewFailureDegradesToInfo(t *testing.T) {
	assessor := &fakeAssessor{err: &llm.ResponseError{Message: "assessment response is not valid JSON"}}
	result := NewContentStage(assessor, DefaultPolicy()).Validate(context.Background(), newContext(sampleRecord(), loadCompliantDocument(t)))

	unavailable := issuesOfType(result, "quality_check_unavailable")
	require.Len(t, unavailable, 1)
	assert.Equal(t, types.SeverityInfo, unavailable[0].Severity)
	assert.Len(t, result.Issues, 1)
	assert.Equal(t, types.StatusPassed, result.Status)
	assert.Equal(t, "unavailable", result.Metadata["llm_check"])
}

func TestContentStage_ForbiddenPhrases(t *testing.T) {
	doc := loadCompliantDocument(t) + "\nNasz rewolucyjny system jest bezkonkurencyjny.\n"

	result := NewContentStage(nil, DefaultPolicy()).Validate(context.Background(), newContext(sampleRecord(), doc))
	found := issuesOfType(result, "forbidden_phrase")
	require.Len(t, found, 1)
	assert.Equal(t, types.SeverityWarning, found[0].Severity)
	assert.Equal(t, 1, result.Metadata["forbidden_phrases"])

	policy := DefaultPolicy()
	policy.ForbiddenPhrases = []string{}
	result = NewContentStage(nil, policy).Validate(context.Background(), newContext(sampleRecord(), doc))
	assert.Empty(t, issuesOfType(result, "forbidden_phrase"))
}
