package validation

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/brdocs/internal/llm"
	"github.com/jonathan/brdocs/internal/types"
)

func loadCompliantDocument(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", "compliant.md"))
	require.NoError(t, err)
	return string(data)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func pct(v float64) *float64 { return &v }

func sampleRecord() *types.ProjectRecord {
	return &types.ProjectRecord{
		Company: types.Company{
			Name: "Acme Innovations Sp. z o.o.",
			NIP:  "1234567854",
		},
		Project: types.Project{
			Name:           "Inteligentny system sterowania produkcją",
			FiscalYear:     2024,
			InnovationType: types.InnovationProduct,
		},
		Costs: types.CostSummary{
			PersonnelEmployment: dec("144000.00"),
			Materials:           dec("50000.00"),
			TotalCosts:          dec("194000.00"),
			TotalDeduction:      dec("338000.00"),
			Items: []types.CostItem{
				{
					Category:           types.CategoryPersonnelEmployment,
					EmployeeName:       "Jan Kowalski",
					BaseCost:           dec("144000.00"),
					DeductionAmount:    dec("288000.00"),
					AllocationPercent:  pct(80),
					GrossMonthlySalary: decimal.NewNullDecimal(dec("12000.00")),
				},
				{
					Category:        types.CategoryMaterials,
					Description:     "Komponenty prototypu",
					BaseCost:        dec("50000.00"),
					DeductionAmount: dec("50000.00"),
				},
			},
		},
	}
}

func newContext(record *types.ProjectRecord, doc string) *types.ValidationContext {
	return types.NewValidationContext(record, doc, 3)
}

func issueTypes(result *types.StageResult) []string {
	out := make([]string, 0, len(result.Issues))
	for _, issue := range result.Issues {
		out = append(out, issue.Type)
	}
	return out
}

func issuesOfType(result *types.StageResult, issueType string) []types.Issue {
	var out []types.Issue
	for _, issue := range result.Issues {
		if issue.Type == issueType {
			out = append(out, issue)
		}
	}
	return out
}

// removeSection drops a level-2 section (heading and body) from the document.
func removeSection(doc, heading string) string {
	start := strings.Index(doc, "## "+heading)
	if start < 0 {
		return doc
	}
	rest := doc[start+3:]
	end := strings.Index(rest, "\n## ")
	if end < 0 {
		return doc[:start]
	}
	return doc[:start] + rest[end+1:]
}

type fakeAssessor struct {
	report *llm.QualityReport
	err    error
	calls  int
	last   llm.QualityRequest
}

func (f *fakeAssessor) AssessQuality(_ context.Context, req llm.QualityRequest) (*llm.QualityReport, error) {
	f.calls++
	f.last = req
	return f.report, f.err
}
