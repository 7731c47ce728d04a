package validation

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/brdocs/internal/types"
)

func runFinancial(t *testing.T, record *types.ProjectRecord, doc string) *types.StageResult {
	t.Helper()
	result := NewFinancialStage(DefaultPolicy()).Validate(context.Background(), newContext(record, doc))
	require.NotNil(t, result)
	return result
}

func TestFinancialStage_CompliantDocument(t *testing.T) {
	result := runFinancial(t, sampleRecord(), loadCompliantDocument(t))

	assert.Empty(t, result.Issues, "unexpected issues: %v", result.Issues)
	assert.Equal(t, types.StatusPassed, result.Status)
	assert.Equal(t, "194000.00", result.Metadata["subtotal"])
}

func TestFinancialStage_TotalMismatch(t *testing.T) {
	record := sampleRecord()
	assert.Empty(t, issuesOfType(runFinancial(t, record, loadCompliantDocument(t)), "cost_total_mismatch"))

	record.Costs.TotalCosts = dec("194001")
	result := runFinancial(t, record, loadCompliantDocument(t))

	mismatch := issuesOfType(result, "cost_total_mismatch")
	require.Len(t, mismatch, 1)
	assert.Equal(t, types.SeverityCritical, mismatch[0].Severity)
	assert.Contains(t, mismatch[0].Suggestion, "194000.00")
	assert.Equal(t, types.StatusFailed, result.Status)
}

func TestFinancialStage_TotalMismatchIsExact(t *testing.T) {
	record := sampleRecord()
	record.Costs.TotalCosts = dec("194000.01")
	result := runFinancial(t, record, loadCompliantDocument(t))

	assert.Len(t, issuesOfType(result, "cost_total_mismatch"), 1)
}

func TestFinancialStage_NonPositiveTotal(t *testing.T) {
	record := sampleRecord()
	record.Costs = types.CostSummary{}
	result := runFinancial(t, record, loadCompliantDocument(t))

	found := issuesOfType(result, "non_positive_total")
	require.Len(t, found, 1)
	assert.Equal(t, types.SeverityCritical, found[0].Severity)
	assert.Empty(t, issuesOfType(result, "cost_total_mismatch"))
}

func TestFinancialStage_DeductionRate(t *testing.T) {
	record := sampleRecord()
	record.Costs.Items = append(record.Costs.Items, types.CostItem{
		Category:        types.CategoryPersonnelCivil,
		EmployeeName:    "Anna Nowak",
		BaseCost:        dec("10000.00"),
		DeductionAmount: dec("15000.00"),
	})
	result := runFinancial(t, record, loadCompliantDocument(t))

	rate := issuesOfType(result, "deduction_rate_mismatch")
	require.Len(t, rate, 1)
	assert.Equal(t, types.SeverityError, rate[0].Severity)
	assert.Equal(t, "Anna Nowak", rate[0].Location)
	assert.Contains(t, rate[0].Suggestion, "20000.00")
	assert.Equal(t, 1, result.Metadata["deduction_mismatches"])
}

func TestFinancialStage_AmountsInDocument(t *testing.T) {
	tests := []struct {
		name    string
		replace [2]string
		want    string
	}{
		{"missing total", [2]string{"194 000,00 zł", "sto dziewięćdziesiąt cztery tysiące zł"}, "total_not_in_document"},
		{"missing deduction", [2]string{"338 000,00 zł", "trzysta trzydzieści osiem tysięcy zł"}, "deduction_not_in_document"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := strings.Replace(loadCompliantDocument(t), tt.replace[0], tt.replace[1], 1)
			result := runFinancial(t, sampleRecord(), doc)

			found := issuesOfType(result, tt.want)
			require.Len(t, found, 1)
			assert.Equal(t, types.SeverityWarning, found[0].Severity)
			assert.Len(t, result.Issues, 1)
		})
	}
}

func TestFinancialStage_AmountWithinTolerance(t *testing.T) {
	doc := strings.Replace(loadCompliantDocument(t), "194 000,00 zł", "194 000,80 zł", 1)
	result := runFinancial(t, sampleRecord(), doc)

	assert.Empty(t, issuesOfType(result, "total_not_in_document"))
}

func TestFinancialStage_Allocations(t *testing.T) {
	tests := []struct {
		name     string
		percent  float64
		want     string
		severity types.Severity
	}{
		{"over 100", 120, "allocation_over_100", types.SeverityCritical},
		{"below 10", 5, "allocation_low", types.SeverityInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := sampleRecord()
			record.Costs.Items[0].AllocationPercent = pct(tt.percent)
			result := runFinancial(t, record, loadCompliantDocument(t))

			found := issuesOfType(result, tt.want)
			require.Len(t, found, 1)
			assert.Equal(t, tt.severity, found[0].Severity)
		})
	}
}

func TestFinancialStage_HighSalary(t *testing.T) {
	record := sampleRecord()
	record.Costs.Items[0].GrossMonthlySalary = decimal.NewNullDecimal(dec("65000"))
	result := runFinancial(t, record, loadCompliantDocument(t))

	found := issuesOfType(result, "high_salary")
	require.Len(t, found, 1)
	assert.Equal(t, types.SeverityWarning, found[0].Severity)
}

func TestFinancialStage_SalaryThresholdFromPolicy(t *testing.T) {
	policy := DefaultPolicy()
	policy.SalaryThreshold = decimal.NewNullDecimal(dec("10000"))
	stage := NewFinancialStage(policy)
	result := stage.Validate(context.Background(), newContext(sampleRecord(), loadCompliantDocument(t)))

	assert.Len(t, issuesOfType(result, "high_salary"), 1)
}

func TestFinancialStage_AmountTolerance(t *testing.T) {
	doc := "## Koszty\n\nSuma kosztów kwalifikowanych: 193 999,50 zł.\n"

	tests := []struct {
		name      string
		tolerance decimal.NullDecimal
		wantIssue bool
	}{
		{"unset uses default", decimal.NullDecimal{}, false},
		{"one zloty", decimal.NewNullDecimal(dec("1")), false},
		{"zero requires exact match", decimal.NewNullDecimal(decimal.Zero), true},
		{"below difference", decimal.NewNullDecimal(dec("0.49")), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := DefaultPolicy()
			policy.AmountTolerance = tt.tolerance
			result := NewFinancialStage(policy).Validate(context.Background(), newContext(sampleRecord(), doc))

			found := issuesOfType(result, "total_not_in_document")
			if !tt.wantIssue {
				assert.Empty(t, found)
				return
			}
			require.Len(t, found, 1)
			assert.Equal(t, types.SeverityWarning, found[0].Severity)
		})
	}
}

func TestFinancialStage_ZeroToleranceExactAmount(t *testing.T) {
	policy := DefaultPolicy()
	policy.AmountTolerance = decimal.NewNullDecimal(decimal.Zero)
	result := NewFinancialStage(policy).Validate(context.Background(), newContext(sampleRecord(), loadCompliantDocument(t)))

	assert.Empty(t, issuesOfType(result, "total_not_in_document"))
}

func TestPolicy_WithDefaultsKeepsZero(t *testing.T) {
	p := Policy{
		AmountTolerance: decimal.NewNullDecimal(decimal.Zero),
		SalaryThreshold: decimal.NewNullDecimal(decimal.Zero),
	}.withDefaults()
	assert.True(t, p.AmountTolerance.Decimal.IsZero())
	assert.True(t, p.SalaryThreshold.Decimal.IsZero())

	p = Policy{}.withDefaults()
	assert.Equal(t, "1", p.AmountTolerance.Decimal.String())
	assert.Equal(t, "50000", p.SalaryThreshold.Decimal.String())
}

func TestFinancialStage_NoRecord(t *testing.T) {
	result := runFinancial(t, nil, loadCompliantDocument(t))
	assert.Equal(t, []string{"missing_cost_data"}, issueTypes(result))
}
