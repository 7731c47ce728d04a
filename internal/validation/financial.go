package validation

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jonathan/brdocs/internal/types"
)

const (
	maxAllocationPercent = 100.0
	minAllocationPercent = 10.0
)

var personnelDeductionRate = decimal.NewFromInt(2)

// FinancialStage checks the declared costs and their presence in the document.
type FinancialStage struct {
	policy Policy
}

// NewFinancialStage creates the financial stage.
func NewFinancialStage(policy Policy) *FinancialStage {
	return &FinancialStage{policy: policy.withDefaults()}
}

// Name returns the stage identifier.
func (s *FinancialStage) Name() string { return StageFinancial }

// Criteria lists what the stage checks.
func (s *FinancialStage) Criteria() []string {
	return []string{
		"Suma kosztów cząstkowych równa się sumie kosztów kwalifikowanych",
		"Odliczenie kosztów osobowych wynosi 200% kosztu bazowego",
		"Suma kosztów i suma odliczenia występują w dokumencie",
		"Procent zaangażowania pracowników mieści się w zakresie 10-100%",
		"Wynagrodzenia miesięczne nie przekraczają progu wymagającego uzasadnienia",
	}
}

// CorrectionInstructions steers the text-improvement capability.
func (s *FinancialStage) CorrectionInstructions() string {
	return `Popraw część finansową dokumentu:
- podaj sumę kosztów kwalifikowanych i kwotę odliczenia dokładnie tak, jak w danych projektu (format "194 000,00 zł"),
- zachowaj spójność kwot w tabelach i w tekście,
- przy wysokich wynagrodzeniach dodaj uzasadnienie zaangażowania pracownika w prace B+R.
Nie wymyślaj nowych kwot.`
}

// Validate runs the financial checks against the project record.
func (s *FinancialStage) Validate(_ context.Context, vctx *types.ValidationContext) *types.StageResult {
	var issues issueList
	metadata := map[string]any{}

	if vctx.Project == nil {
		issues.add("missing_cost_data", types.SeverityCritical, "costs",
			"Brak danych o kosztach projektu", "Przekaż dane kosztowe projektu")
		return NewStageResult(s.Name(), iterationOf(vctx), issues, metadata, s.policy)
	}

	costs := vctx.Project.Costs
	s.checkTotals(costs, &issues)
	mismatched := s.checkDeductionRates(costs.Items, &issues)
	amounts := ExtractAmounts(vctx.Document)
	s.checkDocumentAmounts(costs, amounts, &issues)
	s.checkAllocations(costs.Items, &issues)

	metadata["subtotal"] = costs.Subtotal().StringFixed(2)
	metadata["total_costs"] = costs.TotalCosts.StringFixed(2)
	metadata["total_deduction"] = costs.TotalDeduction.StringFixed(2)
	metadata["items"] = len(costs.Items)
	metadata["deduction_mismatches"] = mismatched
	metadata["amounts_in_document"] = len(amounts)

	return NewStageResult(s.Name(), iterationOf(vctx), issues, metadata, s.policy)
}

func (s *FinancialStage) checkTotals(costs types.CostSummary, issues *issueList) {
	subtotal := costs.Subtotal()
	if !subtotal.Equal(costs.TotalCosts) {
		issues.add("cost_total_mismatch", types.SeverityCritical, "costs.total_costs",
			fmt.Sprintf("Suma kosztów cząstkowych (%s) różni się od zadeklarowanej sumy (%s)",
				subtotal.StringFixed(2), costs.TotalCosts.StringFixed(2)),
			fmt.Sprintf("Ustaw sumę kosztów na %s", subtotal.StringFixed(2)))
	}
	if !costs.TotalCosts.IsPositive() {
		issues.add("non_positive_total", types.SeverityCritical, "costs.total_costs",
			fmt.Sprintf("Suma kosztów kwalifikowanych musi być dodatnia (jest %s)", costs.TotalCosts.StringFixed(2)),
			"Uzupełnij koszty projektu")
	}
}

func (s *FinancialStage) checkDeductionRates(items []types.CostItem, issues *issueList) int {
	mismatched := 0
	for _, item := range items {
		if !item.IsPersonnel() {
			continue
		}
		expected := item.BaseCost.Mul(personnelDeductionRate)
		if !item.DeductionAmount.Equal(expected) {
			mismatched++
			issues.add("deduction_rate_mismatch", types.SeverityError, item.Label(),
				fmt.Sprintf("Odliczenie %s dla '%s' nie odpowiada stawce 200%% kosztu %s",
					item.DeductionAmount.StringFixed(2), item.Label(), item.BaseCost.StringFixed(2)),
				fmt.Sprintf("Oczekiwane odliczenie: %s", expected.StringFixed(2)))
		}
	}
	return mismatched
}

func (s *FinancialStage) checkDocumentAmounts(costs types.CostSummary, amounts AmountSet, issues *issueList) {
	if costs.TotalCosts.IsPositive() && !amounts.Contains(costs.TotalCosts, s.policy.AmountTolerance.Decimal) {
		issues.add("total_not_in_document", types.SeverityWarning, "costs",
			fmt.Sprintf("Dokument nie podaje sumy kosztów kwalifikowanych %s", costs.TotalCosts.StringFixed(2)),
			fmt.Sprintf("Podaj sumę kosztów: %s zł", costs.TotalCosts.StringFixed(2)))
	}
	if costs.TotalDeduction.IsPositive() && !amounts.Contains(costs.TotalDeduction, s.policy.AmountTolerance.Decimal) {
		issues.add("deduction_not_in_document", types.SeverityWarning, "costs",
			fmt.Sprintf("Dokument nie podaje kwoty odliczenia %s", costs.TotalDeduction.StringFixed(2)),
			fmt.Sprintf("Podaj kwotę odliczenia: %s zł", costs.TotalDeduction.StringFixed(2)))
	}
}

func (s *FinancialStage) checkAllocations(items []types.CostItem, issues *issueList) {
	for _, item := range items {
		if !item.IsPersonnel() {
			continue
		}
		if p := item.AllocationPercent; p != nil {
			switch {
			case *p > maxAllocationPercent:
				issues.add("allocation_over_100", types.SeverityCritical, item.Label(),
					fmt.Sprintf("Procent zaangażowania '%s' wynosi %.1f%% (więcej niż 100%%)", item.Label(), *p),
					"Popraw procent zaangażowania w prace B+R")
			case *p < minAllocationPercent:
				issues.add("allocation_low", types.SeverityInfo, item.Label(),
					fmt.Sprintf("Procent zaangażowania '%s' wynosi tylko %.1f%%, co może nie uzasadniać kosztu", item.Label(), *p),
					"Rozważ uzasadnienie niskiego zaangażowania")
			}
		}
		if item.GrossMonthlySalary.Valid && item.GrossMonthlySalary.Decimal.GreaterThan(s.policy.SalaryThreshold.Decimal) {
			issues.add("high_salary", types.SeverityWarning, item.Label(),
				fmt.Sprintf("Wynagrodzenie miesięczne %s przekracza %s i może wymagać dodatkowego uzasadnienia",
					item.GrossMonthlySalary.Decimal.StringFixed(2), s.policy.SalaryThreshold.Decimal.StringFixed(2)),
				"Dodaj uzasadnienie poziomu wynagrodzenia")
		}
	}
}
