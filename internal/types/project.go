//nolint:revive // types is a standard Go package name pattern
package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Cost item categories
const (
	CategoryPersonnelEmployment = "personnel_employment"
	CategoryPersonnelCivil      = "personnel_civil"
	CategoryMaterials           = "materials"
	CategoryExternalServices    = "external_services"
	CategoryEquipment           = "equipment"
	CategoryExpertOpinions      = "expert_opinions"
	CategoryDepreciation        = "depreciation"
)

// Innovation types
const (
	InnovationProduct = "product"
	InnovationProcess = "process"
	InnovationMixed   = "mixed"
)

// ProjectRecord is the structured input the document was generated from.
type ProjectRecord struct {
	Company  Company     `json:"company" yaml:"company"`
	Project  Project     `json:"project" yaml:"project"`
	Costs    CostSummary `json:"costs" yaml:"costs"`
	Timeline []Milestone `json:"timeline,omitempty" yaml:"timeline,omitempty" validate:"dive"`
}

// Company identifies the taxpayer claiming the relief.
type Company struct {
	Name    string `json:"name" yaml:"name" validate:"required"`
	NIP     string `json:"nip" yaml:"nip" validate:"required"`
	Address string `json:"address,omitempty" yaml:"address,omitempty"`
}

// Project describes the R&D project being documented.
type Project struct {
	Name           string `json:"name" yaml:"name" validate:"required"`
	FiscalYear     int    `json:"fiscal_year" yaml:"fiscal_year" validate:"required,gte=2000,lte=2100"`
	InnovationType string `json:"innovation_type,omitempty" yaml:"innovation_type,omitempty" validate:"omitempty,oneof=product process mixed"`
	Goal           string `json:"goal,omitempty" yaml:"goal,omitempty"`
	Description    string `json:"description,omitempty" yaml:"description,omitempty"`
}

// CostSummary holds the declared totals and the itemised costs.
// Amounts are exact decimals; JSON accepts either numbers or strings.
type CostSummary struct {
	PersonnelEmployment decimal.Decimal `json:"personnel_employment" yaml:"personnel_employment"`
	PersonnelCivil      decimal.Decimal `json:"personnel_civil" yaml:"personnel_civil"`
	Materials           decimal.Decimal `json:"materials" yaml:"materials"`
	ExternalServices    decimal.Decimal `json:"external_services" yaml:"external_services"`
	TotalCosts          decimal.Decimal `json:"total_costs" yaml:"total_costs"`
	TotalDeduction      decimal.Decimal `json:"total_deduction" yaml:"total_deduction"`
	Items               []CostItem      `json:"items,omitempty" yaml:"items,omitempty" validate:"dive"`
}

// Subtotal returns the sum of the four declared subtotal fields.
func (c CostSummary) Subtotal() decimal.Decimal {
	return c.PersonnelEmployment.Add(c.PersonnelCivil).Add(c.Materials).Add(c.ExternalServices)
}

// CostItem is a single itemised cost entry.
type CostItem struct {
	Category           string              `json:"category" yaml:"category" validate:"required,oneof=personnel_employment personnel_civil materials external_services equipment expert_opinions depreciation"`
	Description        string              `json:"description,omitempty" yaml:"description,omitempty"`
	EmployeeName       string              `json:"employee_name,omitempty" yaml:"employee_name,omitempty"`
	BaseCost           decimal.Decimal     `json:"base_cost" yaml:"base_cost"`
	DeductionAmount    decimal.Decimal     `json:"deduction_amount" yaml:"deduction_amount"`
	AllocationPercent  *float64            `json:"allocation_percent,omitempty" yaml:"allocation_percent,omitempty" validate:"omitempty,gte=0"`
	GrossMonthlySalary decimal.NullDecimal `json:"gross_monthly_salary" yaml:"gross_monthly_salary"`
}

// IsPersonnel reports whether the item is an employment or civil-contract personnel cost.
func (i CostItem) IsPersonnel() bool {
	return i.Category == CategoryPersonnelEmployment || i.Category == CategoryPersonnelCivil
}

// Label names the item for issue locations.
func (i CostItem) Label() string {
	if i.EmployeeName != "" {
		return i.EmployeeName
	}
	if i.Description != "" {
		return i.Description
	}
	return i.Category
}

// Milestone is a timeline entry of the project.
type Milestone struct {
	Name  string `json:"name" yaml:"name" validate:"required"`
	Start string `json:"start,omitempty" yaml:"start,omitempty"`
	End   string `json:"end,omitempty" yaml:"end,omitempty"`
}

// Validate validates the ProjectRecord using the validator.
func (r *ProjectRecord) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}
