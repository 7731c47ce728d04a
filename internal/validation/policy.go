// Package validation provides the validator stages that check generated B+R documents.
package validation

import (
	"github.com/shopspring/decimal"

	"github.com/jonathan/brdocs/internal/types"
)

// Policy holds the tunable constants used by the stages and by aggregation.
// The defaults are compatibility values with no derivation of their own.
type Policy struct {
	// Penalties is the score penalty subtracted per issue of each severity.
	Penalties map[types.Severity]float64
	// AmountTolerance is the absolute tolerance when looking for declared amounts in the document.
	// An unset value selects the default; a set zero requires an exact match.
	AmountTolerance decimal.NullDecimal
	// SalaryThreshold is the gross monthly salary above which extra justification is expected.
	SalaryThreshold decimal.NullDecimal
	// StageWeights weights the final result of each stage in the overall score.
	StageWeights map[string]float64
	// MinSectionChars is the minimum body length of a level-2 section.
	MinSectionChars int
	// MaxIterations bounds the validate/correct loop of each stage.
	MaxIterations int
	// ForbiddenPhrases are promotional phrases reported by the content stage.
	// nil selects the defaults, an empty slice disables the check.
	ForbiddenPhrases []string
}

// DefaultPolicy returns the policy with the historical constants.
func DefaultPolicy() Policy {
	return Policy{
		Penalties: map[types.Severity]float64{
			types.SeverityCritical: 0.40,
			types.SeverityError:    0.20,
			types.SeverityWarning:  0.10,
			types.SeverityInfo:     0.02,
		},
		AmountTolerance: decimal.NewNullDecimal(decimal.NewFromInt(1)),
		SalaryThreshold: decimal.NewNullDecimal(decimal.NewFromInt(50000)),
		StageWeights: map[string]float64{
			StageStructure: 0.20,
			StageContent:   0.30,
			StageLegal:     0.30,
			StageFinancial: 0.20,
		},
		MinSectionChars:  100,
		MaxIterations:    3,
		ForbiddenPhrases: defaultForbiddenPhrases,
	}
}

// withDefaults fills unset fields from DefaultPolicy.
func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.Penalties == nil {
		p.Penalties = def.Penalties
	}
	if !p.AmountTolerance.Valid {
		p.AmountTolerance = def.AmountTolerance
	}
	if !p.SalaryThreshold.Valid {
		p.SalaryThreshold = def.SalaryThreshold
	}
	if p.StageWeights == nil {
		p.StageWeights = def.StageWeights
	}
	if p.MinSectionChars == 0 {
		p.MinSectionChars = def.MinSectionChars
	}
	if p.MaxIterations == 0 {
		p.MaxIterations = def.MaxIterations
	}
	if p.ForbiddenPhrases == nil {
		p.ForbiddenPhrases = def.ForbiddenPhrases
	}
	return p
}
