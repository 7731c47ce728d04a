package validation

import (
	"context"
	"sort"
	"strings"

	"github.com/jonathan/brdocs/internal/llm"
	"github.com/jonathan/brdocs/internal/types"
)

// Stage names
const (
	StageStructure = "structure"
	StageContent   = "content"
	StageLegal     = "legal_compliance"
	StageFinancial = "financial"
)

// StageOrder is the order in which the pipeline runs the stages.
var StageOrder = []string{StageStructure, StageContent, StageLegal, StageFinancial}

// Stage is a single validator. Validate never returns an error: findings and degraded
// dependency calls are reported as issues on the result.
type Stage interface {
	Name() string
	Criteria() []string
	Validate(ctx context.Context, vctx *types.ValidationContext) *types.StageResult
	CorrectionInstructions() string
}

// Dependencies are the collaborators shared by the stages.
type Dependencies struct {
	// Assessor is the text-quality capability. Nil disables the delegated checks.
	Assessor llm.QualityAssessor
	Policy   Policy
}

// Level selects which stages run and whether delegated checks are used.
type Level string

// Validation levels
const (
	LevelQuick         Level = "quick"
	LevelStandard      Level = "standard"
	LevelComprehensive Level = "comprehensive"
)

// ParseLevel resolves a level name.
func ParseLevel(name string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(name))) {
	case LevelQuick:
		return LevelQuick, nil
	case LevelStandard, "":
		return LevelStandard, nil
	case LevelComprehensive:
		return LevelComprehensive, nil
	default:
		return "", &UnknownLevelError{Level: name}
	}
}

// NewRegistry builds the name → stage lookup table.
func NewRegistry(deps Dependencies) map[string]Stage {
	policy := deps.Policy.withDefaults()
	return map[string]Stage{
		StageStructure: NewStructureStage(policy),
		StageContent:   NewContentStage(deps.Assessor, policy),
		StageLegal:     NewLegalStage(deps.Assessor, policy),
		StageFinancial: NewFinancialStage(policy),
	}
}

// Lookup returns the named stage from a registry.
func Lookup(registry map[string]Stage, name string) (Stage, error) {
	stage, ok := registry[name]
	if !ok {
		return nil, &UnknownStageError{Stage: name}
	}
	return stage, nil
}

// StagesForLevel returns the ordered stages of a validation level.
func StagesForLevel(name string, deps Dependencies) ([]Stage, error) {
	level, err := ParseLevel(name)
	if err != nil {
		return nil, err
	}

	names := StageOrder
	switch level {
	case LevelQuick:
		names = []string{StageStructure, StageFinancial}
		deps.Assessor = nil
	case LevelStandard:
		deps.Assessor = nil
	}

	registry := NewRegistry(deps)
	stages := make([]Stage, 0, len(names))
	for _, n := range names {
		stage, err := Lookup(registry, n)
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return stages, nil
}

// issueList accumulates issues for one validation attempt.
type issueList []types.Issue

func (l *issueList) add(issueType string, sev types.Severity, location, message, suggestion string) {
	*l = append(*l, types.Issue{
		Type:       issueType,
		Severity:   sev,
		Location:   location,
		Message:    message,
		Suggestion: suggestion,
	})
}

func iterationOf(vctx *types.ValidationContext) int {
	if vctx.CurrentIteration < 1 {
		return 1
	}
	return vctx.CurrentIteration
}

// containsFold reports whether needle occurs in haystack, ignoring case.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
