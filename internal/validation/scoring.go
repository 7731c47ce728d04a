package validation

import (
	"time"

	"github.com/jonathan/brdocs/internal/types"
)

const (
	failThreshold = 0.5
	passThreshold = 0.8
)

// Score starts at 1.0, subtracts the per-severity penalty of every issue and clamps to [0, 1].
func Score(issues []types.Issue, penalties map[types.Severity]float64) float64 {
	total := 0.0
	for _, issue := range issues {
		total += penalties[issue.Severity]
	}
	return clamp01(1.0 - total)
}

// StatusFor derives a stage status: any CRITICAL issue or a score under 0.5 fails,
// a score under 0.8 warns, anything else passes.
func StatusFor(issues []types.Issue, score float64) types.Status {
	if types.HasSeverity(issues, types.SeverityCritical) || score < failThreshold {
		return types.StatusFailed
	}
	if score < passThreshold {
		return types.StatusWarning
	}
	return types.StatusPassed
}

// NewStageResult scores the issues and builds the result of one validation attempt.
func NewStageResult(stage string, iteration int, issues []types.Issue, metadata map[string]any, policy Policy) *types.StageResult {
	if issues == nil {
		issues = []types.Issue{}
	}
	score := Score(issues, policy.Penalties)
	return &types.StageResult{
		Stage:              stage,
		Iteration:          iteration,
		Timestamp:          time.Now().UTC(),
		Status:             StatusFor(issues, score),
		Score:              score,
		Issues:             issues,
		CorrectionsApplied: []types.Correction{},
		Metadata:           metadata,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
