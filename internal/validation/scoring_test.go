package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/brdocs/internal/types"
)

func issuesWith(severities ...types.Severity) []types.Issue {
	out := make([]types.Issue, 0, len(severities))
	for _, s := range severities {
		out = append(out, types.Issue{Type: "t", Severity: s})
	}
	return out
}

func TestScore(t *testing.T) {
	penalties := DefaultPolicy().Penalties

	tests := []struct {
		name   string
		issues []types.Issue
		score  float64
		status types.Status
	}{
		{"no issues", nil, 1.0, types.StatusPassed},
		{"one info", issuesWith(types.SeverityInfo), 0.98, types.StatusPassed},
		{"one error", issuesWith(types.SeverityError), 0.8, types.StatusPassed},
		{"one error one info", issuesWith(types.SeverityError, types.SeverityInfo), 0.78, types.StatusWarning},
		{"two warnings", issuesWith(types.SeverityWarning, types.SeverityWarning), 0.8, types.StatusPassed},
		{"three errors", issuesWith(types.SeverityError, types.SeverityError, types.SeverityError), 0.4, types.StatusFailed},
		{"one critical", issuesWith(types.SeverityCritical), 0.6, types.StatusFailed},
		{"clamped at zero", issuesWith(types.SeverityCritical, types.SeverityCritical, types.SeverityCritical), 0.0, types.StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Score(tt.issues, penalties)
			assert.InDelta(t, tt.score, score, 1e-9)
			assert.Equal(t, tt.status, StatusFor(tt.issues, score))
		})
	}
}

func TestScore_MonotonicAndBounded(t *testing.T) {
	penalties := DefaultPolicy().Penalties
	sequence := []types.Severity{
		types.SeverityInfo, types.SeverityWarning, types.SeverityError, types.SeverityCritical,
		types.SeverityInfo, types.SeverityCritical, types.SeverityError, types.SeverityWarning,
	}

	var issues []types.Issue
	prev := Score(issues, penalties)
	for _, sev := range sequence {
		issues = append(issues, types.Issue{Type: "t", Severity: sev})
		score := Score(issues, penalties)
		assert.LessOrEqual(t, score, prev)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
		prev = score
	}
}

func TestStatusFor_CriticalAlwaysFails(t *testing.T) {
	issues := issuesWith(types.SeverityCritical)
	// even a score that would otherwise pass
	assert.Equal(t, types.StatusFailed, StatusFor(issues, 1.0))
}

func TestStatusFor_PassesWithoutCriticalAboveThreshold(t *testing.T) {
	for _, score := range []float64{0.8, 0.85, 0.99, 1.0} {
		assert.Equal(t, types.StatusPassed, StatusFor(issuesWith(types.SeverityWarning), score))
	}
}

func TestNewStageResult(t *testing.T) {
	result := NewStageResult(StageStructure, 2, nil, map[string]any{"k": 1}, DefaultPolicy())
	require.NotNil(t, result)
	assert.Equal(t, StageStructure, result.Stage)
	assert.Equal(t, 2, result.Iteration)
	assert.NotNil(t, result.Issues)
	assert.NotNil(t, result.CorrectionsApplied)
	assert.Equal(t, types.StatusPassed, result.Status)
	assert.False(t, result.Timestamp.IsZero())
}

func TestScore_CustomPenalties(t *testing.T) {
	penalties := map[types.Severity]float64{types.SeverityWarning: 0.5}
	assert.InDelta(t, 0.5, Score(issuesWith(types.SeverityWarning), penalties), 1e-9)
	assert.InDelta(t, 1.0, Score(issuesWith(types.SeverityInfo), penalties), 1e-9)
}
