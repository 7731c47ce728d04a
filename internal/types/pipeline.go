//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// ValidationContext is the cursor threaded through one pipeline run.
// Only Document is ever replaced; History and Metadata are append-only.
type ValidationContext struct {
	Project          *ProjectRecord
	Document         string
	CurrentIteration int
	MaxIterations    int
	History          []StageResult
	Metadata         map[string]any
}

// NewValidationContext creates a context for a single pipeline run.
func NewValidationContext(project *ProjectRecord, document string, maxIterations int) *ValidationContext {
	return &ValidationContext{
		Project:          project,
		Document:         document,
		CurrentIteration: 1,
		MaxIterations:    maxIterations,
		Metadata:         make(map[string]any),
	}
}

// Record appends a stage result to the context history.
func (c *ValidationContext) Record(result StageResult) {
	c.History = append(c.History, result)
}

// StageState is the terminal state of one stage's iterate-validate-correct loop.
type StageState string

// Stage terminal states
const (
	StatePassed  StageState = "passed"
	StateBlocked StageState = "blocked"
	StateStalled StageState = "stalled"
)

// StageOutcome summarises how a stage loop ended.
type StageOutcome struct {
	Stage      string     `json:"stage"`
	State      StageState `json:"state"`
	Iterations int        `json:"iterations"`
	Reason     string     `json:"reason,omitempty"`
}

// PipelineResult is the output handed to persistence and reporting. Field names are stable.
type PipelineResult struct {
	RunID           string         `json:"run_id"`
	Level           string         `json:"level"`
	OverallStatus   Status         `json:"overall_status"`
	OverallScore    float64        `json:"overall_score"`
	StageResults    []StageResult  `json:"stage_results"`
	StageOutcomes   []StageOutcome `json:"stage_outcomes"`
	FinalDocument   string         `json:"final_document"`
	DurationMs      int64          `json:"duration_ms"`
	TotalIterations int            `json:"total_iterations"`
	Errors          []string       `json:"errors"`
	StartedAt       time.Time      `json:"started_at"`
}

// FinalResults returns the last StageResult for every distinct stage, in first-seen stage order.
func (p *PipelineResult) FinalResults() []StageResult {
	return LastPerStage(p.StageResults)
}

// LastPerStage keeps only the last result of each stage, ordered by the stage's first appearance.
func LastPerStage(results []StageResult) []StageResult {
	order := make([]string, 0)
	last := make(map[string]StageResult)
	for _, r := range results {
		if _, seen := last[r.Stage]; !seen {
			order = append(order, r.Stage)
		}
		last[r.Stage] = r
	}
	out := make([]StageResult, 0, len(order))
	for _, name := range order {
		out = append(out, last[name])
	}
	return out
}
