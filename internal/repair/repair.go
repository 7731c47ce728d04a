// Package repair asks the text-improvement capability to fix validation issues and records the corrections.
package repair

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/jonathan/brdocs/internal/llm"
	"github.com/jonathan/brdocs/internal/types"
)

// maxIssuesPerRequest caps how many issues are sent in one improvement request.
const maxIssuesPerRequest = 20

// Result is the outcome of one correction attempt. Err is set when no correction was made;
// Document is then the original text and Corrections is empty.
type Result struct {
	Document    string
	Corrections []types.Correction
	Err         error
}

// Applied reports whether the attempt produced a new document.
func (r Result) Applied() bool {
	return r.Err == nil && len(r.Corrections) > 0
}

// Corrector drives the text-improvement capability for any stage.
type Corrector struct {
	improver llm.TextImprover
	now      func() time.Time
}

// NewCorrector creates a corrector. A nil improver makes every attempt a no-op.
func NewCorrector(improver llm.TextImprover) *Corrector {
	return &Corrector{improver: improver, now: time.Now}
}

// Correct filters the issues to the correctable ones and asks for an improved document
// steered by the stage instructions. It never panics on capability failure: the failure is
// returned in Result.Err together with the unchanged document.
func (c *Corrector) Correct(ctx context.Context, instructions, document string, issues []types.Issue) Result {
	selected := SelectIssues(issues)
	if len(selected) == 0 {
		return Result{Document: document, Err: &Error{Phase: PhaseSelect, Cause: ErrNothingToCorrect}}
	}

	improved, err := c.Propose(ctx, instructions, document, selected)
	if err != nil {
		log.Printf("[repair] improvement failed: %v", err)
		return Result{Document: document, Err: err}
	}

	corrections, err := Apply(document, improved, selected, c.now().UTC())
	if err != nil {
		log.Printf("[repair] %v", err)
		return Result{Document: document, Err: err}
	}

	log.Printf("[repair] applied %d corrections", len(corrections))
	return Result{Document: improved, Corrections: corrections}
}

// Propose calls the text-improvement capability with the selected issues.
func (c *Corrector) Propose(ctx context.Context, instructions, document string, issues []types.Issue) (string, error) {
	if c.improver == nil {
		return "", &Error{Phase: PhasePropose, Issues: len(issues), Cause: ErrNotConfigured}
	}

	req := llm.ImprovementRequest{
		Text:         document,
		Instructions: instructions,
		Issues:       make([]llm.ImprovementIssue, 0, len(issues)),
	}
	for _, issue := range issues {
		req.Issues = append(req.Issues, llm.ImprovementIssue{
			Severity:   string(issue.Severity),
			Location:   issue.Location,
			Message:    issue.Message,
			Suggestion: issue.Suggestion,
		})
	}

	improved, err := c.improver.ImproveText(ctx, req)
	if err != nil {
		return "", &Error{Phase: PhasePropose, Issues: len(issues), Cause: fmt.Errorf("text improvement failed: %w", err)}
	}
	return improved, nil
}

// SelectIssues keeps the ERROR and WARNING issues, most severe first, capped per request.
func SelectIssues(issues []types.Issue) []types.Issue {
	selected := types.CorrectableIssues(issues)
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].Severity.Rank() < selected[j].Severity.Rank()
	})
	if len(selected) > maxIssuesPerRequest {
		selected = selected[:maxIssuesPerRequest]
	}
	return selected
}
