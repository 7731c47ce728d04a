// Package llm - capabilities.go exposes the text-quality and text-improvement
// capabilities the validation stages and the correction loop depend on.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/brdocs/internal/prompts"
)

// QualityRequest asks for an assessment of a document against criteria.
type QualityRequest struct {
	Text     string
	Criteria []string
	Context  string
}

// QualityIssue is one finding of the quality assessment.
type QualityIssue struct {
	Criterion  string `json:"criterion"`
	Severity   string `json:"severity"`
	Location   string `json:"location"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion"`
}

// QualityReport is the structured assessment returned by the model.
type QualityReport struct {
	OverallScore float64        `json:"overall_score"`
	Passed       bool           `json:"passed"`
	Issues       []QualityIssue `json:"issues"`
	Strengths    []string       `json:"strengths"`
	Summary      string         `json:"summary"`
}

// QualityAssessor grades a document. Failures are returned as errors, never as fabricated reports.
type QualityAssessor interface {
	AssessQuality(ctx context.Context, req QualityRequest) (*QualityReport, error)
}

// ImprovementIssue describes a problem the improved text must fix.
type ImprovementIssue struct {
	Severity   string
	Location   string
	Message    string
	Suggestion string
}

// ImprovementRequest asks for a corrected version of a document.
type ImprovementRequest struct {
	Text         string
	Issues       []ImprovementIssue
	Instructions string
}

// TextImprover rewrites a document to fix the listed issues.
type TextImprover interface {
	ImproveText(ctx context.Context, req ImprovementRequest) (string, error)
}

// Assistant implements QualityAssessor and TextImprover on top of a Client.
type Assistant struct {
	client Client
}

// NewAssistant wraps an LLM client.
func NewAssistant(client Client) *Assistant {
	return &Assistant{client: client}
}

// AssessQuality runs the assessment prompt and parses the JSON report.
func (a *Assistant) AssessQuality(ctx context.Context, req QualityRequest) (*QualityReport, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, &ResponseError{Message: "nothing to assess: empty text"}
	}

	criteria := make([]string, 0, len(req.Criteria))
	for i, c := range req.Criteria {
		criteria = append(criteria, fmt.Sprintf("%d. %s", i+1, c))
	}
	projectContext := req.Context
	if projectContext == "" {
		projectContext = "brak"
	}

	LogInjectionWarning(CheckInjectionHeuristics(req.Text), "document")
	prompt, err := prompts.Render("assessment.json", "assess-quality", map[string]string{
		"Criteria": strings.Join(criteria, "\n"),
		"Context":  StripInjectionAttempts(projectContext),
		"Text":     QuoteDocument(req.Text, "dokument"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build assessment prompt: %w", err)
	}

	raw, err := a.client.GenerateJSON(ctx, prompt, TierStandard)
	if err != nil {
		return nil, err
	}

	var report QualityReport
	if err := json.Unmarshal([]byte(CleanJSONBlock(raw)), &report); err != nil {
		return nil, &ResponseError{Message: "assessment response is not valid JSON", Cause: err}
	}
	report.OverallScore = clampScore(report.OverallScore)
	return &report, nil
}

// ImproveText asks the advanced tier for a corrected document. Empty or truncated
// output is rejected so callers never replace a document with a fragment.
func (a *Assistant) ImproveText(ctx context.Context, req ImprovementRequest) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", &ResponseError{Message: "nothing to improve: empty text"}
	}

	var issues strings.Builder
	for _, issue := range req.Issues {
		fmt.Fprintf(&issues, "- [%s] %s", strings.ToUpper(issue.Severity), issue.Message)
		if issue.Location != "" {
			fmt.Fprintf(&issues, " (%s)", issue.Location)
		}
		if issue.Suggestion != "" {
			fmt.Fprintf(&issues, " -> %s", issue.Suggestion)
		}
		issues.WriteString("\n")
	}

	LogInjectionWarning(CheckInjectionHeuristics(req.Text), "document")
	prompt, err := prompts.Render("improvement.json", "improve-text", map[string]string{
		"Instructions": req.Instructions,
		"Issues":       issues.String(),
		"Text":         QuoteDocument(req.Text, "dokument"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to build improvement prompt: %w", err)
	}

	raw, err := a.client.GenerateContent(ctx, prompt, TierAdvanced)
	if err != nil {
		return "", err
	}

	improved := StripMarkdownFence(raw)
	if improved == "" {
		return "", &ResponseError{Message: "improvement response is empty"}
	}
	if utf8.RuneCountInString(improved)*2 < utf8.RuneCountInString(strings.TrimSpace(req.Text)) {
		return "", &ResponseError{Message: "improvement response is truncated"}
	}
	return improved, nil
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
