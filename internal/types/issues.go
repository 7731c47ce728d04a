// Package types provides type definitions for structured data used throughout the B+R documentation validator.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"
	"time"
)

// Severity ranks an Issue. Order matters: CRITICAL is the most severe.
type Severity string

// Severity levels
const (
	SeverityCritical Severity = "CRITICAL"
	SeverityError    Severity = "ERROR"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
)

// Rank returns 0 for CRITICAL up to 3 for INFO, and 4 for anything unknown.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityError:
		return 1
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 3
	default:
		return 4
	}
}

// Correctable reports whether issues of this severity may be sent to the text-improvement capability.
func (s Severity) Correctable() bool {
	return s == SeverityError || s == SeverityWarning
}

// ParseSeverity maps a free-form severity string (as reported by an external assessor) to a Severity.
// Unknown or empty values map to WARNING.
func ParseSeverity(raw string) Severity {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "CRITICAL":
		return SeverityCritical
	case "ERROR":
		return SeverityError
	case "WARNING":
		return SeverityWarning
	case "INFO":
		return SeverityInfo
	default:
		return SeverityWarning
	}
}

// Status is the outcome of a stage attempt or of a whole pipeline run.
type Status string

// Status values
const (
	StatusPassed  Status = "PASSED"
	StatusWarning Status = "WARNING"
	StatusFailed  Status = "FAILED"
)

// Issue is a single finding produced by a stage. Issues are never mutated after creation.
type Issue struct {
	Type       string   `json:"type"`
	Severity   Severity `json:"severity"`
	Location   string   `json:"location"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
}

func (i Issue) String() string {
	return fmt.Sprintf("[%s] %s @ %s: %s", i.Severity, i.Type, i.Location, i.Message)
}

// Correction records that the text-improvement capability was asked to address an issue.
// Before and After are fingerprints of the document text, not diffs.
type Correction struct {
	IssueType string    `json:"issue_type"`
	Location  string    `json:"location"`
	Reason    string    `json:"reason"`
	Before    string    `json:"before"`
	After     string    `json:"after"`
	AppliedAt time.Time `json:"applied_at"`
}

// StageResult is produced once per validation attempt of a stage.
type StageResult struct {
	Stage              string         `json:"stage"`
	Iteration          int            `json:"iteration"`
	Timestamp          time.Time      `json:"timestamp"`
	Status             Status         `json:"status"`
	Score              float64        `json:"score"`
	Issues             []Issue        `json:"issues"`
	CorrectionsApplied []Correction   `json:"corrections_applied"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// HasCritical reports whether any issue in the result is CRITICAL.
func (r *StageResult) HasCritical() bool {
	return HasSeverity(r.Issues, SeverityCritical)
}

// CountBySeverity returns how many issues of the given severity the result carries.
func (r *StageResult) CountBySeverity(sev Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == sev {
			n++
		}
	}
	return n
}

// HasSeverity reports whether any issue has the given severity.
func HasSeverity(issues []Issue, sev Severity) bool {
	for _, issue := range issues {
		if issue.Severity == sev {
			return true
		}
	}
	return false
}

// CorrectableIssues filters issues down to the ERROR and WARNING entries.
func CorrectableIssues(issues []Issue) []Issue {
	out := make([]Issue, 0, len(issues))
	for _, issue := range issues {
		if issue.Severity.Correctable() {
			out = append(out, issue)
		}
	}
	return out
}
