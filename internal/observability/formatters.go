// Package observability provides formatted output utilities for the CLI.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/jonathan/brdocs/internal/db"
	"github.com/jonathan/brdocs/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 8
)

// Printer handles formatted output of validation results
type Printer struct {
	out    io.Writer
	colors bool
}

// NewPrinter creates a new Printer that writes to the given writer.
// Colors follow the terminal detection of the color package.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, colors: !color.NoColor}
}

// WithColor forces colored output on or off.
func (p *Printer) WithColor(enabled bool) *Printer {
	p.colors = enabled
	return p
}

func (p *Printer) paint(attr color.Attribute, s string) string {
	c := color.New(attr)
	if p.colors {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint(s)
}

func statusColor(status types.Status) color.Attribute {
	switch status {
	case types.StatusPassed:
		return color.FgGreen
	case types.StatusWarning:
		return color.FgYellow
	default:
		return color.FgRed
	}
}

func severityColor(sev types.Severity) color.Attribute {
	switch sev {
	case types.SeverityCritical, types.SeverityError:
		return color.FgRed
	case types.SeverityWarning:
		return color.FgYellow
	default:
		return color.FgCyan
	}
}

func statusSymbol(status types.Status) string {
	switch status {
	case types.StatusPassed:
		return "✓"
	case types.StatusWarning:
		return "⚠"
	default:
		return "✗"
	}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most width runes.
func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

// PrintProgress outputs a single progress line for one validation attempt.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintProgress(r *types.StageResult) {
	if r == nil {
		return
	}
	symbol := p.paint(statusColor(r.Status), statusSymbol(r.Status))
	fmt.Fprintf(p.out, "%s %-17s iteration %d  %-7s %.2f  (%d issues)\n",
		symbol, r.Stage, r.Iteration, r.Status, r.Score, len(r.Issues))
}

// PrintStageResult outputs the issues and corrections of one validation attempt.
func (p *Printer) PrintStageResult(r *types.StageResult) {
	if r == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Status: %s   Score: %.2f\n", r.Status, r.Score))

	if len(r.Issues) == 0 {
		sb.WriteString("No issues\n")
	} else {
		sb.WriteString(fmt.Sprintf("Issues (%d):\n", len(r.Issues)))
		count := min(len(r.Issues), maxItemsToShow)
		for i := 0; i < count; i++ {
			issue := r.Issues[i]
			sb.WriteString(fmt.Sprintf("  [%s] %s @ %s\n", issue.Severity, issue.Type, issue.Location))
			sb.WriteString(fmt.Sprintf("      %s\n", issue.Message))
		}
		if len(r.Issues) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(r.Issues)-maxItemsToShow))
		}
	}

	if len(r.CorrectionsApplied) > 0 {
		sb.WriteString(fmt.Sprintf("Corrections applied: %d (%s → %s)\n",
			len(r.CorrectionsApplied), r.CorrectionsApplied[0].Before, r.CorrectionsApplied[0].After))
	}

	p.printBox(fmt.Sprintf("STAGE %s (iteration %d)", strings.ToUpper(r.Stage), r.Iteration),
		strings.TrimSuffix(sb.String(), "\n"))
}

// PrintSummary outputs the overall outcome of a run.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintSummary(result *types.PipelineResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Run:        %s\n", result.RunID))
	sb.WriteString(fmt.Sprintf("Level:      %s\n", result.Level))
	sb.WriteString(fmt.Sprintf("Iterations: %d   Duration: %d ms\n\n", result.TotalIterations, result.DurationMs))

	outcomes := make(map[string]types.StageOutcome, len(result.StageOutcomes))
	for _, o := range result.StageOutcomes {
		outcomes[o.Stage] = o
	}
	for _, r := range result.FinalResults() {
		line := fmt.Sprintf("%s %-17s %-7s %.2f", statusSymbol(r.Status), r.Stage, r.Status, r.Score)
		if o, ok := outcomes[r.Stage]; ok {
			line += fmt.Sprintf("  %s", o.State)
			if o.Reason != "" {
				line += fmt.Sprintf(" (%s)", o.Reason)
			}
		}
		sb.WriteString(line + "\n")
	}

	if len(result.Errors) > 0 {
		sb.WriteString("\nErrors:\n")
		for _, e := range result.Errors {
			sb.WriteString(fmt.Sprintf("  • %s\n", e))
		}
	}

	p.printBox("VALIDATION SUMMARY", strings.TrimSuffix(sb.String(), "\n"))

	status := fmt.Sprintf("%s %s (score %.2f)", statusSymbol(result.OverallStatus), result.OverallStatus, result.OverallScore)
	fmt.Fprintln(p.out, p.paint(statusColor(result.OverallStatus), status))
}

// PrintIssues outputs every issue of the final results, one per line, colored by severity.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintIssues(result *types.PipelineResult) {
	if result == nil {
		return
	}
	for _, r := range result.FinalResults() {
		for _, issue := range r.Issues {
			sev := p.paint(severityColor(issue.Severity), fmt.Sprintf("%-8s", issue.Severity))
			fmt.Fprintf(p.out, "%s %s/%s @ %s: %s\n", sev, r.Stage, issue.Type, issue.Location, issue.Message)
			if issue.Suggestion != "" {
				fmt.Fprintf(p.out, "         → %s\n", issue.Suggestion)
			}
		}
	}
}

// PrintNIPCheck outputs the result of a tax identifier check.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintNIPCheck(nip string, valid bool) {
	if valid {
		fmt.Fprintln(p.out, p.paint(color.FgGreen, "✓ NIP "+nip+" is valid"))
		return
	}
	fmt.Fprintln(p.out, p.paint(color.FgRed, "✗ NIP "+nip+" is invalid"))
}

// PrintRunList outputs one line per stored run, newest first as given.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRunList(runs []db.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(p.out, "No runs found")
		return
	}
	for _, r := range runs {
		status := types.Status(r.OverallStatus)
		fmt.Fprintf(p.out, "%s  %s  %-13s %s %.2f  %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Level,
			p.paint(statusColor(status), fmt.Sprintf("%-7s", status)), r.OverallScore,
			truncate(runLabel(&r), 40))
	}
}

// PrintRun outputs a stored run with its stage attempts.
func (p *Printer) PrintRun(run *db.Run, stages []types.StageResult) {
	if run == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Document:   %s\n", run.DocumentPath))
	sb.WriteString(fmt.Sprintf("Project:    %s\n", runLabel(run)))
	if run.CompanyNIP != "" {
		sb.WriteString(fmt.Sprintf("NIP:        %s\n", run.CompanyNIP))
	}
	sb.WriteString(fmt.Sprintf("Level:      %s\n", run.Level))
	sb.WriteString(fmt.Sprintf("Started:    %s\n", run.StartedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Iterations: %d   Duration: %d ms\n", run.TotalIterations, run.DurationMs))
	sb.WriteString(fmt.Sprintf("Status:     %s (score %.2f)", run.OverallStatus, run.OverallScore))
	if len(run.Errors) > 0 {
		sb.WriteString("\n\nErrors:")
		for _, e := range run.Errors {
			sb.WriteString(fmt.Sprintf("\n  • %s", e))
		}
	}
	p.printBox("RUN "+run.ID.String(), sb.String())

	for i := range stages {
		p.PrintProgress(&stages[i])
	}
}

func runLabel(r *db.Run) string {
	switch {
	case r.ProjectName != "" && r.CompanyName != "":
		return r.ProjectName + " (" + r.CompanyName + ")"
	case r.ProjectName != "":
		return r.ProjectName
	case r.CompanyName != "":
		return r.CompanyName
	default:
		return r.DocumentPath
	}
}
