package db

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/brdocs/internal/types"
	"github.com/jonathan/brdocs/internal/validation"
)

// Artifact names
const (
	ArtifactPipelineResult = "pipeline_result"
	ArtifactFinalDocument  = "final_document"
)

// Run represents a validation run record
type Run struct {
	ID              uuid.UUID `json:"id"`
	DocumentPath    string    `json:"document_path"`
	DocumentHash    string    `json:"document_hash"`
	CompanyName     string    `json:"company_name"`
	CompanyNIP      string    `json:"company_nip"`
	ProjectName     string    `json:"project_name"`
	FiscalYear      int       `json:"fiscal_year"`
	Level           string    `json:"level"`
	OverallStatus   string    `json:"overall_status"`
	OverallScore    float64   `json:"overall_score"`
	TotalIterations int       `json:"total_iterations"`
	DurationMs      int64     `json:"duration_ms"`
	Errors          []string  `json:"errors"`
	StartedAt       time.Time `json:"started_at"`
	CreatedAt       time.Time `json:"created_at"`
}

const runColumns = `id, document_path, document_hash, company_name, company_nip, project_name,
	fiscal_year, level, overall_status, overall_score, total_iterations, duration_ms, errors,
	started_at, created_at`

func (r *Run) scanTargets() []any {
	return []any{
		&r.ID, &r.DocumentPath, &r.DocumentHash, &r.CompanyName, &r.CompanyNIP, &r.ProjectName,
		&r.FiscalYear, &r.Level, &r.OverallStatus, &r.OverallScore, &r.TotalIterations, &r.DurationMs, &r.Errors,
		&r.StartedAt, &r.CreatedAt,
	}
}

// RunInput describes the inputs of a run for storage alongside its result.
type RunInput struct {
	DocumentPath string
	DocumentHash string
	CompanyName  string
	CompanyNIP   string
	ProjectName  string
	FiscalYear   int
}

// NewRunInput fills a RunInput from the project record; a nil record leaves the project fields empty.
// The NIP is stored normalized so runs can be filtered by it.
func NewRunInput(documentPath, documentHash string, record *types.ProjectRecord) RunInput {
	in := RunInput{DocumentPath: documentPath, DocumentHash: documentHash}
	if record != nil {
		in.CompanyName = record.Company.Name
		in.CompanyNIP = validation.NormalizeNIP(record.Company.NIP)
		in.ProjectName = record.Project.Name
		in.FiscalYear = record.Project.FiscalYear
	}
	return in
}

// RunFilters holds optional filters for listing runs
type RunFilters struct {
	CompanyNIP string
	Status     string
	Level      string
	Limit      int
}

// buildRunQuery assembles the run listing query and its positional arguments.
func buildRunQuery(filters RunFilters) (string, []any) {
	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	query := `SELECT ` + runColumns + ` FROM validation_runs WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.CompanyNIP != "" {
		query += fmt.Sprintf(" AND company_nip = $%d", argNum)
		args = append(args, filters.CompanyNIP)
		argNum++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND overall_status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}
	if filters.Level != "" {
		query += fmt.Sprintf(" AND level = $%d", argNum)
		args = append(args, filters.Level)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)
	return query, args
}

// stageRow is one stage_results row with its JSON columns encoded.
type stageRow struct {
	Stage         string
	Iteration     int
	Status        string
	Score         float64
	IssueCount    int
	CriticalCount int
	Issues        []byte
	Corrections   []byte
	Metadata      []byte
	CreatedAt     time.Time
}

func stageRows(result *types.PipelineResult) ([]stageRow, error) {
	rows := make([]stageRow, 0, len(result.StageResults))
	for i := range result.StageResults {
		r := &result.StageResults[i]
		issues, err := json.Marshal(nonNil(r.Issues))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal issues of %s: %w", r.Stage, err)
		}
		corrections, err := json.Marshal(nonNil(r.CorrectionsApplied))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal corrections of %s: %w", r.Stage, err)
		}
		var metadata []byte
		if r.Metadata != nil {
			if metadata, err = json.Marshal(r.Metadata); err != nil {
				return nil, fmt.Errorf("failed to marshal metadata of %s: %w", r.Stage, err)
			}
		}
		rows = append(rows, stageRow{
			Stage:         r.Stage,
			Iteration:     r.Iteration,
			Status:        string(r.Status),
			Score:         r.Score,
			IssueCount:    len(r.Issues),
			CriticalCount: r.CountBySeverity(types.SeverityCritical),
			Issues:        issues,
			Corrections:   corrections,
			Metadata:      metadata,
			CreatedAt:     r.Timestamp,
		})
	}
	return rows, nil
}

func unmarshalColumns(r *types.StageResult, issues, corrections, metadata []byte) error {
	if len(issues) > 0 {
		if err := json.Unmarshal(issues, &r.Issues); err != nil {
			return fmt.Errorf("failed to decode issues: %w", err)
		}
	}
	if len(corrections) > 0 {
		if err := json.Unmarshal(corrections, &r.CorrectionsApplied); err != nil {
			return fmt.Errorf("failed to decode corrections: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &r.Metadata); err != nil {
			return fmt.Errorf("failed to decode metadata: %w", err)
		}
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func parseRunID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid run id %q: %w", raw, err)
	}
	return id, nil
}
