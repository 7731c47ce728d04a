package db

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/brdocs/internal/types"
)

func TestArtifactNameConstants(t *testing.T) {
	assert.NotEqual(t, ArtifactPipelineResult, ArtifactFinalDocument)
	assert.NotEmpty(t, ArtifactPipelineResult)
	assert.NotEmpty(t, ArtifactFinalDocument)
}

func TestMigrations_Ordered(t *testing.T) {
	require.NotEmpty(t, migrations)
	for i, m := range migrations {
		assert.Equal(t, i+1, m.version, "migrations are numbered from 1 without gaps")
		assert.Contains(t, m.sql, "CREATE TABLE IF NOT EXISTS")
	}
}

func TestBuildRunQuery(t *testing.T) {
	tests := []struct {
		name     string
		filters  RunFilters
		contains []string
		args     []any
	}{
		{
			name:     "defaults",
			filters:  RunFilters{},
			contains: []string{"FROM validation_runs WHERE 1=1", "LIMIT $1"},
			args:     []any{50},
		},
		{
			name:     "all filters",
			filters:  RunFilters{CompanyNIP: "1234567854", Status: "FAILED", Level: "quick", Limit: 5},
			contains: []string{"company_nip = $1", "overall_status = $2", "level = $3", "LIMIT $4"},
			args:     []any{"1234567854", "FAILED", "quick", 5},
		},
		{
			name:     "status only",
			filters:  RunFilters{Status: "PASSED"},
			contains: []string{"overall_status = $1", "LIMIT $2"},
			args:     []any{"PASSED", 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildRunQuery(tt.filters)
			for _, fragment := range tt.contains {
				assert.Contains(t, query, fragment)
			}
			assert.True(t, strings.HasSuffix(query, "LIMIT $"+strconv.Itoa(len(args))))
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestStageRows(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	result := &types.PipelineResult{
		StageResults: []types.StageResult{
			{
				Stage: "financial", Iteration: 1, Timestamp: now, Status: types.StatusFailed, Score: 0.6,
				Issues: []types.Issue{
					{Type: "cost_total_mismatch", Severity: types.SeverityCritical, Location: "costs.total_costs", Message: "x"},
					{Type: "high_salary", Severity: types.SeverityWarning, Location: "Jan", Message: "y"},
				},
				Metadata: map[string]any{"total_costs": "194000.00"},
			},
			{Stage: "structure", Iteration: 2, Timestamp: now, Status: types.StatusPassed, Score: 1},
		},
	}

	rows, err := stageRows(result)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "financial", rows[0].Stage)
	assert.Equal(t, "FAILED", rows[0].Status)
	assert.Equal(t, 2, rows[0].IssueCount)
	assert.Equal(t, 1, rows[0].CriticalCount)
	assert.JSONEq(t, `{"total_costs": "194000.00"}`, string(rows[0].Metadata))

	assert.Equal(t, "[]", string(rows[1].Issues))
	assert.Equal(t, "[]", string(rows[1].Corrections))
	assert.Nil(t, rows[1].Metadata)

	var decoded types.StageResult
	require.NoError(t, unmarshalColumns(&decoded, rows[0].Issues, rows[0].Corrections, rows[0].Metadata))
	assert.Equal(t, result.StageResults[0].Issues, decoded.Issues)
	assert.Empty(t, decoded.CorrectionsApplied)
	assert.Equal(t, "194000.00", decoded.Metadata["total_costs"])
}

func TestUnmarshalColumns_Invalid(t *testing.T) {
	var r types.StageResult
	err := unmarshalColumns(&r, []byte(`{not json`), nil, nil)
	assert.Error(t, err)
}

func TestParseRunID(t *testing.T) {
	id, err := parseRunID("550e8400-e29b-41d4-a716-446655440000")
	require.NoError(t, err)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", id.String())

	_, err = parseRunID("run-1")
	assert.Error(t, err)
}

func TestNewRunInput(t *testing.T) {
	record := &types.ProjectRecord{
		Company: types.Company{Name: "Acme", NIP: "1234567854"},
		Project: types.Project{Name: "System", FiscalYear: 2024},
	}
	in := NewRunInput("doc.md", "abc", record)
	assert.Equal(t, RunInput{DocumentPath: "doc.md", DocumentHash: "abc", CompanyName: "Acme", CompanyNIP: "1234567854", ProjectName: "System", FiscalYear: 2024}, in)

	record.Company.NIP = "PL 123-456-78-54"
	assert.Equal(t, "1234567854", NewRunInput("doc.md", "abc", record).CompanyNIP)

	in = NewRunInput("doc.md", "abc", nil)
	assert.Empty(t, in.CompanyNIP)

	data, err := json.Marshal(Run{Errors: []string{}})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"errors":[]`)
}
