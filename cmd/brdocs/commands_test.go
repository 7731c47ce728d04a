package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/brdocs/internal/db"
	"github.com/jonathan/brdocs/internal/types"
)

var (
	compliantDoc   = filepath.Join("..", "..", "testdata", "compliant.md")
	projectJSON    = filepath.Join("..", "..", "testdata", "project.json")
	projectYAML    = filepath.Join("..", "..", "testdata", "project.yaml")
	absCompliant   string
	absProjectJSON string
)

func init() {
	absCompliant, _ = filepath.Abs(compliantDoc)
	absProjectJSON, _ = filepath.Abs(projectJSON)
}

// executeCommand runs the root command in-process with fresh flag values.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func mismatchedProject(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(projectJSON)
	require.NoError(t, err)
	content := strings.Replace(string(data), `"total_costs": "194000.00"`, `"total_costs": "194001.00"`, 1)
	require.NotEqual(t, string(data), content)
	return writeFile(t, dir, "mismatch.json", content)
}

func TestCheckNIP(t *testing.T) {
	out, err := executeCommand(t, "check-nip", "123-456-78-54", "PL 123 456 78 54")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "is valid"))

	out, err = executeCommand(t, "check-nip", "1234567854", "1234567890")
	require.Error(t, err)
	assert.Contains(t, out, "1234567890 is invalid")
	assert.Contains(t, err.Error(), "1 of 2")
}

func TestStages(t *testing.T) {
	out, err := executeCommand(t, "stages", "--level", "quick")
	require.NoError(t, err)
	assert.Contains(t, out, "1. structure")
	assert.Contains(t, out, "2. financial")
	assert.NotContains(t, out, "legal_compliance")

	out, err = executeCommand(t, "stages")
	require.NoError(t, err)
	assert.Contains(t, out, "4. financial")

	_, err = executeCommand(t, "stages", "--level", "paranoid")
	assert.Error(t, err)
}

func TestValidate_CompliantDocument(t *testing.T) {
	outDir := t.TempDir()
	out, err := executeCommand(t, "validate", "-d", compliantDoc, "-p", projectJSON, "--no-correct", "--out", outDir)
	require.NoError(t, err)

	assert.Contains(t, out, "VALIDATION SUMMARY")
	assert.Contains(t, out, "PASSED")

	data, err := os.ReadFile(filepath.Join(outDir, "result.json"))
	require.NoError(t, err)
	var result types.PipelineResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, types.StatusPassed, result.OverallStatus)
	assert.Equal(t, "standard", result.Level)
	assert.Len(t, result.StageOutcomes, 4)

	final, err := os.ReadFile(filepath.Join(outDir, "result.md"))
	require.NoError(t, err)
	assert.Equal(t, result.FinalDocument, string(final))
}

func TestValidate_Verbose(t *testing.T) {
	out, err := executeCommand(t, "validate", "-d", compliantDoc, "-p", projectYAML, "--no-correct", "-v", "--level", "quick")
	require.NoError(t, err)
	assert.Contains(t, out, "structure")
	assert.Contains(t, out, "iteration 1")
}

func TestValidate_SingleStage(t *testing.T) {
	outDir := t.TempDir()
	_, err := executeCommand(t, "validate", "-d", compliantDoc, "-p", projectJSON, "--stage", "financial", "--no-correct", "-o", outDir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "result.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level": "stage:financial"`)

	_, err = executeCommand(t, "validate", "-d", compliantDoc, "-p", projectJSON, "--stage", "grammar", "--no-correct")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage")
}

func TestValidate_Strict(t *testing.T) {
	project := mismatchedProject(t, t.TempDir())

	out, err := executeCommand(t, "validate", "-d", compliantDoc, "-p", project, "--no-correct")
	require.NoError(t, err, "without --strict a failed document is reported, not an error")
	assert.Contains(t, out, "FAILED")

	_, err = executeCommand(t, "validate", "-d", compliantDoc, "-p", project, "--no-correct", "--strict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestValidate_InputErrors(t *testing.T) {
	dir := t.TempDir()
	badRecord := writeFile(t, dir, "bad.json", `{"company": {"name": "A", "nip": "1"}, "project": {"name": "P", "fiscal_year": 1990}}`)
	emptyDoc := writeFile(t, dir, "empty.md", "\n\n")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing flags", []string{"validate"}, "required flag"},
		{"missing document", []string{"validate", "-d", filepath.Join(dir, "nope.md"), "-p", projectJSON}, "document not found"},
		{"empty document", []string{"validate", "-d", emptyDoc, "-p", projectJSON}, "empty"},
		{"invalid record", []string{"validate", "-d", compliantDoc, "-p", badRecord}, "invalid_input"},
		{"unknown level", []string{"validate", "-d", compliantDoc, "-p", projectJSON, "--level", "paranoid"}, "paranoid"},
		{"comprehensive without key", []string{"validate", "-d", compliantDoc, "-p", projectJSON, "--level", "comprehensive"}, "GEMINI_API_KEY"},
		{"unknown provider", []string{"validate", "-d", compliantDoc, "-p", projectJSON, "--provider", "mistral"}, "mistral"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_NoAPIKeyDisablesCorrection(t *testing.T) {
	out, err := executeCommand(t, "validate", "-d", compliantDoc, "-p", projectJSON)
	require.NoError(t, err)
	assert.Contains(t, out, "PASSED")
}

func TestValidate_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "brdocs.yaml", "level: quick\nauto_correct: false\n")
	outDir := filepath.Join(dir, "out")

	_, err := executeCommand(t, "validate", "-d", compliantDoc, "-p", projectJSON, "--config", cfg, "-o", outDir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "result.json"))
	require.NoError(t, err)
	var result types.PipelineResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "quick", result.Level)
	assert.Len(t, result.StageOutcomes, 2)

	// flags win over the file
	_, err = executeCommand(t, "validate", "-d", compliantDoc, "-p", projectJSON, "--config", cfg, "--level", "standard", "-o", outDir)
	require.NoError(t, err)
	data, err = os.ReadFile(filepath.Join(outDir, "result.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"level": "standard"`)

	badCfg := writeFile(t, dir, "bad.yaml", "level: paranoid\n")
	_, err = executeCommand(t, "validate", "-d", compliantDoc, "-p", projectJSON, "--config", badCfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config error")
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	mismatch := mismatchedProject(t, dir)
	manifest := writeFile(t, dir, "manifest.yaml", `concurrency: 2
jobs:
  - name: acme
    document: `+absCompliant+`
    project: `+absProjectJSON+`
  - name: acme-mismatch
    document: `+absCompliant+`
    project: mismatch.json
`)
	require.FileExists(t, mismatch)
	outDir := filepath.Join(dir, "out")

	out, err := executeCommand(t, "batch", "-m", manifest, "--no-correct", "-o", outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "acme ")
	assert.Contains(t, out, "2 documents, 1 failed")
	assert.FileExists(t, filepath.Join(outDir, "acme.json"))
	assert.FileExists(t, filepath.Join(outDir, "acme-mismatch.md"))

	_, err = executeCommand(t, "batch", "-m", manifest, "--no-correct", "--strict")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()

	t.Run("resolves relative paths and names", func(t *testing.T) {
		path := writeFile(t, dir, "ok.yaml", "jobs:\n  - document: a.md\n    project: a.json\n")
		m, err := loadManifest(path)
		require.NoError(t, err)
		require.Len(t, m.Jobs, 1)
		assert.Equal(t, "job-1", m.Jobs[0].Name)
		assert.Equal(t, filepath.Join(dir, "a.md"), m.Jobs[0].Document)
		assert.Equal(t, filepath.Join(dir, "a.json"), m.Jobs[0].Project)
	})

	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"no jobs", "concurrency: 2\n", "no jobs"},
		{"missing project", "jobs:\n  - document: a.md\n", "required"},
		{"duplicate names", "jobs:\n  - {name: x, document: a.md, project: a.json}\n  - {name: x, document: b.md, project: b.json}\n", "duplicate"},
		{"malformed", "jobs: [", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml", tt.content)
			_, err := loadManifest(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheckSchema(t *testing.T) {
	outDir := t.TempDir()
	_, err := executeCommand(t, "validate", "-d", compliantDoc, "-p", projectJSON, "--no-correct", "--out", outDir)
	require.NoError(t, err)
	resultPath := filepath.Join(outDir, "result.json")

	out, err := executeCommand(t, "check-schema", resultPath)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+resultPath)

	out, err = executeCommand(t, "check-schema", "--kind", "project", projectJSON)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ "+projectJSON)

	schemaPath := filepath.Join("..", "..", "schemas", "project_record.schema.json")
	_, err = executeCommand(t, "check-schema", "--schema", schemaPath, projectJSON)
	require.NoError(t, err)
}

func TestCheckSchema_Mismatch(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.json", `{"run_id": 7}`)

	out, err := executeCommand(t, "check-schema", projectJSON, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 of 2")
	assert.Contains(t, out, "✗ "+bad)

	_, err = executeCommand(t, "check-schema", "--kind", "invoice", projectJSON)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown schema kind")

	_, err = executeCommand(t, "check-schema", filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestRuns_RequireDatabase(t *testing.T) {
	id := "550e8400-e29b-41d4-a716-446655440000"
	for _, args := range [][]string{
		{"runs", "list"},
		{"runs", "show", id},
		{"runs", "delete", id},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := executeCommand(t, args...)
			require.ErrorIs(t, err, errNoDatabase)
		})
	}
}

func TestRuns_ArgumentErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"bad run id", []string{"runs", "show", "run-1"}, "invalid run id"},
		{"bad delete id", []string{"runs", "delete", "42"}, "invalid run id"},
		{"exclusive output", []string{"runs", "show", "550e8400-e29b-41d4-a716-446655440000", "--json", "--document"}, "mutually exclusive"},
		{"bad nip", []string{"runs", "list", "--nip", "1234567890"}, "invalid NIP"},
		{"bad status", []string{"runs", "list", "--status", "stalled"}, "unknown status"},
		{"bad level", []string{"runs", "list", "--level", "extreme"}, "extreme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := executeCommand(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRunFiltersFromFlags(t *testing.T) {
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	runsNIP = "PL 123-456-78-54"
	runsStatus = "warning"
	runsLevel = "Quick"
	runsLimit = 5

	filters, err := runFiltersFromFlags()
	require.NoError(t, err)
	assert.Equal(t, db.RunFilters{CompanyNIP: "1234567854", Status: "WARNING", Level: "quick", Limit: 5}, filters)
}
