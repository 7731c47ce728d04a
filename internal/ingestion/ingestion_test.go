package ingestion

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/brdocs/internal/types"
)

func TestCleanDocument(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"line endings", "# A\r\nB\rC", "# A\nB\nC\n"},
		{"blank lines", "# A\n\n\n\n\nB", "# A\n\nB\n"},
		{"trailing spaces", "# A   \nB\t", "# A\nB\n"},
		{"keeps inner spacing", "| 194 000,00 |  x  |", "| 194 000,00 |  x  |\n"},
		{"bom", "\ufeff# A", "# A\n"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanDocument(tt.input))
		})
	}
}

func TestCleanDocument_Deterministic(t *testing.T) {
	input := "# Tytuł\r\n\r\n\r\n\r\nTreść   \r\n"
	assert.Equal(t, CleanDocument(input), CleanDocument(CleanDocument(input)))
}

func TestLoadDocument(t *testing.T) {
	doc, meta, err := LoadDocument(filepath.Join("..", "..", "testdata", "compliant.md"))
	require.NoError(t, err)

	assert.Contains(t, doc, "# Inteligentny system sterowania produkcją")
	assert.Len(t, meta.Hash, 64)
	assert.Equal(t, computeHash(doc), meta.Hash)
	assert.Greater(t, meta.Lines, 10)
}

func TestLoadDocument_Errors(t *testing.T) {
	_, _, err := LoadDocument("testdata/does-not-exist.md")
	var inputErr *InputError
	require.True(t, errors.As(err, &inputErr))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	empty := filepath.Join(t.TempDir(), "empty.md")
	require.NoError(t, os.WriteFile(empty, []byte("  \n\n"), 0o644))
	_, _, err = LoadDocument(empty)
	assert.Error(t, err)
}

func TestLoadProjectRecord_JSONAndYAMLAgree(t *testing.T) {
	fromJSON, err := LoadProjectRecord(filepath.Join("..", "..", "testdata", "project.json"))
	require.NoError(t, err)
	fromYAML, err := LoadProjectRecord(filepath.Join("..", "..", "testdata", "project.yaml"))
	require.NoError(t, err)

	for _, rec := range []*types.ProjectRecord{fromJSON, fromYAML} {
		assert.Equal(t, "Acme Innovations Sp. z o.o.", rec.Company.Name)
		assert.Equal(t, 2024, rec.Project.FiscalYear)
		assert.Equal(t, "194000", rec.Costs.TotalCosts.String())
		assert.True(t, rec.Costs.Subtotal().Equal(rec.Costs.TotalCosts))
		require.Len(t, rec.Costs.Items, 2)
		require.NotNil(t, rec.Costs.Items[0].AllocationPercent)
		assert.Equal(t, 80.0, *rec.Costs.Items[0].AllocationPercent)
		assert.True(t, rec.Costs.Items[0].GrossMonthlySalary.Valid)
		assert.False(t, rec.Costs.Items[1].GrossMonthlySalary.Valid)
	}
}

func TestParseProjectRecord_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		ext  string
	}{
		{"missing company name", `{"company": {"nip": "1234567854"}, "project": {"name": "P", "fiscal_year": 2024}}`, ".json"},
		{"fiscal year out of range", `{"company": {"name": "A", "nip": "1"}, "project": {"name": "P", "fiscal_year": 1999}}`, ".json"},
		{"bad innovation type", "company: {name: A, nip: '1'}\nproject: {name: P, fiscal_year: 2024, innovation_type: service}\n", ".yaml"},
		{"bad category", `{"company": {"name": "A", "nip": "1"}, "project": {"name": "P", "fiscal_year": 2024}, "costs": {"items": [{"category": "travel"}]}}`, ".json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProjectRecord([]byte(tt.data), tt.ext)

			var invalid *InvalidRecordError
			require.True(t, errors.As(err, &invalid), "got %v", err)
			var verrs validator.ValidationErrors
			assert.True(t, errors.As(err, &verrs))
		})
	}
}

func TestParseProjectRecord_Malformed(t *testing.T) {
	_, err := ParseProjectRecord([]byte(`{"company": `), ".json")
	var inputErr *InputError
	assert.True(t, errors.As(err, &inputErr))

	_, err = ParseProjectRecord([]byte(`{"unexpected": 1}`), ".json")
	assert.True(t, errors.As(err, &inputErr))
}

func TestMetadata_ToJSON(t *testing.T) {
	data, err := NewMetadata("abc\n", "doc.md").ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"path": "doc.md"`)
	assert.Contains(t, string(data), `"chars": 4`)
}
