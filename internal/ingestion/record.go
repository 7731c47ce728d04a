package ingestion

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/brdocs/internal/types"
)

// LoadProjectRecord reads a project record from a JSON or YAML file and validates it.
func LoadProjectRecord(path string) (*types.ProjectRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &InputError{Message: "project record not found: " + path, Cause: err}
		}
		return nil, &InputError{Message: "failed to read project record", Cause: err}
	}
	return ParseProjectRecord(data, filepath.Ext(path))
}

// ParseProjectRecord decodes a project record. ext selects the format (".yaml"/".yml"
// for YAML, anything else for JSON).
func ParseProjectRecord(data []byte, ext string) (*types.ProjectRecord, error) {
	var record types.ProjectRecord

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &record); err != nil {
			return nil, &InputError{Message: "failed to parse project record YAML", Cause: err}
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&record); err != nil {
			return nil, &InputError{Message: "failed to parse project record JSON", Cause: err}
		}
	}

	if err := record.Validate(); err != nil {
		return nil, &InvalidRecordError{Cause: err}
	}
	return &record, nil
}
