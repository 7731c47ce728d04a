// Package schemas embeds the JSON Schemas of the artifacts brdocs reads and writes.
package schemas

import (
	"embed"
	"fmt"
)

// Schema file names
const (
	PipelineResult = "pipeline_result.schema.json"
	ProjectRecord  = "project_record.schema.json"
)

//go:embed *.schema.json
var files embed.FS

// Names lists the embedded schema files.
func Names() []string {
	return []string{PipelineResult, ProjectRecord}
}

// Load returns the content of an embedded schema.
func Load(name string) (string, error) {
	data, err := files.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("schema %s not embedded: %w", name, err)
	}
	return string(data), nil
}
