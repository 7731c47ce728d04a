// Package ingestion loads the generated document and the structured project record
// that a validation run consumes.
package ingestion

import (
	"os"
	"regexp"
	"strings"
)

var excessiveBlankLines = regexp.MustCompile(`\n\n\n+`)

// CleanDocument normalizes a markdown document without touching its content:
// line endings become LF, a UTF-8 BOM and trailing spaces are removed and runs of
// blank lines are reduced to one. Spacing inside lines is kept (tables, amounts, code).
func CleanDocument(content string) string {
	if content == "" {
		return ""
	}

	content = strings.TrimPrefix(content, "\ufeff")

	// 1. Normalize line endings (CRLF → LF)
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	// 2. Trim trailing whitespace per line
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	content = strings.Join(lines, "\n")

	// 3. Remove excessive blank lines
	content = excessiveBlankLines.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content) + "\n"
}

// LoadDocument reads a markdown document, cleans it and returns it with its metadata.
func LoadDocument(path string) (string, *Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, &InputError{Message: "document not found: " + path, Cause: err}
		}
		return "", nil, &InputError{Message: "failed to read document", Cause: err}
	}

	cleaned := CleanDocument(string(content))
	if strings.TrimSpace(cleaned) == "" {
		return "", nil, &InputError{Message: "document is empty: " + path}
	}
	return cleaned, NewMetadata(cleaned, path), nil
}
