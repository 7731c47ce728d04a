package ingestion

import "fmt"

// InputError represents a missing or unreadable input file
type InputError struct {
	Message string
	Cause   error
}

func (e *InputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("input error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("input error: %s", e.Message)
}

func (e *InputError) Unwrap() error {
	return e.Cause
}

// InvalidRecordError is returned when a project record fails struct validation
type InvalidRecordError struct {
	Cause error
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid_input: project record failed validation: %v", e.Cause)
}

func (e *InvalidRecordError) Unwrap() error {
	return e.Cause
}
