package validation

import "fmt"

// UnknownLevelError is returned when a caller asks for a validation level that does not exist.
type UnknownLevelError struct {
	Level string
}

func (e *UnknownLevelError) Error() string {
	return fmt.Sprintf("validation error: unknown validation level %q (valid: %s, %s, %s)",
		e.Level, LevelQuick, LevelStandard, LevelComprehensive)
}

// UnknownStageError is returned when a stage name is not in the registry.
type UnknownStageError struct {
	Stage string
}

func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("validation error: unknown stage %q", e.Stage)
}
