// Package repair asks the text-improvement capability to fix validation issues and records the corrections.
package repair

import (
	"errors"
	"fmt"
)

// Causes of a correction attempt that left the document as it was.
var (
	ErrNothingToCorrect = errors.New("no correctable issues")
	ErrNotConfigured    = errors.New("text improvement is not configured")
	ErrEmptyDocument    = errors.New("improved document is empty")
	ErrUnchanged        = errors.New("improved document is unchanged")
)

// Phase is the step of a correction attempt.
type Phase string

const (
	PhaseSelect  Phase = "select"
	PhasePropose Phase = "propose"
	PhaseApply   Phase = "apply"
)

// Error reports a correction attempt that produced no new document.
type Error struct {
	Phase Phase
	// Issues is how many issues the attempt tried to address.
	Issues int
	Cause  error
}

func (e *Error) Error() string {
	if e.Issues > 0 {
		return fmt.Sprintf("correction %s failed (%d issues): %v", e.Phase, e.Issues, e.Cause)
	}
	return fmt.Sprintf("correction %s failed: %v", e.Phase, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
