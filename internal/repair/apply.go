package repair

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/jonathan/brdocs/internal/types"
)

// Apply turns an improved document into Correction records, one per addressed issue.
// An improved text identical to the original is not a correction.
func Apply(original, improved string, issues []types.Issue, at time.Time) ([]types.Correction, error) {
	if strings.TrimSpace(improved) == "" {
		return nil, &Error{Phase: PhaseApply, Issues: len(issues), Cause: ErrEmptyDocument}
	}
	if strings.TrimSpace(improved) == strings.TrimSpace(original) {
		return nil, &Error{Phase: PhaseApply, Issues: len(issues), Cause: ErrUnchanged}
	}

	before := Fingerprint(original)
	after := Fingerprint(improved)
	corrections := make([]types.Correction, 0, len(issues))
	for _, issue := range issues {
		corrections = append(corrections, types.Correction{
			IssueType: issue.Type,
			Location:  issue.Location,
			Reason:    issue.Message,
			Before:    before,
			After:     after,
			AppliedAt: at,
		})
	}
	return corrections, nil
}

// Fingerprint returns a short SHA-256 marker of a document version.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "sha256:" + hex.EncodeToString(sum[:])[:16]
}
