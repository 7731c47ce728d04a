package pipeline

import (
	"github.com/jonathan/brdocs/internal/types"
)

// Aggregate combines the last result of every stage into the overall status and score.
// Status: FAILED if any final result failed or carries a CRITICAL issue, WARNING if any
// warned, PASSED otherwise. Score: weighted mean of the final scores, with the weights of
// stages that produced no result dropped and the rest renormalized.
func Aggregate(results []types.StageResult, weights map[string]float64) (types.Status, float64) {
	final := types.LastPerStage(results)
	if len(final) == 0 {
		return types.StatusFailed, 0
	}

	status := types.StatusPassed
	weighted, totalWeight := 0.0, 0.0
	for _, r := range final {
		switch {
		case r.Status == types.StatusFailed || r.HasCritical():
			status = types.StatusFailed
		case r.Status == types.StatusWarning && status != types.StatusFailed:
			status = types.StatusWarning
		}

		w, ok := weights[r.Stage]
		if !ok {
			continue
		}
		weighted += w * r.Score
		totalWeight += w
	}

	if totalWeight == 0 {
		// no weighted stage ran; fall back to the plain mean
		sum := 0.0
		for _, r := range final {
			sum += r.Score
		}
		return status, sum / float64(len(final))
	}
	return status, weighted / totalWeight
}
