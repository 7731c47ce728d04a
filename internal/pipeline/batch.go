package pipeline

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/brdocs/internal/types"
)

// DefaultBatchConcurrency bounds concurrent runs in RunBatch.
const DefaultBatchConcurrency = 4

// Job is one independent document to validate.
type Job struct {
	Name     string
	Project  *types.ProjectRecord
	Document string
}

// BatchResult pairs a job with its pipeline result.
type BatchResult struct {
	Name   string                `json:"name"`
	Result *types.PipelineResult `json:"result"`
}

// RunBatch validates independent documents concurrently. Results keep the job order.
// Only cancellation of ctx is returned as an error; individual run failures live in their results.
func (o *Orchestrator) RunBatch(ctx context.Context, jobs []Job, concurrency int) ([]BatchResult, error) {
	if concurrency < 1 {
		concurrency = DefaultBatchConcurrency
	}

	results := make([]BatchResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			log.Printf("[pipeline] batch job %d/%d: %s", i+1, len(jobs), job.Name)
			results[i] = BatchResult{Name: job.Name, Result: o.Run(gctx, job.Project, job.Document)}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
