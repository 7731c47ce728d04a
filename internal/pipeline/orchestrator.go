// Package pipeline runs the validation stages over a document, drives the bounded
// validate/correct loop of each stage and aggregates the outcome.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/brdocs/internal/llm"
	"github.com/jonathan/brdocs/internal/repair"
	"github.com/jonathan/brdocs/internal/types"
	"github.com/jonathan/brdocs/internal/validation"
)

// ProgressEvent is emitted after every validation attempt.
type ProgressEvent struct {
	RunID     string             `json:"run_id"`
	Stage     string             `json:"stage"`
	Iteration int                `json:"iteration"`
	Message   string             `json:"message"`
	Result    *types.StageResult `json:"result,omitempty"`
}

// ProgressCallback is called when pipeline progress occurs. In batch mode it may be
// called from several goroutines.
type ProgressCallback func(event ProgressEvent)

// Options configures an Orchestrator.
type Options struct {
	// Level is recorded on the result; it does not select stages by itself.
	Level         string
	MaxIterations int
	Policy        validation.Policy
	OnProgress    ProgressCallback
}

// Orchestrator sequences the stages of one validation run.
// It holds no per-run state, so one Orchestrator can serve concurrent runs.
type Orchestrator struct {
	stages        []validation.Stage
	corrector     *repair.Corrector
	policy        validation.Policy
	maxIterations int
	level         string
	onProgress    ProgressCallback
}

// New creates an orchestrator over explicit stages.
func New(stages []validation.Stage, corrector *repair.Corrector, opts Options) *Orchestrator {
	policy := mergePolicy(opts.Policy)
	maxIterations := opts.MaxIterations
	if maxIterations < 1 {
		maxIterations = policy.MaxIterations
	}
	if corrector == nil {
		corrector = repair.NewCorrector(nil)
	}
	return &Orchestrator{
		stages:        stages,
		corrector:     corrector,
		policy:        policy,
		maxIterations: maxIterations,
		level:         opts.Level,
		onProgress:    opts.OnProgress,
	}
}

// NewForLevel builds the stages of a validation level and wraps them in an orchestrator.
func NewForLevel(level string, assessor llm.QualityAssessor, improver llm.TextImprover, opts Options) (*Orchestrator, error) {
	stages, err := validation.StagesForLevel(level, validation.Dependencies{Assessor: assessor, Policy: opts.Policy})
	if err != nil {
		return nil, err
	}
	parsed, _ := validation.ParseLevel(level)
	opts.Level = string(parsed)
	return New(stages, repair.NewCorrector(improver), opts), nil
}

// NewForStage builds an orchestrator running a single named stage.
func NewForStage(name string, assessor llm.QualityAssessor, improver llm.TextImprover, opts Options) (*Orchestrator, error) {
	registry := validation.NewRegistry(validation.Dependencies{Assessor: assessor, Policy: opts.Policy})
	stage, err := validation.Lookup(registry, name)
	if err != nil {
		return nil, err
	}
	if opts.Level == "" {
		opts.Level = "stage:" + name
	}
	return New([]validation.Stage{stage}, repair.NewCorrector(improver), opts), nil
}

// Stages returns the names of the stages in run order.
func (o *Orchestrator) Stages() []string {
	names := make([]string, 0, len(o.stages))
	for _, s := range o.stages {
		names = append(names, s.Name())
	}
	return names
}

// Run validates the document against every stage in order. It always returns a complete
// result; stage failures are recorded in Errors and in the stage outcomes.
func (o *Orchestrator) Run(ctx context.Context, project *types.ProjectRecord, document string) *types.PipelineResult {
	start := time.Now()
	result := &types.PipelineResult{
		RunID:         uuid.New().String(),
		Level:         o.level,
		StageResults:  []types.StageResult{},
		StageOutcomes: []types.StageOutcome{},
		Errors:        []string{},
		StartedAt:     start.UTC(),
	}

	vctx := types.NewValidationContext(project, document, o.maxIterations)
	vctx.Metadata["run_id"] = result.RunID

	log.Printf("[pipeline] run %s: %d stages, max %d iterations", result.RunID, len(o.stages), o.maxIterations)
	for _, stage := range o.stages {
		outcome := o.runStage(ctx, stage, vctx, result)
		result.StageOutcomes = append(result.StageOutcomes, outcome)
		log.Printf("[pipeline] stage %s %s after %d iteration(s)", outcome.Stage, outcome.State, outcome.Iterations)
	}

	result.FinalDocument = vctx.Document
	result.TotalIterations = len(result.StageResults)
	result.OverallStatus, result.OverallScore = Aggregate(result.StageResults, o.policy.StageWeights)
	result.DurationMs = time.Since(start).Milliseconds()

	log.Printf("[pipeline] run %s finished: %s (%.2f)", result.RunID, result.OverallStatus, result.OverallScore)
	return result
}

// runStage drives one stage through its validate/correct loop.
func (o *Orchestrator) runStage(ctx context.Context, stage validation.Stage, vctx *types.ValidationContext, result *types.PipelineResult) types.StageOutcome {
	outcome := types.StageOutcome{Stage: stage.Name()}

	for iteration := 1; iteration <= o.maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("stage %s: %v", stage.Name(), err))
			outcome.State = types.StateBlocked
			outcome.Reason = "cancelled"
			return outcome
		}

		vctx.CurrentIteration = iteration
		stageResult, err := validateSafely(ctx, stage, vctx)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("stage %s iteration %d: %v", stage.Name(), iteration, err))
			outcome.State = types.StateBlocked
			outcome.Reason = "stage failed"
			return outcome
		}

		outcome.Iterations = iteration
		result.StageResults = append(result.StageResults, *stageResult)
		vctx.Record(*stageResult)
		o.emit(result.RunID, stageResult)

		if stageResult.Status == types.StatusPassed {
			outcome.State = types.StatePassed
			return outcome
		}
		if stageResult.HasCritical() {
			outcome.State = types.StateBlocked
			outcome.Reason = "critical issue"
			return outcome
		}
		if iteration == o.maxIterations {
			outcome.State = types.StateBlocked
			outcome.Reason = "iteration budget exhausted"
			return outcome
		}
		if len(types.CorrectableIssues(stageResult.Issues)) == 0 {
			outcome.State = types.StateStalled
			outcome.Reason = "no correctable issues"
			return outcome
		}

		correction, err := correctSafely(ctx, o.corrector, stage, vctx)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("stage %s iteration %d: %v", stage.Name(), iteration, err))
			outcome.State = types.StateBlocked
			outcome.Reason = "correction failed"
			return outcome
		}
		if !correction.Applied() {
			outcome.State = types.StateStalled
			outcome.Reason = "correction produced no change"
			if correction.Err != nil {
				outcome.Reason = correction.Err.Error()
			}
			return outcome
		}

		vctx.Document = correction.Document
		result.StageResults[len(result.StageResults)-1].CorrectionsApplied = correction.Corrections
		vctx.History[len(vctx.History)-1].CorrectionsApplied = correction.Corrections
	}

	// maxIterations < 1 never validates
	outcome.State = types.StateBlocked
	outcome.Reason = "iteration budget exhausted"
	return outcome
}

func (o *Orchestrator) emit(runID string, r *types.StageResult) {
	if o.onProgress == nil {
		return
	}
	o.onProgress(ProgressEvent{
		RunID:     runID,
		Stage:     r.Stage,
		Iteration: r.Iteration,
		Message:   fmt.Sprintf("%s iteration %d: %s (%.2f, %d issues)", r.Stage, r.Iteration, r.Status, r.Score, len(r.Issues)),
		Result:    r,
	})
}

// validateSafely converts a panicking stage into an error.
func validateSafely(ctx context.Context, stage validation.Stage, vctx *types.ValidationContext) (res *types.StageResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validation panicked: %v", r)
		}
	}()
	res = stage.Validate(ctx, vctx)
	if res == nil {
		return nil, fmt.Errorf("validation returned no result")
	}
	return res, nil
}

// correctSafely converts a panicking correction into an error.
func correctSafely(ctx context.Context, corrector *repair.Corrector, stage validation.Stage, vctx *types.ValidationContext) (res repair.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("correction panicked: %v", r)
		}
	}()
	last := vctx.History[len(vctx.History)-1]
	return corrector.Correct(ctx, stage.CorrectionInstructions(), vctx.Document, last.Issues), nil
}

// mergePolicy fills unset fields from the default policy.
func mergePolicy(p validation.Policy) validation.Policy {
	def := validation.DefaultPolicy()
	if p.StageWeights == nil {
		p.StageWeights = def.StageWeights
	}
	if p.Penalties == nil {
		p.Penalties = def.Penalties
	}
	if p.MaxIterations == 0 {
		p.MaxIterations = def.MaxIterations
	}
	return p
}
