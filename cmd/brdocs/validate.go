package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/jonathan/brdocs/internal/db"
	"github.com/jonathan/brdocs/internal/ingestion"
	"github.com/jonathan/brdocs/internal/observability"
	"github.com/jonathan/brdocs/internal/pipeline"
	"github.com/jonathan/brdocs/internal/types"
	"github.com/jonathan/brdocs/internal/validation"
)

var validateCommand = &cobra.Command{
	Use:   "validate",
	Short: "Validate a B+R document against its project record",
	Long: `Runs the validation stages of the selected level over a markdown document. Stages that report
correctable issues are corrected by the LLM and validated again, up to --max-iterations attempts each.

Configuration can be loaded from a JSON or YAML file using --config. Command-line arguments override config file values.`,
	RunE: runValidateCmd,
}

var (
	validateDocument string
	validateProject  string
	validateStage    string
	validateFlags    runFlags
)

func init() {
	validateCommand.Flags().StringVarP(&validateDocument, "document", "d", "", "Path to the markdown document (required)")
	validateCommand.Flags().StringVarP(&validateProject, "project", "p", "", "Path to the project record, JSON or YAML (required)")
	validateCommand.Flags().StringVar(&validateStage, "stage", "", "Run a single stage instead of a level")
	validateFlags.register(validateCommand)

	_ = validateCommand.MarkFlagRequired("document")
	_ = validateCommand.MarkFlagRequired("project")

	rootCmd.AddCommand(validateCommand)
}

func runValidateCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cfg, err := validateFlags.resolveConfig(cmd)
	if err != nil {
		return err
	}
	level, err := validation.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	document, meta, err := ingestion.LoadDocument(validateDocument)
	if err != nil {
		return err
	}
	record, err := ingestion.LoadProjectRecord(validateProject)
	if err != nil {
		return err
	}

	caps, err := buildCapabilities(ctx, cfg, level)
	if err != nil {
		return err
	}
	defer caps.Close()

	printer := observability.NewPrinter(cmd.OutOrStdout())
	var onProgress pipeline.ProgressCallback
	if cfg.Verbose {
		onProgress = func(e pipeline.ProgressEvent) { printer.PrintProgress(e.Result) }
	}

	orchestrator, err := newOrchestrator(cfg, validateStage, caps, onProgress)
	if err != nil {
		return err
	}

	result := orchestrator.Run(ctx, record, document)
	if err := checkResult(result); err != nil {
		return err
	}

	if validateFlags.outDir != "" {
		if err := writeOutputs(validateFlags.outDir, "result", result); err != nil {
			return err
		}
	}
	if err := persist(ctx, cfg.DatabaseURL, db.NewRunInput(meta.Path, meta.Hash, record), result); err != nil {
		return err
	}

	if cfg.Verbose {
		printer.PrintIssues(result)
	}
	printer.PrintSummary(result)

	if validateFlags.strict && result.OverallStatus == types.StatusFailed {
		return fmt.Errorf("validation failed with score %.2f", result.OverallScore)
	}
	return nil
}

// persist stores one result when a database is configured.
func persist(ctx context.Context, databaseURL string, input db.RunInput, result *types.PipelineResult) error {
	store, err := openStore(ctx, databaseURL)
	if err != nil {
		return err
	}
	if store == nil {
		return nil
	}
	defer store.Close()

	_, err = store.SaveResult(ctx, input, result)
	return err
}
