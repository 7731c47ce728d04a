package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/brdocs/internal/config"
	"github.com/jonathan/brdocs/internal/db"
	"github.com/jonathan/brdocs/internal/llm"
	"github.com/jonathan/brdocs/internal/pipeline"
	"github.com/jonathan/brdocs/internal/schemas"
	"github.com/jonathan/brdocs/internal/types"
	"github.com/jonathan/brdocs/internal/validation"
)

// runFlags are the flags shared by validate and batch.
type runFlags struct {
	configPath    string
	level         string
	maxIterations int
	provider      string
	apiKey        string
	databaseURL   string
	outDir        string
	noCorrect     bool
	noLLMChecks   bool
	verbose       bool
	strict        bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	// Config file flag (processed first)
	cmd.Flags().StringVar(&f.configPath, "config", "", "Path to a JSON or YAML config file (values can be overridden by other flags)")

	cmd.Flags().StringVarP(&f.level, "level", "l", "", "Validation level: quick, standard or comprehensive")
	cmd.Flags().IntVar(&f.maxIterations, "max-iterations", 0, "Validate/correct attempts per stage")
	cmd.Flags().StringVar(&f.provider, "provider", "", "LLM provider: gemini, openai or anthropic")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "LLM API key (optional, defaults to the provider's environment variable)")
	cmd.Flags().StringVar(&f.databaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	cmd.Flags().StringVarP(&f.outDir, "out", "o", "", "Directory for the result JSON and the final document")
	cmd.Flags().BoolVar(&f.noCorrect, "no-correct", false, "Report issues without asking the LLM to correct them")
	cmd.Flags().BoolVar(&f.noLLMChecks, "no-llm-checks", false, "Skip the delegated quality checks of the comprehensive level")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Print every stage attempt and all issues")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "Exit with an error when the overall status is FAILED")
}

// resolveConfig loads the config file and applies flag overrides and environment defaults.
func (f *runFlags) resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg config.Config
	if f.configPath != "" {
		loaded, err := config.LoadConfig(f.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("level") {
		cfg.Level = f.level
	}
	if cmd.Flags().Changed("max-iterations") {
		cfg.MaxIterations = f.maxIterations
	}
	if cmd.Flags().Changed("provider") {
		cfg.Provider = f.provider
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = f.apiKey
	}
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = f.databaseURL
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if f.noCorrect {
		disabled := false
		cfg.AutoCorrect = &disabled
	}
	if f.noLLMChecks {
		disabled := false
		cfg.LLMChecks = &disabled
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	defaults := config.Config{
		Level:       string(validation.LevelStandard),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}
	if provider, err := llm.ParseProvider(cfg.Provider); err == nil {
		defaults.APIKey = os.Getenv(provider.APIKeyEnv())
	}
	merged := cfg.MergeWithDefaults(defaults)
	return &merged, nil
}

// capabilities are the LLM-backed collaborators of a run. Nil fields disable the feature.
type capabilities struct {
	assessor llm.QualityAssessor
	improver llm.TextImprover
	client   llm.Client
}

func (c *capabilities) Close() {
	if c.client != nil {
		_ = c.client.Close()
	}
}

// buildCapabilities creates the LLM client when the level or auto-correction needs one.
// Without an API key corrections are disabled; the comprehensive level requires a key.
func buildCapabilities(ctx context.Context, cfg *config.Config, level validation.Level) (*capabilities, error) {
	caps := &capabilities{}
	wantChecks := level == validation.LevelComprehensive && cfg.LLMChecksEnabled()
	wantCorrect := cfg.AutoCorrectEnabled()
	if !wantChecks && !wantCorrect {
		return caps, nil
	}

	llmCfg, err := cfg.LLMConfig()
	if err != nil {
		return nil, err
	}
	if cfg.APIKey == "" {
		if wantChecks {
			return nil, fmt.Errorf("%s environment variable or --api-key flag is required for the %s level",
				llmCfg.Provider.APIKeyEnv(), level)
		}
		log.Printf("[brdocs] no %s set, corrections disabled", llmCfg.Provider.APIKeyEnv())
		return caps, nil
	}

	client, err := llm.NewClient(ctx, llmCfg, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	assistant := llm.NewAssistant(client)
	caps.client = client
	if wantChecks {
		caps.assessor = assistant
	}
	if wantCorrect {
		caps.improver = assistant
	}
	return caps, nil
}

// newOrchestrator builds the orchestrator for a level or, when stage is set, a single stage.
func newOrchestrator(cfg *config.Config, stage string, caps *capabilities, onProgress pipeline.ProgressCallback) (*pipeline.Orchestrator, error) {
	opts := pipeline.Options{
		MaxIterations: cfg.MaxIterations,
		Policy:        cfg.ValidationPolicy(),
		OnProgress:    onProgress,
	}
	if stage != "" {
		return pipeline.NewForStage(stage, caps.assessor, caps.improver, opts)
	}
	return pipeline.NewForLevel(cfg.Level, caps.assessor, caps.improver, opts)
}

// writeOutputs stores the result JSON and the final document under dir using the given base name.
func writeOutputs(dir, name string, result *types.PipelineResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".json"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".md"), []byte(result.FinalDocument), 0o644); err != nil {
		return fmt.Errorf("failed to write final document: %w", err)
	}
	return nil
}

// checkResult guards the output contract before the result leaves the process.
func checkResult(result *types.PipelineResult) error {
	if err := schemas.ValidatePipelineResult(result); err != nil {
		return fmt.Errorf("pipeline result does not match its schema: %w", err)
	}
	return nil
}

// openStore connects to the database and applies migrations; an empty URL disables persistence.
func openStore(ctx context.Context, databaseURL string) (*db.DB, error) {
	if databaseURL == "" {
		return nil, nil
	}
	store, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
