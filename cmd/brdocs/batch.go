package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jonathan/brdocs/internal/db"
	"github.com/jonathan/brdocs/internal/ingestion"
	"github.com/jonathan/brdocs/internal/observability"
	"github.com/jonathan/brdocs/internal/pipeline"
	"github.com/jonathan/brdocs/internal/types"
	"github.com/jonathan/brdocs/internal/validation"
)

var batchCommand = &cobra.Command{
	Use:   "batch",
	Short: "Validate several documents concurrently from a YAML manifest",
	Long: `Reads a manifest listing document/project pairs and validates them concurrently. Every run is
independent; results are written per entry name when --out is given.

Manifest format:

  concurrency: 4
  jobs:
    - name: acme-2024
      document: acme/dokumentacja.md
      project: acme/projekt.yaml

Relative paths are resolved against the manifest directory.`,
	RunE: runBatchCmd,
}

var (
	batchManifest string
	batchFlags    runFlags
)

func init() {
	batchCommand.Flags().StringVarP(&batchManifest, "manifest", "m", "", "Path to the YAML manifest (required)")
	batchFlags.register(batchCommand)

	_ = batchCommand.MarkFlagRequired("manifest")

	rootCmd.AddCommand(batchCommand)
}

// Manifest lists the runs of a batch.
type Manifest struct {
	Concurrency int             `yaml:"concurrency"`
	Jobs        []ManifestEntry `yaml:"jobs"`
}

// ManifestEntry is one document/project pair.
type ManifestEntry struct {
	Name     string `yaml:"name"`
	Document string `yaml:"document"`
	Project  string `yaml:"project"`
}

// loadManifest reads a manifest and resolves its paths against the manifest directory.
func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if len(m.Jobs) == 0 {
		return nil, fmt.Errorf("manifest %s lists no jobs", path)
	}

	base := filepath.Dir(path)
	seen := make(map[string]bool, len(m.Jobs))
	for i := range m.Jobs {
		entry := &m.Jobs[i]
		if entry.Document == "" || entry.Project == "" {
			return nil, fmt.Errorf("manifest job %d: document and project are required", i+1)
		}
		if entry.Name == "" {
			entry.Name = fmt.Sprintf("job-%d", i+1)
		}
		if seen[entry.Name] {
			return nil, fmt.Errorf("manifest job %d: duplicate name %q", i+1, entry.Name)
		}
		seen[entry.Name] = true
		if !filepath.IsAbs(entry.Document) {
			entry.Document = filepath.Join(base, entry.Document)
		}
		if !filepath.IsAbs(entry.Project) {
			entry.Project = filepath.Join(base, entry.Project)
		}
	}
	return &m, nil
}

func runBatchCmd(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	cfg, err := batchFlags.resolveConfig(cmd)
	if err != nil {
		return err
	}
	level, err := validation.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	manifest, err := loadManifest(batchManifest)
	if err != nil {
		return err
	}

	// Inputs are loaded up front so a bad entry fails the batch before any LLM call.
	jobs := make([]pipeline.Job, 0, len(manifest.Jobs))
	inputs := make(map[string]db.RunInput, len(manifest.Jobs))
	for _, entry := range manifest.Jobs {
		document, meta, err := ingestion.LoadDocument(entry.Document)
		if err != nil {
			return fmt.Errorf("%s: %w", entry.Name, err)
		}
		record, err := ingestion.LoadProjectRecord(entry.Project)
		if err != nil {
			return fmt.Errorf("%s: %w", entry.Name, err)
		}
		jobs = append(jobs, pipeline.Job{Name: entry.Name, Project: record, Document: document})
		inputs[entry.Name] = db.NewRunInput(meta.Path, meta.Hash, record)
	}

	caps, err := buildCapabilities(ctx, cfg, level)
	if err != nil {
		return err
	}
	defer caps.Close()

	orchestrator, err := newOrchestrator(cfg, "", caps, nil)
	if err != nil {
		return err
	}

	results, err := orchestrator.RunBatch(ctx, jobs, manifest.Concurrency)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	printer := observability.NewPrinter(cmd.OutOrStdout())
	failed := 0
	out := cmd.OutOrStdout()
	for _, r := range results {
		if err := checkResult(r.Result); err != nil {
			return fmt.Errorf("%s: %w", r.Name, err)
		}
		if batchFlags.outDir != "" {
			if err := writeOutputs(batchFlags.outDir, r.Name, r.Result); err != nil {
				return err
			}
		}
		if store != nil {
			if _, err := store.SaveResult(ctx, inputs[r.Name], r.Result); err != nil {
				return fmt.Errorf("%s: %w", r.Name, err)
			}
		}
		if r.Result.OverallStatus == types.StatusFailed {
			failed++
		}
		if cfg.Verbose {
			printer.PrintSummary(r.Result)
		}
		_, _ = fmt.Fprintf(out, "%-24s %-7s %.2f\n", r.Name, r.Result.OverallStatus, r.Result.OverallScore)
	}
	_, _ = fmt.Fprintf(out, "%d documents, %d failed\n", len(results), failed)

	if batchFlags.strict && failed > 0 {
		return fmt.Errorf("%d of %d documents failed validation", failed, len(results))
	}
	return nil
}
