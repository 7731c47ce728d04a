package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/brdocs/internal/db"
	"github.com/jonathan/brdocs/internal/observability"
	"github.com/jonathan/brdocs/internal/validation"
)

var errNoDatabase = errors.New("no database configured: pass --db-url or set DATABASE_URL")

var runsCommand = &cobra.Command{
	Use:   "runs",
	Short: "Inspect validation runs stored in the database",
}

var runsListCommand = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRunsListCmd,
}

var runsShowCommand = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Show a stored run with its stage attempts",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShowCmd,
}

var runsDeleteCommand = &cobra.Command{
	Use:   "delete RUN_ID",
	Short: "Delete a stored run with its stage results and artifacts",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDeleteCmd,
}

var (
	runsDatabaseURL string
	runsNIP         string
	runsStatus      string
	runsLevel       string
	runsLimit       int
	runsDocument    bool
	runsJSON        bool
)

func init() {
	runsCommand.PersistentFlags().StringVar(&runsDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")

	runsListCommand.Flags().StringVar(&runsNIP, "nip", "", "Only runs for this company NIP")
	runsListCommand.Flags().StringVar(&runsStatus, "status", "", "Only runs with this overall status: passed, warning or failed")
	runsListCommand.Flags().StringVarP(&runsLevel, "level", "l", "", "Only runs of this validation level")
	runsListCommand.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs")

	runsShowCommand.Flags().BoolVar(&runsDocument, "document", false, "Print the final document instead of the summary")
	runsShowCommand.Flags().BoolVar(&runsJSON, "json", false, "Print the stored result JSON instead of the summary")

	runsCommand.AddCommand(runsListCommand, runsShowCommand, runsDeleteCommand)
	rootCmd.AddCommand(runsCommand)
}

// runFiltersFromFlags validates the list flags and converts them to store filters.
func runFiltersFromFlags() (db.RunFilters, error) {
	filters := db.RunFilters{Limit: runsLimit}
	if runsNIP != "" {
		nip := validation.NormalizeNIP(runsNIP)
		if !validation.ValidNIP(nip) {
			return filters, fmt.Errorf("invalid NIP %q", runsNIP)
		}
		filters.CompanyNIP = nip
	}
	if runsStatus != "" {
		switch status := strings.ToUpper(runsStatus); status {
		case "PASSED", "WARNING", "FAILED":
			filters.Status = status
		default:
			return filters, fmt.Errorf("unknown status %q (want passed, warning or failed)", runsStatus)
		}
	}
	if runsLevel != "" {
		level, err := validation.ParseLevel(runsLevel)
		if err != nil {
			return filters, err
		}
		filters.Level = string(level)
	}
	return filters, nil
}

func parseRunArg(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid run id %q: %w", raw, err)
	}
	return id, nil
}

// connectRuns opens the run store; unlike validate, the runs commands cannot work without one.
func connectRuns(ctx context.Context) (*db.DB, error) {
	url := runsDatabaseURL
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		return nil, errNoDatabase
	}
	return openStore(ctx, url)
}

func runRunsListCmd(cmd *cobra.Command, _ []string) error {
	filters, err := runFiltersFromFlags()
	if err != nil {
		return err
	}
	store, err := connectRuns(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRunsFiltered(cmd.Context(), filters)
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.OutOrStdout()).PrintRunList(runs)
	return nil
}

func runRunsShowCmd(cmd *cobra.Command, args []string) error {
	if runsDocument && runsJSON {
		return errors.New("--document and --json are mutually exclusive")
	}
	runID, err := parseRunArg(args[0])
	if err != nil {
		return err
	}
	store, err := connectRuns(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	run, err := store.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run not found: %s", runID)
	}

	out := cmd.OutOrStdout()
	switch {
	case runsDocument:
		doc, err := store.GetTextArtifact(ctx, runID, db.ArtifactFinalDocument)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, doc)
	case runsJSON:
		data, err := store.GetArtifact(ctx, runID, db.ArtifactPipelineResult)
		if err != nil {
			return err
		}
		if data == nil {
			return fmt.Errorf("run %s has no stored result", runID)
		}
		_, _ = fmt.Fprintln(out, string(data))
	default:
		stages, err := store.ListStageResults(ctx, runID)
		if err != nil {
			return err
		}
		observability.NewPrinter(out).PrintRun(run, stages)
	}
	return nil
}

func runRunsDeleteCmd(cmd *cobra.Command, args []string) error {
	runID, err := parseRunArg(args[0])
	if err != nil {
		return err
	}
	store, err := connectRuns(cmd.Context())
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteRun(cmd.Context(), runID); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", runID)
	return nil
}
