package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/brdocs/internal/schemas"
	embedded "github.com/jonathan/brdocs/schemas"
)

var checkSchemaCommand = &cobra.Command{
	Use:   "check-schema FILE [FILE...]",
	Short: "Check JSON files against the result or project record schema",
	Long: `Validates saved run results or project records against the bundled JSON Schemas.
Use --schema to validate against a schema file on disk instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheckSchemaCmd,
}

var (
	checkSchemaKind string
	checkSchemaPath string
)

// schemaKinds maps --kind values to the bundled schema files.
var schemaKinds = map[string]string{
	"result":  embedded.PipelineResult,
	"project": embedded.ProjectRecord,
}

func init() {
	checkSchemaCommand.Flags().StringVar(&checkSchemaKind, "kind", "result", "Bundled schema to use: result or project")
	checkSchemaCommand.Flags().StringVar(&checkSchemaPath, "schema", "", "Path to a JSON Schema file (overrides --kind)")
	rootCmd.AddCommand(checkSchemaCommand)
}

func runCheckSchemaCmd(cmd *cobra.Command, args []string) error {
	schemaName, ok := schemaKinds[checkSchemaKind]
	if !ok && checkSchemaPath == "" {
		return fmt.Errorf("unknown schema kind %q (want result or project)", checkSchemaKind)
	}

	failed := 0
	for _, path := range args {
		if err := checkSchemaFile(schemaName, path); err != nil {
			failed++
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: %v\n", path, err)
			continue
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s\n", path)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files do not match the schema", failed, len(args))
	}
	return nil
}

func checkSchemaFile(schemaName, path string) error {
	if checkSchemaPath != "" {
		return schemas.ValidateJSON(checkSchemaPath, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return schemas.ValidateEmbedded(schemaName, data)
}
