package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/brdocs/internal/validation"
)

var stagesCommand = &cobra.Command{
	Use:   "stages",
	Short: "List the stages of a validation level and what they check",
	RunE:  runStagesCmd,
}

var stagesLevel string

func init() {
	stagesCommand.Flags().StringVarP(&stagesLevel, "level", "l", string(validation.LevelComprehensive), "Validation level: quick, standard or comprehensive")
	rootCmd.AddCommand(stagesCommand)
}

func runStagesCmd(cmd *cobra.Command, _ []string) error {
	stages, err := validation.StagesForLevel(stagesLevel, validation.Dependencies{})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for i, stage := range stages {
		_, _ = fmt.Fprintf(out, "%d. %s\n", i+1, stage.Name())
		for _, criterion := range stage.Criteria() {
			_, _ = fmt.Fprintf(out, "   - %s\n", criterion)
		}
	}
	return nil
}
