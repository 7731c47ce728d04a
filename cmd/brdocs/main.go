// Package main provides the brdocs command line tool that validates and corrects B+R project documentation.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "brdocs",
	Short: "B+R documentation validator",
	Long: `brdocs checks generated B+R (R&D tax relief) project documentation in four stages: structure,
content, legal compliance and financial consistency. Correctable issues can be fixed by an LLM in a
bounded validate/correct loop.`,
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
