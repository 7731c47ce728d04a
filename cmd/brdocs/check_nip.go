package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/brdocs/internal/observability"
	"github.com/jonathan/brdocs/internal/validation"
)

var checkNIPCommand = &cobra.Command{
	Use:   "check-nip NIP [NIP...]",
	Short: "Check the checksum of Polish tax identifiers (NIP)",
	Long:  "Accepts identifiers with or without separators (123-456-78-54, 123 456 78 54, PL1234567854).",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheckNIPCmd,
}

func init() {
	rootCmd.AddCommand(checkNIPCommand)
}

func runCheckNIPCmd(cmd *cobra.Command, args []string) error {
	printer := observability.NewPrinter(cmd.OutOrStdout())
	invalid := 0
	for _, raw := range args {
		valid := validation.ValidNIP(raw)
		if !valid {
			invalid++
		}
		printer.PrintNIPCheck(raw, valid)
	}
	if invalid > 0 {
		return fmt.Errorf("%d of %d identifiers are invalid", invalid, len(args))
	}
	return nil
}
