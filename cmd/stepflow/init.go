package main

import (
	"fmt"
	"path/filepath"

	"github.com/aretw0/loam"
	"github.com/aretw0/stepflow/internal/cli"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a sample task as a directory of step documents",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "survey"
		if len(args) > 0 {
			dir = args[0]
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}

		repo, err := loam.Init(abs, loam.WithVersioning(false))
		if err != nil {
			return fmt.Errorf("failed to initialize loam: %w", err)
		}
		if err := cli.Scaffold(cmd.Context(), repo); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Sample task written to %s\n", abs)
		fmt.Fprintf(out, "Try: stepflow run %s\n", dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
