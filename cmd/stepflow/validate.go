package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [task]",
	Short: "Check a task definition for consistency",
	Long: `Loads the task and reports every definition problem: unknown step types,
duplicate identifiers, skip targets that do not exist, bad rule names and
answers that do not match their field type.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		flow, err := openFlow(cmd.Context(), cmd, args, logger)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		task := flow.Task()
		fmt.Fprintf(cmd.OutOrStdout(), "Task %q is valid (%d steps)\n", task.ID, len(flow.Steps()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
