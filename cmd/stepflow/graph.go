package main

import (
	"fmt"

	"github.com/aretw0/stepflow/internal/cli"
	"github.com/aretw0/stepflow/internal/presentation/graph"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [task]",
	Short: "Export the task as a Mermaid diagram",
	Long: `Outputs a Mermaid flowchart of the task: sections as subgraphs, the
structural order as solid edges and answer-based skips as dotted edges.
With --run, the steps visited by that run and its current step are highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		flow, err := openFlow(ctx, cmd, args, logger)
		if err != nil {
			return err
		}

		var overlay *graph.Overlay
		if runID, _ := cmd.Flags().GetString("run"); runID != "" {
			p, err := openPersistence(cmd, logger)
			if err != nil {
				return err
			}
			defer p.Close()

			tr, err := p.Sessions.Load(ctx, runID)
			if err != nil {
				return fmt.Errorf("failed to load run %s: %w", runID, err)
			}
			current := ""
			step, err := cli.ResumePoint(flow, tr)
			if err != nil {
				return err
			}
			if step != nil {
				current = step.Identifier()
			}
			overlay = graph.OverlayFor(tr, current)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(flow.Task(), overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("run", "", "Highlight the progress of this stored run")
}
