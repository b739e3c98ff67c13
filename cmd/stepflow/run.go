package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/internal/cli"
	"github.com/aretw0/stepflow/internal/presentation/tui"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [task]",
	Short: "Run a task interactively in the terminal",
	Long: `Walks through the task one step at a time. Every answered step is stored,
so a run started with --run-id can be resumed later with the same ID.
Type 'back' to return to the previous step and 'quit' to stop.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		flow, err := openFlow(sc, cmd, args, logger)
		if err != nil {
			return err
		}
		p, err := openPersistence(cmd, logger)
		if err != nil {
			return err
		}
		defer p.Close()

		plain, _ := cmd.Flags().GetBool("plain")
		out := cmd.OutOrStdout()
		interactive := isTerminal(os.Stdin) && isTerminal(os.Stdout)

		var opts []tui.Option
		if plain || !interactive {
			opts = append(opts, tui.WithPlain())
		} else if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 20 {
			opts = append(opts, tui.WithWordWrap(min(width-4, 100)))
		}
		view, err := tui.NewRenderer(out, opts...)
		if err != nil {
			return err
		}
		if interactive && !plain {
			tui.PrintBanner(out, strings.TrimSpace(stepflow.Version))
		}

		runID, _ := cmd.Flags().GetString("run-id")
		if runID == "" {
			runID = uuid.NewString()
		}

		it := cli.NewInteractive(flow, p.Sessions, view, cmd.InOrStdin(), cli.WithLogger(logger))
		_, err = it.Run(sc, runID)
		switch {
		case errors.Is(err, cli.ErrQuit), sc.Signal() != nil:
			fmt.Fprintf(out, "\nRun saved. Resume with: stepflow run --run-id %s\n", runID)
			return nil
		case err != nil:
			return err
		}
		logger.Info("run finished", "run", runID, "task", flow.Task().ID)
		return nil
	},
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("run-id", "", "Run to start or resume (a new ID is generated when empty)")
	runCmd.Flags().Bool("plain", false, "Disable colors and markdown rendering")
}
