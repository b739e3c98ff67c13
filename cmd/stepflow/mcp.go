package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/stepflow/internal/cli"
	"github.com/aretw0/stepflow/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp [task]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the task as MCP tools so agents can walk it: list_steps, get_step,
next_step, previous_step and progress. The task definition is also published
as the stepflow://task resource.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		addr, _ := cmd.Flags().GetString("addr")
		baseURL, _ := cmd.Flags().GetString("base-url")
		watch, _ := cmd.Flags().GetBool("watch")

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		flow, err := openFlow(sc, cmd, args, logger)
		if err != nil {
			return err
		}
		if watch {
			if err := watchAndReload(sc, flow, logger); err != nil {
				return err
			}
		}

		srv := mcp.NewServer(flow, mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			// Logs go to stderr so they never corrupt JSON-RPC on stdout.
			logger.Info("starting mcp server (stdio)", "task", flow.Task().ID)
			return srv.ServeStdio()
		case "sse":
			if baseURL == "" {
				baseURL = "http://localhost" + addr
			}
			err := srv.ServeSSE(sc, addr, baseURL)
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("mcp server stopped")
			return nil
		default:
			return fmt.Errorf("unknown transport %q (want stdio or sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().String("addr", ":8081", "Address to listen on (only for SSE)")
	mcpCmd.Flags().String("base-url", "", "Public base URL of the SSE endpoint (only for SSE)")
	mcpCmd.Flags().BoolP("watch", "w", false, "Reload the task when its source changes")
}
