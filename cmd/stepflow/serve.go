package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/internal/cli"
	httpAdapter "github.com/aretw0/stepflow/pkg/adapters/http"
	"github.com/aretw0/stepflow/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [task]",
	Short: "Start the HTTP server",
	Long: `Serves the task over a JSON API: stateless navigation endpoints, stored
runs, server-sent events and Prometheus metrics on /metrics.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		addr, _ := cmd.Flags().GetString("addr")
		watch, _ := cmd.Flags().GetBool("watch")
		withMetrics, _ := cmd.Flags().GetBool("metrics")

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		hooks := observability.LogHooks(logger)
		reg := prometheus.NewRegistry()
		if withMetrics {
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			m, err := observability.NewMetrics(reg)
			if err != nil {
				return err
			}
			hooks = observability.Combine(hooks, m.Hooks())
		}

		flow, err := openFlow(sc, cmd, args, logger, stepflow.WithLifecycleHooks(hooks))
		if err != nil {
			return err
		}
		if watch {
			if err := watchAndReload(sc, flow, logger); err != nil {
				return err
			}
		}

		p, err := openPersistence(cmd, logger)
		if err != nil {
			return err
		}
		defer p.Close()

		opts := []httpAdapter.Option{
			httpAdapter.WithSessions(p.Sessions),
			httpAdapter.WithLogger(logger),
		}
		if withMetrics {
			opts = append(opts, httpAdapter.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           httpAdapter.NewHandler(flow, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("http server listening", "address", addr, "task", flow.Task().ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Serving task %q on %s\n", flow.Task().ID, addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)
		case <-sc.Done():
			logger.Info("shutting down", "signal", sc.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", "err", err)
				return srv.Close()
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload the task when its source changes")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")
}
