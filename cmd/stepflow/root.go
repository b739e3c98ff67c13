package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aretw0/stepflow"
	"github.com/aretw0/stepflow/internal/cli"
	"github.com/aretw0/stepflow/internal/logging"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stepflow",
	Short: "Stepflow runs step-by-step tasks and surveys",
	Long: `Stepflow loads a task from a YAML/JSON file or a directory of Markdown step
documents and navigates it: in the terminal, over HTTP or as MCP tools.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("task", ".", "Task file (YAML/JSON) or directory of step documents")
	flags.String("log-level", "warn", "Log level: debug, info, warn or error")

	flags.String("store", cli.StoreFile, "Task result store: memory, file or redis")
	flags.String("store-dir", ".stepflow/runs", "Directory of the file store")
	flags.String("redis-addr", "localhost:6379", "Redis address")
	flags.String("redis-password", "", "Redis password")
	flags.Int("redis-db", 0, "Redis database")
	flags.Duration("run-ttl", 0, "Expiry of stored runs (redis only, 0 keeps them)")
	flags.String("encryption-key", "", "32-byte AES key (hex or base64) encrypting stored runs; defaults to $STEPFLOW_ENCRYPTION_KEY")
	flags.StringSlice("redact", nil, "Answer identifier patterns masked before storing")
}

// newLogger builds the command logger from --log-level.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	raw, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(raw)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}

// taskPath returns --task, or the first argument when the flag is not set.
func taskPath(cmd *cobra.Command, args []string) string {
	path, _ := cmd.Flags().GetString("task")
	if !cmd.Flags().Changed("task") && len(args) > 0 {
		path = args[0]
	}
	return path
}

func openFlow(ctx context.Context, cmd *cobra.Command, args []string, logger *slog.Logger, opts ...stepflow.Option) (*stepflow.Flow, error) {
	path := taskPath(cmd, args)
	opts = append([]stepflow.Option{stepflow.WithLogger(logger)}, opts...)
	flow, err := stepflow.Open(ctx, path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load task from %s: %w", path, err)
	}
	return flow, nil
}

func openPersistence(cmd *cobra.Command, logger *slog.Logger) (*cli.Persistence, error) {
	f := cmd.Flags()
	opts := cli.StoreOptions{}
	opts.Kind, _ = f.GetString("store")
	opts.Dir, _ = f.GetString("store-dir")
	opts.RedisAddr, _ = f.GetString("redis-addr")
	opts.RedisPassword, _ = f.GetString("redis-password")
	opts.RedisDB, _ = f.GetInt("redis-db")
	opts.TTL, _ = f.GetDuration("run-ttl")
	opts.EncryptionKey, _ = f.GetString("encryption-key")
	if opts.EncryptionKey == "" {
		opts.EncryptionKey = strings.TrimSpace(os.Getenv("STEPFLOW_ENCRYPTION_KEY"))
	}
	opts.Redact, _ = f.GetStringSlice("redact")
	return cli.OpenPersistence(opts, logger)
}

// watchAndReload reloads flow whenever its source changes, until ctx ends.
// A task that fails to load keeps the previous version active.
func watchAndReload(ctx context.Context, flow *stepflow.Flow, logger *slog.Logger) error {
	changes, err := flow.Watch(ctx)
	if err != nil {
		return err
	}
	go func() {
		for range changes {
			reloadCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if err := flow.Reload(reloadCtx); err != nil {
				logger.Error("reload failed, keeping previous task", "err", err)
			} else {
				logger.Info("task reloaded", "task", flow.Task().ID)
			}
			cancel()
		}
	}()
	return nil
}
