package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pendergraft/deployforge/internal/config"
	"github.com/pendergraft/deployforge/internal/dispatch"
	"github.com/pendergraft/deployforge/internal/observability/metrics"
	"github.com/pendergraft/deployforge/internal/storage"
)

func createRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <task> [args...]",
		Short: "Run a task",
		Long: `Run a registered task. Everything after the task name is passed to the
task unchanged.

EXAMPLES:
  # Print the deployer accounts of the default network
  deployforge run accounts

  # Compile with the project's compiler settings
  deployforge run compile

  # Verify a deployed contract on polygon
  deployforge run --network polygon verify src/Token.sol:Token 0x5FbDB2315678afecb367f032d93F642f64180aa3
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd, args[0], args[1:])
		},
	}
	// Flags after the task name belong to the task.
	cmd.Flags().SetInterspersed(false)

	return cmd
}

func runTask(cmd *cobra.Command, task string, args []string) error {
	ctx := cmd.Context()

	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	cfg, err := env.assemble()
	if err != nil {
		return err
	}
	registry, err := env.registry()
	if err != nil {
		return err
	}

	metrics.Init(env.settings.Metrics.Enabled, "deployforge")

	opts := []dispatch.Option{
		dispatch.WithLogger(env.logger),
		dispatch.WithOutput(cmd.OutOrStdout()),
		dispatch.WithProjectDir(projectDir),
		dispatch.WithMetrics(env.settings.Metrics.Enabled),
	}
	store := openHistory(ctx, env.settings.History, env.logger)
	if store != nil {
		defer store.Close()
		opts = append(opts, dispatch.WithRecorder(store))
	}

	d := dispatch.New(cfg, registry, nil, opts...)
	outcome, err := d.Dispatch(ctx, dispatch.Request{Task: task, Args: args, Network: networkFlag})

	if werr := metrics.WriteTextfile(env.settings.Metrics.TextFile); werr != nil {
		env.logger.Warn("writing metrics", "error", werr)
	}
	if err != nil {
		return err
	}

	env.logger.Info("task completed", "task", outcome.Task, "network", outcome.Network, "duration", outcome.Duration)
	return nil
}

// openHistory opens the run history store. History is optional: failures are
// logged and the task runs without it.
func openHistory(ctx context.Context, cfg config.HistoryConfig, logger *slog.Logger) storage.Store {
	if cfg.Type == "sqlite" {
		cfg.SQLite.Path = resolvePath(cfg.SQLite.Path)
	}
	store, err := storage.New(cfg, logger)
	if err != nil {
		logger.Warn("run history disabled", "error", err)
		return nil
	}
	if store == nil {
		return nil
	}
	if err := store.Migrate(ctx); err != nil {
		logger.Warn("run history disabled", "error", fmt.Errorf("running migrations: %w", err))
		store.Close()
		return nil
	}
	return store
}
