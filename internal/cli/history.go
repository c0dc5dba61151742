package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pendergraft/deployforge/internal/storage"
)

func createHistoryCmd() *cobra.Command {
	var filter storage.RunFilter
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recent task runs",
		Long: `Show recent task runs recorded in the run history store.

The store is SQLite at .deployforge/history.db by default; set DATABASE_URL to
use Postgres or DEPLOYFORGE_HISTORY=none to disable recording.

EXAMPLES:
  deployforge history
  deployforge history --task verify --state failed
  deployforge history --network polygon

  # Show one run; the short ID from the table is enough
  deployforge history 3f2a9c1e
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runHistoryShow(cmd, args[0])
			}
			return runHistory(cmd, filter, limit)
		},
	}

	cmd.Flags().StringVar(&filter.Task, "task", "", "only runs of this task")
	cmd.Flags().StringVar(&filter.State, "state", "", "only runs in this state (completed, failed)")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs")

	return cmd
}

// openHistoryStore opens the configured store; unlike run, history needs it.
func openHistoryStore(cmd *cobra.Command) (storage.Store, error) {
	settings, logger, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}

	cfg := settings.History
	if cfg.Type == "sqlite" {
		cfg.SQLite.Path = resolvePath(cfg.SQLite.Path)
	}
	store, err := storage.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	if store == nil {
		return nil, errors.New("run history is disabled (DEPLOYFORGE_HISTORY=none)")
	}
	if err := store.Migrate(cmd.Context()); err != nil {
		store.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return store, nil
}

func runHistory(cmd *cobra.Command, filter storage.RunFilter, limit int) error {
	filter.Network = networkFlag

	store, err := openHistoryStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := store.ListRuns(cmd.Context(), filter, storage.PaginationParams{Limit: limit})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(result.Data) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTARTED\tTASK\tNETWORK\tSTATE\tDURATION\tERROR")
	for _, r := range result.Data {
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		network := r.Network
		if network == "" {
			network = "-"
		}
		errKind := r.ErrorKind
		if errKind == "" {
			errKind = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			id,
			r.StartedAt.Local().Format(time.DateTime),
			r.Task,
			network,
			r.State,
			(time.Duration(r.DurationMS) * time.Millisecond).String(),
			errKind,
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if result.HasMore {
		fmt.Fprintf(out, "\n(showing the latest %d runs; use --limit for more)\n", len(result.Data))
	}
	return nil
}

// resolveRunID expands a short ID prefix against recent runs.
func resolveRunID(ctx context.Context, store storage.Store, id string) (string, error) {
	if len(id) >= 36 {
		return id, nil
	}
	recent, err := store.ListRuns(ctx, storage.RunFilter{}, storage.PaginationParams{Limit: 100})
	if err != nil {
		return "", err
	}
	var match string
	for _, r := range recent.Data {
		if !strings.HasPrefix(r.ID, id) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("run id %q is ambiguous", id)
		}
		match = r.ID
	}
	if match == "" {
		return "", fmt.Errorf("run %q: %w", id, storage.ErrNotFound)
	}
	return match, nil
}

func runHistoryShow(cmd *cobra.Command, id string) error {
	store, err := openHistoryStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	fullID, err := resolveRunID(cmd.Context(), store, id)
	if err != nil {
		return err
	}
	run, err := store.GetRun(cmd.Context(), fullID)
	if err != nil {
		return fmt.Errorf("run %q: %w", id, err)
	}

	out := cmd.OutOrStdout()
	network := run.Network
	if network == "" {
		network = "-"
	}
	fmt.Fprintf(out, "ID:       %s\n", run.ID)
	fmt.Fprintf(out, "Task:     %s\n", run.Task)
	fmt.Fprintf(out, "Args:     %s\n", strings.Join(run.Args, " "))
	fmt.Fprintf(out, "Network:  %s\n", network)
	fmt.Fprintf(out, "State:    %s\n", run.State)
	fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format(time.DateTime))
	fmt.Fprintf(out, "Duration: %s\n", time.Duration(run.DurationMS)*time.Millisecond)
	if run.ErrorKind != "" {
		fmt.Fprintf(out, "Error:    [%s] %s\n", run.ErrorKind, run.Error)
	}
	return nil
}
