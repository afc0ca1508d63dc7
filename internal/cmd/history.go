package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/harrison/textdump/internal/history"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the 'textdump history' command and its subcommands
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded dump runs",
		Long: `List dumps recorded with --history (or history.enabled in the config file),
most recent first.

Examples:
  textdump history               # Last 20 runs
  textdump history --limit 0     # Every run
  textdump history show 3f2b8c1e # One run with its unreadable files
  textdump history prune --days 30`,
		Args: cobra.NoArgs,
		RunE: runHistoryList,
	}

	cmd.PersistentFlags().String("db-path", "", "Path to the history database (default: ~/.textdump/history.db)")
	cmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 = all)")

	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryPruneCommand())

	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one recorded run",
		Long:  `Show a recorded run, including every file that could not be read. The run ID may be abbreviated to any unique prefix.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	}
}

func newHistoryPruneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryPrune,
	}
	cmd.Flags().Int("days", 30, "Delete runs older than this many days")
	return cmd
}

// openHistory opens the history database. It returns a nil store, without
// error, when the database has never been created.
func openHistory(cmd *cobra.Command) (*history.Store, string, error) {
	dbPath, _ := cmd.Flags().GetString("db-path")
	if dbPath == "" {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return nil, "", err
		}
		dbPath, err = cfg.GetHistoryDBPath()
		if err != nil {
			return nil, "", fmt.Errorf("failed to get history database path: %w", err)
		}
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, dbPath, nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return nil, dbPath, fmt.Errorf("open history store: %w", err)
	}
	return store, dbPath, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	output := cmd.OutOrStdout()
	limit, _ := cmd.Flags().GetInt("limit")

	store, dbPath, err := openHistory(cmd)
	if err != nil {
		return err
	}
	if store == nil {
		fmt.Fprintf(output, "No runs recorded.\n")
		fmt.Fprintf(output, "Database path: %s\n", dbPath)
		return nil
	}
	defer store.Close()

	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Fprintf(output, "No runs recorded.\n")
		return nil
	}

	printRuns(output, runs)
	return nil
}

func printRuns(w io.Writer, runs []*history.Run) {
	red := color.New(color.FgRed)

	fmt.Fprintf(w, "%-8s  %-19s  %8s  %6s  %10s  %s\n", "RUN", "STARTED", "INCLUDED", "FAILED", "BYTES", "OUTPUT")
	for _, run := range runs {
		failed := fmt.Sprintf("%6d", run.Failed)
		if run.Failed > 0 {
			failed = red.Sprint(failed)
		}
		fmt.Fprintf(w, "%-8s  %-19s  %8d  %s  %10d  %s\n",
			shortID(run.ID),
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			run.Included,
			failed,
			run.Bytes,
			run.OutputPath,
		)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	output := cmd.OutOrStdout()

	store, dbPath, err := openHistory(cmd)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("no history database at %s", dbPath)
	}
	defer store.Close()

	run, err := store.GetRun(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	bold := color.New(color.Bold)
	red := color.New(color.FgRed)

	bold.Fprintf(output, "Run %s\n", run.ID)
	fmt.Fprintf(output, "  Started:    %s\n", run.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(output, "  Duration:   %s\n", run.Duration)
	fmt.Fprintf(output, "  Root:       %s\n", run.Root)
	fmt.Fprintf(output, "  Output:     %s\n", run.OutputPath)
	fmt.Fprintf(output, "  Visited:    %d\n", run.Visited)
	fmt.Fprintf(output, "  Included:   %d\n", run.Included)
	fmt.Fprintf(output, "  Skipped:    %d\n", run.Skipped)
	fmt.Fprintf(output, "  Unreadable: %d\n", run.Failed)
	fmt.Fprintf(output, "  Bytes:      %d\n", run.Bytes)
	fmt.Fprintf(output, "  Digest:     %s\n", run.Digest)

	if len(run.Failures) > 0 {
		fmt.Fprintf(output, "\nUnreadable files:\n")
		for _, f := range run.Failures {
			red.Fprintf(output, "  - %s: %s\n", f.Path, f.Message)
		}
	}

	return nil
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	output := cmd.OutOrStdout()
	days, _ := cmd.Flags().GetInt("days")
	if days < 0 {
		return fmt.Errorf("--days must be zero or greater, got %d", days)
	}

	store, _, err := openHistory(cmd)
	if err != nil {
		return err
	}
	if store == nil {
		fmt.Fprintf(output, "No runs recorded.\n")
		return nil
	}
	defer store.Close()

	cutoff := time.Now().AddDate(0, 0, -days)
	deleted, err := store.PruneRuns(cmd.Context(), cutoff)
	if err != nil {
		return fmt.Errorf("prune runs: %w", err)
	}

	fmt.Fprintf(output, "Deleted %d run(s) started before %s\n", deleted, cutoff.Format("2006-01-02 15:04"))
	return nil
}
