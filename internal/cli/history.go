package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/graphparity/internal/guardrail"
	"github.com/roach88/graphparity/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	Fixture  string
	RunID    string
	Delete   string
}

// RunDetail is the output of history --run.
type RunDetail struct {
	store.Run
	Failures []string `json:"failures"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List runs recorded with check --history-db",
		Long: `List previously recorded runs, newest first. A run whose digest differs
from the run before it is marked "changed": the corpus outcome moved even if
the status did not.

Example:
  graphparity history --history-db .graphparity/history.db
  graphparity history --history-db .graphparity/history.db --fixture peer-basic
  graphparity history --history-db .graphparity/history.db --run <run-id>
  graphparity history --history-db .graphparity/history.db --delete <run-id>`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "history-db", "", "path to the history database (required)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of runs to show (0 for all)")
	cmd.Flags().StringVar(&opts.Fixture, "fixture", "", "show the outcomes of one fixture across runs")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show one run with its failures")
	cmd.Flags().StringVar(&opts.Delete, "delete", "", "remove one run and its fixture results")
	_ = cmd.MarkFlagRequired("history-db")
	cmd.MarkFlagsMutuallyExclusive("fixture", "run", "delete")

	return cmd
}

func runHistory(ctx context.Context, opts *HistoryOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	// Open would create an empty database; a missing file is a usage error.
	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeHistory, "history database not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeHistory, "open history database", err)
	}
	defer st.Close()

	switch {
	case opts.Delete != "":
		return deleteRun(ctx, st, opts.Delete, formatter)
	case opts.RunID != "":
		return showRun(ctx, st, opts.RunID, formatter)
	case opts.Fixture != "":
		return showFixtureHistory(ctx, st, opts, formatter)
	default:
		return showRuns(ctx, st, opts.Limit, formatter)
	}
}

func showRuns(ctx context.Context, st *store.Store, limit int, formatter *OutputFormatter) error {
	runs, err := st.ListRuns(ctx, limit)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeHistory, "list runs", err)
	}
	if formatter.JSON() {
		return formatter.Success(runs)
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	fmt.Fprintf(w, "%-36s  %-20s  %-6s  %8s  %8s  %9s  %-19s\n",
		"RUN", "GENERATED", "STATUS", "FIXTURES", "PASSED", "PASS RATE", "DIGEST")
	for _, r := range runs {
		changed := ""
		if r.DigestChanged() {
			changed = "  changed"
		}
		fmt.Fprintf(w, "%-36s  %-20s  %-6s  %8d  %8d  %9s  %-19s%s\n",
			r.ID, r.GeneratedAt, r.Status, r.FixtureCount, r.Passed,
			guardrail.Percent(r.PassRate), truncateID(r.Digest), changed)
	}
	return nil
}

func showRun(ctx context.Context, st *store.Store, id string, formatter *OutputFormatter) error {
	run, err := st.GetRun(ctx, id)
	if errors.Is(err, store.ErrRunNotFound) {
		return formatter.fail(ExitCommandError, ErrCodeHistory, "unknown run", err)
	}
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeHistory, "read run", err)
	}
	failures, err := st.Failures(ctx, id)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeHistory, "read failures", err)
	}

	detail := RunDetail{Run: run, Failures: failures}
	if formatter.JSON() {
		return formatter.Success(detail)
	}
	writeRunDetail(formatter.Writer, detail)
	return nil
}

func deleteRun(ctx context.Context, st *store.Store, id string, formatter *OutputFormatter) error {
	// DeleteRun is idempotent; an unknown ID is still reported.
	if _, err := st.GetRun(ctx, id); err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			return formatter.fail(ExitCommandError, ErrCodeHistory, "unknown run", err)
		}
		return formatter.fail(ExitCommandError, ErrCodeHistory, "read run", err)
	}
	if err := st.DeleteRun(ctx, id); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeHistory, "delete run", err)
	}
	if formatter.JSON() {
		return formatter.Success(map[string]string{"deleted": id})
	}
	fmt.Fprintf(formatter.Writer, "Deleted run %s\n", id)
	return nil
}

func writeRunDetail(w io.Writer, d RunDetail) {
	fmt.Fprintf(w, "Run: %s\n", d.ID)
	fmt.Fprintf(w, "Generated: %s\n", d.GeneratedAt)
	fmt.Fprintf(w, "Status: %s\n", d.Status)
	fmt.Fprintf(w, "Fixtures: %d passed=%d failed=%d pass_rate=%s\n",
		d.FixtureCount, d.Passed, d.Failed, guardrail.Percent(d.PassRate))
	fmt.Fprintf(w, "Digest: %s\n", d.Digest)
	if d.DigestChanged() {
		fmt.Fprintf(w, "Previous digest: %s (changed)\n", d.PreviousDigest)
	}
	if len(d.Failures) > 0 {
		fmt.Fprintln(w, "\nFailures:")
		for _, f := range d.Failures {
			fmt.Fprintf(w, "- %s\n", f)
		}
	}
}

func showFixtureHistory(ctx context.Context, st *store.Store, opts *HistoryOptions, formatter *OutputFormatter) error {
	results, err := st.FixtureHistory(ctx, opts.Fixture, opts.Limit)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeHistory, "read fixture history", err)
	}
	if formatter.JSON() {
		return formatter.Success(results)
	}

	w := formatter.Writer
	if len(results) == 0 {
		fmt.Fprintf(w, "No runs recorded for fixture: %s\n", opts.Fixture)
		return nil
	}
	fmt.Fprintf(w, "History for fixture: %s\n", opts.Fixture)
	for _, r := range results {
		status := "pass"
		if !r.Pass {
			status = "fail"
		}
		line := fmt.Sprintf("  %s  %s  %s", r.GeneratedAt, truncateID(r.RunID), status)
		if r.Reason != "" {
			line += fmt.Sprintf("  %s (%d)", r.Reason, r.DiffSize)
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

// truncateID shortens long IDs for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
