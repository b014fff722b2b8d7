package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/graphparity/internal/fixture"
	"github.com/roach88/graphparity/internal/guardrail"
	"github.com/roach88/graphparity/internal/report"
	"github.com/roach88/graphparity/internal/store"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	FixturesDir  string
	SnapshotsDir string
	Out          string
	Config       string
	ManifestFile string
	Filter       string
	Workers      int
	Timeout      time.Duration
	ReportFormat string
	HistoryDB    string

	// Clock and IDs override report stamping (for testing). Nil uses the
	// wall clock and UUIDv7 run IDs.
	Clock report.Clock
	IDs   report.IDGenerator
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return newCheckCommand(&CheckOptions{RootOptions: rootOpts})
}

func newCheckCommand(opts *CheckOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Evaluate every fixture and apply the guardrails",
		Long: `Evaluate every fixture under the fixtures directory against its snapshot,
write the parity report, and exit non-zero when any guardrail fails.

A fixture is a directory holding a manifest (package.json by default). Its
snapshot is <snapshots-dir>/<fixture>.json with an "expectedGraph" key.

Guardrails come from, in increasing precedence: built-in defaults, --config
(JSON, CUE, YAML or TOML), GRAPHPARITY_MIN_PASS_RATE,
GRAPHPARITY_MIN_FIXTURE_COUNT and GRAPHPARITY_REQUIRED_EDGE_CATEGORIES,
then --min-pass-rate and --min-fixture-count.

Exit codes: 0 status pass, 1 status fail, 2 configuration error.

Example:
  graphparity check
  graphparity check --config guardrails.json --filter 'peer-*'
  graphparity check --history-db .graphparity/history.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.FixturesDir, "fixtures-dir", "tests/fixtures", "directory of fixture directories")
	cmd.Flags().StringVar(&opts.SnapshotsDir, "snapshots-dir", "tests/resolver-snapshots", "directory of <fixture>.json snapshots")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", report.DefaultPath, "report output path")
	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "guardrail config file (.json, .cue, .yaml, .toml)")
	cmd.Flags().Float64(guardrail.FlagMinPassRate, 1.0, "minimum fraction of passing fixtures, 0..1")
	cmd.Flags().Int(guardrail.FlagMinFixtureCount, 0, "minimum number of fixtures")
	cmd.Flags().StringVar(&opts.ManifestFile, "manifest-file", fixture.DefaultManifestFile, "manifest file name inside each fixture")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only evaluate fixtures matching this glob (e.g. 'peer-*')")
	cmd.Flags().IntVar(&opts.Workers, "workers", runtime.GOMAXPROCS(0), "fixtures evaluated concurrently")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "abort evaluation after this long (0 disables)")
	cmd.Flags().StringVar(&opts.ReportFormat, "report-format", report.FormatJSON, "report file format (json|yaml)")
	cmd.Flags().StringVar(&opts.HistoryDB, "history-db", "", "record the run in this SQLite database")

	return cmd
}

func runCheck(ctx context.Context, opts *CheckOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)
	log := newLogger(opts.RootOptions, cmd)

	if !report.ValidFormat(opts.ReportFormat) {
		return formatter.fail(ExitCommandError, ErrCodeInvalidFlag,
			fmt.Sprintf("invalid report format %q: must be one of %v", opts.ReportFormat, report.Formats), nil)
	}
	if opts.Workers < 1 {
		return formatter.fail(ExitCommandError, ErrCodeInvalidFlag,
			fmt.Sprintf("invalid workers %d: must be at least 1", opts.Workers), nil)
	}

	cfg, err := guardrail.Load(guardrail.LoadOptions{
		Path:   opts.Config,
		Flags:  cmd.Flags(),
		Logger: log,
	})
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeConfig, "invalid guardrail config", err)
	}
	formatter.VerboseLog("Guardrails: minPassRate=%s minFixtureCount=%d required=%v",
		guardrail.Percent(cfg.MinPassRate), cfg.MinFixtureCount, cfg.RequiredEdgeCategories)

	evaluator := &fixture.Evaluator{
		ManifestFile: opts.ManifestFile,
		SnapshotsDir: opts.SnapshotsDir,
		Workers:      opts.Workers,
		Logger:       log,
	}

	paths, err := evaluator.Discover(opts.FixturesDir, opts.Filter)
	if err != nil {
		return discoverError(formatter, err)
	}
	formatter.VerboseLog("Found %d fixture(s) in %s", len(paths), opts.FixturesDir)

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	fixtures, err := evaluator.EvaluateAll(ctx, paths)
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeTimeout, "evaluation aborted", err)
	}

	assembler := &report.Assembler{Clock: opts.Clock, IDs: opts.IDs}
	r, err := assembler.Assemble(report.Input{
		FixturesDir:  opts.FixturesDir,
		SnapshotsDir: opts.SnapshotsDir,
		Fixtures:     fixtures,
		Guardrails:   cfg,
	})
	if err != nil {
		return formatter.fail(ExitCommandError, ErrCodeGeneric, "assemble report", err)
	}

	if err := report.WriteFile(opts.Out, r, opts.ReportFormat); err != nil {
		return formatter.fail(ExitCommandError, ErrCodeWriteFailed, "write report", err)
	}
	formatter.VerboseLog("Report written to %s", opts.Out)

	if opts.HistoryDB != "" {
		if err := recordHistory(ctx, opts.HistoryDB, r, log); err != nil {
			return formatter.fail(ExitCommandError, ErrCodeHistory, "record history", err)
		}
		formatter.VerboseLog("Run %s recorded in %s", r.RunID, opts.HistoryDB)
	}

	if formatter.JSON() {
		if err := formatter.Success(r); err != nil {
			return err
		}
	} else if err := report.WriteSummary(formatter.Writer, r, opts.Out); err != nil {
		return err
	}

	if !r.Passed() {
		return NewExitError(ExitFailure, fmt.Sprintf("guardrails failed: %d failure(s)", len(r.Failures)))
	}
	return nil
}

func discoverError(formatter *OutputFormatter, err error) error {
	switch {
	case errors.Is(err, fixture.ErrFixturesDirNotFound):
		return formatter.fail(ExitCommandError, ErrCodeFixturesNotFound, "cannot read corpus", err)
	case errors.Is(err, fixture.ErrSnapshotsDirNotFound):
		return formatter.fail(ExitCommandError, ErrCodeSnapshotsNotFound, "cannot read corpus", err)
	default:
		return formatter.fail(ExitCommandError, ErrCodeInvalidFlag, "discover fixtures", err)
	}
}

func recordHistory(ctx context.Context, path string, r *report.Report, log *slog.Logger) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.RecordRun(ctx, r); err != nil {
		return err
	}

	runs, err := st.ListRuns(ctx, 1)
	if err != nil {
		return err
	}
	if len(runs) == 1 && runs[0].ID == r.RunID && runs[0].DigestChanged() {
		log.Info("corpus outcome changed since previous run",
			"run", r.RunID, "digest", r.Digest, "previous", runs[0].PreviousDigest)
	}
	return nil
}
