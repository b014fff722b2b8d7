package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/graphparity/internal/fixture"
	"github.com/roach88/graphparity/internal/graph"
)

// DiffOptions holds flags for the diff command.
type DiffOptions struct {
	*RootOptions
	Manifest string
	Snapshot string
	Name     string
}

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiffOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show the semantic diff of one manifest against one snapshot",
		Long: `Evaluate a single manifest/snapshot pair and print its semantic diff.

Lines starting with "-" are expected by the snapshot but missing from the
graph built from the manifest; lines starting with "+" are extra.

Example:
  graphparity diff --manifest tests/fixtures/peer-basic/package.json \
    --snapshot tests/resolver-snapshots/peer-basic.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "path to the manifest (required)")
	cmd.Flags().StringVar(&opts.Snapshot, "snapshot", "", "path to the snapshot (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "fixture name used in messages (default: manifest directory name)")
	_ = cmd.MarkFlagRequired("manifest")
	_ = cmd.MarkFlagRequired("snapshot")

	return cmd
}

func runDiff(opts *DiffOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	name := opts.Name
	if name == "" {
		name = filepath.Base(filepath.Dir(opts.Manifest))
	}

	evaluator := &fixture.Evaluator{Logger: newLogger(opts.RootOptions, cmd)}
	f := evaluator.Evaluate(fixture.Paths{
		Name:         name,
		Dir:          filepath.Dir(opts.Manifest),
		ManifestPath: opts.Manifest,
		SnapshotPath: opts.Snapshot,
	})

	if formatter.JSON() {
		if err := formatter.Success(f); err != nil {
			return err
		}
	} else {
		writeFixtureDiff(formatter.Writer, f)
	}

	if !f.Pass {
		return NewExitError(ExitFailure, fmt.Sprintf("%s does not match its snapshot", name))
	}
	return nil
}

// writeFixtureDiff prints a fixture's outcome in a unified-diff-like form.
func writeFixtureDiff(w io.Writer, f fixture.Fixture) {
	status := "pass"
	if !f.Pass {
		status = "fail"
	}
	fmt.Fprintf(w, "Fixture: %s\n", f.Name)
	fmt.Fprintf(w, "Status: %s\n", status)
	if len(f.EdgeCategories) > 0 {
		cats := make([]string, len(f.EdgeCategories))
		for i, c := range f.EdgeCategories {
			cats[i] = string(c)
		}
		fmt.Fprintf(w, "Categories: %s\n", strings.Join(cats, ", "))
	}
	if reason := f.Diff.ReasonString(); reason != "" {
		fmt.Fprintf(w, "Reason: %s\n", reason)
	}

	d := f.Diff
	if d.Root != nil && !d.Root.Matches {
		fmt.Fprintf(w, "- root %s\n", formatRoot(d.Root.Expected))
		fmt.Fprintf(w, "+ root %s\n", formatRoot(d.Root.Actual))
	}
	for _, e := range d.Edges.Missing {
		fmt.Fprintf(w, "- edge %s\n", formatEdge(e))
	}
	for _, e := range d.Edges.Extra {
		fmt.Fprintf(w, "+ edge %s\n", formatEdge(e))
	}
	writeOverrides(w, "-", d.Overrides.Missing)
	writeOverrides(w, "+", d.Overrides.Extra)
	for _, ws := range d.Workspaces.Missing {
		fmt.Fprintf(w, "- workspace %s\n", ws)
	}
	for _, ws := range d.Workspaces.Extra {
		fmt.Fprintf(w, "+ workspace %s\n", ws)
	}

	for _, reason := range f.FailureReasons() {
		fmt.Fprintf(w, "! %s\n", reason)
	}
}

func writeOverrides(w io.Writer, prefix string, overrides map[string]string) {
	g := graph.Graph{Overrides: overrides}
	for _, k := range g.SortedOverrideKeys() {
		fmt.Fprintf(w, "%s override %s=%s\n", prefix, k, overrides[k])
	}
}

func formatRoot(r graph.Root) string {
	return fmt.Sprintf("%q@%q", r.Name, r.Version)
}

func formatEdge(e graph.Edge) string {
	return fmt.Sprintf("%s -> %s [%s] %q", e.From, e.To, e.Type, e.Spec)
}
