package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/graphparity/internal/fixture"
	"github.com/roach88/graphparity/internal/graph"
	"github.com/roach88/graphparity/internal/guardrail"
	"github.com/roach88/graphparity/internal/manifest"
	"github.com/roach88/graphparity/internal/report"
)

// createTestStore opens a fresh store in the test's temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestReport builds a report with one passing and one mismatched
// fixture, stamped with the given ID and time.
func createTestReport(id, generatedAt, digest string) *report.Report {
	reason := graph.ReasonMismatch
	return &report.Report{
		SchemaVersion:  report.SchemaVersion,
		RunID:          id,
		GeneratedAtUTC: generatedAt,
		FixturesDir:    "tests/fixtures",
		SnapshotsDir:   "tests/resolver-snapshots",
		Totals:         guardrail.Totals{FixtureCount: 2, Passed: 1, Failed: 1, PassRate: 0.5},
		Fixtures: []fixture.Fixture{
			{
				Name: "peer-basic", ManifestValid: true, SnapshotPresent: true, SnapshotValid: true,
				EdgeCategories: []manifest.Category{manifest.CategoryPeer},
				Diff:           graph.SemanticDiff{Matches: true},
				Pass:           true,
			},
			{
				Name: "workspaces-glob", ManifestValid: true, SnapshotPresent: true, SnapshotValid: true,
				EdgeCategories: []manifest.Category{manifest.CategoryWorkspaces},
				Diff: graph.SemanticDiff{
					Reason:     &reason,
					Workspaces: graph.WorkspaceDiff{Missing: []string{"packages/*"}},
				},
			},
		},
		Guardrails: guardrail.Default(),
		Failures: []string{
			"workspaces-glob: semantic snapshot mismatch",
			"pass rate 50.00% below threshold 100.00%",
		},
		Status: guardrail.StatusFail,
		Digest: digest,
	}
}
