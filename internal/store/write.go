package store

import (
	"context"
	"fmt"

	"github.com/roach88/graphparity/internal/canonical"
	"github.com/roach88/graphparity/internal/report"
)

// RecordRun stores r with its fixture results and failures in a single
// transaction. A run whose ID is already stored is left untouched.
func (s *Store) RecordRun(ctx context.Context, r *report.Report) error {
	guardrails, err := canonical.Marshal(r.Guardrails)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, generated_at, fixtures_dir, snapshots_dir, status, fixture_count, passed, failed, pass_rate, digest, guardrails)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		r.RunID,
		r.GeneratedAtUTC,
		r.FixturesDir,
		r.SnapshotsDir,
		r.Status,
		r.Totals.FixtureCount,
		r.Totals.Passed,
		r.Totals.Failed,
		r.Totals.PassRate,
		r.Digest,
		string(guardrails),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("record run: %w", err)
	} else if n == 0 {
		return nil
	}

	for _, f := range r.Fixtures {
		categories, err := canonical.Marshal(f.EdgeCategories)
		if err != nil {
			return fmt.Errorf("record fixture %s: %w", f.Name, err)
		}
		var reason any
		if f.Diff.Reason != nil {
			reason = *f.Diff.Reason
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO fixture_results
			(run_id, name, pass, manifest_valid, snapshot_present, snapshot_valid, reason, diff_size, edge_categories)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			r.RunID,
			f.Name,
			f.Pass,
			f.ManifestValid,
			f.SnapshotPresent,
			f.SnapshotValid,
			reason,
			f.Diff.Size(),
			string(categories),
		)
		if err != nil {
			return fmt.Errorf("record fixture %s: %w", f.Name, err)
		}
	}

	for i, msg := range r.Failures {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO failures (run_id, seq, message) VALUES (?, ?, ?)
		`, r.RunID, i, msg)
		if err != nil {
			return fmt.Errorf("record failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}
