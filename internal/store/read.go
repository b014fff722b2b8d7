package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/graphparity/internal/manifest"
)

// ErrRunNotFound is returned when a run ID is not in the store.
var ErrRunNotFound = errors.New("run not found")

// Run is a stored run summary.
type Run struct {
	ID           string  `json:"id"`
	GeneratedAt  string  `json:"generatedAtUtc"`
	FixturesDir  string  `json:"fixturesDir"`
	SnapshotsDir string  `json:"snapshotsDir"`
	Status       string  `json:"status"`
	FixtureCount int     `json:"fixtureCount"`
	Passed       int     `json:"passed"`
	Failed       int     `json:"failed"`
	PassRate     float64 `json:"passRate"`
	Digest       string  `json:"digest"`

	// PreviousDigest is the digest of the run recorded just before this
	// one, or "" for the first run.
	PreviousDigest string `json:"previousDigest"`
}

// DigestChanged reports whether the corpus outcome differs from the
// previous run. The first run never counts as changed.
func (r Run) DigestChanged() bool {
	return r.PreviousDigest != "" && r.PreviousDigest != r.Digest
}

// FixtureResult is one fixture's outcome within a stored run.
type FixtureResult struct {
	RunID           string              `json:"runId"`
	GeneratedAt     string              `json:"generatedAtUtc"`
	Name            string              `json:"name"`
	Pass            bool                `json:"pass"`
	ManifestValid   bool                `json:"manifestValid"`
	SnapshotPresent bool                `json:"snapshotPresent"`
	SnapshotValid   bool                `json:"snapshotValid"`
	Reason          string              `json:"reason,omitempty"`
	DiffSize        int                 `json:"diffSize"`
	EdgeCategories  []manifest.Category `json:"edgeCategories"`
}

const runColumns = `id, generated_at, fixtures_dir, snapshots_dir, status,
	fixture_count, passed, failed, pass_rate, digest, previous_digest`

// runsWithPrevious pairs every run with the digest of its predecessor.
const runsWithPrevious = `
	SELECT id, generated_at, fixtures_dir, snapshots_dir, status,
	       fixture_count, passed, failed, pass_rate, digest,
	       COALESCE(LAG(digest) OVER (ORDER BY generated_at ASC, id COLLATE BINARY ASC), '') AS previous_digest
	FROM runs`

// ListRuns returns up to limit runs, newest first. A limit <= 0 returns
// every run. Returns an empty slice (not nil) when nothing is stored.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+` FROM (`+runsWithPrevious+`)
		ORDER BY generated_at DESC, id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns a single run, or ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+` FROM (`+runsWithPrevious+`)
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// Failures returns the failure list of a run in report order.
func (s *Store) Failures(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT message FROM failures WHERE run_id = ? ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	failures := []string{}
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		failures = append(failures, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failures: %w", err)
	}
	return failures, nil
}

// FixtureHistory returns the outcomes of the named fixture across runs,
// newest first, up to limit (<= 0 for all).
func (s *Store) FixtureHistory(ctx context.Context, name string, limit int) ([]FixtureResult, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.run_id, r.generated_at, f.name, f.pass, f.manifest_valid,
		       f.snapshot_present, f.snapshot_valid, f.reason, f.diff_size, f.edge_categories
		FROM fixture_results f
		JOIN runs r ON r.id = f.run_id
		WHERE f.name = ?
		ORDER BY r.generated_at DESC, r.id COLLATE BINARY DESC
		LIMIT ?
	`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("query fixture history: %w", err)
	}
	defer rows.Close()

	results := []FixtureResult{}
	for rows.Next() {
		var (
			fr         FixtureResult
			reason     sql.NullString
			categories string
		)
		if err := rows.Scan(&fr.RunID, &fr.GeneratedAt, &fr.Name, &fr.Pass, &fr.ManifestValid,
			&fr.SnapshotPresent, &fr.SnapshotValid, &reason, &fr.DiffSize, &categories); err != nil {
			return nil, fmt.Errorf("scan fixture result: %w", err)
		}
		fr.Reason = reason.String
		if err := json.Unmarshal([]byte(categories), &fr.EdgeCategories); err != nil {
			return nil, fmt.Errorf("decode edge categories of %s: %w", fr.RunID, err)
		}
		results = append(results, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fixture history: %w", err)
	}
	return results, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.GeneratedAt, &r.FixturesDir, &r.SnapshotsDir, &r.Status,
		&r.FixtureCount, &r.Passed, &r.Failed, &r.PassRate, &r.Digest, &r.PreviousDigest)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	return r, nil
}
