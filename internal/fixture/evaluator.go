package fixture

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/roach88/graphparity/internal/graph"
	"github.com/roach88/graphparity/internal/logger"
	"github.com/roach88/graphparity/internal/manifest"
	"github.com/roach88/graphparity/internal/snapshot"
)

// Evaluator evaluates fixtures. Its fields are read-only during evaluation,
// so one Evaluator may evaluate many fixtures concurrently.
type Evaluator struct {
	// ManifestFile is the manifest file name inside each fixture directory.
	// Defaults to DefaultManifestFile.
	ManifestFile string

	// SnapshotsDir holds one <fixture>.json snapshot per fixture.
	SnapshotsDir string

	// Workers bounds concurrent evaluations in EvaluateAll. Values below 1
	// use runtime.GOMAXPROCS(0).
	Workers int

	// Logger receives per-fixture diagnostics. Nil discards them.
	Logger *slog.Logger
}

func (e *Evaluator) logger() *slog.Logger {
	if e.Logger == nil {
		return logger.Discard()
	}
	return e.Logger
}

func (e *Evaluator) manifestFile() string {
	if e.ManifestFile == "" {
		return DefaultManifestFile
	}
	return e.ManifestFile
}

func (e *Evaluator) workers() int {
	if e.Workers < 1 {
		return runtime.GOMAXPROCS(0)
	}
	return e.Workers
}

// Evaluate loads and compares one fixture.
//
// The snapshot is probed even when the manifest is invalid so that every
// defect of the fixture is recorded in a single pass. The graph diff only
// runs when both inputs loaded.
func (e *Evaluator) Evaluate(p Paths) Fixture {
	log := e.logger().With("fixture", p.Name)

	f := Fixture{
		Name:           p.Name,
		Dir:            p.Dir,
		ManifestPath:   p.ManifestPath,
		SnapshotPath:   p.SnapshotPath,
		EdgeCategories: []manifest.Category{},
	}

	var actual graph.Graph
	m, err := manifest.Load(p.ManifestPath)
	if err != nil {
		log.Debug("manifest rejected", "path", p.ManifestPath, "error", err)
	} else {
		f.ManifestValid = true
		actual = graph.Build(m)
		normalized := graph.Normalize(actual)
		f.ActualGraph = &normalized
		f.EdgeCategories = manifest.Detect(m)
	}

	snap := snapshot.Load(p.SnapshotPath)
	f.SnapshotPresent = snap.Present
	f.SnapshotValid = snap.Present && snap.Valid
	if snap.Err != nil {
		log.Debug("snapshot rejected", "path", p.SnapshotPath, "error", snap.Err)
	}

	switch {
	case !f.ManifestValid:
		f.Diff = graph.InputDiff(ReasonInvalidManifest)
	case !f.SnapshotPresent:
		f.Diff = graph.InputDiff(ReasonMissingSnapshot)
	case !f.SnapshotValid:
		f.Diff = graph.InputDiff(ReasonInvalidSnapshot)
	default:
		f.Diff = graph.Diff(snap.ExpectedGraph, actual)
	}

	f.Pass = f.Comparable() && f.Diff.Matches

	log.Debug("fixture evaluated",
		"pass", f.Pass,
		"categories", f.EdgeCategories,
		"diff_size", f.Diff.Size(),
	)
	return f
}

// EvaluateAll evaluates fixtures concurrently and returns the results in the
// order of paths. Each evaluation writes only its own result slot, and the
// results are returned after every evaluation has finished.
//
// A cancelled context stops further fixtures from starting and its error is
// returned.
func (e *Evaluator) EvaluateAll(ctx context.Context, paths []Paths) ([]Fixture, error) {
	results := make([]Fixture, len(paths))

	p := pool.New().WithContext(ctx).WithMaxGoroutines(e.workers())
	for i, fp := range paths {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = e.Evaluate(fp)
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("evaluate fixtures: %w", ctxErr)
		}
		return nil, fmt.Errorf("evaluate fixtures: %w", err)
	}

	e.logger().Info("fixtures evaluated", "count", len(results), "workers", e.workers())
	return results, nil
}
