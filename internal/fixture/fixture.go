// Package fixture evaluates manifest/snapshot pairs.
//
// A fixture is a directory under the fixtures root holding a manifest
// (package.json by default) and a snapshot named after the directory in the
// snapshots root. The Evaluator loads both, builds the actual graph, detects
// the coverage categories the manifest exercises, and diffs the actual graph
// against the recorded one.
//
// Evaluation never aborts on malformed input. Every defect is recorded on the
// Fixture with a specific reason and the fixture fails.
package fixture

import (
	"fmt"
	"slices"

	"github.com/roach88/graphparity/internal/graph"
	"github.com/roach88/graphparity/internal/manifest"
)

// Reasons recorded on the diff of a fixture whose inputs could not be
// compared.
const (
	ReasonInvalidManifest = "invalid manifest"
	ReasonMissingSnapshot = "missing snapshot"
	ReasonInvalidSnapshot = "invalid snapshot"
)

// DefaultManifestFile is the manifest file name looked up in each fixture
// directory.
const DefaultManifestFile = "package.json"

// Paths locates the inputs of one fixture.
type Paths struct {
	Name         string
	Dir          string
	ManifestPath string
	SnapshotPath string
}

// Fixture is the evaluation record of one fixture. It is created once by the
// Evaluator and not modified afterwards.
type Fixture struct {
	Name         string `json:"name" yaml:"name"`
	Dir          string `json:"path" yaml:"path"`
	ManifestPath string `json:"manifestPath" yaml:"manifestPath"`
	SnapshotPath string `json:"snapshotPath" yaml:"snapshotPath"`

	ManifestValid   bool `json:"manifestValid" yaml:"manifestValid"`
	SnapshotPresent bool `json:"snapshotPresent" yaml:"snapshotPresent"`
	SnapshotValid   bool `json:"snapshotValid" yaml:"snapshotValid"`

	// EdgeCategories lists the categories whose detector fired. Empty for
	// an invalid manifest.
	EdgeCategories []manifest.Category `json:"edgeCategories" yaml:"edgeCategories"`

	// ActualGraph is the normalized graph built from the manifest, or nil
	// when the manifest is invalid.
	ActualGraph *graph.Graph `json:"actualGraph" yaml:"actualGraph"`

	Diff graph.SemanticDiff `json:"semanticDiff" yaml:"semanticDiff"`
	Pass bool               `json:"pass" yaml:"pass"`
}

// Comparable reports whether both inputs loaded, so that the fixture's
// outcome reflects a real graph comparison.
func (f Fixture) Comparable() bool {
	return f.ManifestValid && f.SnapshotPresent && f.SnapshotValid
}

// HasCategory reports whether the fixture's manifest exercises c.
func (f Fixture) HasCategory(c manifest.Category) bool {
	return slices.Contains(f.EdgeCategories, c)
}

// FailureReasons returns one line per defect of a failing fixture, or nil
// when it passed. An invalid manifest and a missing snapshot are both
// reported when they occur together.
func (f Fixture) FailureReasons() []string {
	if f.Pass {
		return nil
	}
	var reasons []string
	if !f.ManifestValid {
		reasons = append(reasons, fmt.Sprintf("%s: invalid manifest %s", f.Name, f.ManifestPath))
	}
	if !f.SnapshotPresent {
		reasons = append(reasons, fmt.Sprintf("%s: missing snapshot %s", f.Name, f.SnapshotPath))
	}
	if f.SnapshotPresent && !f.SnapshotValid {
		reasons = append(reasons, fmt.Sprintf("%s: invalid snapshot JSON %s", f.Name, f.SnapshotPath))
	}
	if f.Comparable() && !f.Diff.Matches {
		reasons = append(reasons, fmt.Sprintf("%s: semantic snapshot mismatch", f.Name))
	}
	return reasons
}
