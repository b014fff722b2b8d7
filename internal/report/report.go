// Package report assembles the outcome of a run into its persisted form and
// renders the console summary.
package report

import (
	"fmt"
	"time"

	"github.com/roach88/graphparity/internal/canonical"
	"github.com/roach88/graphparity/internal/fixture"
	"github.com/roach88/graphparity/internal/graph"
	"github.com/roach88/graphparity/internal/guardrail"
	"github.com/roach88/graphparity/internal/manifest"
)

// SchemaVersion is bumped whenever a field of Report changes meaning.
const SchemaVersion = "1"

// DefaultPath is where the report is written unless told otherwise.
const DefaultPath = "resolver-parity-report.json"

// Report is the persisted result of one run. It is produced once and never
// updated.
type Report struct {
	SchemaVersion  string `json:"schemaVersion" yaml:"schemaVersion"`
	RunID          string `json:"runId" yaml:"runId" jsonschema:"description=UUIDv7 identifying this run"`
	GeneratedAtUTC string `json:"generatedAtUtc" yaml:"generatedAtUtc" jsonschema:"format=date-time"`
	FixturesDir    string `json:"fixturesDir" yaml:"fixturesDir"`
	SnapshotsDir   string `json:"snapshotsDir" yaml:"snapshotsDir"`

	Totals   guardrail.Totals   `json:"totals" yaml:"totals"`
	Coverage guardrail.Coverage `json:"coverage" yaml:"coverage"`
	Semantic guardrail.Semantic `json:"semantic" yaml:"semantic"`

	Fixtures   []fixture.Fixture `json:"fixtures" yaml:"fixtures"`
	Guardrails guardrail.Config  `json:"guardrails" yaml:"guardrails"`
	Failures   []string          `json:"failures" yaml:"failures"`
	Status     string            `json:"status" yaml:"status" jsonschema:"enum=pass,enum=fail"`

	// Digest is the SHA-256 of the run-independent content. Two runs over
	// identical fixtures and guardrails share a digest wherever the corpus
	// is checked out.
	Digest string `json:"digest" yaml:"digest"`
}

// Passed reports whether the run satisfied every guardrail.
func (r *Report) Passed() bool {
	return r.Status == guardrail.StatusPass
}

// Input is everything a report is assembled from.
type Input struct {
	FixturesDir  string
	SnapshotsDir string
	Fixtures     []fixture.Fixture
	Guardrails   guardrail.Config
}

// Clock supplies the generation timestamp.
type Clock interface {
	Now() time.Time
}

// IDGenerator supplies run IDs.
type IDGenerator interface {
	Generate() string
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Assembler builds reports. The zero value uses the wall clock and UUIDv7
// run IDs.
type Assembler struct {
	Clock Clock
	IDs   IDGenerator
}

// Assemble folds in through the guardrail evaluator and stamps the result.
func (a *Assembler) Assemble(in Input) (*Report, error) {
	clock := a.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	ids := a.IDs
	if ids == nil {
		ids = UUIDv7Generator{}
	}

	fixtures := in.Fixtures
	if fixtures == nil {
		fixtures = []fixture.Fixture{}
	}
	out := guardrail.Evaluate(fixtures, in.Guardrails)

	r := &Report{
		SchemaVersion:  SchemaVersion,
		RunID:          ids.Generate(),
		GeneratedAtUTC: clock.Now().UTC().Format(time.RFC3339),
		FixturesDir:    in.FixturesDir,
		SnapshotsDir:   in.SnapshotsDir,
		Totals:         out.Totals,
		Coverage:       out.Coverage,
		Semantic:       out.Semantic,
		Fixtures:       fixtures,
		Guardrails:     in.Guardrails,
		Failures:       out.Failures,
		Status:         out.Status,
	}

	digest, err := Digest(r)
	if err != nil {
		return nil, err
	}
	r.Digest = digest
	return r, nil
}

// digestFixture is a Fixture without its location on disk.
type digestFixture struct {
	Name            string              `json:"name"`
	ManifestValid   bool                `json:"manifestValid"`
	SnapshotPresent bool                `json:"snapshotPresent"`
	SnapshotValid   bool                `json:"snapshotValid"`
	EdgeCategories  []manifest.Category `json:"edgeCategories"`
	ActualGraph     *graph.Graph        `json:"actualGraph"`
	Diff            graph.SemanticDiff  `json:"semanticDiff"`
	Pass            bool                `json:"pass"`
}

type digestContent struct {
	SchemaVersion string             `json:"schemaVersion"`
	Totals        guardrail.Totals   `json:"totals"`
	Coverage      guardrail.Coverage `json:"coverage"`
	Semantic      guardrail.Semantic `json:"semantic"`
	Fixtures      []digestFixture    `json:"fixtures"`
	Guardrails    guardrail.Config   `json:"guardrails"`
	Status        string             `json:"status"`
}

// Digest hashes the parts of r that depend only on the corpus content and
// the guardrails. Run ID, timestamp, directories and path-bearing failure
// strings are excluded.
func Digest(r *Report) (string, error) {
	content := digestContent{
		SchemaVersion: r.SchemaVersion,
		Totals:        r.Totals,
		Coverage:      r.Coverage,
		Semantic:      r.Semantic,
		Fixtures:      make([]digestFixture, len(r.Fixtures)),
		Guardrails:    r.Guardrails,
		Status:        r.Status,
	}
	for i, f := range r.Fixtures {
		content.Fixtures[i] = digestFixture{
			Name:            f.Name,
			ManifestValid:   f.ManifestValid,
			SnapshotPresent: f.SnapshotPresent,
			SnapshotValid:   f.SnapshotValid,
			EdgeCategories:  f.EdgeCategories,
			ActualGraph:     f.ActualGraph,
			Diff:            f.Diff,
			Pass:            f.Pass,
		}
	}

	d, err := canonical.Digest(canonical.DomainReport, content)
	if err != nil {
		return "", fmt.Errorf("report digest: %w", err)
	}
	return d, nil
}
