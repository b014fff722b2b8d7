// Package guardrail folds per-fixture results into corpus totals, coverage
// counts and threshold checks, and decides the verdict of a run.
package guardrail

import (
	"fmt"
	"strings"

	"github.com/roach88/graphparity/internal/fixture"
	"github.com/roach88/graphparity/internal/manifest"
)

// Run verdicts.
const (
	StatusPass = "pass"
	StatusFail = "fail"
)

// Totals counts fixtures by outcome.
type Totals struct {
	FixtureCount int     `json:"fixtureCount" yaml:"fixtureCount"`
	Passed       int     `json:"passed" yaml:"passed"`
	Failed       int     `json:"failed" yaml:"failed"`
	PassRate     float64 `json:"passRate" yaml:"passRate"`
}

// Coverage counts, per category, the comparable fixtures that exercise it.
type Coverage struct {
	EdgeTypeCounts      map[manifest.Category]int `json:"edgeTypeCounts" yaml:"edgeTypeCounts"`
	MissingEdgeCoverage []manifest.Category       `json:"missingEdgeCoverage" yaml:"missingEdgeCoverage"`
}

// Semantic counts comparable fixtures by diff outcome. Fixtures whose
// inputs failed to load are in neither bucket.
type Semantic struct {
	Matched    int     `json:"matched" yaml:"matched"`
	Mismatched int     `json:"mismatched" yaml:"mismatched"`
	MatchRate  float64 `json:"matchRate" yaml:"matchRate"`
}

// Outcome is the corpus-level result of a run.
type Outcome struct {
	Totals   Totals   `json:"totals" yaml:"totals"`
	Coverage Coverage `json:"coverage" yaml:"coverage"`
	Semantic Semantic `json:"semantic" yaml:"semantic"`

	// Failures lists fixture defects in fixture order, then missing
	// coverage, then corpus size, then pass rate.
	Failures []string `json:"failures" yaml:"failures"`
	Status   string   `json:"status" yaml:"status"`
}

// Passed reports whether the run satisfied every guardrail.
func (o Outcome) Passed() bool {
	return o.Status == StatusPass
}

// Evaluate computes the outcome of fixtures under cfg. It performs no I/O
// and returns the same Outcome for the same inputs.
func Evaluate(fixtures []fixture.Fixture, cfg Config) Outcome {
	out := Outcome{
		Coverage: Coverage{
			EdgeTypeCounts:      make(map[manifest.Category]int, len(manifest.Categories)),
			MissingEdgeCoverage: []manifest.Category{},
		},
		Failures: []string{},
	}
	for _, c := range manifest.Categories {
		out.Coverage.EdgeTypeCounts[c] = 0
	}

	for _, f := range fixtures {
		out.Totals.FixtureCount++
		if f.Pass {
			out.Totals.Passed++
		}
		if f.Comparable() {
			if f.Diff.Matches {
				out.Semantic.Matched++
			} else {
				out.Semantic.Mismatched++
			}
			for _, c := range f.EdgeCategories {
				out.Coverage.EdgeTypeCounts[c]++
			}
		}
		out.Failures = append(out.Failures, f.FailureReasons()...)
	}
	out.Totals.Failed = out.Totals.FixtureCount - out.Totals.Passed
	out.Totals.PassRate = ratio(out.Totals.Passed, out.Totals.FixtureCount)
	out.Semantic.MatchRate = ratio(out.Semantic.Matched, out.Semantic.Matched+out.Semantic.Mismatched)

	for _, c := range cfg.RequiredEdgeCategories {
		if out.Coverage.EdgeTypeCounts[c] == 0 {
			out.Coverage.MissingEdgeCoverage = append(out.Coverage.MissingEdgeCoverage, c)
		}
	}
	if len(out.Coverage.MissingEdgeCoverage) > 0 {
		names := make([]string, len(out.Coverage.MissingEdgeCoverage))
		for i, c := range out.Coverage.MissingEdgeCoverage {
			names[i] = string(c)
		}
		out.Failures = append(out.Failures,
			"missing edge coverage categories: "+strings.Join(names, ", "))
	}

	if out.Totals.FixtureCount < cfg.MinFixtureCount {
		out.Failures = append(out.Failures, fmt.Sprintf(
			"fixture count %d below minFixtureCount %d",
			out.Totals.FixtureCount, cfg.MinFixtureCount))
	}

	if out.Totals.PassRate < cfg.MinPassRate {
		out.Failures = append(out.Failures, fmt.Sprintf(
			"pass rate %s below threshold %s",
			Percent(out.Totals.PassRate), Percent(cfg.MinPassRate)))
	}

	out.Status = StatusPass
	if len(out.Failures) > 0 {
		out.Status = StatusFail
	}
	return out
}

// Percent formats a ratio in [0, 1] as a percentage with two decimals.
func Percent(r float64) string {
	return fmt.Sprintf("%.2f%%", r*100)
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
