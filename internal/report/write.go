package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/graphparity/internal/guardrail"
	"github.com/roach88/graphparity/internal/manifest"
)

// Report encodings.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the accepted report encodings.
var Formats = []string{FormatJSON, FormatYAML}

// ValidFormat reports whether format is one of Formats.
func ValidFormat(format string) bool {
	return slices.Contains(Formats, format)
}

// Write encodes r to w. JSON output is indented by two spaces and ends with
// a newline.
func Write(w io.Writer, r *Report, format string) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown report format %q: must be one of %v", format, Formats)
	}
}

// WriteFile writes r to path, creating parent directories as needed.
func WriteFile(path string, r *Report, format string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := Write(f, r, format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	return nil
}

// Read decodes a JSON report.
func Read(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &r, nil
}

const summaryTitle = "Resolver fixture parity report"

// WriteSummary prints the console summary of r. reportPath is echoed so the
// reader can find the full report.
func WriteSummary(w io.Writer, r *Report, reportPath string) error {
	var b strings.Builder

	b.WriteString(summaryTitle + "\n")
	b.WriteString(strings.Repeat("=", len(summaryTitle)+1) + "\n")
	fmt.Fprintf(&b, "fixtures=%d passed=%d pass_rate=%s\n",
		r.Totals.FixtureCount, r.Totals.Passed, guardrail.Percent(r.Totals.PassRate))
	fmt.Fprintf(&b, "semantic matched=%d mismatched=%d match_rate=%s\n",
		r.Semantic.Matched, r.Semantic.Mismatched, guardrail.Percent(r.Semantic.MatchRate))

	counts := make([]string, 0, len(manifest.Categories))
	for _, c := range manifest.Categories {
		counts = append(counts, fmt.Sprintf("%s:%d", c, r.Coverage.EdgeTypeCounts[c]))
	}
	fmt.Fprintf(&b, "edge_coverage=%s\n", strings.Join(counts, " "))
	if reportPath != "" {
		fmt.Fprintf(&b, "report=%s\n", reportPath)
	}
	fmt.Fprintf(&b, "status=%s\n", r.Status)

	if len(r.Failures) > 0 {
		b.WriteString("\nFailures:\n")
		for _, f := range r.Failures {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
