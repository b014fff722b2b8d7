package report

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/roach88/graphparity/internal/fixture"
	"github.com/roach88/graphparity/internal/graph"
	"github.com/roach88/graphparity/internal/guardrail"
	"github.com/roach88/graphparity/internal/manifest"
	"github.com/roach88/graphparity/internal/testutil"
)

func passing(name string, cats ...manifest.Category) fixture.Fixture {
	g := graph.Normalize(graph.Graph{
		Edges: []graph.Edge{{From: graph.RootSentinel, To: "a", Type: "dependencies", Spec: "^1.0.0"}},
	})
	return fixture.Fixture{
		Name:            name,
		Dir:             "fixtures/" + name,
		ManifestPath:    "fixtures/" + name + "/package.json",
		SnapshotPath:    "snapshots/" + name + ".json",
		ManifestValid:   true,
		SnapshotPresent: true,
		SnapshotValid:   true,
		EdgeCategories:  cats,
		ActualGraph:     &g,
		Diff:            graph.Diff(&g, g),
		Pass:            true,
	}
}

func sampleFixtures() []fixture.Fixture {
	b := passing("b", manifest.CategoryOptional)
	b.SnapshotPresent = false
	b.SnapshotValid = false
	b.Diff = graph.InputDiff(fixture.ReasonMissingSnapshot)
	b.Pass = false

	c := passing("c", manifest.CategoryWorkspaces)
	expected := graph.Graph{Root: graph.Root{Name: "c"}}
	c.Diff = graph.Diff(&expected, *c.ActualGraph)
	c.Pass = false

	return []fixture.Fixture{
		passing("a", manifest.CategoryPeer, manifest.CategoryOverrides),
		b,
		c,
	}
}

func newAssembler() *Assembler {
	return &Assembler{
		Clock: testutil.NewDeterministicClock(time.Second),
		IDs:   testutil.NewFixedIDGenerator("run-1"),
	}
}

func assemble(t *testing.T, fixtures []fixture.Fixture) *Report {
	t.Helper()
	r, err := newAssembler().Assemble(Input{
		FixturesDir:  "fixtures",
		SnapshotsDir: "snapshots",
		Fixtures:     fixtures,
		Guardrails:   guardrail.Default(),
	})
	require.NoError(t, err)
	return r
}

func TestAssemble(t *testing.T) {
	r := assemble(t, sampleFixtures())

	assert.Equal(t, SchemaVersion, r.SchemaVersion)
	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, "2025-01-01T00:00:00Z", r.GeneratedAtUTC)
	assert.Equal(t, "fixtures", r.FixturesDir)
	assert.Equal(t, guardrail.Totals{FixtureCount: 3, Passed: 1, Failed: 2, PassRate: 1.0 / 3}, r.Totals)
	assert.Equal(t, guardrail.Semantic{Matched: 1, Mismatched: 1, MatchRate: 0.5}, r.Semantic)
	assert.Equal(t, []manifest.Category{manifest.CategoryOptional}, r.Coverage.MissingEdgeCoverage)
	assert.Equal(t, []string{
		"b: missing snapshot snapshots/b.json",
		"c: semantic snapshot mismatch",
		"missing edge coverage categories: optional",
		"pass rate 33.33% below threshold 100.00%",
	}, r.Failures)
	assert.Equal(t, guardrail.StatusFail, r.Status)
	assert.False(t, r.Passed())
	assert.Len(t, r.Digest, 64)
}

func TestAssemble_DefaultGenerators(t *testing.T) {
	a := &Assembler{}
	r, err := a.Assemble(Input{Guardrails: guardrail.Default()})
	require.NoError(t, err)

	id, err := uuid.Parse(r.RunID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	_, err = time.Parse(time.RFC3339, r.GeneratedAtUTC)
	require.NoError(t, err)
	assert.NotNil(t, r.Fixtures)
}

func TestDigest_IgnoresRunAndLocation(t *testing.T) {
	first := assemble(t, sampleFixtures())

	moved := sampleFixtures()
	for i := range moved {
		moved[i].Dir = "/elsewhere/" + moved[i].Name
		moved[i].ManifestPath = "/elsewhere/" + moved[i].Name + "/package.json"
		moved[i].SnapshotPath = "/elsewhere/" + moved[i].Name + ".json"
	}
	a := &Assembler{
		Clock: testutil.NewDeterministicClock(time.Hour),
		IDs:   testutil.NewFixedIDGenerator("run-2"),
	}
	a.Clock.Now()
	second, err := a.Assemble(Input{
		FixturesDir:  "/elsewhere",
		SnapshotsDir: "/elsewhere",
		Fixtures:     moved,
		Guardrails:   guardrail.Default(),
	})
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.NotEqual(t, first.GeneratedAtUTC, second.GeneratedAtUTC)
	assert.Equal(t, first.Digest, second.Digest)
}

func TestDigest_ChangesWithContent(t *testing.T) {
	base := assemble(t, sampleFixtures())

	fewer := assemble(t, sampleFixtures()[:2])
	assert.NotEqual(t, base.Digest, fewer.Digest)

	r, err := newAssembler().Assemble(Input{
		Fixtures:   sampleFixtures(),
		Guardrails: guardrail.Config{MinPassRate: 0.2, RequiredEdgeCategories: []manifest.Category{}},
	})
	require.NoError(t, err)
	assert.NotEqual(t, base.Digest, r.Digest)
}

func TestWrite_JSON(t *testing.T) {
	r := assemble(t, sampleFixtures())

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, r, FormatJSON))
	assert.True(t, bytes.HasSuffix(buf.Bytes(), []byte("}\n")))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	for _, key := range []string{
		"schemaVersion", "runId", "generatedAtUtc", "fixturesDir", "snapshotsDir",
		"totals", "coverage", "semantic", "fixtures", "guardrails", "failures",
		"status", "digest",
	} {
		assert.Contains(t, decoded, key)
	}
	assert.Equal(t, map[string]any{
		"fixtureCount": 3.0, "passed": 1.0, "failed": 2.0, "passRate": 1.0 / 3,
	}, decoded["totals"])
	assert.Equal(t, map[string]any{
		"peer": 1.0, "optional": 0.0, "overrides": 1.0, "workspaces": 1.0,
	}, decoded["coverage"].(map[string]any)["edgeTypeCounts"])

	fixtures := decoded["fixtures"].([]any)
	b := fixtures[1].(map[string]any)
	assert.Equal(t, false, b["snapshotPresent"])
	assert.Equal(t, "missing snapshot", b["semanticDiff"].(map[string]any)["reason"])
}

func TestWrite_YAML(t *testing.T) {
	r := assemble(t, sampleFixtures())

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, r, FormatYAML))

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "fail", decoded["status"])
	assert.Equal(t, "run-1", decoded["runId"])
	assert.Len(t, decoded["fixtures"], 3)
}

func TestWrite_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, &Report{}, "xml")
	require.Error(t, err)
	assert.False(t, ValidFormat("xml"))
	assert.True(t, ValidFormat(FormatYAML))
}

func TestWriteFileRead(t *testing.T) {
	r := assemble(t, sampleFixtures())
	path := filepath.Join(t.TempDir(), "nested", "dir", DefaultPath)

	require.NoError(t, WriteFile(path, r, FormatJSON))

	back, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, r.Digest, back.Digest)
	assert.Equal(t, r.Failures, back.Failures)
	assert.Equal(t, r.Totals, back.Totals)

	digest, err := Digest(back)
	require.NoError(t, err)
	assert.Equal(t, r.Digest, digest, "digest survives a JSON round trip")
}

func TestWriteSummary_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	tests := []struct {
		name       string
		fixtures   []fixture.Fixture
		reportPath string
	}{
		{"summary_fail", sampleFixtures(), "out/report.json"},
		{"summary_pass", []fixture.Fixture{
			passing("a", manifest.CategoryPeer, manifest.CategoryOptional),
			passing("b", manifest.CategoryOverrides, manifest.CategoryWorkspaces),
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := assemble(t, tt.fixtures)
			var buf bytes.Buffer
			require.NoError(t, WriteSummary(&buf, r, tt.reportPath))
			g.Assert(t, tt.name, buf.Bytes())
		})
	}
}

func TestJSONSchema(t *testing.T) {
	data, err := MarshalSchema()
	require.NoError(t, err)

	var s map[string]any
	require.NoError(t, json.Unmarshal(data, &s))
	assert.Equal(t, "graphparity report", s["title"])

	props := s["properties"].(map[string]any)
	for _, key := range []string{"schemaVersion", "runId", "fixtures", "digest", "status"} {
		assert.Contains(t, props, key)
	}
	assert.Contains(t, string(data), `"peer"`)
}
