package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiff_Reflexive(t *testing.T) {
	graphs := []Graph{{}, sampleGraph(), Normalize(sampleGraph())}

	for _, g := range graphs {
		g := g
		d := Diff(&g, Normalize(g))
		assert.True(t, d.Matches)
		assert.Nil(t, d.Reason)
		assert.Equal(t, 0, d.Size())
		require.NotNil(t, d.Root)
		assert.True(t, d.Root.Matches)
	}
}

func TestDiff_MissingExpected(t *testing.T) {
	d := Diff(nil, sampleGraph())

	assert.False(t, d.Matches)
	require.NotNil(t, d.Reason)
	assert.Equal(t, ReasonMissingExpected, *d.Reason)
	assert.Nil(t, d.Root)
	assert.Empty(t, d.Edges.Missing)
	assert.Empty(t, d.Edges.Extra)
	assert.Empty(t, d.Overrides.Missing)
	assert.Empty(t, d.Workspaces.Extra)
}

func TestDiff_RootMismatch(t *testing.T) {
	exp := Graph{Root: Root{Name: "app", Version: "1.0.0"}}
	act := Graph{Root: Root{Name: "app", Version: "1.0.1"}}

	d := Diff(&exp, act)

	assert.False(t, d.Matches)
	assert.Equal(t, ReasonMismatch, d.ReasonString())
	assert.False(t, d.Root.Matches)
	assert.Equal(t, exp.Root, d.Root.Expected)
	assert.Equal(t, act.Root, d.Root.Actual)
	assert.Equal(t, 1, d.Size())
}

func TestDiff_Edges(t *testing.T) {
	exp := Graph{Edges: []Edge{
		rootEdge("d", "dependencies", "^4.0.0"),
		rootEdge("a", "dependencies", "^1.0.0"),
		rootEdge("b", "dependencies", "^1.0.0"),
	}}
	act := Graph{Edges: []Edge{
		rootEdge("a", "dependencies", "^1.0.0"),
		rootEdge("x", "dependencies", "1"),
		rootEdge("b", "dependencies", "^1.0.0"),
	}}

	d := Diff(&exp, act)

	assert.False(t, d.Matches)
	assert.Equal(t, []Edge{rootEdge("d", "dependencies", "^4.0.0")}, d.Edges.Missing)
	assert.Equal(t, []Edge{rootEdge("x", "dependencies", "1")}, d.Edges.Extra)
	assert.True(t, d.Root.Matches)
}

func TestDiff_ChangedSpecIsMissingAndExtra(t *testing.T) {
	exp := Graph{Edges: []Edge{rootEdge("a", "dependencies", "^1.0.0")}}
	act := Graph{Edges: []Edge{rootEdge("a", "dependencies", "^2.0.0")}}

	d := Diff(&exp, act)

	assert.False(t, d.Matches)
	assert.Equal(t, []Edge{rootEdge("a", "dependencies", "^1.0.0")}, d.Edges.Missing)
	assert.Equal(t, []Edge{rootEdge("a", "dependencies", "^2.0.0")}, d.Edges.Extra)
}

func TestDiff_OverridesValueSensitive(t *testing.T) {
	exp := Graph{Overrides: map[string]string{"a": "1.0.0"}}
	act := Graph{Overrides: map[string]string{"a": "2.0.0"}}

	d := Diff(&exp, act)

	assert.False(t, d.Matches)
	assert.Equal(t, map[string]string{"a": "1.0.0"}, d.Overrides.Missing)
	assert.Equal(t, map[string]string{"a": "2.0.0"}, d.Overrides.Extra)
}

func TestDiff_Overrides(t *testing.T) {
	exp := Graph{Overrides: map[string]string{"same": "1", "gone": "2"}}
	act := Graph{Overrides: map[string]string{"same": "1", "new": "3"}}

	d := Diff(&exp, act)

	assert.Equal(t, map[string]string{"gone": "2"}, d.Overrides.Missing)
	assert.Equal(t, map[string]string{"new": "3"}, d.Overrides.Extra)
}

func TestDiff_Workspaces(t *testing.T) {
	exp := Graph{Workspaces: []string{"packages/*", "apps/*", "apps/*"}}
	act := Graph{Workspaces: []string{"tools/*", "packages/*", "libs/*"}}

	d := Diff(&exp, act)

	assert.Equal(t, []string{"apps/*"}, d.Workspaces.Missing)
	assert.Equal(t, []string{"libs/*", "tools/*"}, d.Workspaces.Extra)
	assert.Equal(t, 3, d.Size())
}

func TestDiff_Deterministic(t *testing.T) {
	exp := sampleGraph()
	act := Graph{
		Edges:     []Edge{rootEdge("q", "dependencies", "1"), rootEdge("p", "dependencies", "1")},
		Overrides: map[string]string{"a": "3"},
	}

	first := Diff(&exp, act)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Diff(&exp, act))
	}
}

func TestInputDiff(t *testing.T) {
	d := InputDiff("invalid manifest")

	assert.False(t, d.Matches)
	assert.Equal(t, "invalid manifest", d.ReasonString())
	assert.NotNil(t, d.Edges.Missing)
	assert.NotNil(t, d.Overrides.Extra)
	assert.Equal(t, 0, d.Size())
}

// Spec scenario: manifest with one dependency and one peer dependency, and
// a snapshot recorded with the same edges under an empty root.
func TestDiff_ManifestAgainstRecordedGraph(t *testing.T) {
	m := mustManifest(t, `{"dependencies": {"a": "^1.0.0"}, "peerDependencies": {"c": "*"}}`)
	expected := Graph{
		Root: Root{},
		Edges: []Edge{
			rootEdge("a", "dependencies", "^1.0.0"),
			rootEdge("c", "peerDependencies", "*"),
		},
	}

	assert.True(t, Diff(&expected, Build(m)).Matches)

	expected.Edges = append(expected.Edges, rootEdge("d", "dependencies", "^1.0.0"))
	d := Diff(&expected, Build(m))
	assert.False(t, d.Matches)
	assert.Equal(t, []Edge{rootEdge("d", "dependencies", "^1.0.0")}, d.Edges.Missing)
	assert.Empty(t, d.Edges.Extra)
}
