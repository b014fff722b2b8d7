package graph

import (
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/roach88/graphparity/internal/manifest"
)

func mustManifest(t *testing.T, json string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(json))
	require.NoError(t, err)
	return m
}

func rootEdge(to, typ, spec string) Edge {
	return Edge{From: RootSentinel, To: to, Type: typ, Spec: spec}
}

// sampleGraph has duplicates and unsorted collections on purpose.
func sampleGraph() Graph {
	return Graph{
		Root: Root{Name: "app", Version: "1.0.0"},
		Edges: []Edge{
			rootEdge("c", "peerDependencies", "*"),
			rootEdge("a", "dependencies", "^1.0.0"),
			rootEdge("b", "devDependencies", "~2.1.0"),
			rootEdge("a", "dependencies", "^1.0.0"),
			rootEdge("a", "optionalDependencies", "^1.0.0"),
		},
		Overrides:  map[string]string{"z": "1.0.0", "a": "2.0.0"},
		Workspaces: []string{"tools/*", "packages/*", "tools/*"},
	}
}

func TestBuild(t *testing.T) {
	m := mustManifest(t, `{
		"name": "app",
		"version": "1.0.0",
		"peerDependencies": {"c": "*"},
		"dependencies": {"b": "^2.0.0", "a": 1},
		"overrides": {"a": "1.2.3"},
		"workspaces": "packages/*"
	}`)

	g := Build(m)

	assert.Equal(t, Root{Name: "app", Version: "1.0.0"}, g.Root)
	assert.Equal(t, []Edge{
		rootEdge("b", "dependencies", "^2.0.0"),
		rootEdge("a", "dependencies", "1"),
		rootEdge("c", "peerDependencies", "*"),
	}, g.Edges)
	assert.Equal(t, map[string]string{"a": "1.2.3"}, g.Overrides)
	assert.Equal(t, []string{"packages/*"}, g.Workspaces)
}

func TestBuild_EmptyManifest(t *testing.T) {
	g := Build(mustManifest(t, `{}`))

	assert.Equal(t, Root{}, g.Root)
	assert.Empty(t, g.Edges)
	assert.NotNil(t, g.Edges)
	assert.Empty(t, g.Overrides)
	assert.Empty(t, g.Workspaces)
}

func TestBuild_InvalidSectionsYieldNothing(t *testing.T) {
	g := Build(mustManifest(t, `{
		"dependencies": "a",
		"overrides": ["x"],
		"workspaces": 3
	}`))

	assert.Empty(t, g.Edges)
	assert.Empty(t, g.Overrides)
	assert.Empty(t, g.Workspaces)
}

func TestNormalize(t *testing.T) {
	n := Normalize(sampleGraph())

	assert.Equal(t, []Edge{
		rootEdge("a", "dependencies", "^1.0.0"),
		rootEdge("a", "optionalDependencies", "^1.0.0"),
		rootEdge("b", "devDependencies", "~2.1.0"),
		rootEdge("c", "peerDependencies", "*"),
	}, n.Edges)
	assert.Equal(t, []string{"packages/*", "tools/*"}, n.Workspaces)
	assert.Equal(t, []string{"a", "z"}, n.SortedOverrideKeys())
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	g := sampleGraph()
	before := slices.Clone(g.Edges)

	n := Normalize(g)
	n.Overrides["new"] = "x"

	assert.Equal(t, before, g.Edges)
	assert.NotContains(t, g.Overrides, "new")
}

func TestNormalize_ZeroGraph(t *testing.T) {
	n := Normalize(Graph{})

	assert.NotNil(t, n.Edges)
	assert.NotNil(t, n.Overrides)
	assert.NotNil(t, n.Workspaces)
}

func TestNormalize_Idempotent(t *testing.T) {
	graphs := []Graph{{}, sampleGraph(), Build(mustManifest(t, `{"dependencies": {"x": "1", "y": "2"}}`))}

	for _, g := range graphs {
		once := Normalize(g)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestNormalize_OrderIndependent(t *testing.T) {
	base := sampleGraph()
	want := Normalize(base)
	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 20; i++ {
		shuffled := Graph{
			Root:       base.Root,
			Edges:      slices.Clone(base.Edges),
			Overrides:  map[string]string{"a": "2.0.0", "z": "1.0.0"},
			Workspaces: slices.Clone(base.Workspaces),
		}
		rng.Shuffle(len(shuffled.Edges), func(i, j int) {
			shuffled.Edges[i], shuffled.Edges[j] = shuffled.Edges[j], shuffled.Edges[i]
		})
		rng.Shuffle(len(shuffled.Workspaces), func(i, j int) {
			shuffled.Workspaces[i], shuffled.Workspaces[j] = shuffled.Workspaces[j], shuffled.Workspaces[i]
		})

		assert.Equal(t, want, Normalize(shuffled))
		assert.True(t, Diff(&base, shuffled).Matches)
	}
}

func TestDecode(t *testing.T) {
	r := gjson.Parse(`{
		"root": {"name": "app", "version": 1},
		"edges": [
			{"to": "a", "spec": 1},
			"not-an-edge",
			{"from": "$root", "to": "c", "type": "peerDependencies", "spec": "*"}
		],
		"overrides": {"a": true},
		"workspaces": ["b", "a"]
	}`)

	g, ok := Decode(r)
	require.True(t, ok)

	assert.Equal(t, Root{Name: "app", Version: "1"}, g.Root)
	assert.Equal(t, []Edge{
		rootEdge("a", DefaultEdgeType, "1"),
		rootEdge("c", "peerDependencies", "*"),
	}, g.Edges)
	assert.Equal(t, map[string]string{"a": "true"}, g.Overrides)
	assert.Equal(t, []string{"b", "a"}, g.Workspaces)
}

func TestDecode_LooseShapes(t *testing.T) {
	g, ok := Decode(gjson.Parse(`{"root": "app", "edges": {}, "overrides": [], "workspaces": "a"}`))
	require.True(t, ok)

	assert.Equal(t, Root{}, g.Root)
	assert.Empty(t, g.Edges)
	assert.Empty(t, g.Overrides)
	assert.Empty(t, g.Workspaces)
}

func TestDecode_NotAGraph(t *testing.T) {
	for _, raw := range []string{`{}`, `null`, `[]`, `"graph"`} {
		t.Run(raw, func(t *testing.T) {
			_, ok := Decode(gjson.Parse(raw))
			assert.False(t, ok)
		})
	}

	_, ok := Decode(gjson.Parse(`{"other": 1}`).Get("expectedGraph"))
	assert.False(t, ok)
}
