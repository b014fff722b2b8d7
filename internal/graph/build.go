package graph

import "github.com/roach88/graphparity/internal/manifest"

// Build derives the actual graph of a manifest. The result is not
// normalized; callers compare it through Diff, which normalizes both sides.
//
// Absent or wrong-shaped sections contribute nothing. Build never fails.
func Build(m *manifest.Manifest) Graph {
	g := Graph{
		Root:       Root{Name: m.Name, Version: m.Version},
		Edges:      []Edge{},
		Overrides:  map[string]string{},
		Workspaces: []string{},
	}

	for _, t := range manifest.DependencyTypes {
		for _, dep := range m.Section(t) {
			g.Edges = append(g.Edges, Edge{
				From: RootSentinel,
				To:   dep.Key,
				Type: string(t),
				Spec: dep.Value,
			})
		}
	}

	if m.Overrides.Valid {
		for _, o := range m.Overrides.Value {
			g.Overrides[o.Key] = o.Value
		}
	}

	if m.Workspaces.Valid {
		g.Workspaces = append(g.Workspaces, m.Workspaces.Value...)
	}

	return g
}
