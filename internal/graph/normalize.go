package graph

import (
	"maps"
	"slices"
)

// Normalize returns the canonical form of g: edges deduplicated and sorted by
// (From, To, Type, Spec), a copied overrides map, and workspaces deduplicated
// and sorted. Nil collections become empty ones.
//
// Normalize is pure and idempotent. Two graphs that differ only in ordering
// or duplicate entries normalize to equal values.
func Normalize(g Graph) Graph {
	edges := slices.Clone(g.Edges)
	if edges == nil {
		edges = []Edge{}
	}
	slices.SortFunc(edges, compareEdges)
	edges = slices.CompactFunc(edges, func(a, b Edge) bool { return a == b })

	overrides := maps.Clone(g.Overrides)
	if overrides == nil {
		overrides = map[string]string{}
	}

	workspaces := slices.Clone(g.Workspaces)
	if workspaces == nil {
		workspaces = []string{}
	}
	slices.Sort(workspaces)
	workspaces = slices.Compact(workspaces)

	return Graph{
		Root:       g.Root,
		Edges:      edges,
		Overrides:  overrides,
		Workspaces: workspaces,
	}
}
