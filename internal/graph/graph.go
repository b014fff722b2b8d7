// Package graph builds, normalizes and compares dependency graphs.
//
// A Graph is derived from a manifest (the actual graph) or decoded from a
// snapshot (the expected graph). Both are compared only after Normalize has
// put them in canonical order, so input ordering and duplicate entries never
// affect the outcome of Diff.
package graph

import (
	"cmp"
	"slices"
)

// RootSentinel is the From value of edges declared directly by the manifest.
const RootSentinel = "$root"

// DefaultEdgeType is assumed for snapshot edges that omit their type.
const DefaultEdgeType = "dependencies"

// Root identifies the package a graph belongs to.
type Root struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

// Edge is a directed dependency relationship. Its identity is the full
// (From, To, Type, Spec) tuple.
type Edge struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	Type string `json:"type" yaml:"type"`
	Spec string `json:"spec" yaml:"spec"`
}

// EdgeKey is the comparable identity of an Edge.
type EdgeKey [4]string

// Key returns the identity tuple of e.
func (e Edge) Key() EdgeKey {
	return EdgeKey{e.From, e.To, e.Type, e.Spec}
}

// compareEdges orders edges by (From, To, Type, Spec).
func compareEdges(a, b Edge) int {
	return cmp.Or(
		cmp.Compare(a.From, b.From),
		cmp.Compare(a.To, b.To),
		cmp.Compare(a.Type, b.Type),
		cmp.Compare(a.Spec, b.Spec),
	)
}

// Graph is a dependency graph for one package.
type Graph struct {
	Root       Root              `json:"root" yaml:"root"`
	Edges      []Edge            `json:"edges" yaml:"edges"`
	Overrides  map[string]string `json:"overrides" yaml:"overrides"`
	Workspaces []string          `json:"workspaces" yaml:"workspaces"`
}

// SortedOverrideKeys returns the override keys in ascending order.
func (g Graph) SortedOverrideKeys() []string {
	keys := make([]string, 0, len(g.Overrides))
	for k := range g.Overrides {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
