package graph

import (
	"github.com/tidwall/gjson"

	"github.com/roach88/graphparity/internal/loose"
)

// Decode reads an expected graph recorded in a snapshot. It reports false
// when r is not a non-empty JSON object, which Diff treats as a missing
// expected graph.
//
// Fields are coerced with loose.String. Edge entries that are not objects
// are skipped, and missing edge fields default to From=RootSentinel,
// Type=DefaultEdgeType and empty To/Spec. A non-object root or overrides
// value and a non-array workspaces value decode as empty.
func Decode(r gjson.Result) (Graph, bool) {
	if !loose.Object(r) {
		return Graph{}, false
	}

	g := Graph{
		Edges:      []Edge{},
		Overrides:  map[string]string{},
		Workspaces: []string{},
	}

	if root := r.Get("root"); root.IsObject() {
		g.Root = Root{
			Name:    loose.String(root.Get("name")),
			Version: loose.String(root.Get("version")),
		}
	}

	if edges := r.Get("edges"); edges.IsArray() {
		edges.ForEach(func(_, e gjson.Result) bool {
			if !e.IsObject() {
				return true
			}
			g.Edges = append(g.Edges, Edge{
				From: stringOr(e.Get("from"), RootSentinel),
				To:   loose.String(e.Get("to")),
				Type: stringOr(e.Get("type"), DefaultEdgeType),
				Spec: loose.String(e.Get("spec")),
			})
			return true
		})
	}

	if overrides := loose.Pairs(r.Get("overrides")); overrides.Valid {
		for _, o := range overrides.Value {
			g.Overrides[o.Key] = o.Value
		}
	}

	if ws := r.Get("workspaces"); ws.IsArray() {
		g.Workspaces = loose.Strings(ws).Value
	}

	return g, true
}

func stringOr(r gjson.Result, fallback string) string {
	if !r.Exists() {
		return fallback
	}
	return loose.String(r)
}
