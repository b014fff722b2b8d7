package graph

// Diff reasons.
const (
	ReasonMissingExpected = "missing expectedGraph in snapshot"
	ReasonMismatch        = "semantic graph mismatch"
)

// RootDiff compares the root identities of two graphs.
type RootDiff struct {
	Expected Root `json:"expected" yaml:"expected"`
	Actual   Root `json:"actual" yaml:"actual"`
	Matches  bool `json:"matches" yaml:"matches"`
}

// EdgeDiff lists edges present on only one side.
type EdgeDiff struct {
	Missing []Edge `json:"missing" yaml:"missing"`
	Extra   []Edge `json:"extra" yaml:"extra"`
}

// OverrideDiff lists override entries whose value is not matched on the
// other side.
type OverrideDiff struct {
	Missing map[string]string `json:"missing" yaml:"missing"`
	Extra   map[string]string `json:"extra" yaml:"extra"`
}

// WorkspaceDiff lists workspace globs present on only one side.
type WorkspaceDiff struct {
	Missing []string `json:"missing" yaml:"missing"`
	Extra   []string `json:"extra" yaml:"extra"`
}

// SemanticDiff is the structured difference between an expected and an
// actual graph. Missing entries are expected but absent from the actual
// graph; Extra entries are actual but not expected.
type SemanticDiff struct {
	Matches    bool          `json:"matches" yaml:"matches"`
	Reason     *string       `json:"reason" yaml:"reason"`
	Root       *RootDiff     `json:"root" yaml:"root"`
	Edges      EdgeDiff      `json:"edges" yaml:"edges"`
	Overrides  OverrideDiff  `json:"overrides" yaml:"overrides"`
	Workspaces WorkspaceDiff `json:"workspaces" yaml:"workspaces"`
}

// Size returns the number of differing entries across all sub-diffs,
// counting a root mismatch as one.
func (d SemanticDiff) Size() int {
	n := len(d.Edges.Missing) + len(d.Edges.Extra) +
		len(d.Overrides.Missing) + len(d.Overrides.Extra) +
		len(d.Workspaces.Missing) + len(d.Workspaces.Extra)
	if d.Root != nil && !d.Root.Matches {
		n++
	}
	return n
}

// ReasonString returns the diff reason, or "" when the graphs match.
func (d SemanticDiff) ReasonString() string {
	if d.Reason == nil {
		return ""
	}
	return *d.Reason
}

// InputDiff returns a non-matching diff with empty sub-diffs, used when the
// inputs could not be compared at all.
func InputDiff(reason string) SemanticDiff {
	return SemanticDiff{
		Matches:    false,
		Reason:     &reason,
		Edges:      EdgeDiff{Missing: []Edge{}, Extra: []Edge{}},
		Overrides:  OverrideDiff{Missing: map[string]string{}, Extra: map[string]string{}},
		Workspaces: WorkspaceDiff{Missing: []string{}, Extra: []string{}},
	}
}

// Diff compares an expected graph with an actual graph. A nil expected graph
// yields InputDiff(ReasonMissingExpected). Both graphs are normalized first,
// so either raw or normalized graphs may be passed.
//
// Comparison is value-sensitive: an edge whose spec changed appears once in
// Missing (old spec) and once in Extra (new spec), and an override whose
// value changed appears in both Missing and Extra. Output lists follow the
// Normalize order, so identical inputs always produce identical diffs.
func Diff(expected *Graph, actual Graph) SemanticDiff {
	if expected == nil {
		return InputDiff(ReasonMissingExpected)
	}

	exp := Normalize(*expected)
	act := Normalize(actual)

	d := SemanticDiff{
		Root: &RootDiff{
			Expected: exp.Root,
			Actual:   act.Root,
			Matches:  exp.Root == act.Root,
		},
		Edges: EdgeDiff{
			Missing: edgesNotIn(exp.Edges, act.Edges),
			Extra:   edgesNotIn(act.Edges, exp.Edges),
		},
		Overrides: OverrideDiff{
			Missing: overridesNotIn(exp.Overrides, act.Overrides),
			Extra:   overridesNotIn(act.Overrides, exp.Overrides),
		},
		Workspaces: WorkspaceDiff{
			Missing: stringsNotIn(exp.Workspaces, act.Workspaces),
			Extra:   stringsNotIn(act.Workspaces, exp.Workspaces),
		},
	}

	d.Matches = d.Size() == 0
	if !d.Matches {
		reason := ReasonMismatch
		d.Reason = &reason
	}
	return d
}

// edgesNotIn returns the edges of a whose key is absent from b, keeping the
// order of a.
func edgesNotIn(a, b []Edge) []Edge {
	keys := make(map[EdgeKey]struct{}, len(b))
	for _, e := range b {
		keys[e.Key()] = struct{}{}
	}
	out := []Edge{}
	for _, e := range a {
		if _, ok := keys[e.Key()]; !ok {
			out = append(out, e)
		}
	}
	return out
}

// overridesNotIn returns the entries of a that b does not hold with the same
// value. An absent key and a different value are reported alike.
func overridesNotIn(a, b map[string]string) map[string]string {
	out := map[string]string{}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			out[k] = v
		}
	}
	return out
}

func stringsNotIn(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[s] = struct{}{}
	}
	out := []string{}
	for _, s := range a {
		if _, ok := set[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}
