package manifest

import (
	"fmt"
	"slices"
)

// Category is a structural feature a manifest may exercise. Coverage of
// each category is counted across a fixture corpus.
type Category string

const (
	CategoryPeer       Category = "peer"
	CategoryOptional   Category = "optional"
	CategoryOverrides  Category = "overrides"
	CategoryWorkspaces Category = "workspaces"
)

// Detector reports whether a manifest exercises a category.
type Detector func(m *Manifest) bool

// Detectors is the predicate table, one entry per category. New categories
// are added here and to Categories.
var Detectors = map[Category]Detector{
	CategoryPeer: func(m *Manifest) bool {
		return len(m.Section(PeerDependencies)) > 0
	},
	CategoryOptional: func(m *Manifest) bool {
		return len(m.Section(OptionalDependencies)) > 0
	},
	CategoryOverrides: func(m *Manifest) bool {
		return m.Overrides.Valid && len(m.Overrides.Value) > 0
	},
	CategoryWorkspaces: func(m *Manifest) bool {
		return m.WorkspacesDeclared
	},
}

// Categories lists every known category in report order.
var Categories = []Category{
	CategoryPeer,
	CategoryOptional,
	CategoryOverrides,
	CategoryWorkspaces,
}

// Detect runs every detector against m and returns the categories that
// fired, in Categories order.
func Detect(m *Manifest) []Category {
	found := []Category{}
	for _, c := range Categories {
		if Detectors[c](m) {
			found = append(found, c)
		}
	}
	return found
}

// ParseCategory converts a name to a known Category.
func ParseCategory(name string) (Category, error) {
	c := Category(name)
	if !slices.Contains(Categories, c) {
		return "", fmt.Errorf("unknown edge category %q", name)
	}
	return c, nil
}
