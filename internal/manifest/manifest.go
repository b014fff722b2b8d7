// Package manifest loads package descriptors ("manifests") and classifies
// their sections for graph construction and coverage detection.
//
// A manifest is a JSON object such as a package.json:
//
//	{
//	  "name": "app",
//	  "version": "1.0.0",
//	  "dependencies": {"a": "^1.0.0"},
//	  "peerDependencies": {"c": "*"},
//	  "overrides": {"a": "1.2.3"},
//	  "workspaces": ["packages/*"]
//	}
//
// Every section is optional. Sections holding the wrong JSON shape are
// recorded as Invalid rather than rejected, so a manifest is only invalid as
// a whole when it is not a JSON object.
package manifest

import (
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"github.com/roach88/graphparity/internal/loose"
)

// DependencyType names one of the dependency sections of a manifest.
type DependencyType string

const (
	Dependencies         DependencyType = "dependencies"
	DevDependencies      DependencyType = "devDependencies"
	OptionalDependencies DependencyType = "optionalDependencies"
	PeerDependencies     DependencyType = "peerDependencies"
)

// DependencyTypes lists the dependency sections in the order edges are built.
var DependencyTypes = []DependencyType{
	Dependencies,
	DevDependencies,
	OptionalDependencies,
	PeerDependencies,
}

// ErrInvalid is returned when a manifest document is not a JSON object.
var ErrInvalid = errors.New("manifest is not a JSON object")

// Manifest is a parsed package descriptor. It is immutable once loaded.
type Manifest struct {
	Name    string
	Version string

	// Sections holds the classified dependency sections keyed by type.
	// A missing key and an Invalid field both mean "no edges of that type".
	Sections map[DependencyType]loose.Field[[]loose.Pair]

	Overrides  loose.Field[[]loose.Pair]
	Workspaces loose.Field[[]string]

	// WorkspacesDeclared is set when the workspaces value is non-empty in
	// any shape, including the object form {"packages": [...]} that
	// Workspaces does not classify as a sequence.
	WorkspacesDeclared bool
}

// Section returns the entries of a dependency section, or nil when the
// section is absent or not a mapping.
func (m *Manifest) Section(t DependencyType) []loose.Pair {
	f, ok := m.Sections[t]
	if !ok || !f.Valid {
		return nil
	}
	return f.Value
}

// Parse classifies a manifest document.
func Parse(data []byte) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse manifest: malformed JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, ErrInvalid
	}

	m := &Manifest{
		Name:       loose.String(doc.Get("name")),
		Version:    loose.String(doc.Get("version")),
		Sections:   make(map[DependencyType]loose.Field[[]loose.Pair], len(DependencyTypes)),
		Overrides:  loose.Pairs(doc.Get("overrides")),
		Workspaces: loose.Strings(doc.Get("workspaces")),

		WorkspacesDeclared: loose.Truthy(doc.Get("workspaces")),
	}
	for _, t := range DependencyTypes {
		m.Sections[t] = loose.Pairs(doc.Get(string(t)))
	}
	return m, nil
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
