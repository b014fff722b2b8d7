package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Corpus is an on-disk fixture corpus rooted in a test's temp directory:
//
//	<root>/fixtures/<name>/package.json
//	<root>/snapshots/<name>.json
type Corpus struct {
	t            *testing.T
	Root         string
	FixturesDir  string
	SnapshotsDir string
}

// NewCorpus creates empty fixtures and snapshots directories.
func NewCorpus(t *testing.T) *Corpus {
	t.Helper()
	root := t.TempDir()
	c := &Corpus{
		t:            t,
		Root:         root,
		FixturesDir:  filepath.Join(root, "fixtures"),
		SnapshotsDir: filepath.Join(root, "snapshots"),
	}
	require.NoError(t, os.MkdirAll(c.FixturesDir, 0755))
	require.NoError(t, os.MkdirAll(c.SnapshotsDir, 0755))
	return c
}

// AddManifest writes <fixtures>/<name>/package.json.
func (c *Corpus) AddManifest(name, manifestJSON string) string {
	c.t.Helper()
	return c.AddFile(name, "package.json", manifestJSON)
}

// AddFile writes an arbitrary file into the fixture directory, creating it
// if needed.
func (c *Corpus) AddFile(name, file, content string) string {
	c.t.Helper()
	dir := filepath.Join(c.FixturesDir, name)
	require.NoError(c.t, os.MkdirAll(dir, 0755))
	path := filepath.Join(dir, file)
	require.NoError(c.t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// AddSnapshot writes <snapshots>/<name>.json.
func (c *Corpus) AddSnapshot(name, snapshotJSON string) string {
	c.t.Helper()
	path := c.SnapshotPath(name)
	require.NoError(c.t, os.WriteFile(path, []byte(snapshotJSON), 0644))
	return path
}

// Add writes both the manifest and the snapshot of a fixture.
func (c *Corpus) Add(name, manifestJSON, snapshotJSON string) {
	c.t.Helper()
	c.AddManifest(name, manifestJSON)
	c.AddSnapshot(name, snapshotJSON)
}

// SnapshotPath returns where the snapshot of name lives.
func (c *Corpus) SnapshotPath(name string) string {
	return filepath.Join(c.SnapshotsDir, name+".json")
}

// ManifestPath returns where the manifest of name lives.
func (c *Corpus) ManifestPath(name string) string {
	return filepath.Join(c.FixturesDir, name, "package.json")
}

// Common documents used across package tests.
const (
	// PeerManifest declares one dependency and one peer dependency.
	PeerManifest = `{"dependencies": {"a": "^1.0.0"}, "peerDependencies": {"c": "*"}}`

	// PeerSnapshot records the graph of PeerManifest.
	PeerSnapshot = `{
  "expectedGraph": {
    "root": {"name": "", "version": ""},
    "edges": [
      {"from": "$root", "to": "a", "type": "dependencies", "spec": "^1.0.0"},
      {"from": "$root", "to": "c", "type": "peerDependencies", "spec": "*"}
    ],
    "overrides": {},
    "workspaces": []
  }
}`

	// PeerSnapshotExtraEdge expects an edge to "d" that PeerManifest lacks.
	PeerSnapshotExtraEdge = `{
  "expectedGraph": {
    "root": {"name": "", "version": ""},
    "edges": [
      {"from": "$root", "to": "a", "type": "dependencies", "spec": "^1.0.0"},
      {"from": "$root", "to": "c", "type": "peerDependencies", "spec": "*"},
      {"from": "$root", "to": "d", "type": "dependencies", "spec": "^1.0.0"}
    ],
    "overrides": {},
    "workspaces": []
  }
}`

	// FullManifest exercises every coverage category.
	FullManifest = `{
  "name": "mono",
  "version": "2.0.0",
  "dependencies": {"a": "^1.0.0"},
  "optionalDependencies": {"o": "~1.1.0"},
  "peerDependencies": {"p": ">=2"},
  "overrides": {"a": "1.2.3"},
  "workspaces": ["packages/*"]
}`

	// FullSnapshot records the graph of FullManifest in shuffled order.
	FullSnapshot = `{
  "expectedGraph": {
    "root": {"name": "mono", "version": "2.0.0"},
    "edges": [
      {"from": "$root", "to": "p", "type": "peerDependencies", "spec": ">=2"},
      {"from": "$root", "to": "o", "type": "optionalDependencies", "spec": "~1.1.0"},
      {"from": "$root", "to": "a", "type": "dependencies", "spec": "^1.0.0"}
    ],
    "overrides": {"a": "1.2.3"},
    "workspaces": ["packages/*"]
  }
}`
)
