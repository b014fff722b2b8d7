// Package snapshot loads recorded expected graphs.
//
// A snapshot is a JSON object stored as <snapshots-dir>/<fixture>.json:
//
//	{
//	  "expectedGraph": {
//	    "root": {"name": "", "version": ""},
//	    "edges": [{"from": "$root", "to": "a", "type": "dependencies", "spec": "^1.0.0"}],
//	    "overrides": {},
//	    "workspaces": []
//	  }
//	}
//
// Loading never fails: a missing file or malformed document is reported
// through the Present and Valid flags so the caller can record the defect.
package snapshot

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/roach88/graphparity/internal/graph"
)

// Ext is the file extension of snapshot files.
const Ext = ".json"

// Snapshot is the loaded state of one snapshot file.
type Snapshot struct {
	Path string

	// Present is false when the file does not exist.
	Present bool

	// Valid is true when the file holds a JSON object.
	Valid bool

	// ExpectedGraph is the decoded expectedGraph member, or nil when it is
	// absent or not a non-empty object.
	ExpectedGraph *graph.Graph

	// Err records why the snapshot is not present or not valid.
	Err error
}

// ErrNotObject is recorded when a snapshot document is valid JSON but not an
// object.
var ErrNotObject = errors.New("snapshot is not a JSON object")

// ErrMalformed is recorded when a snapshot document is not valid JSON.
var ErrMalformed = errors.New("snapshot is not valid JSON")

// PathFor returns the snapshot path of a fixture.
func PathFor(snapshotsDir, fixture string) string {
	return filepath.Join(snapshotsDir, fixture+Ext)
}

// Load reads the snapshot at path.
func Load(path string) Snapshot {
	s := Snapshot{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		// An unreadable file still exists; it is present but not valid.
		s.Present = !errors.Is(err, fs.ErrNotExist)
		s.Err = err
		return s
	}
	s.Present = true

	return parse(s, data)
}

// Parse classifies an in-memory snapshot document.
func Parse(path string, data []byte) Snapshot {
	return parse(Snapshot{Path: path, Present: true}, data)
}

func parse(s Snapshot, data []byte) Snapshot {
	if !gjson.ValidBytes(data) {
		s.Err = ErrMalformed
		return s
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		s.Err = ErrNotObject
		return s
	}
	s.Valid = true

	if g, ok := graph.Decode(doc.Get("expectedGraph")); ok {
		s.ExpectedGraph = &g
	}
	return s
}

// IsNotExist reports whether the snapshot is absent because its file does
// not exist.
func (s Snapshot) IsNotExist() bool {
	return !s.Present && errors.Is(s.Err, fs.ErrNotExist)
}
