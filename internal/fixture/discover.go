package fixture

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/graphparity/internal/snapshot"
)

// Configuration errors. They abort a run before any fixture is evaluated.
var (
	ErrFixturesDirNotFound  = errors.New("fixtures directory not found")
	ErrSnapshotsDirNotFound = errors.New("snapshots directory not found")
)

// IsConfigError reports whether err is one of the configuration errors of
// this package.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrFixturesDirNotFound) || errors.Is(err, ErrSnapshotsDirNotFound)
}

// Discover lists the fixtures under fixturesDir: every immediate
// subdirectory, including symlinks to directories, sorted by name. A non-empty filter is a doublestar glob
// matched against fixture names ("peer-*", "{peer,optional}-*").
//
// Both fixturesDir and the evaluator's snapshots directory must exist.
func (e *Evaluator) Discover(fixturesDir, filter string) ([]Paths, error) {
	if err := requireDir(fixturesDir, ErrFixturesDirNotFound); err != nil {
		return nil, err
	}
	if err := requireDir(e.SnapshotsDir, ErrSnapshotsDirNotFound); err != nil {
		return nil, err
	}
	if filter != "" && !doublestar.ValidatePattern(filter) {
		return nil, fmt.Errorf("invalid filter pattern %q", filter)
	}

	entries, err := os.ReadDir(fixturesDir)
	if err != nil {
		return nil, fmt.Errorf("scan fixtures directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !isDir(fixturesDir, entry) {
			continue
		}
		if filter != "" {
			ok, err := doublestar.Match(filter, entry.Name())
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern %q: %w", filter, err)
			}
			if !ok {
				continue
			}
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	paths := make([]Paths, 0, len(names))
	for _, name := range names {
		paths = append(paths, e.PathsFor(fixturesDir, name))
	}
	return paths, nil
}

// PathsFor returns the input locations of the named fixture.
func (e *Evaluator) PathsFor(fixturesDir, name string) Paths {
	dir := filepath.Join(fixturesDir, name)
	return Paths{
		Name:         name,
		Dir:          dir,
		ManifestPath: filepath.Join(dir, e.manifestFile()),
		SnapshotPath: snapshot.PathFor(e.SnapshotsDir, name),
	}
}

// isDir reports whether entry is a directory, following symlinks.
func isDir(parent string, entry fs.DirEntry) bool {
	if entry.Type()&fs.ModeSymlink == 0 {
		return entry.IsDir()
	}
	info, err := os.Stat(filepath.Join(parent, entry.Name()))
	return err == nil && info.IsDir()
}

func requireDir(path string, sentinel error) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", sentinel, path)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", sentinel, path)
	}
	return nil
}
