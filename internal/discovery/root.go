package discovery

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrRootNotFound is returned when no ancestor directory contains the manifest
var ErrRootNotFound = errors.New("project root not found")

// Locator finds the project root for a path
type Locator struct {
	manifest string
}

// NewLocator creates a Locator that looks for the given manifest file name
func NewLocator(manifest string) *Locator {
	return &Locator{manifest: manifest}
}

// Locate returns the nearest ancestor directory of path (path itself included)
// that directly contains the manifest file. The result is never cached.
func (l *Locator) Locate(path string) (string, error) {
	if path == "" {
		return "", ErrRootNotFound
	}

	dir, err := filepath.Abs(path)
	if err != nil {
		return "", ErrRootNotFound
	}

	for {
		if l.hasManifest(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrRootNotFound
		}
		dir = parent
	}
}

// hasManifest treats any stat failure as absent
func (l *Locator) hasManifest(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, l.manifest))
	return err == nil && !info.IsDir()
}
