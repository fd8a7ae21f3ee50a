package workspace

import (
	"os"
	"path/filepath"
)

// ManifestFile is the manifest file name that marks a directory as a mod
// workspace.
const ManifestFile = "mod.txt"

// Workspace is a handle to a mod directory on disk.
type Workspace struct {
	root string
}

// Open returns a Workspace for dir. The directory must contain a manifest.
func Open(dir string) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, &PathError{Op: "open", Path: dir, Err: err}
	}

	if _, err := os.Stat(filepath.Join(abs, ManifestFile)); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, &PathError{Op: "open", Path: abs, Err: err}
	}

	return &Workspace{root: abs}, nil
}

// Find walks upward from start looking for a directory containing a
// manifest, and opens the first one found. Returns ErrNotFound when the walk
// reaches the file system root without a match.
func Find(start string) (*Workspace, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return nil, &PathError{Op: "find", Path: start, Err: err}
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err == nil {
			return &Workspace{root: dir}, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, ErrNotFound
		}
		dir = parent
	}
}

// Root returns the absolute workspace root directory.
func (w *Workspace) Root() string {
	return w.root
}

// ManifestPath returns the absolute path of the workspace manifest.
func (w *Workspace) ManifestPath() string {
	return filepath.Join(w.root, ManifestFile)
}

// ReadManifest returns the raw manifest text.
func (w *Workspace) ReadManifest() (string, error) {
	data, err := os.ReadFile(w.ManifestPath())
	if err != nil {
		return "", &PathError{Op: "read", Path: w.ManifestPath(), Err: err}
	}
	return string(data), nil
}

// WriteManifest persists manifest text atomically: the text is written to a
// temporary file in the workspace and renamed over the manifest, so a failed
// write never leaves a truncated manifest behind. The caller's in-memory
// state is untouched on failure and the save can simply be retried.
func (w *Workspace) WriteManifest(text string) error {
	tmp, err := os.CreateTemp(w.root, ManifestFile+".tmp-*")
	if err != nil {
		return &PathError{Op: "write", Path: w.ManifestPath(), Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &PathError{Op: "write", Path: w.ManifestPath(), Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &PathError{Op: "write", Path: w.ManifestPath(), Err: err}
	}

	if err := os.Rename(tmpName, w.ManifestPath()); err != nil {
		os.Remove(tmpName)
		return &PathError{Op: "write", Path: w.ManifestPath(), Err: err}
	}
	return nil
}
