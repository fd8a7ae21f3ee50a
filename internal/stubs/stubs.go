// Package stubs ships the game's Lua scripting API stub files.
//
// The stubs are annotated Lua definition files embedded in the binary. They
// are installed into a workspace-local library directory where the editor's
// Lua language server picks them up for autocomplete and signature help.
// Verify guarantees every shipped stub is loadable Lua, so a bad stub never
// reaches a user's workspace.
package stubs

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

//go:embed assets/*.lua
var assets embed.FS

// LibraryDir is the workspace-relative directory stubs are installed into.
const LibraryDir = ".modstorm/library"

// Files returns the stub file names in sorted order.
func Files() []string {
	entries, err := fs.ReadDir(assets, "assets")
	if err != nil {
		// The embed is part of the binary; a read failure is a build defect.
		panic(err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// Read returns the content of a stub file by name.
func Read(name string) ([]byte, error) {
	data, err := fs.ReadFile(assets, "assets/"+name)
	if err != nil {
		return nil, fmt.Errorf("reading stub %s: %w", name, err)
	}
	return data, nil
}

// Install materializes all stubs under root/.modstorm/library, creating the
// directory as needed. Files whose content already matches are left
// untouched so editors watching the library do not see spurious changes.
// Returns the number of files written.
func Install(root string) (int, error) {
	dir := filepath.Join(root, filepath.FromSlash(LibraryDir))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating stub library dir: %w", err)
	}

	written := 0
	for _, name := range Files() {
		data, err := Read(name)
		if err != nil {
			return written, err
		}

		dst := filepath.Join(dir, name)
		if existing, err := os.ReadFile(dst); err == nil && bytes.Equal(existing, data) {
			continue
		}

		if err := os.WriteFile(dst, data, 0o644); err != nil {
			return written, fmt.Errorf("writing stub %s: %w", dst, err)
		}
		written++
	}
	return written, nil
}
