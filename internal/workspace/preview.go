package workspace

import (
	"io"
	"os"
	"path/filepath"
	"strings"
)

// previewExtensions is the fixed set of recognized preview image extensions,
// probed in this order.
var previewExtensions = []string{".jpg", ".jpeg", ".png", ".gif"}

// Preview returns the absolute path of the workspace preview image, probing
// preview.<ext> for each recognized extension. Returns ErrNoPreview when
// none exists.
func (w *Workspace) Preview() (string, error) {
	for _, ext := range previewExtensions {
		path := filepath.Join(w.root, "preview"+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", ErrNoPreview
}

// SetPreview copies src into the workspace as preview.<ext>, replacing any
// existing preview image regardless of its extension. The source extension
// must be one of the recognized image types.
func (w *Workspace) SetPreview(src string) error {
	ext := strings.ToLower(filepath.Ext(src))
	if !validPreviewExt(ext) {
		return ErrBadPreviewType
	}

	in, err := os.Open(src)
	if err != nil {
		return &PathError{Op: "copy", Path: src, Err: err}
	}
	defer in.Close()

	// Remove previews with other extensions first so the workspace never
	// carries two preview files.
	for _, e := range previewExtensions {
		if e == ext {
			continue
		}
		os.Remove(filepath.Join(w.root, "preview"+e))
	}

	dst := filepath.Join(w.root, "preview"+ext)
	out, err := os.Create(dst)
	if err != nil {
		return &PathError{Op: "copy", Path: dst, Err: err}
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return &PathError{Op: "copy", Path: dst, Err: err}
	}
	return nil
}

// RemovePreview deletes the workspace preview image, if any.
func (w *Workspace) RemovePreview() error {
	path, err := w.Preview()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return &PathError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

func validPreviewExt(ext string) bool {
	for _, e := range previewExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
