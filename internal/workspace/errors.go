package workspace

import (
	"errors"
	"fmt"
)

// Standard errors returned by the workspace package.
var (
	// ErrNotFound indicates no mod workspace was found.
	ErrNotFound = errors.New("no mod workspace found")

	// ErrNoPreview indicates the workspace has no preview image.
	ErrNoPreview = errors.New("no preview image")

	// ErrBadPreviewType indicates an unsupported preview image extension.
	ErrBadPreviewType = errors.New("unsupported preview image type")
)

// PathError represents an error associated with a file path.
type PathError struct {
	Op   string // Operation that failed (read, write, copy, etc.)
	Path string // File path
	Err  error  // Underlying error
}

// Error implements the error interface.
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *PathError) Unwrap() error {
	return e.Err
}
