// Package manifest implements the mod manifest store.
//
// A mod's manifest (mod.txt) is a small hand-edited key=value text file
// describing the mod's name, author, description, tags, and version. The
// store parses that text into a fixed field schema, tracks edits against a
// baseline to answer "are there unsaved changes?", and serializes edits back
// to text while preserving every line that is not a recognized field
// assignment (comments, blank lines, unknown keys) verbatim and in order.
//
// Parsing and serialization are total: malformed values fall back to
// defaults rather than failing, because manifests are free-form and
// hand-edited. The package performs no I/O; reading and writing the file
// belongs to the workspace package.
package manifest
