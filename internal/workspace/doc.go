// Package workspace provides file system access for a mod workspace.
//
// A directory is a mod workspace iff it contains a mod.txt manifest; the
// manifest's presence is the activation signal for the rest of the tooling.
// The package owns all manifest I/O (the manifest store itself never touches
// the disk), preview image management, and a watcher that reports external
// edits to the manifest while a panel is open.
package workspace
