// Package settings persists the extension's editor configuration toggles.
//
// The toggles are a small fixed set of boolean flags (stub autocomplete,
// format on save, panel auto-open) addressed by dot-separated path and
// stored as TOML in the user configuration directory. This is the settings
// registry pattern scaled down to booleans: every flag is registered with a
// default and description, and unknown paths are compile-visible errors
// rather than silently created keys.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Standard errors returned by the settings package.
var (
	// ErrUnknownFlag indicates the flag path is not registered.
	ErrUnknownFlag = errors.New("unknown settings flag")
)

// Builtin flag paths.
const (
	// FlagStubAutocomplete controls whether API stubs are installed into the
	// workspace for editor autocomplete.
	FlagStubAutocomplete = "stubs.autocomplete"

	// FlagFormatOnSave controls Lua formatting on save.
	FlagFormatOnSave = "editor.formatOnSave"

	// FlagPanelAutoOpen controls opening the mod panel when a workspace is
	// detected.
	FlagPanelAutoOpen = "panel.autoOpen"
)

// Flag defines a configuration toggle with its metadata.
type Flag struct {
	// Path is the dot-separated path (e.g., "stubs.autocomplete").
	Path string

	// Default is the value when the flag is unset.
	Default bool

	// Description is human-readable documentation.
	Description string
}

// Change describes a flag update delivered to observers.
type Change struct {
	Path     string
	OldValue bool
	NewValue bool
}

// Observer is called after a flag value changes.
type Observer func(Change)

// Registry holds flag definitions and current values, persisting them to a
// TOML file. Reads fall back to defaults when the file or key is missing;
// a missing file is not an error.
type Registry struct {
	mu sync.RWMutex

	path      string
	defs      map[string]Flag
	values    map[string]bool
	observers []Observer
}

// New creates a registry backed by the TOML file at path and registers the
// builtin flags. Values present in the file are loaded immediately.
func New(path string) (*Registry, error) {
	r := &Registry{
		path:   path,
		defs:   make(map[string]Flag),
		values: make(map[string]bool),
	}

	for _, f := range builtinFlags() {
		r.defs[f.Path] = f
	}

	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// DefaultPath returns the standard location of the settings file.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "modstorm", "config.toml")
}

func builtinFlags() []Flag {
	return []Flag{
		{Path: FlagStubAutocomplete, Default: true, Description: "Install Lua API stubs into the workspace for autocomplete"},
		{Path: FlagFormatOnSave, Default: false, Description: "Format Lua scripts on save"},
		{Path: FlagPanelAutoOpen, Default: true, Description: "Open the mod panel when a mod workspace is detected"},
	}
}

// Flags returns all registered flag definitions sorted by path.
func (r *Registry) Flags() []Flag {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Flag, 0, len(r.defs))
	for _, f := range r.defs {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Get returns the current value of a flag, or its default when unset.
// Unregistered paths return false.
func (r *Registry) Get(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if v, ok := r.values[path]; ok {
		return v
	}
	if def, ok := r.defs[path]; ok {
		return def.Default
	}
	return false
}

// Set updates a flag and writes the settings file through. Observers fire
// after a successful persist, and only when the value actually changed.
func (r *Registry) Set(path string, value bool) error {
	r.mu.Lock()

	if _, ok := r.defs[path]; !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownFlag, path)
	}

	old := r.values[path]
	if _, set := r.values[path]; !set {
		old = r.defs[path].Default
	}

	r.values[path] = value
	if err := r.save(); err != nil {
		// Roll back so in-memory state matches the file.
		if old == r.defs[path].Default {
			delete(r.values, path)
		} else {
			r.values[path] = old
		}
		r.mu.Unlock()
		return err
	}

	observers := make([]Observer, len(r.observers))
	copy(observers, r.observers)
	r.mu.Unlock()

	if old != value {
		for _, obs := range observers {
			obs(Change{Path: path, OldValue: old, NewValue: value})
		}
	}
	return nil
}

// Toggle flips a flag and returns the new value.
func (r *Registry) Toggle(path string) (bool, error) {
	next := !r.Get(path)
	if err := r.Set(path, next); err != nil {
		return false, err
	}
	return next, nil
}

// Subscribe registers an observer for flag changes.
func (r *Registry) Subscribe(obs Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, obs)
}

// load reads the settings file into the value map. Unknown keys in the file
// are ignored; they may belong to a newer version.
func (r *Registry) load() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading settings file %s: %w", r.path, err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing settings file %s: %w", r.path, err)
	}

	for path := range r.defs {
		if v, ok := lookupBool(raw, path); ok {
			r.values[path] = v
		}
	}
	return nil
}

// save writes all explicitly set values as nested TOML sections.
// Caller holds r.mu.
func (r *Registry) save() error {
	nested := make(map[string]any)
	for path, v := range r.values {
		section, key, ok := strings.Cut(path, ".")
		if !ok {
			nested[path] = v
			continue
		}
		sec, _ := nested[section].(map[string]any)
		if sec == nil {
			sec = make(map[string]any)
			nested[section] = sec
		}
		sec[key] = v
	}

	data, err := toml.Marshal(nested)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		return fmt.Errorf("writing settings file %s: %w", r.path, err)
	}
	return nil
}

// lookupBool resolves a dot-separated path in a decoded TOML map.
func lookupBool(raw map[string]any, path string) (bool, bool) {
	section, key, ok := strings.Cut(path, ".")
	if !ok {
		v, ok := raw[path].(bool)
		return v, ok
	}
	sec, ok := raw[section].(map[string]any)
	if !ok {
		return false, false
	}
	v, ok := sec[key].(bool)
	return v, ok
}
