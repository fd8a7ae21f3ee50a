package manifest

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// line is one retained line of the original manifest text. Field lines are
// slots that serialization fills with the current field value; passthrough
// lines are reproduced verbatim.
type line struct {
	raw   string // original text without line terminator
	key   FieldKey
	field bool
}

// Store holds the parsed manifest fields, the retained line list for
// round-trip serialization, and the baseline snapshot used to compute the
// dirty flag.
//
// A Store is not goroutine-safe. Each open panel owns exactly one Store and
// mutates it from a single goroutine; there is no cross-panel sharing.
type Store struct {
	name        string
	author      string
	description string
	tags        []string
	version     int

	lines    []line
	baseline [numFields]string
}

// Parse builds a Store from raw manifest text. It never fails: lines that
// are empty, start with '#', or contain no '=' pass through untouched;
// unrecognized key=value lines pass through untouched; malformed values fall
// back to their schema default. Any line ending convention is accepted;
// serialization always emits "\n".
func Parse(raw string) *Store {
	s := &Store{version: DefaultVersion}

	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	split := strings.Split(normalized, "\n")
	// A trailing newline produces one empty trailing element; that element
	// is the terminator of the previous line, not a blank line of its own.
	if n := len(split); n > 0 && split[n-1] == "" {
		split = split[:n-1]
	}

	for _, text := range split {
		key, ok := matchFieldLine(text)
		if !ok {
			s.lines = append(s.lines, line{raw: text})
			continue
		}

		value := strings.TrimSpace(text[strings.IndexByte(text, '=')+1:])
		s.applyParsedValue(key, value)
		s.lines = append(s.lines, line{key: key, field: true})
	}

	s.resetBaseline()
	return s
}

// matchFieldLine classifies a single line. A field line is any line that,
// with all whitespace removed, starts with "<key>=" for one of the
// recognized keys; keys are tried in scan order and the first match wins.
func matchFieldLine(text string) (FieldKey, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") || !strings.Contains(text, "=") {
		return numFields, false
	}

	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)

	for _, k := range Keys() {
		if strings.HasPrefix(stripped, k.String()+"=") {
			return k, true
		}
	}
	return numFields, false
}

// applyParsedValue converts a raw value during Parse. Version falls back to
// the schema default here; interactive edits via SetField fall back to the
// previous value instead.
func (s *Store) applyParsedValue(key FieldKey, value string) {
	switch key {
	case FieldName:
		s.name = value
	case FieldAuthor:
		s.author = value
	case FieldDescription:
		s.description = value
	case FieldTags:
		s.tags = strings.Fields(value)
	case FieldVersion:
		v, err := strconv.Atoi(value)
		if err != nil {
			v = DefaultVersion
		}
		s.version = v
	}
}

// Name returns the mod name.
func (s *Store) Name() string { return s.name }

// SetName sets the mod name.
func (s *Store) SetName(v string) { s.name = strings.TrimSpace(v) }

// Author returns the mod author.
func (s *Store) Author() string { return s.author }

// SetAuthor sets the mod author.
func (s *Store) SetAuthor(v string) { s.author = strings.TrimSpace(v) }

// Description returns the mod description.
func (s *Store) Description() string { return s.description }

// SetDescription sets the mod description.
func (s *Store) SetDescription(v string) { s.description = strings.TrimSpace(v) }

// Tags returns a copy of the tag list.
func (s *Store) Tags() []string {
	out := make([]string, len(s.tags))
	copy(out, s.tags)
	return out
}

// SetTags replaces the tag list. Tokens are trimmed and empty tokens dropped.
func (s *Store) SetTags(tags []string) {
	cleaned := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			cleaned = append(cleaned, t)
		}
	}
	s.tags = cleaned
}

// Version returns the mod version.
func (s *Store) Version() int { return s.version }

// SetVersion sets the mod version.
func (s *Store) SetVersion(v int) { s.version = v }

// Field returns the current string form of a field, as it would appear on
// the right-hand side of its manifest line. Unrecognized keys return "".
func (s *Store) Field(key FieldKey) string {
	switch key {
	case FieldName:
		return s.name
	case FieldAuthor:
		return s.author
	case FieldDescription:
		return s.description
	case FieldTags:
		return strings.Join(s.tags, " ")
	case FieldVersion:
		return strconv.Itoa(s.version)
	default:
		return ""
	}
}

// SetField applies an edit from its string form. Tags are split on
// whitespace. A version value that does not parse keeps the previous
// version rather than resetting it, so a single bad keystroke in the panel
// never clobbers the field. Unrecognized keys are ignored.
func (s *Store) SetField(key FieldKey, value string) {
	switch key {
	case FieldName:
		s.SetName(value)
	case FieldAuthor:
		s.SetAuthor(value)
	case FieldDescription:
		s.SetDescription(value)
	case FieldTags:
		s.tags = strings.Fields(value)
	case FieldVersion:
		if v, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			s.version = v
		}
	}
}

// Dirty reports whether any field differs from the baseline captured at the
// last Parse or Commit. It compares on demand rather than caching a flag, so
// it cannot go stale from a missed invalidation.
func (s *Store) Dirty() bool {
	for _, k := range Keys() {
		if s.Field(k) != s.baseline[k] {
			return true
		}
	}
	return false
}

// Serialize renders the manifest back to text. Passthrough lines are emitted
// verbatim in original order; each field slot is rewritten as
// "<key> = <value>\n" from the current value. Exactly one line per
// recognized field appears in the output: duplicate slots for an
// already-emitted key are dropped, and fields never seen in the original
// text are appended at the end in schema order.
func (s *Store) Serialize() string {
	var b strings.Builder
	var emitted [numFields]bool

	for _, ln := range s.lines {
		if !ln.field {
			b.WriteString(ln.raw)
			b.WriteByte('\n')
			continue
		}
		if emitted[ln.key] {
			continue
		}
		emitted[ln.key] = true
		fmt.Fprintf(&b, "%s = %s\n", ln.key, s.Field(ln.key))
	}

	for _, k := range Keys() {
		if !emitted[k] {
			fmt.Fprintf(&b, "%s = %s\n", k, s.Field(k))
		}
	}

	return b.String()
}

// Commit resets the dirty baseline to the current field values. Call it
// after the serialized text has been written to disk.
func (s *Store) Commit() {
	s.resetBaseline()
}

func (s *Store) resetBaseline() {
	for _, k := range Keys() {
		s.baseline[k] = s.Field(k)
	}
}
