package manifest

// FieldKey identifies one of the recognized manifest fields.
//
// The set of fields is fixed: adding a field means adding a constant here
// and extending the typed accessors, which the compiler checks, rather than
// threading a new string through per-key switch branches.
type FieldKey int

const (
	// FieldName is the mod's display name.
	FieldName FieldKey = iota

	// FieldAuthor is the mod author.
	FieldAuthor

	// FieldDescription is the one-line mod description.
	FieldDescription

	// FieldTags is the ordered list of tag tokens.
	FieldTags

	// FieldVersion is the integer mod version.
	FieldVersion

	numFields
)

// DefaultVersion is the version a freshly parsed manifest reports when the
// file carries no usable version line.
const DefaultVersion = 0

// String returns the key as it appears in the manifest file.
func (k FieldKey) String() string {
	switch k {
	case FieldName:
		return "name"
	case FieldAuthor:
		return "author"
	case FieldDescription:
		return "description"
	case FieldTags:
		return "tags"
	case FieldVersion:
		return "version"
	default:
		return "unknown"
	}
}

// Keys returns all recognized field keys in scan order. Parsing matches a
// line against the keys in this order and takes the first match; serialization
// appends missing fields in this order.
func Keys() []FieldKey {
	return []FieldKey{FieldName, FieldAuthor, FieldDescription, FieldTags, FieldVersion}
}

// Valid reports whether k names a recognized field.
func (k FieldKey) Valid() bool {
	return k >= FieldName && k < numFields
}

// ParseFieldKey maps a manifest key name to its FieldKey.
// Returns false for unrecognized names.
func ParseFieldKey(name string) (FieldKey, bool) {
	for _, k := range Keys() {
		if k.String() == name {
			return k, true
		}
	}
	return numFields, false
}
