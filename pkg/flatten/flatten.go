// Package flatten converts arbitrarily nested key-value documents into
// single-level mappings with dot-joined composite keys.
package flatten

// Flatten produces a single-level mapping from a nested document. Every key
// in the result is the dot-joined path from the root to a leaf (non-mapping)
// value, and every value is that leaf value unchanged.
//
// A branch whose value is an empty mapping contributes no entries. If two
// branches produce the same dotted path, the last one written wins (ordinary
// map overwrite semantics).
func Flatten(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	walk("", doc, out)
	return out
}

// walk recurses over nested mappings, writing leaf values into out.
func walk(prefix string, doc map[string]any, out map[string]any) {
	for key, value := range doc {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		if nested, ok := value.(map[string]any); ok {
			walk(path, nested, out)
			continue
		}

		out[path] = value
	}
}
