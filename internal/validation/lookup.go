package validation

import (
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/jsonpath"
)

// ExtensionKey is the document member holding domain specific groups.
const ExtensionKey = "extension"

// Document is a decoded source document. Rules only read it.
type Document map[string]any

// Field resolves a rule field name. The name is tried as a top-level key,
// then as a key of the extension object, then as a path inside the
// extension object and finally as a path from the root.
func (d Document) Field(name string) (any, bool) {
	if v, ok := d[name]; ok && v != nil {
		return v, true
	}

	if ext, ok := jsonpath.Object(d[ExtensionKey]); ok {
		if v, ok := ext[name]; ok && v != nil {
			return v, true
		}

		if v, ok := jsonpath.Lookup(ext, name); ok && v != nil {
			return v, true
		}
	}

	if v, ok := jsonpath.Lookup(map[string]any(d), name); ok && v != nil {
		return v, true
	}

	return nil, false
}

// Rows resolves a grid by name. A grid is a JSON array, or an object whose
// `rows` member is one. It returns nil when the grid is absent.
func (d Document) Rows(name string) []any {
	v, ok := d.Field(name)
	if !ok {
		return nil
	}

	if rows, ok := jsonpath.Collection(v); ok {
		return rows
	}

	if obj, ok := jsonpath.Object(v); ok {
		if rows, ok := jsonpath.Collection(obj["rows"]); ok {
			return rows
		}
	}

	return nil
}
