// Package transform implements the named single-value conversions applied to
// extracted field values, and static value-mapping tables.
package transform

import (
	"sort"
	"strings"
)

// Func converts one value. Implementations never fail: input they cannot
// handle is returned in a documented fallback form.
type Func func(value string) string

// Names of the built-in transforms. Lookup is case-insensitive.
const (
	DateISO8601   = "date_ISO8601"
	YesNoBoolean  = "yesNoBoolean"
	Numeric       = "numeric"
	MultiCheckbox = "multiCheckbox"
)

// Registry holds named transforms and provides lookup.
type Registry struct {
	transforms map[string]namedFunc
}

type namedFunc struct {
	name string
	fn   Func
}

// NewRegistry creates a new empty transform registry.
func NewRegistry() *Registry {
	return &Registry{transforms: make(map[string]namedFunc)}
}

var builtins = NewBuiltinRegistry()

// NewBuiltinRegistry creates a registry holding the built-in transforms.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	r.Register(DateISO8601, Date)
	r.Register(YesNoBoolean, YesNo)
	r.Register(Numeric, CleanNumber)
	r.Register(MultiCheckbox, MultiSelect)

	return r
}

// Builtins returns the shared registry of built-in transforms. It must not be modified.
func Builtins() *Registry {
	return builtins
}

// Register adds or replaces a transform.
func (r *Registry) Register(name string, fn Func) {
	r.transforms[strings.ToLower(name)] = namedFunc{name: name, fn: fn}
}

// Get returns the transform registered under name, ignoring case.
func (r *Registry) Get(name string) (Func, bool) {
	nf, ok := r.transforms[strings.ToLower(strings.TrimSpace(name))]
	return nf.fn, ok
}

// Has returns true if a transform with the given name exists.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.transforms))
	for _, nf := range r.transforms {
		names = append(names, nf.name)
	}

	sort.Strings(names)

	return names
}

// Apply runs the transform called name on value. Blank and unknown names leave
// the value unchanged. Each transform decides what a blank value becomes.
func (r *Registry) Apply(value, name string) string {
	if strings.TrimSpace(name) == "" {
		return value
	}

	fn, ok := r.Get(name)
	if !ok {
		return value
	}

	return fn(value)
}

// Apply runs a built-in transform on value.
func Apply(value, name string) string {
	return builtins.Apply(value, name)
}
