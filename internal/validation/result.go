package validation

import (
	"fmt"
	"strings"
)

// Metadata keys set by the data quality validator.
const (
	MetaTotalFieldsValidated = "totalFieldsValidated"
	MetaTimestamp            = "timestamp"
)

// Result accumulates the violations found in one document.
type Result struct {
	errors   []Error
	byField  map[string][]int
	Metadata map[string]any
}

// NewResult creates an empty, valid result.
func NewResult() *Result {
	return &Result{
		byField:  make(map[string][]int),
		Metadata: make(map[string]any),
	}
}

// Add records errors. Nil errors are ignored.
func (r *Result) Add(errs ...*Error) {
	for _, e := range errs {
		if e == nil {
			continue
		}

		r.byField[e.Field] = append(r.byField[e.Field], len(r.errors))
		r.errors = append(r.errors, *e)
	}
}

// Merge appends the errors of other.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}

	for i := range other.errors {
		r.Add(&other.errors[i])
	}
}

// Valid returns true if no errors were recorded.
func (r *Result) Valid() bool {
	return len(r.errors) == 0
}

// Errors returns the errors in the order they were found.
func (r *Result) Errors() []Error {
	return r.errors
}

// ErrorCount returns the number of errors.
func (r *Result) ErrorCount() int {
	return len(r.errors)
}

// ErrorsForField returns the errors recorded for field.
func (r *Result) ErrorsForField(field string) []Error {
	idx := r.byField[field]
	out := make([]Error, 0, len(idx))

	for _, i := range idx {
		out = append(out, r.errors[i])
	}

	return out
}

// HasErrorsForField returns true if field has at least one error.
func (r *Result) HasErrorsForField(field string) bool {
	return len(r.byField[field]) > 0
}

// ErrorsByField returns the errors grouped by field.
func (r *Result) ErrorsByField() map[string][]Error {
	out := make(map[string][]Error, len(r.byField))
	for field := range r.byField {
		out[field] = r.ErrorsForField(field)
	}

	return out
}

// ErrorsFor returns the errors of the given kind.
func (r *Result) ErrorsFor(kind ErrorKind) []Error {
	var out []Error

	for _, e := range r.errors {
		if e.Kind == kind {
			out = append(out, e)
		}
	}

	return out
}

// CountByKind returns the number of errors per kind.
func (r *Result) CountByKind() map[string]int {
	counts := make(map[string]int)
	for _, e := range r.errors {
		counts[string(e.Kind)]++
	}

	return counts
}

// Summary returns a human-readable outcome with a count per kind.
func (r *Result) Summary() string {
	if r.Valid() {
		return "Validation successful - all required fields present and valid"
	}

	var sb strings.Builder

	fmt.Fprintf(&sb, "Validation failed with %d error(s):\n", len(r.errors))

	counts := r.CountByKind()
	for _, kind := range kindOrder {
		if n := counts[string(kind)]; n > 0 {
			fmt.Fprintf(&sb, "- %s: %d\n", kind, n)
		}
	}

	return sb.String()
}

// ToMap converts the result to its response form.
func (r *Result) ToMap() map[string]any {
	errs := make([]map[string]any, len(r.errors))
	for i, e := range r.errors {
		errs[i] = e.ToMap()
	}

	m := map[string]any{
		"valid":      r.Valid(),
		"errorCount": len(r.errors),
		"errors":     errs,
	}

	if len(r.Metadata) > 0 {
		m["metadata"] = r.Metadata
	}

	return m
}
