package common

// Set is a string membership set.
type Set map[string]struct{}

// NewSet builds a Set from items, skipping blank entries.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, item := range items {
		if !IsBlank(item) {
			s[item] = struct{}{}
		}
	}

	return s
}

// Has returns true if item is in the set.
func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// First returns the first element of the slice and true, or the zero value and false if empty.
func First[S ~[]E, E any](s S) (E, bool) {
	if len(s) == 0 {
		var zero E
		return zero, false
	}

	return s[0], true
}
