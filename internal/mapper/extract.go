package mapper

import (
	"strings"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/jsonpath"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/mapping"
)

// resolve locates the source node of f within scope. The primary path is
// tried first and the alternate path only when the primary yields nothing.
func resolve(scope any, f mapping.FieldMapping) (any, bool) {
	if node, ok := resolvePath(scope, f.Source, f.Discriminator); ok {
		return node, true
	}

	if f.AlternateSource == "" {
		return nil, false
	}

	return resolvePath(scope, f.AlternateSource, f.Discriminator)
}

func resolvePath(scope any, source string, disc *mapping.Discriminator) (any, bool) {
	src, err := jsonpath.Parse(source)
	if err != nil {
		return nil, false
	}

	var node any

	var ok bool
	if disc == nil {
		node, ok = src.Lookup(scope)
	} else {
		node, ok = lookupTagged(scope, src, disc)
	}

	if !ok || jsonpath.IsEmpty(node) {
		return nil, false
	}

	return node, true
}

// lookupTagged resolves src subject to a discriminator.
//
// When src and the discriminator path share a prefix that names an
// un-indexed array, the element whose tag equals the expected value is
// selected and the remainders of both paths are resolved inside it:
//
//	govstack: identifiers.value
//	govstackType: identifiers.type
//	typeValue: NationalId
//
// Otherwise the discriminator path is resolved against scope and must equal
// the expected value for src to be resolved at all.
func lookupTagged(scope any, src jsonpath.Path, disc *mapping.Discriminator) (any, bool) {
	tag, err := jsonpath.Parse(disc.Path)
	if err != nil {
		return nil, false
	}

	n := commonPrefix(src.Segments, tag.Segments)
	for i := n; i > 0; i-- {
		last := src.Segments[i-1]
		if last.HasIndex || i == len(src.Segments) || i == len(tag.Segments) {
			continue
		}

		node, ok := jsonpath.Path{Segments: src.Segments[:i]}.Lookup(scope)
		if !ok {
			continue
		}

		elems, ok := jsonpath.Collection(node)
		if !ok {
			continue
		}

		srcRest := jsonpath.Path{Segments: src.Segments[i:]}
		tagRest := jsonpath.Path{Segments: tag.Segments[i:]}

		for _, elem := range elems {
			if tagMatches(elem, tagRest, disc.Expected) {
				return srcRest.Lookup(elem)
			}
		}

		return nil, false
	}

	if !tagMatches(scope, tag, disc.Expected) {
		return nil, false
	}

	return src.Lookup(scope)
}

func tagMatches(scope any, tag jsonpath.Path, expected string) bool {
	node, ok := tag.Lookup(scope)
	if !ok || node == nil {
		return false
	}

	return strings.TrimSpace(jsonpath.Project(node)) == expected
}

func commonPrefix(a, b []jsonpath.Segment) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}

	return n
}
