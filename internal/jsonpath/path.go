package jsonpath

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Segment is one member access in a Path, optionally followed by an array index.
type Segment struct {
	Name     string
	Index    int
	HasIndex bool
}

// Path is a parsed member/index path.
type Path struct {
	Segments []Segment
}

// Parse parses a path string. Malformed index segments are rejected here;
// use Lookup for the lenient form that treats them as "not found".
func Parse(path string) (Path, error) {
	if path == "" {
		return Path{}, errors.New("empty path")
	}

	var segments []Segment

	for part := range strings.SplitSeq(path, ".") {
		if part == "" {
			return Path{}, fmt.Errorf("invalid path %q: empty segment", path)
		}

		seg, err := parseSegment(part)
		if err != nil {
			return Path{}, fmt.Errorf("invalid path %q: %w", path, err)
		}

		segments = append(segments, seg)
	}

	return Path{Segments: segments}, nil
}

func parseSegment(part string) (Segment, error) {
	open := strings.IndexByte(part, '[')
	if open < 0 || !strings.HasSuffix(part, "]") {
		return Segment{Name: part}, nil
	}

	name := part[:open]
	raw := part[open+1 : len(part)-1]

	idx, err := strconv.Atoi(raw)
	if err != nil {
		return Segment{}, fmt.Errorf("non-numeric index %q in segment %q", raw, part)
	}

	if idx < 0 {
		return Segment{}, fmt.Errorf("negative index %d in segment %q", idx, part)
	}

	return Segment{Name: name, Index: idx, HasIndex: true}, nil
}

// String renders the path back to its textual form.
func (p Path) String() string {
	parts := make([]string, len(p.Segments))
	for i, s := range p.Segments {
		if s.HasIndex {
			parts[i] = s.Name + "[" + strconv.Itoa(s.Index) + "]"
		} else {
			parts[i] = s.Name
		}
	}

	return strings.Join(parts, ".")
}

// Lookup resolves the path against root and returns the located node.
func (p Path) Lookup(root any) (any, bool) {
	current := root

	for _, seg := range p.Segments {
		if seg.Name != "" {
			obj, ok := current.(map[string]any)
			if !ok {
				return nil, false
			}

			current, ok = obj[seg.Name]
			if !ok {
				return nil, false
			}
		}

		if seg.HasIndex {
			arr, ok := current.([]any)
			if !ok || seg.Index >= len(arr) {
				return nil, false
			}

			current = arr[seg.Index]
		}
	}

	return current, true
}
