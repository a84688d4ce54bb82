package match

import (
	"slices"
	"strings"
	"unicode"
)

// DefaultThreshold is the smallest similarity Closest accepts.
const DefaultThreshold = 0.6

// Normalize lowercases name and drops separators.
func Normalize(name string) string {
	var b strings.Builder

	b.Grow(len(name))

	for _, r := range name {
		if isSeparator(r) {
			continue
		}

		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

// Tokens splits a camelCase, PascalCase or separated name into lowercase words.
// An acronym stays one word: "parentIDField" is [parent id field].
func Tokens(name string) []string {
	var (
		out     []string
		current []rune
	)

	flush := func() {
		if len(current) > 0 {
			out = append(out, strings.ToLower(string(current)))
			current = current[:0]
		}
	}

	runes := []rune(name)
	for i, r := range runes {
		if isSeparator(r) {
			flush()
			continue
		}

		if i > 0 && startsWord(runes, i) {
			flush()
		}

		current = append(current, r)
	}

	flush()

	return out
}

func startsWord(runes []rune, i int) bool {
	r, prev := runes[i], runes[i-1]
	if !unicode.IsUpper(r) || isSeparator(prev) {
		return false
	}

	if !unicode.IsUpper(prev) {
		return true
	}

	return i+1 < len(runes) && unicode.IsLower(runes[i+1])
}

func isSeparator(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '.'
}

// Suggestion is a candidate name and its similarity to the wanted name.
type Suggestion struct {
	Name  string
	Score float64
}

// Rank scores every candidate against name, best first. Ties keep the
// candidate order.
func Rank(name string, candidates []string) []Suggestion {
	want := Normalize(name)

	out := make([]Suggestion, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, Suggestion{Name: c, Score: Similarity(want, Normalize(c))})
	}

	slices.SortStableFunc(out, func(a, b Suggestion) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	return out
}

// Closest returns the candidate most similar to name when its similarity
// reaches DefaultThreshold.
func Closest(name string, candidates []string) (string, bool) {
	ranked := Rank(name, candidates)
	if len(ranked) == 0 || ranked[0].Score < DefaultThreshold {
		return "", false
	}

	return ranked[0].Name, true
}
