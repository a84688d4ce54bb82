package common

import "strings"

// UnknownStr is returned by String methods for values outside their enum.
const UnknownStr = "unknown"

// IsBlank returns true if s is empty or whitespace only.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// FirstNonEmpty returns the first value that is not blank, or "" if all are.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if !IsBlank(v) {
			return v
		}
	}

	return ""
}

// EqualFoldAny returns true if s equals any candidate, ignoring case and surrounding whitespace.
func EqualFoldAny(s string, candidates ...string) bool {
	s = strings.TrimSpace(s)
	for _, c := range candidates {
		if strings.EqualFold(s, c) {
			return true
		}
	}

	return false
}

// SplitList splits a comma separated string, trimming entries and dropping empty ones.
func SplitList(s string) []string {
	var out []string

	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	return out
}
