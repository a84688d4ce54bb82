package transform

import "strings"

// ApplyValueMapping substitutes value through table: exact key first, then the
// boolean tokens "true"/"false" ignoring case, then the trimmed value.
// Without a match the value is returned unchanged.
func ApplyValueMapping(value string, table map[string]string) string {
	if len(table) == 0 {
		return value
	}

	if mapped, ok := table[value]; ok {
		return mapped
	}

	for _, token := range []string{"true", "false"} {
		if strings.EqualFold(value, token) {
			if mapped, ok := table[token]; ok {
				return mapped
			}
		}
	}

	if mapped, ok := table[strings.TrimSpace(value)]; ok {
		return mapped
	}

	return value
}
