package transform

import (
	"strconv"
	"strings"
	"time"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/common"
)

const dateLayout = "2006-01-02"

var timestampLayouts = []string{
	"2006-01-02T15:04:05Z",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// Date reformats a timestamp with a T separator or a bare calendar date as
// YYYY-MM-DD. Unparseable input is returned unchanged.
func Date(value string) string {
	s := strings.TrimSpace(value)

	if strings.Contains(s, "T") {
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(dateLayout)
			}
		}

		return value
	}

	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return value
	}

	return t.Format(dateLayout)
}

// YesNo maps true/1/yes to "yes" and false/0/no to "no". Other values pass through.
func YesNo(value string) string {
	switch {
	case common.EqualFoldAny(value, "true", "1", "yes"):
		return "yes"
	case common.EqualFoldAny(value, "false", "0", "no"):
		return "no"
	default:
		return value
	}
}

// CleanNumber strips everything except digits, '.' and '-'. A result that does
// not parse as a number, blank input included, becomes "0".
func CleanNumber(value string) string {
	var b strings.Builder

	for _, r := range value {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	if _, err := strconv.ParseFloat(cleaned, 64); err != nil {
		return "0"
	}

	return cleaned
}

// MultiSelect renders a bracketed list literal or a comma separated string as
// a semicolon separated string. Entries are trimmed and empty ones dropped.
// A single value is returned as is.
func MultiSelect(value string) string {
	s := strings.TrimSpace(value)

	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		inner := strings.ReplaceAll(s[1:len(s)-1], `"`, "")
		return strings.Join(common.SplitList(inner), ";")
	}

	if strings.Contains(s, ",") {
		return strings.Join(common.SplitList(s), ";")
	}

	return value
}
