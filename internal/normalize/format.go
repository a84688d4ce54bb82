package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
)

//go:generate go tool stringer -type=Format -trimprefix=Format -output=format_string.go

// Format is the input representation of a boolean-like scalar.
type Format int

const (
	// FormatNull is an absent or null value.
	FormatNull Format = iota
	// FormatBoolean is a JSON true/false.
	FormatBoolean
	// FormatBooleanString is the text "true" or "false", case-insensitive.
	FormatBooleanString
	// FormatListValueNumeric is the code 1 or 2, as text or number.
	FormatListValueNumeric
	// FormatListValueText is the text "yes" or "no", case-insensitive.
	FormatListValueText
	// FormatCustom is anything else.
	FormatCustom
)

// Description returns a human-readable description of the format.
func (f Format) Description() string {
	switch f {
	case FormatListValueNumeric:
		return "Numeric LOV (1/2)"
	case FormatListValueText:
		return "Text LOV (yes/no)"
	case FormatBoolean:
		return "Boolean (true/false)"
	case FormatBooleanString:
		return `Boolean string ("true"/"false")`
	case FormatCustom:
		return "Custom string value"
	case FormatNull:
		return "Null/missing value"
	default:
		return "Unknown format"
	}
}

// Detect classifies a decoded JSON scalar.
func Detect(value any) Format {
	switch v := value.(type) {
	case nil:
		return FormatNull
	case bool:
		return FormatBoolean
	case string:
		return detectText(v)
	default:
		if n, ok := integerValue(value); ok && (n == 1 || n == 2) {
			return FormatListValueNumeric
		}

		return FormatCustom
	}
}

func detectText(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "false":
		return FormatBooleanString
	case "1", "2":
		return FormatListValueNumeric
	case "yes", "no":
		return FormatListValueText
	default:
		return FormatCustom
	}
}

// IsPositive returns true for true, "true", 1, "1" and "yes".
func IsPositive(value any) bool {
	return polarity(value) > 0
}

// IsNegative returns true for false, "false", 2, "2" and "no".
func IsNegative(value any) bool {
	return polarity(value) < 0
}

// polarity returns 1 for positive, -1 for negative and 0 for custom or null values.
func polarity(value any) int {
	switch Detect(value) {
	case FormatBoolean:
		if value.(bool) {
			return 1
		}

		return -1
	case FormatBooleanString, FormatListValueText, FormatListValueNumeric:
		switch lowerText(value) {
		case "true", "yes", "1":
			return 1
		case "false", "no", "2":
			return -1
		}
	}

	return 0
}

func lowerText(value any) string {
	if s, ok := value.(string); ok {
		return strings.ToLower(strings.TrimSpace(s))
	}

	if n, ok := integerValue(value); ok {
		return strconv.FormatInt(n, 10)
	}

	return ""
}

// integerValue returns the integral value of a JSON number, if it has one.
func integerValue(value any) (int64, bool) {
	switch v := value.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}

		if f, err := v.Float64(); err == nil && f == float64(int64(f)) {
			return int64(f), true
		}
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	case int:
		return int64(v), true
	case int64:
		return v, true
	}

	return 0, false
}
