package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/common"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/jsonpath"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_+&*-]+(?:\.[a-zA-Z0-9_+&*-]+)*@(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,7}$`)
	datePattern  = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

// FieldRules configures ValidateField.
type FieldRules struct {
	Required  bool     `yaml:"required,omitempty"`
	Type      string   `yaml:"type,omitempty"`
	Min       *float64 `yaml:"min,omitempty"`
	Max       *float64 `yaml:"max,omitempty"`
	MinLength *int     `yaml:"minLength,omitempty"`
	MaxLength *int     `yaml:"maxLength,omitempty"`
	Enum      []string `yaml:"enum,omitempty"`
}

// ValidateField runs the checks configured by rules. A missing required
// value stops further checks; other empty values are not checked at all.
func ValidateField(field string, value any, rules FieldRules, formID string) []Error {
	var out []Error

	add := func(e *Error) {
		if e != nil {
			out = append(out, *e)
		}
	}

	if rules.Required {
		if e := ValidateRequired(field, value, formID); e != nil {
			return []Error{*e}
		}
	}

	if jsonpath.IsEmpty(value) {
		return nil
	}

	switch strings.ToLower(rules.Type) {
	case "numeric", "number":
		add(ValidateNumeric(field, value, rules.Min, rules.Max, formID))
	case "email":
		add(ValidateEmail(field, value, formID))
	case "date", "datepicker":
		add(ValidateDate(field, value, formID))
	case "text", "string":
		add(ValidateLength(field, value, rules.MinLength, rules.MaxLength, formID))
	}

	if len(rules.Enum) > 0 {
		add(ValidateEnum(field, value, rules.Enum, formID))
	}

	return out
}

// ValidateRequired fails when value is null, blank or an empty collection.
func ValidateRequired(field string, value any, formID string) *Error {
	if !jsonpath.IsEmpty(value) {
		return nil
	}

	return &Error{FormID: formID, Field: field, Message: field + " is required", Kind: KindRequired}
}

// ValidateNumeric checks that value is a number within the optional bounds.
// Null and blank values pass.
func ValidateNumeric(field string, value any, minValue, maxValue *float64, formID string) *Error {
	if jsonpath.IsEmpty(value) {
		return nil
	}

	n, ok := toFloat(value)
	if !ok {
		return &Error{
			FormID:  formID,
			Field:   field,
			Kind:    KindDataType,
			Message: field + " must be a valid number",
			Value:   jsonpath.Project(value),
		}
	}

	if minValue != nil && n < *minValue {
		return &Error{
			FormID:  formID,
			Field:   field,
			Kind:    KindRange,
			Message: fmt.Sprintf("%s must be at least %s", field, formatFloat(*minValue)),
			Value:   jsonpath.Project(value),
		}
	}

	if maxValue != nil && n > *maxValue {
		return &Error{
			FormID:  formID,
			Field:   field,
			Kind:    KindRange,
			Message: fmt.Sprintf("%s must not exceed %s", field, formatFloat(*maxValue)),
			Value:   jsonpath.Project(value),
		}
	}

	return nil
}

// ValidateEmail checks the address format. Empty values pass.
func ValidateEmail(field string, value any, formID string) *Error {
	if jsonpath.IsEmpty(value) {
		return nil
	}

	s := jsonpath.Project(value)
	if emailPattern.MatchString(s) {
		return nil
	}

	return &Error{
		FormID:  formID,
		Field:   field,
		Kind:    KindEmail,
		Message: "Provide correct email address for " + field,
		Value:   s,
	}
}

// ValidateDate checks for a YYYY-MM-DD date with a valid month and day.
// Empty values pass.
func ValidateDate(field string, value any, formID string) *Error {
	if jsonpath.IsEmpty(value) {
		return nil
	}

	s := jsonpath.Project(value)

	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return &Error{
			FormID:  formID,
			Field:   field,
			Kind:    KindDate,
			Message: field + " must be a valid date in format YYYY-MM-DD",
			Value:   s,
		}
	}

	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return &Error{
			FormID:  formID,
			Field:   field,
			Kind:    KindDate,
			Message: fmt.Sprintf("%s has invalid month: %d", field, month),
			Value:   s,
		}
	}

	day, _ := strconv.Atoi(m[3])
	if day < 1 || day > 31 {
		return &Error{
			FormID:  formID,
			Field:   field,
			Kind:    KindDate,
			Message: fmt.Sprintf("%s has invalid day: %d", field, day),
			Value:   s,
		}
	}

	return nil
}

// ValidateLength checks the character length of value. Empty values pass.
func ValidateLength(field string, value any, minLength, maxLength *int, formID string) *Error {
	if jsonpath.IsEmpty(value) {
		return nil
	}

	s := jsonpath.Project(value)
	n := len([]rune(s))

	if minLength != nil && n < *minLength {
		return &Error{
			FormID:  formID,
			Field:   field,
			Kind:    KindLength,
			Message: fmt.Sprintf("%s must be at least %d characters", field, *minLength),
			Value:   s,
		}
	}

	if maxLength != nil && n > *maxLength {
		return &Error{
			FormID:  formID,
			Field:   field,
			Kind:    KindLength,
			Message: fmt.Sprintf("%s must not exceed %d characters", field, *maxLength),
			Value:   s,
		}
	}

	return nil
}

// ValidateEnum checks that value is one of allowed. Empty values pass.
func ValidateEnum(field string, value any, allowed []string, formID string) *Error {
	if jsonpath.IsEmpty(value) {
		return nil
	}

	s := jsonpath.Project(value)
	if slices.Contains(allowed, s) {
		return nil
	}

	expected := strings.Join(allowed, ", ")

	return &Error{
		FormID:   formID,
		Field:    field,
		Kind:     KindPattern,
		Message:  field + " must be one of: " + expected,
		Value:    s,
		Expected: expected,
	}
}

// ValidateGrid checks the row count of a grid. rows is nil when the grid is absent.
func ValidateGrid(grid string, rows []any, minRows, maxRows *int, formID string) *Error {
	if rows == nil {
		if minRows != nil && *minRows > 0 {
			return &Error{
				FormID:  formID,
				Field:   grid,
				Kind:    KindGridMin,
				Message: fmt.Sprintf("%s requires at least %d entry(ies)", grid, *minRows),
			}
		}

		return nil
	}

	n := len(rows)

	if minRows != nil && n < *minRows {
		return &Error{
			FormID:  formID,
			Field:   grid,
			Kind:    KindGridMin,
			Message: fmt.Sprintf("%s requires at least %d entry(ies), but has %d", grid, *minRows, n),
			Value:   strconv.Itoa(n),
		}
	}

	if maxRows != nil && n > *maxRows {
		return &Error{
			FormID:  formID,
			Field:   grid,
			Kind:    KindGridMax,
			Message: fmt.Sprintf("%s allows maximum %d entries, but has %d", grid, *maxRows, n),
			Value:   strconv.Itoa(n),
		}
	}

	return nil
}

// ValidateCheckbox checks that a checkbox group holds every required value.
// The group may be a JSON array or a comma or semicolon separated string.
func ValidateCheckbox(field string, value any, required []string, formID string) *Error {
	if jsonpath.IsEmpty(value) {
		return &Error{
			FormID:  formID,
			Field:   field,
			Kind:    KindRequired,
			Message: field + " - all consent checkboxes must be selected",
		}
	}

	selected := common.NewSet(checkboxValues(value)...)

	for _, token := range required {
		if !selected.Has(token) {
			return &Error{
				FormID:   formID,
				Field:    field,
				Kind:     KindRequired,
				Message:  fmt.Sprintf("%s - '%s' must be selected", field, token),
				Value:    jsonpath.Project(value),
				Expected: strings.Join(required, ", "),
			}
		}
	}

	return nil
}

func checkboxValues(value any) []string {
	if arr, ok := jsonpath.Collection(value); ok {
		out := make([]string, 0, len(arr))
		for _, v := range arr {
			out = append(out, strings.TrimSpace(jsonpath.Project(v)))
		}

		return out
	}

	return common.SplitList(strings.ReplaceAll(jsonpath.Project(value), ";", ","))
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
