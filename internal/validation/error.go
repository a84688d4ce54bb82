package validation

import (
	"strings"
)

// ErrorKind classifies a validation error.
type ErrorKind string

const (
	KindRequired    ErrorKind = "required"
	KindFormat      ErrorKind = "format"
	KindRange       ErrorKind = "range"
	KindLength      ErrorKind = "length"
	KindUnique      ErrorKind = "unique"
	KindConditional ErrorKind = "conditional"
	KindGridMin     ErrorKind = "grid_min"
	KindGridMax     ErrorKind = "grid_max"
	KindDataType    ErrorKind = "data_type"
	KindPattern     ErrorKind = "pattern"
	KindEmail       ErrorKind = "email"
	KindDate        ErrorKind = "date"
	KindSystem      ErrorKind = "system"
)

// kindOrder is the order kinds are listed in summaries.
var kindOrder = []ErrorKind{
	KindRequired, KindFormat, KindRange, KindLength, KindUnique, KindConditional,
	KindGridMin, KindGridMax, KindDataType, KindPattern, KindEmail, KindDate,
	KindSystem,
}

// Error is a single rule violation.
type Error struct {
	// FormID is the destination form the field belongs to, if known.
	FormID string `json:"formId,omitempty"`
	// Field is the offending field or grid.
	Field string `json:"field"`
	// Message is the human-readable description.
	Message string `json:"message"`
	// Kind classifies the violation.
	Kind ErrorKind `json:"type"`
	// Value is the offending value, rendered as text.
	Value string `json:"invalidValue,omitempty"`
	// Expected describes the accepted values.
	Expected string `json:"expectedValue,omitempty"`
}

// FieldPath returns "formId.field", or just the field when no form is known.
func (e Error) FieldPath() string {
	if e.FormID != "" {
		return e.FormID + "." + e.Field
	}

	return e.Field
}

// String renders the error for logs.
func (e Error) String() string {
	var sb strings.Builder

	if e.FormID != "" {
		sb.WriteString("[" + e.FormID + "] ")
	}

	sb.WriteString(e.Field + ": " + e.Message + " (" + string(e.Kind) + ")")

	if e.Value != "" {
		sb.WriteString(" [value=" + e.Value + "]")
	}

	return sb.String()
}

// ToMap converts the error to its response form.
func (e Error) ToMap() map[string]any {
	m := map[string]any{
		"field":   e.Field,
		"message": e.Message,
		"type":    string(e.Kind),
	}

	if e.FormID != "" {
		m["formId"] = e.FormID
	}

	if e.Value != "" {
		m["invalidValue"] = e.Value
	}

	if e.Expected != "" {
		m["expectedValue"] = e.Expected
	}

	return m
}
