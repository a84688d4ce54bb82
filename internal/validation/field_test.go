package validation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestValidateRequired(t *testing.T) {
	for _, v := range []any{nil, "", "   ", []any{}, map[string]any{}} {
		e := ValidateRequired("name", v, "form")
		require.NotNil(t, e, "%#v", v)
		assert.Equal(t, KindRequired, e.Kind)
		assert.Equal(t, "name is required", e.Message)
		assert.Equal(t, "form.name", e.FieldPath())
	}

	for _, v := range []any{"x", 0, false, json.Number("0"), []any{"a"}} {
		assert.Nil(t, ValidateRequired("name", v, ""), "%#v", v)
	}
}

func TestValidateNumeric(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		kind    ErrorKind
		message string
	}{
		{name: "in range", value: json.Number("5")},
		{name: "string number", value: " 7.5 "},
		{name: "blank", value: ""},
		{name: "null", value: nil},
		{name: "not a number", value: "many", kind: KindDataType, message: "size must be a valid number"},
		{name: "below", value: json.Number("0"), kind: KindRange, message: "size must be at least 1"},
		{name: "above", value: 51.0, kind: KindRange, message: "size must not exceed 50"},
		{name: "fraction bound", value: "0.25", kind: KindRange, message: "size must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := ValidateNumeric("size", tt.value, ptr(1.0), ptr(50.0), "")
			if tt.kind == "" {
				assert.Nil(t, e)
				return
			}

			require.NotNil(t, e)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.message, e.Message)
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.Nil(t, ValidateEmail("email", "thabo.mokoena@example.org", ""))
	assert.Nil(t, ValidateEmail("email", "", ""))

	e := ValidateEmail("email", "thabo@", "")
	require.NotNil(t, e)
	assert.Equal(t, KindEmail, e.Kind)
	assert.Equal(t, "thabo@", e.Value)
}

func TestValidateDate(t *testing.T) {
	tests := []struct {
		value   string
		message string
	}{
		{value: "1985-03-15"},
		{value: "15/03/1985", message: "dob must be a valid date in format YYYY-MM-DD"},
		{value: "1985-13-01", message: "dob has invalid month: 13"},
		{value: "1985-03-32", message: "dob has invalid day: 32"},
		{value: "1985-00-10", message: "dob has invalid month: 0"},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			e := ValidateDate("dob", tt.value, "")
			if tt.message == "" {
				assert.Nil(t, e)
				return
			}

			require.NotNil(t, e)
			assert.Equal(t, KindDate, e.Kind)
			assert.Equal(t, tt.message, e.Message)
		})
	}
}

func TestValidateLengthAndEnum(t *testing.T) {
	assert.Nil(t, ValidateLength("code", "abc", ptr(2), ptr(4), ""))

	e := ValidateLength("code", "a", ptr(2), nil, "")
	require.NotNil(t, e)
	assert.Equal(t, "code must be at least 2 characters", e.Message)

	e = ValidateLength("code", "Lesōthō", nil, ptr(6), "")
	require.NotNil(t, e)
	assert.Equal(t, KindLength, e.Kind)

	assert.Nil(t, ValidateEnum("season", "summer", []string{"summer", "winter"}, ""))

	e = ValidateEnum("season", "spring", []string{"summer", "winter"}, "")
	require.NotNil(t, e)
	assert.Equal(t, KindPattern, e.Kind)
	assert.Equal(t, "summer, winter", e.Expected)
}

func TestValidateGrid(t *testing.T) {
	rows := []any{map[string]any{}, map[string]any{}}

	assert.Nil(t, ValidateGrid("members", rows, ptr(1), ptr(5), ""))
	assert.Nil(t, ValidateGrid("members", nil, nil, ptr(5), ""))

	e := ValidateGrid("members", nil, ptr(1), nil, "farmerHousehold")
	require.NotNil(t, e)
	assert.Equal(t, KindGridMin, e.Kind)
	assert.Equal(t, "members requires at least 1 entry(ies)", e.Message)

	e = ValidateGrid("members", rows, ptr(3), nil, "")
	require.NotNil(t, e)
	assert.Equal(t, "members requires at least 3 entry(ies), but has 2", e.Message)

	e = ValidateGrid("members", rows, nil, ptr(1), "")
	require.NotNil(t, e)
	assert.Equal(t, KindGridMax, e.Kind)
	assert.Equal(t, "members allows maximum 1 entries, but has 2", e.Message)
}

func TestValidateCheckbox(t *testing.T) {
	required := []string{"agree_terms", "consent_data_use"}

	assert.Nil(t, ValidateCheckbox("consent", []any{"consent_data_use", "agree_terms"}, required, ""))
	assert.Nil(t, ValidateCheckbox("consent", "agree_terms; consent_data_use", required, ""))
	assert.Nil(t, ValidateCheckbox("consent", "agree_terms,consent_data_use,extra", required, ""))

	e := ValidateCheckbox("consent", nil, required, "farmerDeclaration")
	require.NotNil(t, e)
	assert.Equal(t, "consent - all consent checkboxes must be selected", e.Message)

	e = ValidateCheckbox("consent", []any{"agree_terms"}, required, "")
	require.NotNil(t, e)
	assert.Equal(t, KindRequired, e.Kind)
	assert.Equal(t, "consent - 'consent_data_use' must be selected", e.Message)
}

func TestValidateField(t *testing.T) {
	tests := []struct {
		name  string
		value any
		rules FieldRules
		kinds []ErrorKind
	}{
		{name: "required missing", value: "", rules: FieldRules{Required: true, Type: "email"}, kinds: []ErrorKind{KindRequired}},
		{name: "optional empty", value: nil, rules: FieldRules{Type: "numeric", Min: ptr(1.0)}},
		{name: "numeric", value: "0", rules: FieldRules{Type: "number", Min: ptr(1.0)}, kinds: []ErrorKind{KindRange}},
		{name: "date", value: "2025-02-30", rules: FieldRules{Type: "datepicker"}},
		{name: "bad date", value: "20-01-2025", rules: FieldRules{Type: "date"}, kinds: []ErrorKind{KindDate}},
		{name: "text and enum", value: "x", rules: FieldRules{Type: "text", MinLength: ptr(2), Enum: []string{"a"}},
			kinds: []ErrorKind{KindLength, KindPattern}},
		{name: "unknown type", value: "anything", rules: FieldRules{Type: "selectbox"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var kinds []ErrorKind
			for _, e := range ValidateField("f", tt.value, tt.rules, "") {
				kinds = append(kinds, e.Kind)
			}

			assert.Equal(t, tt.kinds, kinds)
		})
	}
}
