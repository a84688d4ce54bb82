package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  Format
	}{
		{"null", nil, FormatNull},
		{"bool true", true, FormatBoolean},
		{"bool false", false, FormatBoolean},
		{"string true", "true", FormatBooleanString},
		{"string FALSE padded", " FALSE ", FormatBooleanString},
		{"string one", "1", FormatListValueNumeric},
		{"string two", "2", FormatListValueNumeric},
		{"number one", json.Number("1"), FormatListValueNumeric},
		{"number two float", 2.0, FormatListValueNumeric},
		{"number three", json.Number("3"), FormatCustom},
		{"fraction", json.Number("1.5"), FormatCustom},
		{"yes", "yes", FormatListValueText},
		{"NO", "NO", FormatListValueText},
		{"custom", "maybe", FormatCustom},
		{"empty", "", FormatCustom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.value))
		})
	}
}

func TestPolarity(t *testing.T) {
	for _, v := range []any{true, "true", "TRUE", "1", json.Number("1"), "yes", "Yes"} {
		assert.True(t, IsPositive(v), "%v should be positive", v)
		assert.False(t, IsNegative(v), "%v should not be negative", v)
	}

	for _, v := range []any{false, "false", "2", json.Number("2"), "no", "NO"} {
		assert.True(t, IsNegative(v), "%v should be negative", v)
		assert.False(t, IsPositive(v), "%v should not be positive", v)
	}

	for _, v := range []any{nil, "maybe", json.Number("7")} {
		assert.False(t, IsPositive(v))
		assert.False(t, IsNegative(v))
	}
}

func TestFormat_String(t *testing.T) {
	assert.Equal(t, "BooleanString", FormatBooleanString.String())
	assert.Equal(t, "ListValueNumeric", FormatListValueNumeric.String())
	assert.Equal(t, "Null", FormatNull.String())
	assert.Equal(t, "Format(42)", Format(42).String())
	assert.Equal(t, "Text LOV (yes/no)", FormatListValueText.Description())
}
