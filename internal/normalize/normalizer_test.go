package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/jsonpath"
)

func newTestNormalizer() *Normalizer {
	return New(
		WithPassThrough("district", "cropType"),
		WithGroup(PairYesNo, "hasLivestock", "cropProduction"),
		WithGroup(PairOneTwo, "canReadWrite"),
		WithField("maritalStatus", FieldConfig{
			Pair:           PairOneTwo,
			CustomMappings: map[string]string{"married": "M", "single": "S"},
		}),
	)
}

func TestNormalize_RoundTripEquivalence(t *testing.T) {
	n := newTestNormalizer()

	for _, v := range []any{true, "true", "1", "yes"} {
		got, ok := n.Normalize(v, "hasLivestock")
		require.True(t, ok)
		assert.Equal(t, "yes", got, "input %v", v)
	}

	for _, v := range []any{false, "false", "2", "no"} {
		got, ok := n.Normalize(v, "hasLivestock")
		require.True(t, ok)
		assert.Equal(t, "no", got, "input %v", v)
	}
}

func TestNormalize_DefaultPair(t *testing.T) {
	n := newTestNormalizer()

	tests := []struct {
		value any
		want  string
	}{
		{"yes", "1"},
		{"no", "2"},
		{true, "1"},
		{"false", "2"},
		{json.Number("1"), "1"},
		{"2", "2"},
		{"free text", "free text"},
		{json.Number("45"), "45"},
	}

	for _, tt := range tests {
		got, ok := n.Normalize(tt.value, "unconfiguredField")
		require.True(t, ok)
		assert.Equal(t, tt.want, got, "input %v", tt.value)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := newTestNormalizer()

	fields := []string{"hasLivestock", "canReadWrite", "maritalStatus", "unconfiguredField", "district"}
	values := []any{true, false, "yes", "no", "1", "2", "true", "false", "married", "other", json.Number("1")}

	for _, field := range fields {
		for _, v := range values {
			once, ok := n.Normalize(v, field)
			require.True(t, ok)

			twice, ok := n.Normalize(once, field)
			require.True(t, ok)
			assert.Equal(t, once, twice, "field %s value %v", field, v)
		}
	}
}

func TestNormalize_PassThrough(t *testing.T) {
	n := newTestNormalizer()

	for _, v := range []any{"yes", true, json.Number("1"), "MAIZE", []any{"a", "b"}} {
		got, ok := n.Normalize(v, "district")
		require.True(t, ok)
		assert.Equal(t, jsonpath.Project(v), got)
	}

	assert.True(t, n.IsPassThrough("cropType"))
	assert.False(t, n.IsPassThrough("hasLivestock"))
}

func TestNormalize_CustomMappings(t *testing.T) {
	n := newTestNormalizer()

	got, ok := n.Normalize("married", "maritalStatus")
	require.True(t, ok)
	assert.Equal(t, "M", got)

	got, ok = n.Normalize("divorced", "maritalStatus")
	require.True(t, ok)
	assert.Equal(t, "divorced", got)
}

func TestNormalize_Null(t *testing.T) {
	n := newTestNormalizer()

	_, ok := n.Normalize(nil, "hasLivestock")
	assert.False(t, ok)
}

func TestLookupGroup(t *testing.T) {
	pair, ok := LookupGroup("yesNo")
	require.True(t, ok)
	assert.Equal(t, PairYesNo, pair)

	pair, ok = LookupGroup("oneTwo")
	require.True(t, ok)
	assert.Equal(t, PairOneTwo, pair)

	_, ok = LookupGroup("trueFalse")
	assert.False(t, ok)
}

func TestFieldConfig(t *testing.T) {
	n := newTestNormalizer()

	assert.True(t, n.HasFieldConfig("hasLivestock"))
	assert.False(t, n.HasFieldConfig("unconfiguredField"))
	assert.Equal(t, PairOneTwo, n.FieldConfig("unconfiguredField").Pair)

	n = New(WithDefault(PairYesNo))
	assert.Equal(t, PairYesNo, n.FieldConfig("any").Pair)
}
