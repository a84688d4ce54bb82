package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"abc", "", 3},
		{"a", "b", 1},
		{"ab", "abc", 1},
		{"kitten", "sitting", 3},
		{"saturday", "sunday", 3},
		{"yesno", "yesnoo", 1},
		{"Hello", "hello", 1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Distance(tt.a, tt.b))
			assert.Equal(t, tt.want, Distance(tt.b, tt.a))
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("", ""), 1e-9)
	assert.InDelta(t, 1.0, Similarity("date", "date"), 1e-9)
	assert.InDelta(t, 0.75, Similarity("date", "data"), 1e-9)
	assert.InDelta(t, 0.0, Similarity("abc", "xyz"), 1e-9)
}

func TestNormalize(t *testing.T) {
	for _, in := range []string{"yesNo", "yes_no", "YesNo", "yes-no", "YES NO"} {
		assert.Equal(t, "yesno", Normalize(in), in)
	}
}

func TestTokens(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"date", []string{"date"}},
		{"householdMembers", []string{"household", "members"}},
		{"FarmerHousehold", []string{"farmer", "household"}},
		{"parentIDField", []string{"parent", "id", "field"}},
		{"cleanNumber_v2", []string{"clean", "number", "v2"}},
		{"grid.parent-field", []string{"grid", "parent", "field"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokens(tt.in))
		})
	}
}

func TestClosest(t *testing.T) {
	transforms := []string{"date", "yesNo", "numeric", "multiSelect", "cleanNumber"}

	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{name: "yes_no", want: "yesNo", wantOK: true},
		{name: "multiselect", want: "multiSelect", wantOK: true},
		{name: "numerc", want: "numeric", wantOK: true},
		{name: "dates", want: "date", wantOK: true},
		{name: "uppercase", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Closest(tt.name, transforms)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := Closest("date", nil)
	assert.False(t, ok)
}

func TestRankIsStable(t *testing.T) {
	ranked := Rank("ab", []string{"ax", "ay", "ab"})

	assert.Equal(t, []Suggestion{
		{Name: "ab", Score: 1},
		{Name: "ax", Score: 0.5},
		{Name: "ay", Score: 0.5},
	}, ranked)
}
