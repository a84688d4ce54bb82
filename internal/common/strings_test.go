package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", FirstNonEmpty("", "  ", "b", "c"))
	assert.Equal(t, "", FirstNonEmpty("", " "))
	assert.Equal(t, "", FirstNonEmpty())
}

func TestEqualFoldAny(t *testing.T) {
	assert.True(t, EqualFoldAny(" YES ", "yes", "true"))
	assert.False(t, EqualFoldAny("maybe", "yes", "true"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a, ,b ,"))
	assert.Nil(t, SplitList(""))
}

func TestSet(t *testing.T) {
	s := NewSet("a", "", "b")
	assert.Len(t, s, 2)
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has(""))
}

func TestFirst(t *testing.T) {
	got, ok := First([]string{"a", "b"})
	assert.True(t, ok)
	assert.Equal(t, "a", got)

	got, ok = First([]string(nil))
	assert.False(t, ok)
	assert.Empty(t, got)
}
