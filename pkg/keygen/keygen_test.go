package keygen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUUIDGeneratorIsUnique(t *testing.T) {
	var g Generator = UUIDGenerator{}
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := g.NewID()
		assert.True(t, IsValid(id))
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestUUIDGenerator(t *testing.T) {
	var g Generator = UUIDGenerator{}
	a, b := g.NewID(), g.NewID()
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.True(t, IsValid(a))
}

func TestIsValidRejectsGarbage(t *testing.T) {
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("not-a-uuid"))
}

func TestMask(t *testing.T) {
	assert.Equal(t, "***", Mask("short"))
	assert.Equal(t, "12345678***", Mask("123456789abc"))
}
