package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTooLongCountsRunes(t *testing.T) {
	assert.False(t, TooLong(strings.Repeat("ب", MaxNameLength), MaxNameLength))
	assert.True(t, TooLong(strings.Repeat("a", MaxNameLength+1), MaxNameLength))
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("mona@example.com"))
	assert.False(t, IsEmail("mona@example"))
	assert.False(t, IsEmail("Mona <mona@example.com>"))
	assert.False(t, IsEmail("mona example.com"))
	assert.False(t, IsEmail(""))
}

func TestIsCode(t *testing.T) {
	assert.True(t, IsCode("SPRING25"))
	assert.True(t, IsCode("OIL_CHANGE-10"))
	assert.False(t, IsCode("AB"))
	assert.False(t, IsCode("spring25"))
	assert.False(t, IsCode("SPRING 25"))
	assert.False(t, IsCode("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456"))
}
