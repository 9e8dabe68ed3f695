package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskMetadata(t *testing.T) {
	out := MaskMetadata(map[string]any{
		"email":     "mona@example.com",
		"old_phone": "01001234567",
		"role":      "admin",
		"nested":    map[string]any{"password": "secret"},
		"":          "dropped",
	})

	assert.Equal(t, "m****@example.com", out["email"])
	assert.Equal(t, "****4567", out["old_phone"])
	assert.Equal(t, "admin", out["role"])
	assert.Equal(t, map[string]any{"password": "****"}, out["nested"])
	assert.NotContains(t, out, "")
}

func TestMaskMetadataEmpty(t *testing.T) {
	assert.Nil(t, MaskMetadata(nil))
	assert.Nil(t, MaskMetadata(map[string]any{" ": 1}))
}
