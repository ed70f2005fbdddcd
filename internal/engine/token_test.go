package engine

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator_Generate(t *testing.T) {
	gen := UUIDv7Generator{}

	token := gen.Generate()
	parsed, err := uuid.Parse(token)
	require.NoError(t, err, "token should be a valid UUID")
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestUUIDv7Generator_Unique(t *testing.T) {
	gen := UUIDv7Generator{}

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := gen.Generate()
		assert.False(t, seen[token], "token %q generated twice", token)
		seen[token] = true
	}
}

func TestFixedGenerator_ReturnsInOrder(t *testing.T) {
	gen := NewFixedGenerator("journey-1", "journey-2")

	assert.Equal(t, "journey-1", gen.Generate())
	assert.Equal(t, "journey-2", gen.Generate())
}

func TestFixedGenerator_PanicsWhenExhausted(t *testing.T) {
	gen := NewFixedGenerator("journey-1")
	gen.Generate()

	assert.Panics(t, func() { gen.Generate() })
}
