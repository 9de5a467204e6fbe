package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixedIDGenerator_Sequential(t *testing.T) {
	gen := NewFixedIDGenerator("id-1", "id-2", "id-3")

	assert.Equal(t, "id-1", gen.Generate())
	assert.Equal(t, "id-2", gen.Generate())
	assert.Equal(t, "id-3", gen.Generate())
}

func TestFixedIDGenerator_PanicsWhenExhausted(t *testing.T) {
	gen := NewFixedIDGenerator("id-1")

	assert.Equal(t, "id-1", gen.Generate())
	assert.Panics(t, func() {
		gen.Generate()
	}, "should panic when all ids exhausted")
}

func TestFixedIDGenerator_EmptyIDs(t *testing.T) {
	gen := NewFixedIDGenerator()

	assert.Panics(t, func() {
		gen.Generate()
	}, "should panic when no ids provided")
}
