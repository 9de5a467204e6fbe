package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWireMapOrder(t *testing.T) {
	m, err := NewWireMap([]string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, 3, m.Size())
	assert.Equal(t, []string{"a", "b", "c"}, m.Labels())

	idx, err := m.Index("a")
	require.NoError(t, err)
	assert.Equal(t, 0, idx, "first declared label maps to index 0")

	idx, err = m.Index("c")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
}

func TestNewWireMapRejectsDuplicates(t *testing.T) {
	_, err := NewWireMap([]string{"a", "b", "a"})
	require.Error(t, err)
	assert.True(t, IsInvalidWire(err))
}

func TestNewWireMapRejectsEmpty(t *testing.T) {
	_, err := NewWireMap(nil)
	assert.Error(t, err)

	_, err = NewWireMap([]string{"a", ""})
	require.Error(t, err)
	assert.True(t, IsInvalidWire(err))
}

func TestWireMapUnknownLabel(t *testing.T) {
	m, err := NewWireMap([]string{"0", "1"})
	require.NoError(t, err)

	_, err = m.Index("2")
	require.Error(t, err)
	assert.True(t, IsInvalidWire(err))

	_, err = m.Indices([]string{"0", "2"})
	require.Error(t, err)
	assert.True(t, IsInvalidWire(err))
}

func TestWireMapIndices(t *testing.T) {
	m, err := NewWireMap([]string{"q0", "q1", "q2"})
	require.NoError(t, err)

	idx, err := m.Indices([]string{"q2", "q0"})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, idx, "indices follow the requested label order")

	assert.True(t, m.Contains("q1"))
	assert.False(t, m.Contains("q9"))
}

func TestWireMapLabelsCopy(t *testing.T) {
	m, err := NewWireMap([]string{"a", "b"})
	require.NoError(t, err)

	labels := m.Labels()
	labels[0] = "mutated"

	idx, err := m.Index("a")
	require.NoError(t, err)
	assert.Equal(t, 0, idx, "mutating the returned slice must not affect the map")
}
