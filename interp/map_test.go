package interp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapPreservesDeclarationOrder(t *testing.T) {
	m := NewMap()
	m.Set("z", int64(1))
	m.Set("a", int64(2))
	m.Set("m", int64(3))
	require.Equal(t, []string{"z", "a", "m"}, m.Keys())
}

func TestMapSetExistingKeyKeepsPosition(t *testing.T) {
	m := NewMap()
	m.Set("a", int64(1))
	m.Set("b", int64(2))
	m.Set("a", int64(99))
	require.Equal(t, []string{"a", "b"}, m.Keys())
	v, ok := m.Get("a")
	require.True(t, ok)
	require.Equal(t, int64(99), v)
}

func TestMapDelete(t *testing.T) {
	m := NewMap()
	m.Set("a", int64(1))
	m.Set("b", int64(2))
	m.Delete("a")
	require.False(t, m.Has("a"))
	require.Equal(t, []string{"b"}, m.Keys())
	require.Equal(t, 1, m.Len())
}

func TestMapDeleteMissingIsNoop(t *testing.T) {
	m := NewMap()
	m.Set("a", int64(1))
	m.Delete("missing")
	require.Equal(t, 1, m.Len())
}

func TestMapCloneIsIndependent(t *testing.T) {
	m := NewMap()
	m.Set("a", int64(1))
	clone := m.Clone()
	clone.Set("b", int64(2))
	require.Equal(t, 1, m.Len())
	require.Equal(t, 2, clone.Len())
}

func TestMapValuesMatchKeyOrder(t *testing.T) {
	m := NewMap()
	m.Set("first", int64(1))
	m.Set("second", int64(2))
	require.Equal(t, []interface{}{int64(1), int64(2)}, m.Values())
}
