package interp

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopeDefineAndGet(t *testing.T) {
	s := NewScope(nil)
	s.Define("x", int64(1), false)
	v, ok := s.Get("x")
	require.True(t, ok)
	require.Equal(t, int64(1), v)
}

func TestScopeGetWalksParentChain(t *testing.T) {
	parent := NewScope(nil)
	parent.Define("x", int64(1), false)
	child := NewScope(parent)
	v, ok := child.Get("x")
	require.True(t, ok)
	require.Equal(t, int64(1), v)
}

func TestScopeShadowsParent(t *testing.T) {
	parent := NewScope(nil)
	parent.Define("x", int64(1), false)
	child := NewScope(parent)
	child.Define("x", int64(2), false)
	v, _ := child.Get("x")
	require.Equal(t, int64(2), v)
	pv, _ := parent.Get("x")
	require.Equal(t, int64(1), pv)
}

func TestScopeSetUndefinedIsError(t *testing.T) {
	s := NewScope(nil)
	err := s.Set("missing", int64(1))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Undefined variable: missing")
}

func TestScopeSetConstantIsError(t *testing.T) {
	s := NewScope(nil)
	s.Define("x", int64(1), true)
	err := s.Set("x", int64(2))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Cannot reassign constant: x")
}

func TestScopeSetWalksParentChain(t *testing.T) {
	parent := NewScope(nil)
	parent.Define("x", int64(1), false)
	child := NewScope(parent)
	require.NoError(t, child.Set("x", int64(5)))
	v, _ := parent.Get("x")
	require.Equal(t, int64(5), v)
}

func TestScopeHas(t *testing.T) {
	parent := NewScope(nil)
	parent.Define("x", int64(1), false)
	child := NewScope(parent)
	require.True(t, child.Has("x"))
	require.False(t, child.Has("y"))
}

func TestScopeConcurrentAccess(t *testing.T) {
	s := NewScope(nil)
	s.Define("counter", int64(0), false)

	var wg sync.WaitGroup
	for n := 0; n < 50; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Get("counter")
		}()
	}
	wg.Wait()
}
