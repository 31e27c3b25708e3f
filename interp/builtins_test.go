package interp

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestInterp(stdin string) (*Interpreter, *bytes.Buffer) {
	var stdout bytes.Buffer
	i := New(context.Background(), Options{
		Stdout: &stdout,
		Stderr: &stdout,
		Stdin:  strings.NewReader(stdin),
	})
	return i, &stdout
}

func TestBuiltinUtterJoinsWithSpace(t *testing.T) {
	i, out := newTestInterp("")
	_, err := builtinUtter(i, []interface{}{int64(1), "two", true}, 0, 0)
	require.NoError(t, err)
	require.Equal(t, "1 two ALIVE\n", out.String())
}

func TestBuiltinHeedReadsLine(t *testing.T) {
	i, _ := newTestInterp("hello\nworld\n")
	v, err := builtinHeed(i, nil, 0, 0)
	require.NoError(t, err)
	require.Equal(t, "hello", v)
}

func TestBuiltinScryReadsStdinOnVoid(t *testing.T) {
	i, _ := newTestInterp("file contents")
	v, err := builtinScry(i, []interface{}{nil}, 0, 0)
	require.NoError(t, err)
	require.Equal(t, "file contents", v)
}

func TestBuiltinTypeof(t *testing.T) {
	i, _ := newTestInterp("")
	v, err := builtinTypeof(i, []interface{}{int64(1)}, 0, 0)
	require.NoError(t, err)
	require.Equal(t, "INTEGER", v)
}

func TestBuiltinLengthRejectsNonCollection(t *testing.T) {
	i, _ := newTestInterp("")
	_, err := builtinLength(i, []interface{}{int64(1)}, 1, 1)
	require.Error(t, err)
}

func TestBuiltinParseIntRejectsFloatString(t *testing.T) {
	i, _ := newTestInterp("")
	_, err := builtinParseInt(i, []interface{}{"3.5"}, 1, 1)
	require.Error(t, err)
}

func TestBuiltinParseIntAccepts(t *testing.T) {
	i, _ := newTestInterp("")
	v, err := builtinParseInt(i, []interface{}{"42"}, 1, 1)
	require.NoError(t, err)
	require.Equal(t, int64(42), v)
}

func TestBuiltinCharAndCode(t *testing.T) {
	i, _ := newTestInterp("")
	c, err := builtinChar(i, []interface{}{int64(65)}, 1, 1)
	require.NoError(t, err)
	require.Equal(t, "A", c)

	code, err := builtinCode(i, []interface{}{"A"}, 1, 1)
	require.NoError(t, err)
	require.Equal(t, int64(65), code)
}

func TestBuiltinBinHex(t *testing.T) {
	i, _ := newTestInterp("")
	b, err := builtinBin(i, []interface{}{int64(5)}, 1, 1)
	require.NoError(t, err)
	require.Equal(t, "101", b)

	h, err := builtinHex(i, []interface{}{int64(255)}, 1, 1)
	require.NoError(t, err)
	require.Equal(t, "FF", h)
}

func TestBuiltinAppendPrependReturnNewArrays(t *testing.T) {
	i, _ := newTestInterp("")
	arr := []interface{}{int64(1), int64(2)}

	appended, err := builtinAppend(i, []interface{}{arr, int64(3)}, 1, 1)
	require.NoError(t, err)
	require.Equal(t, []interface{}{int64(1), int64(2), int64(3)}, appended)
	require.Len(t, arr, 2)

	prepended, err := builtinPrepend(i, []interface{}{arr, int64(0)}, 1, 1)
	require.NoError(t, err)
	require.Equal(t, []interface{}{int64(0), int64(1), int64(2)}, prepended)
}

func TestBuiltinSliceNegativeIndices(t *testing.T) {
	i, _ := newTestInterp("")
	arr := []interface{}{int64(0), int64(1), int64(2), int64(3), int64(4)}
	v, err := builtinSlice(i, []interface{}{arr, int64(-3), int64(-1)}, 1, 1)
	require.NoError(t, err)
	require.Equal(t, []interface{}{int64(2), int64(3)}, v)
}

func TestBuiltinFirstLastEmptyErrors(t *testing.T) {
	i, _ := newTestInterp("")
	_, err := builtinFirst(i, []interface{}{[]interface{}{}}, 1, 1)
	require.Error(t, err)
	_, err = builtinLast(i, []interface{}{[]interface{}{}}, 1, 1)
	require.Error(t, err)
}

func TestBuiltinMapOpsReturnNewMaps(t *testing.T) {
	i, _ := newTestInterp("")
	m := NewMap()
	m.Set("a", int64(1))

	set, err := builtinSet(i, []interface{}{m, "b", int64(2)}, 1, 1)
	require.NoError(t, err)
	newMap := set.(*Map)
	require.True(t, newMap.Has("b"))
	require.False(t, m.Has("b"))

	deleted, err := builtinDelete(i, []interface{}{newMap, "a"}, 1, 1)
	require.NoError(t, err)
	require.False(t, deleted.(*Map).Has("a"))
	require.True(t, newMap.Has("a"))
}

func TestBuiltinSplitEmptyDelimiterSplitsChars(t *testing.T) {
	i, _ := newTestInterp("")
	v, err := builtinSplit(i, []interface{}{"abc", ""}, 1, 1)
	require.NoError(t, err)
	require.Equal(t, []interface{}{"a", "b", "c"}, v)
}

func TestBuiltinJoin(t *testing.T) {
	i, _ := newTestInterp("")
	v, err := builtinJoin(i, []interface{}{[]interface{}{"a", "b"}, "-"}, 1, 1)
	require.NoError(t, err)
	require.Equal(t, "a-b", v)
}

func TestBuiltinUppercaseLowercase(t *testing.T) {
	i, _ := newTestInterp("")
	u, err := builtinUppercase(i, []interface{}{"hello"}, 1, 1)
	require.NoError(t, err)
	require.Equal(t, "HELLO", u)

	l, err := builtinLowercase(i, []interface{}{"HELLO"}, 1, 1)
	require.NoError(t, err)
	require.Equal(t, "hello", l)
}

func TestBuiltinRandomIntRange(t *testing.T) {
	i, _ := newTestInterp("")
	for n := 0; n < 20; n++ {
		v, err := builtinRandomInt(i, []interface{}{int64(1), int64(3)}, 1, 1)
		require.NoError(t, err)
		iv := v.(int64)
		require.GreaterOrEqual(t, iv, int64(1))
		require.LessOrEqual(t, iv, int64(3))
	}
}

func TestPySliceBoundsClamps(t *testing.T) {
	s, e := pySliceBounds(5, -10, 100)
	require.Equal(t, 0, s)
	require.Equal(t, 5, e)

	s, e = pySliceBounds(5, 3, 1)
	require.Equal(t, 3, s)
	require.Equal(t, 3, e)
}
