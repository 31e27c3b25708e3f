package interp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nilforge/tildeath/internal/ast"
	"github.com/stretchr/testify/require"
)

func TestIsModulePath(t *testing.T) {
	require.True(t, isModulePath("foo.~ATH"))
	require.False(t, isModulePath("foo.~ath"))
	require.False(t, isModulePath("foo.txt"))
}

func TestDurationToMsConvertsUnits(t *testing.T) {
	d, err := durationToMs(&ast.DurationLit{Value: 2, Unit: "s"})
	require.NoError(t, err)
	require.Equal(t, int64(2000), d.Milliseconds())

	d, err = durationToMs(&ast.DurationLit{Value: 500, Unit: "ms"})
	require.NoError(t, err)
	require.Equal(t, int64(500), d.Milliseconds())

	d, err = durationToMs(&ast.DurationLit{Value: 1, Unit: "m"})
	require.NoError(t, err)
	require.Equal(t, int64(60000), d.Milliseconds())

	d, err = durationToMs(&ast.DurationLit{Value: 1, Unit: "h"})
	require.NoError(t, err)
	require.Equal(t, int64(3600000), d.Milliseconds())
}

func TestDurationToMsRejectsSubMillisecond(t *testing.T) {
	_, err := durationToMs(&ast.DurationLit{Value: 0, Unit: "ms"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Timer duration must be at least 1ms")
}

func TestResolveImportPathAbsolute(t *testing.T) {
	i := New(context.Background(), Options{})
	require.Equal(t, filepath.Clean("/tmp/x.~ATH"), i.resolveImportPath("/tmp/x.~ATH"))
}

func TestResolveImportPathRelativeToSourceFile(t *testing.T) {
	i := New(context.Background(), Options{SourceFile: "/some/dir/main.~ATH"})
	require.Equal(t, filepath.Clean("/some/dir/child.~ATH"), i.resolveImportPath("child.~ATH"))
}

func TestLoadModuleCircularImportDetected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "self.~ATH")
	require.NoError(t, os.WriteFile(path, []byte("THIS.DIE();"), 0o644))

	i := New(context.Background(), Options{SourceFile: path, importStack: []string{path}})
	w := NewWatcherEntity(i.Scheduler, "W", path, defaultWatchPoll)
	node := &ast.ImportStmt{}
	err := i.loadModule(w, path, node)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Circular import detected")
}

func TestLoadModuleMissingFile(t *testing.T) {
	i := New(context.Background(), Options{})
	w := NewWatcherEntity(i.Scheduler, "W", "/nonexistent/module.~ATH", defaultWatchPoll)
	node := &ast.ImportStmt{}
	err := i.loadModule(w, "/nonexistent/module.~ATH", node)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Module file not found")
}
