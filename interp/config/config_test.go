package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsZeroValue(t *testing.T) {
	f, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, int64(0), f.Scheduler.WatcherPollMs)
}

func TestLoadParsesKnownSections(t *testing.T) {
	dir := t.TempDir()
	content := `
[scheduler]
watcher_poll_ms = 25

[limits]
max_import_stack = 8

[display]
timestamps = true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tildeath.toml"), []byte(content), 0o644))

	f, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, int64(25), f.Scheduler.WatcherPollMs)
	require.Equal(t, 8, f.Limits.MaxImportStack)
	require.True(t, f.Display.Timestamps)
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tildeath.toml"), []byte("not valid [[[ toml"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
}

func TestFindAndLoadPrefersEntryFileDir(t *testing.T) {
	dir := t.TempDir()
	content := "[scheduler]\nwatcher_poll_ms = 99\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tildeath.toml"), []byte(content), 0o644))

	f, err := FindAndLoad(filepath.Join(dir, "main.~ATH"))
	require.NoError(t, err)
	require.Equal(t, int64(99), f.Scheduler.WatcherPollMs)
}
