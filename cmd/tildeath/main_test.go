package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/nilforge/tildeath/interp/config"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects os.Stdout/os.Stderr for the duration of fn and
// returns what was written to each.
func captureOutput(t *testing.T, fn func()) (stdout, stderr string) {
	t.Helper()

	origOut, origErr := os.Stdout, os.Stderr
	outR, outW, err := os.Pipe()
	require.NoError(t, err)
	errR, errW, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout, os.Stderr = outW, errW
	defer func() { os.Stdout, os.Stderr = origOut, origErr }()

	fn()

	outW.Close()
	errW.Close()
	outBytes, _ := io.ReadAll(outR)
	errBytes, _ := io.ReadAll(errR)
	return string(outBytes), string(errBytes)
}

func writeSource(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "main.~ATH")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRunFileSuccess(t *testing.T) {
	path := writeSource(t, `UTTER("hello"); THIS.DIE();`)

	var code int
	stdout, _ := captureOutput(t, func() {
		code = run([]string{path})
	})

	require.Equal(t, 0, code)
	require.Contains(t, stdout, "hello")
}

func TestRunFileMissing(t *testing.T) {
	var code int
	_, stderr := captureOutput(t, func() {
		code = run([]string{"/nonexistent/path/to/file.~ATH"})
	})

	require.Equal(t, 1, code)
	require.Contains(t, stderr, "File not found")
}

func TestRunFileSyntaxErrorExitsOne(t *testing.T) {
	path := writeSource(t, `BIRTH x WITH ;`)

	var code int
	_, stderr := captureOutput(t, func() {
		code = run([]string{path})
	})

	require.Equal(t, 1, code)
	require.Contains(t, stderr, "Error in")
}

func TestRunUnknownFlagExitsOne(t *testing.T) {
	var code int
	_, stderr := captureOutput(t, func() {
		code = run([]string{"--bogus"})
	})

	require.Equal(t, 1, code)
	require.Contains(t, stderr, "Unknown flag")
}

func TestRunTuiWithoutFileExitsOne(t *testing.T) {
	var code int
	_, stderr := captureOutput(t, func() {
		code = run([]string{"--tui"})
	})

	require.Equal(t, 1, code)
	require.Contains(t, stderr, "TUI")
}

func TestLooksIncompleteHeuristics(t *testing.T) {
	require.True(t, looksIncomplete("[line 1, col 5] Unexpected token: EOF"))
	require.True(t, looksIncomplete("[line 1, col 5] Expected ';'"))
	require.False(t, looksIncomplete("[line 1, col 5] Undefined variable: x"))
}

func TestWatcherPollFromConfig(t *testing.T) {
	require.Equal(t, int64(0), watcherPollFromConfig(nil).Milliseconds())

	var f config.File
	f.Scheduler.WatcherPollMs = 25
	require.Equal(t, int64(25), watcherPollFromConfig(&f).Milliseconds())
}
