// Package config loads tildeath.toml, the interpreter's tuning-knob file:
// scheduler poll intervals, import-depth limits, and display preferences.
// It never persists evaluated program state.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// File is the parsed shape of tildeath.toml. Every field is optional; a
// missing file or missing section just leaves the interpreter's built-in
// defaults in place.
type File struct {
	Scheduler struct {
		WatcherPollMs int64 `toml:"watcher_poll_ms"`
	} `toml:"scheduler"`

	Limits struct {
		MaxImportStack int `toml:"max_import_stack"`
	} `toml:"limits"`

	Display struct {
		Timestamps bool `toml:"timestamps"`
	} `toml:"display"`
}

// Load reads tildeath.toml from dir, returning a zero-value File (not an
// error) if the file does not exist there.
func Load(dir string) (*File, error) {
	path := filepath.Join(dir, "tildeath.toml")
	var f File
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &f, nil
	}
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// FindAndLoad looks for tildeath.toml next to entryPath first, then in the
// working directory, and loads whichever is found first. entryPath may be
// empty (REPL mode), in which case only the working directory is checked.
func FindAndLoad(entryPath string) (*File, error) {
	if entryPath != "" {
		dir := filepath.Dir(entryPath)
		if _, err := os.Stat(filepath.Join(dir, "tildeath.toml")); err == nil {
			return Load(dir)
		}
	}
	wd, err := os.Getwd()
	if err != nil {
		return &File{}, nil
	}
	return Load(wd)
}
