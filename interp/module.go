package interp

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nilforge/tildeath/internal/ast"
	"github.com/nilforge/tildeath/internal/lexer"
	"github.com/nilforge/tildeath/internal/parser"
	"github.com/nilforge/tildeath/interp/diag"
)

// defaultWatchPoll is how often a WatcherEntity restats its file.
const defaultWatchPoll = 50 * time.Millisecond

// moduleExt is the suffix that marks a watched file as a child module rather
// than a plain file-existence watch.
const moduleExt = ".~ATH"

func isModulePath(path string) bool {
	return strings.HasSuffix(path, moduleExt)
}

// durationToMs resolves a parsed duration literal to milliseconds,
// enforcing the 1ms floor the reference timer entity requires.
func durationToMs(d *ast.DurationLit) (time.Duration, error) {
	var ms int64
	switch d.Unit {
	case "ms", "":
		ms = d.Value
	case "s":
		ms = d.Value * 1000
	case "m":
		ms = d.Value * 60 * 1000
	case "h":
		ms = d.Value * 60 * 60 * 1000
	default:
		ms = d.Value
	}
	if ms < 1 {
		return 0, runtimeErrorf(d.Line, d.Column, "Timer duration must be at least 1ms (got %dms)", ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// resolveImportPath resolves filepath relative to the directory of the
// current source file (or the working directory for REPL input).
func (i *Interpreter) resolveImportPath(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	baseDir := "."
	if i.SourceFile != "" {
		baseDir = filepath.Dir(i.SourceFile)
	} else if wd, err := os.Getwd(); err == nil {
		baseDir = wd
	}
	return filepath.Clean(filepath.Join(baseDir, path))
}

// loadModule reads, lexes, parses, and runs resolvedPath as a child
// interpreter, then copies its global scope's bindings into watcher's
// exports. Circular imports are rejected via the interpreter's import
// stack.
func (i *Interpreter) loadModule(watcher *WatcherEntity, resolvedPath string, node *ast.ImportStmt) error {
	line, col := node.Pos()
	moduleLog := diag.New("module", i.Stderr).WithTimestamps(i.Timestamps)

	for _, p := range i.importStack {
		if p == resolvedPath {
			chain := strings.Join(append(append([]string{}, i.importStack...), resolvedPath), " -> ")
			moduleLog.Error("circular import: %s", chain)
			return runtimeErrorf(line, col, "Circular import detected: %s", chain)
		}
	}

	moduleLog.Info("loading %s", resolvedPath)

	source, err := os.ReadFile(resolvedPath)
	if err != nil {
		if os.IsNotExist(err) {
			return runtimeErrorf(line, col, "Module file not found: %s", resolvedPath)
		}
		return runtimeErrorf(line, col, "Cannot read module file: %s", err)
	}

	tokens, lexErr := lexer.New(string(source)).Tokenize()
	if lexErr != nil {
		return runtimeErrorf(line, col, "Error in module '%s': %s", resolvedPath, lexErr)
	}
	program, parseErr := parser.New(tokens).ParseProgram()
	if parseErr != nil {
		return runtimeErrorf(line, col, "Error in module '%s': %s", resolvedPath, parseErr)
	}

	child := New(i.Scheduler.Context(), Options{
		SourceFile:  resolvedPath,
		Stderr:      i.Stderr,
		WatcherPoll: i.WatcherPoll,
		Timestamps:  i.Timestamps,
		importStack: append(append([]string{}, i.importStack...), resolvedPath),
	})

	if err := child.Run(program); err != nil {
		return runtimeErrorf(line, col, "Error in module '%s': %s", resolvedPath, err)
	}

	watcher.SetModule(child.GlobalScope.Variables())
	return nil
}
