package interp

import "github.com/nilforge/tildeath/internal/ast"

// Rite is a user-defined callable: a RITE declaration's parameters, body,
// and the scope it closed over at definition time.
type Rite struct {
	Name    string
	Params  []string
	Body    []ast.Stmt
	Closure *Scope
}

// BuiltinFunc is a builtin callable (UTTER, LENGTH, SLICE, ...). Builtins
// receive already-evaluated arguments and the call's source position for
// error reporting, and return a runtime value or an *Error.
type BuiltinFunc struct {
	Name string
	Fn   func(interp *Interpreter, args []interface{}, line, col int) (interface{}, error)
}
