// Package interp evaluates a parsed ~ATH program: scopes, entities,
// bifurcation, rites, builtins, and the debugger step hook all live here.
package interp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/nilforge/tildeath/internal/ast"
	"github.com/nilforge/tildeath/interp/diag"
)

// Options configures an Interpreter.
type Options struct {
	// SourceFile is the path of the file being run, as given, used to
	// resolve relative watcher import paths. Empty for REPL input.
	SourceFile string
	// Stderr receives the "Program ended without THIS.DIE();" warning and
	// uncaught CONDEMN messages. Defaults to os.Stderr.
	Stderr io.Writer
	// Stdout receives UTTER's output. Defaults to os.Stdout.
	Stdout io.Writer
	// Stdin backs HEED and SCRY(VOID). Defaults to os.Stdin.
	Stdin io.Reader
	// Debugger, if set, receives a stepHook call before every statement.
	Debugger *Debugger
	// WatcherPoll overrides how often a WatcherEntity restats its file.
	// Zero keeps the built-in default (tuned by tildeath.toml's
	// [scheduler].watcher_poll_ms in the CLI).
	WatcherPoll time.Duration
	// Timestamps prefixes every diagnostic log line with the current time,
	// tuned by tildeath.toml's [display].timestamps.
	Timestamps bool
	// importStack carries the chain of watcher-module paths currently
	// being loaded, for circular-import detection. Set by the module
	// loader when constructing a child interpreter; left nil otherwise.
	importStack []string
}

// Interpreter holds everything a single ~ATH program run needs: its entity
// table, global scope, scheduler, and builtin table.
type Interpreter struct {
	GlobalScope *Scope
	Scheduler   *Scheduler
	Builtins    map[string]*BuiltinFunc
	This        *ThisEntity
	Stderr      io.Writer
	Stdout      io.Writer
	Stdin       io.Reader
	SourceFile  string
	Debugger    *Debugger
	WatcherPoll time.Duration
	Timestamps  bool
	diagLog     *diag.Logger

	importStack []string
	stdinOnce   sync.Once
	stdinBuf    *bufio.Reader

	mu          sync.RWMutex
	entities    map[string]Entity
	branchNames map[string]bool
}

// New constructs an Interpreter ready to Run a program.
func New(ctx context.Context, opts Options) *Interpreter {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}
	stdout := opts.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stdin := opts.Stdin
	if stdin == nil {
		stdin = os.Stdin
	}
	watcherPoll := opts.WatcherPoll
	if watcherPoll <= 0 {
		watcherPoll = defaultWatchPoll
	}
	i := &Interpreter{
		GlobalScope: NewScope(nil),
		Scheduler:   NewScheduler(ctx),
		Stderr:      stderr,
		Stdout:      stdout,
		Stdin:       stdin,
		SourceFile:  opts.SourceFile,
		Debugger:    opts.Debugger,
		WatcherPoll: watcherPoll,
		Timestamps:  opts.Timestamps,
		diagLog:     diag.New("interp", stderr).WithTimestamps(opts.Timestamps),
		importStack: opts.importStack,
		entities:    map[string]Entity{},
		branchNames: map[string]bool{},
	}
	i.Scheduler.SetLogOutput(stderr)
	i.Scheduler.SetTimestamps(opts.Timestamps)
	i.Builtins = newBuiltinTable()
	return i
}

// Run executes a parsed program to completion: its top-level statements,
// then every branch and entity goroutine still outstanding once they do.
func (i *Interpreter) Run(program *ast.Program) error {
	i.This = newThisEntity()
	i.setEntity("THIS", i.This)

	runErr := i.execStatements(i.Scheduler.Context(), i.GlobalScope, "MAIN", program.Statements)

	if runErr == nil && i.This.IsAlive() {
		i.diagLog.Warn("Program ended without THIS.DIE();")
	}

	if ce, ok := runErr.(*Error); ok && ce.Kind == KindCondemn {
		i.diagLog.Error("Uncaught error: %s", ce.Message)
	}

	for _, e := range i.snapshotEntities() {
		if e.IsAlive() {
			e.Die()
		}
	}
	waitErr := i.Scheduler.Wait()

	if runErr != nil {
		return runErr
	}
	return waitErr
}

// stdinReader returns the buffered reader backing HEED, created lazily so
// REPL sessions that never call HEED never block waiting to wrap stdin.
func (i *Interpreter) stdinReader() *bufio.Reader {
	i.stdinOnce.Do(func() {
		i.stdinBuf = bufio.NewReader(i.Stdin)
	})
	return i.stdinBuf
}

func (i *Interpreter) setEntity(name string, e Entity) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.entities[name] = e
}

func (i *Interpreter) getEntity(name string) (Entity, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	e, ok := i.entities[name]
	return e, ok
}

func (i *Interpreter) snapshotEntities() []Entity {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make([]Entity, 0, len(i.entities))
	for _, e := range i.entities {
		out = append(out, e)
	}
	return out
}

func (i *Interpreter) markBranch(name string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.branchNames[name] = true
}

func (i *Interpreter) isBranch(name string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.branchNames[name]
}

// ============ Statement execution ============

func (i *Interpreter) execStatements(ctx context.Context, scope *Scope, branch string, stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := i.execStmt(ctx, scope, branch, s); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) execStmt(ctx context.Context, scope *Scope, branch string, node ast.Stmt) error {
	if i.Debugger != nil {
		if err := i.Debugger.stepHook(ctx, node, scope, branch, i); err != nil {
			return err
		}
	}

	switch n := node.(type) {
	case *ast.ImportStmt:
		return i.execImport(ctx, scope, branch, n)
	case *ast.BifurcateStmt:
		return i.execBifurcate(n)
	case *ast.AthLoop:
		return i.execAthLoop(ctx, scope, branch, n)
	case *ast.DieStmt:
		return i.execDie(n)
	case *ast.VarDecl:
		v, err := i.evalExpr(ctx, scope, branch, n.Value)
		if err != nil {
			return err
		}
		scope.Define(n.Name, v, false)
		return nil
	case *ast.ConstDecl:
		v, err := i.evalExpr(ctx, scope, branch, n.Value)
		if err != nil {
			return err
		}
		scope.Define(n.Name, v, true)
		return nil
	case *ast.Assignment:
		return i.execAssignment(ctx, scope, branch, n)
	case *ast.RiteDef:
		scope.Define(n.Name, &Rite{Name: n.Name, Params: n.Params, Body: n.Body, Closure: scope}, true)
		return nil
	case *ast.Conditional:
		return i.execConditional(ctx, scope, branch, n)
	case *ast.AttemptSalvage:
		return i.execAttemptSalvage(ctx, scope, branch, n)
	case *ast.CondemnStmt:
		msg, err := i.evalExpr(ctx, scope, branch, n.Message)
		if err != nil {
			return err
		}
		line, col := n.Pos()
		return condemnError(line, col, Stringify(msg))
	case *ast.BequeathStmt:
		var v interface{}
		if n.Value != nil {
			var err error
			v, err = i.evalExpr(ctx, scope, branch, n.Value)
			if err != nil {
				return err
			}
		}
		return bequeathSignal{value: v}
	case *ast.ExprStmt:
		_, err := i.evalExpr(ctx, scope, branch, n.X)
		return err
	default:
		line, col := node.Pos()
		return runtimeErrorf(line, col, "Unknown statement type: %T", node)
	}
}

func (i *Interpreter) execImport(ctx context.Context, scope *Scope, branch string, n *ast.ImportStmt) error {
	if old, ok := i.getEntity(n.Name); ok {
		old.Die()
	}

	var entity Entity
	switch n.Kind {
	case ast.KindTimer:
		if len(n.Args) != 1 {
			line, col := n.Pos()
			return runtimeErrorf(line, col, "Timer requires a duration")
		}
		dur, ok := n.Args[0].(*ast.DurationLit)
		if !ok {
			line, col := n.Pos()
			return runtimeErrorf(line, col, "Timer requires a duration")
		}
		ms, err := durationToMs(dur)
		if err != nil {
			return err
		}
		entity = NewTimerEntity(i.Scheduler, n.Name, ms)

	case ast.KindProcess:
		args, err := i.evalArgs(ctx, scope, branch, n.Args)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			line, col := n.Pos()
			return runtimeErrorf(line, col, "Process requires at least a command")
		}
		command := Stringify(args[0])
		procArgs := make([]string, len(args)-1)
		for idx, a := range args[1:] {
			procArgs[idx] = Stringify(a)
		}
		entity = NewProcessEntity(i.Scheduler, n.Name, command, procArgs)

	case ast.KindConnection:
		if len(n.Args) != 2 {
			line, col := n.Pos()
			return runtimeErrorf(line, col, "Connection requires host and port")
		}
		hostVal, err := i.evalExpr(ctx, scope, branch, n.Args[0])
		if err != nil {
			return err
		}
		portVal, err := i.evalExpr(ctx, scope, branch, n.Args[1])
		if err != nil {
			return err
		}
		host, ok := hostVal.(string)
		if !ok {
			line, col := n.Pos()
			return runtimeErrorf(line, col, "Connection host must be a string")
		}
		port, ok := portVal.(int64)
		if !ok {
			line, col := n.Pos()
			return runtimeErrorf(line, col, "Connection port must be an integer")
		}
		entity = NewConnectionEntity(i.Scheduler, n.Name, host, port)

	case ast.KindWatcher:
		if len(n.Args) != 1 {
			line, col := n.Pos()
			return runtimeErrorf(line, col, "Watcher requires a filepath")
		}
		pathVal, err := i.evalExpr(ctx, scope, branch, n.Args[0])
		if err != nil {
			return err
		}
		filepath, ok := pathVal.(string)
		if !ok {
			line, col := n.Pos()
			return runtimeErrorf(line, col, "Watcher filepath must be a string")
		}
		resolved := i.resolveImportPath(filepath)
		watcher := NewWatcherEntity(i.Scheduler, n.Name, resolved, i.WatcherPoll)
		entity = watcher
		if isModulePath(resolved) {
			if err := i.loadModule(watcher, resolved, n); err != nil {
				return err
			}
		}

	default:
		line, col := n.Pos()
		return runtimeErrorf(line, col, "Unknown entity type")
	}

	i.setEntity(n.Name, entity)
	return nil
}

func (i *Interpreter) evalArgs(ctx context.Context, scope *Scope, branch string, exprs []ast.Expr) ([]interface{}, error) {
	out := make([]interface{}, len(exprs))
	for idx, e := range exprs {
		v, err := i.evalExpr(ctx, scope, branch, e)
		if err != nil {
			return nil, err
		}
		out[idx] = v
	}
	return out, nil
}

func (i *Interpreter) execBifurcate(n *ast.BifurcateStmt) error {
	if _, ok := i.getEntity(n.Source); !ok {
		line, col := n.Pos()
		return runtimeErrorf(line, col, "Cannot bifurcate unknown entity: %s", n.Source)
	}
	b1 := newBranchEntity(n.Branch1)
	b2 := newBranchEntity(n.Branch2)
	i.setEntity(n.Branch1, b1)
	i.setEntity(n.Branch2, b2)
	i.markBranch(n.Branch1)
	i.markBranch(n.Branch2)
	return nil
}

func (i *Interpreter) execAthLoop(ctx context.Context, scope *Scope, branch string, n *ast.AthLoop) error {
	if ident, ok := n.Entity.(*ast.EntityIdent); ok && i.isBranch(ident.Name) {
		return i.execBranchMode(n, ident.Name)
	}

	entity, err := i.resolveEntityExpr(n.Entity)
	if err != nil {
		return err
	}
	if err := entity.WaitForDeath(ctx); err != nil {
		return err
	}

	// EXECUTE runs on a freshly spawned task, not in this call frame, so
	// chained ~ATH(...) { EXECUTE(...) } recursion resets the Go call stack
	// on every iteration instead of growing it.
	done := make(chan error, 1)
	i.Scheduler.Spawn(func(ctx context.Context) error {
		done <- i.execStatements(ctx, scope, branch, n.Execute)
		return nil
	})
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (i *Interpreter) execBranchMode(n *ast.AthLoop, branchName string) error {
	e, ok := i.getEntity(branchName)
	if !ok {
		line, col := n.Pos()
		return runtimeErrorf(line, col, "%s is not a branch entity", branchName)
	}
	branchEntity, ok := e.(*BranchEntity)
	if !ok {
		line, col := n.Pos()
		return runtimeErrorf(line, col, "%s is not a branch entity", branchName)
	}

	branchScope := NewScope(i.GlobalScope)
	i.Scheduler.Spawn(func(ctx context.Context) error {
		defer branchEntity.Complete()
		if err := i.execStatements(ctx, branchScope, branchName, n.Body); err != nil {
			return nil
		}
		_ = i.execStatements(ctx, branchScope, branchName, n.Execute)
		return nil
	})

	i.Scheduler.Yield()
	return nil
}

func (i *Interpreter) resolveEntityExpr(expr ast.EntityExpr) (Entity, error) {
	switch e := expr.(type) {
	case *ast.EntityIdent:
		ent, ok := i.getEntity(e.Name)
		if !ok {
			line, col := e.Pos()
			return nil, runtimeErrorf(line, col, "Unknown entity: %s", e.Name)
		}
		return ent, nil
	case *ast.EntityAnd:
		left, err := i.resolveEntityExpr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := i.resolveEntityExpr(e.Right)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("(%s && %s)", left.Name(), right.Name())
		return NewCompositeEntity(i.Scheduler, name, CompositeAnd, []Entity{left, right}), nil
	case *ast.EntityOr:
		left, err := i.resolveEntityExpr(e.Left)
		if err != nil {
			return nil, err
		}
		right, err := i.resolveEntityExpr(e.Right)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("(%s || %s)", left.Name(), right.Name())
		return NewCompositeEntity(i.Scheduler, name, CompositeOr, []Entity{left, right}), nil
	case *ast.EntityNot:
		inner, err := i.resolveEntityExpr(e.Operand)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("(!%s)", inner.Name())
		return NewCompositeEntity(i.Scheduler, name, CompositeNot, []Entity{inner}), nil
	default:
		line, col := expr.Pos()
		return nil, runtimeErrorf(line, col, "Unknown entity expression type")
	}
}

func (i *Interpreter) execDie(n *ast.DieStmt) error {
	return i.killTarget(n.Target)
}

func (i *Interpreter) killTarget(target ast.DieTarget) error {
	switch t := target.(type) {
	case *ast.DieIdent:
		e, ok := i.getEntity(t.Name)
		if !ok {
			line, col := t.Pos()
			return runtimeErrorf(line, col, "Unknown entity: %s", t.Name)
		}
		e.Die()
		return nil
	case *ast.DiePair:
		if err := i.killTarget(t.Left); err != nil {
			return err
		}
		return i.killTarget(t.Right)
	default:
		return runtimeError("Unknown die target")
	}
}

func (i *Interpreter) execAssignment(ctx context.Context, scope *Scope, branch string, n *ast.Assignment) error {
	value, err := i.evalExpr(ctx, scope, branch, n.Value)
	if err != nil {
		return err
	}

	switch target := n.Target.(type) {
	case *ast.Identifier:
		return scope.Set(target.Name, value)
	case *ast.IndexExpr:
		obj, err := i.evalExpr(ctx, scope, branch, target.Obj)
		if err != nil {
			return err
		}
		idx, err := i.evalExpr(ctx, scope, branch, target.Index)
		if err != nil {
			return err
		}
		line, col := n.Pos()
		switch o := obj.(type) {
		case []interface{}:
			ix, ok := idx.(int64)
			if !ok {
				return runtimeErrorf(line, col, "Array index must be an integer")
			}
			if ix < 0 || int(ix) >= len(o) {
				return runtimeErrorf(line, col, "Array index out of bounds: %d", ix)
			}
			o[ix] = value
			return nil
		case *Map:
			o.Set(Stringify(idx), value)
			return nil
		default:
			return runtimeErrorf(line, col, "Cannot index non-collection")
		}
	case *ast.MemberExpr:
		obj, err := i.evalExpr(ctx, scope, branch, target.Obj)
		if err != nil {
			return err
		}
		m, ok := obj.(*Map)
		if !ok {
			line, col := n.Pos()
			return runtimeErrorf(line, col, "Cannot access member of non-map")
		}
		m.Set(target.Member, value)
		return nil
	default:
		line, col := n.Pos()
		return runtimeErrorf(line, col, "Invalid assignment target")
	}
}

func (i *Interpreter) execConditional(ctx context.Context, scope *Scope, branch string, n *ast.Conditional) error {
	cond, err := i.evalExpr(ctx, scope, branch, n.Cond)
	if err != nil {
		return err
	}
	if IsTruthy(cond) {
		return i.execStatements(ctx, scope, branch, n.Then)
	}
	if n.Else != nil {
		return i.execStatements(ctx, scope, branch, n.Else)
	}
	return nil
}

func (i *Interpreter) execAttemptSalvage(ctx context.Context, scope *Scope, branch string, n *ast.AttemptSalvage) error {
	err := i.execStatements(ctx, scope, branch, n.Body)
	if err == nil {
		return nil
	}
	ce, ok := err.(*Error)
	if !ok || !ce.Catchable() {
		return err
	}
	salvageScope := NewScope(scope)
	salvageScope.Define(n.ErrName, ce.Message, false)
	return i.execStatements(ctx, salvageScope, branch, n.Handler)
}

// ============ Expression evaluation ============

func (i *Interpreter) evalExpr(ctx context.Context, scope *Scope, branch string, node ast.Expr) (interface{}, error) {
	switch n := node.(type) {
	case *ast.Literal:
		return n.Value, nil
	case *ast.DurationLit:
		return n.Value, nil
	case *ast.Identifier:
		return i.evalIdentifier(scope, n)
	case *ast.BinaryOp:
		return i.evalBinaryOp(ctx, scope, branch, n)
	case *ast.UnaryOp:
		return i.evalUnaryOp(ctx, scope, branch, n)
	case *ast.CallExpr:
		return i.evalCall(ctx, scope, branch, n)
	case *ast.IndexExpr:
		return i.evalIndex(ctx, scope, branch, n)
	case *ast.MemberExpr:
		return i.evalMember(ctx, scope, branch, n)
	case *ast.ArrayLiteral:
		out := make([]interface{}, len(n.Elements))
		for idx, e := range n.Elements {
			v, err := i.evalExpr(ctx, scope, branch, e)
			if err != nil {
				return nil, err
			}
			out[idx] = v
		}
		return out, nil
	case *ast.MapLiteral:
		m := NewMap()
		for idx, key := range n.Keys {
			v, err := i.evalExpr(ctx, scope, branch, n.Values[idx])
			if err != nil {
				return nil, err
			}
			m.Set(key, v)
		}
		return m, nil
	default:
		line, col := node.Pos()
		return nil, runtimeErrorf(line, col, "Unknown expression type: %T", node)
	}
}

func (i *Interpreter) evalIdentifier(scope *Scope, n *ast.Identifier) (interface{}, error) {
	if n.Name == "THIS" {
		return i.This, nil
	}
	if b, ok := i.Builtins[n.Name]; ok {
		return b, nil
	}
	if v, ok := scope.Get(n.Name); ok {
		return v, nil
	}
	if e, ok := i.getEntity(n.Name); ok {
		if w, ok := e.(*WatcherEntity); ok && w.IsModule() {
			return w, nil
		}
	}
	line, col := n.Pos()
	return nil, runtimeErrorf(line, col, "Undefined variable: %s", n.Name)
}

func (i *Interpreter) evalBinaryOp(ctx context.Context, scope *Scope, branch string, n *ast.BinaryOp) (interface{}, error) {
	if n.Op == "AND" {
		left, err := i.evalExpr(ctx, scope, branch, n.Left)
		if err != nil {
			return nil, err
		}
		if !IsTruthy(left) {
			return left, nil
		}
		return i.evalExpr(ctx, scope, branch, n.Right)
	}
	if n.Op == "OR" {
		left, err := i.evalExpr(ctx, scope, branch, n.Left)
		if err != nil {
			return nil, err
		}
		if IsTruthy(left) {
			return left, nil
		}
		return i.evalExpr(ctx, scope, branch, n.Right)
	}

	left, err := i.evalExpr(ctx, scope, branch, n.Left)
	if err != nil {
		return nil, err
	}
	right, err := i.evalExpr(ctx, scope, branch, n.Right)
	if err != nil {
		return nil, err
	}
	line, col := n.Pos()

	switch n.Op {
	case "+":
		if _, ok := left.(string); ok {
			return Stringify(left) + Stringify(right), nil
		}
		if _, ok := right.(string); ok {
			return Stringify(left) + Stringify(right), nil
		}
		if isNumber(left) && isNumber(right) {
			return numericAdd(left, right), nil
		}
		return nil, runtimeErrorf(line, col, "Cannot add %s and %s", Stringify(left), Stringify(right))

	case "-":
		if isNumber(left) && isNumber(right) {
			return numericSub(left, right), nil
		}
		return nil, runtimeErrorf(line, col, "Cannot subtract %s from %s", Stringify(right), Stringify(left))

	case "*":
		if isNumber(left) && isNumber(right) {
			return numericMul(left, right), nil
		}
		return nil, runtimeErrorf(line, col, "Cannot multiply %s by %s", Stringify(left), Stringify(right))

	case "/":
		if isNumber(left) && isNumber(right) {
			li, lok := left.(int64)
			ri, rok := right.(int64)
			if lok && rok {
				if ri == 0 {
					return nil, runtimeErrorf(line, col, "Division by zero")
				}
				return li / ri, nil
			}
			rf := asFloat(right)
			if rf == 0 {
				return nil, runtimeErrorf(line, col, "Division by zero")
			}
			return asFloat(left) / rf, nil
		}
		return nil, runtimeErrorf(line, col, "Cannot divide %s by %s", Stringify(left), Stringify(right))

	case "%":
		li, lok := left.(int64)
		ri, rok := right.(int64)
		if lok && rok {
			if ri == 0 {
				return nil, runtimeErrorf(line, col, "Modulo by zero")
			}
			return li % ri, nil
		}
		return nil, runtimeErrorf(line, col, "Cannot modulo %s by %s", Stringify(left), Stringify(right))

	case "==":
		return Equals(left, right), nil
	case "!=":
		return !Equals(left, right), nil
	case "<", ">", "<=", ">=":
		return compare(n.Op, left, right, line, col)

	case "&":
		li, lok := left.(int64)
		ri, rok := right.(int64)
		if lok && rok {
			return li & ri, nil
		}
		return nil, runtimeErrorf(line, col, "Bitwise AND expects integers")
	case "|":
		li, lok := left.(int64)
		ri, rok := right.(int64)
		if lok && rok {
			return li | ri, nil
		}
		return nil, runtimeErrorf(line, col, "Bitwise OR expects integers")
	case "^":
		li, lok := left.(int64)
		ri, rok := right.(int64)
		if lok && rok {
			return li ^ ri, nil
		}
		return nil, runtimeErrorf(line, col, "Bitwise XOR expects integers")
	case "<<":
		li, lok := left.(int64)
		ri, rok := right.(int64)
		if lok && rok {
			return li << uint64(ri), nil
		}
		return nil, runtimeErrorf(line, col, "Bitwise shift expects integers")
	case ">>":
		li, lok := left.(int64)
		ri, rok := right.(int64)
		if lok && rok {
			return li >> uint64(ri), nil
		}
		return nil, runtimeErrorf(line, col, "Bitwise shift expects integers")
	}

	return nil, runtimeErrorf(line, col, "Unknown operator: %s", n.Op)
}

func numericAdd(a, b interface{}) interface{} {
	ai, aok := a.(int64)
	bi, bok := b.(int64)
	if aok && bok {
		return ai + bi
	}
	return asFloat(a) + asFloat(b)
}

func numericSub(a, b interface{}) interface{} {
	ai, aok := a.(int64)
	bi, bok := b.(int64)
	if aok && bok {
		return ai - bi
	}
	return asFloat(a) - asFloat(b)
}

func numericMul(a, b interface{}) interface{} {
	ai, aok := a.(int64)
	bi, bok := b.(int64)
	if aok && bok {
		return ai * bi
	}
	return asFloat(a) * asFloat(b)
}

func compare(op string, left, right interface{}, line, col int) (interface{}, error) {
	if isNumber(left) && isNumber(right) {
		lf, rf := asFloat(left), asFloat(right)
		switch op {
		case "<":
			return lf < rf, nil
		case ">":
			return lf > rf, nil
		case "<=":
			return lf <= rf, nil
		case ">=":
			return lf >= rf, nil
		}
	}
	ls, lok := left.(string)
	rs, rok := right.(string)
	if lok && rok {
		switch op {
		case "<":
			return ls < rs, nil
		case ">":
			return ls > rs, nil
		case "<=":
			return ls <= rs, nil
		case ">=":
			return ls >= rs, nil
		}
	}
	return nil, runtimeErrorf(line, col, "Cannot compare %s and %s", Stringify(left), Stringify(right))
}

func (i *Interpreter) evalUnaryOp(ctx context.Context, scope *Scope, branch string, n *ast.UnaryOp) (interface{}, error) {
	operand, err := i.evalExpr(ctx, scope, branch, n.Operand)
	if err != nil {
		return nil, err
	}
	line, col := n.Pos()
	switch n.Op {
	case "NOT":
		return !IsTruthy(operand), nil
	case "-":
		switch v := operand.(type) {
		case int64:
			return -v, nil
		case float64:
			return -v, nil
		}
		return nil, runtimeErrorf(line, col, "Cannot negate %s", Stringify(operand))
	case "~":
		if v, ok := operand.(int64); ok {
			return ^v, nil
		}
		return nil, runtimeErrorf(line, col, "Bitwise NOT expects integer")
	default:
		return nil, runtimeErrorf(line, col, "Unknown unary operator: %s", n.Op)
	}
}

func (i *Interpreter) evalCall(ctx context.Context, scope *Scope, branch string, n *ast.CallExpr) (interface{}, error) {
	callee, err := i.evalExpr(ctx, scope, branch, n.Callee)
	if err != nil {
		return nil, err
	}
	args, err := i.evalArgs(ctx, scope, branch, n.Args)
	if err != nil {
		return nil, err
	}
	line, col := n.Pos()

	switch c := callee.(type) {
	case *BuiltinFunc:
		return c.Fn(i, args, line, col)
	case *Rite:
		return i.callRite(ctx, c, args, line, col)
	default:
		return nil, runtimeErrorf(line, col, "Cannot call %s", Stringify(callee))
	}
}

func (i *Interpreter) callRite(ctx context.Context, rite *Rite, args []interface{}, line, col int) (interface{}, error) {
	if len(args) != len(rite.Params) {
		return nil, runtimeErrorf(line, col, "Rite '%s' expects %d arguments, got %d", rite.Name, len(rite.Params), len(args))
	}
	callScope := NewScope(rite.Closure)
	for idx, p := range rite.Params {
		callScope.Define(p, args[idx], false)
	}
	err := i.execStatements(ctx, callScope, "MAIN", rite.Body)
	if err == nil {
		return nil, nil
	}
	if bq, ok := err.(bequeathSignal); ok {
		return bq.value, nil
	}
	return nil, err
}

func (i *Interpreter) evalIndex(ctx context.Context, scope *Scope, branch string, n *ast.IndexExpr) (interface{}, error) {
	obj, err := i.evalExpr(ctx, scope, branch, n.Obj)
	if err != nil {
		return nil, err
	}
	idx, err := i.evalExpr(ctx, scope, branch, n.Index)
	if err != nil {
		return nil, err
	}
	line, col := n.Pos()

	switch o := obj.(type) {
	case []interface{}:
		ix, ok := idx.(int64)
		if !ok {
			return nil, runtimeErrorf(line, col, "Array index must be an integer")
		}
		if ix < 0 || int(ix) >= len(o) {
			return nil, runtimeErrorf(line, col, "Array index out of bounds: %d", ix)
		}
		return o[ix], nil
	case *Map:
		key := Stringify(idx)
		v, ok := o.Get(key)
		if !ok {
			return nil, runtimeErrorf(line, col, "Key not found in map: %s", key)
		}
		return v, nil
	case string:
		ix, ok := idx.(int64)
		if !ok {
			return nil, runtimeErrorf(line, col, "String index must be an integer")
		}
		runes := []rune(o)
		if ix < 0 || int(ix) >= len(runes) {
			return nil, runtimeErrorf(line, col, "String index out of bounds: %d", ix)
		}
		return string(runes[ix]), nil
	default:
		return nil, runtimeErrorf(line, col, "Cannot index %s", Stringify(obj))
	}
}

func (i *Interpreter) evalMember(ctx context.Context, scope *Scope, branch string, n *ast.MemberExpr) (interface{}, error) {
	obj, err := i.evalExpr(ctx, scope, branch, n.Obj)
	if err != nil {
		return nil, err
	}
	line, col := n.Pos()

	if m, ok := obj.(*Map); ok {
		v, ok := m.Get(n.Member)
		if !ok {
			return nil, runtimeErrorf(line, col, "Key not found in map: %s", n.Member)
		}
		return v, nil
	}
	if w, ok := obj.(*WatcherEntity); ok && w.IsModule() {
		v, ok := w.Export(n.Member)
		if !ok {
			return nil, runtimeErrorf(line, col, "Module '%s' has no export '%s'", w.Name(), n.Member)
		}
		return v, nil
	}
	return nil, runtimeErrorf(line, col, "Cannot access member of %s", Stringify(obj))
}
