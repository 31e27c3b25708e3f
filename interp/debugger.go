package interp

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nilforge/tildeath/internal/ast"
	"github.com/nilforge/tildeath/interp/diag"
)

// DebuggerState is the stepping debugger's current mode.
type DebuggerState int

const (
	StateRunning DebuggerState = iota
	StateStepping
	StatePaused
	StateQuit
)

// StepInfo snapshots the node being stepped into, for display.
type StepInfo struct {
	Line        int
	Column      int
	NodeType    string
	Description string
	Branch      string
	SourceLine  string
}

// Debugger is a line-mode stepping debugger driven from the CLI's --step
// flag. Unlike the reference implementation's thread-pool-executor dance to
// keep stdin reads off the asyncio loop, a blocking bufio read here parks
// only the calling goroutine — every other branch and entity goroutine
// keeps running underneath it, so no executor indirection is needed.
type Debugger struct {
	state       DebuggerState
	sourceLines []string
	lastCommand string
	in          *bufio.Reader
	out         io.Writer
	log         *diag.Logger
}

// NewDebugger constructs a debugger in STEPPING mode, as the reference
// implementation defaults to whenever a debugger is attached at all.
func NewDebugger(source string, in io.Reader, out io.Writer) *Debugger {
	return &Debugger{
		state:       StateStepping,
		sourceLines: strings.Split(source, "\n"),
		lastCommand: "step",
		in:          bufio.NewReader(in),
		out:         out,
		log:         diag.New("debugger", out),
	}
}

// stepHook is called before every statement executes. A non-nil return
// (always quitSignal) unwinds the whole run.
func (d *Debugger) stepHook(ctx context.Context, node ast.Stmt, scope *Scope, branch string, interp *Interpreter) error {
	if d.state == StateRunning {
		return nil
	}

	if d.state == StateStepping {
		d.state = StatePaused
		info := d.stepInfo(node, branch)
		d.display(info, scope, interp)

		for d.state == StatePaused {
			fmt.Fprint(d.out, "(step) ")
			line, err := d.in.ReadString('\n')
			if err != nil && line == "" {
				d.log.Info("stdin closed, quitting")
				d.state = StateQuit
				return quitSignal{}
			}
			cmd := strings.TrimSpace(line)
			if cmd == "" {
				cmd = d.lastCommand
			} else {
				cmd = strings.ToLower(cmd)
				d.lastCommand = cmd
			}
			d.processCommand(cmd, scope, interp)
		}
	}

	if d.state == StateQuit {
		return quitSignal{}
	}
	return nil
}

func (d *Debugger) stepInfo(node ast.Stmt, branch string) StepInfo {
	line, col := node.Pos()
	source := ""
	if line > 0 && line <= len(d.sourceLines) {
		source = d.sourceLines[line-1]
	}
	return StepInfo{
		Line:        line,
		Column:      col,
		NodeType:    nodeTypeName(node),
		Description: describeNode(node),
		Branch:      branch,
		SourceLine:  source,
	}
}

func nodeTypeName(node ast.Stmt) string {
	switch node.(type) {
	case *ast.ImportStmt:
		return "ImportStmt"
	case *ast.BifurcateStmt:
		return "BifurcateStmt"
	case *ast.AthLoop:
		return "AthLoop"
	case *ast.DieStmt:
		return "DieStmt"
	case *ast.VarDecl:
		return "VarDecl"
	case *ast.ConstDecl:
		return "ConstDecl"
	case *ast.Assignment:
		return "Assignment"
	case *ast.RiteDef:
		return "RiteDef"
	case *ast.Conditional:
		return "Conditional"
	case *ast.AttemptSalvage:
		return "AttemptSalvage"
	case *ast.CondemnStmt:
		return "CondemnStmt"
	case *ast.BequeathStmt:
		return "BequeathStmt"
	case *ast.ExprStmt:
		return "ExprStmt"
	default:
		return "Unknown"
	}
}

func describeNode(node ast.Stmt) string {
	switch n := node.(type) {
	case *ast.ImportStmt:
		return fmt.Sprintf("Importing entity '%s'", n.Name)
	case *ast.BifurcateStmt:
		return fmt.Sprintf("Bifurcating '%s' into '%s' and '%s'", n.Source, n.Branch1, n.Branch2)
	case *ast.AthLoop:
		return "~ATH loop waiting on entity"
	case *ast.DieStmt:
		return "Invoking .DIE()"
	case *ast.VarDecl:
		return fmt.Sprintf("Declaring variable '%s'", n.Name)
	case *ast.ConstDecl:
		return fmt.Sprintf("Declaring constant '%s'", n.Name)
	case *ast.Assignment:
		return "Assignment"
	case *ast.RiteDef:
		return fmt.Sprintf("Defining rite '%s'", n.Name)
	case *ast.Conditional:
		return "Conditional check (SHOULD)"
	case *ast.AttemptSalvage:
		return "Entering ATTEMPT block"
	case *ast.CondemnStmt:
		return "Throwing error (CONDEMN)"
	case *ast.BequeathStmt:
		return "Returning value (BEQUEATH)"
	case *ast.ExprStmt:
		return "Expression statement"
	default:
		return fmt.Sprintf("%T", node)
	}
}

func (d *Debugger) display(info StepInfo, scope *Scope, interp *Interpreter) {
	bar := strings.Repeat("=", 80)
	fmt.Fprintln(d.out, bar)
	fmt.Fprintf(d.out, "Step | Branch: %s | Line %d, Col %d\n", info.Branch, info.Line, info.Column)
	fmt.Fprintln(d.out, strings.Repeat("-", 80))

	if info.SourceLine != "" {
		fmt.Fprintln(d.out, "SOURCE:")
		fmt.Fprintf(d.out, "   %d | %s\n", info.Line, info.SourceLine)
		markerIndent := info.Column - 1
		if markerIndent < 0 {
			markerIndent = 0
		}
		fmt.Fprintln(d.out, strings.Repeat(" ", 6+markerIndent)+"^^^^^")
	}

	fmt.Fprintf(d.out, "\nSTATEMENT: %s\n", info.NodeType)
	fmt.Fprintf(d.out, "  %s\n", info.Description)

	fmt.Fprintln(d.out, "\nSCOPE VARIABLES:")
	vars := scope.Variables()
	count := 0
	for name, value := range vars {
		fmt.Fprintf(d.out, "  %s = %s (%s)\n", name, quotedValue(value), TypeName(value))
		count++
		if count >= 5 {
			fmt.Fprintln(d.out, "  ... (use 'v' to see all)")
			break
		}
	}
	if count == 0 {
		fmt.Fprintln(d.out, "  (empty)")
	}

	fmt.Fprintf(d.out, "\nPENDING TASKS: %d\n", interp.Scheduler.ActiveCount())
	fmt.Fprintln(d.out, bar)
	fmt.Fprintln(d.out, "Commands: [Enter]=step  [c]=continue  [v]=variables  [e]=entities  [q]=quit")
}

func quotedValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return `"` + s + `"`
	}
	return Stringify(v)
}

func (d *Debugger) processCommand(cmd string, scope *Scope, interp *Interpreter) {
	switch cmd {
	case "s", "step":
		d.state = StateStepping
	case "c", "continue":
		d.state = StateRunning
	case "q", "quit":
		d.state = StateQuit
	case "v", "vars", "variables":
		fmt.Fprintln(d.out, "\n--- ALL VARIABLES ---")
		current := scope
		depth := 0
		for current != nil {
			fmt.Fprintf(d.out, "Scope Level %d:\n", depth)
			vars := current.Variables()
			if len(vars) == 0 {
				fmt.Fprintln(d.out, "  (empty)")
			}
			for name, value := range vars {
				fmt.Fprintf(d.out, "  %s = %s\n", name, quotedValue(value))
			}
			current = current.Parent()
			depth++
		}
		fmt.Fprintln(d.out, "---------------------")
		d.state = StatePaused
	case "e", "entities":
		fmt.Fprintln(d.out, "\n--- ENTITIES ---")
		for _, e := range interp.snapshotEntities() {
			status := "DEAD"
			if e.IsAlive() {
				status = "ALIVE"
			}
			fmt.Fprintf(d.out, "  %-15s : %-5s (%s)\n", e.Name(), status, e.Kind())
		}
		fmt.Fprintln(d.out, "----------------")
		d.state = StatePaused
	case "t", "tasks":
		fmt.Fprintln(d.out, "\n--- PENDING TASKS ---")
		fmt.Fprintf(d.out, "  %d goroutine(s) outstanding\n", interp.Scheduler.ActiveCount())
		fmt.Fprintln(d.out, "---------------------")
		d.state = StatePaused
	case "h", "help", "?":
		fmt.Fprintln(d.out, "\n--- DEBUGGER HELP ---")
		fmt.Fprintln(d.out, "  (Enter) / s / step   : Execute next statement")
		fmt.Fprintln(d.out, "  c / continue         : Resume execution without stopping until the end")
		fmt.Fprintln(d.out, "  v / variables        : Show all variables in current scope chain")
		fmt.Fprintln(d.out, "  e / entities         : Show all entities and their status")
		fmt.Fprintln(d.out, "  t / tasks            : Show pending goroutines")
		fmt.Fprintln(d.out, "  q / quit             : Stop execution")
		fmt.Fprintln(d.out, "---------------------")
		d.state = StatePaused
	default:
		fmt.Fprintf(d.out, "Unknown command: %s\n", cmd)
		d.log.Warn("unknown debugger command: %s", cmd)
		d.state = StatePaused
	}
}
