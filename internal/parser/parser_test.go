package parser_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nilforge/tildeath/internal/ast"
	"github.com/nilforge/tildeath/internal/parser"
)

func TestParseImportTimer(t *testing.T) {
	prog, err := parser.Parse(`import timer T(500ms);`)
	require.NoError(t, err)
	require.Len(t, prog.Statements, 1)
	imp, ok := prog.Statements[0].(*ast.ImportStmt)
	require.True(t, ok)
	require.Equal(t, ast.KindTimer, imp.Kind)
	require.Equal(t, "T", imp.Name)
	require.Len(t, imp.Args, 1)
	dur, ok := imp.Args[0].(*ast.DurationLit)
	require.True(t, ok)
	require.Equal(t, "ms", dur.Unit)
	require.Equal(t, int64(500), dur.Value)
}

func TestParseImportTimerBareIntegerIsMilliseconds(t *testing.T) {
	prog, err := parser.Parse(`import timer T(50);`)
	require.NoError(t, err)
	imp := prog.Statements[0].(*ast.ImportStmt)
	dur := imp.Args[0].(*ast.DurationLit)
	require.Equal(t, "ms", dur.Unit)
	require.Equal(t, int64(50), dur.Value)
}

func TestParseImportProcessTakesExpressionArgs(t *testing.T) {
	prog, err := parser.Parse(`import process P("echo", "hi");`)
	require.NoError(t, err)
	imp := prog.Statements[0].(*ast.ImportStmt)
	require.Equal(t, ast.KindProcess, imp.Kind)
	require.Len(t, imp.Args, 2)
}

func TestParseBifurcate(t *testing.T) {
	prog, err := parser.Parse(`bifurcate THIS[left, right];`)
	require.NoError(t, err)
	b := prog.Statements[0].(*ast.BifurcateStmt)
	require.Equal(t, "THIS", b.Source)
	require.Equal(t, "left", b.Branch1)
	require.Equal(t, "right", b.Branch2)
}

func TestParseAthLoopWithCompositeEntity(t *testing.T) {
	src := `~ATH(A && !B) { BIRTH x WITH 1; } EXECUTE(UTTER(x));`
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	loop := prog.Statements[0].(*ast.AthLoop)
	and, ok := loop.Entity.(*ast.EntityAnd)
	require.True(t, ok)
	require.Equal(t, "A", and.Left.(*ast.EntityIdent).Name)
	not, ok := and.Right.(*ast.EntityNot)
	require.True(t, ok)
	require.Equal(t, "B", not.Operand.(*ast.EntityIdent).Name)
	require.Len(t, loop.Body, 1)
	require.Len(t, loop.Execute, 1)
}

func TestParseDieOnIdentifier(t *testing.T) {
	prog, err := parser.Parse(`E.DIE();`)
	require.NoError(t, err)
	die := prog.Statements[0].(*ast.DieStmt)
	ident := die.Target.(*ast.DieIdent)
	require.Equal(t, "E", ident.Name)
}

func TestParseDieOnThis(t *testing.T) {
	prog, err := parser.Parse(`THIS.DIE();`)
	require.NoError(t, err)
	die := prog.Statements[0].(*ast.DieStmt)
	require.Equal(t, "THIS", die.Target.(*ast.DieIdent).Name)
}

func TestParseDieOnPair(t *testing.T) {
	prog, err := parser.Parse(`[A, [B, C]].DIE();`)
	require.NoError(t, err)
	die := prog.Statements[0].(*ast.DieStmt)
	pair := die.Target.(*ast.DiePair)
	require.Equal(t, "A", pair.Left.(*ast.DieIdent).Name)
	inner := pair.Right.(*ast.DiePair)
	require.Equal(t, "B", inner.Left.(*ast.DieIdent).Name)
	require.Equal(t, "C", inner.Right.(*ast.DieIdent).Name)
}

func TestParseAssignment(t *testing.T) {
	prog, err := parser.Parse(`x = 5;`)
	require.NoError(t, err)
	assign := prog.Statements[0].(*ast.Assignment)
	require.Equal(t, "x", assign.Target.(*ast.Identifier).Name)
}

func TestParseIndexAndMemberAssignment(t *testing.T) {
	prog, err := parser.Parse(`m["k"] = 1; m.k = 2;`)
	require.NoError(t, err)
	require.Len(t, prog.Statements, 2)
	a0 := prog.Statements[0].(*ast.Assignment)
	_, ok := a0.Target.(*ast.IndexExpr)
	require.True(t, ok)
	a1 := prog.Statements[1].(*ast.Assignment)
	_, ok = a1.Target.(*ast.MemberExpr)
	require.True(t, ok)
}

func TestParseRiteDef(t *testing.T) {
	prog, err := parser.Parse(`RITE add(a, b) { BEQUEATH a + b; }`)
	require.NoError(t, err)
	rite := prog.Statements[0].(*ast.RiteDef)
	require.Equal(t, "add", rite.Name)
	require.Equal(t, []string{"a", "b"}, rite.Params)
	require.Len(t, rite.Body, 1)
	_, ok := rite.Body[0].(*ast.BequeathStmt)
	require.True(t, ok)
}

func TestParseConditionalChain(t *testing.T) {
	prog, err := parser.Parse(`SHOULD x > 0 { UTTER("pos"); } LEST SHOULD x < 0 { UTTER("neg"); } LEST { UTTER("zero"); }`)
	require.NoError(t, err)
	cond := prog.Statements[0].(*ast.Conditional)
	require.Len(t, cond.Else, 1)
	nested, ok := cond.Else[0].(*ast.Conditional)
	require.True(t, ok)
	require.Len(t, nested.Else, 1)
}

func TestParseAttemptSalvage(t *testing.T) {
	prog, err := parser.Parse(`ATTEMPT { CONDEMN "bad"; } SALVAGE err { UTTER(err); }`)
	require.NoError(t, err)
	as := prog.Statements[0].(*ast.AttemptSalvage)
	require.Equal(t, "err", as.ErrName)
	require.Len(t, as.Body, 1)
	require.Len(t, as.Handler, 1)
}

func TestParseBequeathVoid(t *testing.T) {
	prog, err := parser.Parse(`RITE f() { BEQUEATH; }`)
	require.NoError(t, err)
	rite := prog.Statements[0].(*ast.RiteDef)
	bq := rite.Body[0].(*ast.BequeathStmt)
	require.Nil(t, bq.Value)
}

func TestParseExpressionPrecedence(t *testing.T) {
	prog, err := parser.Parse(`x = 1 + 2 * 3;`)
	require.NoError(t, err)
	assign := prog.Statements[0].(*ast.Assignment)
	bin := assign.Value.(*ast.BinaryOp)
	require.Equal(t, "+", bin.Op)
	require.Equal(t, int64(1), bin.Left.(*ast.Literal).Value)
	mul := bin.Right.(*ast.BinaryOp)
	require.Equal(t, "*", mul.Op)
}

func TestParseArrayAndMapLiterals(t *testing.T) {
	prog, err := parser.Parse(`x = [1, 2, 3]; y = {"a": 1, "b": 2};`)
	require.NoError(t, err)
	arr := prog.Statements[0].(*ast.Assignment).Value.(*ast.ArrayLiteral)
	require.Len(t, arr.Elements, 3)
	m := prog.Statements[1].(*ast.Assignment).Value.(*ast.MapLiteral)
	require.Equal(t, []string{"a", "b"}, m.Keys)
}

func TestParseCallAndIndexChaining(t *testing.T) {
	prog, err := parser.Parse(`x = LENGTH(arr)[0];`)
	require.NoError(t, err)
	idx := prog.Statements[0].(*ast.Assignment).Value.(*ast.IndexExpr)
	_, ok := idx.Obj.(*ast.CallExpr)
	require.True(t, ok)
}

func TestParseUnaryOperators(t *testing.T) {
	prog, err := parser.Parse(`x = NOT ALIVE; y = -x; z = ~5;`)
	require.NoError(t, err)
	u0 := prog.Statements[0].(*ast.Assignment).Value.(*ast.UnaryOp)
	require.Equal(t, "NOT", u0.Op)
	u1 := prog.Statements[1].(*ast.Assignment).Value.(*ast.UnaryOp)
	require.Equal(t, "-", u1.Op)
	u2 := prog.Statements[2].(*ast.Assignment).Value.(*ast.UnaryOp)
	require.Equal(t, "~", u2.Op)
}

func TestParseUnexpectedTokenIsSyntaxError(t *testing.T) {
	_, err := parser.Parse(`)`)
	require.Error(t, err)
	var perr *parser.Error
	require.ErrorAs(t, err, &perr)
}

func TestParseMissingSemicolonIsSyntaxError(t *testing.T) {
	_, err := parser.Parse(`BIRTH x WITH 1`)
	require.Error(t, err)
}
