// Package parser implements a recursive-descent parser for the ~ATH
// language, producing the internal/ast node tree from a token stream.
package parser

import (
	"fmt"

	"github.com/nilforge/tildeath/internal/ast"
	"github.com/nilforge/tildeath/internal/lexer"
	"github.com/nilforge/tildeath/internal/token"
)

// Error is a syntax error: unexpected token, missing punctuation.
type Error struct {
	Message string
	Line    int
	Column  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("[line %d, col %d] %s", e.Line, e.Column, e.Message)
}

// Parser consumes a token slice and builds an ast.Program.
type Parser struct {
	tokens []token.Token
	pos    int
}

// New creates a Parser over an already-scanned token stream.
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse lexes and parses source text in one step.
func Parse(src string) (*ast.Program, error) {
	toks, err := lexer.New(src).Tokenize()
	if err != nil {
		return nil, err
	}
	return New(toks).ParseProgram()
}

func (p *Parser) current() token.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek(offset int) token.Token {
	i := p.pos + offset
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) check(types ...token.Type) bool {
	cur := p.current().Type
	for _, t := range types {
		if cur == t {
			return true
		}
	}
	return false
}

func (p *Parser) advance() token.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) match(types ...token.Type) bool {
	if p.check(types...) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consume(t token.Type, message string) (token.Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	return token.Token{}, p.errorAt(p.current(), message)
}

func (p *Parser) errorAt(tok token.Token, format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Line: tok.Line, Column: tok.Column}
}

// ---- Program ----

// ParseProgram parses the entire token stream as a top-level program.
func (p *Parser) ParseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	for !p.check(token.EOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, stmt)
	}
	return prog, nil
}

// ---- Statements ----

// parseStatement parses a top-level statement: the only place `bifurcate`,
// DIE-or-assignment-or-expr disambiguation, and THIS.DIE() are recognized.
func (p *Parser) parseStatement() (ast.Stmt, error) {
	switch {
	case p.check(token.IMPORT):
		return p.parseImport()
	case p.check(token.BIFURCATE):
		return p.parseBifurcate()
	case p.check(token.TILDEATH):
		return p.parseAthLoop()
	case p.check(token.BIRTH):
		return p.parseVarDecl()
	case p.check(token.ENTOMB):
		return p.parseConstDecl()
	case p.check(token.RITE):
		return p.parseRiteDef()
	case p.check(token.SHOULD):
		return p.parseConditional()
	case p.check(token.ATTEMPT):
		return p.parseAttemptSalvage()
	case p.check(token.CONDEMN):
		return p.parseCondemn()
	case p.check(token.BEQUEATH):
		return p.parseBequeath()
	case p.check(token.IDENT, token.LBRACKET):
		return p.parseDieOrAssignmentOrExpr()
	case p.check(token.THIS):
		return p.parseDieOrExpr()
	}
	tok := p.current()
	return nil, p.errorAt(tok, "Unexpected token: %s", tok.Type)
}

// parseExecuteStatement parses a statement inside EXECUTE(...), a RITE body,
// a SHOULD/LEST branch, or an ATTEMPT/SALVAGE block. It never recognizes
// `bifurcate` or the DIE-statement forms; those remain plain expressions
// here, matching the reference grammar.
func (p *Parser) parseExecuteStatement() (ast.Stmt, error) {
	switch {
	case p.check(token.IMPORT):
		return p.parseImport()
	case p.check(token.TILDEATH):
		return p.parseAthLoop()
	case p.check(token.BIRTH):
		return p.parseVarDecl()
	case p.check(token.ENTOMB):
		return p.parseConstDecl()
	case p.check(token.RITE):
		return p.parseRiteDef()
	case p.check(token.SHOULD):
		return p.parseConditional()
	case p.check(token.ATTEMPT):
		return p.parseAttemptSalvage()
	case p.check(token.CONDEMN):
		return p.parseCondemn()
	case p.check(token.BEQUEATH):
		return p.parseBequeath()
	}

	if p.check(token.VOID) {
		tok := p.advance()
		p.match(token.SEMICOLON)
		lit := &ast.Literal{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Value: nil}
		return &ast.ExprStmt{Position: lit.Position, X: lit}, nil
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if p.check(token.ASSIGN) {
		p.advance()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.SEMICOLON, "Expected ';' after assignment"); err != nil {
			return nil, err
		}
		l, c := expr.Pos()
		return &ast.Assignment{Position: ast.Position{Line: l, Column: c}, Target: expr, Value: value}, nil
	}

	p.match(token.SEMICOLON)
	l, c := expr.Pos()
	return &ast.ExprStmt{Position: ast.Position{Line: l, Column: c}, X: expr}, nil
}

func (p *Parser) parseImport() (ast.Stmt, error) {
	start := p.advance() // 'import'

	if !p.check(token.TIMER, token.PROCESS, token.CONNECTION, token.WATCHER) {
		return nil, p.errorAt(p.current(), "Expected entity type (timer, process, connection, watcher)")
	}
	kindTok := p.advance()
	var kind ast.EntityKind
	switch kindTok.Type {
	case token.TIMER:
		kind = ast.KindTimer
	case token.PROCESS:
		kind = ast.KindProcess
	case token.CONNECTION:
		kind = ast.KindConnection
	case token.WATCHER:
		kind = ast.KindWatcher
	}

	nameTok, err := p.consume(token.IDENT, "Expected entity name")
	if err != nil {
		return nil, err
	}

	if _, err := p.consume(token.LPAREN, "Expected '(' after entity name"); err != nil {
		return nil, err
	}

	var args []ast.Expr
	if kindTok.Type == token.TIMER {
		switch {
		case p.check(token.DURATION):
			durTok := p.advance()
			d := durTok.Val.(token.Duration)
			args = append(args, &ast.DurationLit{Position: ast.Position{Line: durTok.Line, Column: durTok.Column}, Unit: d.Unit, Value: d.Value})
		case p.check(token.INTEGER):
			intTok := p.advance()
			args = append(args, &ast.DurationLit{Position: ast.Position{Line: intTok.Line, Column: intTok.Column}, Unit: "ms", Value: intTok.Val.(int64)})
		default:
			return nil, p.errorAt(p.current(), "Expected duration for timer")
		}
	} else if !p.check(token.RPAREN) {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		for p.match(token.COMMA) {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
	}

	if _, err := p.consume(token.RPAREN, "Expected ')' after import arguments"); err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMICOLON, "Expected ';' after import statement"); err != nil {
		return nil, err
	}

	return &ast.ImportStmt{
		Position: ast.Position{Line: start.Line, Column: start.Column},
		Kind:     kind,
		Name:     nameTok.Lit,
		Args:     args,
	}, nil
}

func (p *Parser) parseBifurcate() (ast.Stmt, error) {
	start := p.advance() // 'bifurcate'

	var source string
	if p.check(token.THIS) {
		source = p.advance().Lit
	} else {
		nameTok, err := p.consume(token.IDENT, "Expected entity to bifurcate")
		if err != nil {
			return nil, err
		}
		source = nameTok.Lit
	}

	if _, err := p.consume(token.LBRACKET, "Expected '[' after entity"); err != nil {
		return nil, err
	}
	b1, err := p.consume(token.IDENT, "Expected first branch name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.COMMA, "Expected ',' between branch names"); err != nil {
		return nil, err
	}
	b2, err := p.consume(token.IDENT, "Expected second branch name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RBRACKET, "Expected ']' after branch names"); err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMICOLON, "Expected ';' after bifurcate statement"); err != nil {
		return nil, err
	}

	return &ast.BifurcateStmt{
		Position: ast.Position{Line: start.Line, Column: start.Column},
		Source:   source,
		Branch1:  b1.Lit,
		Branch2:  b2.Lit,
	}, nil
}

func (p *Parser) parseAthLoop() (ast.Stmt, error) {
	start := p.advance() // '~ATH'

	if _, err := p.consume(token.LPAREN, "Expected '(' after ~ATH"); err != nil {
		return nil, err
	}
	entity, err := p.parseEntityExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RPAREN, "Expected ')' after entity expression"); err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, "Expected '{' for ~ATH body"); err != nil {
		return nil, err
	}

	var body []ast.Stmt
	for !p.check(token.RBRACE) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	if _, err := p.consume(token.RBRACE, "Expected '}' after ~ATH body"); err != nil {
		return nil, err
	}

	if _, err := p.consume(token.EXECUTE, "Expected 'EXECUTE' after ~ATH body"); err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LPAREN, "Expected '(' after EXECUTE"); err != nil {
		return nil, err
	}
	execute, err := p.parseExecuteBody()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RPAREN, "Expected ')' after EXECUTE body"); err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMICOLON, "Expected ';' after ~ATH loop"); err != nil {
		return nil, err
	}

	return &ast.AthLoop{
		Position: ast.Position{Line: start.Line, Column: start.Column},
		Entity:   entity,
		Body:     body,
		Execute:  execute,
	}, nil
}

func (p *Parser) parseExecuteBody() ([]ast.Stmt, error) {
	var stmts []ast.Stmt
	for !p.check(token.RPAREN) {
		stmt, err := p.parseExecuteStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
		if p.check(token.RPAREN) {
			break
		}
	}
	return stmts, nil
}

func (p *Parser) parseVarDecl() (ast.Stmt, error) {
	start := p.advance() // 'BIRTH'
	nameTok, err := p.consume(token.IDENT, "Expected variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.WITH, "Expected 'WITH' after variable name"); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMICOLON, "Expected ';' after variable declaration"); err != nil {
		return nil, err
	}
	return &ast.VarDecl{Position: ast.Position{Line: start.Line, Column: start.Column}, Name: nameTok.Lit, Value: value}, nil
}

func (p *Parser) parseConstDecl() (ast.Stmt, error) {
	start := p.advance() // 'ENTOMB'
	nameTok, err := p.consume(token.IDENT, "Expected constant name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.WITH, "Expected 'WITH' after constant name"); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMICOLON, "Expected ';' after constant declaration"); err != nil {
		return nil, err
	}
	return &ast.ConstDecl{Position: ast.Position{Line: start.Line, Column: start.Column}, Name: nameTok.Lit, Value: value}, nil
}

func (p *Parser) parseRiteDef() (ast.Stmt, error) {
	start := p.advance() // 'RITE'
	nameTok, err := p.consume(token.IDENT, "Expected rite name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LPAREN, "Expected '(' after rite name"); err != nil {
		return nil, err
	}

	var params []string
	if !p.check(token.RPAREN) {
		pTok, err := p.consume(token.IDENT, "Expected parameter name")
		if err != nil {
			return nil, err
		}
		params = append(params, pTok.Lit)
		for p.match(token.COMMA) {
			pTok, err := p.consume(token.IDENT, "Expected parameter name")
			if err != nil {
				return nil, err
			}
			params = append(params, pTok.Lit)
		}
	}
	if _, err := p.consume(token.RPAREN, "Expected ')' after parameters"); err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, "Expected '{' for rite body"); err != nil {
		return nil, err
	}

	var body []ast.Stmt
	for !p.check(token.RBRACE) {
		stmt, err := p.parseExecuteStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	if _, err := p.consume(token.RBRACE, "Expected '}' after rite body"); err != nil {
		return nil, err
	}

	return &ast.RiteDef{Position: ast.Position{Line: start.Line, Column: start.Column}, Name: nameTok.Lit, Params: params, Body: body}, nil
}

func (p *Parser) parseConditional() (ast.Stmt, error) {
	start := p.advance() // 'SHOULD'
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, "Expected '{' after condition"); err != nil {
		return nil, err
	}
	var then []ast.Stmt
	for !p.check(token.RBRACE) {
		stmt, err := p.parseExecuteStatement()
		if err != nil {
			return nil, err
		}
		then = append(then, stmt)
	}
	if _, err := p.consume(token.RBRACE, "Expected '}' after then branch"); err != nil {
		return nil, err
	}

	var elseBranch []ast.Stmt
	if p.match(token.LEST) {
		if p.check(token.SHOULD) {
			nested, err := p.parseConditional()
			if err != nil {
				return nil, err
			}
			elseBranch = []ast.Stmt{nested}
		} else {
			if _, err := p.consume(token.LBRACE, "Expected '{' after LEST"); err != nil {
				return nil, err
			}
			for !p.check(token.RBRACE) {
				stmt, err := p.parseExecuteStatement()
				if err != nil {
					return nil, err
				}
				elseBranch = append(elseBranch, stmt)
			}
			if _, err := p.consume(token.RBRACE, "Expected '}' after else branch"); err != nil {
				return nil, err
			}
		}
	}

	return &ast.Conditional{Position: ast.Position{Line: start.Line, Column: start.Column}, Cond: cond, Then: then, Else: elseBranch}, nil
}

func (p *Parser) parseAttemptSalvage() (ast.Stmt, error) {
	start := p.advance() // 'ATTEMPT'
	if _, err := p.consume(token.LBRACE, "Expected '{' after ATTEMPT"); err != nil {
		return nil, err
	}
	var body []ast.Stmt
	for !p.check(token.RBRACE) {
		stmt, err := p.parseExecuteStatement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	if _, err := p.consume(token.RBRACE, "Expected '}' after ATTEMPT body"); err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SALVAGE, "Expected 'SALVAGE' after ATTEMPT block"); err != nil {
		return nil, err
	}
	errTok, err := p.consume(token.IDENT, "Expected error variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.LBRACE, "Expected '{' after error variable"); err != nil {
		return nil, err
	}
	var handler []ast.Stmt
	for !p.check(token.RBRACE) {
		stmt, err := p.parseExecuteStatement()
		if err != nil {
			return nil, err
		}
		handler = append(handler, stmt)
	}
	if _, err := p.consume(token.RBRACE, "Expected '}' after SALVAGE body"); err != nil {
		return nil, err
	}
	return &ast.AttemptSalvage{Position: ast.Position{Line: start.Line, Column: start.Column}, Body: body, ErrName: errTok.Lit, Handler: handler}, nil
}

func (p *Parser) parseCondemn() (ast.Stmt, error) {
	start := p.advance() // 'CONDEMN'
	msg, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.SEMICOLON, "Expected ';' after CONDEMN"); err != nil {
		return nil, err
	}
	return &ast.CondemnStmt{Position: ast.Position{Line: start.Line, Column: start.Column}, Message: msg}, nil
}

func (p *Parser) parseBequeath() (ast.Stmt, error) {
	start := p.advance() // 'BEQUEATH'
	var value ast.Expr
	if !p.check(token.SEMICOLON) {
		v, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		value = v
	}
	if _, err := p.consume(token.SEMICOLON, "Expected ';' after BEQUEATH"); err != nil {
		return nil, err
	}
	return &ast.BequeathStmt{Position: ast.Position{Line: start.Line, Column: start.Column}, Value: value}, nil
}

// parseDieOrAssignmentOrExpr handles the three shapes a statement starting
// with an identifier or '[' can take: a DIE call, an assignment, or a bare
// expression statement. [a,b].DIE() is only reachable through the bracket
// path; NAME.DIE() is only recognized once parsed back out of a CallExpr.
func (p *Parser) parseDieOrAssignmentOrExpr() (ast.Stmt, error) {
	if p.check(token.LBRACKET) {
		target, err := p.parseDieTarget()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.DOT, "Expected '.' after die target"); err != nil {
			return nil, err
		}
		if _, err := p.consume(token.DIE, "Expected 'DIE' after '.'"); err != nil {
			return nil, err
		}
		if _, err := p.consume(token.LPAREN, "Expected '(' after DIE"); err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RPAREN, "Expected ')' after DIE("); err != nil {
			return nil, err
		}
		if _, err := p.consume(token.SEMICOLON, "Expected ';' after DIE statement"); err != nil {
			return nil, err
		}
		l, c := target.Pos()
		return &ast.DieStmt{Position: ast.Position{Line: l, Column: c}, Target: target}, nil
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if m, ok := expr.(*ast.MemberExpr); ok && m.Member == "DIE" {
		return nil, p.errorAt(p.current(), "DIE must be called as ENTITY.DIE(), not used as expression")
	}

	if p.check(token.ASSIGN) {
		p.advance()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.SEMICOLON, "Expected ';' after assignment"); err != nil {
			return nil, err
		}
		l, c := expr.Pos()
		return &ast.Assignment{Position: ast.Position{Line: l, Column: c}, Target: expr, Value: value}, nil
	}

	if call, ok := expr.(*ast.CallExpr); ok {
		if member, ok := call.Callee.(*ast.MemberExpr); ok && member.Member == "DIE" {
			ident, ok := member.Obj.(*ast.Identifier)
			if !ok {
				return nil, p.errorAt(p.current(), "Invalid DIE target")
			}
			l, c := ident.Pos()
			target := &ast.DieIdent{Position: ast.Position{Line: l, Column: c}, Name: ident.Name}
			if _, err := p.consume(token.SEMICOLON, "Expected ';' after DIE statement"); err != nil {
				return nil, err
			}
			el, ec := expr.Pos()
			return &ast.DieStmt{Position: ast.Position{Line: el, Column: ec}, Target: target}, nil
		}
	}

	if _, err := p.consume(token.SEMICOLON, "Expected ';' after expression"); err != nil {
		return nil, err
	}
	l, c := expr.Pos()
	return &ast.ExprStmt{Position: ast.Position{Line: l, Column: c}, X: expr}, nil
}

// parseDieOrExpr handles a statement starting with THIS: either THIS.DIE()
// or a bare expression (assignment to THIS never occurs in practice but is
// parsed the same way the reference implementation allows it).
func (p *Parser) parseDieOrExpr() (ast.Stmt, error) {
	start := p.current()
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if p.check(token.ASSIGN) {
		p.advance()
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.SEMICOLON, "Expected ';' after assignment"); err != nil {
			return nil, err
		}
		return &ast.Assignment{Position: ast.Position{Line: start.Line, Column: start.Column}, Target: expr, Value: value}, nil
	}

	if call, ok := expr.(*ast.CallExpr); ok {
		if member, ok := call.Callee.(*ast.MemberExpr); ok && member.Member == "DIE" {
			if ident, ok := member.Obj.(*ast.Identifier); ok && ident.Name == "THIS" {
				target := &ast.DieIdent{Position: ast.Position{Line: start.Line, Column: start.Column}, Name: "THIS"}
				if _, err := p.consume(token.SEMICOLON, "Expected ';' after DIE statement"); err != nil {
					return nil, err
				}
				return &ast.DieStmt{Position: ast.Position{Line: start.Line, Column: start.Column}, Target: target}, nil
			}
		}
	}

	if _, err := p.consume(token.SEMICOLON, "Expected ';' after expression"); err != nil {
		return nil, err
	}
	return &ast.ExprStmt{Position: ast.Position{Line: start.Line, Column: start.Column}, X: expr}, nil
}

func (p *Parser) parseDieTarget() (ast.DieTarget, error) {
	if p.check(token.LBRACKET) {
		start := p.advance()
		left, err := p.parseDieTarget()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.COMMA, "Expected ',' in die target pair"); err != nil {
			return nil, err
		}
		right, err := p.parseDieTarget()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RBRACKET, "Expected ']' after die target pair"); err != nil {
			return nil, err
		}
		return &ast.DiePair{Position: ast.Position{Line: start.Line, Column: start.Column}, Left: left, Right: right}, nil
	}
	if p.check(token.THIS) {
		tok := p.advance()
		return &ast.DieIdent{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Name: "THIS"}, nil
	}
	tok, err := p.consume(token.IDENT, "Expected identifier in die target")
	if err != nil {
		return nil, err
	}
	return &ast.DieIdent{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Name: tok.Lit}, nil
}

// ---- Entity expressions ----

func (p *Parser) parseEntityExpr() (ast.EntityExpr, error) { return p.parseEntityOr() }

func (p *Parser) parseEntityOr() (ast.EntityExpr, error) {
	left, err := p.parseEntityAnd()
	if err != nil {
		return nil, err
	}
	for p.match(token.PIPEPIPE) {
		right, err := p.parseEntityAnd()
		if err != nil {
			return nil, err
		}
		l, c := left.Pos()
		left = &ast.EntityOr{Position: ast.Position{Line: l, Column: c}, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseEntityAnd() (ast.EntityExpr, error) {
	left, err := p.parseEntityUnary()
	if err != nil {
		return nil, err
	}
	for p.match(token.AMPAMP) {
		right, err := p.parseEntityUnary()
		if err != nil {
			return nil, err
		}
		l, c := left.Pos()
		left = &ast.EntityAnd{Position: ast.Position{Line: l, Column: c}, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseEntityUnary() (ast.EntityExpr, error) {
	if p.match(token.BANG) {
		tok := p.tokens[p.pos-1]
		operand, err := p.parseEntityUnary()
		if err != nil {
			return nil, err
		}
		return &ast.EntityNot{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Operand: operand}, nil
	}
	return p.parseEntityPrimary()
}

func (p *Parser) parseEntityPrimary() (ast.EntityExpr, error) {
	if p.match(token.LPAREN) {
		expr, err := p.parseEntityExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RPAREN, "Expected ')' after entity expression"); err != nil {
			return nil, err
		}
		return expr, nil
	}
	if p.check(token.THIS) {
		tok := p.advance()
		return &ast.EntityIdent{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Name: "THIS"}, nil
	}
	tok, err := p.consume(token.IDENT, "Expected entity identifier")
	if err != nil {
		return nil, err
	}
	return &ast.EntityIdent{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Name: tok.Lit}, nil
}

// ---- Expressions ----
// Precedence, loosest to tightest: or, and, equality, comparison, bitwise-or,
// bitwise-xor, bitwise-and, shift, term, factor, unary, postfix, primary.

func (p *Parser) parseExpression() (ast.Expr, error) { return p.parseOr() }

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.match(token.OR) {
		tok := p.tokens[p.pos-1]
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.match(token.AND) {
		tok := p.tokens[p.pos-1]
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for p.check(token.EQ, token.NE) {
		tok := p.advance()
		op := "=="
		if tok.Type == token.NE {
			op = "!="
		}
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseBitwiseOr()
	if err != nil {
		return nil, err
	}
	ops := map[token.Type]string{token.LT: "<", token.GT: ">", token.LE: "<=", token.GE: ">="}
	for p.check(token.LT, token.GT, token.LE, token.GE) {
		tok := p.advance()
		right, err := p.parseBitwiseOr()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Op: ops[tok.Type], Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseBitwiseOr() (ast.Expr, error) {
	left, err := p.parseBitwiseXor()
	if err != nil {
		return nil, err
	}
	for p.match(token.PIPE) {
		tok := p.tokens[p.pos-1]
		right, err := p.parseBitwiseXor()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Op: "|", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseBitwiseXor() (ast.Expr, error) {
	left, err := p.parseBitwiseAnd()
	if err != nil {
		return nil, err
	}
	for p.match(token.CARET) {
		tok := p.tokens[p.pos-1]
		right, err := p.parseBitwiseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Op: "^", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseBitwiseAnd() (ast.Expr, error) {
	left, err := p.parseShift()
	if err != nil {
		return nil, err
	}
	for p.match(token.AMP) {
		tok := p.tokens[p.pos-1]
		right, err := p.parseShift()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Op: "&", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseShift() (ast.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.check(token.SHL, token.SHR) {
		tok := p.advance()
		op := "<<"
		if tok.Type == token.SHR {
			op = ">>"
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseTerm() (ast.Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.check(token.PLUS, token.MINUS) {
		tok := p.advance()
		op := "+"
		if tok.Type == token.MINUS {
			op = "-"
		}
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseFactor() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	ops := map[token.Type]string{token.STAR: "*", token.SLASH: "/", token.PERCENT: "%"}
	for p.check(token.STAR, token.SLASH, token.PERCENT) {
		tok := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Op: ops[tok.Type], Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	switch {
	case p.match(token.NOT):
		tok := p.tokens[p.pos-1]
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Op: "NOT", Operand: operand}, nil
	case p.match(token.MINUS):
		tok := p.tokens[p.pos-1]
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Op: "-", Operand: operand}, nil
	case p.match(token.TILDE):
		tok := p.tokens[p.pos-1]
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Op: "~", Operand: operand}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.match(token.LBRACKET):
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.consume(token.RBRACKET, "Expected ']' after index"); err != nil {
				return nil, err
			}
			l, c := expr.Pos()
			expr = &ast.IndexExpr{Position: ast.Position{Line: l, Column: c}, Obj: expr, Index: index}

		case p.match(token.DOT):
			if p.check(token.DIE) {
				dieTok := p.advance()
				if !p.check(token.LPAREN) {
					return nil, p.errorAt(p.current(), "Expected '(' after DIE")
				}
				p.advance()
				if _, err := p.consume(token.RPAREN, "Expected ')' after DIE("); err != nil {
					return nil, err
				}
				member := &ast.MemberExpr{Position: ast.Position{Line: dieTok.Line, Column: dieTok.Column}, Obj: expr, Member: "DIE"}
				expr = &ast.CallExpr{Position: ast.Position{Line: dieTok.Line, Column: dieTok.Column}, Callee: member, Args: nil}
			} else {
				memberTok, err := p.consume(token.IDENT, "Expected member name after '.'")
				if err != nil {
					return nil, err
				}
				expr = &ast.MemberExpr{Position: ast.Position{Line: memberTok.Line, Column: memberTok.Column}, Obj: expr, Member: memberTok.Lit}
			}

		case p.match(token.LPAREN):
			var args []ast.Expr
			if !p.check(token.RPAREN) {
				arg, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				for p.match(token.COMMA) {
					arg, err := p.parseExpression()
					if err != nil {
						return nil, err
					}
					args = append(args, arg)
				}
			}
			if _, err := p.consume(token.RPAREN, "Expected ')' after arguments"); err != nil {
				return nil, err
			}
			l, c := expr.Pos()
			expr = &ast.CallExpr{Position: ast.Position{Line: l, Column: c}, Callee: expr, Args: args}

		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.current()

	switch {
	case p.match(token.INTEGER):
		return &ast.Literal{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Value: tok.Val}, nil
	case p.match(token.FLOAT):
		return &ast.Literal{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Value: tok.Val}, nil
	case p.match(token.STRING):
		return &ast.Literal{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Value: tok.Val}, nil
	case p.match(token.ALIVE):
		return &ast.Literal{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Value: true}, nil
	case p.match(token.DEAD):
		return &ast.Literal{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Value: false}, nil
	case p.match(token.VOID):
		return &ast.Literal{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Value: nil}, nil
	case p.match(token.THIS):
		return &ast.Identifier{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Name: "THIS"}, nil
	case p.match(token.IDENT):
		return &ast.Identifier{Position: ast.Position{Line: tok.Line, Column: tok.Column}, Name: tok.Lit}, nil
	case p.match(token.LPAREN):
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RPAREN, "Expected ')' after expression"); err != nil {
			return nil, err
		}
		return expr, nil
	case p.match(token.LBRACKET):
		return p.parseArrayLiteral(tok)
	case p.match(token.LBRACE):
		return p.parseMapLiteral(tok)
	}

	return nil, p.errorAt(tok, "Unexpected token in expression: %s", tok.Type)
}

func (p *Parser) parseArrayLiteral(start token.Token) (ast.Expr, error) {
	var elems []ast.Expr
	if !p.check(token.RBRACKET) {
		elem, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		for p.match(token.COMMA) {
			if p.check(token.RBRACKET) {
				break
			}
			elem, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
		}
	}
	if _, err := p.consume(token.RBRACKET, "Expected ']' after array elements"); err != nil {
		return nil, err
	}
	return &ast.ArrayLiteral{Position: ast.Position{Line: start.Line, Column: start.Column}, Elements: elems}, nil
}

func (p *Parser) parseMapLiteral(start token.Token) (ast.Expr, error) {
	var keys []string
	var values []ast.Expr
	if !p.check(token.RBRACE) {
		key, err := p.parseMapKey()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.COLON, "Expected ':' after map key"); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
		values = append(values, value)

		for p.match(token.COMMA) {
			if p.check(token.RBRACE) {
				break
			}
			key, err := p.parseMapKey()
			if err != nil {
				return nil, err
			}
			if _, err := p.consume(token.COLON, "Expected ':' after map key"); err != nil {
				return nil, err
			}
			value, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			keys = append(keys, key)
			values = append(values, value)
		}
	}
	if _, err := p.consume(token.RBRACE, "Expected '}' after map entries"); err != nil {
		return nil, err
	}
	return &ast.MapLiteral{Position: ast.Position{Line: start.Line, Column: start.Column}, Keys: keys, Values: values}, nil
}

func (p *Parser) parseMapKey() (string, error) {
	if p.check(token.STRING) {
		return p.advance().Lit, nil
	}
	if p.check(token.IDENT) {
		return p.advance().Lit, nil
	}
	return "", p.errorAt(p.current(), "Expected map key (identifier or string)")
}
