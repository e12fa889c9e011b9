// Package parser builds an AST from Lox source with a recursive-descent
// parser. Syntax errors are collected rather than fatal: after each error the
// parser skips to the next statement boundary and keeps going, so one run
// reports every malformed statement.
package parser

import (
	"github.com/rubiojr/lox/ast"
	"github.com/rubiojr/lox/diag"
	"github.com/rubiojr/lox/scanner"
	"modernc.org/token"
)

// MaxArgs is the largest number of parameters or call arguments allowed.
const MaxArgs = 255

// Parser holds the state for a single parse.
type Parser struct {
	sc   *scanner.Scanner
	buf  []scanner.Token // lookahead, buf[0] is the current token
	prev scanner.Token
	errs diag.List
}

// bailout unwinds the parser to the enclosing declaration after an error.
type bailout struct{}

// New creates a Parser reading tokens lazily from sc.
func New(sc *scanner.Scanner) *Parser {
	return &Parser{sc: sc}
}

// Parse scans and parses src. The returned diagnostics include lexical
// errors; the program must not be resolved or run when any are present.
func Parse(name, src string) (*ast.Program, diag.List) {
	return New(scanner.New(name, src)).Parse(name)
}

// Parse consumes every token and returns the program and all lexical and
// syntax errors, sorted by position.
func (p *Parser) Parse(name string) (*ast.Program, diag.List) {
	prog := &ast.Program{SourceFile: name}
	for !p.check(scanner.EOF) {
		if s := p.declaration(); s != nil {
			prog.Statements = append(prog.Statements, s)
		}
	}
	errs := append(diag.List{}, p.sc.Errors()...)
	errs.Append(p.errs)
	errs.Sort()
	return prog, errs
}

// --- token stream ---

func (p *Parser) fill(n int) {
	for len(p.buf) <= n {
		if len(p.buf) > 0 && p.buf[len(p.buf)-1].Kind == scanner.EOF {
			p.buf = append(p.buf, p.buf[len(p.buf)-1])
			continue
		}
		tok := p.sc.Next()
		if tok.Kind == scanner.Illegal {
			continue // already reported by the scanner
		}
		p.buf = append(p.buf, tok)
	}
}

func (p *Parser) peek() scanner.Token {
	p.fill(0)
	return p.buf[0]
}

func (p *Parser) peekAt(n int) scanner.Token {
	p.fill(n)
	return p.buf[n]
}

func (p *Parser) advance() scanner.Token {
	tok := p.peek()
	if tok.Kind != scanner.EOF {
		p.buf = p.buf[1:]
	}
	p.prev = tok
	return tok
}

func (p *Parser) check(k scanner.Kind) bool { return p.peek().Kind == k }

func (p *Parser) match(kinds ...scanner.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) consume(k scanner.Kind, msg string) scanner.Token {
	if p.check(k) {
		return p.advance()
	}
	p.fail(p.peek(), msg)
	return scanner.Token{}
}

// --- errors ---

func (p *Parser) report(tok scanner.Token, msg string) {
	where := " at '" + tok.Lexeme + "'"
	if tok.Kind == scanner.EOF {
		where = " at end"
	}
	p.errs.Add(diag.Syntax, tok.Pos, where, msg)
}

func (p *Parser) fail(tok scanner.Token, msg string) {
	p.report(tok, msg)
	panic(bailout{})
}

// synchronize discards tokens until a likely statement boundary.
func (p *Parser) synchronize() {
	p.advance()
	for !p.check(scanner.EOF) {
		if p.prev.Kind == scanner.Semicolon {
			return
		}
		switch p.peek().Kind {
		case scanner.Class, scanner.Fun, scanner.Var, scanner.For, scanner.If,
			scanner.While, scanner.Print, scanner.Return:
			return
		}
		p.advance()
	}
}

// --- declarations ---

func (p *Parser) declaration() (stmt ast.Statement) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(bailout); !ok {
				panic(r)
			}
			p.synchronize()
			stmt = nil
		}
	}()
	switch {
	case p.check(scanner.Class):
		return p.classDecl()
	case p.check(scanner.Fun) && p.peekAt(1).Kind == scanner.Identifier:
		start := p.advance()
		return p.function("function", start.Pos)
	case p.check(scanner.Var):
		return p.varDecl()
	}
	return p.statement()
}

func (p *Parser) classDecl() ast.Statement {
	start := p.advance()
	name := p.consume(scanner.Identifier, "Expect class name.")
	cls := &ast.ClassDef{BaseStmt: ast.BaseStmt{Pos: start.Pos}, Name: name.Lexeme, NamePos: name.Pos}
	if p.match(scanner.Less) {
		sup := p.consume(scanner.Identifier, "Expect superclass name.")
		cls.Superclass = &ast.Variable{BaseExpr: ast.BaseExpr{Pos: sup.Pos}, Name: sup.Lexeme}
	}
	p.consume(scanner.LeftBrace, "Expect '{' before class body.")
	for !p.check(scanner.RightBrace) && !p.check(scanner.EOF) {
		cls.Methods = append(cls.Methods, p.function("method", p.peek().Pos))
	}
	p.consume(scanner.RightBrace, "Expect '}' after class body.")
	return cls
}

// function parses name(params) { body } for declarations and methods.
func (p *Parser) function(kind string, pos token.Position) *ast.FuncDef {
	name := p.consume(scanner.Identifier, "Expect "+kind+" name.")
	p.consume(scanner.LeftParen, "Expect '(' after "+kind+" name.")
	params := p.params()
	p.consume(scanner.LeftBrace, "Expect '{' before "+kind+" body.")
	body := p.block()
	return &ast.FuncDef{
		BaseStmt: ast.BaseStmt{Pos: pos},
		Function: ast.Function{Name: name.Lexeme, Params: params, Body: body},
	}
}

// params parses a parameter list; the opening parenthesis is consumed.
func (p *Parser) params() []ast.Param {
	var params []ast.Param
	if !p.check(scanner.RightParen) {
		for {
			if len(params) >= MaxArgs {
				p.report(p.peek(), "Can't have more than 255 parameters.")
			}
			tok := p.consume(scanner.Identifier, "Expect parameter name.")
			params = append(params, ast.Param{Name: tok.Lexeme, Pos: tok.Pos})
			if !p.match(scanner.Comma) {
				break
			}
		}
	}
	p.consume(scanner.RightParen, "Expect ')' after parameters.")
	return params
}

func (p *Parser) varDecl() ast.Statement {
	start := p.advance()
	name := p.consume(scanner.Identifier, "Expect variable name.")
	v := &ast.VarStmt{BaseStmt: ast.BaseStmt{Pos: start.Pos}, Name: name.Lexeme, NamePos: name.Pos}
	if p.match(scanner.Equal) {
		v.Initializer = p.expression()
	}
	p.consume(scanner.Semicolon, "Expect ';' after variable declaration.")
	return v
}

// --- statements ---

func (p *Parser) statement() ast.Statement {
	start := p.peek()
	base := ast.BaseStmt{Pos: start.Pos}
	switch {
	case p.match(scanner.Print):
		value := p.expression()
		p.consume(scanner.Semicolon, "Expect ';' after value.")
		return &ast.PrintStmt{BaseStmt: base, Value: value}
	case p.match(scanner.LeftBrace):
		return &ast.BlockStmt{BaseStmt: base, Body: p.block()}
	case p.match(scanner.If):
		return p.ifStmt(base)
	case p.match(scanner.While):
		p.consume(scanner.LeftParen, "Expect '(' after 'while'.")
		cond := p.expression()
		p.consume(scanner.RightParen, "Expect ')' after condition.")
		return &ast.WhileStmt{BaseStmt: base, Condition: cond, Body: p.statement()}
	case p.match(scanner.For):
		return p.forStmt(base)
	case p.match(scanner.Return):
		var value ast.Expr
		if !p.check(scanner.Semicolon) {
			value = p.expression()
		}
		p.consume(scanner.Semicolon, "Expect ';' after return value.")
		return &ast.ReturnStmt{BaseStmt: base, Value: value}
	}
	expr := p.expression()
	p.consume(scanner.Semicolon, "Expect ';' after expression.")
	return &ast.ExprStmt{BaseStmt: base, Expression: expr}
}

// block parses statements up to the closing brace; the opening brace has
// been consumed.
func (p *Parser) block() []ast.Statement {
	var stmts []ast.Statement
	for !p.check(scanner.RightBrace) && !p.check(scanner.EOF) {
		if s := p.declaration(); s != nil {
			stmts = append(stmts, s)
		}
	}
	p.consume(scanner.RightBrace, "Expect '}' after block.")
	return stmts
}

func (p *Parser) ifStmt(base ast.BaseStmt) ast.Statement {
	p.consume(scanner.LeftParen, "Expect '(' after 'if'.")
	cond := p.expression()
	p.consume(scanner.RightParen, "Expect ')' after if condition.")
	s := &ast.IfStmt{BaseStmt: base, Condition: cond, Then: p.statement()}
	if p.match(scanner.Else) {
		s.Else = p.statement()
	}
	return s
}

// forStmt lowers for (init; cond; incr) body into
// { init; while (cond) { body; incr; } }.
func (p *Parser) forStmt(base ast.BaseStmt) ast.Statement {
	p.consume(scanner.LeftParen, "Expect '(' after 'for'.")
	var init ast.Statement
	switch {
	case p.match(scanner.Semicolon):
	case p.check(scanner.Var):
		init = p.varDecl()
	default:
		pos := p.peek().Pos
		expr := p.expression()
		p.consume(scanner.Semicolon, "Expect ';' after expression.")
		init = &ast.ExprStmt{BaseStmt: ast.BaseStmt{Pos: pos}, Expression: expr}
	}

	var cond ast.Expr
	if !p.check(scanner.Semicolon) {
		cond = p.expression()
	}
	p.consume(scanner.Semicolon, "Expect ';' after loop condition.")

	var incr ast.Expr
	incrPos := p.peek().Pos
	if !p.check(scanner.RightParen) {
		incr = p.expression()
	}
	p.consume(scanner.RightParen, "Expect ')' after for clauses.")

	body := p.statement()
	if incr != nil {
		body = &ast.BlockStmt{
			BaseStmt: ast.BaseStmt{Pos: body.Position()},
			Body:     []ast.Statement{body, &ast.ExprStmt{BaseStmt: ast.BaseStmt{Pos: incrPos}, Expression: incr}},
		}
	}
	if cond == nil {
		cond = &ast.Literal{BaseExpr: ast.BaseExpr{Pos: base.Pos}, Value: true}
	}
	var loop ast.Statement = &ast.WhileStmt{BaseStmt: base, Condition: cond, Body: body}
	if init != nil {
		loop = &ast.BlockStmt{BaseStmt: base, Body: []ast.Statement{init, loop}}
	}
	return loop
}
