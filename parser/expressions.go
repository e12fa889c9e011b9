package parser

import (
	"github.com/rubiojr/lox/ast"
	"github.com/rubiojr/lox/scanner"
)

func (p *Parser) expression() ast.Expr {
	return p.assignment()
}

// assignment is right-associative. The left side is parsed as an ordinary
// expression and then checked to be a valid target.
func (p *Parser) assignment() ast.Expr {
	expr := p.or()
	if !p.match(scanner.Equal) {
		return expr
	}
	equals := p.prev
	value := p.assignment()
	switch target := expr.(type) {
	case *ast.Variable:
		return &ast.Assign{BaseExpr: target.BaseExpr, Name: target.Name, Value: value}
	case *ast.Get:
		return &ast.Set{BaseExpr: target.BaseExpr, Object: target.Object, Name: target.Name, Value: value}
	}
	// Reported without bailing out: the parser is not confused.
	p.report(equals, "Invalid assignment target.")
	return expr
}

func (p *Parser) or() ast.Expr {
	expr := p.and()
	for p.match(scanner.Or) {
		op := p.prev
		right := p.and()
		expr = &ast.Logical{BaseExpr: ast.BaseExpr{Pos: op.Pos}, Left: expr, Op: op.Lexeme, Right: right}
	}
	return expr
}

func (p *Parser) and() ast.Expr {
	expr := p.equality()
	for p.match(scanner.And) {
		op := p.prev
		right := p.equality()
		expr = &ast.Logical{BaseExpr: ast.BaseExpr{Pos: op.Pos}, Left: expr, Op: op.Lexeme, Right: right}
	}
	return expr
}

// binary parses a left-associative level whose operands come from next.
func (p *Parser) binary(next func() ast.Expr, ops ...scanner.Kind) ast.Expr {
	expr := next()
	for p.match(ops...) {
		op := p.prev
		right := next()
		expr = &ast.Binary{BaseExpr: ast.BaseExpr{Pos: op.Pos}, Left: expr, Op: op.Lexeme, Right: right}
	}
	return expr
}

func (p *Parser) equality() ast.Expr {
	return p.binary(p.comparison, scanner.BangEqual, scanner.EqualEqual)
}

func (p *Parser) comparison() ast.Expr {
	return p.binary(p.term, scanner.Greater, scanner.GreaterEqual, scanner.Less, scanner.LessEqual)
}

func (p *Parser) term() ast.Expr {
	return p.binary(p.factor, scanner.Minus, scanner.Plus)
}

func (p *Parser) factor() ast.Expr {
	return p.binary(p.unary, scanner.Slash, scanner.Star)
}

func (p *Parser) unary() ast.Expr {
	if p.match(scanner.Bang, scanner.Minus) {
		op := p.prev
		return &ast.Unary{BaseExpr: ast.BaseExpr{Pos: op.Pos}, Op: op.Lexeme, Operand: p.unary()}
	}
	return p.call()
}

func (p *Parser) call() ast.Expr {
	expr := p.primary()
	for {
		switch {
		case p.match(scanner.LeftParen):
			expr = p.finishCall(expr)
		case p.match(scanner.Dot):
			name := p.consume(scanner.Identifier, "Expect property name after '.'.")
			expr = &ast.Get{BaseExpr: ast.BaseExpr{Pos: name.Pos}, Object: expr, Name: name.Lexeme}
		default:
			return expr
		}
	}
}

func (p *Parser) finishCall(callee ast.Expr) ast.Expr {
	var args []ast.Expr
	if !p.check(scanner.RightParen) {
		for {
			if len(args) >= MaxArgs {
				p.report(p.peek(), "Can't have more than 255 arguments.")
			}
			args = append(args, p.expression())
			if !p.match(scanner.Comma) {
				break
			}
		}
	}
	paren := p.consume(scanner.RightParen, "Expect ')' after arguments.")
	return &ast.Call{BaseExpr: ast.BaseExpr{Pos: paren.Pos}, Callee: callee, Args: args}
}

func (p *Parser) primary() ast.Expr {
	tok := p.peek()
	base := ast.BaseExpr{Pos: tok.Pos}
	switch tok.Kind {
	case scanner.False:
		p.advance()
		return &ast.Literal{BaseExpr: base, Value: false}
	case scanner.True:
		p.advance()
		return &ast.Literal{BaseExpr: base, Value: true}
	case scanner.Nil:
		p.advance()
		return &ast.Literal{BaseExpr: base, Value: nil}
	case scanner.Number, scanner.String:
		p.advance()
		return &ast.Literal{BaseExpr: base, Value: tok.Literal}
	case scanner.This:
		p.advance()
		return &ast.This{BaseExpr: base}
	case scanner.Super:
		p.advance()
		p.consume(scanner.Dot, "Expect '.' after 'super'.")
		method := p.consume(scanner.Identifier, "Expect superclass method name.")
		return &ast.Super{BaseExpr: base, Method: method.Lexeme}
	case scanner.Identifier:
		p.advance()
		return &ast.Variable{BaseExpr: base, Name: tok.Lexeme}
	case scanner.LeftParen:
		p.advance()
		expr := p.expression()
		p.consume(scanner.RightParen, "Expect ')' after expression.")
		return &ast.Grouping{BaseExpr: base, Expression: expr}
	case scanner.Fun:
		p.advance()
		p.consume(scanner.LeftParen, "Expect '(' after 'fun'.")
		params := p.params()
		p.consume(scanner.LeftBrace, "Expect '{' before function body.")
		return &ast.FuncLit{BaseExpr: base, Function: ast.Function{Params: params, Body: p.block()}}
	}
	p.fail(tok, "Expect expression.")
	return nil
}
