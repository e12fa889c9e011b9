// Package ast defines the syntax tree produced by the parser. Nodes form a
// tree: every node owns its children and is never shared. After parsing,
// the tree is read-only; the resolver records its results in a side table
// rather than on the nodes.
package ast

import "modernc.org/token"

// Node is the interface for all AST nodes.
type Node interface {
	node()
	Position() token.Position
}

// Statement is the interface for statement nodes.
type Statement interface {
	Node
	stmt()
	StmtLine() int
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr()
}

// BaseStmt provides common fields for all statements.
type BaseStmt struct {
	Pos token.Position // position of the first token
}

func (b BaseStmt) Position() token.Position { return b.Pos }
func (b BaseStmt) StmtLine() int            { return b.Pos.Line }

// BaseExpr provides common fields for all expressions.
type BaseExpr struct {
	Pos token.Position // position of the operator or name token
}

func (b BaseExpr) Position() token.Position { return b.Pos }

// Program is the root node.
type Program struct {
	Statements []Statement
	SourceFile string
}

func (p *Program) node() {}
func (p *Program) Position() token.Position {
	return token.Position{Filename: p.SourceFile, Line: 1, Column: 1}
}

// Param is a named function parameter.
type Param struct {
	Name string
	Pos  token.Position
}

// Function is the signature and body shared by function declarations,
// methods and lambdas.
type Function struct {
	Name   string // empty for lambdas
	Params []Param
	Body   []Statement
}

// Arity returns the number of declared parameters.
func (f *Function) Arity() int { return len(f.Params) }

// --- Statements ---

// ExprStmt is a statement that is just an expression.
type ExprStmt struct {
	BaseStmt
	Expression Expr
}

func (e *ExprStmt) node() {}
func (e *ExprStmt) stmt() {}

// PrintStmt represents print expr;.
type PrintStmt struct {
	BaseStmt
	Value Expr
}

func (p *PrintStmt) node() {}
func (p *PrintStmt) stmt() {}

// VarStmt represents var name [= initializer];.
type VarStmt struct {
	BaseStmt
	Name        string
	NamePos     token.Position
	Initializer Expr // nil when absent
}

func (v *VarStmt) node() {}
func (v *VarStmt) stmt() {}

// BlockStmt represents { statements }.
type BlockStmt struct {
	BaseStmt
	Body []Statement
}

func (b *BlockStmt) node() {}
func (b *BlockStmt) stmt() {}

// IfStmt represents if (cond) then [else otherwise].
type IfStmt struct {
	BaseStmt
	Condition Expr
	Then      Statement
	Else      Statement // nil when absent
}

func (i *IfStmt) node() {}
func (i *IfStmt) stmt() {}

// WhileStmt represents while (cond) body. For loops are lowered to a
// WhileStmt wrapped in blocks by the parser.
type WhileStmt struct {
	BaseStmt
	Condition Expr
	Body      Statement
}

func (w *WhileStmt) node() {}
func (w *WhileStmt) stmt() {}

// FuncDef represents fun name(params) { body } and class methods.
type FuncDef struct {
	BaseStmt
	Function
}

func (f *FuncDef) node() {}
func (f *FuncDef) stmt() {}

// ClassDef represents class Name [< Super] { methods }.
type ClassDef struct {
	BaseStmt
	Name       string
	NamePos    token.Position
	Superclass *Variable // nil when the class has no superclass
	Methods    []*FuncDef
}

func (c *ClassDef) node() {}
func (c *ClassDef) stmt() {}

// ReturnStmt represents return [expr];.
type ReturnStmt struct {
	BaseStmt
	Value Expr // nil if bare return
}

func (r *ReturnStmt) node() {}
func (r *ReturnStmt) stmt() {}

// --- Expressions ---

// Literal is nil, a boolean, a number (float64) or a string.
type Literal struct {
	BaseExpr
	Value any
}

func (l *Literal) node() {}
func (l *Literal) expr() {}

// Variable is a reference to a named binding.
type Variable struct {
	BaseExpr
	Name string
}

func (v *Variable) node() {}
func (v *Variable) expr() {}

// Assign represents name = value.
type Assign struct {
	BaseExpr
	Name  string
	Value Expr
}

func (a *Assign) node() {}
func (a *Assign) expr() {}

// Unary represents a prefix operator: ! or -.
type Unary struct {
	BaseExpr
	Op      string
	Operand Expr
}

func (u *Unary) node() {}
func (u *Unary) expr() {}

// Binary represents an arithmetic, comparison or equality operator.
type Binary struct {
	BaseExpr
	Left  Expr
	Op    string
	Right Expr
}

func (b *Binary) node() {}
func (b *Binary) expr() {}

// Logical represents the short-circuiting and/or operators.
type Logical struct {
	BaseExpr
	Left  Expr
	Op    string // "and" or "or"
	Right Expr
}

func (l *Logical) node() {}
func (l *Logical) expr() {}

// Call represents callee(args). Pos is the closing parenthesis.
type Call struct {
	BaseExpr
	Callee Expr
	Args   []Expr
}

func (c *Call) node() {}
func (c *Call) expr() {}

// Get represents object.name.
type Get struct {
	BaseExpr
	Object Expr
	Name   string
}

func (g *Get) node() {}
func (g *Get) expr() {}

// Set represents object.name = value.
type Set struct {
	BaseExpr
	Object Expr
	Name   string
	Value  Expr
}

func (s *Set) node() {}
func (s *Set) expr() {}

// This represents the this keyword inside a method.
type This struct {
	BaseExpr
}

func (t *This) node() {}
func (t *This) expr() {}

// Super represents super.method.
type Super struct {
	BaseExpr
	Method string
}

func (s *Super) node() {}
func (s *Super) expr() {}

// Grouping represents a parenthesized expression.
type Grouping struct {
	BaseExpr
	Expression Expr
}

func (g *Grouping) node() {}
func (g *Grouping) expr() {}

// FuncLit is an anonymous function expression: fun (params) { body }.
type FuncLit struct {
	BaseExpr
	Function
}

func (f *FuncLit) node() {}
func (f *FuncLit) expr() {}
