// Package resolver performs static analysis between parsing and evaluation.
// It binds every local variable reference to the number of scopes between
// the use and its declaration, and rejects programs that misuse return,
// this, super or class inheritance before any code runs.
package resolver

import (
	"maps"
	"strings"

	"github.com/rubiojr/lox/ast"
	"github.com/rubiojr/lox/diag"
	"modernc.org/token"
)

// Bindings maps each resolved local reference (Variable, Assign, This and
// Super nodes) to its scope distance. References missing from the map are
// globals.
type Bindings map[ast.Expr]int

// Merge copies every binding in other into b.
func (b Bindings) Merge(other Bindings) {
	for k, v := range other {
		b[k] = v
	}
}

type funcKind int

const (
	noFunc funcKind = iota
	function
	lambda
	method
	initializer
)

type classKind int

const (
	noClass classKind = iota
	class
	subclass
)

type scope struct {
	vars    map[string]bool // false while declared but not yet defined
	classes map[string]*ast.ClassDef
}

func newScope() *scope {
	return &scope{vars: make(map[string]bool), classes: make(map[string]*ast.ClassDef)}
}

// Resolver walks a program once. A session that resolves one snippet at a
// time reports back which global classes actually got defined (DefineClass)
// or replaced (DefineGlobal), so later snippets see the inheritance graph of
// the running program and nothing from runs that failed.
type Resolver struct {
	globals  map[string]*ast.ClassDef        // classes defined by earlier runs
	run      map[string]*ast.ClassDef        // globals as seen by the current run
	supers   map[*ast.ClassDef]*ast.ClassDef // superclass visible when each class was declared
	scopes   []*scope
	fn       funcKind
	cls      classKind
	bindings Bindings
	errs     diag.List
}

// New creates a Resolver with an empty global class table.
func New() *Resolver {
	return &Resolver{
		globals: make(map[string]*ast.ClassDef),
		supers:  make(map[*ast.ClassDef]*ast.ClassDef),
	}
}

// Resolve is a convenience wrapper for one-shot resolution.
func Resolve(prog *ast.Program) (Bindings, diag.List) {
	return New().Resolve(prog)
}

// Resolve analyzes prog and returns the bindings for its local references
// together with any static errors, sorted by position.
func (r *Resolver) Resolve(prog *ast.Program) (Bindings, diag.List) {
	r.scopes = nil
	r.run = maps.Clone(r.globals)
	r.fn, r.cls = noFunc, noClass
	r.bindings = make(Bindings)
	r.errs = nil
	r.stmts(prog.Statements)
	r.errs.Sort()
	r.run = nil
	return r.bindings, r.errs
}

// DefineClass records that the global class declared by c now exists at
// run time.
func (r *Resolver) DefineClass(c *ast.ClassDef) {
	r.globals[c.Name] = c
}

// DefineGlobal records that name now holds something other than a class.
func (r *Resolver) DefineGlobal(name string) {
	delete(r.globals, name)
}

func (r *Resolver) report(pos token.Position, name, msg string) {
	where := ""
	if name != "" {
		where = " at '" + name + "'"
	}
	r.errs.Add(diag.Resolution, pos, where, msg)
}

// --- scopes ---

func (r *Resolver) begin() { r.scopes = append(r.scopes, newScope()) }
func (r *Resolver) end()   { r.scopes = r.scopes[:len(r.scopes)-1] }

func (r *Resolver) top() *scope {
	if len(r.scopes) == 0 {
		return nil
	}
	return r.scopes[len(r.scopes)-1]
}

func (r *Resolver) declare(name string, pos token.Position) {
	s := r.top()
	if s == nil {
		delete(r.run, name)
		return
	}
	if _, ok := s.vars[name]; ok {
		r.report(pos, name, "Already a variable with this name in this scope.")
	}
	s.vars[name] = false
	delete(s.classes, name)
}

func (r *Resolver) define(name string) {
	if s := r.top(); s != nil {
		s.vars[name] = true
	}
}

// local records the distance to the innermost scope declaring name.
// Nothing is recorded for globals.
func (r *Resolver) local(expr ast.Expr, name string) {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i].vars[name]; ok {
			r.bindings[expr] = len(r.scopes) - 1 - i
			return
		}
	}
}

// --- statements ---

func (r *Resolver) stmts(list []ast.Statement) {
	for _, s := range list {
		r.stmt(s)
	}
}

func (r *Resolver) stmt(s ast.Statement) {
	switch st := s.(type) {
	case *ast.ExprStmt:
		r.expr(st.Expression)
	case *ast.PrintStmt:
		r.expr(st.Value)
	case *ast.VarStmt:
		r.declare(st.Name, st.NamePos)
		if st.Initializer != nil {
			r.expr(st.Initializer)
		}
		r.define(st.Name)
	case *ast.BlockStmt:
		r.begin()
		r.stmts(st.Body)
		r.end()
	case *ast.IfStmt:
		r.expr(st.Condition)
		r.stmt(st.Then)
		if st.Else != nil {
			r.stmt(st.Else)
		}
	case *ast.WhileStmt:
		r.expr(st.Condition)
		r.stmt(st.Body)
	case *ast.FuncDef:
		r.declare(st.Name, st.Pos)
		r.define(st.Name)
		r.function(&st.Function, function)
	case *ast.ClassDef:
		r.classDef(st)
	case *ast.ReturnStmt:
		if r.fn == noFunc {
			r.report(st.Pos, "return", "Can't return from top-level code.")
		}
		if st.Value != nil {
			if r.fn == initializer {
				r.report(st.Pos, "return", "Can't return a value from an initializer.")
			}
			r.expr(st.Value)
		}
	}
}

func (r *Resolver) function(fn *ast.Function, kind funcKind) {
	enclosing := r.fn
	r.fn = kind
	r.begin()
	for _, p := range fn.Params {
		r.declare(p.Name, p.Pos)
		r.define(p.Name)
	}
	r.stmts(fn.Body)
	r.end()
	r.fn = enclosing
}

func (r *Resolver) classDef(c *ast.ClassDef) {
	enclosing := r.cls
	r.cls = class

	r.declare(c.Name, c.NamePos)
	r.define(c.Name)
	r.registerClass(c)

	if c.Superclass != nil {
		if c.Superclass.Name == c.Name {
			r.report(c.Superclass.Pos, c.Superclass.Name, "A class can't inherit from itself.")
		} else {
			r.checkCycle(c)
		}
		r.cls = subclass
		r.expr(c.Superclass)
		r.begin()
		r.top().vars["super"] = true
	}

	r.begin()
	r.top().vars["this"] = true
	for _, m := range c.Methods {
		kind := method
		if m.Name == "init" {
			kind = initializer
		}
		r.function(&m.Function, kind)
	}
	r.end()

	if c.Superclass != nil {
		r.end()
	}
	r.cls = enclosing
}

// --- inheritance graph ---

func (r *Resolver) registerClass(c *ast.ClassDef) {
	if c.Superclass != nil && c.Superclass.Name != c.Name {
		if sup := r.lookupClass(c.Superclass.Name); sup != nil {
			r.supers[c] = sup
		}
	}
	if s := r.top(); s != nil {
		s.classes[c.Name] = c
		return
	}
	r.run[c.Name] = c
}

// lookupClass finds the class declaration currently visible under name.
func (r *Resolver) lookupClass(name string) *ast.ClassDef {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if _, ok := r.scopes[i].vars[name]; ok {
			return r.scopes[i].classes[name]
		}
	}
	return r.run[name]
}

// checkCycle follows the superclass chain from c and reports when it leads
// back to c. Each link uses the superclass that was visible when the class
// was declared; a superclass that was not declared yet at that point is
// looked up by name now.
func (r *Resolver) checkCycle(c *ast.ClassDef) {
	path := []string{c.Name}
	seen := map[*ast.ClassDef]bool{c: true}
	decl := r.supers[c]
	for {
		if decl == nil {
			return
		}
		path = append(path, decl.Name)
		if decl == c {
			r.report(c.Superclass.Pos, c.Superclass.Name,
				"Inheritance cycle: "+strings.Join(path, " < ")+".")
			return
		}
		if seen[decl] || decl.Superclass == nil {
			return
		}
		seen[decl] = true
		next, ok := r.supers[decl]
		if !ok {
			next = r.lookupClass(decl.Superclass.Name)
		}
		decl = next
	}
}

// --- expressions ---

func (r *Resolver) expr(e ast.Expr) {
	switch ex := e.(type) {
	case *ast.Literal:
	case *ast.Variable:
		if s := r.top(); s != nil {
			if defined, ok := s.vars[ex.Name]; ok && !defined {
				r.report(ex.Pos, ex.Name, "Can't read local variable in its own initializer.")
			}
		}
		r.local(ex, ex.Name)
	case *ast.Assign:
		r.expr(ex.Value)
		r.local(ex, ex.Name)
	case *ast.Unary:
		r.expr(ex.Operand)
	case *ast.Binary:
		r.expr(ex.Left)
		r.expr(ex.Right)
	case *ast.Logical:
		r.expr(ex.Left)
		r.expr(ex.Right)
	case *ast.Grouping:
		r.expr(ex.Expression)
	case *ast.Call:
		r.expr(ex.Callee)
		for _, a := range ex.Args {
			r.expr(a)
		}
	case *ast.Get:
		r.expr(ex.Object)
	case *ast.Set:
		r.expr(ex.Value)
		r.expr(ex.Object)
	case *ast.This:
		if r.cls == noClass {
			r.report(ex.Pos, "this", "Can't use 'this' outside of a class.")
			return
		}
		r.local(ex, "this")
	case *ast.Super:
		switch r.cls {
		case noClass:
			r.report(ex.Pos, "super", "Can't use 'super' outside of a class.")
			return
		case class:
			r.report(ex.Pos, "super", "Can't use 'super' in a class with no superclass.")
			return
		}
		r.local(ex, "super")
	case *ast.FuncLit:
		r.function(&ex.Function, lambda)
	}
}
