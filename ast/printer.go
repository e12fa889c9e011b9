package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Print serializes a Program back to Lox source. The output is canonical:
// parsing it again yields a tree with the same shape as prog.
func Print(prog *Program) string {
	p := &printer{}
	for _, s := range prog.Statements {
		p.printStmt(s)
	}
	return p.sb.String()
}

// PrintExpr renders a single expression as Lox source.
func PrintExpr(e Expr) string {
	p := &printer{}
	return p.exprStr(e)
}

type printer struct {
	sb     strings.Builder
	indent int
	inline bool // lambda bodies are printed on one line
}

func (p *printer) line(format string, args ...any) {
	if p.inline {
		p.sb.WriteByte(' ')
		fmt.Fprintf(&p.sb, format, args...)
		return
	}
	for range p.indent {
		p.sb.WriteString("  ")
	}
	fmt.Fprintf(&p.sb, format, args...)
	p.sb.WriteByte('\n')
}

func (p *printer) printStmt(s Statement) {
	switch st := s.(type) {
	case *ExprStmt:
		p.line("%s;", p.exprStr(st.Expression))
	case *PrintStmt:
		p.line("print %s;", p.exprStr(st.Value))
	case *VarStmt:
		if st.Initializer != nil {
			p.line("var %s = %s;", st.Name, p.exprStr(st.Initializer))
		} else {
			p.line("var %s;", st.Name)
		}
	case *BlockStmt:
		p.line("{")
		p.body(st.Body)
		p.line("}")
	case *IfStmt:
		p.line("if (%s)", p.exprStr(st.Condition))
		p.nested(st.Then)
		if st.Else != nil {
			p.line("else")
			p.nested(st.Else)
		}
	case *WhileStmt:
		p.line("while (%s)", p.exprStr(st.Condition))
		p.nested(st.Body)
	case *FuncDef:
		p.line("fun %s(%s) {", st.Name, params(st.Params))
		p.body(st.Body)
		p.line("}")
	case *ClassDef:
		if st.Superclass != nil {
			p.line("class %s < %s {", st.Name, st.Superclass.Name)
		} else {
			p.line("class %s {", st.Name)
		}
		p.indent++
		for _, m := range st.Methods {
			p.line("%s(%s) {", m.Name, params(m.Params))
			p.body(m.Body)
			p.line("}")
		}
		p.indent--
		p.line("}")
	case *ReturnStmt:
		if st.Value != nil {
			p.line("return %s;", p.exprStr(st.Value))
		} else {
			p.line("return;")
		}
	default:
		p.line("/* unknown statement %T */", s)
	}
}

// nested prints the body of an if/while one level deeper unless it is a
// block, which carries its own braces.
func (p *printer) nested(s Statement) {
	if _, ok := s.(*BlockStmt); ok {
		p.printStmt(s)
		return
	}
	p.indent++
	p.printStmt(s)
	p.indent--
}

func (p *printer) body(stmts []Statement) {
	p.indent++
	for _, s := range stmts {
		p.printStmt(s)
	}
	p.indent--
}

func (p *printer) exprStr(e Expr) string {
	switch ex := e.(type) {
	case *Literal:
		return FormatLiteral(ex.Value)
	case *Variable:
		return ex.Name
	case *Assign:
		return ex.Name + " = " + p.exprStr(ex.Value)
	case *Unary:
		return ex.Op + p.exprStr(ex.Operand)
	case *Binary:
		return p.exprStr(ex.Left) + " " + ex.Op + " " + p.exprStr(ex.Right)
	case *Logical:
		return p.exprStr(ex.Left) + " " + ex.Op + " " + p.exprStr(ex.Right)
	case *Grouping:
		return "(" + p.exprStr(ex.Expression) + ")"
	case *Call:
		args := make([]string, len(ex.Args))
		for i, a := range ex.Args {
			args[i] = p.exprStr(a)
		}
		return p.exprStr(ex.Callee) + "(" + strings.Join(args, ", ") + ")"
	case *Get:
		return p.exprStr(ex.Object) + "." + ex.Name
	case *Set:
		return p.exprStr(ex.Object) + "." + ex.Name + " = " + p.exprStr(ex.Value)
	case *This:
		return "this"
	case *Super:
		return "super." + ex.Method
	case *FuncLit:
		sub := &printer{inline: true}
		for _, s := range ex.Body {
			sub.printStmt(s)
		}
		return "fun (" + params(ex.Params) + ") {" + sub.sb.String() + " }"
	case nil:
		return "nil"
	default:
		return fmt.Sprintf("/* unknown expression %T */", e)
	}
}

func params(ps []Param) string {
	names := make([]string, len(ps))
	for i, p := range ps {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

// FormatLiteral renders a literal value the way it would appear in source.
func FormatLiteral(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return `"` + x + `"`
	default:
		return fmt.Sprintf("%v", x)
	}
}
