package ast

import (
	"strings"
)

// Dump renders a node as a parenthesized prefix expression, one top-level
// statement per line for programs. Positions are omitted, so two trees with
// the same shape dump identically.
func Dump(n Node) string {
	var sb strings.Builder
	if prog, ok := n.(*Program); ok {
		for _, s := range prog.Statements {
			dump(&sb, s)
			sb.WriteByte('\n')
		}
		return sb.String()
	}
	dump(&sb, n)
	return sb.String()
}

func dump(sb *strings.Builder, n Node) {
	switch x := n.(type) {
	case *ExprStmt:
		parens(sb, ";", x.Expression)
	case *PrintStmt:
		parens(sb, "print", x.Value)
	case *VarStmt:
		if x.Initializer == nil {
			sb.WriteString("(var " + x.Name + ")")
			return
		}
		parens(sb, "var "+x.Name, x.Initializer)
	case *BlockStmt:
		parens(sb, "block", stmtNodes(x.Body)...)
	case *IfStmt:
		if x.Else == nil {
			parens(sb, "if", x.Condition, x.Then)
			return
		}
		parens(sb, "if-else", x.Condition, x.Then, x.Else)
	case *WhileStmt:
		parens(sb, "while", x.Condition, x.Body)
	case *FuncDef:
		parens(sb, "fun "+x.Name+"("+params(x.Params)+")", stmtNodes(x.Body)...)
	case *ClassDef:
		head := "class " + x.Name
		if x.Superclass != nil {
			head += " < " + x.Superclass.Name
		}
		nodes := make([]Node, len(x.Methods))
		for i, m := range x.Methods {
			nodes[i] = m
		}
		parens(sb, head, nodes...)
	case *ReturnStmt:
		if x.Value == nil {
			sb.WriteString("(return)")
			return
		}
		parens(sb, "return", x.Value)
	case *Literal:
		sb.WriteString(FormatLiteral(x.Value))
	case *Variable:
		sb.WriteString(x.Name)
	case *Assign:
		parens(sb, "= "+x.Name, x.Value)
	case *Unary:
		parens(sb, x.Op, x.Operand)
	case *Binary:
		parens(sb, x.Op, x.Left, x.Right)
	case *Logical:
		parens(sb, x.Op, x.Left, x.Right)
	case *Grouping:
		parens(sb, "group", x.Expression)
	case *Call:
		nodes := []Node{x.Callee}
		for _, a := range x.Args {
			nodes = append(nodes, a)
		}
		parens(sb, "call", nodes...)
	case *Get:
		parens(sb, "."+x.Name, x.Object)
	case *Set:
		parens(sb, "=."+x.Name, x.Object, x.Value)
	case *This:
		sb.WriteString("this")
	case *Super:
		sb.WriteString("(super " + x.Method + ")")
	case *FuncLit:
		parens(sb, "fun("+params(x.Params)+")", stmtNodes(x.Body)...)
	default:
		sb.WriteString("?")
	}
}

func parens(sb *strings.Builder, head string, nodes ...Node) {
	sb.WriteByte('(')
	sb.WriteString(head)
	for _, n := range nodes {
		sb.WriteByte(' ')
		dump(sb, n)
	}
	sb.WriteByte(')')
}

func stmtNodes(stmts []Statement) []Node {
	nodes := make([]Node, len(stmts))
	for i, s := range stmts {
		nodes[i] = s
	}
	return nodes
}
