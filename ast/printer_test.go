package ast_test

import (
	"testing"

	"github.com/rubiojr/lox/ast"
	"github.com/rubiojr/lox/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var roundTripSources = []string{
	`var a = 1; var b; print a + b * (2 - -3);`,
	`print !true == false or nil and "s";`,
	`{ var x = 1; { print x; } }`,
	`if (a) if (b) print 1; else print 2;`,
	`if (a) { print 1; } else { print 2; }`,
	`while (i < 10) i = i + 1;`,
	`for (var i = 0; i < 3; i = i + 1) { print i; }`,
	`for (;;) print 1;`,
	`fun add(a, b) { return a + b; } print add(1, 2);`,
	`fun noop() { return; }`,
	`class A { init(x) { this.x = x; } get() { return this.x; } }
	 class B < A { get() { return super.get() + 1; } }
	 print B(1).get();`,
	`obj.field.inner = 3; print obj.field.inner;`,
	`var f = fun (a, b) { if (a) return b; return nil; }; print f(true, 2);`,
	`fun () { print 1; }();`,
	`print 0.5 + 100 + 1.25;`,
}

func TestPrintRoundTrip(t *testing.T) {
	for _, src := range roundTripSources {
		prog, errs := parser.Parse("a.lox", src)
		require.Empty(t, errs, src)

		printed := ast.Print(prog)
		again, errs := parser.Parse("b.lox", printed)
		require.Empty(t, errs, "reparse of:\n%s", printed)

		assert.Equal(t, ast.Dump(prog), ast.Dump(again), printed)
		assert.Equal(t, printed, ast.Print(again), "printing is a fixed point")
	}
}

func TestPrintLayout(t *testing.T) {
	prog, errs := parser.Parse("a.lox", "class A < B { m(a) { if (a) print a; else { return; } } }")
	require.Empty(t, errs)
	assert.Equal(t, `class A < B {
  m(a) {
    if (a)
      print a;
    else
    {
      return;
    }
  }
}
`, ast.Print(prog))
}

func TestPrintExprAndLiterals(t *testing.T) {
	prog, errs := parser.Parse("a.lox", `f(1, "two", nil, true, fun (x) { return x; });`)
	require.Empty(t, errs)
	call := prog.Statements[0].(*ast.ExprStmt).Expression
	assert.Equal(t, `f(1, "two", nil, true, fun (x) { return x; })`, ast.PrintExpr(call))

	assert.Equal(t, "2.5", ast.FormatLiteral(2.5))
	assert.Equal(t, "3", ast.FormatLiteral(3.0))
	assert.Equal(t, "false", ast.FormatLiteral(false))
	assert.Equal(t, `"q"`, ast.FormatLiteral("q"))
}

func TestDumpIgnoresPositions(t *testing.T) {
	a, errs := parser.Parse("a.lox", "print 1+2;")
	require.Empty(t, errs)
	b, errs := parser.Parse("b.lox", "\n\n   print   1 +\n 2 ;")
	require.Empty(t, errs)
	assert.Equal(t, ast.Dump(a), ast.Dump(b))
	assert.Equal(t, "(print (+ 1 2))\n", ast.Dump(a))
}

func TestFunctionArity(t *testing.T) {
	prog, errs := parser.Parse("a.lox", "fun f(a, b, c) {}")
	require.Empty(t, errs)
	fn := prog.Statements[0].(*ast.FuncDef)
	assert.Equal(t, 3, fn.Arity())
	assert.Equal(t, "f", fn.Name)
}
