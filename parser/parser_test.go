package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rubiojr/lox/ast"
	"github.com/rubiojr/lox/diag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dump(t *testing.T, src string) string {
	t.Helper()
	prog, errs := Parse("test.lox", src)
	require.Empty(t, errs, "unexpected errors: %v", errs)
	return strings.TrimSuffix(ast.Dump(prog), "\n")
}

func messages(l diag.List) []string {
	out := make([]string, len(l))
	for i := range l {
		d := l.At(i)
		out[i] = fmt.Sprintf("%d:%s%s", d.Pos.Line, d.Message, d.Where)
	}
	return out
}

func TestPrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3;", "(; (+ 1 (* 2 3)))"},
		{"(1 + 2) * 3;", "(; (* (group (+ 1 2)) 3))"},
		{"1 - 2 - 3;", "(; (- (- 1 2) 3))"},
		{"-a * b;", "(; (* (- a) b))"},
		{"!!true;", "(; (! (! true)))"},
		{"a < b == c >= d;", "(; (== (< a b) (>= c d)))"},
		{"a or b and c;", "(; (or a (and b c)))"},
		{"a = b = c;", "(; (= a (= b c)))"},
		{"a.b.c = d;", "(; (=.c (.b a) d))"},
		{"f(1)(2).x;", "(; (.x (call (call f 1) 2)))"},
		{`print "s" + nil;`, `(print (+ "s" nil))`},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, dump(t, tt.src))
		})
	}
}

func TestDeclarations(t *testing.T) {
	assert.Equal(t, "(var a)\n(var b 1)", dump(t, "var a; var b = 1;"))
	assert.Equal(t, "(fun add(a, b) (return (+ a b)))", dump(t, "fun add(a, b) { return a + b; }"))
	assert.Equal(t,
		"(class B < A (fun init(x) (; (=.x this x))) (fun m() (return (call (super m)))))",
		dump(t, "class B < A { init(x) { this.x = x; } m() { return super.m(); } }"))
	assert.Equal(t, "(if-else c (print 1) (print 2))", dump(t, "if (c) print 1; else print 2;"))
	assert.Equal(t, "(while (< i 3) (block (; (= i (+ i 1)))))", dump(t, "while (i < 3) { i = i + 1; }"))
}

func TestDanglingElse(t *testing.T) {
	assert.Equal(t, "(if a (if-else b (print 1) (print 2)))",
		dump(t, "if (a) if (b) print 1; else print 2;"))
}

func TestForDesugaring(t *testing.T) {
	assert.Equal(t,
		"(block (var i 0) (while (< i 3) (block (print i) (; (= i (+ i 1))))))",
		dump(t, "for (var i = 0; i < 3; i = i + 1) print i;"))
	assert.Equal(t, "(while true (print 1))", dump(t, "for (;;) print 1;"))
	assert.Equal(t, "(block (; (= i 0)) (while (< i 1) (print i)))", dump(t, "for (i = 0; i < 1;) print i;"))
}

func TestLambdas(t *testing.T) {
	assert.Equal(t, "(var f (fun(a) (return a)))", dump(t, "var f = fun (a) { return a; };"))
	assert.Equal(t, "(; (call (fun() (print 1))))", dump(t, "fun () { print 1; }();"))
	assert.Equal(t, "(; (call apply (fun(x) (return (* x 2))) 3))",
		dump(t, "apply(fun (x) { return x * 2; }, 3);"))
}

func TestSynchronizeReportsEveryStatement(t *testing.T) {
	src := `var = 1;
print 1 +;
var ok = 2;
fun (a { }
print ok;
`
	prog, errs := Parse("sync.lox", src)
	assert.Equal(t, []string{
		"1:Expect variable name. at '='",
		"2:Expect expression. at ';'",
		"4:Expect ')' after parameters. at '{'",
	}, messages(errs))
	// Valid statements between errors survive.
	dumped := ast.Dump(prog)
	assert.Contains(t, dumped, "(var ok 2)")
	assert.Contains(t, dumped, "(print ok)")
}

func TestInvalidAssignmentTargetDoesNotSynchronize(t *testing.T) {
	prog, errs := Parse("t.lox", "1 = 2; a + b = 3; print 4;")
	assert.Equal(t, []string{
		"1:Invalid assignment target. at '='",
		"1:Invalid assignment target. at '='",
	}, messages(errs))
	assert.Len(t, prog.Statements, 3)
}

func TestErrorAtEnd(t *testing.T) {
	_, errs := Parse("t.lox", "print 1")
	require.Len(t, errs, 1)
	assert.Equal(t, "Expect ';' after value.", errs.At(0).Message)
	assert.Equal(t, " at end", errs.At(0).Where)
}

func TestLexicalErrorsAreMerged(t *testing.T) {
	_, errs := Parse("t.lox", "var a = @;\nprint ;")
	require.Len(t, errs, 3)
	assert.Equal(t, diag.Lexical, errs.At(0).Phase)
	assert.Equal(t, "Unexpected character.", errs.At(0).Message)
	assert.Equal(t, diag.Syntax, errs.At(1).Phase)
	assert.Equal(t, "Expect expression.", errs.At(1).Message)
	assert.Equal(t, 1, errs[1].Pos.Line)
	assert.Equal(t, 2, errs[2].Pos.Line)
}

func TestTooManyArguments(t *testing.T) {
	args := make([]string, MaxArgs+1)
	for i := range args {
		args[i] = "1"
	}
	_, errs := Parse("t.lox", "f("+strings.Join(args, ", ")+");")
	require.Len(t, errs, 1)
	assert.Equal(t, "Can't have more than 255 arguments.", errs.At(0).Message)

	params := make([]string, MaxArgs+1)
	for i := range params {
		params[i] = fmt.Sprintf("p%d", i)
	}
	_, errs = Parse("t.lox", "fun f("+strings.Join(params, ", ")+") {}")
	require.Len(t, errs, 1)
	assert.Equal(t, "Can't have more than 255 parameters.", errs.At(0).Message)
}

func TestClassErrors(t *testing.T) {
	_, errs := Parse("t.lox", "class { }\nclass A < { }\nvar x = super;")
	assert.Equal(t, []string{
		"1:Expect class name. at '{'",
		"2:Expect superclass name. at '{'",
		"3:Expect '.' after 'super'. at ';'",
	}, messages(errs))
}

func TestPositions(t *testing.T) {
	prog, errs := Parse("pos.lox", "\n\nprint a + b;")
	require.Empty(t, errs)
	st := prog.Statements[0].(*ast.PrintStmt)
	assert.Equal(t, 3, st.StmtLine())
	bin := st.Value.(*ast.Binary)
	assert.Equal(t, 3, bin.Pos.Line)
	assert.Equal(t, 9, bin.Pos.Column)
	assert.Equal(t, "pos.lox", bin.Pos.Filename)
}
