package interpreter_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rubiojr/lox/interpreter"
	"github.com/rubiojr/lox/runtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string, opts interpreter.Options) (*interpreter.Outcome, string) {
	t.Helper()
	var buf bytes.Buffer
	opts.Stdout = &buf
	return interpreter.Run("test.lox", src, opts), buf.String()
}

func runOK(t *testing.T, src string) string {
	t.Helper()
	out, stdout := run(t, src, interpreter.Options{})
	require.NoError(t, out.Err())
	return stdout
}

func runtimeError(t *testing.T, src string) (*interpreter.RuntimeError, string) {
	t.Helper()
	out, stdout := run(t, src, interpreter.Options{})
	require.Equal(t, interpreter.StatusRuntimeError, out.Status, "err: %v", out.Err())
	require.Len(t, out.RuntimeErrors, 1)
	return out.RuntimeErrors[0], stdout
}

func TestClosureCounter(t *testing.T) {
	src := `
fun makeCounter() {
  var i = 0;
  fun count() {
    i = i + 1;
    print i;
  }
  return count;
}
var counter = makeCounter();
counter();
counter();`
	assert.Equal(t, "1\n2\n", runOK(t, src))
}

func TestClosuresAreIndependent(t *testing.T) {
	src := `
fun make() { var n = 0; return fun () { n = n + 1; return n; }; }
var a = make();
var b = make();
a(); a();
print a();
print b();`
	assert.Equal(t, "3\n1\n", runOK(t, src))
}

func TestStaticScopeIgnoresLaterShadowing(t *testing.T) {
	src := `
var a = "global";
{
  fun showA() { print a; }
  showA();
  var a = "block";
  showA();
  print a;
}`
	assert.Equal(t, "global\nglobal\nblock\n", runOK(t, src))
}

func TestRecursion(t *testing.T) {
	src := `
fun fib(n) {
  if (n < 2) return n;
  return fib(n - 1) + fib(n - 2);
}
print fib(15);`
	assert.Equal(t, "610\n", runOK(t, src))
}

func TestInitializerReturnsReceiver(t *testing.T) {
	src := `
class Foo {
  init() { this.x = 1; return; }
}
var f = Foo();
print f.init() == f;
print f.init();
print f.x;`
	assert.Equal(t, "true\nFoo instance\n1\n", runOK(t, src))
}

func TestSuperDispatch(t *testing.T) {
	src := `
class A { method() { print "A method"; } }
class B < A {
  method() { print "B method"; }
  test() { super.method(); }
}
class C < B {}
C().test();
C().method();`
	assert.Equal(t, "A method\nB method\n", runOK(t, src))
}

func TestClassesAndMethods(t *testing.T) {
	src := `
class Point {
  init(x, y) { this.x = x; this.y = y; }
  sum() { return this.x + this.y; }
}
var p = Point(2, 3);
var s = p.sum;
p.x = 10;
print s();
print Point;
print p;
print s;
print clock;
print fun () {};`
	assert.Equal(t, "13\nPoint\nPoint instance\n<fn sum>\n<native fn>\n<fn>\n", runOK(t, src))
}

func TestValueSemantics(t *testing.T) {
	src := `
print "a" + "b";
print 1 == 1;
print nil == false;
print "1" == 1;
print nil or "x";
print 1 and 2;
print !nil;
print 7 / 2;
print -0.5 * 2;
print 1 < 2 == true;`
	assert.Equal(t, "ab\ntrue\nfalse\nfalse\nx\n2\ntrue\n3.5\n-1\ntrue\n", runOK(t, src))
}

func TestControlFlow(t *testing.T) {
	src := `
var out = "";
for (var i = 0; i < 5; i = i + 1) {
  if (i == 2) out = out + "two"; else out = out + str(i);
}
print out;
var n = 0;
while (n < 3) n = n + 1;
print n;`
	assert.Equal(t, "01two34\n3\n", runOK(t, src))
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		src  string
		msg  string
		line int
	}{
		{"print 1 / 0;", "Division by zero.", 1},
		{"print x;", "Undefined variable 'x'.", 1},
		{"\nx = 1;", "Undefined variable 'x'.", 2},
		{`print -"a";`, "Operand must be a number.", 1},
		{`print 1 + "a";`, "Operands must be two numbers or two strings.", 1},
		{`print 1 < "a";`, "Operands must be numbers.", 1},
		{"nil();", "Can only call functions and classes.", 1},
		{"fun f(a) {}\nf(1, 2);", "Expected 1 arguments but got 2.", 2},
		{"class A { init(a) {} }\nA();", "Expected 1 arguments but got 0.", 2},
		{"class A {}\nprint A().x;", "Undefined property 'x'.", 2},
		{"print 1.x;", "Only instances have properties.", 1},
		{"var s = \"s\";\ns.x = 1;", "Only instances have fields.", 2},
		{"var N = 1;\nclass A < N {}", "Superclass must be a class.", 2},
		{"class A {}\nclass B < A { m() { return super.nope(); } }\nB().m();", "Undefined property 'nope'.", 2},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			rerr, _ := runtimeError(t, tt.src)
			assert.Equal(t, tt.msg, rerr.Msg)
			assert.Equal(t, tt.line, rerr.Pos.Line)
		})
	}
}

func TestRuntimeErrorText(t *testing.T) {
	rerr, _ := runtimeError(t, "print x;")
	assert.Equal(t, "Undefined variable 'x'.\n[line 1] in script", rerr.Error())
}

func TestNativeErrorsAreRuntimeErrors(t *testing.T) {
	rerr, _ := runtimeError(t, `num("x");`)
	assert.Contains(t, rerr.Msg, "cannot convert")
	rerr, _ = runtimeError(t, `len(1);`)
	assert.Equal(t, "len: argument 1 must be a string.", rerr.Msg)
}

func TestOutputBeforeErrorIsKept(t *testing.T) {
	rerr, stdout := runtimeError(t, "print 1;\nprint 2;\nnil();\nprint 3;")
	assert.Equal(t, "1\n2\n", stdout)
	assert.Equal(t, 3, rerr.Pos.Line)
}

func TestContinueOnError(t *testing.T) {
	src := "print 1;\nprint -\"a\";\nprint 2;\nprint nil + 1;\nprint 3;"

	out, stdout := run(t, src, interpreter.Options{})
	assert.Equal(t, "1\n", stdout)
	assert.Len(t, out.RuntimeErrors, 1)

	out, stdout = run(t, src, interpreter.Options{ContinueOnError: true})
	assert.Equal(t, "1\n2\n3\n", stdout)
	assert.Equal(t, interpreter.StatusRuntimeError, out.Status)
	require.Len(t, out.RuntimeErrors, 2)
	assert.Equal(t, 2, out.RuntimeErrors[0].Pos.Line)
	assert.Equal(t, 4, out.RuntimeErrors[1].Pos.Line)
	assert.Equal(t, out.RuntimeErrors[0], out.Err())
}

func TestStackOverflow(t *testing.T) {
	opts := interpreter.Options{MaxCallDepth: 50}
	out, _ := run(t, "fun f() { f(); }\nf();", opts)
	require.Equal(t, interpreter.StatusRuntimeError, out.Status)
	assert.Equal(t, "Stack overflow.", out.RuntimeErrors[0].Msg)

	out, stdout := run(t, "fun r(n) { if (n == 0) return 0; return r(n - 1); }\nprint r(40);", opts)
	require.NoError(t, out.Err())
	assert.Equal(t, "0\n", stdout)

	// The depth counter resets between top-level statements.
	out, _ = run(t, "fun f() { f(); }\nf();\nprint 1;", interpreter.Options{MaxCallDepth: 50, ContinueOnError: true})
	assert.Len(t, out.RuntimeErrors, 1)
}

func TestStaticErrorsPreventExecution(t *testing.T) {
	out, stdout := run(t, "print 1;\nvar = 2;\nprint 3;", interpreter.Options{})
	assert.Equal(t, interpreter.StatusStaticError, out.Status)
	assert.Empty(t, stdout)
	assert.Len(t, out.Diagnostics, 1)

	out, stdout = run(t, "print 1;\nclass A < B {}\nclass B < A {}", interpreter.Options{})
	assert.Equal(t, interpreter.StatusStaticError, out.Status)
	assert.Empty(t, stdout)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, "Inheritance cycle: B < A < B.", out.Diagnostics.At(0).Message)
	assert.Equal(t, out.Diagnostics, out.Err())
}

func TestSessionKeepsState(t *testing.T) {
	var buf bytes.Buffer
	i := interpreter.New(interpreter.Options{Stdout: &buf})

	require.NoError(t, i.Run("1", "var a = 1; fun twice(x) { var y = x * 2; return y; }").Err())
	require.NoError(t, i.Run("2", "print a + twice(3);").Err())
	require.NoError(t, i.Run("3", "class A {} class B < A {}").Err())
	assert.Equal(t, "7\n", buf.String())

	v, ok := i.Global("a")
	require.True(t, ok)
	assert.Equal(t, runtime.Number(1), v)
	_, ok = i.Global("nope")
	assert.False(t, ok)

	// A failed run leaves earlier definitions in place.
	assert.Equal(t, interpreter.StatusRuntimeError, i.Run("4", "a = 5; print b;").Status)
	v, _ = i.Global("a")
	assert.Equal(t, runtime.Number(5), v)

	assert.Equal(t, interpreter.StatusStaticError, i.Run("5", "print this;").Status)
}

func TestSessionIgnoresClassesThatWereNeverDefined(t *testing.T) {
	i := interpreter.New(interpreter.Options{Stdout: &bytes.Buffer{}})

	assert.Equal(t, interpreter.StatusStaticError, i.Run("1", "class A < B {}\nreturn 1;").Status)
	out := i.Run("2", "class B < A {}")
	require.Equal(t, interpreter.StatusRuntimeError, out.Status, "err: %v", out.Err())
	assert.Equal(t, "Undefined variable 'A'.", out.RuntimeErrors[0].Msg)

	assert.Equal(t, interpreter.StatusRuntimeError, i.Run("3", "nil();\nclass C < D {}").Status)
	out = i.Run("4", "class D < C {}")
	require.Equal(t, interpreter.StatusRuntimeError, out.Status, "err: %v", out.Err())
	assert.Equal(t, "Undefined variable 'C'.", out.RuntimeErrors[0].Msg)

	require.NoError(t, i.Run("5", "class E {}\nclass F < E {}\nprint F;").Err())
}

func TestOutcomeValue(t *testing.T) {
	i := interpreter.New(interpreter.Options{Stdout: &bytes.Buffer{}})
	assert.Equal(t, runtime.Number(3), i.Run("v", "1 + 2;").Value)
	assert.Nil(t, i.Run("v", "var x = 1;").Value)
	assert.Equal(t, runtime.String("ab"), i.Run("v", `x = 2; "a" + "b";`).Value)
	assert.Nil(t, i.Run("v", "print 1;").Value)
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestOutputFailureIsNotInternal(t *testing.T) {
	out := interpreter.Run("w.lox", "fun f() { print 1; }\nf();\nprint 2;", interpreter.Options{
		Stdout:          brokenWriter{},
		ContinueOnError: true,
	})
	assert.Equal(t, interpreter.StatusOutputError, out.Status)
	assert.ErrorIs(t, out.Err(), interpreter.ErrOutput)
	assert.NotErrorIs(t, out.Err(), interpreter.ErrInternal)
	assert.Contains(t, out.Err().Error(), "disk full")
	assert.Empty(t, out.RuntimeErrors)
	assert.Nil(t, out.Internal)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ok", interpreter.StatusOK.String())
	assert.Equal(t, "internal error", interpreter.StatusInternalError.String())
	assert.Equal(t, "output error", interpreter.StatusOutputError.String())
}
