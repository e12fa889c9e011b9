package runtime

import (
	"errors"
	"math"
	"testing"

	"github.com/rubiojr/lox/ast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(Nil{}))
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(Bool(false)))
	assert.True(t, Truthy(Bool(true)))
	assert.True(t, Truthy(Number(0)))
	assert.True(t, Truthy(String("")))
	assert.True(t, Truthy(NewInstance(&Class{Name: "A"})))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Nil{}, Nil{}))
	assert.True(t, Equal(Nil{}, nil))
	assert.False(t, Equal(Nil{}, Bool(false)))
	assert.True(t, Equal(Number(1), Number(1.0)))
	assert.False(t, Equal(Number(1), String("1")))
	assert.True(t, Equal(String("a"), String("a")))
	nan := Number(math.NaN())
	assert.False(t, Equal(nan, nan))

	c := &Class{Name: "A"}
	a, b := NewInstance(c), NewInstance(c)
	assert.True(t, Equal(a, a))
	assert.False(t, Equal(a, b), "instances compare by identity")
	assert.True(t, Equal(c, c))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "nil", Format(Nil{}))
	assert.Equal(t, "true", Format(Bool(true)))
	assert.Equal(t, "3", Format(Number(3)))
	assert.Equal(t, "-0.5", Format(Number(-0.5)))
	assert.Equal(t, "1000000000000000000000", FormatNumber(1e21))
	assert.Equal(t, "0.1", FormatNumber(0.1))
	assert.Equal(t, "inf", Format(Number(math.Inf(1))))
	assert.Equal(t, "-inf", Format(Number(math.Inf(-1))))
	assert.Equal(t, "nan", Format(Number(math.NaN())))
	assert.Equal(t, "hi", Format(String("hi")))

	named := &Function{Decl: &ast.Function{Name: "f"}}
	anon := &Function{Decl: &ast.Function{}}
	assert.Equal(t, "<fn f>", Format(named))
	assert.Equal(t, "<fn>", Format(anon))
	assert.Equal(t, "<native fn>", Format(&NativeFunction{Name: "clock"}))

	c := &Class{Name: "Point"}
	inst := NewInstance(c)
	assert.Equal(t, "Point", Format(c))
	assert.Equal(t, "Point instance", Format(inst))
	assert.Equal(t, "<fn f>", Format(named.Bind(inst)))
}

func TestClassMethodsAndArity(t *testing.T) {
	initFn := &Function{Decl: &ast.Function{Name: "init", Params: []ast.Param{{Name: "a"}, {Name: "b"}}}, IsInit: true}
	greet := &Function{Decl: &ast.Function{Name: "greet"}}
	base := &Class{Name: "Base", Methods: map[string]*Function{"init": initFn, "greet": greet}}
	override := &Function{Decl: &ast.Function{Name: "greet"}}
	sub := &Class{Name: "Sub", Superclass: base, Methods: map[string]*Function{"greet": override}}

	assert.Equal(t, 2, base.Arity())
	assert.Equal(t, 2, sub.Arity(), "initializer is inherited")
	assert.Equal(t, 0, (&Class{Name: "Empty"}).Arity())
	assert.Same(t, override, sub.FindMethod("greet"))
	assert.Same(t, initFn, sub.FindMethod("init"))
	assert.Nil(t, sub.FindMethod("missing"))

	inst := NewInstance(sub)
	v, ok := inst.Get("greet")
	require.True(t, ok)
	bound := v.(*BoundMethod)
	assert.Same(t, override, bound.Method)
	assert.Same(t, inst, bound.Receiver)

	inst.Set("greet", String("field"))
	v, ok = inst.Get("greet")
	require.True(t, ok)
	assert.Equal(t, String("field"), v, "fields shadow methods")

	_, ok = inst.Get("nothing")
	assert.False(t, ok)
}

func TestKinds(t *testing.T) {
	assert.Equal(t, KindNumber, Number(1).Kind())
	assert.Equal(t, KindInstance, NewInstance(&Class{}).Kind())
	assert.Equal(t, "bound method", KindBoundMethod.String())
	assert.Equal(t, "unknown_kind_42", Kind(42).String())
}

func TestEnvironment(t *testing.T) {
	global := NewEnvironment(nil)
	global.Define("a", Number(1))
	local := NewEnvironment(global)
	local.Define("b", Number(2))
	inner := NewEnvironment(local)

	v, err := inner.Get("a")
	require.NoError(t, err)
	assert.Equal(t, Number(1), v)

	v, err = inner.GetAt(1, "b")
	require.NoError(t, err)
	assert.Equal(t, Number(2), v)

	require.NoError(t, inner.AssignAt(2, "a", Number(10)))
	v, _ = global.Get("a")
	assert.Equal(t, Number(10), v)

	require.NoError(t, inner.Assign("b", Number(20)))
	v, _ = local.Get("b")
	assert.Equal(t, Number(20), v)

	_, err = inner.Get("zzz")
	var undef *UndefinedError
	require.ErrorAs(t, err, &undef)
	assert.Equal(t, "Undefined variable 'zzz'.", err.Error())
	assert.ErrorAs(t, inner.Assign("zzz", Nil{}), &undef)

	_, err = inner.GetAt(0, "a")
	assert.True(t, errors.Is(err, ErrUnresolved))
	assert.ErrorIs(t, inner.AssignAt(5, "a", Nil{}), ErrUnresolved)

	assert.Same(t, global, inner.Ancestor(2))
}

func TestShadowingDefine(t *testing.T) {
	outer := NewEnvironment(nil)
	outer.Define("x", String("outer"))
	inner := NewEnvironment(outer)
	inner.Define("x", String("inner"))

	v, _ := inner.Get("x")
	assert.Equal(t, String("inner"), v)
	v, _ = outer.Get("x")
	assert.Equal(t, String("outer"), v)
}
