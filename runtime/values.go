// Package runtime holds the value model and variable storage used by the
// evaluator. Values are a closed sum type: every operation switches over the
// concrete types below instead of relying on dynamic dispatch.
//
// Memory is managed by the Go garbage collector. Closures capture their
// defining *Environment, instances hold fields that may hold closures, and
// the resulting reference cycles are collected like any other unreachable
// graph, so no explicit cycle breaking is needed.
package runtime

import (
	"fmt"
	"math"
	"strconv"

	"github.com/rubiojr/lox/ast"
)

// Kind identifies the runtime value category.
type Kind int

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindNative
	KindFunction
	KindBoundMethod
	KindClass
	KindInstance
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindNative:
		return "native function"
	case KindFunction:
		return "function"
	case KindBoundMethod:
		return "bound method"
	case KindClass:
		return "class"
	case KindInstance:
		return "instance"
	default:
		return fmt.Sprintf("unknown_kind_%d", int(k))
	}
}

// Value is the shared behaviour for all runtime values.
type Value interface {
	Kind() Kind
}

//-----------------------------------------------------------------------------
// Scalars
//-----------------------------------------------------------------------------

type Nil struct{}

func (Nil) Kind() Kind { return KindNil }

type Bool bool

func (Bool) Kind() Kind { return KindBool }

type Number float64

func (Number) Kind() Kind { return KindNumber }

type String string

func (String) Kind() Kind { return KindString }

//-----------------------------------------------------------------------------
// Callables
//-----------------------------------------------------------------------------

// Callable is implemented by every value that can appear in call position.
type Callable interface {
	Value
	Arity() int
}

// NativeFunction is a primitive provided by the host.
type NativeFunction struct {
	Name   string
	Params int
	Fn     func(args []Value) (Value, error)
}

func (*NativeFunction) Kind() Kind   { return KindNative }
func (n *NativeFunction) Arity() int { return n.Params }

// Function is a user-defined function or method closed over the
// environment active where it was declared.
type Function struct {
	Decl    *ast.Function
	Closure *Environment
	IsInit  bool // class initializer: calls evaluate to the receiver
}

func (*Function) Kind() Kind   { return KindFunction }
func (f *Function) Arity() int { return f.Decl.Arity() }

// Bind pairs f with an instance so this resolves to it inside the body.
func (f *Function) Bind(inst *Instance) *BoundMethod {
	return &BoundMethod{Method: f, Receiver: inst}
}

// BoundMethod is a method value carrying its receiver.
type BoundMethod struct {
	Method   *Function
	Receiver *Instance
}

func (*BoundMethod) Kind() Kind   { return KindBoundMethod }
func (b *BoundMethod) Arity() int { return b.Method.Arity() }

//-----------------------------------------------------------------------------
// Classes and instances
//-----------------------------------------------------------------------------

// Class owns its method table and an optional superclass reference.
type Class struct {
	Name       string
	Superclass *Class
	Methods    map[string]*Function
}

func (*Class) Kind() Kind { return KindClass }

// Arity is the arity of the initializer, or zero without one.
func (c *Class) Arity() int {
	if init := c.FindMethod("init"); init != nil {
		return init.Arity()
	}
	return 0
}

// FindMethod looks name up in c's own table, then walks the superclass
// chain.
func (c *Class) FindMethod(name string) *Function {
	for k := c; k != nil; k = k.Superclass {
		if m, ok := k.Methods[name]; ok {
			return m
		}
	}
	return nil
}

// Instance is an object created by calling a class.
type Instance struct {
	Class  *Class
	Fields map[string]Value
}

// NewInstance creates an instance of c with no fields.
func NewInstance(c *Class) *Instance {
	return &Instance{Class: c, Fields: make(map[string]Value)}
}

func (*Instance) Kind() Kind { return KindInstance }

// Get returns a field, or a method bound to inst. Fields shadow methods.
func (inst *Instance) Get(name string) (Value, bool) {
	if v, ok := inst.Fields[name]; ok {
		return v, true
	}
	if m := inst.Class.FindMethod(name); m != nil {
		return m.Bind(inst), true
	}
	return nil, false
}

// Set creates or replaces a field.
func (inst *Instance) Set(name string, v Value) {
	inst.Fields[name] = v
}

//-----------------------------------------------------------------------------
// Primitive operations
//-----------------------------------------------------------------------------

// Truthy reports the boolean meaning of v: only nil and false are falsy.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case Nil, nil:
		return false
	case Bool:
		return bool(x)
	default:
		return true
	}
}

// Equal compares scalars by value and objects by identity.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Nil, nil:
		switch b.(type) {
		case Nil, nil:
			return true
		}
		return false
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Number:
		y, ok := b.(Number)
		return ok && x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	case *NativeFunction:
		y, ok := b.(*NativeFunction)
		return ok && x == y
	case *Function:
		y, ok := b.(*Function)
		return ok && x == y
	case *BoundMethod:
		y, ok := b.(*BoundMethod)
		return ok && x == y
	case *Class:
		y, ok := b.(*Class)
		return ok && x == y
	case *Instance:
		y, ok := b.(*Instance)
		return ok && x == y
	}
	return false
}

// Format renders v the way print shows it.
func Format(v Value) string {
	switch x := v.(type) {
	case Nil, nil:
		return "nil"
	case Bool:
		return strconv.FormatBool(bool(x))
	case Number:
		return FormatNumber(float64(x))
	case String:
		return string(x)
	case *NativeFunction:
		return "<native fn>"
	case *Function:
		if x.Decl.Name == "" {
			return "<fn>"
		}
		return "<fn " + x.Decl.Name + ">"
	case *BoundMethod:
		return "<fn " + x.Method.Decl.Name + ">"
	case *Class:
		return x.Name
	case *Instance:
		return x.Class.Name + " instance"
	}
	return fmt.Sprintf("<%T>", v)
}

// FormatNumber prints integral values without a fractional part.
func FormatNumber(n float64) string {
	switch {
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	case math.IsNaN(n):
		return "nan"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
