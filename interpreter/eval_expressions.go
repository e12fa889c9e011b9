package interpreter

import (
	"errors"
	"fmt"

	"github.com/rubiojr/lox/ast"
	"github.com/rubiojr/lox/runtime"
	"modernc.org/token"
)

func (i *Interpreter) eval(e ast.Expr, env *runtime.Environment) (runtime.Value, error) {
	switch ex := e.(type) {
	case *ast.Literal:
		return literal(ex.Value), nil

	case *ast.Grouping:
		return i.eval(ex.Expression, env)

	case *ast.Variable:
		return i.lookup(ex, ex.Name, env)

	case *ast.Assign:
		v, err := i.eval(ex.Value, env)
		if err != nil {
			return nil, err
		}
		if d, ok := i.bindings[ex]; ok {
			if err := env.AssignAt(d, ex.Name, v); err != nil {
				return nil, internalErr(err)
			}
			return v, nil
		}
		if err := i.globals.Assign(ex.Name, v); err != nil {
			return nil, runtimeErr(ex.Pos, "%s", err.Error())
		}
		if _, ok := v.(*runtime.Class); !ok {
			i.resolver.DefineGlobal(ex.Name)
		}
		return v, nil

	case *ast.Unary:
		return i.unary(ex, env)

	case *ast.Binary:
		return i.binary(ex, env)

	case *ast.Logical:
		left, err := i.eval(ex.Left, env)
		if err != nil {
			return nil, err
		}
		if ex.Op == "or" {
			if runtime.Truthy(left) {
				return left, nil
			}
		} else if !runtime.Truthy(left) {
			return left, nil
		}
		return i.eval(ex.Right, env)

	case *ast.Call:
		return i.call(ex, env)

	case *ast.Get:
		obj, err := i.eval(ex.Object, env)
		if err != nil {
			return nil, err
		}
		inst, ok := obj.(*runtime.Instance)
		if !ok {
			return nil, runtimeErr(ex.Pos, "Only instances have properties.")
		}
		v, ok := inst.Get(ex.Name)
		if !ok {
			return nil, runtimeErr(ex.Pos, "Undefined property '%s'.", ex.Name)
		}
		return v, nil

	case *ast.Set:
		obj, err := i.eval(ex.Object, env)
		if err != nil {
			return nil, err
		}
		inst, ok := obj.(*runtime.Instance)
		if !ok {
			return nil, runtimeErr(ex.Pos, "Only instances have fields.")
		}
		v, err := i.eval(ex.Value, env)
		if err != nil {
			return nil, err
		}
		inst.Set(ex.Name, v)
		return v, nil

	case *ast.This:
		return i.lookup(ex, "this", env)

	case *ast.Super:
		return i.super(ex, env)

	case *ast.FuncLit:
		return &runtime.Function{Decl: &ex.Function, Closure: env}, nil
	}
	return nil, internalErr(fmt.Errorf("unknown expression %T", e))
}

func literal(v any) runtime.Value {
	switch x := v.(type) {
	case bool:
		return runtime.Bool(x)
	case float64:
		return runtime.Number(x)
	case string:
		return runtime.String(x)
	}
	return runtime.Nil{}
}

// lookup reads name through the resolved distance for e, or from the
// globals when the resolver left e unbound.
func (i *Interpreter) lookup(e ast.Expr, name string, env *runtime.Environment) (runtime.Value, error) {
	if d, ok := i.bindings[e]; ok {
		v, err := env.GetAt(d, name)
		if err != nil {
			return nil, internalErr(err)
		}
		return v, nil
	}
	v, err := i.globals.Get(name)
	if err != nil {
		var undef *runtime.UndefinedError
		if errors.As(err, &undef) {
			return nil, runtimeErr(e.Position(), "%s", undef.Error())
		}
		return nil, internalErr(err)
	}
	return v, nil
}

func (i *Interpreter) unary(ex *ast.Unary, env *runtime.Environment) (runtime.Value, error) {
	v, err := i.eval(ex.Operand, env)
	if err != nil {
		return nil, err
	}
	switch ex.Op {
	case "-":
		n, ok := v.(runtime.Number)
		if !ok {
			return nil, runtimeErr(ex.Pos, "Operand must be a number.")
		}
		return -n, nil
	case "!":
		return runtime.Bool(!runtime.Truthy(v)), nil
	}
	return nil, internalErr(fmt.Errorf("unknown unary operator %q", ex.Op))
}

func (i *Interpreter) binary(ex *ast.Binary, env *runtime.Environment) (runtime.Value, error) {
	left, err := i.eval(ex.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := i.eval(ex.Right, env)
	if err != nil {
		return nil, err
	}

	switch ex.Op {
	case "==":
		return runtime.Bool(runtime.Equal(left, right)), nil
	case "!=":
		return runtime.Bool(!runtime.Equal(left, right)), nil
	case "+":
		switch l := left.(type) {
		case runtime.Number:
			if r, ok := right.(runtime.Number); ok {
				return l + r, nil
			}
		case runtime.String:
			if r, ok := right.(runtime.String); ok {
				return l + r, nil
			}
		}
		return nil, runtimeErr(ex.Pos, "Operands must be two numbers or two strings.")
	}

	l, lok := left.(runtime.Number)
	r, rok := right.(runtime.Number)
	if !lok || !rok {
		return nil, runtimeErr(ex.Pos, "Operands must be numbers.")
	}
	switch ex.Op {
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return nil, runtimeErr(ex.Pos, "Division by zero.")
		}
		return l / r, nil
	case ">":
		return runtime.Bool(l > r), nil
	case ">=":
		return runtime.Bool(l >= r), nil
	case "<":
		return runtime.Bool(l < r), nil
	case "<=":
		return runtime.Bool(l <= r), nil
	}
	return nil, internalErr(fmt.Errorf("unknown binary operator %q", ex.Op))
}

func (i *Interpreter) super(ex *ast.Super, env *runtime.Environment) (runtime.Value, error) {
	d, ok := i.bindings[ex]
	if !ok {
		return nil, internalErr(fmt.Errorf("super at line %d was not resolved", ex.Pos.Line))
	}
	sv, err := env.GetAt(d, "super")
	if err != nil {
		return nil, internalErr(err)
	}
	// this lives one scope inside the scope that defines super.
	tv, err := env.GetAt(d-1, "this")
	if err != nil {
		return nil, internalErr(err)
	}
	superclass, ok := sv.(*runtime.Class)
	if !ok {
		return nil, internalErr(fmt.Errorf("super is a %s", sv.Kind()))
	}
	inst, ok := tv.(*runtime.Instance)
	if !ok {
		return nil, internalErr(fmt.Errorf("this is a %s", tv.Kind()))
	}
	m := superclass.FindMethod(ex.Method)
	if m == nil {
		return nil, runtimeErr(ex.Pos, "Undefined property '%s'.", ex.Method)
	}
	return m.Bind(inst), nil
}

// --- calls ---

func (i *Interpreter) call(ex *ast.Call, env *runtime.Environment) (runtime.Value, error) {
	callee, err := i.eval(ex.Callee, env)
	if err != nil {
		return nil, err
	}
	args := make([]runtime.Value, 0, len(ex.Args))
	for _, a := range ex.Args {
		v, err := i.eval(a, env)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	fn, ok := callee.(runtime.Callable)
	if !ok {
		return nil, runtimeErr(ex.Pos, "Can only call functions and classes.")
	}
	if fn.Arity() != len(args) {
		return nil, runtimeErr(ex.Pos, "Expected %d arguments but got %d.", fn.Arity(), len(args))
	}

	switch c := fn.(type) {
	case *runtime.NativeFunction:
		v, err := c.Fn(args)
		if err != nil {
			return nil, runtimeErr(ex.Pos, "%s", err.Error())
		}
		if v == nil {
			v = runtime.Nil{}
		}
		return v, nil
	case *runtime.Function:
		return i.callFunction(c, args, nil, ex.Pos)
	case *runtime.BoundMethod:
		return i.callFunction(c.Method, args, c.Receiver, ex.Pos)
	case *runtime.Class:
		inst := runtime.NewInstance(c)
		if init := c.FindMethod("init"); init != nil {
			if _, err := i.callFunction(init, args, inst, ex.Pos); err != nil {
				return nil, err
			}
		}
		return inst, nil
	}
	return nil, internalErr(fmt.Errorf("unknown callable %T", fn))
}

// callFunction runs fn's body in a fresh scope enclosed by its closure.
// When this is set, an extra scope binding this sits between the two.
func (i *Interpreter) callFunction(fn *runtime.Function, args []runtime.Value, this *runtime.Instance, pos token.Position) (runtime.Value, error) {
	if i.depth >= i.maxDepth {
		return nil, runtimeErr(pos, "Stack overflow.")
	}
	i.depth++
	defer func() { i.depth-- }()

	env := fn.Closure
	if this != nil {
		env = runtime.NewEnvironment(env)
		env.Define("this", this)
	}
	env = runtime.NewEnvironment(env)
	for n, p := range fn.Decl.Params {
		env.Define(p.Name, args[n])
	}

	err := i.execBlock(fn.Decl.Body, env)
	var ret *returnSignal
	switch {
	case err == nil:
	case errors.As(err, &ret):
		if !fn.IsInit {
			return ret.value, nil
		}
	default:
		return nil, err
	}
	if fn.IsInit && this != nil {
		return this, nil
	}
	return runtime.Nil{}, nil
}
