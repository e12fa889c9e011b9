package interpreter

import (
	"fmt"

	"github.com/rubiojr/lox/ast"
	"github.com/rubiojr/lox/runtime"
)

// exec runs one statement. A nil error means normal completion; a
// *returnSignal means a return is unwinding to the nearest call; any other
// error aborts the enclosing top-level statement.
func (i *Interpreter) exec(s ast.Statement, env *runtime.Environment) error {
	switch st := s.(type) {
	case *ast.ExprStmt:
		v, err := i.eval(st.Expression, env)
		if err != nil {
			return err
		}
		i.last = v
		return nil

	case *ast.PrintStmt:
		v, err := i.eval(st.Value, env)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(i.out, runtime.Format(v)); err != nil {
			return fmt.Errorf("%w: %v", ErrOutput, err)
		}
		return nil

	case *ast.VarStmt:
		var v runtime.Value = runtime.Nil{}
		if st.Initializer != nil {
			var err error
			if v, err = i.eval(st.Initializer, env); err != nil {
				return err
			}
		}
		i.define(env, st.Name, v)
		return nil

	case *ast.BlockStmt:
		return i.execBlock(st.Body, runtime.NewEnvironment(env))

	case *ast.IfStmt:
		cond, err := i.eval(st.Condition, env)
		if err != nil {
			return err
		}
		if runtime.Truthy(cond) {
			return i.exec(st.Then, env)
		}
		if st.Else != nil {
			return i.exec(st.Else, env)
		}
		return nil

	case *ast.WhileStmt:
		for {
			cond, err := i.eval(st.Condition, env)
			if err != nil {
				return err
			}
			if !runtime.Truthy(cond) {
				return nil
			}
			if err := i.exec(st.Body, env); err != nil {
				return err
			}
		}

	case *ast.FuncDef:
		i.define(env, st.Name, &runtime.Function{Decl: &st.Function, Closure: env})
		return nil

	case *ast.ClassDef:
		return i.classDef(st, env)

	case *ast.ReturnStmt:
		var v runtime.Value = runtime.Nil{}
		if st.Value != nil {
			var err error
			if v, err = i.eval(st.Value, env); err != nil {
				return err
			}
		}
		return &returnSignal{value: v}
	}
	return internalErr(fmt.Errorf("unknown statement %T", s))
}

// execBlock runs stmts in env and stops at the first statement that does
// not complete normally, propagating its error unchanged.
func (i *Interpreter) execBlock(stmts []ast.Statement, env *runtime.Environment) error {
	for _, s := range stmts {
		if err := i.exec(s, env); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) classDef(st *ast.ClassDef, env *runtime.Environment) error {
	var super *runtime.Class
	if st.Superclass != nil {
		v, err := i.lookup(st.Superclass, st.Superclass.Name, env)
		if err != nil {
			return err
		}
		c, ok := v.(*runtime.Class)
		if !ok {
			return runtimeErr(st.Superclass.Pos, "Superclass must be a class.")
		}
		super = c
	}

	env.Define(st.Name, runtime.Nil{})

	// Methods close over an extra scope holding super when there is one.
	menv := env
	if super != nil {
		menv = runtime.NewEnvironment(env)
		menv.Define("super", super)
	}

	cls := &runtime.Class{
		Name:       st.Name,
		Superclass: super,
		Methods:    make(map[string]*runtime.Function, len(st.Methods)),
	}
	for _, m := range st.Methods {
		cls.Methods[m.Name] = &runtime.Function{
			Decl:    &m.Function,
			Closure: menv,
			IsInit:  m.Name == "init",
		}
	}
	for k := super; k != nil; k = k.Superclass {
		if k == cls {
			return internalErr(fmt.Errorf("class %s inherits from itself", cls.Name))
		}
	}
	env.Define(st.Name, cls)
	if env == i.globals {
		i.resolver.DefineClass(st)
	}
	return nil
}

// define binds name in env. Global bindings that replace a class are
// reported to the resolver so later runs stop treating the name as one.
func (i *Interpreter) define(env *runtime.Environment, name string, v runtime.Value) {
	env.Define(name, v)
	if env == i.globals {
		i.resolver.DefineGlobal(name)
	}
}
