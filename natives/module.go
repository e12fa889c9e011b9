// Package natives is the registry of host-provided functions. Modules
// register themselves from init(); the interpreter defines every registered
// function as a global when a session starts.
package natives

import (
	"fmt"
	"sort"

	"github.com/rubiojr/lox/runtime"
)

// ArgType represents the expected type of a function argument.
type ArgType int

const (
	Any ArgType = iota
	String
	Number
)

func (t ArgType) String() string {
	switch t {
	case String:
		return "string"
	case Number:
		return "number"
	default:
		return "value"
	}
}

// FuncDef describes a function exposed by a module.
type FuncDef struct {
	// Name is the global the function is bound to (e.g. "clock").
	Name string
	// Args lists the expected argument types. The wrapper checks them
	// before calling Fn, so Fn may use unchecked type assertions.
	Args []ArgType
	Doc  string
	Fn   func(args []runtime.Value) (runtime.Value, error)
}

// Module groups related native functions.
type Module struct {
	Name  string
	Doc   string
	Funcs []FuncDef
}

var registry = make(map[string]*Module)

// Register adds a module to the global registry.
func Register(m *Module) {
	registry[m.Name] = m
}

// Get returns a registered module by name.
func Get(name string) (*Module, bool) {
	m, ok := registry[name]
	return m, ok
}

// Names returns sorted names of all registered modules.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Natives wraps every function of m as a runtime value with argument
// checking.
func (m *Module) Natives() []*runtime.NativeFunction {
	out := make([]*runtime.NativeFunction, 0, len(m.Funcs))
	for _, f := range m.Funcs {
		out = append(out, wrap(f))
	}
	return out
}

// All returns the functions of every registered module, ordered by module
// name and then declaration order.
func All() []*runtime.NativeFunction {
	var out []*runtime.NativeFunction
	for _, name := range Names() {
		out = append(out, registry[name].Natives()...)
	}
	return out
}

func wrap(f FuncDef) *runtime.NativeFunction {
	return &runtime.NativeFunction{
		Name:   f.Name,
		Params: len(f.Args),
		Fn: func(args []runtime.Value) (runtime.Value, error) {
			for i, t := range f.Args {
				if !accepts(t, args[i]) {
					return nil, fmt.Errorf("%s: argument %d must be a %s.", f.Name, i+1, t)
				}
			}
			return f.Fn(args)
		},
	}
}

func accepts(t ArgType, v runtime.Value) bool {
	switch t {
	case String:
		_, ok := v.(runtime.String)
		return ok
	case Number:
		_, ok := v.(runtime.Number)
		return ok
	default:
		return true
	}
}
