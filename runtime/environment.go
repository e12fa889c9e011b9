package runtime

import (
	"errors"
	"fmt"
)

// ErrUnresolved marks a lookup at a resolved distance that found no
// binding. It indicates a resolver/evaluator mismatch, not a user error.
var ErrUnresolved = errors.New("unresolved binding")

// UndefinedError reports a name missing from the whole scope chain.
type UndefinedError struct {
	Name string
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("Undefined variable '%s'.", e.Name)
}

// Environment provides lexical scoping for Lox runtime values.
type Environment struct {
	values map[string]Value
	parent *Environment
}

// NewEnvironment creates a new environment, optionally nested under a parent.
func NewEnvironment(parent *Environment) *Environment {
	return &Environment{
		values: make(map[string]Value),
		parent: parent,
	}
}

// Define inserts or shadows a binding in the current scope.
func (e *Environment) Define(name string, value Value) {
	e.values[name] = value
}

// Get retrieves a binding, searching outward through the scope chain.
func (e *Environment) Get(name string) (Value, error) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.values[name]; ok {
			return v, nil
		}
	}
	return nil, &UndefinedError{Name: name}
}

// Assign updates an existing binding in the first scope where it appears.
func (e *Environment) Assign(name string, value Value) error {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.values[name]; ok {
			env.values[name] = value
			return nil
		}
	}
	return &UndefinedError{Name: name}
}

// Ancestor returns the environment distance hops up the chain.
func (e *Environment) Ancestor(distance int) *Environment {
	env := e
	for i := 0; i < distance && env != nil; i++ {
		env = env.parent
	}
	return env
}

// GetAt reads name from the scope exactly distance hops away.
func (e *Environment) GetAt(distance int, name string) (Value, error) {
	if env := e.Ancestor(distance); env != nil {
		if v, ok := env.values[name]; ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("%w: %q at distance %d", ErrUnresolved, name, distance)
}

// AssignAt writes name in the scope exactly distance hops away.
func (e *Environment) AssignAt(distance int, name string, value Value) error {
	if env := e.Ancestor(distance); env != nil {
		if _, ok := env.values[name]; ok {
			env.values[name] = value
			return nil
		}
	}
	return fmt.Errorf("%w: %q at distance %d", ErrUnresolved, name, distance)
}
