package evaluator

import (
	"github.com/thomasrohde/dscript/pkg/diagnostics"
	"github.com/thomasrohde/dscript/pkg/value"
)

// Env is a scope frame for variable bindings.
// It supports parent-chained lookup for lexical scoping and remembers the
// order in which names were defined.
type Env struct {
	names    []string
	bindings map[string]value.Value
	parent   *Env
}

// NewEnv creates a new environment with an optional parent scope.
func NewEnv(parent *Env) *Env {
	return &Env{
		bindings: make(map[string]value.Value),
		parent:   parent,
	}
}

// Child creates a new child scope whose parent is this environment.
func (e *Env) Child() *Env {
	return NewEnv(e)
}

// Parent returns the enclosing scope, or nil for the root.
func (e *Env) Parent() *Env {
	return e.parent
}

// Root returns the outermost scope.
func (e *Env) Root() *Env {
	for e.parent != nil {
		e = e.parent
	}
	return e
}

// Define binds name in this scope. It fails if name is already bound here.
func (e *Env) Define(name string, val value.Value) error {
	if _, ok := e.bindings[name]; ok {
		return diagnostics.Errorf(diagnostics.ERedeclared, name, "variable '%s' is already declared in this scope", name)
	}
	e.set(name, val)
	return nil
}

// Assign updates the nearest scope that binds name.
func (e *Env) Assign(name string, val value.Value) error {
	for s := e; s != nil; s = s.parent {
		if _, ok := s.bindings[name]; ok {
			s.bindings[name] = val
			return nil
		}
	}
	return diagnostics.Errorf(diagnostics.EUndefinedVar, name, "undefined variable '%s'", name)
}

// Get looks up a variable by name, traversing parent scopes.
func (e *Env) Get(name string) (value.Value, bool) {
	for s := e; s != nil; s = s.parent {
		if val, ok := s.bindings[name]; ok {
			return val, true
		}
	}
	return nil, false
}

// Has checks whether a variable is defined in this scope or any parent.
func (e *Env) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// HasLocal checks whether name is bound in this scope only.
func (e *Env) HasLocal(name string) bool {
	_, ok := e.bindings[name]
	return ok
}

// Snapshot returns a deep copy of this scope's bindings in definition order.
func (e *Env) Snapshot() value.Map {
	m := value.NewMap()
	for _, n := range e.names {
		m.Set(n, value.DeepCopy(e.bindings[n]))
	}
	return m
}

// set defines or overwrites name in this scope.
func (e *Env) set(name string, val value.Value) {
	if _, ok := e.bindings[name]; !ok {
		e.names = append(e.names, name)
	}
	e.bindings[name] = val
}
