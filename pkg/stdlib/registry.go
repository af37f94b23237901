// Package stdlib provides the dscript builtin function registry and packs.
package stdlib

import (
	"sort"

	"github.com/thomasrohde/dscript/pkg/diagnostics"
	"github.com/thomasrohde/dscript/pkg/evaluator"
	"github.com/thomasrohde/dscript/pkg/value"
)

// Variadic marks a function that checks its own argument count.
const Variadic = -1

// Fn represents a builtin function. Arity is the exact argument count, or
// Variadic.
type Fn struct {
	Name    string
	Arity   int
	Execute func(args []value.Value) (value.Value, error)
}

// Registry holds registered builtin functions.
type Registry struct {
	fns map[string]*Fn
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fns: make(map[string]*Fn),
	}
}

// Register adds a function, replacing any previous one of the same name.
func (r *Registry) Register(fn Fn) {
	r.fns[fn.Name] = &fn
}

// Get retrieves a function by name.
func (r *Registry) Get(name string) *Fn {
	return r.fns[name]
}

// All returns all registered functions.
func (r *Registry) All() map[string]*Fn {
	return r.fns
}

// Names returns registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fns))
	for n := range r.fns {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Builtins adapts the registry to the interpreter's builtin table, adding
// arity checks.
func (r *Registry) Builtins() map[string]evaluator.BuiltinFunc {
	out := make(map[string]evaluator.BuiltinFunc, len(r.fns))
	for name, fn := range r.fns {
		fn := fn
		out[name] = func(args []value.Value) (value.Value, error) {
			if fn.Arity != Variadic && len(args) != fn.Arity {
				return nil, diagnostics.Errorf(diagnostics.EArity, fn.Name,
					"%s expects %d arguments, got %d", fn.Name, fn.Arity, len(args))
			}
			return fn.Execute(args)
		}
	}
	return out
}

// RegisterDefaults installs every builtin pack.
func RegisterDefaults(r *Registry) {
	RegisterCore(r)
	RegisterMath(r)
	RegisterBytes(r)
	RegisterHash(r)
}
