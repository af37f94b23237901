package shaping

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/thomasrohde/dscript/pkg/value"
)

// Registry holds named Shapes. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	shapes map[string]*Shape
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{shapes: make(map[string]*Shape)}
}

// Register compiles and stores a copy of s. Registering a name twice fails.
func (r *Registry) Register(s Shape) error {
	cp := s.clone()
	if err := cp.compile(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.shapes[cp.Name]; dup {
		return fmt.Errorf("shape %q is already registered", cp.Name)
	}
	r.shapes[cp.Name] = &cp
	return nil
}

// Get returns the shape registered under name.
func (r *Registry) Get(name string) (*Shape, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.shapes[name]
	return s, ok
}

// Has reports whether a shape is registered under name.
func (r *Registry) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns registered shape names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.shapes))
	for n := range r.shapes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type shapeFile struct {
	Shapes []Shape `yaml:"shapes"`
}

// LoadYAML registers every shape declared in a document of the form
//
//	shapes:
//	  - name: transfer
//	    inputs:
//	      - {name: amount, type: NUMBER, required: true, min: 0}
//	    outputs:
//	      - {name: fee, type: NUMBER}
//
// It returns the names registered, in document order. Registration stops at
// the first invalid or duplicate shape.
func (r *Registry) LoadYAML(in io.Reader) ([]string, error) {
	var doc shapeFile
	dec := yaml.NewDecoder(in)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode shapes: %w", err)
	}
	names := make([]string, 0, len(doc.Shapes))
	for _, s := range doc.Shapes {
		if err := r.Register(s); err != nil {
			return names, err
		}
		names = append(names, s.Name)
	}
	return names, nil
}

// ValidateValue checks v against the first input field of the named shape,
// returning the coerced value. found is false when no such shape exists.
func (r *Registry) ValidateValue(shapeName string, v value.Value) (out value.Value, errs []FieldError, found bool) {
	s, ok := r.Get(shapeName)
	if !ok {
		return nil, nil, false
	}
	if len(s.Inputs) == 0 {
		return v, nil, true
	}
	f := &s.Inputs[0]
	if _, isNull := v.(value.Null); v == nil || isNull {
		if d := f.DefaultValue(); d != nil {
			return d, nil, true
		}
		if f.Required {
			return nil, []FieldError{{Path: f.Name, Message: "required field is missing"}}, true
		}
		return v, nil, true
	}
	out, errs = f.Check(f.Name, v)
	return out, errs, true
}
