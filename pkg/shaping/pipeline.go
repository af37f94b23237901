package shaping

import (
	"fmt"

	"github.com/thomasrohde/dscript/pkg/value"
)

// Executor runs a script against the coerced initial environment and
// returns the resulting snapshot.
type Executor func(initial value.Map) (value.Map, error)

// Result is the outcome of a shaped run. OK is true iff Errors is empty.
type Result struct {
	OK       bool
	Inputs   value.Map
	Outputs  value.Map
	Errors   []FieldError
	Executed bool
}

// Run pushes raw host inputs through the named shape: input coercion and
// validation, execution, then output extraction. Errors are returned as data
// in the Result; the error return is reserved for an unknown shape.
func (r *Registry) Run(name string, raw map[string]any, exec Executor) (Result, error) {
	s, ok := r.Get(name)
	if !ok {
		return Result{}, fmt.Errorf("shape %q is not registered", name)
	}
	return s.Run(raw, exec), nil
}

// Run executes the three-phase pipeline for s.
func (s *Shape) Run(raw map[string]any, exec Executor) Result {
	var res Result

	inputs, errs := s.CoerceInputs(raw)
	if len(errs) > 0 {
		res.Errors = errs
		return res
	}
	res.Inputs = inputs

	snap, err := exec(inputs.DeepCopy())
	res.Executed = true
	if err != nil {
		res.Errors = []FieldError{{Path: RuntimePath, Message: err.Error()}}
		return res
	}

	res.Outputs, res.Errors = s.ExtractOutputs(snap)
	res.OK = len(res.Errors) == 0
	return res
}

// CoerceInputs converts raw host values to the declared input types. Keys
// not declared by the shape are dropped.
func (s *Shape) CoerceInputs(raw map[string]any) (value.Map, []FieldError) {
	out := value.NewMap()
	var errs []FieldError
	for i := range s.Inputs {
		f := &s.Inputs[i]
		rv, present := raw[f.Name]
		if !present || rv == nil {
			errs = appendMissing(&out, f, errs)
			continue
		}
		v, err := value.FromNative(rv)
		if err != nil {
			errs = append(errs, FieldError{Path: f.Name, Message: err.Error()})
			continue
		}
		cv, ferrs := f.Check(f.Name, v)
		if len(ferrs) > 0 {
			errs = append(errs, ferrs...)
			continue
		}
		out.Set(f.Name, cv)
	}
	return out, errs
}

// ExtractOutputs validates the declared outputs found in snap and returns
// only those.
func (s *Shape) ExtractOutputs(snap value.Map) (value.Map, []FieldError) {
	out := value.NewMap()
	var errs []FieldError
	for i := range s.Outputs {
		f := &s.Outputs[i]
		v, present := snap.Get(f.Name)
		if _, isNull := v.(value.Null); !present || isNull {
			errs = appendMissing(&out, f, errs)
			continue
		}
		cv, ferrs := f.Check(f.Name, v)
		if len(ferrs) > 0 {
			errs = append(errs, ferrs...)
			continue
		}
		out.Set(f.Name, cv)
	}
	return out, errs
}

func appendMissing(out *value.Map, f *FieldSpec, errs []FieldError) []FieldError {
	if d := f.DefaultValue(); d != nil {
		out.Set(f.Name, d)
		return errs
	}
	if f.Required {
		return append(errs, FieldError{Path: f.Name, Message: "required field is missing"})
	}
	return errs
}
