// Package shaping implements declarative input/output shapes: coercion of
// raw host values into script values, and validation of fields, function
// arguments and script outputs.
package shaping

import (
	"fmt"
	"regexp"

	"github.com/thomasrohde/dscript/pkg/value"
)

// Type is the declared type of a field.
type Type string

const (
	TypeAny    Type = "ANY"
	TypeNumber Type = "NUMBER"
	TypeBool   Type = "BOOL"
	TypeString Type = "STRING"
	TypeBytes  Type = "BYTES"
	TypeArray  Type = "ARRAY"
	TypeMatrix Type = "MATRIX"
	TypeMap    Type = "MAP"
)

func (t Type) valid() bool {
	switch t {
	case TypeAny, TypeNumber, TypeBool, TypeString, TypeBytes, TypeArray, TypeMatrix, TypeMap:
		return true
	}
	return false
}

// FieldSpec declares one field of a Shape. Bounds left nil are unchecked.
//
// Min/Max/Integer apply to NUMBER fields. MinLen/MaxLen/Pattern apply to
// STRING (runes) and BYTES (bytes). Elem* apply to ARRAY items, MATRIX cells
// and MAP values. MinItems/MaxItems bound ARRAY and MAP sizes; MinRows,
// MaxRows, MinCols and MaxCols bound MATRIX dimensions.
type FieldSpec struct {
	Name     string `yaml:"name"`
	Type     Type   `yaml:"type"`
	Required bool   `yaml:"required"`
	Default  any    `yaml:"default"`

	Min     *float64 `yaml:"min"`
	Max     *float64 `yaml:"max"`
	Integer bool     `yaml:"integer"`

	MinLen  *int   `yaml:"minLen"`
	MaxLen  *int   `yaml:"maxLen"`
	Pattern string `yaml:"pattern"`

	Elem        Type     `yaml:"elem"`
	ElemMin     *float64 `yaml:"elemMin"`
	ElemMax     *float64 `yaml:"elemMax"`
	ElemInteger bool     `yaml:"elemInteger"`

	MinItems *int `yaml:"minItems"`
	MaxItems *int `yaml:"maxItems"`
	MinRows  *int `yaml:"minRows"`
	MaxRows  *int `yaml:"maxRows"`
	MinCols  *int `yaml:"minCols"`
	MaxCols  *int `yaml:"maxCols"`

	re  *regexp.Regexp
	def value.Value
}

// Shape is a named set of ordered input and output field declarations.
// Shapes are immutable once registered.
type Shape struct {
	Name    string      `yaml:"name"`
	Inputs  []FieldSpec `yaml:"inputs"`
	Outputs []FieldSpec `yaml:"outputs"`
}

// FieldError is a validation failure scoped to a field path such as
// "amount", "items[2]" or "$runtime".
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return e.Path + ": " + e.Message
}

// RuntimePath scopes the single error produced by a failed execution phase.
const RuntimePath = "$runtime"

// compile checks a field declaration and prepares its regex and default.
func (f *FieldSpec) compile() error {
	if f.Name == "" {
		return fmt.Errorf("field has no name")
	}
	if f.Type == "" {
		f.Type = TypeAny
	}
	if !f.Type.valid() {
		return fmt.Errorf("field %q: unknown type %q", f.Name, f.Type)
	}
	if f.Elem != "" && !f.Elem.valid() {
		return fmt.Errorf("field %q: unknown element type %q", f.Name, f.Elem)
	}
	if f.Pattern != "" {
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			return fmt.Errorf("field %q: bad pattern: %w", f.Name, err)
		}
		f.re = re
	}
	if f.Default != nil {
		raw, err := value.FromNative(f.Default)
		if err != nil {
			return fmt.Errorf("field %q: default: %w", f.Name, err)
		}
		def, errs := f.Check(f.Name, raw)
		if len(errs) > 0 {
			return fmt.Errorf("field %q: default is invalid: %s", f.Name, errs[0].Message)
		}
		f.def = def
	}
	return nil
}

// DefaultValue returns the coerced default, or nil when there is none.
func (f *FieldSpec) DefaultValue() value.Value {
	if f.def == nil {
		return nil
	}
	return value.DeepCopy(f.def)
}

func (s *Shape) compile() error {
	if s.Name == "" {
		return fmt.Errorf("shape has no name")
	}
	for _, fields := range [][]FieldSpec{s.Inputs, s.Outputs} {
		seen := make(map[string]bool, len(fields))
		for i := range fields {
			if err := fields[i].compile(); err != nil {
				return fmt.Errorf("shape %q: %w", s.Name, err)
			}
			if seen[fields[i].Name] {
				return fmt.Errorf("shape %q: duplicate field %q", s.Name, fields[i].Name)
			}
			seen[fields[i].Name] = true
		}
	}
	return nil
}

func (s Shape) clone() Shape {
	return Shape{
		Name:    s.Name,
		Inputs:  append([]FieldSpec(nil), s.Inputs...),
		Outputs: append([]FieldSpec(nil), s.Outputs...),
	}
}
