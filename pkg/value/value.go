// Package value implements the dscript runtime value model.
package value

import (
	"math"

	"github.com/thomasrohde/dscript/pkg/diagnostics"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindBool
	KindString
	KindBytes
	KindArray
	KindMatrix
	KindMap
	KindFuncRef
	KindClass
	KindInstance
)

var kindNames = [...]string{
	KindNull:     "null",
	KindNumber:   "number",
	KindBool:     "bool",
	KindString:   "string",
	KindBytes:    "bytes",
	KindArray:    "array",
	KindMatrix:   "matrix",
	KindMap:      "map",
	KindFuncRef:  "function",
	KindClass:    "class",
	KindInstance: "instance",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is the interface for all dscript runtime values.
// The sealed marker method restricts implementations to this package.
type Value interface {
	Kind() Kind
	value() // sealed marker
}

// Null represents the null value.
type Null struct{}

func (Null) Kind() Kind { return KindNull }
func (Null) value()     {}

// Number is an IEEE double.
type Number struct {
	Value float64
}

func (Number) Kind() Kind { return KindNumber }
func (Number) value()     {}

// Bool represents a boolean value.
type Bool struct {
	Value bool
}

func (Bool) Kind() Kind { return KindBool }
func (Bool) value()     {}

// String represents a string value.
type String struct {
	Value string
}

func (String) Kind() Kind { return KindString }
func (String) value()     {}

// Bytes owns its buffer. It is copied on construction and on read so no
// caller can alias it.
type Bytes struct {
	data []byte
}

func (Bytes) Kind() Kind { return KindBytes }
func (Bytes) value()     {}

// Data returns a copy of the bytes.
func (b Bytes) Data() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// Len returns the number of bytes.
func (b Bytes) Len() int { return len(b.data) }

// At returns the byte at index i.
func (b Bytes) At(i int) byte { return b.data[i] }

// Array is an ordered sequence of values.
type Array struct {
	Items []Value
}

func (Array) Kind() Kind { return KindArray }
func (Array) value()     {}

// Matrix is a rectangular sequence of rows.
type Matrix struct {
	Rows [][]Value
}

func (Matrix) Kind() Kind { return KindMatrix }
func (Matrix) value()     {}

// Cols returns the column count (0 for an empty matrix).
func (m Matrix) Cols() int {
	if len(m.Rows) == 0 {
		return 0
	}
	return len(m.Rows[0])
}

// FuncRef names a user function or builtin.
type FuncRef struct {
	Name string
}

func (FuncRef) Kind() Kind { return KindFuncRef }
func (FuncRef) value()     {}

// Class describes a declared class. The method bodies live in the
// interpreter's class table; the value carries the ordered method names.
type Class struct {
	Name    string
	Methods []string
}

func (Class) Kind() Kind { return KindClass }
func (Class) value()     {}

// Instance is a handle to class-instance state. The state itself is a Map
// held by the interpreter under Key().
type Instance struct {
	ClassName string
	UUID      string
}

func (Instance) Kind() Kind { return KindInstance }
func (Instance) value()     {}

// Key returns the instance-table key `ClassName.uuid`.
func (i Instance) Key() string {
	return i.ClassName + "." + i.UUID
}

// NewNull creates a null value.
func NewNull() Value {
	return Null{}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return Bool{Value: b}
}

// NewNumber creates a numeric value.
func NewNumber(n float64) Value {
	return Number{Value: n}
}

// NewString creates a string value.
func NewString(s string) Value {
	return String{Value: s}
}

// NewBytes creates a bytes value from a copy of b.
func NewBytes(b []byte) Value {
	data := make([]byte, len(b))
	copy(data, b)
	return Bytes{data: data}
}

// NewArray creates an array value.
func NewArray(items []Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Array{Items: items}
}

// NewMatrix creates a matrix value, failing unless every row has the same
// length.
func NewMatrix(rows [][]Value) (Value, error) {
	for i, r := range rows {
		if len(r) != len(rows[0]) {
			return nil, diagnostics.Errorf(diagnostics.EType, "",
				"matrix is not rectangular: row %d has %d columns, expected %d", i, len(r), len(rows[0]))
		}
	}
	if rows == nil {
		rows = [][]Value{}
	}
	return Matrix{Rows: rows}, nil
}

// NewFuncRef creates a function reference.
func NewFuncRef(name string) Value {
	return FuncRef{Name: name}
}

// NewInstance creates an instance handle.
func NewInstance(className, uuid string) Value {
	return Instance{ClassName: className, UUID: uuid}
}

// --- typed accessors ---

func mismatch(want string, got Value) error {
	return diagnostics.Errorf(diagnostics.EType, "", "expected %s, got %s", want, TypeName(got))
}

// AsNumber returns the float64 held by v.
func AsNumber(v Value) (float64, error) {
	if n, ok := v.(Number); ok {
		return n.Value, nil
	}
	return 0, mismatch("number", v)
}

// AsInt returns v as an int, failing for non-integral numbers.
func AsInt(v Value) (int, error) {
	n, err := AsNumber(v)
	if err != nil {
		return 0, err
	}
	if !IsInteger(n) {
		return 0, diagnostics.Errorf(diagnostics.EType, "", "expected integer, got %s", FormatNumber(n))
	}
	if n < math.MinInt || n >= -float64(math.MinInt) {
		return 0, diagnostics.Errorf(diagnostics.EType, "", "integer %s out of range", FormatNumber(n))
	}
	return int(n), nil
}

// IsInteger reports whether n is finite and has no fractional part.
func IsInteger(n float64) bool {
	return !math.IsInf(n, 0) && math.Trunc(n) == n
}

// AsBool returns the bool held by v.
func AsBool(v Value) (bool, error) {
	if b, ok := v.(Bool); ok {
		return b.Value, nil
	}
	return false, mismatch("bool", v)
}

// AsString returns the text of a String or FuncRef.
func AsString(v Value) (string, error) {
	switch s := v.(type) {
	case String:
		return s.Value, nil
	case FuncRef:
		return s.Name, nil
	}
	return "", mismatch("string", v)
}

// AsBytes returns a copy of the bytes held by v.
func AsBytes(v Value) ([]byte, error) {
	if b, ok := v.(Bytes); ok {
		return b.Data(), nil
	}
	return nil, mismatch("bytes", v)
}

// AsArray returns the items of an Array.
func AsArray(v Value) ([]Value, error) {
	if a, ok := v.(Array); ok {
		return a.Items, nil
	}
	return nil, mismatch("array", v)
}

// AsMatrix returns v as a Matrix.
func AsMatrix(v Value) (Matrix, error) {
	if m, ok := v.(Matrix); ok {
		return m, nil
	}
	return Matrix{}, mismatch("matrix", v)
}

// AsMap returns v as a Map.
func AsMap(v Value) (Map, error) {
	if m, ok := v.(Map); ok {
		return m, nil
	}
	return Map{}, mismatch("map", v)
}

// AsInstance returns v as an Instance handle.
func AsInstance(v Value) (Instance, error) {
	if i, ok := v.(Instance); ok {
		return i, nil
	}
	return Instance{}, mismatch("instance", v)
}

// TypeName returns the script-visible type name of v.
func TypeName(v Value) string {
	if v == nil {
		return "null"
	}
	return v.Kind().String()
}

// Truthy returns the boolean interpretation of v. Null, false, 0 and empty
// strings, bytes and collections are falsy.
func Truthy(v Value) bool {
	switch val := v.(type) {
	case nil, Null:
		return false
	case Bool:
		return val.Value
	case Number:
		return val.Value != 0
	case String:
		return val.Value != ""
	case FuncRef:
		return val.Name != ""
	case Bytes:
		return len(val.data) > 0
	case Array:
		return len(val.Items) > 0
	case Matrix:
		return len(val.Rows) > 0
	case Map:
		return val.Len() > 0
	default:
		return true
	}
}

// Equal reports whether a and b are equal. Strings and function references
// compare by text and are equal to each other.
func Equal(a, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}
	if at, ok := textOf(a); ok {
		bt, ok := textOf(b)
		return ok && at == bt
	}
	switch av := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Number:
		bv, ok := b.(Number)
		return ok && av.Value == bv.Value
	case Bool:
		bv, ok := b.(Bool)
		return ok && av.Value == bv.Value
	case Bytes:
		bv, ok := b.(Bytes)
		return ok && string(av.data) == string(bv.data)
	case Array:
		bv, ok := b.(Array)
		return ok && equalSlices(av.Items, bv.Items)
	case Matrix:
		bv, ok := b.(Matrix)
		if !ok || len(av.Rows) != len(bv.Rows) {
			return false
		}
		for i := range av.Rows {
			if !equalSlices(av.Rows[i], bv.Rows[i]) {
				return false
			}
		}
		return true
	case Map:
		bv, ok := b.(Map)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, kv := range av.pairs {
			other, ok := bv.Get(kv.Key)
			if !ok || !Equal(kv.Value, other) {
				return false
			}
		}
		return true
	case Class:
		bv, ok := b.(Class)
		return ok && av.Name == bv.Name
	case Instance:
		bv, ok := b.(Instance)
		return ok && av == bv
	}
	return false
}

func textOf(v Value) (string, bool) {
	switch t := v.(type) {
	case String:
		return t.Value, true
	case FuncRef:
		return t.Name, true
	}
	return "", false
}

func equalSlices(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// DeepCopy returns a copy of v that shares no mutable storage with it.
func DeepCopy(v Value) Value {
	switch val := v.(type) {
	case nil:
		return Null{}
	case Bytes:
		return NewBytes(val.data)
	case Array:
		return Array{Items: copySlice(val.Items)}
	case Matrix:
		rows := make([][]Value, len(val.Rows))
		for i, r := range val.Rows {
			rows[i] = copySlice(r)
		}
		return Matrix{Rows: rows}
	case Map:
		return val.DeepCopy()
	case Class:
		return Class{Name: val.Name, Methods: append([]string(nil), val.Methods...)}
	default:
		// Null, Number, Bool, String, FuncRef and Instance are immutable.
		return v
	}
}

func copySlice(items []Value) []Value {
	out := make([]Value, len(items))
	for i, it := range items {
		out[i] = DeepCopy(it)
	}
	return out
}
