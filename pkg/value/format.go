package value

import (
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/thomasrohde/dscript/pkg/diagnostics"
)

// FormatNumber formats a float64 as an integer string if it's a whole number.
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == math.Trunc(n) && math.Abs(n) < 1e21:
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// Format renders v for display. Top-level strings are unquoted; strings
// nested in collections are quoted.
func Format(v Value) string {
	if s, ok := v.(String); ok {
		return s.Value
	}
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v Value) {
	switch val := v.(type) {
	case nil, Null:
		b.WriteString("null")
	case Number:
		b.WriteString(FormatNumber(val.Value))
	case Bool:
		b.WriteString(strconv.FormatBool(val.Value))
	case String:
		b.WriteString(strconv.Quote(val.Value))
	case Bytes:
		b.WriteString("0x")
		b.WriteString(hex.EncodeToString(val.data))
	case Array:
		writeList(b, val.Items)
	case Matrix:
		b.WriteByte('[')
		for i, r := range val.Rows {
			if i > 0 {
				b.WriteString(", ")
			}
			writeList(b, r)
		}
		b.WriteByte(']')
	case Map:
		b.WriteByte('{')
		for i, kv := range val.pairs {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(kv.Key))
			b.WriteString(": ")
			writeValue(b, kv.Value)
		}
		b.WriteByte('}')
	case FuncRef:
		b.WriteString(val.Name)
	case Class:
		fmt.Fprintf(b, "<class %s>", val.Name)
	case Instance:
		fmt.Fprintf(b, "<%s %s>", val.ClassName, val.UUID)
	}
}

func writeList(b *strings.Builder, items []Value) {
	b.WriteByte('[')
	for i, it := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		writeValue(b, it)
	}
	b.WriteByte(']')
}

// FromNative converts a Go value into a Value. Maps with string keys are
// converted in sorted key order so the result is deterministic.
func FromNative(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return v, nil
	case bool:
		return NewBool(v), nil
	case string:
		return NewString(v), nil
	case []byte:
		return NewBytes(v), nil
	case float64:
		return NewNumber(v), nil
	case float32:
		return NewNumber(float64(v)), nil
	case int:
		return NewNumber(float64(v)), nil
	case int8:
		return NewNumber(float64(v)), nil
	case int16:
		return NewNumber(float64(v)), nil
	case int32:
		return NewNumber(float64(v)), nil
	case int64:
		return NewNumber(float64(v)), nil
	case uint:
		return NewNumber(float64(v)), nil
	case uint8:
		return NewNumber(float64(v)), nil
	case uint16:
		return NewNumber(float64(v)), nil
	case uint32:
		return NewNumber(float64(v)), nil
	case uint64:
		return NewNumber(float64(v)), nil
	case []Value:
		return NewArray(v), nil
	case []any:
		items := make([]Value, len(v))
		for i, it := range v {
			conv, err := FromNative(it)
			if err != nil {
				return nil, err
			}
			items[i] = conv
		}
		return NewArray(items), nil
	case []string:
		items := make([]Value, len(v))
		for i, s := range v {
			items[i] = NewString(s)
		}
		return NewArray(items), nil
	case []float64:
		items := make([]Value, len(v))
		for i, n := range v {
			items[i] = NewNumber(n)
		}
		return NewArray(items), nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			conv, err := FromNative(v[k])
			if err != nil {
				return nil, err
			}
			m.Set(k, conv)
		}
		return m, nil
	case map[any]any:
		// yaml.v2-style maps; only string keys are allowed
		conv := make(map[string]any, len(v))
		for k, val := range v {
			ks, ok := k.(string)
			if !ok {
				return nil, diagnostics.Errorf(diagnostics.EType, "", "map key %v is not a string", k)
			}
			conv[ks] = val
		}
		return FromNative(conv)
	}
	return nil, diagnostics.Errorf(diagnostics.EType, "", "cannot convert %T to a value", x)
}

// ToNative converts v into plain Go values: nil, bool, float64, string,
// []byte, []any, [][]any and map[string]any. Function references and
// classes become their names; instances become their table key.
func ToNative(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Number:
		return val.Value
	case Bool:
		return val.Value
	case String:
		return val.Value
	case Bytes:
		return val.Data()
	case Array:
		out := make([]any, len(val.Items))
		for i, it := range val.Items {
			out[i] = ToNative(it)
		}
		return out
	case Matrix:
		out := make([][]any, len(val.Rows))
		for i, r := range val.Rows {
			row := make([]any, len(r))
			for j, c := range r {
				row[j] = ToNative(c)
			}
			out[i] = row
		}
		return out
	case Map:
		out := make(map[string]any, val.Len())
		for _, kv := range val.pairs {
			out[kv.Key] = ToNative(kv.Value)
		}
		return out
	case FuncRef:
		return val.Name
	case Class:
		return val.Name
	case Instance:
		return val.Key()
	}
	return nil
}
