package value

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
)

// Tagged-object keys for variants that have no plain JSON form. A Map whose
// only key collides with a tag is wrapped in {"$map": {...}}.
const (
	tagBytes    = "$bytes"
	tagMatrix   = "$matrix"
	tagFunc     = "$func"
	tagClass    = "$class"
	tagInstance = "$instance"
	tagNumber   = "$number"
	tagMap      = "$map"
)

func isTag(k string) bool {
	switch k {
	case tagBytes, tagMatrix, tagFunc, tagClass, tagInstance, tagNumber, tagMap:
		return true
	}
	return false
}

// EncodeSnapshot marshals an environment snapshot to JSON, preserving key
// order. Integral numbers are written without a decimal point.
func EncodeSnapshot(m Map) ([]byte, error) {
	return Encode(m)
}

// Encode marshals any value to JSON.
func Encode(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeKey(buf *bytes.Buffer, k string) {
	kb, _ := json.Marshal(k)
	buf.Write(kb)
	buf.WriteByte(':')
}

func encodeValue(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(val.Value))
	case Number:
		n := val.Value
		switch {
		case math.IsNaN(n):
			buf.WriteString(`{"$number":"NaN"}`)
		case math.IsInf(n, 1):
			buf.WriteString(`{"$number":"+Inf"}`)
		case math.IsInf(n, -1):
			buf.WriteString(`{"$number":"-Inf"}`)
		default:
			buf.WriteString(FormatNumber(n))
		}
	case String:
		sb, err := json.Marshal(val.Value)
		if err != nil {
			return err
		}
		buf.Write(sb)
	case Bytes:
		buf.WriteString(`{"$bytes":"`)
		buf.WriteString(hex.EncodeToString(val.data))
		buf.WriteString(`"}`)
	case Array:
		return encodeList(buf, val.Items)
	case Matrix:
		buf.WriteString(`{"$matrix":[`)
		for i, r := range val.Rows {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeList(buf, r); err != nil {
				return err
			}
		}
		buf.WriteString(`]}`)
	case Map:
		wrap := val.Len() == 1 && isTag(val.pairs[0].Key)
		if wrap {
			buf.WriteString(`{"$map":`)
		}
		buf.WriteByte('{')
		for i, kv := range val.pairs {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeKey(buf, kv.Key)
			if err := encodeValue(buf, kv.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		if wrap {
			buf.WriteByte('}')
		}
	case FuncRef:
		buf.WriteString(`{"$func":`)
		nb, _ := json.Marshal(val.Name)
		buf.Write(nb)
		buf.WriteByte('}')
	case Class:
		buf.WriteString(`{"$class":{"name":`)
		nb, _ := json.Marshal(val.Name)
		buf.Write(nb)
		buf.WriteString(`,"methods":`)
		mb, _ := json.Marshal(append([]string{}, val.Methods...))
		buf.Write(mb)
		buf.WriteString(`}}`)
	case Instance:
		buf.WriteString(`{"$instance":{"class":`)
		cb, _ := json.Marshal(val.ClassName)
		buf.Write(cb)
		buf.WriteString(`,"uuid":`)
		ub, _ := json.Marshal(val.UUID)
		buf.Write(ub)
		buf.WriteString(`}}`)
	default:
		return fmt.Errorf("cannot encode %T", v)
	}
	return nil
}

func encodeList(buf *bytes.Buffer, items []Value) error {
	buf.WriteByte('[')
	for i, it := range items {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeValue(buf, it); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

// DecodeSnapshot parses a JSON object produced by EncodeSnapshot. Object key
// order is preserved.
func DecodeSnapshot(data []byte) (Map, error) {
	v, err := Decode(data)
	if err != nil {
		return Map{}, err
	}
	m, ok := v.(Map)
	if !ok {
		return Map{}, fmt.Errorf("snapshot must be a JSON object, got %s", TypeName(v))
	}
	return m, nil
}

// Decode parses a single JSON document into a Value.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return NewBool(t), nil
	case json.Number:
		f, err := strconv.ParseFloat(string(t), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %s: %w", t, err)
		}
		return NewNumber(f), nil
	case string:
		return NewString(t), nil
	case json.Delim:
		switch t {
		case '[':
			items, err := decodeListBody(dec)
			if err != nil {
				return nil, err
			}
			return NewArray(items), nil
		case '{':
			m, err := decodeObjectBody(dec)
			if err != nil {
				return nil, err
			}
			return untag(m)
		}
	}
	return nil, fmt.Errorf("unexpected JSON token %v", tok)
}

func decodeListBody(dec *json.Decoder) ([]Value, error) {
	items := []Value{}
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	if _, err := dec.Token(); err != nil { // ']'
		return nil, err
	}
	return items, nil
}

func decodeObjectBody(dec *json.Decoder) (Map, error) {
	m := NewMap()
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return Map{}, err
		}
		key, ok := kt.(string)
		if !ok {
			return Map{}, fmt.Errorf("object key %v is not a string", kt)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return Map{}, err
		}
		m.Set(key, v)
	}
	if _, err := dec.Token(); err != nil { // '}'
		return Map{}, err
	}
	return m, nil
}

// untag turns a single-key tagged object back into its variant.
func untag(m Map) (Value, error) {
	if m.Len() != 1 || !isTag(m.pairs[0].Key) {
		return m, nil
	}
	key, body := m.pairs[0].Key, m.pairs[0].Value
	switch key {
	case tagMap:
		inner, ok := body.(Map)
		if !ok {
			return nil, fmt.Errorf("%s must hold an object", tagMap)
		}
		return inner, nil
	case tagNumber:
		s, _ := body.(String)
		switch s.Value {
		case "NaN":
			return NewNumber(math.NaN()), nil
		case "+Inf":
			return NewNumber(math.Inf(1)), nil
		case "-Inf":
			return NewNumber(math.Inf(-1)), nil
		}
		return nil, fmt.Errorf("invalid %s value %s", tagNumber, Format(body))
	case tagBytes:
		s, ok := body.(String)
		if !ok {
			return nil, fmt.Errorf("%s must hold a hex string", tagBytes)
		}
		b, err := hex.DecodeString(s.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", tagBytes, err)
		}
		return NewBytes(b), nil
	case tagMatrix:
		rowsV, ok := body.(Array)
		if !ok {
			return nil, fmt.Errorf("%s must hold an array of rows", tagMatrix)
		}
		rows := make([][]Value, len(rowsV.Items))
		for i, r := range rowsV.Items {
			ra, ok := r.(Array)
			if !ok {
				return nil, fmt.Errorf("%s row %d is not an array", tagMatrix, i)
			}
			rows[i] = ra.Items
		}
		return NewMatrix(rows)
	case tagFunc:
		s, ok := body.(String)
		if !ok {
			return nil, fmt.Errorf("%s must hold a name", tagFunc)
		}
		return NewFuncRef(s.Value), nil
	case tagClass:
		obj, ok := body.(Map)
		if !ok {
			return nil, fmt.Errorf("%s must hold an object", tagClass)
		}
		name, _ := obj.Get("name")
		c := Class{Name: Format(name)}
		if ms, ok := obj.Get("methods"); ok {
			arr, _ := ms.(Array)
			for _, it := range arr.Items {
				c.Methods = append(c.Methods, Format(it))
			}
		}
		return c, nil
	case tagInstance:
		obj, ok := body.(Map)
		if !ok {
			return nil, fmt.Errorf("%s must hold an object", tagInstance)
		}
		cls, _ := obj.Get("class")
		id, _ := obj.Get("uuid")
		cs, ok1 := cls.(String)
		us, ok2 := id.(String)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%s needs string class and uuid", tagInstance)
		}
		return NewInstance(cs.Value, us.Value), nil
	}
	return m, nil
}
