package shaping

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/thomasrohde/dscript/pkg/value"
)

// Check coerces v to the field's declared type and validates its
// constraints. It returns the coerced value, or the errors found under path.
func (f *FieldSpec) Check(path string, v value.Value) (value.Value, []FieldError) {
	out, err := coerce(path, f.Type, f.Elem, v)
	if err != nil {
		return nil, []FieldError{*err}
	}
	errs := f.validate(path, out)
	if len(errs) > 0 {
		return nil, errs
	}
	return out, nil
}

func fail(path, format string, args ...any) *FieldError {
	return &FieldError{Path: path, Message: fmt.Sprintf(format, args...)}
}

func coerce(path string, t, elem Type, v value.Value) (value.Value, *FieldError) {
	switch t {
	case TypeAny, "":
		return v, nil

	case TypeNumber:
		switch x := v.(type) {
		case value.Number:
			return x, nil
		case value.String:
			n, err := strconv.ParseFloat(strings.TrimSpace(x.Value), 64)
			if err != nil {
				return nil, fail(path, "expected NUMBER, got non-numeric string %q", x.Value)
			}
			return value.NewNumber(n), nil
		}

	case TypeBool:
		switch x := v.(type) {
		case value.Bool:
			return x, nil
		case value.String:
			switch x.Value {
			case "true":
				return value.NewBool(true), nil
			case "false":
				return value.NewBool(false), nil
			}
			return nil, fail(path, "expected BOOL, got string %q", x.Value)
		}

	case TypeString:
		if x, ok := v.(value.String); ok {
			return x, nil
		}

	case TypeBytes:
		switch x := v.(type) {
		case value.Bytes:
			return x, nil
		case value.String:
			if h, ok := strings.CutPrefix(x.Value, "0x"); ok {
				b, err := hex.DecodeString(h)
				if err != nil {
					return nil, fail(path, "expected BYTES, got invalid hex string")
				}
				return value.NewBytes(b), nil
			}
			return nil, fail(path, "expected BYTES, strings must be 0x-prefixed hex")
		}

	case TypeArray:
		if x, ok := v.(value.Array); ok {
			items, err := coerceItems(path, elem, x.Items)
			if err != nil {
				return nil, err
			}
			return value.NewArray(items), nil
		}

	case TypeMatrix:
		var rows [][]value.Value
		switch x := v.(type) {
		case value.Matrix:
			rows = x.Rows
		case value.Array:
			rows = make([][]value.Value, len(x.Items))
			for i, r := range x.Items {
				ra, ok := r.(value.Array)
				if !ok {
					return nil, fail(fmt.Sprintf("%s[%d]", path, i), "matrix row must be an array, got %s", value.TypeName(r))
				}
				rows[i] = ra.Items
			}
		default:
			return nil, fail(path, "expected MATRIX, got %s", value.TypeName(v))
		}
		coerced := make([][]value.Value, len(rows))
		for i, r := range rows {
			if len(r) != len(rows[0]) {
				return nil, fail(path, "matrix is not rectangular: row %d has %d columns, expected %d", i, len(r), len(rows[0]))
			}
			cells, err := coerceItems(fmt.Sprintf("%s[%d]", path, i), elem, r)
			if err != nil {
				return nil, err
			}
			coerced[i] = cells
		}
		m, err := value.NewMatrix(coerced)
		if err != nil {
			return nil, fail(path, "%s", err.Error())
		}
		return m, nil

	case TypeMap:
		if x, ok := v.(value.Map); ok {
			out := value.NewMap()
			for _, kv := range x.Pairs() {
				cv, err := coerce(path+"."+kv.Key, elem, "", kv.Value)
				if err != nil {
					return nil, err
				}
				out.Set(kv.Key, cv)
			}
			return out, nil
		}
	}
	return nil, fail(path, "expected %s, got %s", t, value.TypeName(v))
}

func coerceItems(path string, elem Type, items []value.Value) ([]value.Value, *FieldError) {
	out := make([]value.Value, len(items))
	for i, it := range items {
		cv, err := coerce(fmt.Sprintf("%s[%d]", path, i), elem, "", it)
		if err != nil {
			return nil, err
		}
		out[i] = cv
	}
	return out, nil
}

func (f *FieldSpec) validate(path string, v value.Value) []FieldError {
	var errs []FieldError
	add := func(p, format string, args ...any) {
		errs = append(errs, *fail(p, format, args...))
	}

	switch x := v.(type) {
	case value.Number:
		if f.Type == TypeNumber {
			checkNumber(path, x.Value, f.Min, f.Max, f.Integer, add)
		}
	case value.String:
		if f.Type == TypeString {
			checkLen(path, utf8.RuneCountInString(x.Value), f.MinLen, f.MaxLen, "length", add)
			if f.re != nil && !f.re.MatchString(x.Value) {
				add(path, "does not match pattern %q", f.Pattern)
			}
		}
	case value.Bytes:
		checkLen(path, x.Len(), f.MinLen, f.MaxLen, "length", add)
		if f.re != nil && !f.re.Match(x.Data()) {
			add(path, "does not match pattern %q", f.Pattern)
		}
	case value.Array:
		if f.Type == TypeArray {
			checkLen(path, len(x.Items), f.MinItems, f.MaxItems, "item count", add)
			for i, it := range x.Items {
				f.checkElem(fmt.Sprintf("%s[%d]", path, i), it, add)
			}
		}
	case value.Matrix:
		checkLen(path, len(x.Rows), f.MinRows, f.MaxRows, "row count", add)
		checkLen(path, x.Cols(), f.MinCols, f.MaxCols, "column count", add)
		for i, r := range x.Rows {
			for j, c := range r {
				f.checkElem(fmt.Sprintf("%s[%d][%d]", path, i, j), c, add)
			}
		}
	case value.Map:
		if f.Type == TypeMap {
			checkLen(path, x.Len(), f.MinItems, f.MaxItems, "entry count", add)
			for _, kv := range x.Pairs() {
				f.checkElem(path+"."+kv.Key, kv.Value, add)
			}
		}
	}
	return errs
}

func (f *FieldSpec) checkElem(path string, v value.Value, add func(string, string, ...any)) {
	if n, ok := v.(value.Number); ok {
		checkNumber(path, n.Value, f.ElemMin, f.ElemMax, f.ElemInteger, add)
	}
}

func checkNumber(path string, n float64, lo, hi *float64, integer bool, add func(string, string, ...any)) {
	if integer && !value.IsInteger(n) {
		add(path, "must be an integer, got %s", value.FormatNumber(n))
	}
	if lo != nil && !(n >= *lo) {
		add(path, "must be >= %s, got %s", value.FormatNumber(*lo), value.FormatNumber(n))
	}
	if hi != nil && !(n <= *hi) {
		add(path, "must be <= %s, got %s", value.FormatNumber(*hi), value.FormatNumber(n))
	}
}

func checkLen(path string, n int, lo, hi *int, what string, add func(string, string, ...any)) {
	if lo != nil && n < *lo {
		add(path, "%s must be >= %d, got %d", what, *lo, n)
	}
	if hi != nil && n > *hi {
		add(path, "%s must be <= %d, got %d", what, *hi, n)
	}
}
