package stdlib

import (
	"fmt"

	"github.com/thomasrohde/dscript/pkg/diagnostics"
	"github.com/thomasrohde/dscript/pkg/value"
)

// RegisterCore adds collection, string, record, predicate, path and JSON
// functions.
func RegisterCore(r *Registry) {
	// Predicates
	r.Register(Fn{Name: "typeof", Arity: 1, Execute: stdlibTypeof})
	r.Register(Fn{Name: "contains", Arity: 2, Execute: stdlibContains})
	r.Register(Fn{Name: "eq", Arity: 2, Execute: stdlibEq})

	// List ops
	r.Register(Fn{Name: "len", Arity: 1, Execute: stdlibLen})
	r.Register(Fn{Name: "push", Arity: 2, Execute: stdlibPush})
	r.Register(Fn{Name: "pop", Arity: 1, Execute: stdlibPop})
	r.Register(Fn{Name: "slice", Arity: 3, Execute: stdlibSlice})
	r.Register(Fn{Name: "range", Arity: Variadic, Execute: stdlibRange})
	r.Register(Fn{Name: "sort", Arity: 1, Execute: stdlibSort})
	r.Register(Fn{Name: "unique", Arity: 1, Execute: stdlibUnique})
	r.Register(Fn{Name: "flat", Arity: 1, Execute: stdlibFlat})
	r.Register(Fn{Name: "join", Arity: 2, Execute: stdlibJoin})

	// Matrix ops
	r.Register(Fn{Name: "matrix", Arity: 1, Execute: stdlibMatrix})
	r.Register(Fn{Name: "rows", Arity: 1, Execute: stdlibRows})
	r.Register(Fn{Name: "cols", Arity: 1, Execute: stdlibCols})

	// String ops
	r.Register(Fn{Name: "str", Arity: 1, Execute: stdlibStr})
	r.Register(Fn{Name: "num", Arity: 1, Execute: stdlibNum})
	r.Register(Fn{Name: "split", Arity: 2, Execute: stdlibSplit})
	r.Register(Fn{Name: "upper", Arity: 1, Execute: stdlibUpper})
	r.Register(Fn{Name: "lower", Arity: 1, Execute: stdlibLower})
	r.Register(Fn{Name: "trim", Arity: 1, Execute: stdlibTrim})
	r.Register(Fn{Name: "starts", Arity: 2, Execute: stdlibStarts})
	r.Register(Fn{Name: "ends", Arity: 2, Execute: stdlibEnds})
	r.Register(Fn{Name: "replace", Arity: 3, Execute: stdlibReplace})

	// Record ops
	r.Register(Fn{Name: "keys", Arity: 1, Execute: stdlibKeys})
	r.Register(Fn{Name: "values", Arity: 1, Execute: stdlibValues})
	r.Register(Fn{Name: "has", Arity: 2, Execute: stdlibHas})
	r.Register(Fn{Name: "remove", Arity: 2, Execute: stdlibRemove})
	r.Register(Fn{Name: "merge", Arity: 2, Execute: stdlibMerge})
	r.Register(Fn{Name: "entries", Arity: 1, Execute: stdlibEntries})

	// Path ops
	r.Register(Fn{Name: "getpath", Arity: 2, Execute: stdlibGetPath})
	r.Register(Fn{Name: "setpath", Arity: 3, Execute: stdlibSetPath})

	// JSON
	r.Register(Fn{Name: "json_parse", Arity: 1, Execute: stdlibJSONParse})
	r.Register(Fn{Name: "json_string", Arity: 1, Execute: stdlibJSONString})
}

// argError reports a bad argument as a type mismatch.
func argError(fn, format string, args ...any) error {
	return diagnostics.Errorf(diagnostics.EType, fn, "%s: %s", fn, fmt.Sprintf(format, args...))
}

func arrayArg(fn string, v value.Value) ([]value.Value, error) {
	a, ok := v.(value.Array)
	if !ok {
		return nil, argError(fn, "expected array, got %s", value.TypeName(v))
	}
	return a.Items, nil
}

func stringArg(fn string, v value.Value) (string, error) {
	s, ok := v.(value.String)
	if !ok {
		return "", argError(fn, "expected string, got %s", value.TypeName(v))
	}
	return s.Value, nil
}

func numberArg(fn string, v value.Value) (float64, error) {
	n, ok := v.(value.Number)
	if !ok {
		return 0, argError(fn, "expected number, got %s", value.TypeName(v))
	}
	return n.Value, nil
}

func intArg(fn string, v value.Value) (int, error) {
	n, err := value.AsInt(v)
	if err != nil {
		return 0, argError(fn, "expected integer, got %s", value.Format(v))
	}
	return n, nil
}

func mapArg(fn string, v value.Value) (value.Map, error) {
	m, ok := v.(value.Map)
	if !ok {
		return value.Map{}, argError(fn, "expected map, got %s", value.TypeName(v))
	}
	return m, nil
}

// typeof(v) → type name
func stdlibTypeof(args []value.Value) (value.Value, error) {
	return value.NewString(value.TypeName(args[0])), nil
}

// eq(a, b) → deep equality
func stdlibEq(args []value.Value) (value.Value, error) {
	return value.NewBool(value.Equal(args[0], args[1])), nil
}

// len(v) → length of array, map, matrix (rows), string (characters) or bytes
func stdlibLen(args []value.Value) (value.Value, error) {
	switch v := args[0].(type) {
	case value.Array:
		return value.NewNumber(float64(len(v.Items))), nil
	case value.Map:
		return value.NewNumber(float64(v.Len())), nil
	case value.Matrix:
		return value.NewNumber(float64(len(v.Rows))), nil
	case value.String:
		return value.NewNumber(float64(len([]rune(v.Value)))), nil
	case value.Bytes:
		return value.NewNumber(float64(v.Len())), nil
	}
	return nil, argError("len", "cannot take length of %s", value.TypeName(args[0]))
}
