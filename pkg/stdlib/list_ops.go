package stdlib

import (
	"sort"
	"strings"

	"github.com/thomasrohde/dscript/pkg/value"
)

// maxRange bounds the size of range() results.
const maxRange = 1000000

// push(list, v) → new list with v appended
func stdlibPush(args []value.Value) (value.Value, error) {
	items, err := arrayArg("push", args[0])
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, len(items)+1)
	copy(out, items)
	out[len(items)] = args[1]
	return value.NewArray(out), nil
}

// pop(list) → new list without its last element
func stdlibPop(args []value.Value) (value.Value, error) {
	items, err := arrayArg("pop", args[0])
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, argError("pop", "list is empty")
	}
	return value.NewArray(append([]value.Value(nil), items[:len(items)-1]...)), nil
}

// slice(v, from, to) → sub-array or substring; bounds are clamped
func stdlibSlice(args []value.Value) (value.Value, error) {
	from, err := intArg("slice", args[1])
	if err != nil {
		return nil, err
	}
	to, err := intArg("slice", args[2])
	if err != nil {
		return nil, err
	}
	clamp := func(n int) (int, int) {
		lo, hi := from, to
		if lo < 0 {
			lo = 0
		}
		if hi > n {
			hi = n
		}
		if hi < lo {
			hi = lo
		}
		return lo, hi
	}
	switch v := args[0].(type) {
	case value.Array:
		lo, hi := clamp(len(v.Items))
		return value.NewArray(append([]value.Value(nil), v.Items[lo:hi]...)), nil
	case value.String:
		runes := []rune(v.Value)
		lo, hi := clamp(len(runes))
		return value.NewString(string(runes[lo:hi])), nil
	case value.Bytes:
		data := v.Data()
		lo, hi := clamp(len(data))
		return value.NewBytes(data[lo:hi]), nil
	}
	return nil, argError("slice", "cannot slice %s", value.TypeName(args[0]))
}

// range(to) or range(from, to) → [from, ..., to-1]
func stdlibRange(args []value.Value) (value.Value, error) {
	var from, to float64
	var err error
	switch len(args) {
	case 1:
		to, err = numberArg("range", args[0])
	case 2:
		if from, err = numberArg("range", args[0]); err == nil {
			to, err = numberArg("range", args[1])
		}
	default:
		return nil, argError("range", "expects 1 or 2 arguments, got %d", len(args))
	}
	if err != nil {
		return nil, err
	}
	if to <= from {
		return value.NewArray(nil), nil
	}
	if to-from > maxRange {
		return nil, argError("range", "range too large: %s items", value.FormatNumber(to-from))
	}
	items := make([]value.Value, 0, int(to-from))
	for i := from; i < to; i++ {
		items = append(items, value.NewNumber(i))
	}
	return value.NewArray(items), nil
}

// sort(list) → numbers or strings in ascending order
func stdlibSort(args []value.Value) (value.Value, error) {
	items, err := arrayArg("sort", args[0])
	if err != nil {
		return nil, err
	}
	out := append([]value.Value(nil), items...)
	if len(out) == 0 {
		return value.NewArray(out), nil
	}
	switch out[0].(type) {
	case value.Number:
		for _, it := range out {
			if _, ok := it.(value.Number); !ok {
				return nil, argError("sort", "cannot compare number with %s", value.TypeName(it))
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].(value.Number).Value < out[j].(value.Number).Value
		})
	case value.String:
		for _, it := range out {
			if _, ok := it.(value.String); !ok {
				return nil, argError("sort", "cannot compare string with %s", value.TypeName(it))
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].(value.String).Value < out[j].(value.String).Value
		})
	default:
		return nil, argError("sort", "can only sort numbers or strings, got %s", value.TypeName(out[0]))
	}
	return value.NewArray(out), nil
}

// unique(list) → list without later duplicates
func stdlibUnique(args []value.Value) (value.Value, error) {
	items, err := arrayArg("unique", args[0])
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, 0, len(items))
	for _, it := range items {
		dup := false
		for _, seen := range out {
			if value.Equal(it, seen) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, it)
		}
	}
	return value.NewArray(out), nil
}

// flat(list) → list with one level of nested arrays expanded
func stdlibFlat(args []value.Value) (value.Value, error) {
	items, err := arrayArg("flat", args[0])
	if err != nil {
		return nil, err
	}
	var out []value.Value
	for _, it := range items {
		if inner, ok := it.(value.Array); ok {
			out = append(out, inner.Items...)
			continue
		}
		out = append(out, it)
	}
	return value.NewArray(out), nil
}

// join(list, sep) → string
func stdlibJoin(args []value.Value) (value.Value, error) {
	items, err := arrayArg("join", args[0])
	if err != nil {
		return nil, err
	}
	sep, err := stringArg("join", args[1])
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = value.Format(it)
	}
	return value.NewString(strings.Join(parts, sep)), nil
}

// matrix(rows) → matrix from an array of equal-length arrays
func stdlibMatrix(args []value.Value) (value.Value, error) {
	items, err := arrayArg("matrix", args[0])
	if err != nil {
		return nil, err
	}
	rows := make([][]value.Value, len(items))
	for i, r := range items {
		ra, ok := r.(value.Array)
		if !ok {
			return nil, argError("matrix", "row %d must be an array, got %s", i, value.TypeName(r))
		}
		rows[i] = append([]value.Value(nil), ra.Items...)
	}
	return value.NewMatrix(rows)
}

// rows(m) → row count
func stdlibRows(args []value.Value) (value.Value, error) {
	m, err := value.AsMatrix(args[0])
	if err != nil {
		return nil, err
	}
	return value.NewNumber(float64(len(m.Rows))), nil
}

// cols(m) → column count
func stdlibCols(args []value.Value) (value.Value, error) {
	m, err := value.AsMatrix(args[0])
	if err != nil {
		return nil, err
	}
	return value.NewNumber(float64(m.Cols())), nil
}
