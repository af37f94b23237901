package evaluator

import (
	"unicode/utf8"

	"github.com/thomasrohde/dscript/pkg/ast"
	"github.com/thomasrohde/dscript/pkg/diagnostics"
	"github.com/thomasrohde/dscript/pkg/value"
)

func outOfBounds(i, n int, what string) error {
	return diagnostics.Errorf(diagnostics.EIndex, "", "index %d out of bounds for %s of length %d", i, what, n)
}

func position(idx value.Value, n int, what string) (int, error) {
	i, err := value.AsInt(idx)
	if err != nil {
		return 0, diagnostics.Errorf(diagnostics.EType, "", "%s index must be an integer, got %s", what, value.Format(idx))
	}
	if i < 0 || i >= n {
		return 0, outOfBounds(i, n, what)
	}
	return i, nil
}

func mapKey(idx value.Value, what string) (string, error) {
	switch k := idx.(type) {
	case value.String:
		return k.Value, nil
	case value.FuncRef:
		return k.Name, nil
	}
	return "", diagnostics.Errorf(diagnostics.EType, "", "%s key must be a string, got %s", what, value.TypeName(idx))
}

func (in *Interpreter) getElement(obj, idx value.Value) (value.Value, error) {
	switch c := obj.(type) {
	case value.Array:
		i, err := position(idx, len(c.Items), "array")
		if err != nil {
			return nil, err
		}
		return c.Items[i], nil

	case value.Matrix:
		i, err := position(idx, len(c.Rows), "matrix")
		if err != nil {
			return nil, err
		}
		return value.NewArray(append([]value.Value(nil), c.Rows[i]...)), nil

	case value.Map:
		k, err := mapKey(idx, "map")
		if err != nil {
			return nil, err
		}
		if v, ok := c.Get(k); ok {
			return v, nil
		}
		return value.Null{}, nil

	case value.String:
		runes := []rune(c.Value)
		i, err := position(idx, len(runes), "string")
		if err != nil {
			return nil, err
		}
		return value.NewString(string(runes[i])), nil

	case value.Bytes:
		i, err := position(idx, c.Len(), "bytes")
		if err != nil {
			return nil, err
		}
		return value.NewNumber(float64(c.At(i))), nil

	case value.Instance:
		k, err := mapKey(idx, "instance")
		if err != nil {
			return nil, err
		}
		state, err := in.instanceState(c)
		if err != nil {
			return nil, err
		}
		if v, ok := state.Get(k); ok {
			return v, nil
		}
		return value.Null{}, nil
	}
	return nil, diagnostics.Errorf(diagnostics.EType, "", "cannot index %s", value.TypeName(obj))
}

// evalSetIndex assigns through a chain of index expressions. The chain is
// flattened so every index expression is evaluated exactly once, left to
// right, before the assigned value; the updated root is then written back to
// its variable. Instance state is updated in place in the instance table.
func (in *Interpreter) evalSetIndex(e *ast.SetIndex) (value.Value, error) {
	exprs := []ast.Expr{e.Index}
	root := e.Object
	for {
		ix, ok := root.(*ast.Index)
		if !ok {
			break
		}
		exprs = append([]ast.Expr{ix.Index}, exprs...)
		root = ix.Object
	}

	base, err := in.eval(root)
	if err != nil {
		return nil, err
	}
	keys := make([]value.Value, len(exprs))
	for i, x := range exprs {
		if keys[i], err = in.eval(x); err != nil {
			return nil, err
		}
	}
	val, err := in.eval(e.Value)
	if err != nil {
		return nil, err
	}

	updated, err := in.setPath(base, keys, val)
	if err != nil {
		return nil, diagnostics.As(err).At(e.Span)
	}
	if _, isInst := base.(value.Instance); isInst {
		return val, nil
	}
	v, ok := root.(*ast.Variable)
	if !ok {
		return nil, diagnostics.Errorf(diagnostics.EType, "",
			"cannot assign into a temporary %s", value.TypeName(base)).At(e.Span)
	}
	if err := in.env.Assign(v.Name, updated); err != nil {
		return nil, diagnostics.As(err).At(e.Span)
	}
	return val, nil
}

func (in *Interpreter) setPath(container value.Value, keys []value.Value, val value.Value) (value.Value, error) {
	if len(keys) == 0 {
		return val, nil
	}
	if inst, ok := container.(value.Instance); ok {
		k, err := mapKey(keys[0], "instance")
		if err != nil {
			return nil, err
		}
		state, err := in.instanceState(inst)
		if err != nil {
			return nil, err
		}
		next := val
		if len(keys) > 1 {
			child, _ := state.Get(k)
			if next, err = in.setPath(child, keys[1:], val); err != nil {
				return nil, err
			}
		}
		in.instances[inst.Key()] = state.With(k, next)
		return inst, nil
	}

	next := val
	if len(keys) > 1 {
		child, err := in.getElement(container, keys[0])
		if err != nil {
			return nil, err
		}
		if next, err = in.setPath(child, keys[1:], val); err != nil {
			return nil, err
		}
	}
	return setElement(container, keys[0], next)
}

// setElement returns a copy of container with idx set to val.
func setElement(container, idx, val value.Value) (value.Value, error) {
	switch c := container.(type) {
	case value.Array:
		i, err := position(idx, len(c.Items), "array")
		if err != nil {
			return nil, err
		}
		items := append([]value.Value(nil), c.Items...)
		items[i] = val
		return value.NewArray(items), nil

	case value.Matrix:
		i, err := position(idx, len(c.Rows), "matrix")
		if err != nil {
			return nil, err
		}
		row, ok := val.(value.Array)
		if !ok {
			return nil, diagnostics.Errorf(diagnostics.EType, "", "matrix row must be an array, got %s", value.TypeName(val))
		}
		if len(row.Items) != c.Cols() {
			return nil, diagnostics.Errorf(diagnostics.EType, "",
				"matrix row must have %d columns, got %d", c.Cols(), len(row.Items))
		}
		rows := append([][]value.Value(nil), c.Rows...)
		rows[i] = append([]value.Value(nil), row.Items...)
		return value.Matrix{Rows: rows}, nil

	case value.Map:
		k, err := mapKey(idx, "map")
		if err != nil {
			return nil, err
		}
		return c.With(k, val), nil

	case value.String:
		runes := []rune(c.Value)
		i, err := position(idx, len(runes), "string")
		if err != nil {
			return nil, err
		}
		s, ok := val.(value.String)
		if !ok || utf8.RuneCountInString(s.Value) != 1 {
			return nil, diagnostics.Errorf(diagnostics.EType, "", "string element must be a one-character string")
		}
		runes[i] = []rune(s.Value)[0]
		return value.NewString(string(runes)), nil

	case value.Bytes:
		i, err := position(idx, c.Len(), "bytes")
		if err != nil {
			return nil, err
		}
		n, err := value.AsInt(val)
		if err != nil || n < 0 || n > 255 {
			return nil, diagnostics.Errorf(diagnostics.EType, "", "byte value must be an integer in 0..255, got %s", value.Format(val))
		}
		data := c.Data()
		data[i] = byte(n)
		return value.NewBytes(data), nil
	}
	return nil, diagnostics.Errorf(diagnostics.EType, "", "cannot index-assign into %s", value.TypeName(container))
}
