package evaluator

import (
	"math"

	"github.com/thomasrohde/dscript/pkg/ast"
	"github.com/thomasrohde/dscript/pkg/diagnostics"
	"github.com/thomasrohde/dscript/pkg/value"
)

func (in *Interpreter) eval(expr ast.Expr) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.Literal:
		switch e.Lit {
		case ast.LitNumber:
			return value.NewNumber(e.Number), nil
		case ast.LitString:
			return value.NewString(e.Str), nil
		case ast.LitBool:
			return value.NewBool(e.Bool), nil
		}
		return value.Null{}, nil

	case *ast.MapLiteral:
		m := value.NewMap()
		for _, entry := range e.Entries {
			v, err := in.eval(entry.Value)
			if err != nil {
				return nil, err
			}
			m.Set(entry.Key, v)
		}
		return m, nil

	case *ast.ArrayLiteral:
		items := make([]value.Value, 0, len(e.Elements))
		for _, el := range e.Elements {
			v, err := in.eval(el)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return value.NewArray(items), nil

	case *ast.Variable:
		return in.lookup(e.Name, e.Span)

	case *ast.Assign:
		v, err := in.eval(e.Value)
		if err != nil {
			return nil, err
		}
		if err := in.env.Assign(e.Name, v); err != nil {
			return nil, diagnostics.As(err).At(e.Span)
		}
		return v, nil

	case *ast.Binary:
		return in.evalBinary(e)

	case *ast.Logical:
		return in.evalLogical(e)

	case *ast.Unary:
		operand, err := in.eval(e.Operand)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case ast.OpNot:
			return value.NewBool(!value.Truthy(operand)), nil
		case ast.OpNeg:
			n, ok := operand.(value.Number)
			if !ok {
				return nil, diagnostics.Errorf(diagnostics.EType, "",
					"unary '-' requires a number, got %s", value.TypeName(operand)).At(e.Span)
			}
			return value.NewNumber(-n.Value), nil
		}

	case *ast.Call:
		return in.evalCall(e)

	case *ast.MethodCall:
		return in.evalMethodCall(e)

	case *ast.New:
		return in.evalNew(e)

	case *ast.Index:
		obj, err := in.eval(e.Object)
		if err != nil {
			return nil, err
		}
		idx, err := in.eval(e.Index)
		if err != nil {
			return nil, err
		}
		v, err := in.getElement(obj, idx)
		if err != nil {
			return nil, diagnostics.As(err).At(e.Span)
		}
		return v, nil

	case *ast.SetIndex:
		return in.evalSetIndex(e)
	}
	return nil, diagnostics.Errorf(diagnostics.ERuntime, "", "unsupported expression %s", expr.Kind()).At(expr.NodeSpan())
}

// lookup resolves a bare name: a bound variable first, then a function
// reference, then a class.
func (in *Interpreter) lookup(name string, span ast.Span) (value.Value, error) {
	if v, ok := in.env.Get(name); ok {
		return v, nil
	}
	if _, ok := in.userFns[name]; ok {
		return value.NewFuncRef(name), nil
	}
	if _, ok := in.opts.Builtins[name]; ok {
		return value.NewFuncRef(name), nil
	}
	if c, ok := in.classes[name]; ok {
		return c.value(), nil
	}
	return nil, diagnostics.Errorf(diagnostics.EUndefinedVar, name, "undefined variable '%s'", name).At(span)
}

func (in *Interpreter) evalLogical(e *ast.Logical) (value.Value, error) {
	left, err := in.eval(e.Left)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case ast.OpAnd:
		if !value.Truthy(left) {
			return left, nil
		}
	case ast.OpOr:
		if value.Truthy(left) {
			return left, nil
		}
	case ast.OpCoalesce:
		if _, isNull := left.(value.Null); !isNull {
			return left, nil
		}
	}
	return in.eval(e.Right)
}

func (in *Interpreter) evalBinary(e *ast.Binary) (value.Value, error) {
	left, err := in.eval(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := in.eval(e.Right)
	if err != nil {
		return nil, err
	}
	v, err := binaryOp(e.Op, left, right)
	if err != nil {
		return nil, diagnostics.As(err).At(e.Span)
	}
	return v, nil
}

func operandError(op ast.BinaryOp, left, right value.Value) error {
	return diagnostics.Errorf(diagnostics.EType, "",
		"cannot apply '%s' to %s and %s", op, value.TypeName(left), value.TypeName(right))
}

func binaryOp(op ast.BinaryOp, left, right value.Value) (value.Value, error) {
	switch op {
	case ast.OpEqEq:
		return value.NewBool(value.Equal(left, right)), nil
	case ast.OpNeq:
		return value.NewBool(!value.Equal(left, right)), nil
	case ast.OpAdd:
		return add(left, right)
	}

	ln, lok := left.(value.Number)
	rn, rok := right.(value.Number)

	switch op {
	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		if !lok || !rok {
			return nil, operandError(op, left, right)
		}
		a, b := ln.Value, rn.Value
		switch op {
		case ast.OpSub:
			return value.NewNumber(a - b), nil
		case ast.OpMul:
			return value.NewNumber(a * b), nil
		case ast.OpDiv:
			return value.NewNumber(a / b), nil
		default:
			return value.NewNumber(math.Mod(a, b)), nil
		}

	case ast.OpGt, ast.OpLt, ast.OpGtEq, ast.OpLtEq:
		var cmp int
		switch {
		case lok && rok:
			if math.IsNaN(ln.Value) || math.IsNaN(rn.Value) {
				return value.NewBool(false), nil
			}
			cmp = compareOrdered(ln.Value, rn.Value)
		default:
			ls, lsok := left.(value.String)
			rs, rsok := right.(value.String)
			if !lsok || !rsok {
				return nil, operandError(op, left, right)
			}
			cmp = compareOrdered(ls.Value, rs.Value)
		}
		switch op {
		case ast.OpGt:
			return value.NewBool(cmp > 0), nil
		case ast.OpLt:
			return value.NewBool(cmp < 0), nil
		case ast.OpGtEq:
			return value.NewBool(cmp >= 0), nil
		default:
			return value.NewBool(cmp <= 0), nil
		}
	}
	return nil, operandError(op, left, right)
}

func compareOrdered[T float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// add implements '+': numeric addition, string concatenation when either
// side is a string, and concatenation of two arrays or two byte strings.
func add(left, right value.Value) (value.Value, error) {
	switch l := left.(type) {
	case value.Number:
		if r, ok := right.(value.Number); ok {
			return value.NewNumber(l.Value + r.Value), nil
		}
	case value.Array:
		if r, ok := right.(value.Array); ok {
			items := make([]value.Value, 0, len(l.Items)+len(r.Items))
			items = append(items, l.Items...)
			return value.NewArray(append(items, r.Items...)), nil
		}
	case value.Bytes:
		if r, ok := right.(value.Bytes); ok {
			return value.NewBytes(append(l.Data(), r.Data()...)), nil
		}
	}
	_, ls := left.(value.String)
	_, rs := right.(value.String)
	if ls || rs {
		return value.NewString(value.Format(left) + value.Format(right)), nil
	}
	return nil, operandError(ast.OpAdd, left, right)
}
