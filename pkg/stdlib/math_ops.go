package stdlib

import (
	"math"

	"github.com/thomasrohde/dscript/pkg/value"
)

// RegisterMath adds numeric functions.
func RegisterMath(r *Registry) {
	r.Register(Fn{Name: "abs", Arity: 1, Execute: unaryMath("abs", math.Abs)})
	r.Register(Fn{Name: "floor", Arity: 1, Execute: unaryMath("floor", math.Floor)})
	r.Register(Fn{Name: "ceil", Arity: 1, Execute: unaryMath("ceil", math.Ceil)})
	r.Register(Fn{Name: "round", Arity: 1, Execute: unaryMath("round", math.Round)})
	r.Register(Fn{Name: "sqrt", Arity: 1, Execute: unaryMath("sqrt", math.Sqrt)})
	r.Register(Fn{Name: "pow", Arity: 2, Execute: stdlibPow})
	r.Register(Fn{Name: "min", Arity: Variadic, Execute: stdlibMin})
	r.Register(Fn{Name: "max", Arity: Variadic, Execute: stdlibMax})
	r.Register(Fn{Name: "sum", Arity: 1, Execute: stdlibSum})
}

func unaryMath(name string, f func(float64) float64) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		n, err := numberArg(name, args[0])
		if err != nil {
			return nil, err
		}
		return value.NewNumber(f(n)), nil
	}
}

// pow(x, y) → x**y
func stdlibPow(args []value.Value) (value.Value, error) {
	x, err := numberArg("pow", args[0])
	if err != nil {
		return nil, err
	}
	y, err := numberArg("pow", args[1])
	if err != nil {
		return nil, err
	}
	return value.NewNumber(math.Pow(x, y)), nil
}

// numbers accepts either a single array argument or the numbers themselves.
func numbers(name string, args []value.Value) ([]float64, error) {
	items := args
	if len(args) == 1 {
		if a, ok := args[0].(value.Array); ok {
			items = a.Items
		}
	}
	if len(items) == 0 {
		return nil, argError(name, "needs at least one number")
	}
	out := make([]float64, len(items))
	for i, it := range items {
		n, err := numberArg(name, it)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// min(a, b, ...) or min(list) → smallest number
func stdlibMin(args []value.Value) (value.Value, error) {
	ns, err := numbers("min", args)
	if err != nil {
		return nil, err
	}
	lo := math.Inf(1)
	for _, n := range ns {
		lo = math.Min(lo, n)
	}
	return value.NewNumber(lo), nil
}

// max(a, b, ...) or max(list) → largest number
func stdlibMax(args []value.Value) (value.Value, error) {
	ns, err := numbers("max", args)
	if err != nil {
		return nil, err
	}
	hi := math.Inf(-1)
	for _, n := range ns {
		hi = math.Max(hi, n)
	}
	return value.NewNumber(hi), nil
}

// sum(list) → total; 0 for an empty list
func stdlibSum(args []value.Value) (value.Value, error) {
	items, err := arrayArg("sum", args[0])
	if err != nil {
		return nil, err
	}
	total := 0.0
	for _, it := range items {
		n, err := numberArg("sum", it)
		if err != nil {
			return nil, err
		}
		total += n
	}
	return value.NewNumber(total), nil
}
