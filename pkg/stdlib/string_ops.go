package stdlib

import (
	"strconv"
	"strings"

	"github.com/thomasrohde/dscript/pkg/value"
)

// str(v) → display form of v
func stdlibStr(args []value.Value) (value.Value, error) {
	return value.NewString(value.Format(args[0])), nil
}

// num(v) → number parsed from a string, or the number itself
func stdlibNum(args []value.Value) (value.Value, error) {
	switch v := args[0].(type) {
	case value.Number:
		return v, nil
	case value.Bool:
		if v.Value {
			return value.NewNumber(1), nil
		}
		return value.NewNumber(0), nil
	case value.String:
		n, err := strconv.ParseFloat(strings.TrimSpace(v.Value), 64)
		if err != nil {
			return nil, argError("num", "%q is not a number", v.Value)
		}
		return value.NewNumber(n), nil
	}
	return nil, argError("num", "cannot convert %s to number", value.TypeName(args[0]))
}

// split(s, sep) → list of strings
func stdlibSplit(args []value.Value) (value.Value, error) {
	s, err := stringArg("split", args[0])
	if err != nil {
		return nil, err
	}
	sep, err := stringArg("split", args[1])
	if err != nil {
		return nil, err
	}
	parts := strings.Split(s, sep)
	items := make([]value.Value, len(parts))
	for i, p := range parts {
		items[i] = value.NewString(p)
	}
	return value.NewArray(items), nil
}

func stringMap(name string, f func(string) string) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		s, err := stringArg(name, args[0])
		if err != nil {
			return nil, err
		}
		return value.NewString(f(s)), nil
	}
}

var (
	stdlibUpper = stringMap("upper", strings.ToUpper)
	stdlibLower = stringMap("lower", strings.ToLower)
	stdlibTrim  = stringMap("trim", strings.TrimSpace)
)

func stringTest(name string, f func(s, x string) bool) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		s, err := stringArg(name, args[0])
		if err != nil {
			return nil, err
		}
		x, err := stringArg(name, args[1])
		if err != nil {
			return nil, err
		}
		return value.NewBool(f(s, x)), nil
	}
}

var (
	stdlibStarts = stringTest("starts", strings.HasPrefix)
	stdlibEnds   = stringTest("ends", strings.HasSuffix)
)

// replace(s, old, new) → s with every old replaced by new
func stdlibReplace(args []value.Value) (value.Value, error) {
	parts := make([]string, 3)
	for i, a := range args {
		s, err := stringArg("replace", a)
		if err != nil {
			return nil, err
		}
		parts[i] = s
	}
	return value.NewString(strings.ReplaceAll(parts[0], parts[1], parts[2])), nil
}
