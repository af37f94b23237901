package stdlib

import (
	"bytes"
	"strings"

	"github.com/thomasrohde/dscript/pkg/value"
)

// contains(in, v) → substring, element membership, map key, or byte
// sub-sequence check
func stdlibContains(args []value.Value) (value.Value, error) {
	needle := args[1]
	switch in := args[0].(type) {
	case value.String:
		s, ok := needle.(value.String)
		if !ok {
			return value.NewBool(false), nil
		}
		return value.NewBool(strings.Contains(in.Value, s.Value)), nil

	case value.Array:
		for _, it := range in.Items {
			if value.Equal(it, needle) {
				return value.NewBool(true), nil
			}
		}
		return value.NewBool(false), nil

	case value.Map:
		s, ok := needle.(value.String)
		if !ok {
			return value.NewBool(false), nil
		}
		return value.NewBool(in.Has(s.Value)), nil

	case value.Bytes:
		b, ok := needle.(value.Bytes)
		if !ok {
			return value.NewBool(false), nil
		}
		return value.NewBool(bytes.Contains(in.Data(), b.Data())), nil
	}
	return nil, argError("contains", "cannot search in %s", value.TypeName(args[0]))
}
