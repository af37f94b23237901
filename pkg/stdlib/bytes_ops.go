package stdlib

import (
	"encoding/hex"
	"strings"

	"github.com/thomasrohde/dscript/pkg/value"
)

// RegisterBytes adds byte-string functions.
func RegisterBytes(r *Registry) {
	r.Register(Fn{Name: "bytes", Arity: 1, Execute: stdlibBytes})
	r.Register(Fn{Name: "hex", Arity: 1, Execute: stdlibHex})
	r.Register(Fn{Name: "unhex", Arity: 1, Execute: stdlibUnhex})
	r.Register(Fn{Name: "bytelen", Arity: 1, Execute: stdlibByteLen})
}

// bytes(v) → bytes from a string (UTF-8) or an array of 0..255 integers
func stdlibBytes(args []value.Value) (value.Value, error) {
	switch v := args[0].(type) {
	case value.Bytes:
		return v, nil
	case value.String:
		return value.NewBytes([]byte(v.Value)), nil
	case value.Array:
		out := make([]byte, len(v.Items))
		for i, it := range v.Items {
			n, err := intArg("bytes", it)
			if err != nil {
				return nil, err
			}
			if n < 0 || n > 255 {
				return nil, argError("bytes", "element %d out of byte range: %d", i, n)
			}
			out[i] = byte(n)
		}
		return value.NewBytes(out), nil
	}
	return nil, argError("bytes", "cannot convert %s to bytes", value.TypeName(args[0]))
}

// hex(b) → "0x"-prefixed lowercase hex string
func stdlibHex(args []value.Value) (value.Value, error) {
	b, ok := args[0].(value.Bytes)
	if !ok {
		return nil, argError("hex", "expected bytes, got %s", value.TypeName(args[0]))
	}
	return value.NewString("0x" + hex.EncodeToString(b.Data())), nil
}

// unhex(s) → bytes; the "0x" prefix is optional
func stdlibUnhex(args []value.Value) (value.Value, error) {
	s, err := stringArg("unhex", args[0])
	if err != nil {
		return nil, err
	}
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, argError("unhex", "invalid hex string %q", s)
	}
	return value.NewBytes(b), nil
}

// bytelen(b) → number of bytes
func stdlibByteLen(args []value.Value) (value.Value, error) {
	b, ok := args[0].(value.Bytes)
	if !ok {
		return nil, argError("bytelen", "expected bytes, got %s", value.TypeName(args[0]))
	}
	return value.NewNumber(float64(b.Len())), nil
}
