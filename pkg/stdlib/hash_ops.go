package stdlib

import (
	"crypto/sha256"
	"hash"

	"golang.org/x/crypto/sha3"

	"github.com/thomasrohde/dscript/pkg/value"
)

// RegisterHash adds digest functions.
func RegisterHash(r *Registry) {
	r.Register(Fn{Name: "sha256", Arity: 1, Execute: digest("sha256", sha256.New)})
	r.Register(Fn{Name: "keccak256", Arity: 1, Execute: digest("keccak256", sha3.NewLegacyKeccak256)})
}

// digest hashes bytes, or the UTF-8 encoding of a string, returning bytes.
func digest(name string, newHash func() hash.Hash) func([]value.Value) (value.Value, error) {
	return func(args []value.Value) (value.Value, error) {
		var data []byte
		switch v := args[0].(type) {
		case value.Bytes:
			data = v.Data()
		case value.String:
			data = []byte(v.Value)
		default:
			return nil, argError(name, "expected bytes or string, got %s", value.TypeName(args[0]))
		}
		h := newHash()
		h.Write(data)
		return value.NewBytes(h.Sum(nil)), nil
	}
}
