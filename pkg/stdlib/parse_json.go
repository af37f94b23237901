package stdlib

import (
	"github.com/thomasrohde/dscript/pkg/value"
)

// json_parse(s) → value; object key order is preserved
func stdlibJSONParse(args []value.Value) (value.Value, error) {
	s, err := stringArg("json_parse", args[0])
	if err != nil {
		return nil, err
	}
	v, err := value.Decode([]byte(s))
	if err != nil {
		return nil, argError("json_parse", "%s", err.Error())
	}
	return v, nil
}

// json_string(v) → JSON text
func stdlibJSONString(args []value.Value) (value.Value, error) {
	b, err := value.Encode(args[0])
	if err != nil {
		return nil, argError("json_string", "%s", err.Error())
	}
	return value.NewString(string(b)), nil
}
