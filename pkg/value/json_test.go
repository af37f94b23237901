package value_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/dscript/pkg/value"
)

// valueComparer lets cmp compare maps with unexported fields through value.Equal.
var valueComparer = cmp.Comparer(func(a, b value.Map) bool {
	return value.Equal(a, b)
})

func TestEncodeSnapshotOrderAndIntegers(t *testing.T) {
	m := value.NewMap(
		value.KeyValue{Key: "z", Value: num(3)},
		value.KeyValue{Key: "a", Value: num(1.5)},
		value.KeyValue{Key: "s", Value: str("x")},
		value.KeyValue{Key: "n", Value: value.NewNull()},
		value.KeyValue{Key: "xs", Value: arr(num(1), value.NewBool(true))},
	)
	b, err := value.EncodeSnapshot(m)
	require.NoError(t, err)
	assert.Equal(t, `{"z":3,"a":1.5,"s":"x","n":null,"xs":[1,true]}`, string(b))
}

func TestSnapshotRoundTrip(t *testing.T) {
	mat, err := value.NewMatrix([][]value.Value{{num(1), num(2)}, {num(3), num(4)}})
	require.NoError(t, err)

	m := value.NewMap(
		value.KeyValue{Key: "bytes", Value: value.NewBytes([]byte{0, 255})},
		value.KeyValue{Key: "mat", Value: mat},
		value.KeyValue{Key: "fn", Value: value.NewFuncRef("handler")},
		value.KeyValue{Key: "obj", Value: value.NewInstance("Point", "abc")},
		value.KeyValue{Key: "Point.abc", Value: value.NewMap(value.KeyValue{Key: "x", Value: num(1)})},
		value.KeyValue{Key: "inf", Value: num(math.Inf(-1))},
		value.KeyValue{Key: "tricky", Value: value.NewMap(value.KeyValue{Key: "$bytes", Value: str("not hex")})},
		value.KeyValue{Key: "cls", Value: value.Class{Name: "Point", Methods: []string{"init", "move"}}},
	)

	b, err := value.EncodeSnapshot(m)
	require.NoError(t, err)

	back, err := value.DecodeSnapshot(b)
	require.NoError(t, err)

	assert.Equal(t, m.Keys(), back.Keys())
	if diff := cmp.Diff(m, back, valueComparer); diff != "" {
		t.Errorf("snapshot round trip mismatch (-want +got):\n%s", diff)
	}

	tricky, _ := back.Get("tricky")
	assert.Equal(t, value.KindMap, tricky.Kind(), "tag-like user keys stay maps")
}

func TestNaNRoundTrip(t *testing.T) {
	b, err := value.Encode(num(math.NaN()))
	require.NoError(t, err)
	assert.Equal(t, `{"$number":"NaN"}`, string(b))

	v, err := value.Decode(b)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v.(value.Number).Value))
}

func TestDecodeErrors(t *testing.T) {
	for _, in := range []string{
		`[1,2]`,
		`{"a":`,
		`{"a":1} {"b":2}`,
		`{"x":{"$bytes":"zz"}}`,
		`{"x":{"$matrix":[[1],[1,2]]}}`,
		`{"x":{"$number":"huge"}}`,
	} {
		_, err := value.DecodeSnapshot([]byte(in))
		assert.Error(t, err, in)
	}
}
