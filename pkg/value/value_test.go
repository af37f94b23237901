package value_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/dscript/pkg/diagnostics"
	"github.com/thomasrohde/dscript/pkg/value"
)

func num(n float64) value.Value { return value.NewNumber(n) }
func str(s string) value.Value  { return value.NewString(s) }

func arr(items ...value.Value) value.Value { return value.NewArray(items) }

func TestTruthy(t *testing.T) {
	tests := []struct {
		value    value.Value
		expected bool
	}{
		{value.NewNull(), false},
		{value.NewBool(false), false},
		{value.NewBool(true), true},
		{num(0), false},
		{num(-1), true},
		{str(""), false},
		{str("x"), true},
		{value.NewFuncRef(""), false},
		{value.NewFuncRef("f"), true},
		{value.NewBytes(nil), false},
		{value.NewBytes([]byte{0}), true},
		{arr(), false},
		{arr(num(1)), true},
		{value.NewMap(), false},
		{value.NewMap(value.KeyValue{Key: "a", Value: num(1)}), true},
		{value.Class{Name: "C"}, true},
		{value.NewInstance("C", "u"), true},
	}

	for i, tt := range tests {
		assert.Equal(t, tt.expected, value.Truthy(tt.value), "case %d: %s", i, value.Format(tt.value))
	}
}

func TestEqual(t *testing.T) {
	m1 := value.NewMap(value.KeyValue{Key: "a", Value: num(1)}, value.KeyValue{Key: "b", Value: num(2)})
	m2 := value.NewMap(value.KeyValue{Key: "b", Value: num(2)}, value.KeyValue{Key: "a", Value: num(1)})

	assert.True(t, value.Equal(num(1), num(1)))
	assert.False(t, value.Equal(num(1), str("1")))
	assert.True(t, value.Equal(str("f"), value.NewFuncRef("f")), "string and funcref compare by text")
	assert.True(t, value.Equal(value.NewBytes([]byte{1, 2}), value.NewBytes([]byte{1, 2})))
	assert.True(t, value.Equal(arr(num(1), arr(num(2))), arr(num(1), arr(num(2)))))
	assert.False(t, value.Equal(arr(num(1)), arr(num(1), num(2))))
	assert.True(t, value.Equal(m1, m2), "map equality ignores order")
	assert.True(t, value.Equal(value.NewNull(), nil))
	assert.False(t, value.Equal(value.NewNull(), value.NewBool(false)))
	assert.True(t, value.Equal(value.NewInstance("C", "1"), value.NewInstance("C", "1")))
	assert.False(t, value.Equal(value.NewInstance("C", "1"), value.NewInstance("C", "2")))
	assert.False(t, value.Equal(num(math.NaN()), num(math.NaN())))
}

func TestBytesAreCopied(t *testing.T) {
	src := []byte{1, 2, 3}
	b := value.NewBytes(src)
	src[0] = 9

	got, err := value.AsBytes(b)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)

	got[1] = 9
	again, _ := value.AsBytes(b)
	assert.Equal(t, []byte{1, 2, 3}, again)
}

func TestMatrixMustBeRectangular(t *testing.T) {
	_, err := value.NewMatrix([][]value.Value{{num(1), num(2)}, {num(3)}})
	require.Error(t, err)
	assert.True(t, diagnostics.HasCode(err, diagnostics.EType))

	m, err := value.NewMatrix([][]value.Value{{num(1), num(2)}, {num(3), num(4)}})
	require.NoError(t, err)
	assert.Equal(t, 2, m.(value.Matrix).Cols())
}

func TestMapOrderAndCopies(t *testing.T) {
	m := value.NewMap(
		value.KeyValue{Key: "b", Value: num(2)},
		value.KeyValue{Key: "a", Value: num(1)},
	)
	m2 := m.With("c", num(3))
	m3 := m2.With("b", num(20))

	assert.Equal(t, []string{"b", "a"}, m.Keys(), "With never mutates the receiver")
	assert.Equal(t, []string{"b", "a", "c"}, m2.Keys())
	assert.Equal(t, []string{"b", "a", "c"}, m3.Keys(), "overwrite keeps position")

	v, _ := m2.Get("b")
	assert.True(t, value.Equal(num(2), v))

	m4 := m3.Without("a")
	assert.Equal(t, []string{"b", "c"}, m4.Keys())
	assert.Equal(t, 3, m3.Len())
}

func TestAccessorsFailOnMismatch(t *testing.T) {
	_, err := value.AsNumber(str("x"))
	require.Error(t, err)
	assert.True(t, diagnostics.HasCode(err, diagnostics.EType))
	assert.Contains(t, err.Error(), "expected number, got string")

	_, err = value.AsInt(num(1.5))
	assert.True(t, diagnostics.HasCode(err, diagnostics.EType))

	n, err := value.AsInt(num(4))
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = value.AsInt(num(1e19))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")

	s, err := value.AsString(value.NewFuncRef("f"))
	require.NoError(t, err)
	assert.Equal(t, "f", s)

	_, err = value.AsMap(arr())
	assert.Error(t, err)
	_, err = value.AsInstance(value.NewMap())
	assert.Error(t, err)
}

func TestIsInteger(t *testing.T) {
	assert.True(t, value.IsInteger(0))
	assert.True(t, value.IsInteger(-42))
	assert.True(t, value.IsInteger(1e19))
	assert.False(t, value.IsInteger(1.5))
	assert.False(t, value.IsInteger(math.Inf(1)))
	assert.False(t, value.IsInteger(math.NaN()))
}

func TestDeepCopyIsIndependent(t *testing.T) {
	inner := arr(num(1))
	orig := value.NewMap(value.KeyValue{Key: "xs", Value: inner})
	cp := value.DeepCopy(orig).(value.Map)

	xs, _ := cp.Get("xs")
	xs.(value.Array).Items[0] = num(99)

	back, _ := orig.Get("xs")
	assert.True(t, value.Equal(arr(num(1)), back))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		v    value.Value
		want string
	}{
		{num(5), "5"},
		{num(2.5), "2.5"},
		{num(-0.125), "-0.125"},
		{num(1e21), "1e+21"},
		{num(math.NaN()), "NaN"},
		{num(math.Inf(1)), "Infinity"},
		{str("hi"), "hi"},
		{arr(num(1), str("a")), `[1, "a"]`},
		{value.NewMap(value.KeyValue{Key: "k", Value: value.NewBool(true)}), `{"k": true}`},
		{value.NewBytes([]byte{0xde, 0xad}), "0xdead"},
		{value.NewNull(), "null"},
		{value.NewFuncRef("f"), "f"},
		{value.NewInstance("P", "id"), "<P id>"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, value.Format(tt.v))
	}
}

func TestFromNative(t *testing.T) {
	v, err := value.FromNative(map[string]any{
		"z":    1,
		"a":    []any{"x", true, nil},
		"m":    map[string]any{"k": 2.5},
		"blob": []byte{7},
	})
	require.NoError(t, err)
	m := v.(value.Map)
	assert.Equal(t, []string{"a", "blob", "m", "z"}, m.Keys(), "keys sorted for determinism")

	_, err = value.FromNative(map[any]any{1: "x"})
	assert.Error(t, err)

	_, err = value.FromNative(struct{}{})
	assert.Error(t, err)
}

func TestToNativeRoundTrip(t *testing.T) {
	native := map[string]any{"a": []any{1.0, "x"}, "b": map[string]any{"c": false}}
	v, err := value.FromNative(native)
	require.NoError(t, err)
	if diff := cmp.Diff(native, value.ToNative(v)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
