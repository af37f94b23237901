package stdlib

import (
	"github.com/thomasrohde/dscript/pkg/value"
)

// keys(m) → list of keys in insertion order
func stdlibKeys(args []value.Value) (value.Value, error) {
	m, err := mapArg("keys", args[0])
	if err != nil {
		return nil, err
	}
	keys := m.Keys()
	items := make([]value.Value, len(keys))
	for i, k := range keys {
		items[i] = value.NewString(k)
	}
	return value.NewArray(items), nil
}

// values(m) → list of values in insertion order
func stdlibValues(args []value.Value) (value.Value, error) {
	m, err := mapArg("values", args[0])
	if err != nil {
		return nil, err
	}
	pairs := m.Pairs()
	items := make([]value.Value, len(pairs))
	for i, kv := range pairs {
		items[i] = kv.Value
	}
	return value.NewArray(items), nil
}

// has(m, key) → bool
func stdlibHas(args []value.Value) (value.Value, error) {
	m, err := mapArg("has", args[0])
	if err != nil {
		return nil, err
	}
	k, err := stringArg("has", args[1])
	if err != nil {
		return nil, err
	}
	return value.NewBool(m.Has(k)), nil
}

// remove(m, key) → map without key
func stdlibRemove(args []value.Value) (value.Value, error) {
	m, err := mapArg("remove", args[0])
	if err != nil {
		return nil, err
	}
	k, err := stringArg("remove", args[1])
	if err != nil {
		return nil, err
	}
	return m.Without(k), nil
}

// merge(a, b) → map (b wins on conflicts, new keys appended)
func stdlibMerge(args []value.Value) (value.Value, error) {
	a, err := mapArg("merge", args[0])
	if err != nil {
		return nil, err
	}
	b, err := mapArg("merge", args[1])
	if err != nil {
		return nil, err
	}
	out := a
	for _, kv := range b.Pairs() {
		out = out.With(kv.Key, kv.Value)
	}
	return out, nil
}

// entries(m) → list of {key, value} maps
func stdlibEntries(args []value.Value) (value.Value, error) {
	m, err := mapArg("entries", args[0])
	if err != nil {
		return nil, err
	}
	pairs := m.Pairs()
	items := make([]value.Value, len(pairs))
	for i, kv := range pairs {
		items[i] = value.NewMap(
			value.KeyValue{Key: "key", Value: value.NewString(kv.Key)},
			value.KeyValue{Key: "value", Value: kv.Value},
		)
	}
	return value.NewArray(items), nil
}
