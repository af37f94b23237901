package value

// KeyValue is a key-value pair in an ordered map.
type KeyValue struct {
	Key   string
	Value Value
}

// Map is an insertion-ordered, string-keyed map. Map values are treated as
// immutable: With and Without return updated copies. Set mutates in place
// and is only for maps the caller has just built.
type Map struct {
	pairs []KeyValue
	index map[string]int
}

func (Map) Kind() Kind { return KindMap }
func (Map) value()     {}

// NewMap creates a map from pairs. A repeated key keeps its first position
// and takes the last value.
func NewMap(pairs ...KeyValue) Map {
	m := Map{
		pairs: make([]KeyValue, 0, len(pairs)),
		index: make(map[string]int, len(pairs)),
	}
	for _, kv := range pairs {
		m.Set(kv.Key, kv.Value)
	}
	return m
}

// Len returns the number of entries.
func (m Map) Len() int {
	return len(m.pairs)
}

// Get retrieves a value by key.
func (m Map) Get(key string) (Value, bool) {
	i, ok := m.index[key]
	if !ok {
		return nil, false
	}
	return m.pairs[i].Value, true
}

// Has reports whether key is present.
func (m Map) Has(key string) bool {
	_, ok := m.index[key]
	return ok
}

// Keys returns all keys in insertion order.
func (m Map) Keys() []string {
	keys := make([]string, len(m.pairs))
	for i, kv := range m.pairs {
		keys[i] = kv.Key
	}
	return keys
}

// Pairs returns the entries in insertion order.
func (m Map) Pairs() []KeyValue {
	out := make([]KeyValue, len(m.pairs))
	copy(out, m.pairs)
	return out
}

// Set sets key in place, appending new keys at the end.
func (m *Map) Set(key string, val Value) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[key]; ok {
		m.pairs[i].Value = val
		return
	}
	m.index[key] = len(m.pairs)
	m.pairs = append(m.pairs, KeyValue{Key: key, Value: val})
}

// With returns a copy of m with key set to val.
func (m Map) With(key string, val Value) Map {
	out := m.clone(1)
	out.Set(key, val)
	return out
}

// Without returns a copy of m with key removed.
func (m Map) Without(key string) Map {
	if !m.Has(key) {
		return m
	}
	out := Map{pairs: make([]KeyValue, 0, len(m.pairs)), index: make(map[string]int, len(m.pairs))}
	for _, kv := range m.pairs {
		if kv.Key != key {
			out.Set(kv.Key, kv.Value)
		}
	}
	return out
}

// DeepCopy returns a copy of m whose values are deep copies.
func (m Map) DeepCopy() Map {
	out := Map{pairs: make([]KeyValue, len(m.pairs)), index: make(map[string]int, len(m.pairs))}
	for i, kv := range m.pairs {
		out.pairs[i] = KeyValue{Key: kv.Key, Value: DeepCopy(kv.Value)}
		out.index[kv.Key] = i
	}
	return out
}

func (m Map) clone(extra int) Map {
	out := Map{pairs: make([]KeyValue, len(m.pairs), len(m.pairs)+extra), index: make(map[string]int, len(m.pairs)+extra)}
	copy(out.pairs, m.pairs)
	for k, i := range m.index {
		out.index[k] = i
	}
	return out
}
