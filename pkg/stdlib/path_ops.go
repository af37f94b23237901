package stdlib

import (
	"strconv"
	"strings"

	"github.com/thomasrohde/dscript/pkg/value"
)

// pathSegment is one step of "a.b[0].c": a map key or an array index.
type pathSegment struct {
	key   string
	index int
	isIdx bool
}

func parsePath(path string) []pathSegment {
	var segments []pathSegment
	for _, part := range strings.Split(path, ".") {
		for part != "" {
			open := strings.IndexByte(part, '[')
			if open < 0 {
				segments = append(segments, pathSegment{key: part})
				break
			}
			if open > 0 {
				segments = append(segments, pathSegment{key: part[:open]})
			}
			end := strings.IndexByte(part[open:], ']')
			if end < 0 {
				segments = append(segments, pathSegment{key: part[open:]})
				break
			}
			inner := part[open+1 : open+end]
			if idx, err := strconv.Atoi(inner); err == nil {
				segments = append(segments, pathSegment{index: idx, isIdx: true})
			} else {
				segments = append(segments, pathSegment{key: inner})
			}
			part = part[open+end+1:]
		}
	}
	return segments
}

func getByPath(v value.Value, segments []pathSegment) value.Value {
	cur := v
	for _, seg := range segments {
		if seg.isIdx {
			a, ok := cur.(value.Array)
			if !ok || seg.index < 0 || seg.index >= len(a.Items) {
				return value.NewNull()
			}
			cur = a.Items[seg.index]
			continue
		}
		m, ok := cur.(value.Map)
		if !ok {
			return value.NewNull()
		}
		next, found := m.Get(seg.key)
		if !found {
			return value.NewNull()
		}
		cur = next
	}
	if cur == nil {
		return value.NewNull()
	}
	return cur
}

// putByPath returns a copy of v with the value at segments replaced.
// Missing maps are created and arrays are padded with null.
func putByPath(v value.Value, segments []pathSegment, x value.Value) (value.Value, error) {
	if len(segments) == 0 {
		return x, nil
	}
	seg, rest := segments[0], segments[1:]
	if seg.isIdx {
		if seg.index < 0 {
			return nil, argError("setpath", "negative index %d", seg.index)
		}
		if seg.index > maxRange {
			return nil, argError("setpath", "index %d too large", seg.index)
		}
		var items []value.Value
		if a, ok := v.(value.Array); ok {
			items = append(items, a.Items...)
		}
		for len(items) <= seg.index {
			items = append(items, value.NewNull())
		}
		inner, err := putByPath(items[seg.index], rest, x)
		if err != nil {
			return nil, err
		}
		items[seg.index] = inner
		return value.NewArray(items), nil
	}
	m, _ := v.(value.Map)
	existing, found := m.Get(seg.key)
	if !found {
		existing = value.NewNull()
	}
	inner, err := putByPath(existing, rest, x)
	if err != nil {
		return nil, err
	}
	return m.With(seg.key, inner), nil
}

// getpath(v, "a.b[0]") → value at path, or null
func stdlibGetPath(args []value.Value) (value.Value, error) {
	path, err := stringArg("getpath", args[1])
	if err != nil {
		return nil, err
	}
	return getByPath(args[0], parsePath(path)), nil
}

// setpath(v, "a.b[0]", x) → copy of v with x at path
func stdlibSetPath(args []value.Value) (value.Value, error) {
	path, err := stringArg("setpath", args[1])
	if err != nil {
		return nil, err
	}
	return putByPath(args[0], parsePath(path), args[2])
}
