package mustache

import (
	"strconv"
	"strings"
)

// Context is the stack of values that names are resolved against. The
// innermost (most recently pushed) value is searched first.
//
// A Context is not safe for concurrent mutation. Renderers clone the
// caller's context before use, so one Context may back many renders.
type Context struct {
	frames []Value
}

// NewContext returns a context holding values, outermost first. Each value is
// converted with FromGo.
func NewContext(values ...any) *Context {
	c := &Context{frames: make([]Value, 0, len(values)+4)}
	for _, v := range values {
		c.frames = append(c.frames, FromGo(v))
	}
	return c
}

// Push makes v the innermost value.
func (c *Context) Push(v any) {
	c.frames = append(c.frames, FromGo(v))
}

// Pop removes and returns the innermost value, or NullValue if the stack is
// empty.
func (c *Context) Pop() Value {
	if len(c.frames) == 0 {
		return NullValue{}
	}
	v := c.frames[len(c.frames)-1]
	c.frames[len(c.frames)-1] = nil
	c.frames = c.frames[:len(c.frames)-1]
	return v
}

// Top returns the innermost value without removing it.
func (c *Context) Top() Value {
	if len(c.frames) == 0 {
		return NullValue{}
	}
	return c.frames[len(c.frames)-1]
}

// Len returns the stack depth.
func (c *Context) Len() int { return len(c.frames) }

// Clone returns a copy of the stack. The values themselves are shared.
func (c *Context) Clone() *Context {
	if c == nil {
		return NewContext()
	}
	frames := make([]Value, len(c.frames), len(c.frames)+4)
	copy(frames, c.frames)
	return &Context{frames: frames}
}

// Get resolves a tag name.
//
// "." is the innermost value. Otherwise the name is split on "." and the
// first segment is looked up in each mapping from the innermost value out;
// the first hit wins. Remaining segments are then resolved strictly against
// that result, with no further fallback to outer values. A numeric segment
// after the first selects an element of a sequence.
func (c *Context) Get(name string) (Value, bool) {
	if name == "." {
		if len(c.frames) == 0 {
			return nil, false
		}
		return c.Top(), true
	}

	first, rest, dotted := strings.Cut(name, ".")
	var v Value
	found := false
	for i := len(c.frames) - 1; i >= 0; i-- {
		m, ok := c.frames[i].(Mapping)
		if !ok {
			continue
		}
		if v, found = m.Lookup(first); found {
			break
		}
	}
	if !found {
		return nil, false
	}
	if !dotted {
		return v, true
	}
	for _, seg := range strings.Split(rest, ".") {
		if v, found = child(v, seg); !found {
			return nil, false
		}
	}
	return v, true
}

func child(v Value, seg string) (Value, bool) {
	switch t := v.(type) {
	case Mapping:
		return t.Lookup(seg)
	case Sequence:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= t.Len() {
			return nil, false
		}
		return t.Index(i), true
	}
	return nil, false
}
