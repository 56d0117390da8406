package starlark

import (
	"fmt"

	"github.com/neurodesk/mustache/pkg/mustache"
	"go.starlark.net/starlark"
)

// ConvertToStarlark converts a mustache Value to a Starlark value
func ConvertToStarlark(val mustache.Value) starlark.Value {
	if val == nil {
		return starlark.None
	}

	switch v := val.(type) {
	case mustache.NullValue:
		return starlark.None
	case mustache.StringValue:
		return starlark.String(string(v))
	case mustache.BytesValue:
		return starlark.Bytes(string(v))
	case mustache.IntValue:
		return starlark.MakeInt64(int64(v))
	case mustache.UintValue:
		return starlark.MakeUint64(uint64(v))
	case mustache.FloatValue:
		return starlark.Float(float64(v))
	case mustache.BoolValue:
		return starlark.Bool(bool(v))
	case mustache.MapValue:
		dict := starlark.NewDict(len(v))
		for key, value := range v {
			dict.SetKey(starlark.String(key), ConvertToStarlark(value))
		}
		return dict
	case mustache.Mapping:
		return MappingWrapper{Mapping: v}
	case mustache.Sequence:
		items := make([]starlark.Value, v.Len())
		for i := range items {
			items[i] = ConvertToStarlark(v.Index(i))
		}
		return starlark.NewList(items)
	case mustache.LambdaValue:
		return starlark.NewBuiltin("lambda", func(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var text string
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 0, &text); err != nil {
				return nil, err
			}
			out, err := v(text)
			if err != nil {
				return nil, err
			}
			return starlark.String(out), nil
		})
	default:
		// For unknown types, convert to string
		return starlark.String(val.String())
	}
}

// ConvertFromStarlark converts a Starlark value to a mustache Value.
// Callables become lambdas.
func ConvertFromStarlark(val starlark.Value) mustache.Value {
	if val == nil || val == starlark.None {
		return mustache.NullValue{}
	}

	switch v := val.(type) {
	case starlark.String:
		return mustache.StringValue(string(v))
	case starlark.Bytes:
		return mustache.BytesValue(string(v))
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return mustache.IntValue(i)
		}
		if u, ok := v.Uint64(); ok {
			return mustache.UintValue(u)
		}
		// For very large integers, convert to string
		return mustache.StringValue(v.String())
	case starlark.Float:
		return mustache.FloatValue(float64(v))
	case starlark.Bool:
		return mustache.BoolValue(bool(v))
	case *starlark.List:
		items := make(mustache.ListValue, v.Len())
		for i := 0; i < v.Len(); i++ {
			items[i] = ConvertFromStarlark(v.Index(i))
		}
		return items
	case starlark.Tuple:
		items := make(mustache.ListValue, len(v))
		for i, item := range v {
			items[i] = ConvertFromStarlark(item)
		}
		return items
	case *starlark.Dict:
		dict := make(mustache.MapValue, v.Len())
		for _, item := range v.Items() {
			key := item[0]
			value := item[1]
			if keyStr, ok := key.(starlark.String); ok {
				dict[string(keyStr)] = ConvertFromStarlark(value)
			} else {
				dict[key.String()] = ConvertFromStarlark(value)
			}
		}
		return dict
	case MappingWrapper:
		return v.Mapping
	case starlark.Callable:
		return Lambda(v)
	default:
		// For unknown types, convert to string
		return mustache.StringValue(val.String())
	}
}

// Lambda wraps a Starlark callable as a mustache lambda. Functions declaring
// no parameters are called without the section text. Each call runs on its
// own thread, but only callables that are pure or touch frozen values are
// safe to share between concurrent renders; a function that mutates an
// unfrozen global races.
func Lambda(fn starlark.Callable) mustache.LambdaValue {
	wantsText := true
	if f, ok := fn.(*starlark.Function); ok && f.NumParams() == 0 {
		wantsText = false
	}
	return func(text string) (string, error) {
		thread := &starlark.Thread{Name: "mustache-lambda"}
		var args starlark.Tuple
		if wantsText {
			args = starlark.Tuple{starlark.String(text)}
		}
		res, err := starlark.Call(thread, fn, args, nil)
		if err != nil {
			return "", fmt.Errorf("calling %s: %w", fn.Name(), err)
		}
		if s, ok := res.(starlark.String); ok {
			return string(s), nil
		}
		return ConvertFromStarlark(res).String(), nil
	}
}

// MappingWrapper exposes a mustache Mapping to Starlark code, both as
// m["key"] and as m.key.
type MappingWrapper struct {
	Mapping mustache.Mapping
}

var (
	_ starlark.Mapping  = MappingWrapper{}
	_ starlark.HasAttrs = MappingWrapper{}
)

func (w MappingWrapper) String() string        { return w.Mapping.String() }
func (w MappingWrapper) Type() string          { return "mustache.mapping" }
func (w MappingWrapper) Freeze()               {}
func (w MappingWrapper) Truth() starlark.Bool  { return starlark.True }
func (w MappingWrapper) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: %s", w.Type()) }

func (w MappingWrapper) Get(k starlark.Value) (starlark.Value, bool, error) {
	key, ok := k.(starlark.String)
	if !ok {
		return nil, false, nil
	}
	v, ok := w.Mapping.Lookup(string(key))
	if !ok {
		return nil, false, nil
	}
	return ConvertToStarlark(v), true, nil
}

func (w MappingWrapper) Attr(name string) (starlark.Value, error) {
	v, ok := w.Mapping.Lookup(name)
	if !ok {
		return nil, nil
	}
	return ConvertToStarlark(v), nil
}

func (w MappingWrapper) AttrNames() []string { return nil }

// WrapContext converts a mapping of mustache values into Starlark globals.
func WrapContext(ctx mustache.MapValue) starlark.StringDict {
	wrapped := make(starlark.StringDict, len(ctx))
	for key, value := range ctx {
		wrapped[key] = ConvertToStarlark(value)
	}
	return wrapped
}
