package mustache

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Kind identifies which variant of Value a context value is. Name resolution
// and section expansion only ever inspect the kind, never the Go type the
// value was converted from.
type Kind int

const (
	KindNull Kind = iota
	KindScalar
	KindMapping
	KindSequence
	KindLambda
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindScalar:
		return "scalar"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	case KindLambda:
		return "lambda"
	default:
		return "unknown"
	}
}

// Value is a context value. The set of implementations is closed; use FromGo
// to convert native Go values.
type Value interface {
	Kind() Kind
	String() string
	value()
}

// Mapping is a Value with named entries.
type Mapping interface {
	Value
	Lookup(name string) (Value, bool)
}

// Sequence is an ordered list of Values.
type Sequence interface {
	Value
	Len() int
	Index(i int) Value
}

// NullValue represents the absence of a value.
type NullValue struct{}

func (NullValue) Kind() Kind     { return KindNull }
func (NullValue) String() string { return "" }
func (NullValue) value()         {}

// StringValue wraps a string.
type StringValue string

func (StringValue) Kind() Kind       { return KindScalar }
func (s StringValue) String() string { return string(s) }
func (StringValue) value()           {}

// BytesValue holds undecoded text. It is decoded with the render options'
// encoding and error policy when interpolated.
type BytesValue []byte

func (BytesValue) Kind() Kind       { return KindScalar }
func (b BytesValue) String() string { return string(b) }
func (BytesValue) value()           {}

// IntValue wraps a signed integer.
type IntValue int64

func (IntValue) Kind() Kind       { return KindScalar }
func (i IntValue) String() string { return strconv.FormatInt(int64(i), 10) }
func (IntValue) value()           {}

// UintValue wraps an unsigned integer.
type UintValue uint64

func (UintValue) Kind() Kind       { return KindScalar }
func (u UintValue) String() string { return strconv.FormatUint(uint64(u), 10) }
func (UintValue) value()           {}

// FloatValue wraps a float.
type FloatValue float64

func (FloatValue) Kind() Kind { return KindScalar }
func (FloatValue) value()     {}

func (f FloatValue) String() string {
	v := float64(f)
	if a := math.Abs(v); a != 0 && (a < 1e-6 || a >= 1e21) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// BoolValue wraps a boolean.
type BoolValue bool

func (BoolValue) Kind() Kind { return KindScalar }
func (BoolValue) value()     {}

func (b BoolValue) String() string {
	if b {
		return "true"
	}
	return "false"
}

// MapValue is a string-keyed Mapping.
type MapValue map[string]Value

func (MapValue) Kind() Kind     { return KindMapping }
func (MapValue) String() string { return "{...}" }
func (MapValue) value()         {}

// Lookup implements Mapping.
func (m MapValue) Lookup(name string) (Value, bool) {
	v, ok := m[name]
	if ok && v == nil {
		return NullValue{}, true
	}
	return v, ok
}

// ListValue is a Sequence.
type ListValue []Value

func (ListValue) Kind() Kind { return KindSequence }
func (ListValue) value()     {}

func (l ListValue) String() string {
	parts := make([]string, len(l))
	for i, v := range l {
		if v != nil {
			parts[i] = v.String()
		}
	}
	return strings.Join(parts, ",")
}

// Len implements Sequence.
func (l ListValue) Len() int { return len(l) }

// Index implements Sequence.
func (l ListValue) Index(i int) Value {
	if l[i] == nil {
		return NullValue{}
	}
	return l[i]
}

// LambdaValue is a callable context value. As a section value it receives
// the section's unrendered text; as a variable it receives "". Its result is
// rendered as a template.
type LambdaValue func(text string) (string, error)

func (LambdaValue) Kind() Kind     { return KindLambda }
func (LambdaValue) String() string { return "<lambda>" }
func (LambdaValue) value()         {}

// Lambda adapts an infallible function into a LambdaValue.
func Lambda(fn func(text string) string) LambdaValue {
	return func(text string) (string, error) {
		return fn(text), nil
	}
}

// Truthy reports whether v makes a section render. Null, false and empty
// sequences are falsy; everything else, including "" and 0, is truthy.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case nil, NullValue:
		return false
	case BoolValue:
		return bool(t)
	case Sequence:
		return t.Len() > 0
	default:
		return true
	}
}

// objectValue exposes a struct (or pointer to struct) as a Mapping. Names
// resolve to exported fields, then to methods.
type objectValue struct {
	rv reflect.Value
}

func (objectValue) Kind() Kind { return KindMapping }
func (objectValue) value()     {}

func (o objectValue) String() string {
	return fmt.Sprint(o.rv.Interface())
}

// Lookup implements Mapping. Fields match by `mustache` struct tag, exact
// name, then case-insensitively. Methods must take no arguments and return
// one value, or a value and an error; a non-nil error counts as a miss.
func (o objectValue) Lookup(name string) (Value, bool) {
	sv := reflect.Indirect(o.rv)
	if sv.Kind() == reflect.Struct {
		if f, ok := structField(sv, name); ok {
			return FromGo(f.Interface()), true
		}
	}

	m := o.rv.MethodByName(name)
	if !m.IsValid() && o.rv.Kind() != reflect.Pointer && o.rv.CanAddr() {
		m = o.rv.Addr().MethodByName(name)
	}
	if !m.IsValid() {
		return nil, false
	}
	mt := m.Type()
	if mt.NumIn() != 0 {
		// Methods taking the section text are lambdas.
		if v := FromGo(m.Interface()); v.Kind() == KindLambda {
			return v, true
		}
		return nil, false
	}
	switch mt.NumOut() {
	case 1:
		return FromGo(m.Call(nil)[0].Interface()), true
	case 2:
		if !mt.Out(1).Implements(errorType) {
			return nil, false
		}
		out := m.Call(nil)
		if !out[1].IsNil() {
			return nil, false
		}
		return FromGo(out[0].Interface()), true
	}
	return nil, false
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func structField(sv reflect.Value, name string) (reflect.Value, bool) {
	st := sv.Type()
	fold := -1
	for i := 0; i < st.NumField(); i++ {
		sf := st.Field(i)
		if !sf.IsExported() {
			continue
		}
		if tag, ok := sf.Tag.Lookup("mustache"); ok {
			if tag == "-" {
				continue
			}
			if tag == name {
				return sv.Field(i), true
			}
		}
		if sf.Name == name {
			return sv.Field(i), true
		}
		if fold < 0 && strings.EqualFold(sf.Name, name) {
			fold = i
		}
	}
	if fold >= 0 {
		return sv.Field(fold), true
	}
	// Promoted fields of embedded structs.
	if f, ok := st.FieldByName(name); ok && f.IsExported() && len(f.Index) > 1 {
		if fv, err := sv.FieldByIndexErr(f.Index); err == nil && fv.CanInterface() {
			return fv, true
		}
	}
	return reflect.Value{}, false
}

var (
	lambdaFuncType = reflect.TypeOf(func(string) string(nil))
	lambdaErrType  = reflect.TypeOf(func(string) (string, error)(nil))
	thunkFuncType  = reflect.TypeOf(func() string(nil))
)

// FromGo converts a Go value to a Value. Maps and slices are converted
// eagerly; structs are wrapped and their fields converted on lookup.
func FromGo(v any) Value {
	if v == nil {
		return NullValue{}
	}
	switch t := v.(type) {
	case Value:
		return t
	case error:
		return StringValue(t.Error())
	case string:
		return StringValue(t)
	case []byte:
		return BytesValue(t)
	case bool:
		return BoolValue(t)
	case int:
		return IntValue(int64(t))
	case int32:
		return IntValue(int64(t))
	case int64:
		return IntValue(t)
	case float64:
		return FloatValue(t)
	case func(string) string:
		return Lambda(t)
	case func(string) (string, error):
		return LambdaValue(t)
	case func() string:
		return Lambda(func(string) string { return t() })
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return BoolValue(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if s, ok := v.(fmt.Stringer); ok {
			return StringValue(s.String())
		}
		return IntValue(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if s, ok := v.(fmt.Stringer); ok {
			return StringValue(s.String())
		}
		return UintValue(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return FloatValue(rv.Float())
	case reflect.String:
		if s, ok := v.(fmt.Stringer); ok {
			return StringValue(s.String())
		}
		return StringValue(rv.String())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return ListValue{}
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 && rv.Kind() == reflect.Slice {
			return BytesValue(rv.Bytes())
		}
		out := make(ListValue, rv.Len())
		for i := range out {
			out[i] = FromGo(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(MapValue, rv.Len())
		it := rv.MapRange()
		for it.Next() {
			k := it.Key()
			var key string
			if k.Kind() == reflect.String {
				key = k.String()
			} else {
				key = fmt.Sprint(k.Interface())
			}
			out[key] = FromGo(it.Value().Interface())
		}
		return out
	case reflect.Struct:
		return objectValue{rv: rv}
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return NullValue{}
		}
		if rv.Kind() == reflect.Pointer && rv.Elem().Kind() == reflect.Struct {
			return objectValue{rv: rv}
		}
		return FromGo(rv.Elem().Interface())
	case reflect.Func:
		if rv.IsNil() {
			return NullValue{}
		}
		switch {
		case rv.Type().ConvertibleTo(lambdaErrType):
			return LambdaValue(rv.Convert(lambdaErrType).Interface().(func(string) (string, error)))
		case rv.Type().ConvertibleTo(lambdaFuncType):
			return Lambda(rv.Convert(lambdaFuncType).Interface().(func(string) string))
		case rv.Type().ConvertibleTo(thunkFuncType):
			fn := rv.Convert(thunkFuncType).Interface().(func() string)
			return Lambda(func(string) string { return fn() })
		}
		return NullValue{}
	}
	return StringValue(fmt.Sprint(v))
}
