package mustache

import (
	"errors"
	"testing"
)

type color int

func (c color) String() string { return [...]string{"red", "green"}[c] }

type shout func(string) string

func TestFromGoKinds(t *testing.T) {
	cases := []struct {
		name string
		in   any
		kind Kind
		str  string
	}{
		{"nil", nil, KindNull, ""},
		{"nil pointer", (*person)(nil), KindNull, ""},
		{"string", "s", KindScalar, "s"},
		{"bytes", []byte("b"), KindScalar, "b"},
		{"int", 42, KindScalar, "42"},
		{"int8", int8(-3), KindScalar, "-3"},
		{"uint", uint(7), KindScalar, "7"},
		{"float32", float32(0.5), KindScalar, "0.5"},
		{"whole float", 3.0, KindScalar, "3"},
		{"large float", 1e21, KindScalar, "1e+21"},
		{"bool", false, KindScalar, "false"},
		{"stringer", color(1), KindScalar, "green"},
		{"map", map[string]int{"a": 1}, KindMapping, "{...}"},
		{"int keyed map", map[int]string{1: "a"}, KindMapping, "{...}"},
		{"slice", []int{1, 2}, KindSequence, "1,2"},
		{"array", [2]string{"x", "y"}, KindSequence, "x,y"},
		{"nil slice", []string(nil), KindSequence, ""},
		{"struct", person{Name: "n"}, KindMapping, "{n 0 [] }"},
		{"lambda", func(s string) string { return s }, KindLambda, "<lambda>"},
		{"named lambda", shout(func(s string) string { return s + "!" }), KindLambda, "<lambda>"},
		{"value passthrough", StringValue("v"), KindScalar, "v"},
		{"unsupported func", func(int) int { return 0 }, KindNull, ""},
		{"nil named lambda", shout(nil), KindNull, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := FromGo(tc.in)
			if v.Kind() != tc.kind {
				t.Fatalf("kind = %s, want %s", v.Kind(), tc.kind)
			}
			if v.String() != tc.str {
				t.Fatalf("string = %q, want %q", v.String(), tc.str)
			}
		})
	}
}

func TestFromGoIntKeyedMapLookup(t *testing.T) {
	m := FromGo(map[int]string{1: "one"}).(Mapping)
	v, ok := m.Lookup("1")
	if !ok || v.String() != "one" {
		t.Fatalf("lookup = %v, %v", v, ok)
	}
}

func TestNamedLambdaIsCalled(t *testing.T) {
	fn, ok := FromGo(shout(func(s string) string { return s + "!" })).(LambdaValue)
	if !ok {
		t.Fatal("not a LambdaValue")
	}
	out, err := fn("hey")
	if err != nil || out != "hey!" {
		t.Fatalf("got %q, %v", out, err)
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"untyped nil", nil, false},
		{"null", NullValue{}, false},
		{"false", BoolValue(false), false},
		{"true", BoolValue(true), true},
		{"empty list", ListValue{}, false},
		{"list", ListValue{NullValue{}}, true},
		{"empty string", StringValue(""), true},
		{"zero", IntValue(0), true},
		{"zero float", FloatValue(0), true},
		{"empty map", MapValue{}, true},
		{"lambda", Lambda(func(string) string { return "" }), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Truthy(tc.v); got != tc.want {
				t.Fatalf("Truthy = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMapValueNilEntry(t *testing.T) {
	v, ok := MapValue{"n": nil}.Lookup("n")
	if !ok || v.Kind() != KindNull {
		t.Fatalf("lookup = %v, %v", v, ok)
	}
}

type base struct{ ID int }

type derived struct {
	base
	Label string
}

func TestStructPromotedField(t *testing.T) {
	m := FromGo(derived{base: base{ID: 9}, Label: "x"}).(Mapping)
	v, ok := m.Lookup("ID")
	if !ok || v.String() != "9" {
		t.Fatalf("ID = %v, %v", v, ok)
	}
}

func TestStructTagSkip(t *testing.T) {
	type hidden struct {
		Secret string `mustache:"-"`
	}
	m := FromGo(hidden{Secret: "s"}).(Mapping)
	if _, ok := m.Lookup("Secret"); ok {
		t.Fatal("field tagged '-' must not resolve")
	}
}

func TestLambdaErrorPassthrough(t *testing.T) {
	boom := errors.New("boom")
	fn := FromGo(func(string) (string, error) { return "", boom }).(LambdaValue)
	if _, err := fn("x"); !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
}
