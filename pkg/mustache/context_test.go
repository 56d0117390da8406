package mustache

import (
	"testing"
)

func TestContextInnermostWins(t *testing.T) {
	ctx := NewContext(M{"name": "outer", "only": "outer-only"})
	ctx.Push(M{"name": "inner"})

	v, ok := ctx.Get("name")
	if !ok || v.String() != "inner" {
		t.Fatalf("name = %v, %v", v, ok)
	}
	v, ok = ctx.Get("only")
	if !ok || v.String() != "outer-only" {
		t.Fatalf("only = %v, %v", v, ok)
	}

	ctx.Pop()
	v, _ = ctx.Get("name")
	if v.String() != "outer" {
		t.Fatalf("after pop name = %v", v)
	}
}

func TestContextSkipsNonMappings(t *testing.T) {
	ctx := NewContext(M{"x": 1}, "scalar", []int{1, 2})
	v, ok := ctx.Get("x")
	if !ok || v.String() != "1" {
		t.Fatalf("x = %v, %v", v, ok)
	}
}

func TestContextImplicitIterator(t *testing.T) {
	ctx := NewContext()
	if _, ok := ctx.Get("."); ok {
		t.Fatal("empty context must not resolve '.'")
	}
	ctx.Push("top")
	v, ok := ctx.Get(".")
	if !ok || v.String() != "top" {
		t.Fatalf(". = %v, %v", v, ok)
	}
}

func TestContextDottedNames(t *testing.T) {
	ctx := NewContext(M{
		"a": M{"b": M{"c": "deep"}},
		"c": "shadow",
		"l": []M{{"n": "zero"}, {"n": "one"}},
	})
	cases := []struct {
		name  string
		want  string
		found bool
	}{
		{"a.b.c", "deep", true},
		{"a.b", "{...}", true},
		{"a.c", "", false},
		{"a.b.c.d", "", false},
		{"l.1.n", "one", true},
		{"l.-1", "", false},
		{"l.x", "", false},
		{"missing.a", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v, ok := ctx.Get(tc.name)
			if ok != tc.found {
				t.Fatalf("found = %v, want %v", ok, tc.found)
			}
			if ok && v.String() != tc.want {
				t.Fatalf("got %q, want %q", v.String(), tc.want)
			}
		})
	}
}

func TestContextNullIsFound(t *testing.T) {
	ctx := NewContext(M{"n": nil})
	ctx.Push(M{})
	v, ok := ctx.Get("n")
	if !ok || v.Kind() != KindNull {
		t.Fatalf("n = %v, %v", v, ok)
	}
}

func TestContextClone(t *testing.T) {
	ctx := NewContext(M{"a": 1})
	c := ctx.Clone()
	c.Push(M{"a": 2})
	if ctx.Len() != 1 || c.Len() != 2 {
		t.Fatalf("len = %d/%d", ctx.Len(), c.Len())
	}
	v, _ := ctx.Get("a")
	if v.String() != "1" {
		t.Fatalf("original sees %v", v)
	}

	var nilCtx *Context
	if nilCtx.Clone().Len() != 0 {
		t.Fatal("clone of nil context must be empty")
	}
}

func TestContextPopEmpty(t *testing.T) {
	ctx := NewContext()
	if v := ctx.Pop(); v.Kind() != KindNull {
		t.Fatalf("pop on empty = %v", v)
	}
	if v := ctx.Top(); v.Kind() != KindNull {
		t.Fatalf("top on empty = %v", v)
	}
}
