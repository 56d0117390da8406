package mustache

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseTextAndVariables(t *testing.T) {
	tmpl, err := Parse("Hello {{ name }}{{{raw}}}{{& amp }}!")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	want := []Node{
		&LiteralNode{Text: "Hello "},
		&VariableNode{Name: "name", Escape: true},
		&VariableNode{Name: "raw"},
		&VariableNode{Name: "amp"},
		&LiteralNode{Text: "!"},
	}
	if diff := cmp.Diff(want, tmpl.Nodes); diff != "" {
		t.Fatalf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStandaloneSection(t *testing.T) {
	tmpl, err := Parse("a\n  {{#s}}\nb\n  {{/s}}\nc")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	want := []Node{
		&LiteralNode{Text: "a\n"},
		&SectionNode{
			Name:   "s",
			Nodes:  []Node{&LiteralNode{Text: "b\n"}},
			Raw:    "b\n",
			Delims: DefaultDelimiters,
		},
		&LiteralNode{Text: "c"},
	}
	if diff := cmp.Diff(want, tmpl.Nodes); diff != "" {
		t.Fatalf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestParseInlineSectionKeepsWhitespace(t *testing.T) {
	tmpl, err := Parse(" {{#s}}x{{/s}}\n")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	want := []Node{
		&LiteralNode{Text: " "},
		&SectionNode{Name: "s", Nodes: []Node{&LiteralNode{Text: "x"}}, Raw: "x", Delims: DefaultDelimiters},
		&LiteralNode{Text: "\n"},
	}
	if diff := cmp.Diff(want, tmpl.Nodes); diff != "" {
		t.Fatalf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStandalonePartialIndent(t *testing.T) {
	tmpl, err := Parse("x\n\t {{> item }}\r\ny")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	want := []Node{
		&LiteralNode{Text: "x\n"},
		&PartialNode{Name: "item", Indent: "\t "},
		&LiteralNode{Text: "y"},
	}
	if diff := cmp.Diff(want, tmpl.Nodes); diff != "" {
		t.Fatalf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDelimiterChange(t *testing.T) {
	tmpl, err := Parse("{{=<% %>=}}<%#s%><%x%><%/s%>{{y}}")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	alt := Delimiters{Open: "<%", Close: "%>"}
	want := []Node{
		&DelimiterNode{Delims: alt},
		&SectionNode{
			Name:   "s",
			Nodes:  []Node{&VariableNode{Name: "x", Escape: true}},
			Raw:    "<%x%>",
			Delims: alt,
		},
		&LiteralNode{Text: "{{y}}"},
	}
	if diff := cmp.Diff(want, tmpl.Nodes); diff != "" {
		t.Fatalf("nodes mismatch (-want +got):\n%s", diff)
	}
	if tmpl.Delims != alt {
		t.Fatalf("final delimiters = %v, want %v", tmpl.Delims, alt)
	}
}

func TestParseTripleMustacheWithAltDelimiters(t *testing.T) {
	tmpl, err := ParseWithDelimiters("<%{ x }%>", Delimiters{Open: "<%", Close: "%>"})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	want := []Node{&VariableNode{Name: "x"}}
	if diff := cmp.Diff(want, tmpl.Nodes); diff != "" {
		t.Fatalf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestParseComment(t *testing.T) {
	tmpl, err := Parse("a{{! multi\nline }}b")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	want := []Node{
		&LiteralNode{Text: "a"},
		&CommentNode{Text: " multi\nline "},
		&LiteralNode{Text: "b"},
	}
	if diff := cmp.Diff(want, tmpl.Nodes); diff != "" {
		t.Fatalf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want error
	}{
		{"unclosed", "{{#a}}x", ErrUnclosedSection},
		{"unopened", "x{{/a}}", ErrUnopenedSection},
		{"mismatched", "{{#a}}{{/b}}", ErrMismatchedSection},
		{"unterminated", "{{a", ErrUnterminatedTag},
		{"unterminated triple", "{{{a}}", ErrUnterminatedTag},
		{"bad delimiters", "{{=<%=}}", ErrInvalidDelimiters},
		{"empty tag", "{{}}", ErrEmptyTag},
		{"empty section", "{{#}}{{/}}", ErrEmptyTag},
		{"empty tag before partial-like close", "{{=<< >>=}}<<>>>", ErrEmptyTag},
		{"empty tag with comment-like close", "{{=<! !>=}}<!!>", ErrEmptyTag},
		{"empty tag with section-like close", "{{=[ #]=}}[#]", ErrEmptyTag},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.src)
			if err == nil {
				t.Fatalf("expected error for %q", tc.src)
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error is %T, want *ParseError", err)
			}
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := Parse("line1\n  {{#a}}")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("want *ParseError, got %v", err)
	}
	if pe.Line != 2 || pe.Column != 3 || pe.Offset != 8 || pe.Tag != "a" {
		t.Fatalf("unexpected position: %+v", pe)
	}
}

func TestParseNestingLimit(t *testing.T) {
	src := ""
	for i := 0; i <= MaxNesting; i++ {
		src += "{{#a}}"
	}
	for i := 0; i <= MaxNesting; i++ {
		src += "{{/a}}"
	}
	if _, err := Parse(src); !errors.Is(err, ErrNestingTooDeep) {
		t.Fatalf("got %v, want ErrNestingTooDeep", err)
	}
}

func TestParseWithInvalidDelimiters(t *testing.T) {
	if _, err := ParseWithDelimiters("x", Delimiters{Open: "{ {", Close: "}}"}); !errors.Is(err, ErrInvalidDelimiters) {
		t.Fatalf("got %v, want ErrInvalidDelimiters", err)
	}
}

func TestMustParsePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	MustParse("{{#a}}")
}

func TestPrettyAndPartials(t *testing.T) {
	tmpl := MustParse("{{>a}}{{#s}}{{^t}}{{>b}}{{/t}}{{>a}}{{/s}}")
	if diff := cmp.Diff([]string{"a", "b"}, tmpl.Partials()); diff != "" {
		t.Fatalf("partials mismatch (-want +got):\n%s", diff)
	}
	want := "Template\n" +
		"  Partial(a, indent=\"\")\n" +
		"  Section(s)\n" +
		"    Inverted(t)\n" +
		"      Partial(b, indent=\"\")\n" +
		"    Partial(a, indent=\"\")\n"
	if got := Pretty(tmpl); got != want {
		t.Fatalf("Pretty mismatch (-want +got):\n%s", cmp.Diff(want, got))
	}
}

func TestNames(t *testing.T) {
	tmpl := MustParse("{{a}}{{#s}}{{b.c}}{{a}}{{/s}}{{>p}}{{! skipped }}")
	if diff := cmp.Diff([]string{"a", "s", "b.c", "p"}, tmpl.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestInspectStops(t *testing.T) {
	tmpl := MustParse("{{a}}{{b}}{{c}}")
	var seen []string
	Inspect(tmpl, func(n Node) bool {
		v := n.(*VariableNode)
		seen = append(seen, v.Name)
		return v.Name != "b"
	})
	if diff := cmp.Diff([]string{"a", "b"}, seen); diff != "" {
		t.Fatalf("visited mismatch (-want +got):\n%s", diff)
	}
}
