package mustache

import (
	"bytes"
	"errors"
	"fmt"
)

type Visitor interface {
	Visit(n Node) error
}

// Walk visits n and then, for sections, each child in order. It stops at
// the first error.
func Walk(v Visitor, n Node) error {
	if err := v.Visit(n); err != nil {
		return err
	}
	if sec, ok := n.(*SectionNode); ok {
		for _, c := range sec.Nodes {
			if err := Walk(v, c); err != nil {
				return err
			}
		}
	}
	return nil
}

type inspector func(Node) bool

func (f inspector) Visit(n Node) error {
	if !f(n) {
		return errStopWalk
	}
	return nil
}

var errStopWalk = errors.New("stop walk")

// Inspect calls fn for every node of t in source order until fn returns
// false.
func Inspect(t *Template, fn func(Node) bool) {
	for _, n := range t.Nodes {
		if Walk(inspector(fn), n) != nil {
			return
		}
	}
}

// Partials returns the names of the partials t refers to directly, in order
// of first use.
func (t *Template) Partials() []string {
	var names []string
	seen := map[string]bool{}
	Inspect(t, func(n Node) bool {
		if p, ok := n.(*PartialNode); ok && !seen[p.Name] {
			seen[p.Name] = true
			names = append(names, p.Name)
		}
		return true
	})
	return names
}

// Names returns every name referenced by a variable, section or partial
// tag in t, in order of first use.
func (t *Template) Names() []string {
	var names []string
	seen := map[string]bool{}
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	Inspect(t, func(n Node) bool {
		switch n := n.(type) {
		case *VariableNode:
			add(n.Name)
		case *SectionNode:
			add(n.Name)
		case *PartialNode:
			add(n.Name)
		}
		return true
	})
	return names
}

// Pretty returns a line-oriented string representation of the AST.
func Pretty(t *Template) string {
	var buf bytes.Buffer
	buf.WriteString("Template\n")
	for _, n := range t.Nodes {
		ppNode(&buf, 2, n)
	}
	return buf.String()
}

func ppNode(buf *bytes.Buffer, indent int, n Node) {
	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}
	switch t := n.(type) {
	case *LiteralNode:
		fmt.Fprintf(buf, "Literal(%q)\n", t.Text)
	case *VariableNode:
		if t.Escape {
			fmt.Fprintf(buf, "Variable(%s)\n", t.Name)
		} else {
			fmt.Fprintf(buf, "Unescaped(%s)\n", t.Name)
		}
	case *SectionNode:
		kind := "Section"
		if t.Inverted {
			kind = "Inverted"
		}
		fmt.Fprintf(buf, "%s(%s)\n", kind, t.Name)
		for _, c := range t.Nodes {
			ppNode(buf, indent+2, c)
		}
	case *PartialNode:
		fmt.Fprintf(buf, "Partial(%s, indent=%q)\n", t.Name, t.Indent)
	case *CommentNode:
		fmt.Fprintf(buf, "Comment(%q)\n", t.Text)
	case *DelimiterNode:
		fmt.Fprintf(buf, "Delimiters(%s)\n", t.Delims)
	}
}
