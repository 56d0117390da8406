package mustache

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
)

// Renderer renders parsed templates. It holds no per-render state, so one
// Renderer may be used from many goroutines.
type Renderer struct {
	Resolver PartialResolver
	Options  Options
}

func NewRenderer(resolver PartialResolver, opts Options) *Renderer {
	if resolver == nil {
		resolver = NoPartials
	}
	return &Renderer{Resolver: resolver, Options: opts}
}

// Render renders tmpl against ctx. ctx is cloned first and is not modified.
// On error no partial output is returned.
func Render(tmpl *Template, ctx *Context, opts Options, resolver PartialResolver) (string, error) {
	return NewRenderer(resolver, opts).Render(tmpl, ctx)
}

func (r *Renderer) Render(tmpl *Template, ctx *Context) (string, error) {
	var buf bytes.Buffer
	if err := r.render(&buf, tmpl, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderTo renders into w. Nothing is written unless rendering succeeds.
func (r *Renderer) RenderTo(w io.Writer, tmpl *Template, ctx *Context) error {
	var buf bytes.Buffer
	if err := r.render(&buf, tmpl, ctx); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

func (r *Renderer) render(buf *bytes.Buffer, tmpl *Template, ctx *Context) error {
	if tmpl == nil {
		return &RenderError{Err: fmt.Errorf("nil template")}
	}
	s := &state{
		opts:     r.Options,
		resolver: r.Resolver,
		stack:    ctx.Clone(),
		log:      r.Options.logger(),
	}
	if s.resolver == nil {
		s.resolver = NoPartials
	}
	return s.renderNodes(buf, tmpl.Nodes)
}

// state carries one render call. Nested partials and lambda output share the
// same context stack.
type state struct {
	opts     Options
	resolver PartialResolver
	stack    *Context
	log      *slog.Logger
	depth    int
}

func (s *state) renderNodes(buf *bytes.Buffer, nodes []Node) error {
	for _, n := range nodes {
		switch t := n.(type) {
		case *LiteralNode:
			buf.WriteString(t.Text)
		case *CommentNode, *DelimiterNode:
		case *VariableNode:
			if err := s.renderVariable(buf, t); err != nil {
				return err
			}
		case *SectionNode:
			if err := s.renderSection(buf, t); err != nil {
				return err
			}
		case *PartialNode:
			if err := s.renderPartial(buf, t); err != nil {
				return err
			}
		default:
			return &RenderError{Err: fmt.Errorf("unhandled node type %T", n)}
		}
	}
	return nil
}

func (s *state) renderVariable(buf *bytes.Buffer, n *VariableNode) error {
	v, ok := s.stack.Get(n.Name)
	if !ok {
		return s.missing(n.Name)
	}

	var text string
	if fn, ok := v.(LambdaValue); ok {
		out, err := fn("")
		if err != nil {
			return &RenderError{Name: n.Name, Err: err}
		}
		var sub bytes.Buffer
		if err := s.expand(&sub, n.Name, out, DefaultDelimiters); err != nil {
			return err
		}
		text = sub.String()
	} else {
		var err error
		if text, err = s.stringify(v); err != nil {
			return &RenderError{Name: n.Name, Err: err}
		}
	}

	if n.Escape {
		text = s.opts.escape(text)
	}
	buf.WriteString(text)
	return nil
}

func (s *state) renderSection(buf *bytes.Buffer, n *SectionNode) error {
	v, ok := s.stack.Get(n.Name)
	if !ok {
		if err := s.missing(n.Name); err != nil {
			return err
		}
	}

	if n.Inverted {
		if Truthy(v) {
			return nil
		}
		return s.renderNodes(buf, n.Nodes)
	}

	switch t := v.(type) {
	case LambdaValue:
		out, err := t(n.Raw)
		if err != nil {
			return &RenderError{Name: n.Name, Err: err}
		}
		return s.expand(buf, n.Name, out, n.Delims)
	case Sequence:
		for i := 0; i < t.Len(); i++ {
			s.stack.Push(t.Index(i))
			err := s.renderNodes(buf, n.Nodes)
			s.stack.Pop()
			if err != nil {
				return err
			}
		}
		return nil
	}

	if !Truthy(v) {
		return nil
	}
	s.stack.Push(v)
	err := s.renderNodes(buf, n.Nodes)
	s.stack.Pop()
	return err
}

func (s *state) renderPartial(buf *bytes.Buffer, n *PartialNode) error {
	src, ok, err := s.resolver.Resolve(n.Name)
	if err != nil {
		return &RenderError{Name: n.Name, Err: fmt.Errorf("resolving partial: %w", err)}
	}
	if !ok {
		if s.opts.MissingTags == MissingStrict {
			return &RenderError{Name: n.Name, Err: ErrMissingPartial}
		}
		s.log.Debug("partial not found", "name", n.Name)
		return nil
	}
	if n.Indent != "" {
		src = indentLines(src, n.Indent)
	}
	return s.expand(buf, n.Name, src, DefaultDelimiters)
}

// expand parses src and renders it against the current stack. It is how
// partials and lambda results are rendered, and it enforces MaxDepth.
func (s *state) expand(buf *bytes.Buffer, name, src string, delims Delimiters) error {
	s.depth++
	defer func() { s.depth-- }()
	if limit := s.opts.maxDepth(); limit > 0 && s.depth > limit {
		return &RenderError{Name: name, Err: fmt.Errorf("%w (%d)", ErrMaxDepthExceeded, limit)}
	}

	tmpl, err := ParseWithDelimiters(src, delims)
	if err != nil {
		return &RenderError{Name: name, Err: err}
	}
	return s.renderNodes(buf, tmpl.Nodes)
}

func (s *state) missing(name string) error {
	if s.opts.MissingTags == MissingStrict {
		return &RenderError{Name: name, Err: ErrMissingName}
	}
	s.log.Debug("name not found", "name", name)
	return nil
}

func (s *state) stringify(v Value) (string, error) {
	if b, ok := v.(BytesValue); ok {
		return s.opts.Decode(b)
	}
	return v.String(), nil
}

// indentLines prefixes every non-empty line of src with indent.
func indentLines(src, indent string) string {
	var b bytes.Buffer
	b.Grow(len(src) + len(indent)*4)
	lineStart := true
	for i := 0; i < len(src); i++ {
		if lineStart && src[i] != '\n' {
			b.WriteString(indent)
		}
		b.WriteByte(src[i])
		lineStart = src[i] == '\n'
	}
	return b.String()
}
