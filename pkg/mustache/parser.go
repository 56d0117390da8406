package mustache

import (
	"fmt"
	"strings"
)

// MaxNesting bounds how deeply sections may nest in a single template.
const MaxNesting = 256

// Parse parses a Mustache template using the default delimiters.
func Parse(text string) (*Template, error) {
	return ParseWithDelimiters(text, DefaultDelimiters)
}

// ParseWithDelimiters parses a Mustache template, starting with the given
// delimiter pair instead of {{ }}.
func ParseWithDelimiters(text string, delims Delimiters) (*Template, error) {
	if err := validateDelimiters(delims); err != nil {
		return nil, err
	}
	p := &parser{l: newLexer(text, delims), src: text}
	nodes, _, err := p.parseNodes(nil)
	if err != nil {
		return nil, err
	}
	return &Template{Nodes: nodes, Delims: p.l.delims, Source: text}, nil
}

// ParseBytes decodes b with the encoding and error policy in opts and parses
// the result.
func ParseBytes(b []byte, opts Options) (*Template, error) {
	text, err := opts.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("decoding template: %w", err)
	}
	return Parse(text)
}

// MustParse is like Parse but panics if the template cannot be parsed.
func MustParse(text string) *Template {
	t, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	l     *lexer
	src   string
	depth int
}

// parseNodes parses until the close tag matching open is found. With a nil
// open it parses to EOF. The matching close token is returned so the caller
// can recover the section's raw source.
func (p *parser) parseNodes(open *token) (nodes []Node, end token, err error) {
	for {
		tok, err := p.l.next()
		if err != nil {
			return nil, token{}, err
		}
		switch tok.kind {
		case tokEOF:
			if open != nil {
				return nil, token{}, p.l.errorf(open.pos, open.val, ErrUnclosedSection)
			}
			return nodes, tok, nil
		case tokText:
			nodes = append(nodes, &LiteralNode{Text: tok.val})
		case tokVariable:
			nodes = append(nodes, &VariableNode{Name: tok.val, Escape: true})
		case tokUnescaped:
			nodes = append(nodes, &VariableNode{Name: tok.val})
		case tokComment:
			nodes = append(nodes, &CommentNode{Text: tok.val})
		case tokPartial:
			n := &PartialNode{Name: tok.val}
			if tok.standalone {
				n.Indent = tok.indent
			}
			nodes = append(nodes, n)
		case tokDelimiter:
			if err := validateDelimiters(tok.delims); err != nil {
				return nil, token{}, p.l.errorf(tok.pos, tok.val, ErrInvalidDelimiters)
			}
			p.l.setDelims(tok.delims)
			nodes = append(nodes, &DelimiterNode{Delims: tok.delims})
		case tokSection, tokInverted:
			n, err := p.parseSection(tok)
			if err != nil {
				return nil, token{}, err
			}
			nodes = append(nodes, n)
		case tokClose:
			if open == nil {
				return nil, token{}, p.l.errorf(tok.pos, tok.val, ErrUnopenedSection)
			}
			if tok.val != open.val {
				return nil, token{}, p.l.errorf(tok.pos, tok.val,
					fmt.Errorf("%w: expected %q", ErrMismatchedSection, open.val))
			}
			return nodes, tok, nil
		default:
			return nil, token{}, p.l.errorf(tok.pos, tok.val,
				fmt.Errorf("unexpected %s token", tok.kind))
		}
	}
}

func (p *parser) parseSection(open token) (*SectionNode, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxNesting {
		return nil, p.l.errorf(open.pos, open.val, ErrNestingTooDeep)
	}

	n := &SectionNode{
		Name:     open.val,
		Inverted: open.kind == tokInverted,
		Delims:   p.l.delims,
	}
	body, end, err := p.parseNodes(&open)
	if err != nil {
		return nil, err
	}
	n.Nodes = body
	n.Raw = p.src[open.outerEnd:end.outerStart]
	return n, nil
}

func validateDelimiters(d Delimiters) error {
	if d.Open == "" || d.Close == "" {
		return fmt.Errorf("%w: empty delimiter", ErrInvalidDelimiters)
	}
	if strings.ContainsAny(d.Open+d.Close, " \t\r\n=") {
		return fmt.Errorf("%w: %q %q contains whitespace or '='", ErrInvalidDelimiters, d.Open, d.Close)
	}
	return nil
}
