package mustache

// Delimiters is the pair of strings that open and close a tag.
type Delimiters struct {
	Open  string
	Close string
}

// DefaultDelimiters are the standard Mustache tag delimiters.
var DefaultDelimiters = Delimiters{Open: "{{", Close: "}}"}

func (d Delimiters) String() string { return d.Open + " " + d.Close }

// Template is a parsed Mustache template. It is never modified after Parse
// returns and may be rendered concurrently.
type Template struct {
	Nodes []Node
	// Delims is the delimiter pair active when parsing finished.
	Delims Delimiters
	// Source is the text the template was parsed from.
	Source string
}

// Node is any AST node in a parsed Mustache template.
type Node interface {
	node()
}

// LiteralNode represents raw text between tags.
type LiteralNode struct {
	Text string
}

func (*LiteralNode) node() {}

// VariableNode represents an interpolation: {{name}}, {{{name}}} or {{&name}}.
type VariableNode struct {
	Name   string
	Escape bool
}

func (*VariableNode) node() {}

// SectionNode represents {{#name}}...{{/name}} or, when Inverted is set,
// {{^name}}...{{/name}}.
type SectionNode struct {
	Name     string
	Nodes    []Node
	Inverted bool
	// Raw is the unparsed source between the open and close tags. Lambdas
	// receive it verbatim.
	Raw string
	// Delims is the pair that was active at the open tag; lambda output is
	// parsed with it.
	Delims Delimiters
}

func (*SectionNode) node() {}

// PartialNode represents {{>name}}.
type PartialNode struct {
	Name string
	// Indent is the whitespace preceding a standalone partial tag. It is
	// prepended to every line of the partial.
	Indent string
}

func (*PartialNode) node() {}

// CommentNode represents {{! text }}. It renders nothing.
type CommentNode struct {
	Text string
}

func (*CommentNode) node() {}

// DelimiterNode records a {{=open close=}} change. It renders nothing; the
// change has already been applied to the tags that follow it.
type DelimiterNode struct {
	Delims Delimiters
}

func (*DelimiterNode) node() {}
