package mustache

import (
	"strings"
)

// The lexer scans template source under the active delimiter pair and yields
// literal text runs and tag tokens. Standalone detection happens here: a
// standalone tag swallows its line's leading whitespace and trailing newline,
// so the text token before it is shortened accordingly.

type tokenKind int

const (
	tokEOF       tokenKind = iota
	tokText                // literal text
	tokVariable            // {{name}}
	tokUnescaped           // {{{name}}} or {{&name}}
	tokSection             // {{#name}}
	tokInverted            // {{^name}}
	tokClose               // {{/name}}
	tokComment             // {{!text}}
	tokPartial             // {{>name}}
	tokDelimiter           // {{=open close=}}
)

var tokenNames = [...]string{
	tokEOF:       "EOF",
	tokText:      "text",
	tokVariable:  "variable",
	tokUnescaped: "unescaped variable",
	tokSection:   "section",
	tokInverted:  "inverted section",
	tokClose:     "section close",
	tokComment:   "comment",
	tokPartial:   "partial",
	tokDelimiter: "delimiter change",
}

func (k tokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return "unknown"
}

// canStandalone reports whether a tag of this kind is trimmed when it sits
// alone on its line. Interpolations never are.
func (k tokenKind) canStandalone() bool {
	switch k {
	case tokSection, tokInverted, tokClose, tokComment, tokPartial, tokDelimiter:
		return true
	}
	return false
}

type token struct {
	kind   tokenKind
	val    string     // text, tag name or comment body
	delims Delimiters // new pair, for tokDelimiter
	pos    int        // offset of the open delimiter (or start of text)
	end    int        // offset just past the close delimiter (or end of text)

	// outerStart/outerEnd bound the source consumed by the tag, including
	// the whitespace and newline of a standalone line.
	outerStart int
	outerEnd   int
	standalone bool
	indent     string
}

type lexer struct {
	src     string
	i       int
	n       int
	delims  Delimiters
	pending *token
}

func newLexer(src string, delims Delimiters) *lexer {
	return &lexer{src: src, n: len(src), delims: delims}
}

func (l *lexer) setDelims(d Delimiters) {
	l.delims = d
}

// next returns the next token in the stream.
func (l *lexer) next() (token, error) {
	if l.pending != nil {
		t := *l.pending
		l.pending = nil
		return t, nil
	}
	if l.i >= l.n {
		return token{kind: tokEOF, pos: l.n, end: l.n, outerStart: l.n, outerEnd: l.n}, nil
	}

	start := l.i
	rel := strings.Index(l.src[start:], l.delims.Open)
	if rel < 0 {
		l.i = l.n
		return l.text(start, l.n), nil
	}

	tag, err := l.scanTag(start + rel)
	if err != nil {
		return token{}, err
	}
	tag.outerStart, tag.outerEnd = tag.pos, tag.end

	if tag.kind.canStandalone() {
		if ls, ok := l.lineStart(tag.pos); ok {
			if le, ok := l.lineEnd(tag.end); ok {
				tag.standalone = true
				tag.indent = l.src[ls:tag.pos]
				tag.outerStart, tag.outerEnd = ls, le
			}
		}
	}
	l.i = tag.outerEnd

	if tag.outerStart > start {
		l.pending = &tag
		return l.text(start, tag.outerStart), nil
	}
	return tag, nil
}

func (l *lexer) text(start, end int) token {
	return token{
		kind:       tokText,
		val:        l.src[start:end],
		pos:        start,
		end:        end,
		outerStart: start,
		outerEnd:   end,
	}
}

// lineStart returns the offset where the line containing pos begins, if only
// spaces and tabs separate it from pos.
func (l *lexer) lineStart(pos int) (int, bool) {
	i := pos
	for i > 0 {
		switch l.src[i-1] {
		case ' ', '\t':
			i--
		case '\n':
			return i, true
		default:
			return 0, false
		}
	}
	return 0, true
}

// lineEnd returns the offset just past the newline ending the line that
// contains end, if only spaces and tabs separate them. The end of the source
// counts as a line ending.
func (l *lexer) lineEnd(end int) (int, bool) {
	i := end
	for i < l.n && (l.src[i] == ' ' || l.src[i] == '\t') {
		i++
	}
	switch {
	case i == l.n:
		return i, true
	case l.src[i] == '\n':
		return i + 1, true
	case l.src[i] == '\r' && i+1 < l.n && l.src[i+1] == '\n':
		return i + 2, true
	}
	return 0, false
}

// scanTag reads the tag whose open delimiter starts at pos.
func (l *lexer) scanTag(pos int) (token, error) {
	open, closer := l.delims.Open, l.delims.Close
	i := skipSpace(l.src, pos+len(open))
	if i >= l.n {
		return token{}, l.errorf(pos, open, ErrUnterminatedTag)
	}

	tok := token{pos: pos}
	sigil := l.src[i]
	switch sigil {
	case '{':
		// The name ends at a '}' that is followed (after optional
		// whitespace) by the close delimiter.
		body, end, ok := l.scanUntilPair(i+1, '}', closer)
		if !ok {
			return token{}, l.errorf(pos, l.snippet(pos), ErrUnterminatedTag)
		}
		tok.kind, tok.val, tok.end = tokUnescaped, strings.TrimSpace(body), end
	case '=':
		body, end, ok := l.scanUntilPair(i+1, '=', closer)
		if !ok {
			return token{}, l.errorf(pos, l.snippet(pos), ErrUnterminatedTag)
		}
		fields := strings.Fields(body)
		if len(fields) != 2 || strings.Contains(body, "=") {
			return token{}, l.errorf(pos, l.src[pos:end], ErrInvalidDelimiters)
		}
		tok.kind, tok.end = tokDelimiter, end
		tok.delims = Delimiters{Open: fields[0], Close: fields[1]}
		tok.val = tok.delims.String()
	default:
		j := strings.Index(l.src[i:], closer)
		if j < 0 {
			return token{}, l.errorf(pos, l.snippet(pos), ErrUnterminatedTag)
		}
		tok.end = i + j + len(closer)
		if j == 0 {
			// Nothing between the delimiters; closer may begin with a sigil.
			return token{}, l.errorf(pos, l.src[pos:tok.end], ErrEmptyTag)
		}
		body := l.src[i : i+j]
		switch sigil {
		case '!':
			tok.kind, tok.val = tokComment, body[1:]
		case '#':
			tok.kind, tok.val = tokSection, strings.TrimSpace(body[1:])
		case '^':
			tok.kind, tok.val = tokInverted, strings.TrimSpace(body[1:])
		case '/':
			tok.kind, tok.val = tokClose, strings.TrimSpace(body[1:])
		case '>':
			tok.kind, tok.val = tokPartial, strings.TrimSpace(body[1:])
		case '&':
			tok.kind, tok.val = tokUnescaped, strings.TrimSpace(body[1:])
		default:
			tok.kind, tok.val = tokVariable, strings.TrimSpace(body)
		}
	}

	if tok.kind != tokComment && tok.kind != tokDelimiter && tok.val == "" {
		return token{}, l.errorf(pos, l.src[pos:tok.end], ErrEmptyTag)
	}
	return tok, nil
}

// scanUntilPair finds the first occurrence of term followed by optional
// whitespace and then close. It returns the text before term and the offset
// just past close.
func (l *lexer) scanUntilPair(from int, term byte, closer string) (string, int, bool) {
	for i := from; i < l.n; i++ {
		if l.src[i] != term {
			continue
		}
		j := skipSpace(l.src, i+1)
		if strings.HasPrefix(l.src[j:], closer) {
			return l.src[from:i], j + len(closer), true
		}
	}
	return "", 0, false
}

// snippet returns a short excerpt of the source starting at pos, used to
// identify an unterminated tag.
func (l *lexer) snippet(pos int) string {
	const limit = 20
	s := l.src[pos:]
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return s
}

func (l *lexer) errorf(pos int, tag string, err error) *ParseError {
	line, col := position(l.src, pos)
	return &ParseError{Err: err, Tag: tag, Offset: pos, Line: line, Column: col}
}

// position converts a byte offset into a 1-based line and column.
func position(src string, off int) (line, col int) {
	if off > len(src) {
		off = len(src)
	}
	line = 1 + strings.Count(src[:off], "\n")
	col = off + 1
	if i := strings.LastIndexByte(src[:off], '\n'); i >= 0 {
		col = off - i
	}
	return line, col
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
