package markup

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Parser is a recursive-descent parser over a token stream. Tokens are
// pulled from the tokenizer on demand and buffered so a provisional range
// opener can be rewound when no matching close follows.
type Parser struct {
	lex *Tokenizer
	buf []Token
	i   int

	// open holds the names of range blocks currently being extended.
	open []string
	// unclosed records, per directive name, a token index after which no
	// {name-} exists.
	unclosed map[string]int
}

// NewParser creates a parser reading src.
func NewParser(src string, opts ...Option) *Parser {
	return &Parser{
		lex:      NewTokenizer(src, opts...),
		unclosed: make(map[string]int),
	}
}

// LexicalErrors returns the lexical errors the tokenizer recorded so far.
func (p *Parser) LexicalErrors() []*LexicalError {
	return p.lex.Errors()
}

// Parse parses exactly one markup unit: a mark, a processing control, a
// directive or a range block. Trailing input is a syntax error.
func (p *Parser) Parse() (Node, error) {
	if tok := p.peek(); tok.Kind != LBrace {
		return nil, p.errorf(tok, "expected '{' to start markup")
	}
	n, err := p.markup()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind != EOF {
		return nil, p.errorf(tok, "unexpected input after markup")
	}
	return n, nil
}

// ParseDocument parses prose interleaved with markup into an ordered
// sequence of TextNode and markup nodes.
func (p *Parser) ParseDocument() ([]Node, error) {
	var nodes []Node
	for p.peek().Kind != EOF {
		n, err := p.element()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// Parse parses a single markup unit. Lexical errors are treated as fatal.
func Parse(src string, opts ...Option) (Node, error) {
	p := NewParser(src, opts...)
	n, err := p.Parse()
	return n, strict(p, err)
}

// ParseDocument parses a whole document region. Lexical errors are treated
// as fatal.
func ParseDocument(src string, opts ...Option) ([]Node, error) {
	p := NewParser(src, opts...)
	nodes, err := p.ParseDocument()
	if err = strict(p, err); err != nil {
		return nil, err
	}
	return nodes, nil
}

func strict(p *Parser, err error) error {
	lexErrs := p.LexicalErrors()
	if len(lexErrs) == 0 {
		return err
	}
	errs := make([]error, 0, len(lexErrs)+1)
	for _, e := range lexErrs {
		errs = append(errs, e)
	}
	if err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// element parses one text run or one markup construct.
func (p *Parser) element() (Node, error) {
	if p.peek().Kind == LBrace {
		return p.markup()
	}
	return p.text(), nil
}

// text consumes tokens up to the next '{' and returns the source they span.
func (p *Parser) text() *TextNode {
	first := p.advance()
	last := first
	for k := p.peek().Kind; k != LBrace && k != EOF; k = p.peek().Kind {
		last = p.advance()
	}
	return &TextNode{Value: p.lex.src[first.Pos:last.End], Line: first.Line}
}

// markup parses the construct starting at '{'.
func (p *Parser) markup() (Node, error) {
	switch next := p.peekAt(1); next.Kind {
	case Caret:
		if c := p.peekAt(2).Kind; (c == Plus || c == Minus) && p.peekAt(3).Kind == RBrace {
			start := p.advance()
			p.advance()
			sign := p.advance()
			p.advance()
			return &ProcessingControl{Enabled: sign.Kind == Plus, Line: start.Line}, nil
		}
		return p.mark()
	case Text:
		d, err := p.directive()
		if err != nil {
			return nil, err
		}
		if d.Kind == KindOpen && p.extendable(d.Name) {
			return p.extendRange(d)
		}
		return d, nil
	default:
		return nil, p.errorf(next, "expected '^' or a directive name after '{'")
	}
}

// mark parses { ^ heading_path opt_crossrefs opt_suffix opt_sort opt_flag }.
func (p *Parser) mark() (Node, error) {
	start := p.advance()
	p.advance() // ^

	path, err := p.headingPath()
	if err != nil {
		return nil, err
	}
	m := &Mark{Heading: path[0], Subheadings: path[1:], Line: start.Line}
	for _, seg := range path {
		if m.Alias == "" && strings.HasPrefix(seg, "#") {
			m.Alias = seg
		}
		if m.Wildcard == "" && strings.HasPrefix(seg, "*") {
			m.Wildcard = seg
		}
	}

	if p.peek().Kind == Pipe {
		p.advance()
		for {
			ref, err := p.headingPath()
			if err != nil {
				return nil, err
			}
			m.Crossrefs = append(m.Crossrefs, strings.Join(ref, ">"))
			if p.peek().Kind != Plus {
				break
			}
			p.advance()
		}
	}

	if p.peek().Kind == LBracket {
		p.advance()
		switch tok := p.peek(); tok.Kind {
		case Text:
			m.Suffix = p.suffixWords()
		case Quoted:
			m.Suffix = p.advance().Value
		default:
			return nil, p.errorf(tok, "expected suffix text after '['")
		}
		if _, err := p.expect(RBracket, "expected ']' to close suffix"); err != nil {
			return nil, err
		}
	}

	if p.peek().Kind == Tilde {
		p.advance()
		switch tok := p.peek(); tok.Kind {
		case Text:
			m.SortKey = p.words()
		case Quoted:
			m.SortKey = p.advance().Value
		default:
			return nil, p.errorf(tok, "expected sort key after '~'")
		}
	}

	switch p.peek().Kind {
	case Exclaim:
		p.advance()
		m.Emphasis = true
	case Slash:
		p.advance()
		m.Closing = true
	}

	if _, err := p.expect(RBrace, "expected '}' to close mark"); err != nil {
		return nil, err
	}
	return m, nil
}

// headingPath parses segment ( > segment )*.
func (p *Parser) headingPath() ([]string, error) {
	var path []string
	for {
		seg, err := p.segment()
		if err != nil {
			return nil, err
		}
		path = append(path, seg)
		if p.peek().Kind != Greater {
			return path, nil
		}
		p.advance()
	}
}

// segment parses bare text, a quoted string, #alias or ##alias.
func (p *Parser) segment() (string, error) {
	tok := p.peek()
	switch tok.Kind {
	case Text:
		return p.words(), nil
	case Quoted:
		p.advance()
		if tok.Value == "" {
			return "", p.errorf(tok, "empty heading")
		}
		return tok.Value, nil
	case Hash:
		prefix := "#"
		p.advance()
		if p.peek().Kind == Hash {
			prefix = "##"
			p.advance()
		}
		if p.peek().Kind != Text {
			return "", p.errorf(p.peek(), "expected alias text after "+prefix)
		}
		return prefix + p.words(), nil
	default:
		return "", p.errorf(tok, "expected heading text")
	}
}

// words consumes consecutive Text tokens, joining them with one space where
// the source separated them with whitespace.
func (p *Parser) words() string {
	var sb strings.Builder
	prev := p.advance()
	sb.WriteString(prev.Value)
	for p.peek().Kind == Text {
		tok := p.advance()
		if tok.Pos > prev.End {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok.Value)
		prev = tok
	}
	return sb.String()
}

// suffixWords is words for a bracketed suffix, where '-' also joins words
// so page ranges such as 12-14 read as one label.
func (p *Parser) suffixWords() string {
	var sb strings.Builder
	prev := p.advance()
	sb.WriteString(prev.Value)
	for k := p.peek().Kind; k == Text || k == Minus; k = p.peek().Kind {
		tok := p.advance()
		if tok.Pos > prev.End {
			sb.WriteByte(' ')
		}
		sb.WriteString(tok.Value)
		prev = tok
	}
	return sb.String()
}

// directive parses { name suffix? (key = "value")* }.
func (p *Parser) directive() (*Directive, error) {
	start := p.advance()
	name := p.advance()

	suffix := ""
	switch p.peek().Kind {
	case Plus, Minus, Exclaim:
		suffix = p.advance().Value
	}

	args := &Args{}
	for p.peek().Kind == Text {
		key := p.advance()
		if _, err := p.expect(Equals, fmt.Sprintf("expected '=' after argument %q", key.Value)); err != nil {
			return nil, err
		}
		val, err := p.expect(Quoted, fmt.Sprintf("expected quoted value for argument %q", key.Value))
		if err != nil {
			return nil, err
		}
		args.Set(key.Value, val.Value)
	}

	if _, err := p.expect(RBrace, "expected '}' to close directive"); err != nil {
		return nil, err
	}
	d := NewDirective(name.Value, suffix, args)
	d.Line = start.Line
	return d, nil
}

// extendable reports whether an opener named name may start a range block
// at the cursor: it is not nested in a block of the same name and a close
// is not already known to be missing.
func (p *Parser) extendable(name string) bool {
	if slices.Contains(p.open, name) {
		return false
	}
	if at, ok := p.unclosed[name]; ok && p.i >= at {
		return false
	}
	return true
}

// extendRange tries to grow an open directive into a range block by
// consuming content up to {name-}. If no close follows, the cursor is
// rewound and the open directive stands alone.
func (p *Parser) extendRange(open *Directive) (Node, error) {
	mark := p.i
	p.open = append(p.open, open.Name)
	defer func() { p.open = p.open[:len(p.open)-1] }()

	var content []Node
	for {
		tok := p.peek()
		if tok.Kind == EOF {
			p.unclosed[open.Name] = mark
			p.i = mark
			return open, nil
		}
		if name, ok := p.closeAhead(); ok {
			if name == open.Name {
				end, err := p.directive()
				if err != nil {
					return nil, err
				}
				block, err := NewRangeBlock(open, content, end)
				if err != nil {
					return nil, p.errorf(tok, err.Error())
				}
				return block, nil
			}
			if slices.Contains(p.open[:len(p.open)-1], name) {
				if p.closesLater(open.Name) {
					return nil, p.errorf(p.peekAt(1), fmt.Sprintf("range %q closed before nested range %q", name, open.Name))
				}
				p.unclosed[open.Name] = mark
				p.i = mark
				return open, nil
			}
			return nil, p.errorf(p.peekAt(1), fmt.Sprintf("range %q closed by %q", open.Name, name))
		}
		n, err := p.element()
		if err != nil {
			return nil, err
		}
		content = append(content, n)
	}
}

// closeAhead reports whether the cursor sits on { name - } and returns name.
func (p *Parser) closeAhead() (string, bool) {
	if p.peekAt(0).Kind == LBrace && p.peekAt(1).Kind == Text &&
		p.peekAt(2).Kind == Minus && p.peekAt(3).Kind == RBrace {
		return p.peekAt(1).Value, true
	}
	return "", false
}

// closesLater scans the rest of the input for { name - }.
func (p *Parser) closesLater(name string) bool {
	for k := 0; ; k++ {
		tok := p.peekAt(k)
		if tok.Kind == EOF {
			return false
		}
		if tok.Kind == LBrace && p.peekAt(k+1).Kind == Text && p.peekAt(k+1).Value == name &&
			p.peekAt(k+2).Kind == Minus && p.peekAt(k+3).Kind == RBrace {
			return true
		}
	}
}

func (p *Parser) expect(kind Kind, msg string) (Token, error) {
	tok := p.peek()
	if tok.Kind != kind {
		return tok, p.errorf(tok, msg)
	}
	return p.advance(), nil
}

func (p *Parser) errorf(tok Token, msg string) error {
	return &SyntaxError{Token: tok, Line: tok.Line, Message: msg}
}

func (p *Parser) peek() Token { return p.peekAt(0) }

// peekAt returns the token n positions past the cursor, pulling from the
// tokenizer as needed.
func (p *Parser) peekAt(n int) Token {
	for len(p.buf) <= p.i+n {
		if len(p.buf) > 0 && p.buf[len(p.buf)-1].Kind == EOF {
			return p.buf[len(p.buf)-1]
		}
		p.buf = append(p.buf, p.lex.Next())
	}
	return p.buf[p.i+n]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if tok.Kind != EOF {
		p.i++
	}
	return tok
}
