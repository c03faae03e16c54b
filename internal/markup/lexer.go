package markup

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// wildcards are the multi-character glyphs starting with '*', longest first.
var wildcards = []string{"**", "*^-", "*^", "*"}

// Option configures a Tokenizer.
type Option func(*Tokenizer)

// WithProse makes the tokenizer treat text outside braces as prose: words
// separated by whitespace become Text tokens without interpreting reserved
// characters or quotes. Inside braces the regular rules apply.
func WithProse() Option {
	return func(t *Tokenizer) { t.prose = true }
}

// Tokenizer turns markup source into tokens on demand. It never stops on a
// bad character: the error is recorded and scanning resumes one character
// later.
type Tokenizer struct {
	src   string
	cur   int
	line  int
	depth int
	prose bool
	errs  []*LexicalError
}

// NewTokenizer creates a tokenizer over src.
func NewTokenizer(src string, opts ...Option) *Tokenizer {
	t := &Tokenizer{src: src, line: 1}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Errors returns the lexical errors recorded so far.
func (t *Tokenizer) Errors() []*LexicalError {
	return t.errs
}

// Line returns the current line number.
func (t *Tokenizer) Line() int {
	return t.line
}

// Next returns the next token. Once the input is exhausted it keeps
// returning an EOF token.
func (t *Tokenizer) Next() Token {
	for {
		t.skipSpace()
		if t.cur >= len(t.src) {
			return Token{Kind: EOF, Line: t.line, Pos: t.cur, End: t.cur}
		}
		if t.prose && t.depth == 0 && t.src[t.cur] != '{' {
			return t.word()
		}
		if tok, ok := t.scan(); ok {
			return tok
		}
	}
}

// Tokenize scans all of src and returns its tokens, without the trailing
// EOF, together with every lexical error met along the way.
func Tokenize(src string, opts ...Option) ([]Token, []*LexicalError) {
	t := NewTokenizer(src, opts...)
	var toks []Token
	for {
		tok := t.Next()
		if tok.Kind == EOF {
			return toks, t.Errors()
		}
		toks = append(toks, tok)
	}
}

// scan matches one token at the cursor. It returns false when the character
// matched no rule and was skipped.
func (t *Tokenizer) scan() (Token, bool) {
	c := t.src[t.cur]

	if c == '"' || c == '\'' {
		return t.quoted(c)
	}

	if c == '*' {
		for _, w := range wildcards {
			if strings.HasPrefix(t.src[t.cur:], w) {
				return t.emit(Text, w, len(w)), true
			}
		}
	}

	if kind, ok := symbols[c]; ok {
		switch kind {
		case LBrace:
			t.depth++
		case RBrace:
			if t.depth > 0 {
				t.depth--
			}
		}
		return t.emit(kind, string(c), 1), true
	}

	r, size := utf8.DecodeRuneInString(t.src[t.cur:])
	if r == utf8.RuneError && size <= 1 {
		t.fail(r, fmt.Sprintf("invalid UTF-8 byte 0x%02x", c))
		t.cur++
		return Token{}, false
	}
	if unicode.IsControl(r) {
		t.fail(r, fmt.Sprintf("illegal character %q", r))
		t.cur += size
		return Token{}, false
	}

	start := t.cur
	for t.cur < len(t.src) {
		r, size := utf8.DecodeRuneInString(t.src[t.cur:])
		if !isTextRune(r, size) {
			break
		}
		t.cur += size
	}
	return Token{Kind: Text, Value: t.src[start:t.cur], Line: t.line, Pos: start, End: t.cur}, true
}

// quoted scans a single- or double-quoted string, unescaping backslash
// sequences. An unterminated string records an error and skips the quote.
func (t *Tokenizer) quoted(q byte) (Token, bool) {
	start, line := t.cur, t.line
	var sb strings.Builder
	newlines := 0
	for i := start + 1; i < len(t.src); i++ {
		switch c := t.src[i]; c {
		case '\\':
			if i+1 < len(t.src) {
				i++
				if t.src[i] == '\n' {
					newlines++
				}
				sb.WriteByte(t.src[i])
			}
		case q:
			t.cur = i + 1
			t.line += newlines
			return Token{Kind: Quoted, Value: sb.String(), Line: line, Pos: start, End: t.cur}, true
		default:
			if c == '\n' {
				newlines++
			}
			sb.WriteByte(c)
		}
	}
	t.fail(rune(q), fmt.Sprintf("unterminated quoted string starting with %q", rune(q)))
	t.cur++
	return Token{}, false
}

// word scans one whitespace-delimited prose word outside braces.
func (t *Tokenizer) word() Token {
	start := t.cur
	for t.cur < len(t.src) {
		r, size := utf8.DecodeRuneInString(t.src[t.cur:])
		if r == '{' || unicode.IsSpace(r) {
			break
		}
		t.cur += size
	}
	return Token{Kind: Text, Value: t.src[start:t.cur], Line: t.line, Pos: start, End: t.cur}
}

func (t *Tokenizer) skipSpace() {
	for t.cur < len(t.src) {
		r, size := utf8.DecodeRuneInString(t.src[t.cur:])
		if !unicode.IsSpace(r) {
			return
		}
		if r == '\n' {
			t.line++
		}
		t.cur += size
	}
}

func (t *Tokenizer) emit(kind Kind, value string, n int) Token {
	tok := Token{Kind: kind, Value: value, Line: t.line, Pos: t.cur, End: t.cur + n}
	t.cur += n
	return tok
}

func (t *Tokenizer) fail(r rune, msg string) {
	t.errs = append(t.errs, &LexicalError{Char: r, Line: t.line, Message: msg})
}

// isTextRune reports whether r may appear inside a bare text run.
func isTextRune(r rune, size int) bool {
	if r == utf8.RuneError && size <= 1 {
		return false
	}
	if unicode.IsSpace(r) || unicode.IsControl(r) {
		return false
	}
	if r < utf8.RuneSelf {
		if _, reserved := symbols[byte(r)]; reserved {
			return false
		}
		if r == '"' || r == '\'' || r == '*' {
			return false
		}
	}
	return true
}
