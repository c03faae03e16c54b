package markup

import "fmt"

// Kind identifies the lexical class of a Token.
type Kind int

const (
	EOF Kind = iota

	LBrace   // {
	RBrace   // }
	LBracket // [
	RBracket // ]
	Caret    // ^
	Plus     // +
	Minus    // -
	Exclaim  // !
	Pipe     // |
	Slash    // /
	Tilde    // ~
	Hash     // #
	Equals   // =
	Greater  // >

	Quoted // "text" or 'text', value unescaped
	Text   // bare text run, including wildcard glyphs
)

var kindNames = [...]string{
	EOF:      "EOF",
	LBrace:   "LBRACE",
	RBrace:   "RBRACE",
	LBracket: "LBRACKET",
	RBracket: "RBRACKET",
	Caret:    "CARET",
	Plus:     "PLUS",
	Minus:    "MINUS",
	Exclaim:  "EXCL",
	Pipe:     "PIPE",
	Slash:    "SLASH",
	Tilde:    "TILDE",
	Hash:     "HASH",
	Equals:   "EQUALS",
	Greater:  "GT",
	Quoted:   "QUOTED",
	Text:     "TEXT",
}

// String returns the upper-case name of the kind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// symbols maps each reserved character to its single-character token kind.
var symbols = map[byte]Kind{
	'{': LBrace,
	'}': RBrace,
	'[': LBracket,
	']': RBracket,
	'^': Caret,
	'+': Plus,
	'-': Minus,
	'!': Exclaim,
	'|': Pipe,
	'/': Slash,
	'~': Tilde,
	'#': Hash,
	'=': Equals,
	'>': Greater,
}

// Token is one lexical unit. Pos and End are byte offsets into the source.
type Token struct {
	Kind  Kind
	Value string
	Line  int
	Pos   int
	End   int
}

func (t Token) String() string {
	if t.Kind == EOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.Value)
}
