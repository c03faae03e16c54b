package markup

import (
	"errors"
	"reflect"
	"testing"
)

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeKinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Kind
	}{
		{"quoted mark", `{^"foo"}`, []Kind{LBrace, Caret, Quoted, RBrace}},
		{"heading path", "foo>bar>baz", []Kind{Text, Greater, Text, Greater, Text}},
		{"suffix and sort", `[suffix]~"sortkey"`, []Kind{LBracket, Text, RBracket, Tilde, Quoted}},
		{"crossrefs and flag", "|foo+bar!", []Kind{Pipe, Text, Plus, Text, Exclaim}},
		{"closing flag", "{^a/}", []Kind{LBrace, Caret, Text, Slash, RBrace}},
		{"alias", "#term ##other", []Kind{Hash, Text, Hash, Hash, Text}},
		{"directive args", `{index term="Foo"}`, []Kind{LBrace, Text, Text, Equals, Quoted, RBrace}},
		{"reserved glued to text", "a-b", []Kind{Text, Minus, Text}},
		{"empty", "", []Kind{}},
		{"whitespace only", " \t\r\n ", []Kind{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, errs := Tokenize(tt.input)
			if len(errs) != 0 {
				t.Fatalf("unexpected lexical errors: %v", errs)
			}
			got := kinds(toks)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) kinds = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenizeWildcards(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"*", []string{"*"}},
		{"**", []string{"**"}},
		{"*^", []string{"*^"}},
		{"*^-", []string{"*^-"}},
		{"** *^", []string{"**", "*^"}},
		{"*foo", []string{"*", "foo"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks, _ := Tokenize(tt.input)
			var got []string
			for _, tok := range toks {
				if tok.Kind != Text {
					t.Fatalf("token %v has kind %v, want TEXT", tok, tok.Kind)
				}
				got = append(got, tok.Value)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenizeQuoted(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"double", `"hello world"`, "hello world"},
		{"single", `'hello'`, "hello"},
		{"escaped quote", `"say \"hi\""`, `say "hi"`},
		{"escaped backslash", `"a\\b"`, `a\b`},
		{"other quote inside", `'it"s'`, `it"s`},
		{"unicode", `"A–C"`, "A–C"},
		{"empty", `""`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, errs := Tokenize(tt.input)
			if len(errs) != 0 {
				t.Fatalf("unexpected lexical errors: %v", errs)
			}
			if len(toks) != 1 || toks[0].Kind != Quoted {
				t.Fatalf("Tokenize(%q) = %v, want one QUOTED token", tt.input, toks)
			}
			if toks[0].Value != tt.want {
				t.Errorf("value = %q, want %q", toks[0].Value, tt.want)
			}
		})
	}
}

func TestTokenizeLineNumbers(t *testing.T) {
	toks, _ := Tokenize("a\nb\n\nc")
	want := []int{1, 2, 4}
	for i, tok := range toks {
		if tok.Line != want[i] {
			t.Errorf("token %q line = %d, want %d", tok.Value, tok.Line, want[i])
		}
	}
}

func TestTokenizeErrors(t *testing.T) {
	t.Run("unterminated quote", func(t *testing.T) {
		toks, errs := Tokenize(`{^"foo}`)
		if len(errs) != 1 {
			t.Fatalf("expected 1 lexical error, got %d", len(errs))
		}
		if !errors.Is(errs[0], ErrLexical) {
			t.Error("expected error to match ErrLexical")
		}
		if errs[0].Char != '"' || errs[0].Line != 1 {
			t.Errorf("error = %+v, want char '\"' on line 1", errs[0])
		}
		// scanning resumes after the quote
		got := kinds(toks)
		want := []Kind{LBrace, Caret, Text, RBrace}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("kinds = %v, want %v", got, want)
		}
	})

	t.Run("control character skipped", func(t *testing.T) {
		toks, errs := Tokenize("a\x01b\n\x02")
		if len(errs) != 2 {
			t.Fatalf("expected 2 lexical errors, got %d", len(errs))
		}
		if errs[1].Line != 2 {
			t.Errorf("second error line = %d, want 2", errs[1].Line)
		}
		if len(toks) != 2 || toks[0].Value != "a" || toks[1].Value != "b" {
			t.Errorf("tokens = %v, want [a b]", toks)
		}
	})

	t.Run("invalid utf8", func(t *testing.T) {
		_, errs := Tokenize("ok \xff")
		if len(errs) != 1 {
			t.Fatalf("expected 1 lexical error, got %d", len(errs))
		}
	})
}

func TestTokenizeProse(t *testing.T) {
	src := `Don't panic {^Towel|"Hitchhiker's Guide"} it's fine`
	toks, errs := Tokenize(src, WithProse())
	if len(errs) != 0 {
		t.Fatalf("unexpected lexical errors: %v", errs)
	}
	var values []string
	for _, tok := range toks {
		values = append(values, tok.Value)
	}
	want := []string{"Don't", "panic", "{", "^", "Towel", "|", "Hitchhiker's Guide", "}", "it's", "fine"}
	if !reflect.DeepEqual(values, want) {
		t.Errorf("values = %q, want %q", values, want)
	}

	_, errs = Tokenize(src)
	if len(errs) == 0 {
		t.Error("expected strict mode to reject the apostrophe")
	}
}

func TestTokenizerNextAfterEOF(t *testing.T) {
	tz := NewTokenizer("x")
	if tok := tz.Next(); tok.Kind != Text {
		t.Fatalf("first token kind = %v, want TEXT", tok.Kind)
	}
	for i := 0; i < 3; i++ {
		if tok := tz.Next(); tok.Kind != EOF {
			t.Errorf("call %d: kind = %v, want EOF", i, tok.Kind)
		}
	}
}
