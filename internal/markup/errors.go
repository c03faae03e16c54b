package markup

import (
	"errors"
	"fmt"
)

var (
	// ErrLexical matches every *LexicalError via errors.Is.
	ErrLexical = errors.New("lexical error")
	// ErrSyntax matches every *SyntaxError via errors.Is.
	ErrSyntax = errors.New("syntax error")
)

// DiagnosticKind classifies a Diagnostic.
type DiagnosticKind string

const (
	DiagLexical    DiagnosticKind = "lexical"
	DiagSyntax     DiagnosticKind = "syntax"
	DiagStructural DiagnosticKind = "structural"
)

// Diagnostic is the portable form of every error the core reports.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind" yaml:"kind"`
	Message string         `json:"message" yaml:"message"`
	Line    int            `json:"line" yaml:"line"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s: %s", d.Line, d.Kind, d.Message)
}

// LexicalError reports a character that matches no token rule, or an
// unterminated quoted string.
type LexicalError struct {
	Char    rune
	Line    int
	Message string
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Is lets errors.Is(err, ErrLexical) match.
func (e *LexicalError) Is(target error) bool {
	return target == ErrLexical
}

// Diagnostic converts the error into its portable record.
func (e *LexicalError) Diagnostic() Diagnostic {
	return Diagnostic{Kind: DiagLexical, Message: e.Message, Line: e.Line}
}

// SyntaxError reports a token sequence that matches no grammar rule.
// Token is the offending token; an EOF token means the input ended
// mid-construct.
type SyntaxError struct {
	Token   Token
	Line    int
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: syntax error at %s: %s", e.Line, e.Token, e.Message)
}

// Is lets errors.Is(err, ErrSyntax) match.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// Diagnostic converts the error into its portable record.
func (e *SyntaxError) Diagnostic() Diagnostic {
	return Diagnostic{
		Kind:    DiagSyntax,
		Message: fmt.Sprintf("at %s: %s", e.Token, e.Message),
		Line:    e.Line,
	}
}

// Diagnostics converts lexical errors to portable records.
func Diagnostics(errs []*LexicalError) []Diagnostic {
	if len(errs) == 0 {
		return nil
	}
	out := make([]Diagnostic, len(errs))
	for i, e := range errs {
		out[i] = e.Diagnostic()
	}
	return out
}
