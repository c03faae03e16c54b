package index

import (
	"errors"
	"fmt"

	"github.com/itsmostafa/textindex/internal/markup"
)

// ErrStructural matches every *StructuralError via errors.Is.
var ErrStructural = errors.New("structural error")

// StructuralError records a malformed node the builder worked around.
type StructuralError struct {
	Source  string
	Line    int
	Message string
}

func (e *StructuralError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s:%d: %s", e.Source, e.Line, e.Message)
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Is lets errors.Is(err, ErrStructural) match.
func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

// Diagnostic converts the error into its portable record.
func (e *StructuralError) Diagnostic() markup.Diagnostic {
	return markup.Diagnostic{Kind: markup.DiagStructural, Message: e.Message, Line: e.Line}
}
