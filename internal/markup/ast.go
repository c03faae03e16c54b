package markup

import (
	"fmt"
	"strings"
)

// Node is one element of a parsed syntax tree. The set of node types is
// closed: Mark, Directive, RangeBlock, ProcessingControl and TextNode.
type Node interface {
	StartLine() int
	isNode()
}

// DirectiveKind is the role of a directive, derived from its suffix and
// arguments.
type DirectiveKind int

const (
	KindUnknown DirectiveKind = iota
	KindInsert
	KindOpen
	KindClose
	KindForce
	KindSee
	KindSeeAlso
	KindRange
)

var directiveKindNames = [...]string{
	KindUnknown: "unknown",
	KindInsert:  "insert",
	KindOpen:    "open",
	KindClose:   "close",
	KindForce:   "force",
	KindSee:     "see",
	KindSeeAlso: "seealso",
	KindRange:   "range",
}

func (k DirectiveKind) String() string {
	if k >= 0 && int(k) < len(directiveKindNames) {
		return directiveKindNames[k]
	}
	return fmt.Sprintf("DirectiveKind(%d)", int(k))
}

// DeriveKind computes a directive's kind. An explicit suffix wins; without
// one the first argument key present among see, seealso and range decides;
// otherwise the directive is an insert.
func DeriveKind(suffix string, args *Args) DirectiveKind {
	switch suffix {
	case "+":
		return KindOpen
	case "-":
		return KindClose
	case "!":
		return KindForce
	}
	switch key, _, _ := args.First("see", "seealso", "range"); key {
	case "see":
		return KindSee
	case "seealso":
		return KindSeeAlso
	case "range":
		return KindRange
	}
	return KindInsert
}

// Mark is a {^...} index mark.
type Mark struct {
	Heading     string
	Subheadings []string
	Crossrefs   []string
	Suffix      string
	SortKey     string
	Emphasis    bool
	Closing     bool
	Alias       string
	Wildcard    string
	Line        int
}

// Path returns the heading followed by its subheadings.
func (m *Mark) Path() []string {
	return append([]string{m.Heading}, m.Subheadings...)
}

func (m *Mark) StartLine() int { return m.Line }
func (*Mark) isNode()          {}

func (m *Mark) String() string {
	return fmt.Sprintf("<Mark %s>", strings.Join(m.Path(), ">"))
}

// Directive is a {name...} directive.
type Directive struct {
	Name   string
	Kind   DirectiveKind
	Suffix string
	Args   *Args
	Line   int
}

// NewDirective builds a directive and derives its kind.
func NewDirective(name, suffix string, args *Args) *Directive {
	if args == nil {
		args = &Args{}
	}
	return &Directive{Name: name, Kind: DeriveKind(suffix, args), Suffix: suffix, Args: args}
}

func (d *Directive) StartLine() int { return d.Line }
func (*Directive) isNode()          {}

func (d *Directive) String() string {
	if d.Args.Len() > 0 {
		return fmt.Sprintf("<Directive name=%q kind=%s args=%v>", d.Name, d.Kind, d.Args.Map())
	}
	return fmt.Sprintf("<Directive name=%q kind=%s>", d.Name, d.Kind)
}

// RangeBlock is an open directive, the content up to its matching close
// directive, and that close directive.
type RangeBlock struct {
	Start   *Directive
	Content []Node
	End     *Directive
}

// NewRangeBlock pairs start and end, which must share a name.
func NewRangeBlock(start *Directive, content []Node, end *Directive) (*RangeBlock, error) {
	if start == nil || end == nil {
		return nil, fmt.Errorf("range block needs both a start and an end directive")
	}
	if start.Name != end.Name {
		return nil, fmt.Errorf("range block %q closed by %q", start.Name, end.Name)
	}
	return &RangeBlock{Start: start, Content: content, End: end}, nil
}

func (b *RangeBlock) StartLine() int {
	if b.Start == nil {
		return 0
	}
	return b.Start.Line
}
func (*RangeBlock) isNode() {}

func (b *RangeBlock) String() string {
	name := ""
	if b.Start != nil {
		name = b.Start.Name
	}
	return fmt.Sprintf("<RangeBlock %q with %d elements>", name, len(b.Content))
}

// ProcessingControl is {^+} or {^-}: it switches index recording on or off.
type ProcessingControl struct {
	Enabled bool
	Line    int
}

func (p *ProcessingControl) StartLine() int { return p.Line }
func (*ProcessingControl) isNode()          {}

func (p *ProcessingControl) String() string {
	if p.Enabled {
		return "<ProcessingControl on>"
	}
	return "<ProcessingControl off>"
}

// TextNode is a run of literal text between markup.
type TextNode struct {
	Value string
	Line  int
}

func (t *TextNode) StartLine() int { return t.Line }
func (*TextNode) isNode()          {}

func (t *TextNode) String() string { return t.Value }
