package index

import (
	"fmt"

	"github.com/itsmostafa/textindex/internal/markup"
)

// EntryType tags the variant an Entry holds.
type EntryType int

const (
	EntryUnknown EntryType = iota
	EntryMark
	EntryDirective
	EntryXref
	EntryRange
	EntryRangeBlock
	EntryUnknownDirective
	EntryText
)

var entryTypeNames = [...]string{
	EntryUnknown:          "unknown",
	EntryMark:             "mark",
	EntryDirective:        "directive",
	EntryXref:             "xref",
	EntryRange:            "range",
	EntryRangeBlock:       "range_block",
	EntryUnknownDirective: "unknown_directive",
	EntryText:             "text",
}

func (t EntryType) String() string {
	if t >= 0 && int(t) < len(entryTypeNames) {
		return entryTypeNames[t]
	}
	return fmt.Sprintf("EntryType(%d)", int(t))
}

// MarshalText encodes the type by name for JSON and YAML.
func (t EntryType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Ref locates the markup an entry came from.
type Ref struct {
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
	Line   int    `json:"line" yaml:"line"`
}

func (r Ref) String() string {
	if r.Source == "" {
		return fmt.Sprintf("%d", r.Line)
	}
	return fmt.Sprintf("%s:%d", r.Source, r.Line)
}

// Entry is the builder's normalized unit. Type selects which fields are
// meaningful:
//
//   - mark: Heading, Subheadings, Crossrefs, Suffix, SortKey, Emphasis,
//     Closing, Alias, Wildcard
//   - directive: Kind (insert, open, close or force), Name, Args
//   - range: Name, Label, Args
//   - xref: Kind (see or seealso), Name, Target, Args
//   - range_block: Name, Label, Content
//   - unknown_directive: Kind, Name, Args
//   - text: Value
//   - unknown: Detail
type Entry struct {
	Type        EntryType    `json:"type" yaml:"type"`
	Kind        string       `json:"kind,omitempty" yaml:"kind,omitempty"`
	Name        string       `json:"name,omitempty" yaml:"name,omitempty"`
	Label       string       `json:"label,omitempty" yaml:"label,omitempty"`
	Target      string       `json:"target,omitempty" yaml:"target,omitempty"`
	Heading     string       `json:"heading,omitempty" yaml:"heading,omitempty"`
	Subheadings []string     `json:"subheadings,omitempty" yaml:"subheadings,omitempty"`
	Crossrefs   []string     `json:"crossrefs,omitempty" yaml:"crossrefs,omitempty"`
	Suffix      string       `json:"suffix,omitempty" yaml:"suffix,omitempty"`
	SortKey     string       `json:"sort_key,omitempty" yaml:"sort_key,omitempty"`
	Emphasis    bool         `json:"emphasis,omitempty" yaml:"emphasis,omitempty"`
	Closing     bool         `json:"closing,omitempty" yaml:"closing,omitempty"`
	Alias       string       `json:"alias,omitempty" yaml:"alias,omitempty"`
	Wildcard    string       `json:"wildcard,omitempty" yaml:"wildcard,omitempty"`
	Args        *markup.Args `json:"args,omitempty" yaml:"args,omitempty"`
	Content     []*Entry     `json:"content,omitempty" yaml:"content,omitempty"`
	Value       string       `json:"value,omitempty" yaml:"value,omitempty"`
	Detail      string       `json:"detail,omitempty" yaml:"detail,omitempty"`
	Refs        []Ref        `json:"refs,omitempty" yaml:"refs,omitempty"`
}

// Path returns a mark entry's heading followed by its subheadings.
func (e *Entry) Path() []string {
	if e.Heading == "" {
		return nil
	}
	return append([]string{e.Heading}, e.Subheadings...)
}

// clone copies e deeply enough that merging refs never touches e.
func (e *Entry) clone() *Entry {
	c := *e
	c.Refs = append([]Ref(nil), e.Refs...)
	return &c
}

// ToMap converts the entry into plain maps and slices.
func (e *Entry) ToMap() map[string]any {
	m := map[string]any{"type": e.Type.String()}
	put := func(key, val string) {
		if val != "" {
			m[key] = val
		}
	}
	put("kind", e.Kind)
	put("name", e.Name)
	put("label", e.Label)
	put("target", e.Target)
	put("heading", e.Heading)
	put("suffix", e.Suffix)
	put("sort_key", e.SortKey)
	put("alias", e.Alias)
	put("wildcard", e.Wildcard)
	put("value", e.Value)
	put("detail", e.Detail)
	if e.Type == EntryMark {
		m["subheadings"] = stringsToAny(e.Subheadings)
		m["crossrefs"] = stringsToAny(e.Crossrefs)
		m["emphasis"] = e.Emphasis
		m["closing"] = e.Closing
	}
	if e.Args != nil {
		args := make(map[string]any, e.Args.Len())
		for k, v := range e.Args.Map() {
			args[k] = v
		}
		m["args"] = args
	}
	if e.Type == EntryRangeBlock {
		content := make([]any, len(e.Content))
		for i, c := range e.Content {
			content[i] = c.ToMap()
		}
		m["content"] = content
	}
	if len(e.Refs) > 0 {
		refs := make([]any, len(e.Refs))
		for i, r := range e.Refs {
			ref := map[string]any{"line": r.Line}
			if r.Source != "" {
				ref["source"] = r.Source
			}
			refs[i] = ref
		}
		m["refs"] = refs
	}
	return m
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
