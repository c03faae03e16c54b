package index

import (
	"fmt"
	"slices"

	"github.com/itsmostafa/textindex/internal/markup"
)

// Index groups finalized entries by bucket key (an upper-cased first letter).
type Index map[string][]*Entry

// Letters returns the bucket keys in collation order.
func (idx Index) Letters() []string {
	keys := make([]string, 0, len(idx))
	for k := range idx {
		keys = append(keys, k)
	}
	c := NewCollator()
	slices.SortFunc(keys, c.Compare)
	return keys
}

// Len returns the number of entries across all buckets.
func (idx Index) Len() int {
	n := 0
	for _, bucket := range idx {
		n += len(bucket)
	}
	return n
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithSource tags every ref the builder records with name.
func WithSource(name string) BuilderOption {
	return func(b *Builder) {
		b.source = name
	}
}

// Builder folds parsed nodes into entries, a heading tree and, on
// finalization, a grouped alphabetical index. A Builder is not safe for
// concurrent use.
type Builder struct {
	source  string
	enabled bool
	entries []*Entry
	tree    *Tree
	diags   []*StructuralError
	coll    *Collator

	index Index
	dirty bool
}

// NewBuilder creates an empty builder with recording switched on.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		enabled: true,
		tree:    NewTree(),
		coll:    NewCollator(),
		dirty:   true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetSource changes the source name recorded on refs from now on.
func (b *Builder) SetSource(name string) {
	b.source = name
}

// Enabled reports whether recording is currently switched on.
func (b *Builder) Enabled() bool {
	return b.enabled
}

// Process appends the entries for nodes. A processing control at the top
// level switches recording for the rest of this and later calls; one inside
// a range block only affects the rest of that block. Top-level text is
// dropped.
func (b *Builder) Process(nodes []markup.Node) {
	b.enabled = b.reduce(nodes, b.enabled, func(e *Entry) {
		if e.Type == EntryText {
			return
		}
		b.entries = append(b.entries, e)
	})
	b.dirty = true
}

// reduce emits the entry of every recorded node and returns the recording
// state after the last one.
func (b *Builder) reduce(nodes []markup.Node, enabled bool, emit func(*Entry)) bool {
	for _, n := range nodes {
		if pc, ok := n.(*markup.ProcessingControl); ok && pc != nil {
			enabled = pc.Enabled
			continue
		}
		if !enabled {
			continue
		}
		emit(b.entryFor(n))
	}
	return enabled
}

func (b *Builder) ref(line int) []Ref {
	return []Ref{{Source: b.source, Line: line}}
}

func (b *Builder) entryFor(n markup.Node) *Entry {
	switch n := n.(type) {
	case *markup.Mark:
		if n != nil {
			return b.markEntry(n)
		}
	case *markup.Directive:
		if n != nil {
			return b.directiveEntry(n)
		}
	case *markup.RangeBlock:
		if n != nil {
			return b.rangeBlockEntry(n)
		}
	case *markup.TextNode:
		if n != nil {
			return &Entry{Type: EntryText, Value: n.Value, Refs: b.ref(n.Line)}
		}
	}
	line := 0
	if n != nil && !isNilNode(n) {
		line = n.StartLine()
	}
	return &Entry{Type: EntryUnknown, Detail: fmt.Sprintf("%v", n), Refs: b.ref(line)}
}

func isNilNode(n markup.Node) bool {
	switch n := n.(type) {
	case *markup.Mark:
		return n == nil
	case *markup.Directive:
		return n == nil
	case *markup.RangeBlock:
		return n == nil
	case *markup.TextNode:
		return n == nil
	case *markup.ProcessingControl:
		return n == nil
	}
	return false
}

func (b *Builder) markEntry(m *markup.Mark) *Entry {
	e := &Entry{
		Type:        EntryMark,
		Heading:     m.Heading,
		Subheadings: slices.Clone(m.Subheadings),
		Crossrefs:   slices.Clone(m.Crossrefs),
		Suffix:      m.Suffix,
		SortKey:     m.SortKey,
		Emphasis:    m.Emphasis,
		Closing:     m.Closing,
		Alias:       m.Alias,
		Wildcard:    m.Wildcard,
		Refs:        b.ref(m.Line),
	}
	if m.Heading != "" {
		b.tree.Insert(m.Path(), e.Refs[0])
	}
	return e
}

func (b *Builder) directiveEntry(d *markup.Directive) *Entry {
	args := d.Args
	if args == nil {
		args = markup.NewArgs()
	}
	e := &Entry{Name: d.Name, Args: args, Refs: b.ref(d.Line)}
	switch d.Kind {
	case markup.KindInsert, markup.KindOpen, markup.KindClose, markup.KindForce:
		e.Type = EntryDirective
		e.Kind = d.Kind.String()
	case markup.KindRange:
		e.Type = EntryRange
		e.Label = args.Value("range")
	case markup.KindSee, markup.KindSeeAlso:
		e.Type = EntryXref
		e.Kind = d.Kind.String()
		e.Target = args.Value(e.Kind)
	default:
		e.Type = EntryUnknownDirective
		e.Kind = d.Kind.String()
	}
	return e
}

func (b *Builder) rangeBlockEntry(rb *markup.RangeBlock) *Entry {
	e := &Entry{Type: EntryRangeBlock, Refs: b.ref(rb.StartLine())}
	if rb.Start == nil {
		b.diags = append(b.diags, &StructuralError{
			Source:  b.source,
			Line:    rb.StartLine(),
			Message: "range block has no start directive",
		})
	} else {
		e.Name = rb.Start.Name
		e.Label, _ = rb.Start.Args.Get("range")
		if e.Label == "" {
			e.Label = rb.Start.Args.Value("label")
		}
	}
	if rb.End == nil {
		b.diags = append(b.diags, &StructuralError{
			Source:  b.source,
			Line:    rb.StartLine(),
			Message: fmt.Sprintf("range block %q has no end directive", e.Name),
		})
	}
	content := make([]*Entry, 0, len(rb.Content))
	b.reduce(rb.Content, true, func(c *Entry) {
		if c.Type != EntryText {
			b.entries = append(b.entries, c)
		}
		content = append(content, c)
	})
	e.Content = content
	return e
}

// Entries returns every recorded entry in document order. Entries found
// inside a range block precede the block itself.
func (b *Builder) Entries() []*Entry {
	return b.entries
}

// Tree returns the heading hierarchy built from marks.
func (b *Builder) Tree() *Tree {
	return b.tree
}

// Diagnostics returns the structural problems met so far.
func (b *Builder) Diagnostics() []*StructuralError {
	return b.diags
}

// Finalize groups directive and range entries by the first letter of their
// label, orders each bucket and merges entries sharing a label. It leaves
// the recorded entries untouched, so calling it again yields the same
// index.
func (b *Builder) Finalize() Index {
	idx := make(Index)
	for _, e := range b.entries {
		if e.Type != EntryDirective && e.Type != EntryRange {
			continue
		}
		label := groupLabel(e)
		if label == "" {
			continue
		}
		c := e.clone()
		c.Label = label
		key := BucketKey(label)
		idx[key] = append(idx[key], c)
	}
	for key, bucket := range idx {
		slices.SortStableFunc(bucket, func(x, y *Entry) int {
			return b.coll.Compare(sortKey(x), sortKey(y))
		})
		idx[key] = merge(bucket)
	}
	b.index = idx
	b.dirty = false
	return idx
}

// Index returns the finalized index, finalizing first if entries were
// processed since the last call.
func (b *Builder) Index() Index {
	if b.dirty || b.index == nil {
		return b.Finalize()
	}
	return b.index
}

// Map returns the builder's state as plain maps and slices under the keys
// "index", "tree" and "entries".
func (b *Builder) Map() map[string]any {
	idx := b.Index()
	index := make(map[string]any, len(idx))
	for key, bucket := range idx {
		list := make([]any, len(bucket))
		for i, e := range bucket {
			list[i] = e.ToMap()
		}
		index[key] = list
	}
	entries := make([]any, len(b.entries))
	for i, e := range b.entries {
		entries[i] = e.ToMap()
	}
	return map[string]any{
		"index":   index,
		"tree":    b.tree.ToMap(),
		"entries": entries,
	}
}

// groupLabel picks the label an entry is filed under: the term argument,
// then the range argument, then the entry's own label.
func groupLabel(e *Entry) string {
	for _, key := range []string{"term", "range"} {
		if v := e.Args.Value(key); v != "" {
			return v
		}
	}
	return e.Label
}

func sortKey(e *Entry) string {
	if v, ok := e.Args.Get("sort"); ok {
		return v
	}
	return e.Label
}

// merge collapses entries with identical labels into the first one,
// concatenating their refs. bucket must be sorted.
func merge(bucket []*Entry) []*Entry {
	seen := make(map[string]*Entry, len(bucket))
	out := bucket[:0]
	for _, e := range bucket {
		if first, ok := seen[e.Label]; ok {
			first.Refs = append(first.Refs, e.Refs...)
			continue
		}
		seen[e.Label] = e
		out = append(out, e)
	}
	return out
}
