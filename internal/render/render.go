// Package render writes a finished index as styled text, JSON or YAML.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/itsmostafa/textindex/internal/compile"
	"github.com/itsmostafa/textindex/internal/index"
	"github.com/itsmostafa/textindex/internal/markup"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Options configures rendering.
type Options struct {
	Format string
	Color  bool
	// Tree adds the heading hierarchy.
	Tree bool
	// Entries adds the flat entry list to JSON and YAML output.
	Entries bool
}

// document is the JSON and YAML shape of a rendered index.
type document struct {
	Index   index.Index    `json:"index" yaml:"index"`
	Tree    map[string]any `json:"tree,omitempty" yaml:"tree,omitempty"`
	Entries []*index.Entry `json:"entries,omitempty" yaml:"entries,omitempty"`
}

// Render writes the builder's finalized index to w.
func Render(w io.Writer, b *index.Builder, opts Options) error {
	switch strings.ToLower(opts.Format) {
	case "", FormatText:
		return Text(w, b, opts)
	case FormatJSON:
		return JSON(w, b, opts)
	case FormatYAML:
		return YAML(w, b, opts)
	}
	return fmt.Errorf("unknown output format %q", opts.Format)
}

func newDocument(b *index.Builder, opts Options) document {
	doc := document{Index: b.Index()}
	if opts.Tree {
		doc.Tree = b.Tree().ToMap()
	}
	if opts.Entries {
		doc.Entries = b.Entries()
	}
	return doc
}

// JSON writes the index as indented JSON.
func JSON(w io.Writer, b *index.Builder, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(newDocument(b, opts)); err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	return nil
}

// YAML writes the index as YAML.
func YAML(w io.Writer, b *index.Builder, opts Options) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(b, opts)); err != nil {
		return fmt.Errorf("failed to marshal index: %w", err)
	}
	return enc.Close()
}

// Text writes the index as letter sections, one line per entry followed by
// its references.
func Text(w io.Writer, b *index.Builder, opts Options) error {
	st := newStyles(w, opts.Color)
	idx := b.Index()

	var sb strings.Builder
	for i, letter := range idx.Letters() {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(st.letter.Render(letter))
		sb.WriteString("\n")
		for _, e := range idx[letter] {
			sb.WriteString("  ")
			sb.WriteString(st.label.Render(e.Label))
			if refs := formatRefs(e.Refs); refs != "" {
				sb.WriteString("  ")
				sb.WriteString(st.dim.Render(refs))
			}
			sb.WriteString("\n")
		}
	}

	if opts.Tree && b.Tree().Len() > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(st.heading.Render("Headings"))
		sb.WriteString("\n")
		sorted := b.Tree().Sorted(index.NewCollator().Compare)
		sorted.Walk(func(n *index.TreeNode, depth int) {
			sb.WriteString(strings.Repeat("  ", depth+1))
			sb.WriteString(n.Title)
			if refs := formatRefs(n.Refs); refs != "" {
				sb.WriteString("  ")
				sb.WriteString(st.dim.Render(refs))
			}
			sb.WriteString("\n")
		})
	}

	if sb.Len() == 0 {
		sb.WriteString(st.dim.Render("(empty index)"))
		sb.WriteString("\n")
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// formatRefs joins refs, dropping the source when every ref shares one.
func formatRefs(refs []index.Ref) string {
	if len(refs) == 0 {
		return ""
	}
	single := true
	for _, r := range refs[1:] {
		if r.Source != refs[0].Source {
			single = false
			break
		}
	}
	parts := make([]string, len(refs))
	for i, r := range refs {
		if single {
			parts[i] = fmt.Sprintf("%d", r.Line)
		} else {
			parts[i] = r.String()
		}
	}
	return strings.Join(parts, ", ")
}

// Diagnostics writes one styled line per diagnostic; syntax errors are
// marked as errors and everything else as warnings.
func Diagnostics(w io.Writer, diags []compile.Diagnostic, color bool) error {
	st := newStyles(w, color)
	for _, d := range diags {
		tag := st.warn.Render("warning")
		if d.Kind == markup.DiagSyntax {
			tag = st.err.Render("error")
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", tag, d.String()); err != nil {
			return err
		}
	}
	return nil
}

// Summary writes a boxed one-line summary of a compilation.
func Summary(w io.Writer, documents, entries, diagnostics int, color bool) error {
	st := newStyles(w, color)
	content := fmt.Sprintf("%s %d  %s %d  %s %d",
		st.dim.Render("Documents:"), documents,
		st.dim.Render("Entries:"), entries,
		st.dim.Render("Diagnostics:"), diagnostics,
	)
	_, err := fmt.Fprintln(w, st.box.Render(content))
	return err
}
