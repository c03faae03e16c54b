package index

import (
	"slices"
	"strings"
)

// TreeNode is one heading level in the hierarchy built from marks.
type TreeNode struct {
	Title    string      `json:"title" yaml:"title"`
	Refs     []Ref       `json:"refs,omitempty" yaml:"refs,omitempty"`
	Children []*TreeNode `json:"children,omitempty" yaml:"children,omitempty"`

	byTitle map[string]*TreeNode
}

// Tree is the heading hierarchy. Roots never share nodes.
type Tree struct {
	root TreeNode
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{}
}

// Insert adds path to the tree, creating intermediate levels on demand, and
// records ref on the deepest node.
func (t *Tree) Insert(path []string, ref Ref) *TreeNode {
	node := &t.root
	for _, title := range path {
		node = node.child(title)
	}
	if node != &t.root {
		node.Refs = append(node.Refs, ref)
	}
	return node
}

func (n *TreeNode) child(title string) *TreeNode {
	if c, ok := n.byTitle[title]; ok {
		return c
	}
	if n.byTitle == nil {
		n.byTitle = make(map[string]*TreeNode)
	}
	c := &TreeNode{Title: title}
	n.byTitle[title] = c
	n.Children = append(n.Children, c)
	return c
}

// Roots returns the top-level headings in insertion order.
func (t *Tree) Roots() []*TreeNode {
	return t.root.Children
}

// Find returns the node at path, or nil.
func (t *Tree) Find(path ...string) *TreeNode {
	node := &t.root
	for _, title := range path {
		next, ok := node.byTitle[title]
		if !ok {
			return nil
		}
		node = next
	}
	if node == &t.root {
		return nil
	}
	return node
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	count := 0
	t.Walk(func(*TreeNode, int) { count++ })
	return count
}

// Walk visits every node depth-first in insertion order, passing its depth
// (0 for roots).
func (t *Tree) Walk(fn func(node *TreeNode, depth int)) {
	var walk func([]*TreeNode, int)
	walk = func(nodes []*TreeNode, depth int) {
		for _, n := range nodes {
			fn(n, depth)
			walk(n.Children, depth+1)
		}
	}
	walk(t.root.Children, 0)
}

// Paths returns the full path of every leaf.
func (t *Tree) Paths() [][]string {
	var paths [][]string
	var walk func([]*TreeNode, []string)
	walk = func(nodes []*TreeNode, prefix []string) {
		for _, n := range nodes {
			path := append(slices.Clone(prefix), n.Title)
			if len(n.Children) == 0 {
				paths = append(paths, path)
				continue
			}
			walk(n.Children, path)
		}
	}
	walk(t.root.Children, nil)
	return paths
}

// Sorted returns a copy of the tree with the children of every node ordered
// by cmp.
func (t *Tree) Sorted(cmp func(a, b string) int) *Tree {
	out := NewTree()
	var copyLevel func(dst, src *TreeNode)
	copyLevel = func(dst, src *TreeNode) {
		children := slices.Clone(src.Children)
		slices.SortStableFunc(children, func(a, b *TreeNode) int { return cmp(a.Title, b.Title) })
		for _, c := range children {
			nc := dst.child(c.Title)
			nc.Refs = slices.Clone(c.Refs)
			copyLevel(nc, c)
		}
	}
	copyLevel(&out.root, &t.root)
	return out
}

// ToMap renders the tree as nested mappings; leaves are empty mappings.
func (t *Tree) ToMap() map[string]any {
	var level func([]*TreeNode) map[string]any
	level = func(nodes []*TreeNode) map[string]any {
		m := make(map[string]any, len(nodes))
		for _, n := range nodes {
			m[n.Title] = level(n.Children)
		}
		return m
	}
	return level(t.root.Children)
}

// String renders the tree as an indented outline.
func (t *Tree) String() string {
	var sb strings.Builder
	t.Walk(func(n *TreeNode, depth int) {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(n.Title)
		sb.WriteString("\n")
	})
	return sb.String()
}
