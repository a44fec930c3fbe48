package mirror

import (
	"fmt"
	"strings"

	"github.com/roach88/mirror/internal/descriptor"
)

// Tree is a mirror rooted at the descriptor table's global scope. Library
// roots such as "lib" are the root's children.
type Tree struct {
	table *descriptor.Table
	root  *Node
}

// New returns an empty tree over table.
func New(table *descriptor.Table) *Tree {
	return &Tree{
		table: table,
		root: &Node{
			table:    table,
			ref:      table.Root(),
			role:     RoleNamespace,
			static:   true,
			children: make(map[string]*Node),
		},
	}
}

// Root is the unnamed global node.
func (t *Tree) Root() *Node {
	return t.root
}

// Table is the descriptor table the tree resolves against.
func (t *Tree) Table() *descriptor.Table {
	return t.table
}

// AddPath inserts every missing segment of path. opts apply to the
// terminal node only. Segments that already exist are kept as they are.
func (t *Tree) AddPath(path []string, opts AddOptions) error {
	if len(path) == 0 {
		return &Error{Code: CodeUsage, Err: fmt.Errorf("%w: empty path", ErrUsage)}
	}
	node := t.root
	for i := range path {
		var o AddOptions
		if i == len(path)-1 {
			o = opts
		}
		if err := node.AddPath(path, i, o); err != nil {
			return err
		}
		node = node.Child(path[i])
	}
	return nil
}

// Add is AddPath for a dotted path.
func (t *Tree) Add(dotted string, opts AddOptions) error {
	return t.AddPath(SplitPath(dotted), opts)
}

// Lookup returns the node at path.
func (t *Tree) Lookup(path []string) (*Node, error) {
	node := t.root
	for i, seg := range path {
		next := node.Child(seg)
		if next == nil {
			return nil, &Error{Code: CodeNoChild, Path: path[:i], Segment: seg, Err: ErrNoChild}
		}
		node = next
	}
	return node, nil
}

// Get is Lookup for a dotted path.
func (t *Tree) Get(dotted string) (*Node, error) {
	return t.Lookup(SplitPath(dotted))
}

// Walk visits every mirrored node below the root depth first, in sorted
// child order. Returning false from fn skips the node's children.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		for _, name := range n.Children() {
			child := n.Child(name)
			if fn(child, depth) {
				visit(child, depth+1)
			}
		}
	}
	visit(t.root, 0)
}

// SplitPath splits a dotted path. The empty string has no segments.
func SplitPath(dotted string) []string {
	if dotted == "" {
		return nil
	}
	return strings.Split(dotted, ".")
}
