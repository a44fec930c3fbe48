package mirror

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/roach88/mirror/internal/descriptor"
	"github.com/roach88/mirror/internal/ir"
)

// Role is what a node can do, derived from its descriptor kind.
type Role uint8

const (
	// RoleNamespace nodes group other nodes and cannot be invoked.
	RoleNamespace Role = iota + 1
	// RoleClass nodes construct instances when invoked.
	RoleClass
	// RoleCallable nodes are functions, methods and attributes.
	RoleCallable
)

func (r Role) String() string {
	switch r {
	case RoleNamespace:
		return "namespace"
	case RoleClass:
		return "class"
	case RoleCallable:
		return "callable"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

func roleOf(k descriptor.Kind) Role {
	switch k {
	case descriptor.KindNamespace:
		return RoleNamespace
	case descriptor.KindClass:
		return RoleClass
	default:
		return RoleCallable
	}
}

// AddOptions configures the node created by an insertion. Zero values fall
// back to the descriptor: its return type and its static flag.
type AddOptions struct {
	ReturnType string
	Static     *bool

	// RequiresConstruction makes later insertions below the new node
	// resolve attributes on the object produced by calling it with
	// ConstructionArgs.
	RequiresConstruction bool
	ConstructionArgs     []ir.Value
}

// Node mirrors one path segment. Everything except children is fixed at
// construction.
type Node struct {
	table                *descriptor.Table
	path                 []string
	ref                  descriptor.Ref
	role                 Role
	returnType           string
	static               bool
	requiresConstruction bool
	constructionArgs     []ir.Value

	mu       sync.RWMutex
	children map[string]*Node
}

func newNode(table *descriptor.Table, path []string, ref descriptor.Ref, opts AddOptions) (*Node, error) {
	e, err := table.Entry(ref)
	if err != nil {
		return nil, err
	}
	n := &Node{
		table:                table,
		path:                 path,
		ref:                  ref,
		role:                 roleOf(e.Kind),
		returnType:           e.ReturnType,
		static:               e.Static,
		requiresConstruction: opts.RequiresConstruction,
		constructionArgs:     slices.Clone(opts.ConstructionArgs),
		children:             make(map[string]*Node),
	}
	if opts.ReturnType != "" {
		n.returnType = opts.ReturnType
	}
	if opts.Static != nil {
		n.static = *opts.Static
	}
	return n, nil
}

// AddPath inserts path[index] as a child of n. Inserting a segment that is
// already present does nothing. The child is resolved on the descriptor n
// refers to, or, when n requires construction, on the instance produced by
// constructing it with n's construction args. A namespace child is
// rejected unless n is itself a namespace, and the tree is left unchanged.
func (n *Node) AddPath(path []string, index int, opts AddOptions) error {
	if index < 0 || index >= len(path) {
		return &Error{Code: CodeUsage, Path: n.path, Err: fmt.Errorf("%w: index %d, path length %d", ErrIndexOutOfRange, index, len(path))}
	}
	name := path[index]

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, ok := n.children[name]; ok {
		return nil
	}

	owner := n.ref
	if n.requiresConstruction {
		inst, err := n.table.Construct(n.ref, n.constructionArgs)
		if err != nil {
			return &Error{Code: CodeResolve, Path: n.path, Segment: name, Err: err}
		}
		owner = inst
	}

	ref, err := n.table.Lookup(owner, name)
	if err != nil {
		return &Error{Code: CodeResolve, Path: n.path, Segment: name, Err: err}
	}
	if n.role != RoleNamespace && n.table.IsNamespace(ref) {
		return &Error{Code: CodeNamespaceLeaf, Path: n.path, Segment: name, Err: ErrNamespaceLeaf}
	}

	childPath := append(slices.Clone(n.path), name)
	child, err := newNode(n.table, childPath, ref, opts)
	if err != nil {
		return &Error{Code: CodeResolve, Path: n.path, Segment: name, Err: err}
	}
	n.children[name] = child
	return nil
}

// Child returns the child mirrored under name, or nil.
func (n *Node) Child(name string) *Node {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.children[name]
}

// Children returns the mirrored child names in sorted order.
func (n *Node) Children() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len is the number of mirrored children.
func (n *Node) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.children)
}

// Path returns a copy of the node's path segments.
func (n *Node) Path() []string {
	return slices.Clone(n.path)
}

// FullName is the dotted path invoked remotely.
func (n *Node) FullName() string {
	return strings.Join(n.path, ".")
}

// Ref is the descriptor this node mirrors.
func (n *Node) Ref() descriptor.Ref {
	return n.ref
}

func (n *Node) Role() Role {
	return n.role
}

func (n *Node) IsStatic() bool {
	return n.static
}

func (n *Node) ReturnType() string {
	return n.returnType
}

// RequiresConstruction reports whether attributes below n resolve on a
// constructed instance, and with which arguments.
func (n *Node) RequiresConstruction() (bool, []ir.Value) {
	return n.requiresConstruction, slices.Clone(n.constructionArgs)
}
