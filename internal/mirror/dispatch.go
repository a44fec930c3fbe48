package mirror

import (
	"context"
	"fmt"

	"github.com/roach88/mirror/internal/action"
	"github.com/roach88/mirror/internal/descriptor"
	"github.com/roach88/mirror/internal/normalize"
	"github.com/roach88/mirror/internal/pointer"
)

// Client is the destination a bound call is dispatched to.
type Client = normalize.Client

// Query asks an unbound call to resolve Path starting at Index, the
// position of the segment below the node being called.
type Query struct {
	Path  []string
	Index int
}

// Request is one call on a node. A non-nil Client selects bound mode.
// Otherwise Query is required and the call navigates the tree.
type Request struct {
	Client Client
	Args   []any
	Kwargs map[string]any
	Query  *Query
}

// Result holds the placeholder pointer of a bound call or the resolved
// descriptor reference of a query.
type Result struct {
	Bound   bool
	Pointer pointer.Pointer
	Ref     descriptor.Ref
}

// Dispatch runs one call in the mode the request selects.
func (n *Node) Dispatch(ctx context.Context, req Request) (Result, error) {
	if req.Client != nil {
		p, err := n.dispatchBound(ctx, req.Client, req.Args, req.Kwargs)
		if err != nil {
			return Result{}, err
		}
		return Result{Bound: true, Pointer: p}, nil
	}

	if req.Query == nil {
		return Result{}, &Error{Code: CodeUsage, Path: n.path, Err: fmt.Errorf("%w: call without a client requires a path and index", ErrUsage)}
	}
	q := req.Query
	if q.Index < 0 || q.Index > len(q.Path) {
		return Result{}, &Error{Code: CodeUsage, Path: n.path, Err: fmt.Errorf("%w: index %d, path length %d", ErrIndexOutOfRange, q.Index, len(q.Path))}
	}
	if q.Index == len(q.Path) {
		return Result{Ref: n.ref}, nil
	}

	seg := q.Path[q.Index]
	child := n.Child(seg)
	if child == nil {
		return Result{}, &Error{Code: CodeNoChild, Path: n.path, Segment: seg, Err: ErrNoChild}
	}
	return child.Dispatch(ctx, Request{Query: &Query{Path: q.Path, Index: q.Index + 1}})
}

// check validates a bound call against c without allocating or sending.
func (n *Node) check(c Client, args []any, kwargs map[string]any) error {
	if n.role == RoleNamespace {
		return &Error{Code: CodeUsage, Path: n.path, Err: ErrNotInvocable}
	}
	if n.returnType != "" {
		if _, err := c.Resolve(n.returnType); err != nil {
			return &Error{Code: CodeDispatch, Path: n.path, Err: fmt.Errorf("%w %q: %w", pointer.ErrUnknownType, n.returnType, err)}
		}
	}
	if err := normalize.Check(c, args, kwargs); err != nil {
		return &Error{Code: CodeDispatch, Path: n.path, Err: err}
	}
	return nil
}

// dispatchBound resolves the return type, allocates the placeholder,
// normalizes arguments and sends the RunAction. Every argument, including
// those of pending calls, is checked before the first message is sent. It
// never waits on delivery.
func (n *Node) dispatchBound(ctx context.Context, c Client, args []any, kwargs map[string]any) (pointer.Pointer, error) {
	if err := n.check(c, args, kwargs); err != nil {
		return pointer.Pointer{}, err
	}
	if err := ctx.Err(); err != nil {
		return pointer.Pointer{}, &Error{Code: CodeDispatch, Path: n.path, Err: err}
	}

	result, err := pointer.Make(c, n.returnType)
	if err != nil {
		return pointer.Pointer{}, &Error{Code: CodeDispatch, Path: n.path, Err: err}
	}

	norm, err := normalize.Normalize(ctx, c, args, kwargs)
	if err != nil {
		return pointer.Pointer{}, &Error{Code: CodeDispatch, Path: n.path, Err: err}
	}

	c.SendNoReply(action.NewRunAction(result.ID, c.Address(), n.FullName(), norm.Args, norm.Kwargs, n.static))
	return result, nil
}

// Call dispatches a bound call and returns its placeholder pointer.
func (n *Node) Call(ctx context.Context, c Client, args []any, kwargs map[string]any) (pointer.Pointer, error) {
	if c == nil {
		return pointer.Pointer{}, &Error{Code: CodeUsage, Path: n.path, Err: fmt.Errorf("%w: nil client", ErrUsage)}
	}
	res, err := n.Dispatch(ctx, Request{Client: c, Args: args, Kwargs: kwargs})
	if err != nil {
		return pointer.Pointer{}, err
	}
	return res.Pointer, nil
}

// Query resolves path from index without a client.
func (n *Node) Query(path []string, index int) (descriptor.Ref, error) {
	res, err := n.Dispatch(context.Background(), Request{Query: &Query{Path: path, Index: index}})
	if err != nil {
		return descriptor.NoRef, err
	}
	return res.Ref, nil
}

// Pending defers a call so that it can be passed as an argument of
// another call. It is dispatched, through the outer call's client, while
// the outer call's arguments are normalized.
func (n *Node) Pending(args []any, kwargs map[string]any) *PendingCall {
	return &PendingCall{node: n, args: args, kwargs: kwargs}
}

// PendingCall is a call that has not been sent.
type PendingCall struct {
	node   *Node
	args   []any
	kwargs map[string]any
}

// Dispatch implements normalize.Pending.
func (p *PendingCall) Dispatch(ctx context.Context, c normalize.Client) (pointer.Pointer, error) {
	return p.node.Call(ctx, c, p.args, p.kwargs)
}

// Check implements normalize.Checker. It reports the error Dispatch
// would return before sending anything.
func (p *PendingCall) Check(c normalize.Client) error {
	return p.node.check(c, p.args, p.kwargs)
}

// Node is the node the call will run on.
func (p *PendingCall) Node() *Node {
	return p.node
}
