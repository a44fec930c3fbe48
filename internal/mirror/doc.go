// Package mirror builds trees that reproduce the navigable shape of an
// external API described by a descriptor.Table, and dispatches calls
// through them.
//
// A Tree is grown lazily with AddPath as call sites reference new paths.
// Nodes hold descriptor references, never live objects, and never a
// client: a call is bound to a destination only when the caller passes a
// Client in the Request. Without a client a call is a pure tree query that
// resolves a path to its descriptor reference.
//
// Bound dispatch allocates a placeholder pointer, normalizes arguments to
// pointers, sends one action.RunAction and returns the pointer without
// waiting for delivery.
//
// Trees are safe for concurrent use. Children are only ever added, each
// node serializes its own insertions, and lookups take a read lock.
package mirror
