package mirror

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode categorizes mirror errors.
type ErrorCode string

const (
	// CodeUsage marks programmer errors. They must not be retried.
	CodeUsage ErrorCode = "USAGE"

	// CodeNamespaceLeaf marks an insertion that resolved to a namespace
	// under a node that cannot hold one.
	CodeNamespaceLeaf ErrorCode = "NAMESPACE_LEAF"

	// CodeResolve marks a path segment the descriptors do not know.
	CodeResolve ErrorCode = "RESOLVE"

	// CodeNoChild marks navigation into a segment that was never mirrored.
	CodeNoChild ErrorCode = "NO_CHILD"

	// CodeDispatch marks a bound call that failed before anything was sent.
	CodeDispatch ErrorCode = "DISPATCH"
)

// Sentinels matched with errors.Is.
var (
	ErrUsage           = errors.New("invalid usage")
	ErrIndexOutOfRange = errors.New("path index out of range")
	ErrNamespaceLeaf   = errors.New("namespace cannot be an attribute of a class or callable")
	ErrNoChild         = errors.New("path segment not mirrored")
	ErrNotInvocable    = errors.New("namespace is not invocable")
)

// Error reports a failure at one node of the tree.
type Error struct {
	Code    ErrorCode
	Path    []string
	Segment string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	switch {
	case e.Segment != "":
		fmt.Fprintf(&b, "%s: segment %q", pathString(e.Path), e.Segment)
	case len(e.Path) > 0:
		b.WriteString(pathString(e.Path))
	default:
		b.WriteString("<root>")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsUsageError reports whether err is a programmer error.
func IsUsageError(err error) bool {
	var me *Error
	if errors.As(err, &me) {
		return me.Code == CodeUsage
	}
	return false
}

// IsNamespaceError reports whether err is a rejected namespace leaf.
func IsNamespaceError(err error) bool {
	var me *Error
	if errors.As(err, &me) {
		return me.Code == CodeNamespaceLeaf
	}
	return false
}

func pathString(path []string) string {
	if len(path) == 0 {
		return "<root>"
	}
	return strings.Join(path, ".")
}
