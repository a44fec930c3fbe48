package action

import (
	"maps"
	"slices"

	"github.com/roach88/mirror/internal/ir"
	"github.com/roach88/mirror/internal/pointer"
)

// Message kinds.
const (
	KindRun                  = "run"
	KindSaveObject           = "save_object"
	KindRepr                 = "repr"
	KindCreateVM             = "create_vm"
	KindCreateVMResponse     = "create_vm_response"
	KindCreateWorker         = "create_worker"
	KindCreateWorkerResponse = "create_worker_response"
)

// Message is implemented by every record the transport carries.
type Message interface {
	ID() ir.UID
	Destination() ir.Address
	Kind() string
	body() ir.Object
}

// RunAction is one remote invocation.
type RunAction struct {
	ResultID ir.UID
	Address  ir.Address
	Path     string
	Args     []pointer.Pointer
	Kwargs   map[string]pointer.Pointer
	IsStatic bool
}

// NewRunAction copies args and kwargs so the record cannot be changed
// through the caller's slices.
func NewRunAction(resultID ir.UID, addr ir.Address, path string, args []pointer.Pointer, kwargs map[string]pointer.Pointer, isStatic bool) RunAction {
	a := RunAction{
		ResultID: resultID,
		Address:  addr,
		Path:     path,
		Args:     slices.Clone(args),
		Kwargs:   maps.Clone(kwargs),
		IsStatic: isStatic,
	}
	if a.Args == nil {
		a.Args = []pointer.Pointer{}
	}
	if a.Kwargs == nil {
		a.Kwargs = map[string]pointer.Pointer{}
	}
	return a
}

func (a RunAction) ID() ir.UID              { return a.ResultID }
func (a RunAction) Destination() ir.Address { return a.Address }
func (a RunAction) Kind() string            { return KindRun }

func (a RunAction) body() ir.Object {
	args := make(ir.Array, len(a.Args))
	for i, p := range a.Args {
		args[i] = p.Value()
	}
	kwargs := make(ir.Object, len(a.Kwargs))
	for k, p := range a.Kwargs {
		kwargs[k] = p.Value()
	}
	return ir.Object{
		"result_id": ir.String(a.ResultID.String()),
		"address":   a.Address.Value(),
		"path":      ir.String(a.Path),
		"args":      args,
		"kwargs":    kwargs,
		"is_static": ir.Bool(a.IsStatic),
	}
}

// Pointers returns every argument pointer, positional first then keyword
// arguments in sorted key order.
func (a RunAction) Pointers() []pointer.Pointer {
	out := slices.Clone(a.Args)
	for _, k := range slices.Sorted(maps.Keys(a.Kwargs)) {
		out = append(out, a.Kwargs[k])
	}
	return out
}

// Constant is a canonically encoded value with its exchange type tag.
type Constant struct {
	Tag  string
	Data []byte
}

// Digest fingerprints the constant payload.
func (c Constant) Digest() string {
	return ir.FingerprintBytes(ir.DomainConstant, append([]byte(c.Tag+"\x00"), c.Data...))
}

// SaveObjectAction uploads a constant so that it can be referenced by
// pointer. ObjectID is the identity of the pointer that replaces it.
type SaveObjectAction struct {
	ObjectID ir.UID
	Address  ir.Address
	Constant Constant
}

func (a SaveObjectAction) ID() ir.UID              { return a.ObjectID }
func (a SaveObjectAction) Destination() ir.Address { return a.Address }
func (a SaveObjectAction) Kind() string            { return KindSaveObject }

func (a SaveObjectAction) body() ir.Object {
	return ir.Object{
		"object_id": ir.String(a.ObjectID.String()),
		"address":   a.Address.Value(),
		"tag":       ir.String(a.Constant.Tag),
		"data":      ir.String(a.Constant.Data),
	}
}
