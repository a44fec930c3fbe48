// Package pointer manufactures placeholder pointers: locally valid handles
// to values that a destination will compute later.
package pointer

import (
	"errors"
	"fmt"

	"github.com/roach88/mirror/internal/descriptor"
	"github.com/roach88/mirror/internal/ir"
)

// AnyPointerType is used when a call site declares no return type.
const AnyPointerType = "AnyPointer"

// ConstantPrefix prefixes the type path of pointers to uploaded constants.
const ConstantPrefix = "const."

// ErrUnknownType is returned when a return type path does not resolve
// against the destination's descriptors.
var ErrUnknownType = errors.New("unknown return type")

// Pointer is a placeholder for a value computed at Location. Its value is
// never carried here; dereferencing is a separate protocol.
type Pointer struct {
	ID          ir.UID
	Location    ir.Address
	TypePath    string
	PointerType string
}

// Source is what the factory needs from a transport client.
type Source interface {
	Resolve(path string) (descriptor.Entry, error)
	AllocateIdentity() ir.UID
	Address() ir.Address
}

// Make resolves typePath at call time and returns a pointer with a fresh
// identity located at the source's destination.
func Make(src Source, typePath string) (Pointer, error) {
	pointerType := AnyPointerType
	if typePath != "" {
		entry, err := src.Resolve(typePath)
		if err != nil {
			return Pointer{}, fmt.Errorf("%w %q: %w", ErrUnknownType, typePath, err)
		}
		pointerType = entry.PointerType
		if pointerType == "" {
			pointerType = entry.Name + "Pointer"
		}
	}
	return Pointer{
		ID:          src.AllocateIdentity(),
		Location:    src.Address(),
		TypePath:    typePath,
		PointerType: pointerType,
	}, nil
}

// Constant returns a pointer for a constant of the given type tag that is
// about to be uploaded to the source's destination.
func Constant(src Source, tag string) Pointer {
	return Pointer{
		ID:          src.AllocateIdentity(),
		Location:    src.Address(),
		TypePath:    ConstantPrefix + tag,
		PointerType: "ConstantPointer",
	}
}

// IsZero reports whether p was never allocated.
func (p Pointer) IsZero() bool {
	return p.ID == ir.NilUID
}

func (p Pointer) String() string {
	if p.TypePath == "" {
		return fmt.Sprintf("%s(%s@%s)", p.PointerType, p.ID, p.Location)
	}
	return fmt.Sprintf("%s(%s@%s: %s)", p.PointerType, p.ID, p.Location, p.TypePath)
}

// Value encodes the pointer for canonical serialization.
func (p Pointer) Value() ir.Object {
	return ir.Object{
		"id":           ir.String(p.ID.String()),
		"location":     p.Location.Value(),
		"type_path":    ir.String(p.TypePath),
		"pointer_type": ir.String(p.PointerType),
	}
}

// FromValue is the inverse of Pointer.Value.
func FromValue(v ir.Value) (Pointer, error) {
	obj, ok := v.(ir.Object)
	if !ok {
		return Pointer{}, fmt.Errorf("pointer: expected object, got %s", ir.TypeTag(v))
	}
	idStr, ok := obj["id"].(ir.String)
	if !ok {
		return Pointer{}, fmt.Errorf("pointer.id: expected string")
	}
	id, err := ir.ParseUID(string(idStr))
	if err != nil {
		return Pointer{}, fmt.Errorf("pointer.id: %w", err)
	}
	loc, err := ir.AddressFromValue(obj["location"])
	if err != nil {
		return Pointer{}, fmt.Errorf("pointer.location: %w", err)
	}
	typePath, _ := obj["type_path"].(ir.String)
	pointerType, _ := obj["pointer_type"].(ir.String)
	return Pointer{
		ID:          id,
		Location:    loc,
		TypePath:    string(typePath),
		PointerType: string(pointerType),
	}, nil
}
