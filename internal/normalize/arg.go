// Package normalize converts call arguments into the closed argument
// variant and then into pointers, so that a RunAction never carries raw
// values.
package normalize

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/roach88/mirror/internal/action"
	"github.com/roach88/mirror/internal/ir"
	"github.com/roach88/mirror/internal/pointer"
)

// Constant type tags. Containers take the tag of their shape.
const (
	TagNull   = "null"
	TagBool   = "bool"
	TagInt    = "int"
	TagFloat  = "float"
	TagString = "string"
	TagBytes  = "bytes"
	TagArray  = "array"
	TagObject = "object"
)

// Reserved keys used to embed non-JSON leaves inside constant payloads.
const (
	keyPointer = "@pointer"
	keyFloat   = "@float"
	keyBytes   = "@bytes"
)

var (
	// ErrUnsupported is returned for argument shapes with no exchange form.
	ErrUnsupported = errors.New("unsupported argument type")
	// ErrPending is returned by Downcast when a pending call has not been
	// dispatched yet.
	ErrPending = errors.New("pending call must be dispatched before downcast")
)

// Arg is either a PointerArg or a ConstantArg.
type Arg interface {
	arg()
}

// PointerArg is an argument that already lives at the destination.
type PointerArg struct {
	Pointer pointer.Pointer
}

// ConstantArg is a local value in exchange form, not yet uploaded.
type ConstantArg struct {
	Constant action.Constant
}

func (PointerArg) arg()  {}
func (ConstantArg) arg() {}

// Downcast maps v to its exchange form. It is total over the supported
// shapes: nil, bool, integers, floats, strings, []byte, ir.Value, pointers,
// and slices or string-keyed maps of supported shapes.
func Downcast(v any) (Arg, error) {
	switch val := v.(type) {
	case pointer.Pointer:
		return PointerArg{Pointer: val}, nil
	case *pointer.Pointer:
		if val == nil {
			break
		}
		return PointerArg{Pointer: *val}, nil
	case Pending:
		return nil, ErrPending
	}

	value, tag, err := exchange(v)
	if err != nil {
		return nil, err
	}
	data, err := ir.MarshalCanonical(value)
	if err != nil {
		return nil, fmt.Errorf("encode %s constant: %w", tag, err)
	}
	return ConstantArg{Constant: action.Constant{Tag: tag, Data: data}}, nil
}

// exchange converts v into an ir value and names its type tag.
func exchange(v any) (ir.Value, string, error) {
	switch val := v.(type) {
	case nil:
		return ir.Null{}, TagNull, nil
	case *pointer.Pointer:
		if val == nil {
			return ir.Null{}, TagNull, nil
		}
		return ir.Object{keyPointer: ir.String(val.ID.String())}, TagObject, nil
	case pointer.Pointer:
		return ir.Object{keyPointer: ir.String(val.ID.String())}, TagObject, nil
	case Pending:
		return nil, "", ErrPending
	case ir.Value:
		return val, ir.TypeTag(val), nil
	case bool:
		return ir.Bool(val), TagBool, nil
	case string:
		return ir.String(val), TagString, nil
	case []byte:
		return ir.Object{keyBytes: ir.String(base64.StdEncoding.EncodeToString(val))}, TagBytes, nil
	case float32:
		return floatValue(float64(val), 32), TagFloat, nil
	case float64:
		return floatValue(val, 64), TagFloat, nil
	case int:
		return ir.Int(val), TagInt, nil
	case int8:
		return ir.Int(val), TagInt, nil
	case int16:
		return ir.Int(val), TagInt, nil
	case int32:
		return ir.Int(val), TagInt, nil
	case int64:
		return ir.Int(val), TagInt, nil
	case uint:
		return uintValue(uint64(val))
	case uint8:
		return ir.Int(val), TagInt, nil
	case uint16:
		return ir.Int(val), TagInt, nil
	case uint32:
		return ir.Int(val), TagInt, nil
	case uint64:
		return uintValue(val)
	case []any:
		return exchangeSlice(len(val), func(i int) any { return val[i] })
	case map[string]any:
		return exchangeMap(val)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return exchangeSlice(rv.Len(), func(i int) any { return rv.Index(i).Interface() })
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, "", fmt.Errorf("%w: map key %s", ErrUnsupported, rv.Type().Key())
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return exchangeMap(m)
	}
	return nil, "", fmt.Errorf("%w: %T", ErrUnsupported, v)
}

func exchangeSlice(n int, at func(int) any) (ir.Value, string, error) {
	arr := make(ir.Array, n)
	for i := range n {
		elem, _, err := exchange(at(i))
		if err != nil {
			return nil, "", fmt.Errorf("[%d]: %w", i, err)
		}
		arr[i] = elem
	}
	return arr, TagArray, nil
}

func exchangeMap(m map[string]any) (ir.Value, string, error) {
	obj := make(ir.Object, len(m))
	for k, elem := range m {
		v, _, err := exchange(elem)
		if err != nil {
			return nil, "", fmt.Errorf("[%q]: %w", k, err)
		}
		obj[k] = v
	}
	return obj, TagObject, nil
}

func floatValue(f float64, bits int) ir.Value {
	return ir.Object{keyFloat: ir.String(strconv.FormatFloat(f, 'g', -1, bits))}
}

func uintValue(u uint64) (ir.Value, string, error) {
	if u > math.MaxInt64 {
		return nil, "", fmt.Errorf("%w: %d overflows int64", ErrUnsupported, u)
	}
	return ir.Int(u), TagInt, nil
}
