package normalize

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/roach88/mirror/internal/action"
	"github.com/roach88/mirror/internal/pointer"
)

// Client is the transport surface needed to pointerize arguments.
type Client interface {
	pointer.Source
	SendNoReply(msg action.Message)
}

// Pending is a mirror call that has not been dispatched. Normalize
// dispatches it through the same client and uses the returned pointer.
type Pending interface {
	Dispatch(ctx context.Context, c Client) (pointer.Pointer, error)
}

// Checker is implemented by pending calls that can validate themselves
// without sending anything.
type Checker interface {
	Check(c Client) error
}

// Normalized holds pointer-only arguments.
type Normalized struct {
	Args   []pointer.Pointer
	Kwargs map[string]pointer.Pointer
}

// Normalize downcasts every argument and then pointerizes the result.
//
// The downcast pass runs over all arguments before anything is sent, so
// an unsupported argument fails the call with nothing on the wire. Pending
// calls stand in as pointers during that pass and are checked if they
// implement Checker. The second pass dispatches pending calls, wherever
// they appear, so their actions are sent before any action that consumes
// them. Constants are uploaded with a SaveObjectAction and replaced by
// fresh pointers. Keyword arguments are processed in sorted key order.
func Normalize(ctx context.Context, c Client, args []any, kwargs map[string]any) (Normalized, error) {
	if err := Check(c, args, kwargs); err != nil {
		return Normalized{}, err
	}

	out := Normalized{
		Args:   make([]pointer.Pointer, 0, len(args)),
		Kwargs: make(map[string]pointer.Pointer, len(kwargs)),
	}
	for i, a := range args {
		p, err := normalizeOne(ctx, c, a)
		if err != nil {
			return Normalized{}, fmt.Errorf("args[%d]: %w", i, err)
		}
		out.Args = append(out.Args, p)
	}
	for _, k := range slices.Sorted(maps.Keys(kwargs)) {
		p, err := normalizeOne(ctx, c, kwargs[k])
		if err != nil {
			return Normalized{}, fmt.Errorf("kwargs[%q]: %w", k, err)
		}
		out.Kwargs[k] = p
	}
	return out, nil
}

// Check runs the downcast pass of Normalize and sends nothing.
func Check(c Client, args []any, kwargs map[string]any) error {
	for i, a := range args {
		if err := checkOne(c, a); err != nil {
			return fmt.Errorf("args[%d]: %w", i, err)
		}
	}
	for _, k := range slices.Sorted(maps.Keys(kwargs)) {
		if err := checkOne(c, kwargs[k]); err != nil {
			return fmt.Errorf("kwargs[%q]: %w", k, err)
		}
	}
	return nil
}

func checkOne(c Client, v any) error {
	shaped, err := replacePending(v, func(p Pending) (pointer.Pointer, error) {
		if checker, ok := p.(Checker); ok {
			if err := checker.Check(c); err != nil {
				return pointer.Pointer{}, err
			}
		}
		return pointer.Pointer{}, nil
	})
	if err != nil {
		return err
	}
	_, err = Downcast(shaped)
	return err
}

func normalizeOne(ctx context.Context, c Client, v any) (pointer.Pointer, error) {
	resolved, err := replacePending(v, func(p Pending) (pointer.Pointer, error) {
		return p.Dispatch(ctx, c)
	})
	if err != nil {
		return pointer.Pointer{}, err
	}
	arg, err := Downcast(resolved)
	if err != nil {
		return pointer.Pointer{}, err
	}
	return Pointerize(c, arg), nil
}

// Pointerize turns arg into a pointer, uploading constants.
func Pointerize(c Client, arg Arg) pointer.Pointer {
	switch a := arg.(type) {
	case PointerArg:
		return a.Pointer
	case ConstantArg:
		p := pointer.Constant(c, a.Constant.Tag)
		c.SendNoReply(action.SaveObjectAction{
			ObjectID: p.ID,
			Address:  p.Location,
			Constant: a.Constant,
		})
		return p
	default:
		panic(fmt.Sprintf("normalize: unknown argument variant %T", arg))
	}
}

// replacePending replaces pending calls with the pointers fn returns,
// descending into slices and maps. Values without pending calls are
// returned as is.
func replacePending(v any, fn func(Pending) (pointer.Pointer, error)) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case Pending:
		return fn(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			r, err := replacePending(elem, fn)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = r
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for _, k := range slices.Sorted(maps.Keys(val)) {
			r, err := replacePending(val[k], fn)
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", k, err)
			}
			out[k] = r
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if !mayHoldPending(rv.Type().Elem()) {
			return v, nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return replacePending(out, fn)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String || !mayHoldPending(rv.Type().Elem()) {
			return v, nil
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return replacePending(out, fn)
	}
	return v, nil
}

var pendingType = reflect.TypeFor[Pending]()

func mayHoldPending(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return t.Implements(pendingType)
}
