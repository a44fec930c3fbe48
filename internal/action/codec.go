package action

import (
	"fmt"

	"github.com/roach88/mirror/internal/ir"
	"github.com/roach88/mirror/internal/pointer"
)

// Encode renders msg as canonical JSON: {"body":{...},"kind":"..."}.
// Equal messages always encode to identical bytes.
func Encode(msg Message) ([]byte, error) {
	data, err := ir.MarshalCanonical(ir.Object{
		"kind": ir.String(msg.Kind()),
		"body": msg.body(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Kind(), err)
	}
	return data, nil
}

// Decode parses an envelope produced by Encode.
func Decode(data []byte) (Message, error) {
	v, err := ir.UnmarshalValue(data)
	if err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	env, ok := v.(ir.Object)
	if !ok {
		return nil, fmt.Errorf("decode message: expected object, got %s", ir.TypeTag(v))
	}
	kind, ok := env["kind"].(ir.String)
	if !ok {
		return nil, fmt.Errorf("decode message: missing kind")
	}
	body, ok := env["body"].(ir.Object)
	if !ok {
		return nil, fmt.Errorf("decode %s: missing body", kind)
	}

	d := decoder{obj: body}
	var msg Message
	switch string(kind) {
	case KindRun:
		msg = d.run()
	case KindSaveObject:
		msg = SaveObjectAction{
			ObjectID: d.uid("object_id"),
			Address:  d.address("address"),
			Constant: Constant{Tag: d.str("tag"), Data: []byte(d.str("data"))},
		}
	case KindRepr:
		msg = ReprMessage{MsgID: d.uid("msg_id"), Address: d.address("address")}
	case KindCreateVM:
		msg = CreateVMMessage{d.createRequest()}
	case KindCreateWorker:
		msg = CreateWorkerMessage{d.createRequest()}
	case KindCreateVMResponse:
		msg = CreateVMResponse{d.createResponse()}
	case KindCreateWorkerResponse:
		msg = CreateWorkerResponse{d.createResponse()}
	default:
		return nil, fmt.Errorf("decode message: unknown kind %q", kind)
	}
	if d.err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, d.err)
	}
	return msg, nil
}

// decoder records the first field error and keeps going with zero values.
type decoder struct {
	obj ir.Object
	err error
}

func (d *decoder) fail(field, format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("%s: %s", field, fmt.Sprintf(format, args...))
	}
}

func (d *decoder) str(field string) string {
	s, ok := d.obj[field].(ir.String)
	if !ok {
		d.fail(field, "expected string, got %s", ir.TypeTag(d.obj[field]))
	}
	return string(s)
}

func (d *decoder) boolean(field string) bool {
	b, ok := d.obj[field].(ir.Bool)
	if !ok {
		d.fail(field, "expected bool, got %s", ir.TypeTag(d.obj[field]))
	}
	return bool(b)
}

func (d *decoder) uid(field string) ir.UID {
	id, err := ir.ParseUID(d.str(field))
	if err != nil && d.err == nil {
		d.err = fmt.Errorf("%s: %w", field, err)
	}
	return id
}

func (d *decoder) address(field string) ir.Address {
	a, err := ir.AddressFromValue(d.obj[field])
	if err != nil && d.err == nil {
		d.err = fmt.Errorf("%s: %w", field, err)
	}
	return a
}

func (d *decoder) pointer(field string, v ir.Value) pointer.Pointer {
	p, err := pointer.FromValue(v)
	if err != nil && d.err == nil {
		d.err = fmt.Errorf("%s: %w", field, err)
	}
	return p
}

func (d *decoder) run() RunAction {
	a := RunAction{
		ResultID: d.uid("result_id"),
		Address:  d.address("address"),
		Path:     d.str("path"),
		IsStatic: d.boolean("is_static"),
		Args:     []pointer.Pointer{},
		Kwargs:   map[string]pointer.Pointer{},
	}
	args, ok := d.obj["args"].(ir.Array)
	if !ok {
		d.fail("args", "expected array, got %s", ir.TypeTag(d.obj["args"]))
	}
	for i, v := range args {
		a.Args = append(a.Args, d.pointer(fmt.Sprintf("args[%d]", i), v))
	}
	kwargs, ok := d.obj["kwargs"].(ir.Object)
	if !ok {
		d.fail("kwargs", "expected object, got %s", ir.TypeTag(d.obj["kwargs"]))
	}
	for k, v := range kwargs {
		a.Kwargs[k] = d.pointer("kwargs."+k, v)
	}
	return a
}

func (d *decoder) createRequest() CreateRequest {
	settings, ok := d.obj["settings"].(ir.Object)
	if !ok {
		d.fail("settings", "expected object, got %s", ir.TypeTag(d.obj["settings"]))
	}
	return CreateRequest{
		MsgID:    d.uid("msg_id"),
		Address:  d.address("address"),
		Settings: settings,
		ReplyTo:  d.address("reply_to"),
	}
}

func (d *decoder) createResponse() CreateResponse {
	return CreateResponse{
		MsgID:     d.uid("msg_id"),
		Address:   d.address("address"),
		Success:   d.boolean("success"),
		Status:    d.str("status"),
		VMAddress: d.address("vm_address"),
	}
}
