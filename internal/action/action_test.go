package action

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mirror/internal/ir"
	"github.com/roach88/mirror/internal/pointer"
)

func uid(n byte) ir.UID {
	var id uuid.UUID
	id[15] = n
	return id
}

var testAddr = ir.Address{Network: "net", Domain: "dom", Device: "dev", VM: "vm0"}

func sampleRun() RunAction {
	return NewRunAction(
		uid(3),
		testAddr,
		"lib.python.List.append",
		[]pointer.Pointer{{ID: uid(1), Location: testAddr, TypePath: "const.int", PointerType: "ConstantPointer"}},
		map[string]pointer.Pointer{"key": {ID: uid(2), Location: testAddr, TypePath: "lib.python.List", PointerType: "ListPointer"}},
		false,
	)
}

func assertGolden(t *testing.T, name string, msg Message) {
	t.Helper()
	data, err := Encode(msg)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, append(data, '\n'))
}

func TestEncodeGolden(t *testing.T) {
	assertGolden(t, "run_action", sampleRun())
	assertGolden(t, "save_object", SaveObjectAction{
		ObjectID: uid(1),
		Address:  testAddr,
		Constant: Constant{Tag: "int", Data: []byte("3")},
	})
	assertGolden(t, "create_vm", CreateVMMessage{CreateRequest{
		MsgID:    uid(4),
		Address:  ir.Address{Network: "net", Domain: "dom", Device: "dev"},
		Settings: ir.Object{"name": ir.String("worker-0"), "replicas": ir.Int(2)},
		ReplyTo:  ir.Address{Network: "net", Domain: "dom"},
	}})
}

func TestNewRunActionCopiesInputs(t *testing.T) {
	args := []pointer.Pointer{{ID: uid(1), Location: testAddr}}
	kwargs := map[string]pointer.Pointer{"k": {ID: uid(2), Location: testAddr}}

	a := NewRunAction(uid(3), testAddr, "lib.len", args, kwargs, true)
	args[0].ID = uid(9)
	kwargs["k"] = pointer.Pointer{ID: uid(9)}
	kwargs["extra"] = pointer.Pointer{ID: uid(10)}

	assert.Equal(t, uid(1), a.Args[0].ID)
	assert.Equal(t, uid(2), a.Kwargs["k"].ID)
	assert.Len(t, a.Kwargs, 1)
}

func TestNewRunActionEmptyArgs(t *testing.T) {
	a := NewRunAction(uid(1), testAddr, "lib.len", nil, nil, true)
	assert.NotNil(t, a.Args)
	assert.NotNil(t, a.Kwargs)

	data, err := Encode(a)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"args":[]`)
	assert.Contains(t, string(data), `"kwargs":{}`)
}

func TestMessageHeaders(t *testing.T) {
	tests := []struct {
		msg  Message
		id   ir.UID
		kind string
	}{
		{sampleRun(), uid(3), KindRun},
		{SaveObjectAction{ObjectID: uid(1), Address: testAddr}, uid(1), KindSaveObject},
		{ReprMessage{MsgID: uid(5), Address: testAddr}, uid(5), KindRepr},
		{CreateVMMessage{CreateRequest{MsgID: uid(6), Address: testAddr}}, uid(6), KindCreateVM},
		{CreateVMResponse{CreateResponse{MsgID: uid(7), Address: testAddr}}, uid(7), KindCreateVMResponse},
		{CreateWorkerMessage{CreateRequest{MsgID: uid(8), Address: testAddr}}, uid(8), KindCreateWorker},
		{CreateWorkerResponse{CreateResponse{MsgID: uid(9), Address: testAddr}}, uid(9), KindCreateWorkerResponse},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			assert.Equal(t, tt.id, tt.msg.ID())
			assert.Equal(t, testAddr, tt.msg.Destination())
			assert.Equal(t, tt.kind, tt.msg.Kind())
		})
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	msgs := []Message{
		sampleRun(),
		SaveObjectAction{ObjectID: uid(1), Address: testAddr, Constant: Constant{Tag: "string", Data: []byte(`"hi"`)}},
		ReprMessage{MsgID: uid(5), Address: testAddr},
		CreateWorkerMessage{CreateRequest{
			MsgID:    uid(6),
			Address:  testAddr,
			Settings: ir.Object{"cpu": ir.Int(2)},
			ReplyTo:  ir.Address{Network: "net"},
		}},
		CreateWorkerResponse{CreateResponse{
			MsgID:     uid(7),
			Address:   ir.Address{Network: "net"},
			Success:   true,
			Status:    "worker started",
			VMAddress: testAddr,
		}},
	}
	for _, msg := range msgs {
		t.Run(msg.Kind(), func(t *testing.T) {
			data, err := Encode(msg)
			require.NoError(t, err)
			back, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, msg, back)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"not json", `{`, "decode message"},
		{"not object", `[1]`, "expected object"},
		{"no kind", `{"body":{}}`, "missing kind"},
		{"no body", `{"kind":"run"}`, "missing body"},
		{"unknown kind", `{"body":{},"kind":"teleport"}`, "unknown kind"},
		{"bad uid", `{"body":{"address":{},"msg_id":"x"},"kind":"repr"}`, "msg_id"},
		{"bad args", `{"body":{"address":{},"args":3,"is_static":true,"kwargs":{},"path":"p","result_id":"00000000-0000-0000-0000-000000000001"},"kind":"run"}`, "args"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPointersOrder(t *testing.T) {
	a := NewRunAction(uid(9), testAddr, "lib.f",
		[]pointer.Pointer{{ID: uid(1)}},
		map[string]pointer.Pointer{"b": {ID: uid(3)}, "a": {ID: uid(2)}},
		true)

	var ids []ir.UID
	for _, p := range a.Pointers() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []ir.UID{uid(1), uid(2), uid(3)}, ids)
}

func TestConstantDigest(t *testing.T) {
	a := Constant{Tag: "int", Data: []byte("3")}
	b := Constant{Tag: "string", Data: []byte("3")}
	assert.Len(t, a.Digest(), 64)
	assert.Equal(t, a.Digest(), Constant{Tag: "int", Data: []byte("3")}.Digest())
	assert.NotEqual(t, a.Digest(), b.Digest())
}

func TestValidate(t *testing.T) {
	assert.Empty(t, Validate(sampleRun()))

	errs := Validate(RunAction{})
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.Equal(t, []string{"id", "address", "path"}, fields)

	shared := NewRunAction(uid(1), testAddr, "lib.f", []pointer.Pointer{{ID: uid(1)}}, nil, true)
	errs = Validate(shared)
	require.Len(t, errs, 1)
	assert.Equal(t, "args[0]", errs[0].Field)

	errs = Validate(CreateVMMessage{CreateRequest{MsgID: uid(1), Address: testAddr}})
	require.Len(t, errs, 1)
	assert.Equal(t, "reply_to", errs[0].Field)

	errs = Validate(SaveObjectAction{ObjectID: uid(1), Address: testAddr})
	require.Len(t, errs, 1)
	assert.Equal(t, "tag", errs[0].Field)
}
