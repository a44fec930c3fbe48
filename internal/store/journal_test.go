package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mirror/internal/action"
	"github.com/roach88/mirror/internal/ir"
	"github.com/roach88/mirror/internal/pointer"
	"github.com/roach88/mirror/internal/testutil"
	"github.com/roach88/mirror/internal/transport"
)

var (
	vm0 = ir.Address{Network: "net", Domain: "dom", Device: "dev", VM: "vm0"}
	vm1 = ir.Address{Network: "net", Domain: "dom", Device: "dev", VM: "vm1"}
)

func ptr(n uint64, typePath string) pointer.Pointer {
	return pointer.Pointer{ID: testutil.UID(n), Location: vm0, TypePath: typePath, PointerType: "AnyPointer"}
}

func sampleRun(id uint64, addr ir.Address) action.RunAction {
	return action.NewRunAction(
		testutil.UID(id), addr, "lib.python.List.append",
		[]pointer.Pointer{ptr(1, "lib.python.List"), ptr(2, "const.int")},
		map[string]pointer.Pointer{"b": ptr(3, "const.str"), "a": ptr(2, "const.int")},
		false,
	)
}

func encoded(t *testing.T, msg action.Message) string {
	t.Helper()
	data, err := action.Encode(msg)
	require.NoError(t, err)
	return string(data)
}

func TestWriteDeliveryRoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := sampleRun(10, vm0)
	require.NoError(t, s.WriteDelivery(ctx, transport.Delivery{Seq: 1, Message: run}))

	rec, err := s.ReadMessage(ctx, run.ResultID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.Seq)
	assert.Equal(t, ir.WireVersion, rec.WireVersion)
	assert.Equal(t, encoded(t, run), encoded(t, rec.Message))
}

func TestWriteDeliveryIdempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	run := sampleRun(10, vm0)
	require.NoError(t, s.WriteDelivery(ctx, transport.Delivery{Seq: 1, Message: run}))
	require.NoError(t, s.WriteDelivery(ctx, transport.Delivery{Seq: 7, Message: run}))

	records, err := s.ReadMessages(ctx, ir.Address{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(1), records[0].Seq, "first write wins")

	consumers, err := s.ReadConsumers(ctx, testutil.UID(2))
	require.NoError(t, err)
	assert.Len(t, consumers, 2)
}

func TestWriteDeliveryNilMessage(t *testing.T) {
	s := createTestStore(t)
	assert.Error(t, s.WriteDelivery(context.Background(), transport.Delivery{Seq: 1}))
}

func TestReadMessagesOrderAndFilter(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	save := action.SaveObjectAction{
		ObjectID: testutil.UID(20),
		Address:  vm1,
		Constant: action.Constant{Tag: "int", Data: []byte("3")},
	}
	repr := action.ReprMessage{MsgID: testutil.UID(21), Address: vm0}

	require.NoError(t, s.WriteDelivery(ctx, transport.Delivery{Seq: 3, Message: sampleRun(11, vm0)}))
	require.NoError(t, s.WriteDelivery(ctx, transport.Delivery{Seq: 1, Message: save}))
	require.NoError(t, s.WriteDelivery(ctx, transport.Delivery{Seq: 2, Message: repr}))

	all, err := s.ReadMessages(ctx, ir.Address{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{all[0].Seq, all[1].Seq, all[2].Seq})
	assert.Equal(t, action.KindSaveObject, all[0].Message.Kind())

	onVM0, err := s.ReadMessages(ctx, vm0)
	require.NoError(t, err)
	require.Len(t, onVM0, 2)
	assert.Equal(t, action.KindRepr, onVM0[0].Message.Kind())
	assert.Equal(t, action.KindRun, onVM0[1].Message.Kind())

	none, err := s.ReadMessages(ctx, ir.Address{Network: "elsewhere"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestReadMessageNotFound(t *testing.T) {
	s := createTestStore(t)
	_, err := s.ReadMessage(context.Background(), testutil.UID(99))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestReadConsumers(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteDelivery(ctx, transport.Delivery{Seq: 1, Message: sampleRun(10, vm0)}))

	consumers, err := s.ReadConsumers(ctx, testutil.UID(2))
	require.NoError(t, err)
	require.Len(t, consumers, 2)
	assert.Equal(t, "args[1]", consumers[0].Position)
	assert.Equal(t, "kwargs.a", consumers[1].Position)
	assert.Equal(t, testutil.UID(10), consumers[0].MessageID)
	assert.Equal(t, "const.int", consumers[0].TypePath)

	none, err := s.ReadConsumers(ctx, testutil.UID(42))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCountByKindAndLastSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)

	require.NoError(t, s.WriteDelivery(ctx, transport.Delivery{Seq: 4, Message: sampleRun(10, vm0)}))
	require.NoError(t, s.WriteDelivery(ctx, transport.Delivery{Seq: 5, Message: sampleRun(11, vm0)}))
	require.NoError(t, s.WriteDelivery(ctx, transport.Delivery{Seq: 6, Message: action.ReprMessage{MsgID: testutil.UID(12), Address: vm0}}))

	counts, err := s.CountByKind(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{action.KindRun: 2, action.KindRepr: 1}, counts)

	seq, err = s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), seq)
}

func TestHandlerJournalsClientTraffic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	client := transport.NewClient(testutil.Library(t), vm0, s.Handler())
	save := action.SaveObjectAction{
		ObjectID: client.AllocateIdentity(),
		Address:  vm0,
		Constant: action.Constant{Tag: "str", Data: []byte(`"x"`)},
	}
	client.SendNoReply(save)
	client.SendNoReply(sampleRun(50, vm0))
	require.NoError(t, client.Flush(ctx))

	records, err := s.ReadMessages(ctx, vm0)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, action.KindSaveObject, records[0].Message.Kind())
	assert.Equal(t, action.KindRun, records[1].Message.Kind())
	assert.Less(t, records[0].Seq, records[1].Seq)
}
