package normalize

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
)

// fakePending dispatches a RunAction for path and returns its pointer.
type fakePending struct {
	path string
	err  error
}

func (f *fakePending) Dispatch(_ context.Context, c Client) (pointer.Pointer, error) {
	if f.err != nil {
		return pointer.Pointer{}, f.err
	}
	p, err := pointer.Make(c, "lib.python.List")
	if err != nil {
		return pointer.Pointer{}, err
	}
	c.SendNoReply(action.NewRunAction(p.ID, c.Address(), f.path, nil, nil, true))
	return p, nil
}

func newClient(t *testing.T) *testutil.RecordingClient {
	t.Helper()
	return testutil.NewRecordingClient(testutil.Library(t))
}

func TestNormalize_PointersOnly(t *testing.T) {
	c := newClient(t)
	existing := pointer.Pointer{ID: testutil.UID(100), Location: c.Addr, TypePath: "lib.python.List"}

	out, err := Normalize(context.Background(), c,
		[]any{1, "two", existing, []float64{3.5}},
		map[string]any{"b": nil, "a": true})
	require.NoError(t, err)

	require.Len(t, out.Args, 4)
	require.Len(t, out.Kwargs, 2)
	assert.Equal(t, existing, out.Args[2], "pointers pass through unchanged")

	saved := c.Saved()
	require.Len(t, saved, 5, "every non-pointer is uploaded")
	assert.Equal(t, []string{"int", "string", "array", "bool", "null"}, []string{
		saved[0].Constant.Tag, saved[1].Constant.Tag, saved[2].Constant.Tag, saved[3].Constant.Tag, saved[4].Constant.Tag,
	}, "args first, then kwargs in key order")

	assert.Equal(t, saved[0].ObjectID, out.Args[0].ID)
	assert.Equal(t, saved[1].ObjectID, out.Args[1].ID)
	assert.Equal(t, saved[2].ObjectID, out.Args[3].ID)
	assert.Equal(t, saved[3].ObjectID, out.Kwargs["a"].ID)
	assert.Equal(t, saved[4].ObjectID, out.Kwargs["b"].ID)
	assert.Equal(t, "const.array", out.Args[3].TypePath)
	assert.Equal(t, c.Addr, saved[0].Address)
}

func TestNormalize_FreshDistinctIdentities(t *testing.T) {
	c := newClient(t)
	out, err := Normalize(context.Background(), c, []any{1, 1, 1}, nil)
	require.NoError(t, err)

	seen := map[ir.UID]bool{}
	for _, p := range out.Args {
		assert.False(t, seen[p.ID])
		seen[p.ID] = true
	}
}

func TestNormalize_Empty(t *testing.T) {
	c := newClient(t)
	out, err := Normalize(context.Background(), c, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, out.Args)
	assert.NotNil(t, out.Kwargs)
	assert.Empty(t, c.Sent())
}

func TestNormalize_DispatchesPending(t *testing.T) {
	c := newClient(t)
	out, err := Normalize(context.Background(), c, []any{&fakePending{path: "lib.python.List"}}, nil)
	require.NoError(t, err)

	sent := c.Sent()
	require.Len(t, sent, 1)
	run := sent[0].(action.RunAction)
	assert.Equal(t, run.ResultID, out.Args[0].ID)
}

func TestNormalize_PendingInTypedSlice(t *testing.T) {
	c := newClient(t)
	out, err := Normalize(context.Background(), c, nil, map[string]any{
		"xs": []*fakePending{{path: "lib.python.List"}, {path: "lib.python.List"}},
	})
	require.NoError(t, err)

	runs := c.RunActions()
	require.Len(t, runs, 2)
	saved := c.Saved()
	require.Len(t, saved, 1)
	assert.Equal(t, `[{"@pointer":"`+runs[0].ResultID.String()+`"},{"@pointer":"`+runs[1].ResultID.String()+`"}]`, string(saved[0].Constant.Data))
	assert.Equal(t, saved[0].ObjectID, out.Kwargs["xs"].ID)
}

func TestNormalize_PendingError(t *testing.T) {
	c := newClient(t)
	boom := errors.New("boom")
	_, err := Normalize(context.Background(), c, []any{map[string]any{"k": &fakePending{err: boom}}}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), `args[0]: ["k"]`)
}

func TestNormalize_Unsupported(t *testing.T) {
	c := newClient(t)
	_, err := Normalize(context.Background(), c, nil, map[string]any{"ch": make(chan int)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.Contains(t, err.Error(), `kwargs["ch"]`)
}

func TestNormalize_UnsupportedAfterUploadsSendsNothing(t *testing.T) {
	c := newClient(t)
	_, err := Normalize(context.Background(), c,
		[]any{42, &fakePending{path: "lib.python.List"}, struct{}{}}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.Contains(t, err.Error(), "args[2]")
	assert.Empty(t, c.Sent())
}

// checkedPending fails its check and must never be dispatched.
type checkedPending struct {
	fakePending
	checkErr error
}

func (p *checkedPending) Check(Client) error { return p.checkErr }

func TestNormalize_PendingCheckFailsFirst(t *testing.T) {
	c := newClient(t)
	bad := errors.New("bad pending")
	_, err := Normalize(context.Background(), c, []any{
		1,
		&fakePending{path: "lib.python.List"},
	}, map[string]any{"k": []any{&checkedPending{checkErr: bad}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, bad))
	assert.Contains(t, err.Error(), `kwargs["k"]: [0]`)
	assert.Empty(t, c.Sent())
}

func TestCheck(t *testing.T) {
	c := newClient(t)
	require.NoError(t, Check(c, []any{1, &fakePending{path: "lib.python.List"}, []any{&fakePending{}}}, map[string]any{"a": "b"}))
	assert.Empty(t, c.Sent(), "checking never dispatches")

	err := Check(c, nil, map[string]any{"ch": make(chan int)})
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestPointerize(t *testing.T) {
	c := newClient(t)
	p := pointer.Pointer{ID: testutil.UID(50)}
	assert.Equal(t, p, Pointerize(c, PointerArg{Pointer: p}))
	assert.Empty(t, c.Sent())

	got := Pointerize(c, ConstantArg{Constant: action.Constant{Tag: "int", Data: []byte("1")}})
	assert.Equal(t, "const.int", got.TypePath)
	require.Len(t, c.Saved(), 1)
	assert.Equal(t, got.ID, c.Saved()[0].ObjectID)
}
