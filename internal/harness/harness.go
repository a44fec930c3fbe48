package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/mirror/internal/action"
	"github.com/roach88/mirror/internal/descriptor"
	"github.com/roach88/mirror/internal/ir"
	"github.com/roach88/mirror/internal/mirror"
	"github.com/roach88/mirror/internal/normalize"
	"github.com/roach88/mirror/internal/pointer"
	"github.com/roach88/mirror/internal/store"
	"github.com/roach88/mirror/internal/testutil"
	"github.com/roach88/mirror/internal/transport"
)

// Harness holds the state of one scenario run.
type Harness struct {
	tree    *mirror.Tree
	client  *transport.Client
	store   *store.Store
	pending map[string]*boundPending
	result  *Result
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory journal with a sequence
// allocator, so identities and sequence numbers repeat across runs.
//
// Execution flow:
// 1. Load descriptors and mirror the configured paths
// 2. Execute calls, checking expectations
// 3. Flush the transport and read the journal back as the trace
// 4. Evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	table, err := descriptor.LoadTable(scenario.Descriptors)
	if err != nil {
		return nil, fmt.Errorf("failed to load descriptors: %w", err)
	}
	addr, err := ir.ParseAddress(scenario.Address)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}
	policy, err := mirror.ParsePolicy(scenario.OnError)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		tree:    mirror.New(table),
		client:  transport.NewClient(table, addr, st.Handler(), transport.WithAllocator(testutil.NewSequenceAllocator())),
		store:   st,
		pending: make(map[string]*boundPending),
		result:  NewResult(),
	}

	report, err := h.tree.Populate(scenario.Paths, policy)
	if err != nil {
		return nil, fmt.Errorf("failed to mirror paths: %w", err)
	}
	for _, skipped := range report.Skipped {
		h.result.Skipped = append(h.result.Skipped, skipped.Path)
	}

	ctx := context.Background()
	for i, step := range scenario.Calls {
		if err := h.executeCall(ctx, i, step); err != nil {
			h.client.Close()
			return nil, fmt.Errorf("calls[%d]: %w", i, err)
		}
	}

	if err := h.client.Flush(ctx); err != nil {
		return nil, fmt.Errorf("failed to deliver: %w", err)
	}

	records, err := st.ReadMessages(ctx, ir.Address{})
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	h.result.Trace = traceFromRecords(records)

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions, actx) {
		h.result.AddError(msg)
	}

	return h.result, nil
}

// executeCall runs one step. Mirror and dispatch failures are recorded
// against the step's expectation; only malformed steps return an error.
func (h *Harness) executeCall(ctx context.Context, index int, step CallStep) error {
	label := fmt.Sprintf("calls[%d] %s", index, step.Call)

	if err := h.tree.Add(step.Call, mirror.AddOptions{Static: step.Static}); err != nil {
		h.checkError(label, step, err)
		return nil
	}
	node, err := h.tree.Get(step.Call)
	if err != nil {
		h.checkError(label, step, err)
		return nil
	}

	args, err := h.resolveList(step.Args)
	if err != nil {
		return err
	}
	kwargs, err := h.resolveMap(step.Kwargs)
	if err != nil {
		return err
	}

	if step.Pending {
		h.pending[step.As] = &boundPending{call: node.Pending(args, kwargs), name: step.As, result: h.result}
		return nil
	}

	p, err := node.Call(ctx, h.client, args, kwargs)
	if err != nil {
		h.checkError(label, step, err)
		return nil
	}

	if step.As != "" {
		h.result.Bindings[step.As] = p
	}
	if step.Expect == nil {
		return nil
	}
	if step.Expect.Error != "" {
		h.result.AddError(fmt.Sprintf("%s: expected error %s, call succeeded", label, step.Expect.Error))
	}
	if step.Expect.TypePath != "" && step.Expect.TypePath != p.TypePath {
		h.result.AddError(fmt.Sprintf("%s: expected type_path %s, got %s", label, step.Expect.TypePath, p.TypePath))
	}
	if step.Expect.PointerType != "" && step.Expect.PointerType != p.PointerType {
		h.result.AddError(fmt.Sprintf("%s: expected pointer_type %s, got %s", label, step.Expect.PointerType, p.PointerType))
	}
	return nil
}

func (h *Harness) checkError(label string, step CallStep, err error) {
	if step.Expect == nil || step.Expect.Error == "" {
		h.result.AddError(fmt.Sprintf("%s: unexpected error: %v", label, err))
		return
	}
	var me *mirror.Error
	if !errors.As(err, &me) {
		h.result.AddError(fmt.Sprintf("%s: expected error %s, got %v", label, step.Expect.Error, err))
		return
	}
	if string(me.Code) != step.Expect.Error {
		h.result.AddError(fmt.Sprintf("%s: expected error %s, got %s", label, step.Expect.Error, me.Code))
	}
}

// resolve replaces "$name" strings with bound results or pending calls.
func (h *Harness) resolve(v any) (any, error) {
	switch val := v.(type) {
	case string:
		name, ok := strings.CutPrefix(val, "$")
		if !ok {
			return val, nil
		}
		if p, ok := h.result.Bindings[name]; ok {
			return p, nil
		}
		if pc, ok := h.pending[name]; ok {
			return pc, nil
		}
		return nil, fmt.Errorf("unbound reference %q", val)
	case []any:
		return h.resolveList(val)
	case map[string]any:
		return h.resolveMap(val)
	default:
		return v, nil
	}
}

func (h *Harness) resolveList(in []any) ([]any, error) {
	out := make([]any, len(in))
	for i, v := range in {
		r, err := h.resolve(v)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func (h *Harness) resolveMap(in map[string]any) (map[string]any, error) {
	if in == nil {
		return nil, nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		r, err := h.resolve(v)
		if err != nil {
			return nil, err
		}
		out[k] = r
	}
	return out, nil
}

// boundPending dispatches a pending call once, on first use, and binds
// its result.
type boundPending struct {
	call   *mirror.PendingCall
	name   string
	result *Result

	once sync.Once
	p    pointer.Pointer
	err  error
}

func (b *boundPending) Dispatch(ctx context.Context, c normalize.Client) (pointer.Pointer, error) {
	b.once.Do(func() {
		b.p, b.err = b.call.Dispatch(ctx, c)
		if b.err == nil {
			b.result.Bindings[b.name] = b.p
		}
	})
	return b.p, b.err
}

func (b *boundPending) Check(c normalize.Client) error {
	return b.call.Check(c)
}

func traceFromRecords(records []store.Record) []TraceEvent {
	trace := make([]TraceEvent, 0, len(records))
	for _, rec := range records {
		event := TraceEvent{
			Seq:     rec.Seq,
			Kind:    rec.Message.Kind(),
			ID:      rec.Message.ID().String(),
			Message: rec.Message,
		}
		if run, ok := rec.Message.(action.RunAction); ok {
			event.Path = run.Path
			for _, p := range run.Pointers() {
				event.Args = append(event.Args, p.TypePath)
			}
		}
		trace = append(trace, event)
	}
	return trace
}
