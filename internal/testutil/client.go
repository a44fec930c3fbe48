package testutil

import (
	"sync"

	"github.com/roach88/mirror/internal/action"
	"github.com/roach88/mirror/internal/descriptor"
	"github.com/roach88/mirror/internal/ir"
)

// DefaultAddress is the destination used by RecordingClient.
var DefaultAddress = ir.Address{Network: "net", Domain: "dom", Device: "dev", VM: "vm0"}

// RecordingClient is an in-memory destination that keeps every message
// sent to it, in send order. Thread-safe.
type RecordingClient struct {
	Table     *descriptor.Table
	Addr      ir.Address
	Allocator *SequenceAllocator

	mu   sync.Mutex
	sent []action.Message
}

// NewRecordingClient returns a client over table at DefaultAddress.
func NewRecordingClient(table *descriptor.Table) *RecordingClient {
	return &RecordingClient{
		Table:     table,
		Addr:      DefaultAddress,
		Allocator: NewSequenceAllocator(),
	}
}

func (c *RecordingClient) Resolve(path string) (descriptor.Entry, error) {
	return c.Table.Resolve(path)
}

func (c *RecordingClient) AllocateIdentity() ir.UID {
	return c.Allocator.Next()
}

func (c *RecordingClient) Address() ir.Address {
	return c.Addr
}

func (c *RecordingClient) SendNoReply(msg action.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, msg)
}

// Sent returns a copy of every message sent so far.
func (c *RecordingClient) Sent() []action.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]action.Message, len(c.sent))
	copy(out, c.sent)
	return out
}

// RunActions returns only the RunActions, in send order.
func (c *RecordingClient) RunActions() []action.RunAction {
	var out []action.RunAction
	for _, msg := range c.Sent() {
		if run, ok := msg.(action.RunAction); ok {
			out = append(out, run)
		}
	}
	return out
}

// Saved returns only the SaveObjectActions, in send order.
func (c *RecordingClient) Saved() []action.SaveObjectAction {
	var out []action.SaveObjectAction
	for _, msg := range c.Sent() {
		if save, ok := msg.(action.SaveObjectAction); ok {
			out = append(out, save)
		}
	}
	return out
}
